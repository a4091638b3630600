package config

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/offer-oven/internal/deal"
)

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Test deal book",
			configPath: "testdata/deals.yaml",
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationStructure(t *testing.T) {
	config, err := LoadConfiguration("testdata/deals.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Logging.Level != "warn" {
		t.Errorf("Expected logging level 'warn', got '%s'", config.Logging.Level)
	}
	if config.Output.Format != "pretty" {
		t.Errorf("Expected output format 'pretty', got '%s'", config.Output.Format)
	}
	if config.Defaults.ManagementRate == nil || *config.Defaults.ManagementRate != 0.08 {
		t.Errorf("Expected default management rate 0.08, got %v", config.Defaults.ManagementRate)
	}
	if len(config.Deals) != 4 {
		t.Fatalf("Expected 4 deals, got %d", len(config.Deals))
	}

	subto := config.Deals[1]
	if subto.Loan == nil || subto.Loan.CurrentBalance != 150000 {
		t.Errorf("Expected SubTo loan balance 150000, got %+v", subto.Loan)
	}
	if subto.SubTo == nil || subto.SubTo.CashToSeller != 5000 {
		t.Errorf("Expected SubTo cash to seller 5000, got %+v", subto.SubTo)
	}

	cedar := config.Deals[2]
	if cedar.SellerFinance == nil || cedar.SellerFinance.BalloonYears != 5 {
		t.Errorf("Expected seller finance balloon of 5 years, got %+v", cedar.SellerFinance)
	}
	if len(cedar.Property.Comps) != 2 {
		t.Errorf("Expected 2 comps, got %d", len(cedar.Property.Comps))
	}
	if cedar.Optimizer == nil || cedar.Optimizer.Field != OptimizerFieldPrice || cedar.Optimizer.Tolerance != defaultToleranceAmount {
		t.Errorf("Expected normalized optimizer, got %+v", cedar.Optimizer)
	}

	if config.Deals[3].Active {
		t.Errorf("Expected novation deal to be inactive")
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	book := `
defaults:
  taxInsuranceEstimate: none
deals:
  - name: Reader deal
    active: true
    strategy: novation
    property:
      afterRepairValue: 300000
      estimatedRepairs: 40000
    novation:
      investorProfitTarget: 25000
`
	config, err := LoadConfigurationFromReader(strings.NewReader(book))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	req, err := config.Deals[0].Request(config.Defaults)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if got := deal.Calculate(req).OfferPrice; got != 211000 {
		t.Errorf("Expected novation offer 211000, got %v", got)
	}

	_, err = LoadConfigurationFromReader(strings.NewReader("defaults:\n  taxInsuranceEstimate: zillow\n"))
	if err == nil {
		t.Errorf("Expected error for unsupported estimate policy")
	}
}

func TestDefaultsApply(t *testing.T) {
	tests := []struct {
		name     string
		defaults Defaults
		property Property
		expected deal.PropertyFinancials
	}{
		{
			name:     "Built-in rates and no estimate",
			defaults: Defaults{},
			property: Property{Price: 200000, MarketMonthlyRent: 1800},
			expected: deal.PropertyFinancials{
				Price: 200000, MarketMonthlyRent: 1800,
				VacancyRate: 0.05, MaintenanceRate: 0.10, ManagementRate: 0.10,
			},
		},
		{
			name:     "Book defaults override built-ins",
			defaults: Defaults{VacancyRate: floatPtr(0.08), ManagementRate: floatPtr(0)},
			property: Property{Price: 200000},
			expected: deal.PropertyFinancials{
				Price: 200000, VacancyRate: 0.08, MaintenanceRate: 0.10, ManagementRate: 0,
			},
		},
		{
			name:     "Property overrides book defaults",
			defaults: Defaults{VacancyRate: floatPtr(0.08)},
			property: Property{VacancyRate: floatPtr(0.03), MaintenanceRate: floatPtr(0), ManagementRate: floatPtr(0)},
			expected: deal.PropertyFinancials{VacancyRate: 0.03},
		},
		{
			name:     "Price estimate fills tax and insurance",
			defaults: Defaults{TaxInsuranceEstimate: "price", VacancyRate: floatPtr(0), MaintenanceRate: floatPtr(0), ManagementRate: floatPtr(0)},
			property: Property{Price: 250000},
			expected: deal.PropertyFinancials{Price: 250000, AnnualPropertyTax: 3000, AnnualInsurance: 1200},
		},
		{
			name:     "Price estimate respects explicit values",
			defaults: Defaults{TaxInsuranceEstimate: "Price", PropertyTaxRate: floatPtr(0.02), VacancyRate: floatPtr(0), MaintenanceRate: floatPtr(0), ManagementRate: floatPtr(0)},
			property: Property{Price: 100000, AnnualInsurance: floatPtr(0)},
			expected: deal.PropertyFinancials{Price: 100000, AnnualPropertyTax: 2000, AnnualInsurance: 0},
		},
		{
			name:     "No estimate leaves tax and insurance at zero",
			defaults: Defaults{TaxInsuranceEstimate: "none", VacancyRate: floatPtr(0), MaintenanceRate: floatPtr(0), ManagementRate: floatPtr(0)},
			property: Property{Price: 100000},
			expected: deal.PropertyFinancials{Price: 100000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.defaults.Apply(tt.property)
			if !financialsClose(got, tt.expected) {
				t.Errorf("Apply() = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func financialsClose(a, b deal.PropertyFinancials) bool {
	pairs := [][2]float64{
		{a.Price, b.Price},
		{a.AfterRepairValue, b.AfterRepairValue},
		{a.EstimatedRepairs, b.EstimatedRepairs},
		{a.MarketMonthlyRent, b.MarketMonthlyRent},
		{a.AnnualPropertyTax, b.AnnualPropertyTax},
		{a.AnnualInsurance, b.AnnualInsurance},
		{a.MonthlyHOA, b.MonthlyHOA},
		{a.OtherMonthly, b.OtherMonthly},
		{a.VacancyRate, b.VacancyRate},
		{a.MaintenanceRate, b.MaintenanceRate},
		{a.ManagementRate, b.ManagementRate},
	}
	for _, p := range pairs {
		if math.Abs(p[0]-p[1]) > 1e-6 {
			return false
		}
	}
	return true
}

func TestDefaultsValidate(t *testing.T) {
	if err := (Defaults{}).Validate(); err != nil {
		t.Errorf("empty defaults should validate, got %v", err)
	}
	if err := (Defaults{TaxInsuranceEstimate: "PRICE"}).Validate(); err != nil {
		t.Errorf("estimate policy should be case insensitive, got %v", err)
	}
	if err := (Defaults{TaxInsuranceEstimate: "zestimate"}).Validate(); err == nil {
		t.Errorf("expected error for unknown estimate policy")
	}
	if err := (Defaults{VacancyRate: floatPtr(1.5)}).Validate(); err == nil {
		t.Errorf("expected error for vacancy rate above 1")
	}
}

func TestDealRequest(t *testing.T) {
	config, err := LoadConfiguration("testdata/deals.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	t.Run("Cash deal", func(t *testing.T) {
		req, err := config.Deals[0].Request(config.Defaults)
		if err != nil {
			t.Fatalf("Request() error = %v", err)
		}
		if _, ok := req.Terms.(deal.CashTerms); !ok {
			t.Fatalf("expected CashTerms, got %T", req.Terms)
		}
		if got := deal.Calculate(req).OfferPrice; got != 110000 {
			t.Errorf("expected cash offer 110000, got %v", got)
		}
	})

	t.Run("SubTo deal", func(t *testing.T) {
		req, err := config.Deals[1].Request(config.Defaults)
		if err != nil {
			t.Fatalf("Request() error = %v", err)
		}
		result := deal.Calculate(req)
		if math.Abs(result.EntryFee-18600) > 0.001 || result.OfferPrice != 157000 || math.Abs(result.MonthlyCashFlow-500) > 0.001 {
			t.Errorf("unexpected SubTo result %+v", result)
		}
		if req.Loan == config.Deals[1].Loan {
			t.Errorf("expected request to own a copy of the loan")
		}
	})

	t.Run("Seller finance derives ARV and repairs", func(t *testing.T) {
		req, err := config.Deals[2].Request(config.Defaults)
		if err != nil {
			t.Fatalf("Request() error = %v", err)
		}
		f := req.Financials
		// (230000/1400 + 252000/1500) / 2 * 1400
		expectedARV := math.Round((230000.0/1400 + 252000.0/1500) / 2 * 1400)
		if f.AfterRepairValue != expectedARV {
			t.Errorf("expected ARV %v, got %v", expectedARV, f.AfterRepairValue)
		}
		if f.EstimatedRepairs != 35000 {
			t.Errorf("expected light rehab of 35000, got %v", f.EstimatedRepairs)
		}
		if math.Abs(f.AnnualPropertyTax-2400) > 1e-6 || f.AnnualInsurance != 1200 {
			t.Errorf("expected price-based estimates 2400/1200, got %v/%v", f.AnnualPropertyTax, f.AnnualInsurance)
		}
		if f.ManagementRate != 0.08 {
			t.Errorf("expected book management rate 0.08, got %v", f.ManagementRate)
		}
	})

	t.Run("Missing terms default to zero", func(t *testing.T) {
		d := Deal{Name: "Bare", Strategy: "subto"}
		req, err := d.Request(Defaults{})
		if err != nil {
			t.Fatalf("Request() error = %v", err)
		}
		if req.Terms != (deal.SubToTerms{}) || req.Loan != nil {
			t.Errorf("expected zero SubTo terms and nil loan, got %+v", req)
		}
	})

	t.Run("Unknown strategy", func(t *testing.T) {
		_, err := Deal{Name: "Odd", Strategy: "wraparound"}.Request(Defaults{})
		if err == nil || !strings.Contains(err.Error(), "Odd") {
			t.Errorf("expected error naming the deal, got %v", err)
		}
	})

	t.Run("Unknown rehab level", func(t *testing.T) {
		d := Deal{Name: "Gut", Strategy: "cash", Property: Property{Sqft: 1000, RehabLevel: "gut"}}
		if _, err := d.Request(Defaults{}); err == nil {
			t.Errorf("expected error for unknown rehab level")
		}
	})
}

func TestEffectiveClosingMonth(t *testing.T) {
	defaults := Defaults{ClosingMonth: "2027-02"}
	if got := (Deal{}).EffectiveClosingMonth(defaults); got != "2027-02" {
		t.Errorf("expected default closing month, got %s", got)
	}
	if got := (Deal{ClosingMonth: "2027-06"}).EffectiveClosingMonth(defaults); got != "2027-06" {
		t.Errorf("expected deal closing month, got %s", got)
	}
}

func TestValidateConfiguration(t *testing.T) {
	config, err := LoadConfiguration("testdata/deals.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	fixed := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	warnings := config.ValidateConfigurationWithFixedTime(fixed)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "1 inactive deal(s) skipped") {
		t.Errorf("expected only the inactive deal warning, got %v", warnings)
	}

	config.Deals = append(config.Deals, Deal{Name: "Broken", Active: true, Strategy: "lease"})
	config.Deals[0].ClosingMonth = "2025-01"
	warnings = config.ValidateConfigurationWithFixedTime(fixed)

	joined := strings.Join(warnings, "\n")
	for _, expected := range []string{"Broken", "closes in the past", "inactive"} {
		if !strings.Contains(joined, expected) {
			t.Errorf("expected a warning containing %q, got %v", expected, warnings)
		}
	}
}
