// Package config defines the deal book structures and includes functions for
// loading the book and resolving each entry into a calculator request.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/offer-oven/internal/deal"
	"github.com/iwvelando/offer-oven/pkg/constants"
	"github.com/iwvelando/offer-oven/pkg/datetime"
	"github.com/iwvelando/offer-oven/pkg/validation"
	"github.com/spf13/viper"
)

// DateTimeLayout is the month format expected in deal books and is also the
// output date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds a full deal book.
type Configuration struct {
	Defaults Defaults
	Deals    []Deal
	Logging  LoggingConfig `yaml:"logging,omitempty"`
	Output   OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// Defaults holds the assumptions shared by every deal in the book. Unset rates
// fall back to the package constants.
type Defaults struct {
	VacancyRate          *float64 `yaml:"vacancyRate,omitempty"`
	MaintenanceRate      *float64 `yaml:"maintenanceRate,omitempty"`
	ManagementRate       *float64 `yaml:"managementRate,omitempty"`
	TaxInsuranceEstimate string   `yaml:"taxInsuranceEstimate,omitempty"` // none, price
	PropertyTaxRate      *float64 `yaml:"propertyTaxRate,omitempty"`
	AnnualInsurance      *float64 `yaml:"annualInsurance,omitempty"`
	ClosingMonth         string   `yaml:"closingMonth,omitempty"`
}

// Property holds the property-level inputs of a deal. Nil rates inherit the
// book defaults; nil tax and insurance are estimated according to the
// defaults' estimate policy.
type Property struct {
	Price             float64
	AfterRepairValue  float64
	EstimatedRepairs  float64
	MarketMonthlyRent float64
	AnnualPropertyTax *float64
	AnnualInsurance   *float64
	MonthlyHOA        float64
	OtherMonthly      float64
	VacancyRate       *float64
	MaintenanceRate   *float64
	ManagementRate    *float64
	Sqft              float64
	RehabLevel        string
	Comps             []deal.Comp
}

// Deal is one entry of the deal book.
type Deal struct {
	Name          string
	Active        bool
	Address       string
	Strategy      string
	ClosingMonth  string
	Property      Property
	Loan          *deal.ExistingLoan
	Cash          *deal.CashTerms
	SubTo         *deal.SubToTerms
	SellerFinance *deal.SellerFinanceTerms
	Novation      *deal.NovationTerms
	Optimizer     *OptimizerConfig
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// deal book there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted deal book from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := configuration.Defaults.Validate(); err != nil {
		return nil, err
	}
	for i := range configuration.Deals {
		if configuration.Deals[i].Optimizer != nil {
			configuration.Deals[i].Optimizer.Normalize()
		}
	}

	return &configuration, nil
}

// Validate returns an error when the defaults name an unsupported policy.
func (d Defaults) Validate() error {
	switch normalizeEstimate(d.TaxInsuranceEstimate) {
	case constants.EstimateNone, constants.EstimatePrice:
	default:
		return fmt.Errorf("taxInsuranceEstimate must be %s or %s, got %q",
			constants.EstimateNone, constants.EstimatePrice, d.TaxInsuranceEstimate)
	}
	for name, rate := range map[string]*float64{
		"vacancyRate":     d.VacancyRate,
		"maintenanceRate": d.MaintenanceRate,
		"managementRate":  d.ManagementRate,
		"propertyTaxRate": d.PropertyTaxRate,
	} {
		if rate != nil && (*rate < 0 || *rate > 1) {
			return fmt.Errorf("default %s must be between 0 and 1, got %v", name, *rate)
		}
	}
	return nil
}

// Apply resolves a property against the defaults into calculator inputs.
func (d Defaults) Apply(p Property) deal.PropertyFinancials {
	f := deal.PropertyFinancials{
		Price:             p.Price,
		AfterRepairValue:  p.AfterRepairValue,
		EstimatedRepairs:  p.EstimatedRepairs,
		MarketMonthlyRent: p.MarketMonthlyRent,
		MonthlyHOA:        p.MonthlyHOA,
		OtherMonthly:      p.OtherMonthly,
		VacancyRate:       rateOr(p.VacancyRate, d.VacancyRate, constants.DefaultVacancyRate),
		MaintenanceRate:   rateOr(p.MaintenanceRate, d.MaintenanceRate, constants.DefaultMaintenanceRate),
		ManagementRate:    rateOr(p.ManagementRate, d.ManagementRate, constants.DefaultManagementRate),
	}

	estimate := normalizeEstimate(d.TaxInsuranceEstimate) == constants.EstimatePrice

	switch {
	case p.AnnualPropertyTax != nil:
		f.AnnualPropertyTax = *p.AnnualPropertyTax
	case estimate:
		f.AnnualPropertyTax = p.Price * rateOr(nil, d.PropertyTaxRate, constants.DefaultPropertyTaxRate)
	}

	switch {
	case p.AnnualInsurance != nil:
		f.AnnualInsurance = *p.AnnualInsurance
	case estimate:
		f.AnnualInsurance = rateOr(nil, d.AnnualInsurance, constants.DefaultAnnualInsurance)
	}

	return f
}

// Request resolves the deal into a calculator request. ARV is derived from
// comps and repairs from the rehab level when they are not given directly.
func (d Deal) Request(defaults Defaults) (deal.Request, error) {
	strategy, err := deal.ParseStrategy(strings.TrimSpace(d.Strategy))
	if err != nil {
		return deal.Request{}, fmt.Errorf("deal %s: %w", d.Name, err)
	}

	financials := defaults.Apply(d.Property)

	if financials.AfterRepairValue == 0 && len(d.Property.Comps) > 0 {
		if err := validation.ValidateComps(d.Property.Comps); err != nil {
			return deal.Request{}, fmt.Errorf("deal %s: %w", d.Name, err)
		}
		financials.AfterRepairValue = deal.ARVFromComps(d.Property.Comps, d.Property.Sqft)
	}

	if financials.EstimatedRepairs == 0 && d.Property.RehabLevel != "" {
		repairs, err := deal.EstimateRehab(d.Property.Sqft, d.Property.RehabLevel)
		if err != nil {
			return deal.Request{}, fmt.Errorf("deal %s: %w", d.Name, err)
		}
		financials.EstimatedRepairs = repairs
	}

	req := deal.Request{Financials: financials}

	switch strategy {
	case deal.StrategyCash:
		terms := deal.CashTerms{}
		if d.Cash != nil {
			terms = *d.Cash
		}
		req.Terms = terms
	case deal.StrategySubTo:
		terms := deal.SubToTerms{}
		if d.SubTo != nil {
			terms = *d.SubTo
		}
		if d.Loan != nil {
			loan := *d.Loan
			req.Loan = &loan
		}
		req.Terms = terms
	case deal.StrategySellerFinance:
		terms := deal.SellerFinanceTerms{}
		if d.SellerFinance != nil {
			terms = *d.SellerFinance
		}
		req.Terms = terms
	case deal.StrategyNovation:
		terms := deal.NovationTerms{}
		if d.Novation != nil {
			terms = *d.Novation
		}
		req.Terms = terms
	}

	return req, nil
}

// EffectiveClosingMonth returns the deal's closing month, falling back to the
// book default.
func (d Deal) EffectiveClosingMonth(defaults Defaults) string {
	if d.ClosingMonth != "" {
		return d.ClosingMonth
	}
	return defaults.ClosingMonth
}

// ValidateConfiguration performs general validation of the deal book and
// returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	return c.ValidateConfigurationWithFixedTime(time.Now())
}

// ValidateConfigurationWithFixedTime validates the deal book relative to the
// month containing fixedTime.
func (c *Configuration) ValidateConfigurationWithFixedTime(fixedTime time.Time) []string {
	var warnings []string
	checks := make([]validation.DealCheck, 0, len(c.Deals))

	for _, d := range c.Deals {
		check := validation.DealCheck{
			Name:         d.Name,
			Active:       d.Active,
			ClosingMonth: d.EffectiveClosingMonth(c.Defaults),
		}
		if d.Active {
			req, err := d.Request(c.Defaults)
			if err != nil {
				warnings = append(warnings, err.Error())
				continue
			}
			check.Request = req
		}
		checks = append(checks, check)
	}

	validator := &validation.ConfigValidator{
		CurrentMonth: datetime.CurrentMonth(fixedTime),
		Deals:        checks,
	}
	return append(warnings, validator.ValidateAll()...)
}

func rateOr(value, fallback *float64, builtin float64) float64 {
	if value != nil {
		return *value
	}
	if fallback != nil {
		return *fallback
	}
	return builtin
}

func normalizeEstimate(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return constants.EstimateNone
	}
	return value
}
