// Package validation provides deal book and request validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/offer-oven/internal/deal"
	"github.com/iwvelando/offer-oven/pkg/datetime"
)

// ValidateBalloon checks that a seller-finance balloon lands before the note
// would have amortized anyway.
func ValidateBalloon(dealName string, terms deal.SellerFinanceTerms) string {
	if terms.BalloonYears <= 0 || terms.InterestOnly || terms.ReverseSolve() {
		return ""
	}
	if terms.AmortizationYears > 0 && terms.BalloonYears >= terms.AmortizationYears {
		return fmt.Sprintf("Deal '%s' balloon (%d years) is not before amortization end (%d years) - no balloon will be due",
			dealName, terms.BalloonYears, terms.AmortizationYears)
	}
	return ""
}

// ValidateAmortization warns when a forward note has no term to amortize over,
// which leaves a financed balance with no monthly payment.
func ValidateAmortization(dealName string, terms deal.SellerFinanceTerms, price float64) string {
	if terms.InterestOnly || terms.ReverseSolve() || terms.AmortizationYears > 0 {
		return ""
	}
	if price-terms.DownPayment <= 0 {
		return ""
	}
	return fmt.Sprintf("Deal '%s' has no amortization term and is not interest-only - seller-finance payment will be zero", dealName)
}

// ValidateClosingMonth checks the closing month format and warns when it is
// already in the past relative to currentMonth.
func ValidateClosingMonth(dealName, closingMonth, currentMonth string) []string {
	if closingMonth == "" {
		return nil
	}
	if err := datetime.ValidMonth(closingMonth); err != nil {
		return []string{fmt.Sprintf("Deal '%s' closing month: %v", dealName, err)}
	}
	before, err := datetime.DateBeforeDate(closingMonth, currentMonth)
	if err == nil && before {
		return []string{fmt.Sprintf("Deal '%s' closes in the past (%s < %s)", dealName, closingMonth, currentMonth)}
	}
	return nil
}

// DealCheck is the slice of a deal book entry the validator needs.
type DealCheck struct {
	Name         string
	Active       bool
	ClosingMonth string
	Request      deal.Request
}

// ConfigValidator collects warnings across a whole deal book.
type ConfigValidator struct {
	CurrentMonth string
	Deals        []DealCheck
}

// ValidateAll validates every active deal and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	inactive := 0
	for _, d := range cv.Deals {
		if !d.Active {
			inactive++
			continue
		}

		warnings = append(warnings, ValidateClosingMonth(d.Name, d.ClosingMonth, cv.CurrentMonth)...)

		f := d.Request.Financials
		switch t := d.Request.Terms.(type) {
		case deal.CashTerms:
			if f.AfterRepairValue == 0 {
				warnings = append(warnings, fmt.Sprintf("Deal '%s' has no after-repair value - cash offer will be negative", d.Name))
			}
		case deal.SubToTerms:
			if d.Request.Loan == nil {
				warnings = append(warnings, fmt.Sprintf("Deal '%s' is SubTo without an existing loan - treated as free and clear", d.Name))
			}
			if f.MarketMonthlyRent == 0 {
				warnings = append(warnings, fmt.Sprintf("Deal '%s' has no market rent on a hold strategy", d.Name))
			}
		case deal.SellerFinanceTerms:
			if f.MarketMonthlyRent == 0 {
				warnings = append(warnings, fmt.Sprintf("Deal '%s' has no market rent on a hold strategy", d.Name))
			}
			if t.DownPayment > f.Price {
				warnings = append(warnings, fmt.Sprintf("Deal '%s' down payment exceeds price (%.2f > %.2f)", d.Name, t.DownPayment, f.Price))
			}
			if w := ValidateBalloon(d.Name, t); w != "" {
				warnings = append(warnings, w)
			}
			if w := ValidateAmortization(d.Name, t, f.Price); w != "" {
				warnings = append(warnings, w)
			}
		case deal.NovationTerms:
			if f.AfterRepairValue == 0 {
				warnings = append(warnings, fmt.Sprintf("Deal '%s' has no after-repair value - novation offer will be negative", d.Name))
			}
		}
	}

	if inactive > 0 {
		warnings = append(warnings, fmt.Sprintf("%d inactive deal(s) skipped", inactive))
	}

	return warnings
}
