package deal

import (
	"github.com/iwvelando/offer-oven/pkg/constants"
	"github.com/iwvelando/offer-oven/pkg/mathutil"
)

// MonthlyOperatingExpenses sums the rent-proportional reserves and the fixed
// monthly carrying costs of a property. Absent tax and insurance count as
// zero; estimating them is the caller's job.
func MonthlyOperatingExpenses(f PropertyFinancials) float64 {
	rent := f.MarketMonthlyRent
	vacancy := rent * f.VacancyRate
	maintenance := rent * f.MaintenanceRate
	management := rent * f.ManagementRate
	taxes := f.AnnualPropertyTax / constants.MonthsPerYear
	insurance := f.AnnualInsurance / constants.MonthsPerYear

	return vacancy + maintenance + management + taxes + insurance + f.MonthlyHOA + f.OtherMonthly
}

// cashOnCash annualizes a monthly cash flow against the cash brought to close.
func cashOnCash(monthlyCashFlow, entryFee float64) float64 {
	if entryFee <= 0 {
		return 0
	}
	return mathutil.Finite(monthlyCashFlow * constants.MonthsPerYear / entryFee * constants.PercentageMultiplier)
}

// entryFeePercent expresses the entry fee as a share of the purchase price.
func entryFeePercent(entryFee, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return mathutil.Finite(mathutil.CalculatePercentage(entryFee, price))
}
