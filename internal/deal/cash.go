package deal

import (
	"math"

	"github.com/iwvelando/offer-oven/pkg/constants"
	"github.com/shopspring/decimal"
)

var cashOfferRatio = decimal.NewFromFloat(constants.CashOfferARVRatio)

// CashOffer returns the 70%-rule maximum allowable offer, floored to whole
// currency units. A negative result is returned as-is: it means the deal
// does not work at any price. A non-finite input yields 0.
func CashOffer(afterRepairValue, estimatedRepairs, assignmentFee float64) float64 {
	for _, value := range []float64{afterRepairValue, estimatedRepairs, assignmentFee} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0
		}
	}
	mao := decimal.NewFromFloat(afterRepairValue).
		Mul(cashOfferRatio).
		Sub(decimal.NewFromFloat(estimatedRepairs)).
		Sub(decimal.NewFromFloat(assignmentFee)).
		Floor()
	return mao.InexactFloat64()
}

// CashDeal profiles an all-cash acquisition at the maximum allowable offer.
// The buyer brings the full offer, so there is no debt service.
func CashDeal(f PropertyFinancials, t CashTerms) OfferResult {
	offer := CashOffer(f.AfterRepairValue, f.EstimatedRepairs, t.AssignmentFee)
	closingCosts := f.Price * t.ClosingCostRate
	entryFee := offer + f.EstimatedRepairs + t.AssignmentFee + closingCosts

	expenses := MonthlyOperatingExpenses(f)
	cashFlow := f.MarketMonthlyRent - expenses

	return OfferResult{
		Strategy:                      StrategyCash,
		OfferPrice:                    offer,
		DownPayment:                   offer,
		MonthlyCashFlow:               cashFlow,
		CashOnCashPercent:             cashOnCash(cashFlow, entryFee),
		EntryFee:                      entryFee,
		EntryFeePercent:               entryFeePercent(entryFee, f.Price),
		ClosingCosts:                  closingCosts,
		AssignmentFee:                 t.AssignmentFee,
		TotalMonthlyOperatingExpenses: expenses,
		ProjectedNetProfit:            f.AfterRepairValue - entryFee,
	}
}
