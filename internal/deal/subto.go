package deal

import "github.com/iwvelando/offer-oven/pkg/constants"

// SubToDeal profiles taking over the seller's existing loan. The buyer
// assumes the current principal and interest payment as-is.
func SubToDeal(f PropertyFinancials, loan ExistingLoan, t SubToTerms) OfferResult {
	closingCosts := f.Price * t.ClosingCostRate
	entryFee := t.CashToSeller + f.EstimatedRepairs + t.AssignmentFee + closingCosts + loan.ArrearsOwed
	offer := loan.CurrentBalance + t.CashToSeller + loan.ArrearsOwed

	expenses := MonthlyOperatingExpenses(f)
	debtService := loan.MonthlyPrincipalAndInterest
	cashFlow := f.MarketMonthlyRent - expenses - debtService

	// Hold-period cash flow plus the equity captured at purchase.
	projected := cashFlow*constants.MonthsPerYear*constants.SubToHoldYears + (f.AfterRepairValue - offer)

	return OfferResult{
		Strategy:                      StrategySubTo,
		OfferPrice:                    offer,
		DownPayment:                   t.CashToSeller,
		LoanAmount:                    loan.CurrentBalance,
		MonthlyDebtService:            debtService,
		MonthlyCashFlow:               cashFlow,
		CashOnCashPercent:             cashOnCash(cashFlow, entryFee),
		EntryFee:                      entryFee,
		EntryFeePercent:               entryFeePercent(entryFee, f.Price),
		ClosingCosts:                  closingCosts,
		AssignmentFee:                 t.AssignmentFee,
		TotalMonthlyOperatingExpenses: expenses,
		ProjectedNetProfit:            projected,
	}
}
