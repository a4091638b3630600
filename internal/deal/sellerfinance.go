package deal

import (
	"github.com/iwvelando/offer-oven/pkg/amortization"
	"github.com/iwvelando/offer-oven/pkg/constants"
	"github.com/iwvelando/offer-oven/pkg/mathutil"
)

// SellerFinanceDeal profiles a seller-carried note at the asking price.
//
// In forward mode the payment comes from the note terms: interest only, or a
// fully amortizing payment over AmortizationYears at the annual
// InterestRate. In reverse-solve mode the payment is the most the rent can
// carry while leaving TargetMonthlyCashFlow, floored at zero.
func SellerFinanceDeal(f PropertyFinancials, t SellerFinanceTerms) OfferResult {
	offer := f.Price
	loanAmount := offer - t.DownPayment
	expenses := MonthlyOperatingExpenses(f)

	var debtService, balloon float64
	clamped := false
	if t.ReverseSolve() {
		debtService = f.MarketMonthlyRent - expenses - *t.TargetMonthlyCashFlow
		if debtService < 0 {
			debtService = 0
			clamped = true
		}
	} else if loanAmount > 0 {
		debtService, balloon = forwardPayment(loanAmount, t)
	}

	closingCosts := f.Price * t.ClosingCostRate
	entryFee := t.DownPayment + f.EstimatedRepairs + t.AssignmentFee + closingCosts
	cashFlow := f.MarketMonthlyRent - expenses - debtService

	return OfferResult{
		Strategy:                      StrategySellerFinance,
		OfferPrice:                    offer,
		DownPayment:                   t.DownPayment,
		LoanAmount:                    mathutil.Max(loanAmount, 0),
		MonthlyDebtService:            debtService,
		MonthlyCashFlow:               cashFlow,
		CashOnCashPercent:             cashOnCash(cashFlow, entryFee),
		EntryFee:                      entryFee,
		EntryFeePercent:               entryFeePercent(entryFee, f.Price),
		ClosingCosts:                  closingCosts,
		AssignmentFee:                 t.AssignmentFee,
		TotalMonthlyOperatingExpenses: expenses,
		ProjectedNetProfit:            cashFlow * constants.MonthsPerYear * constants.SellerFinanceHoldYears,
		AmortizationYears:             t.AmortizationYears,
		BalloonYears:                  t.BalloonYears,
		BalloonPayment:                balloon,
		PaymentClamped:                clamped,
	}
}

// forwardPayment returns the monthly note payment and the balance due at the
// balloon, if the note has one that lands before maturity.
func forwardPayment(loanAmount float64, t SellerFinanceTerms) (float64, float64) {
	balloonMonths := t.BalloonYears * constants.MonthsPerYear

	if t.InterestOnly {
		payment := amortization.InterestOnlyPayment(loanAmount, t.InterestRate)
		if balloonMonths > 0 {
			return payment, loanAmount
		}
		return payment, 0
	}

	rate := amortization.MonthlyRate(t.InterestRate)
	months := t.AmortizationYears * constants.MonthsPerYear
	payment := amortization.PaymentForLoan(rate, months, loanAmount)
	if balloonMonths > 0 && balloonMonths < months {
		return payment, amortization.RemainingBalance(rate, months, loanAmount, balloonMonths)
	}
	return payment, 0
}
