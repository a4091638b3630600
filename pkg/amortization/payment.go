// Package amortization provides loan payment math shared by the offer
// calculators.
package amortization

import (
	"math"

	"github.com/iwvelando/offer-oven/pkg/constants"
)

// PaymentForLoan returns the periodic payment that fully amortizes pv over n
// periods at periodic rate r. A zero rate splits pv evenly, and zero periods
// yield 0. A non-positive pv yields a non-positive payment; callers clamp.
func PaymentForLoan(r float64, n int, pv float64) float64 {
	if n <= 0 {
		return 0
	}
	if r == 0 {
		return pv / float64(n)
	}

	power := math.Pow(1+r, float64(n))
	return r * pv * power / (power - 1)
}

// MonthlyRate converts an annual percentage (e.g. 6.0) into the monthly
// periodic rate used by PaymentForLoan.
func MonthlyRate(annualPercent float64) float64 {
	return annualPercent / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// InterestOnlyPayment calculates the monthly interest on a balance at an
// annual percentage rate.
func InterestOnlyPayment(balance, annualPercent float64) float64 {
	return balance * MonthlyRate(annualPercent)
}

// RemainingBalance returns the principal still owed after k payments of
// PaymentForLoan(r, n, pv). k is clamped to [0, n].
func RemainingBalance(r float64, n int, pv float64, k int) float64 {
	if n <= 0 {
		return pv
	}
	if k <= 0 {
		return pv
	}
	if k >= n {
		return 0
	}
	payment := PaymentForLoan(r, n, pv)
	if r == 0 {
		return pv - payment*float64(k)
	}

	growth := math.Pow(1+r, float64(k))
	return pv*growth - payment*(growth-1)/r
}
