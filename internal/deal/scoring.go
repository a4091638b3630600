package deal

import "github.com/iwvelando/offer-oven/pkg/constants"

// Label is a qualitative rating of a single metric.
type Label string

const (
	LabelGood    Label = "good"
	LabelCaution Label = "caution"
	LabelBad     Label = "bad"
)

// Scorecard rates the headline metrics of an offer.
type Scorecard struct {
	CashFlow        Label `json:"cashFlow"`
	EntryFeePercent Label `json:"entryFeePercent"`
	CashOnCash      Label `json:"cashOnCash"`
}

// Score maps an offer's metrics onto good/caution/bad labels. Higher cash
// flow and cash-on-cash are better; a lower entry fee share is better.
func Score(r OfferResult) Scorecard {
	return Scorecard{
		CashFlow:        atLeast(r.MonthlyCashFlow, constants.CashFlowGood, constants.CashFlowCaution),
		EntryFeePercent: atMost(r.EntryFeePercent, constants.EntryFeePercentGood, constants.EntryFeePercentCaution),
		CashOnCash:      atLeast(r.CashOnCashPercent, constants.CashOnCashGood, constants.CashOnCashCaution),
	}
}

func atLeast(value, good, caution float64) Label {
	switch {
	case value >= good:
		return LabelGood
	case value >= caution:
		return LabelCaution
	default:
		return LabelBad
	}
}

func atMost(value, good, caution float64) Label {
	switch {
	case value <= good:
		return LabelGood
	case value <= caution:
		return LabelCaution
	default:
		return LabelBad
	}
}
