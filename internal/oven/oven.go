// Package oven runs a whole deal book through the offer calculators and
// gathers the scored results.
package oven

import (
	"fmt"

	"github.com/iwvelando/offer-oven/internal/config"
	"github.com/iwvelando/offer-oven/internal/deal"
	"github.com/iwvelando/offer-oven/internal/metrics"
	"github.com/iwvelando/offer-oven/internal/optimizer"
	"github.com/iwvelando/offer-oven/pkg/constants"
	"github.com/iwvelando/offer-oven/pkg/datetime"
	"github.com/iwvelando/offer-oven/pkg/format"
	"github.com/iwvelando/offer-oven/pkg/mathutil"
	"github.com/iwvelando/offer-oven/pkg/optimization"
	"github.com/iwvelando/offer-oven/pkg/validation"
	"go.uber.org/zap"
)

// Result holds everything computed for one deal.
type Result struct {
	Name         string                `json:"name"`
	Address      string                `json:"address,omitempty"`
	Strategy     deal.Strategy         `json:"strategy"`
	Offer        deal.OfferResult      `json:"offer"`
	Scorecard    deal.Scorecard        `json:"scorecard"`
	ClosingMonth string                `json:"closingMonth,omitempty"`
	BalloonDue   string                `json:"balloonDue,omitempty"`
	Optimization *optimization.Summary `json:"optimization,omitempty"`
	Notes        []string              `json:"notes,omitempty"`
}

// Bake computes, scores, and annotates every active deal in the book.
func Bake(logger *zap.Logger, conf config.Configuration) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results []Result
	for _, d := range conf.Deals {
		if !d.Active {
			logger.Debug(fmt.Sprintf("skipping deal %s because it is inactive", d.Name),
				zap.String("op", "oven.Bake"),
			)
			continue
		}

		result, err := BakeDeal(logger, conf.Defaults, d)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// BakeDeal computes, scores, and annotates one deal regardless of whether it
// is active.
func BakeDeal(logger *zap.Logger, defaults config.Defaults, d config.Deal) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	req, err := d.Request(defaults)
	if err != nil {
		return Result{}, err
	}
	if err := validation.ValidateRequest(req); err != nil {
		return Result{}, fmt.Errorf("deal %s: %w", d.Name, err)
	}

	offer := deal.Calculate(req)
	metrics.ObserveOffer(string(offer.Strategy))

	result := Result{
		Name:         d.Name,
		Address:      d.Address,
		Strategy:     offer.Strategy,
		Offer:        offer,
		Scorecard:    deal.Score(offer),
		ClosingMonth: d.EffectiveClosingMonth(defaults),
		Notes:        Notes(offer),
	}

	if offer.BalloonPayment > 0 && result.ClosingMonth != "" {
		due, err := datetime.OffsetDate(result.ClosingMonth, datetime.DateTimeLayout, offer.BalloonYears*constants.MonthsPerYear)
		if err != nil {
			return Result{}, fmt.Errorf("deal %s closing month: %w", d.Name, err)
		}
		result.BalloonDue = due
	}

	if d.Optimizer != nil {
		summary, err := optimizer.Optimize(optimizer.Target{Name: d.Name, Request: req, Config: d.Optimizer})
		if err != nil {
			return Result{}, fmt.Errorf("deal %s: %w", d.Name, err)
		}
		result.Optimization = &summary
	}

	logger.Debug("computed offer",
		zap.String("op", "oven.BakeDeal"),
		zap.String("deal", d.Name),
		zap.String("strategy", string(offer.Strategy)),
		zap.Float64("offerPrice", offer.OfferPrice),
		zap.Float64("monthlyCashFlow", offer.MonthlyCashFlow),
		zap.Float64("cashOnCash", offer.CashOnCashPercent),
	)

	return result, nil
}

// Notes flags the conditions of an offer a reader should not miss.
func Notes(offer deal.OfferResult) []string {
	var notes []string

	if offer.OfferPrice < 0 {
		notes = append(notes, fmt.Sprintf("offer is negative (%s): the deal does not work at any price", format.Currency(offer.OfferPrice)))
	}
	if offer.Strategy != deal.StrategyNovation && mathutil.Round(offer.MonthlyCashFlow) < 0 {
		notes = append(notes, fmt.Sprintf("negative monthly cash flow of %s", format.Currency(offer.MonthlyCashFlow)))
	}
	if offer.PaymentClamped {
		notes = append(notes, "target cash flow exceeds net rent: payment clamped to zero")
	}
	if offer.BalloonPayment > 0 {
		notes = append(notes, fmt.Sprintf("balloon of %s due after %d years", format.Currency(offer.BalloonPayment), offer.BalloonYears))
	}

	return notes
}
