// Package optimizer searches a deal input for the highest value that keeps a
// result metric at or above a floor.
package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/offer-oven/internal/config"
	"github.com/iwvelando/offer-oven/internal/deal"
	"github.com/iwvelando/offer-oven/pkg/format"
	"github.com/iwvelando/offer-oven/pkg/optimization"
)

// Target is one deal to optimize.
type Target struct {
	Name    string
	Request deal.Request
	Config  *config.OptimizerConfig
}

type evaluation struct {
	value    float64
	achieved float64
	floor    float64
}

func (e evaluation) feasible() bool {
	return e.achieved >= e.floor
}

func (e evaluation) headroom() float64 {
	return e.achieved - e.floor
}

// Optimize bisects the target's field between the configured bounds for the
// highest value whose metric stays at or above the floor. The metric is
// assumed to be non-increasing in the field.
func Optimize(target Target) (optimization.Summary, error) {
	cfg := target.Config
	if err := cfg.Validate(); err != nil {
		return optimization.Summary{}, err
	}
	if err := checkStrategy(cfg.Field, target.Request.Terms); err != nil {
		return optimization.Summary{}, err
	}

	minVal, maxVal := *cfg.Min, *cfg.Max
	original := fieldValue(target.Request, cfg.Field)

	evaluate := func(value float64) evaluation {
		result := deal.Calculate(withField(target.Request, cfg.Field, value))
		return evaluation{value: value, achieved: metricValue(result, cfg.Metric), floor: cfg.Floor}
	}

	summary := optimization.Summary{
		DealName:        target.Name,
		Field:           cfg.Field,
		Metric:          cfg.Metric,
		Original:        original,
		OriginalDisplay: format.Currency(original),
		Floor:           cfg.Floor,
	}
	finish := func(eval evaluation, iterations int, converged bool, notes ...string) optimization.Summary {
		summary.Value = eval.value
		summary.ValueDisplay = format.Currency(eval.value)
		summary.Achieved = eval.achieved
		summary.Headroom = eval.headroom()
		summary.Iterations = iterations
		summary.Converged = converged
		summary.Notes = notes
		return summary
	}

	lowerEval := evaluate(minVal)
	upperEval := evaluate(maxVal)

	if upperEval.feasible() {
		note := fmt.Sprintf("maximum bound %s keeps %s at or above %s",
			format.Currency(maxVal), cfg.Metric, formatMetric(cfg.Metric, cfg.Floor))
		return finish(upperEval, 0, true, note), nil
	}
	if !lowerEval.feasible() {
		note := fmt.Sprintf("unable to keep %s at or above %s within bounds %s to %s",
			cfg.Metric, formatMetric(cfg.Metric, cfg.Floor), format.Currency(minVal), format.Currency(maxVal))
		return finish(lowerEval, 0, false, note), nil
	}

	iterations := 0
	finalEval := lowerEval
	lower := lowerEval.value
	upper := upperEval.value
	for iterations < cfg.MaxIterations && math.Abs(upper-lower) > cfg.Tolerance {
		mid := lower + (upper-lower)/2
		evalMid := evaluate(mid)
		iterations++
		if evalMid.feasible() {
			finalEval = evalMid
			if evalMid.value == lower {
				break
			}
			lower = evalMid.value
		} else {
			if evalMid.value == upper {
				break
			}
			upper = evalMid.value
		}
	}

	converged := math.Abs(upper-lower) <= cfg.Tolerance
	if !converged {
		note := fmt.Sprintf("stopped after %d iterations with a gap of %s", iterations, format.Currency(upper-lower))
		return finish(finalEval, iterations, false, note), nil
	}
	return finish(finalEval, iterations, true), nil
}

func checkStrategy(field string, terms deal.Terms) error {
	switch field {
	case config.OptimizerFieldPrice:
		if _, ok := terms.(deal.SellerFinanceTerms); ok {
			return nil
		}
	case config.OptimizerFieldCashToSeller:
		if _, ok := terms.(deal.SubToTerms); ok {
			return nil
		}
	}
	strategy := "none"
	if terms != nil {
		strategy = string(terms.Strategy())
	}
	return fmt.Errorf("optimizer field %q does not apply to strategy %s", field, strategy)
}

func fieldValue(req deal.Request, field string) float64 {
	switch field {
	case config.OptimizerFieldCashToSeller:
		if t, ok := req.Terms.(deal.SubToTerms); ok {
			return t.CashToSeller
		}
		return 0
	default:
		return req.Financials.Price
	}
}

func withField(req deal.Request, field string, value float64) deal.Request {
	switch field {
	case config.OptimizerFieldCashToSeller:
		if t, ok := req.Terms.(deal.SubToTerms); ok {
			t.CashToSeller = value
			req.Terms = t
		}
	default:
		req.Financials.Price = value
	}
	return req
}

func metricValue(result deal.OfferResult, metric string) float64 {
	if metric == config.OptimizerMetricCashOnCash {
		return result.CashOnCashPercent
	}
	return result.MonthlyCashFlow
}

func formatMetric(metric string, value float64) string {
	if metric == config.OptimizerMetricCashOnCash {
		return format.Percent(value)
	}
	return format.Currency(value)
}
