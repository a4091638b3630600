package config

import (
	"fmt"
	"strings"
)

const (
	OptimizerFieldPrice        = "price"
	OptimizerFieldCashToSeller = "cashToSeller"

	OptimizerMetricCashFlow   = "cashFlow"
	OptimizerMetricCashOnCash = "cashOnCash"

	defaultToleranceAmount = 1.0
	defaultMaxIterations   = 50
)

// OptimizerConfig asks for the highest value of a deal input that keeps a
// result metric at or above a floor.
type OptimizerConfig struct {
	Field         string   `yaml:"field,omitempty" mapstructure:"field" json:"field,omitempty"`
	Metric        string   `yaml:"metric,omitempty" mapstructure:"metric" json:"metric,omitempty"`
	Floor         float64  `yaml:"floor" mapstructure:"floor" json:"floor"`
	Min           *float64 `yaml:"min,omitempty" mapstructure:"min" json:"min,omitempty"`
	Max           *float64 `yaml:"max,omitempty" mapstructure:"max" json:"max,omitempty"`
	Tolerance     float64  `yaml:"tolerance,omitempty" mapstructure:"tolerance" json:"tolerance,omitempty"`
	MaxIterations int      `yaml:"maxIterations,omitempty" mapstructure:"maxIterations" json:"maxIterations,omitempty"`
}

// CanonicalOptimizerField returns the canonical identifier for an optimizer field.
func CanonicalOptimizerField(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return OptimizerFieldPrice
	}
	switch strings.ToLower(trimmed) {
	case "price", "offerprice", "offer_price":
		return OptimizerFieldPrice
	case "cashtoseller", "cash_to_seller", "cash-to-seller":
		return OptimizerFieldCashToSeller
	default:
		return strings.ToLower(trimmed)
	}
}

// CanonicalOptimizerMetric returns the canonical identifier for an optimizer metric.
func CanonicalOptimizerMetric(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return OptimizerMetricCashFlow
	}
	switch strings.ToLower(trimmed) {
	case "cashflow", "cash_flow", "cash-flow", "monthlycashflow":
		return OptimizerMetricCashFlow
	case "cashoncash", "cash_on_cash", "cash-on-cash", "coc":
		return OptimizerMetricCashOnCash
	default:
		return strings.ToLower(trimmed)
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	o.Field = CanonicalOptimizerField(o.Field)
	o.Metric = CanonicalOptimizerMetric(o.Metric)

	if o.Min == nil {
		zero := 0.0
		o.Min = &zero
	}
	if o.Tolerance <= 0 {
		o.Tolerance = defaultToleranceAmount
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
}

// Validate returns an error when the optimizer configuration is unsupported.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	switch o.Field {
	case OptimizerFieldPrice, OptimizerFieldCashToSeller:
		// supported fields
	default:
		return fmt.Errorf("optimizer field %q is not supported", o.Field)
	}
	switch o.Metric {
	case OptimizerMetricCashFlow, OptimizerMetricCashOnCash:
		// supported metrics
	default:
		return fmt.Errorf("optimizer metric %q is not supported", o.Metric)
	}

	if o.Max == nil {
		return fmt.Errorf("optimizer requires a maximum bound")
	}
	if *o.Min < 0 {
		return fmt.Errorf("optimizer minimum %.2f must not be negative", *o.Min)
	}
	if *o.Min >= *o.Max {
		return fmt.Errorf("optimizer minimum %.2f must be less than maximum %.2f", *o.Min, *o.Max)
	}

	return nil
}
