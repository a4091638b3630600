// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"

	"github.com/iwvelando/offer-oven/internal/oven"
)

// FindResult finds a deal result by name in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(results []oven.Result, name string) *oven.Result {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// FloatPtr returns a pointer to value.
func FloatPtr(value float64) *float64 {
	return &value
}

// Near reports whether got is within tolerance of expected.
func Near(got, expected, tolerance float64) bool {
	return math.Abs(got-expected) <= tolerance
}
