package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/offer-oven/internal/deal"
)

// ErrMissingTerms is returned for a request that names no strategy terms.
var ErrMissingTerms = errors.New("request has no strategy terms")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("finite", isFinite)
	})
	return validate
}

// isFinite rejects NaN and infinite floats. YAML accepts .inf and .nan, and
// both pass numeric range tags.
func isFinite(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		value := field.Float()
		return !math.IsNaN(value) && !math.IsInf(value, 0)
	default:
		return true
	}
}

// ValidateRequest checks the field constraints declared on the property,
// loan, and terms of a deal request.
func ValidateRequest(req deal.Request) error {
	if req.Terms == nil {
		return ErrMissingTerms
	}

	v := validatorInstance()
	if err := v.Struct(req.Financials); err != nil {
		return fmt.Errorf("invalid property financials: %s", describe(err))
	}
	if req.Loan != nil {
		if err := v.Struct(req.Loan); err != nil {
			return fmt.Errorf("invalid existing loan: %s", describe(err))
		}
	}
	if err := v.Struct(req.Terms); err != nil {
		return fmt.Errorf("invalid %s terms: %s", req.Terms.Strategy(), describe(err))
	}
	return nil
}

// ValidateComps checks every comparable sale.
func ValidateComps(comps []deal.Comp) error {
	v := validatorInstance()
	for i, comp := range comps {
		if err := v.Struct(comp); err != nil {
			return fmt.Errorf("invalid comp %d (%s): %s", i, comp.Address, describe(err))
		}
	}
	return nil
}

// ValidateStruct checks the validate tags of any struct value, naming it in
// the error.
func ValidateStruct(name string, value interface{}) error {
	if err := validatorInstance().Struct(value); err != nil {
		return fmt.Errorf("invalid %s: %s", name, describe(err))
	}
	return nil
}

// describe flattens validator field errors into one readable line.
func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return strings.Join(parts, "; ")
}
