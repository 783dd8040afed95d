package harness

import (
	"fmt"
	"math"
	"strings"
)

// ExpectationError is returned when an expectation does not hold.
type ExpectationError struct {
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	return fmt.Sprintf("expectation failed: %s (expected %s, got %s)", e.Field, e.Expected, e.Actual)
}

// EvaluateExpectations checks a result against exp and returns one error
// per failed expectation.
func EvaluateExpectations(result *Result, exp Expectation) []error {
	if exp.Error != "" {
		return expectFailure(result, exp.Error)
	}
	if result.Err != nil {
		return []error{&ExpectationError{Field: "error", Expected: "success", Actual: result.Err.Error()}}
	}

	lt := result.Lifetime
	tol := exp.tolerance()
	var errs []error
	check := func(field string, want *float64, got float64) {
		if want == nil {
			return
		}
		// NaN never compares within tolerance.
		if !(math.Abs(got-*want) <= tol) {
			errs = append(errs, &ExpectationError{
				Field:    field,
				Expected: fmt.Sprintf("%g ± %g", *want, tol),
				Actual:   fmt.Sprintf("%g", got),
			})
		}
	}
	check("tau", exp.Tau, lt.Tau.Value)
	check("tau_error", exp.TauError, lt.Tau.Error)
	check("t_hyp", exp.THyp, lt.THyp)
	return errs
}

func expectFailure(result *Result, substr string) []error {
	if result.Err == nil {
		actual := "success"
		if result.Lifetime != nil {
			actual = fmt.Sprintf("success with tau %s", result.Lifetime.Tau)
		}
		return []error{&ExpectationError{Field: "error", Expected: fmt.Sprintf("error containing %q", substr), Actual: actual}}
	}
	if !strings.Contains(result.Err.Error(), substr) {
		return []error{&ExpectationError{
			Field:    "error",
			Expected: fmt.Sprintf("error containing %q", substr),
			Actual:   result.Err.Error(),
		}}
	}
	return nil
}
