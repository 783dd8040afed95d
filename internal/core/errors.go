package core

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrEmptyCoefficients is returned when a fit is started without any
	// polynomial coefficients.
	ErrEmptyCoefficients = errors.New("core: empty coefficient vector")

	// ErrLengthMismatch is returned when parallel measurement vectors differ in length.
	ErrLengthMismatch = errors.New("core: measurement vectors differ in length")

	// ErrSingularMatrix is returned when JᵀWJ cannot be inverted.
	ErrSingularMatrix = errors.New("core: matrix is singular or ill-conditioned")

	// ErrInvalidBounds is returned for a t_hyp range with min > max or a
	// non-finite end.
	ErrInvalidBounds = errors.New("core: invalid t_hyp bounds")

	// ErrIncompleteDatapoint is returned when an active datapoint lacks the
	// shifted or unshifted intensity.
	ErrIncompleteDatapoint = errors.New("core: datapoint is missing intensities")

	// ErrNoDatapoints is returned when a dataset has no active datapoints.
	ErrNoDatapoints = errors.New("core: no active datapoints")
)

// BudgetExceededError is returned by a strict budget when an optimisation
// stopped on one of its limits instead of converging.
type BudgetExceededError struct {
	Operation   string          // "coefficients" or "t_hyp"
	Status      optimize.Status // limit that was hit
	Iterations  int
	Evaluations int
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s optimisation exceeded budget: %s after %d iterations, %d evaluations",
		e.Operation, e.Status, e.Iterations, e.Evaluations)
}

// IsBudgetExceededError returns true if err wraps a BudgetExceededError.
func IsBudgetExceededError(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
