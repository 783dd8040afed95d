package core

import "fmt"

// CalculateTauI returns the per-distance lifetimes τ_i = U_i / P'(t_i).
// A zero derivative yields ±Inf (or NaN for 0/0) for that distance.
func CalculateTauI(unshifted, times, coefficients []float64) ([]float64, error) {
	if len(unshifted) != len(times) {
		return nil, fmt.Errorf("tau_i: %d intensities for %d times: %w", len(unshifted), len(times), ErrLengthMismatch)
	}
	derivative := EvaluateDerivative(times, coefficients)
	tau := make([]float64, len(times))
	for i := range tau {
		tau[i] = unshifted[i] / derivative[i]
	}
	return tau, nil
}
