package core

import "math"

// ChiSquared returns the weighted chi-squared of the model against m.
//
// A zero measurement error makes its term +Inf. With weightFactor == 0 the
// unshifted term is skipped entirely.
func ChiSquared(m Measurements, coefficients []float64, tHyp, weightFactor float64) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return chiSquared(m, coefficients, tHyp, weightFactor), nil
}

// chiSquared assumes m has been validated.
func chiSquared(m Measurements, coefficients []float64, tHyp, weightFactor float64) float64 {
	p := EvaluatePolynomial(m.Times, coefficients)
	dp := EvaluateDerivative(m.Times, coefficients)

	var sum float64
	for i := range m.Times {
		sum += residualSquared(m.Shifted[i]-p[i], m.ShiftedErrors[i])
		if weightFactor != 0 {
			sum += weightFactor * residualSquared(m.Unshifted[i]-tHyp*dp[i], m.UnshiftedErrors[i])
		}
	}
	return sum
}

func residualSquared(residual, sigma float64) float64 {
	if sigma == 0 {
		return math.Inf(1)
	}
	r := residual / sigma
	return r * r
}
