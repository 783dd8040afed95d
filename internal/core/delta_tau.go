package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// jacobianStep is the forward-difference step for the model Jacobian.
const jacobianStep = 1e-8

// CalculateJacobian returns the N×len(coefficients) Jacobian of P(t_i) with
// respect to the coefficients, by forward differences.
func CalculateJacobian(times, coefficients []float64) (*mat.Dense, error) {
	if len(coefficients) == 0 {
		return nil, ErrEmptyCoefficients
	}
	if len(times) == 0 {
		return nil, ErrNoDatapoints
	}
	jac := mat.NewDense(len(times), len(coefficients), nil)
	fd.Jacobian(jac, func(y, x []float64) {
		copy(y, EvaluatePolynomial(times, x))
	}, coefficients, &fd.JacobianSettings{
		Formula: fd.Forward,
		Step:    jacobianStep,
	})
	return jac, nil
}

// CalculateCovarianceMatrix returns (JᵀWJ)⁻¹ with W = diag(1/ΔS²).
//
// Any inversion failure is reported as ErrSingularMatrix, including matrices
// gonum flags as ill-conditioned.
func CalculateCovarianceMatrix(shiftedErrors, times, coefficients []float64) (*mat.Dense, error) {
	if len(shiftedErrors) != len(times) {
		return nil, fmt.Errorf("covariance: %d errors for %d times: %w", len(shiftedErrors), len(times), ErrLengthMismatch)
	}
	jac, err := CalculateJacobian(times, coefficients)
	if err != nil {
		return nil, err
	}

	weights := make([]float64, len(shiftedErrors))
	for i, e := range shiftedErrors {
		weights[i] = 1 / (e * e)
	}
	w := mat.NewDiagDense(len(weights), weights)

	var wj, normal mat.Dense
	wj.Mul(w, jac)
	normal.Mul(jac.T(), &wj)

	var cov mat.Dense
	if err := cov.Inverse(&normal); err != nil {
		return nil, fmt.Errorf("covariance: %w: %v", ErrSingularMatrix, err)
	}
	return &cov, nil
}

// ErrorTerms holds the three per-distance contributions to Δτ_i².
type ErrorTerms struct {
	Direct     []float64 // ΔU²/P'²
	Polynomial []float64 // U²/P'⁴ · S²
	Mixed      []float64 // U · t_hyp · S / P'³
}

// CalculateErrorPropagationTerms evaluates the three error terms at every
// distance, where S_i = Σ_{k,l} t_i^k t_i^l cov[k,l].
func CalculateErrorPropagationTerms(unshifted, unshiftedErrors, times, coefficients []float64, covariance mat.Matrix, tHyp float64) (ErrorTerms, error) {
	n := len(times)
	if len(unshifted) != n || len(unshiftedErrors) != n {
		return ErrorTerms{}, fmt.Errorf("error terms: %w", ErrLengthMismatch)
	}
	if r, c := covariance.Dims(); r != len(coefficients) || c != len(coefficients) {
		return ErrorTerms{}, fmt.Errorf("error terms: covariance is %d×%d for %d coefficients: %w",
			r, c, len(coefficients), ErrLengthMismatch)
	}

	derivative := EvaluateDerivative(times, coefficients)
	terms := ErrorTerms{
		Direct:     make([]float64, n),
		Polynomial: make([]float64, n),
		Mixed:      make([]float64, n),
	}
	for i, t := range times {
		s := propagatedVariance(t, covariance)
		d := derivative[i]
		u := unshifted[i]
		du := unshiftedErrors[i]

		terms.Direct[i] = du * du / (d * d)
		terms.Polynomial[i] = u * u / math.Pow(d, 4) * s * s
		terms.Mixed[i] = u * tHyp * s / (d * d * d)
	}
	return terms, nil
}

// propagatedVariance computes Σ_{k,l} t^k t^l cov[k,l].
func propagatedVariance(t float64, cov mat.Matrix) float64 {
	n, _ := cov.Dims()
	powers := make([]float64, n)
	p := 1.0
	for k := range powers {
		powers[k] = p
		p *= t
	}
	var sum float64
	for k := 0; k < n; k++ {
		for l := 0; l < n; l++ {
			sum += powers[k] * powers[l] * cov.At(k, l)
		}
	}
	return sum
}

// CalculateDeltaTauI returns Δτ_i = sqrt(term1 + term2 + term3) per distance.
// A negative sum gives NaN, which is kept.
func CalculateDeltaTauI(m Measurements, coefficients []float64, tHyp float64) ([]float64, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	cov, err := CalculateCovarianceMatrix(m.ShiftedErrors, m.Times, coefficients)
	if err != nil {
		return nil, err
	}
	terms, err := CalculateErrorPropagationTerms(m.Unshifted, m.UnshiftedErrors, m.Times, coefficients, cov, tHyp)
	if err != nil {
		return nil, err
	}
	out := make([]float64, m.Len())
	for i := range out {
		out[i] = math.Sqrt(terms.Direct[i] + terms.Polynomial[i] + terms.Mixed[i])
	}
	return out, nil
}
