package core

// EvaluatePolynomial returns Σ_k c_k·t^k for every t in times.
// Empty coefficients yield a zero vector of len(times).
func EvaluatePolynomial(times, coefficients []float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = horner(t, coefficients)
	}
	return out
}

// EvaluateDerivative returns Σ_{k≥1} k·c_k·t^(k−1) for every t in times.
// Constant and empty polynomials yield a zero vector.
func EvaluateDerivative(times, coefficients []float64) []float64 {
	out := make([]float64, len(times))
	if len(coefficients) < 2 {
		return out
	}
	deriv := make([]float64, len(coefficients)-1)
	for k := 1; k < len(coefficients); k++ {
		deriv[k-1] = float64(k) * coefficients[k]
	}
	for i, t := range times {
		out[i] = horner(t, deriv)
	}
	return out
}

func horner(t float64, coefficients []float64) float64 {
	var sum float64
	for k := len(coefficients) - 1; k >= 0; k-- {
		sum = sum*t + coefficients[k]
	}
	return sum
}
