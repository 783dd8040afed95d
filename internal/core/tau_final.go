package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/roach88/napytau/internal/model"
)

// NoData is returned by CalculateTauFinal for empty input.
var NoData = model.ValueErrorPair{Value: -1, Error: -1}

// CalculateTauFinal combines the per-distance lifetimes into an
// inverse-variance weighted mean: τ = Σwτ/Σw, Δτ = sqrt(1/Σw), w = 1/Δτ_i².
func CalculateTauFinal(tauI, deltaTauI []float64) (model.ValueErrorPair, error) {
	if len(tauI) != len(deltaTauI) {
		return model.ValueErrorPair{}, fmt.Errorf("tau_final: %d values, %d errors: %w", len(tauI), len(deltaTauI), ErrLengthMismatch)
	}
	if len(tauI) == 0 {
		return NoData, nil
	}

	weights := make([]float64, len(deltaTauI))
	for i, d := range deltaTauI {
		weights[i] = 1 / (d * d)
	}
	sumW := floats.Sum(weights)
	return model.ValueErrorPair{
		Value: floats.Dot(weights, tauI) / sumW,
		Error: math.Sqrt(1 / sumW),
	}, nil
}
