package core

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/roach88/napytau/internal/model"
)

// Config describes one lifetime fit.
type Config struct {
	// InitialCoefficients seeds every coefficient fit. Its length fixes the
	// polynomial degree.
	InitialCoefficients []float64

	// THypRange bounds the t_hyp search. Ignored when FixedTHyp is set.
	THypRange Bounds

	// FixedTHyp skips the t_hyp search.
	FixedTHyp *float64

	WeightFactor float64
	Budget       Budget
}

// Lifetime is the outcome of CalculateLifetime.
type Lifetime struct {
	Tau          model.ValueErrorPair
	THyp         float64
	Coefficients []float64
	ChiSquared   float64

	// Times, TauI and DeltaTauI are parallel and ordered by distance.
	Times     []float64
	TauI      []float64
	DeltaTauI []float64

	// Distances of the datapoints that took part in the fit.
	Distances []float64
}

// CalculateLifetime runs the full fit on the active datapoints of ds.
//
// t_hyp is cfg.FixedTHyp when set and otherwise searched within
// cfg.THypRange. The coefficients are then refitted once at that t_hyp and
// used for τ_i and Δτ_i. Each datapoint's Tau is updated and the dataset's
// weighted mean and fitted polynomial are recorded.
//
// A dataset without active datapoints is not an error: the result carries
// the NoData sentinel as Tau, no coefficients and empty per-distance slices.
func CalculateLifetime(ctx context.Context, ds *model.DataSet, cfg Config, opts ...Option) (*Lifetime, error) {
	if len(cfg.InitialCoefficients) == 0 {
		return nil, ErrEmptyCoefficients
	}
	opts = append([]Option{WithBudget(cfg.Budget)}, opts...)
	o := newOptions(opts)

	m, active, err := MeasurementsFromDataSet(ds)
	if errors.Is(err, ErrNoDatapoints) {
		o.logger.Debug("no active datapoints", "dataset", ds.Label)
		return noData(ds, cfg), nil
	}
	if err != nil {
		return nil, err
	}

	var tHyp float64
	if cfg.FixedTHyp != nil {
		tHyp = *cfg.FixedTHyp
		o.logger.Debug("using fixed t_hyp", "dataset", ds.Label, "t_hyp", tHyp)
	} else {
		tHyp, err = OptimizeTHyp(ctx, m, cfg.InitialCoefficients, cfg.THypRange, cfg.WeightFactor, opts...)
		if err != nil {
			return nil, fmt.Errorf("optimise t_hyp: %w", err)
		}
	}

	coefficients, chi, err := OptimizeCoefficients(ctx, m, cfg.InitialCoefficients, tHyp, cfg.WeightFactor, opts...)
	if err != nil {
		return nil, fmt.Errorf("optimise coefficients: %w", err)
	}

	tauI, err := CalculateTauI(m.Unshifted, m.Times, coefficients)
	if err != nil {
		return nil, err
	}
	deltaTauI, err := CalculateDeltaTauI(m, coefficients, tHyp)
	if err != nil {
		return nil, fmt.Errorf("propagate errors: %w", err)
	}
	tau, err := CalculateTauFinal(tauI, deltaTauI)
	if err != nil {
		return nil, err
	}

	distances := make([]float64, len(active))
	for i, dp := range active {
		distances[i] = dp.Distance.Value
		dp.Tau = &model.ValueErrorPair{Value: tauI[i], Error: deltaTauI[i]}
	}
	record(ds, tau, tHyp, coefficients)

	o.logger.Debug("lifetime computed",
		"dataset", ds.Label,
		"tau", tau.Value,
		"tau_error", tau.Error,
		"t_hyp", tHyp,
		"chi_squared", chi,
	)
	return &Lifetime{
		Tau:          tau,
		THyp:         tHyp,
		Coefficients: coefficients,
		ChiSquared:   chi,
		Times:        m.Times,
		TauI:         tauI,
		DeltaTauI:    deltaTauI,
		Distances:    distances,
	}, nil
}

// noData is the result for a dataset without usable datapoints. t_hyp is
// only known when it was fixed.
func noData(ds *model.DataSet, cfg Config) *Lifetime {
	tHyp := math.NaN()
	if cfg.FixedTHyp != nil {
		tHyp = *cfg.FixedTHyp
	}
	tau := NoData
	ds.WeightedMeanTau = &tau
	return &Lifetime{
		Tau:       tau,
		THyp:      tHyp,
		Times:     []float64{},
		TauI:      []float64{},
		DeltaTauI: []float64{},
		Distances: []float64{},
	}
}

func record(ds *model.DataSet, tau model.ValueErrorPair, tHyp float64, coefficients []float64) {
	ds.WeightedMeanTau = &tau
	factor := tHyp
	ds.TauFactor = &factor
	if p, err := model.NewPolynomial(coefficients, len(coefficients)-1); err == nil {
		ds.Polynomials = []model.Polynomial{p}
	}
}

// FitCurve evaluates the fitted model for display: P(t) for the shifted
// channel and t_hyp·P'(t) for the unshifted channel.
func FitCurve(times, coefficients []float64, tHyp float64) (shifted, unshifted []float64) {
	shifted = EvaluatePolynomial(times, coefficients)
	unshifted = EvaluateDerivative(times, coefficients)
	for i := range unshifted {
		unshifted[i] *= tHyp
	}
	return shifted, unshifted
}

// SampleTimes returns n evenly spaced times covering [from, to]. n < 2
// yields just from.
func SampleTimes(from, to float64, n int) []float64 {
	if n < 2 {
		return []float64{from}
	}
	return floats.Span(make([]float64, n), from, to)
}
