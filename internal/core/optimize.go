package core

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// Bounds is a closed interval searched for t_hyp.
type Bounds struct {
	Min float64
	Max float64
}

// Validate rejects non-finite ends and Min > Max.
func (b Bounds) Validate() error {
	if !isFinite(b.Min) || !isFinite(b.Max) || b.Min > b.Max {
		return fmt.Errorf("[%g, %g]: %w", b.Min, b.Max, ErrInvalidBounds)
	}
	return nil
}

// Midpoint returns (Min+Max)/2.
func (b Bounds) Midpoint() float64 {
	return b.Min + (b.Max-b.Min)/2
}

// at maps an unconstrained u into the interval; u = 0 is the midpoint.
func (b Bounds) at(u float64) float64 {
	return b.clamp(b.Min + (b.Max-b.Min)*(math.Sin(u)+1)/2)
}

func (b Bounds) clamp(t float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, t))
}

// OptimizeCoefficients minimises the chi-squared over the polynomial
// coefficients with tHyp held fixed, starting from initial.
//
// L-BFGS runs once with a central-difference gradient. Failing to converge is
// not an error: the best iterate and its chi-squared are returned. The only
// errors are invalid input, a done ctx and an exhausted strict budget.
func OptimizeCoefficients(ctx context.Context, m Measurements, initial []float64, tHyp, weightFactor float64, opts ...Option) ([]float64, float64, error) {
	if err := m.Validate(); err != nil {
		return nil, 0, err
	}
	if len(initial) == 0 {
		return nil, 0, ErrEmptyCoefficients
	}
	o := newOptions(opts)
	return optimizeCoefficients(ctx, m, initial, tHyp, weightFactor, o)
}

func optimizeCoefficients(ctx context.Context, m Measurements, initial []float64, tHyp, weightFactor float64, o options) ([]float64, float64, error) {
	x0 := make([]float64, len(initial))
	copy(x0, initial)

	evaluations := 0
	f := func(x []float64) float64 {
		evaluations++
		return chiSquared(m, x, tHyp, weightFactor)
	}
	problem := optimize.Problem{
		Func: f,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, f, x, &fd.Settings{Formula: fd.Central})
		},
		Status: o.budget.evaluationStatus(ctx, &evaluations),
	}

	result, err := optimize.Minimize(problem, x0, o.budget.countedSettings(), &optimize.LBFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		x, chi := best(result, x0, f)
		return x, chi, ctxErr
	}
	if err != nil {
		o.logger.Debug("coefficient fit did not converge",
			"t_hyp", tHyp,
			"evaluations", evaluations,
			"error", err,
		)
	}
	if err := o.budget.check("coefficients", result, evaluations); err != nil {
		return nil, 0, err
	}
	x, chi := best(result, x0, f)
	return x, chi, nil
}

// best returns the reported optimum, or x0 when gonum produced nothing better.
func best(result *optimize.Result, x0 []float64, f func([]float64) float64) ([]float64, float64) {
	f0 := f(x0)
	out := make([]float64, len(x0))
	if result != nil && len(result.X) == len(x0) && result.F <= f0 {
		copy(out, result.X)
		return out, result.F
	}
	copy(out, x0)
	return out, f0
}

// OptimizeTHyp searches bounds for the t_hyp whose coefficient fit has the
// lowest chi-squared. Each candidate runs a fresh OptimizeCoefficients from
// initial. The search starts at the midpoint and the result always lies
// within bounds.
func OptimizeTHyp(ctx context.Context, m Measurements, initial []float64, bounds Bounds, weightFactor float64, opts ...Option) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if len(initial) == 0 {
		return 0, ErrEmptyCoefficients
	}
	if err := bounds.Validate(); err != nil {
		return 0, err
	}
	if bounds.Min == bounds.Max {
		return bounds.Min, nil
	}
	o := newOptions(opts)

	var innerErr error
	problem := optimize.Problem{
		Func: func(u []float64) float64 {
			if innerErr != nil {
				return math.Inf(1)
			}
			_, chi, err := optimizeCoefficients(ctx, m, initial, bounds.at(u[0]), weightFactor, o)
			if err != nil {
				innerErr = err
				return math.Inf(1)
			}
			return chi
		},
		Status: func() (optimize.Status, error) {
			if innerErr != nil {
				return optimize.Failure, innerErr
			}
			return contextStatus(ctx)()
		},
	}

	settings := o.budget.settings()
	settings.Converger = &optimize.FunctionConverge{
		Absolute:   1e-10,
		Relative:   1e-10,
		Iterations: 20,
	}
	result, err := optimize.Minimize(problem, []float64{0}, settings, &optimize.NelderMead{SimplexSize: 0.5})
	if innerErr != nil {
		return 0, innerErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}
	if err != nil {
		o.logger.Debug("t_hyp search did not converge", "error", err)
	}
	evaluations := 0
	if result != nil {
		evaluations = result.FuncEvaluations
	}
	if err := o.budget.check("t_hyp", result, evaluations); err != nil {
		return 0, err
	}
	if result == nil || len(result.X) != 1 {
		return bounds.Midpoint(), nil
	}

	tHyp := bounds.at(result.X[0])
	o.logger.Debug("t_hyp selected",
		"t_hyp", tHyp,
		"chi_squared", result.F,
		"status", result.Status.String(),
		"evaluations", result.FuncEvaluations,
	)
	return tHyp, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
