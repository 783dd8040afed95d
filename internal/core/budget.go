package core

import (
	"context"
	"time"

	"gonum.org/v1/gonum/optimize"
)

// Budget bounds a single optimisation run.
//
// Every call to optimize.Minimize gets the full budget, so the nested t_hyp
// search spends up to one coefficient budget per candidate. Zero fields leave
// the limit to gonum's own convergence criteria.
//
// In a coefficient fit MaxEvaluations counts every chi-squared evaluation,
// including the 2·len(coefficients) made for each central-difference
// gradient. In the t_hyp search it counts candidates.
type Budget struct {
	MaxIterations  int
	MaxEvaluations int
	Timeout        time.Duration

	// Strict turns an exhausted limit into a *BudgetExceededError instead of
	// returning the best iterate found so far.
	Strict bool
}

// settings maps the budget onto gonum settings.
func (b Budget) settings() *optimize.Settings {
	return &optimize.Settings{
		MajorIterations: b.MaxIterations,
		FuncEvaluations: b.MaxEvaluations,
		Runtime:         b.Timeout,
	}
}

// countedSettings is settings without the evaluation limit, which the
// caller enforces through evaluationStatus.
func (b Budget) countedSettings() *optimize.Settings {
	s := b.settings()
	s.FuncEvaluations = 0
	return s
}

// evaluationStatus stops gonum once *count reaches MaxEvaluations or ctx is
// done.
func (b Budget) evaluationStatus(ctx context.Context, count *int) func() (optimize.Status, error) {
	ctxStatus := contextStatus(ctx)
	return func() (optimize.Status, error) {
		if status, err := ctxStatus(); status != optimize.NotTerminated {
			return status, err
		}
		if b.MaxEvaluations > 0 && *count >= b.MaxEvaluations {
			return optimize.FunctionEvaluationLimit, nil
		}
		return optimize.NotTerminated, nil
	}
}

// check inspects the result of a finished run that made evaluations
// objective calls.
func (b Budget) check(operation string, result *optimize.Result, evaluations int) error {
	if !b.Strict || result == nil {
		return nil
	}
	switch result.Status {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return &BudgetExceededError{
			Operation:   operation,
			Status:      result.Status,
			Iterations:  result.MajorIterations,
			Evaluations: evaluations,
		}
	}
	return nil
}

// contextStatus stops gonum as soon as ctx is done.
func contextStatus(ctx context.Context) func() (optimize.Status, error) {
	return func() (optimize.Status, error) {
		if err := ctx.Err(); err != nil {
			return optimize.Failure, err
		}
		return optimize.NotTerminated, nil
	}
}
