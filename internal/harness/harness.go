package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/roach88/napytau/internal/core"
	"github.com/roach88/napytau/internal/model"
	"github.com/roach88/napytau/internal/store"
	"github.com/roach88/napytau/internal/testutil"
)

// Harness runs a scenario against one store with a deterministic clock and
// run ids.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	ids    store.IDGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. A failed
// computation is not an error: it is recorded in the result and checked
// against the scenario's expectations. The returned error is reserved for
// failures of the harness itself.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		ids:    store.NewFixedGenerator("scenario-" + scenario.Name),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result := NewResult()
	ds, cfg, lt, err := h.compute(ctx, scenario)
	if err != nil {
		result.Err = err
	} else {
		result.Lifetime = lt
		if err := h.record(ctx, ds, cfg, lt, result); err != nil {
			return nil, err
		}
	}

	for _, e := range EvaluateExpectations(result, scenario.Expect) {
		result.AddError(e.Error())
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (h *Harness) compute(ctx context.Context, scenario *Scenario) (*model.DataSet, core.Config, *core.Lifetime, error) {
	ds, err := scenario.DataSet()
	if err != nil {
		return nil, core.Config{}, nil, err
	}
	cfg, err := scenario.Fit.Core()
	if err != nil {
		return nil, core.Config{}, nil, err
	}
	lt, err := core.CalculateLifetime(ctx, ds, cfg, core.WithLogger(h.logger))
	if err != nil {
		return nil, core.Config{}, nil, err
	}
	return ds, cfg, lt, nil
}

// record stores the run and checks that it reads back unchanged.
func (h *Harness) record(ctx context.Context, ds *model.DataSet, cfg core.Config, lt *core.Lifetime, result *Result) error {
	run, err := store.NewRun(h.ids.Generate(), ds, cfg, lt, h.clock.Now())
	if err != nil {
		return fmt.Errorf("failed to build run: %w", err)
	}
	if err := h.store.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("failed to write run: %w", err)
	}
	result.RunID = run.ID

	stored, err := h.store.ReadRun(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to read run: %w", err)
	}
	if !sameFloat(stored.Tau.Value, lt.Tau.Value) || !sameFloat(stored.Tau.Error, lt.Tau.Error) {
		result.AddError(fmt.Sprintf("stored tau %s differs from computed %s", stored.Tau, lt.Tau))
	}
	if len(stored.Points) != len(lt.TauI) {
		result.AddError(fmt.Sprintf("stored %d points, computed %d", len(stored.Points), len(lt.TauI)))
	}
	return nil
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
