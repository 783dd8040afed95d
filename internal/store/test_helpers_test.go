package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/napytau/internal/core"
	"github.com/roach88/napytau/internal/model"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDataSet creates a two-point dataset labelled label.
func createTestDataSet(t *testing.T, label string) *model.DataSet {
	t.Helper()
	v, err := model.NewRelativeVelocity(0.02)
	if err != nil {
		t.Fatalf("NewRelativeVelocity() failed: %v", err)
	}
	c := model.NewDatapointCollection()
	for i, d := range []float64{10, 20} {
		dp := model.NewDatapoint(model.Pair(d, 0.5))
		dp.ShiftedIntensity = &model.ValueErrorPair{Value: float64(100 - 10*i), Error: 10}
		dp.UnshiftedIntensity = &model.ValueErrorPair{Value: float64(50 + 10*i), Error: 5}
		if err := c.Add(dp); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}
	return model.NewDataSet(label, v, 0.001, c)
}

// createTestRun builds a run with fixed numbers for ds.
func createTestRun(t *testing.T, id string, ds *model.DataSet) Run {
	t.Helper()
	fixed := 1.5
	cfg := core.Config{FixedTHyp: &fixed, WeightFactor: 1}
	lt := &core.Lifetime{
		Tau:          model.ValueErrorPair{Value: 2.4, Error: 0.3},
		THyp:         1.5,
		Coefficients: []float64{100, -1, 0.01},
		ChiSquared:   0.25,
		Times:        []float64{1.6e-9, 3.3e-9},
		TauI:         []float64{2.2, 2.6},
		DeltaTauI:    []float64{0.4, 0.45},
		Distances:    []float64{10, 20},
	}
	run, err := NewRun(id, ds, cfg, lt, time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}
	return run
}
