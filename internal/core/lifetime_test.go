package core

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/napytau/internal/model"
)

const testVelocity = 0.02

// syntheticDataSet places datapoints at the distances that correspond to
// times, with intensities generated from coefficients and tHyp.
func syntheticDataSet(t *testing.T, times, coefficients []float64, tHyp float64) *model.DataSet {
	t.Helper()
	v, err := model.NewRelativeVelocity(testVelocity)
	require.NoError(t, err)

	shifted, unshifted := FitCurve(times, coefficients, tHyp)
	c := model.NewDatapointCollection()
	for i, tm := range times {
		dp := model.NewDatapoint(model.Pair(tm*testVelocity*SpeedOfLight, 0))
		dp.ShiftedIntensity = &model.ValueErrorPair{Value: shifted[i], Error: 0.1}
		dp.UnshiftedIntensity = &model.ValueErrorPair{Value: unshifted[i], Error: 0.1}
		require.NoError(t, c.Add(dp))
	}
	return model.NewDataSet("synthetic", v, 0, c)
}

func TestCalculateLifetime_FixedTHyp(t *testing.T) {
	ds := syntheticDataSet(t, []float64{0, 0.5, 1, 1.5, 2}, []float64{2, 3, 1}, 2)
	fixed := 2.0

	lt, err := CalculateLifetime(context.Background(), ds, Config{
		InitialCoefficients: []float64{1, 1, 1},
		FixedTHyp:           &fixed,
		WeightFactor:        1,
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, lt.THyp)
	assert.InDeltaSlice(t, []float64{2, 3, 1}, lt.Coefficients, 1e-3)
	assert.InDelta(t, 0, lt.ChiSquared, 1e-6)
	assert.InDelta(t, 2, lt.Tau.Value, 1e-3)
	assert.Greater(t, lt.Tau.Error, 0.0)
	assert.Len(t, lt.TauI, 5)
	assert.Len(t, lt.DeltaTauI, 5)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 1.5, 2}, lt.Times, 1e-9)

	require.NotNil(t, ds.WeightedMeanTau)
	assert.Equal(t, lt.Tau, *ds.WeightedMeanTau)
	require.NotNil(t, ds.TauFactor)
	assert.Equal(t, 2.0, *ds.TauFactor)
	require.Len(t, ds.Polynomials, 1)
	assert.Equal(t, 2, ds.Polynomials[0].Degree())
	for _, dp := range ds.Datapoints.All() {
		require.NotNil(t, dp.Tau)
	}
}

func TestCalculateLifetime_SearchesTHyp(t *testing.T) {
	ds := syntheticDataSet(t, []float64{0, 0.5, 1, 1.5, 2}, []float64{2, 3, 1}, 2)

	lt, err := CalculateLifetime(context.Background(), ds, Config{
		InitialCoefficients: []float64{1, 1, 1},
		THypRange:           Bounds{Min: 0, Max: 5},
		WeightFactor:        1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 2, lt.THyp, 1e-3)
	assert.InDelta(t, 2, lt.Tau.Value, 1e-2)
}

func TestCalculateLifetime_SkipsInactive(t *testing.T) {
	ds := syntheticDataSet(t, []float64{0, 0.5, 1, 1.5, 2}, []float64{2, 3, 1}, 2)
	first := ds.Datapoints.All()[0]
	first.Active = false
	fixed := 2.0

	lt, err := CalculateLifetime(context.Background(), ds, Config{
		InitialCoefficients: []float64{1, 1, 1},
		FixedTHyp:           &fixed,
		WeightFactor:        1,
	})
	require.NoError(t, err)
	assert.Len(t, lt.TauI, 4)
	assert.Nil(t, first.Tau)
}

func TestCalculateLifetime_Errors(t *testing.T) {
	ctx := context.Background()
	cfg := Config{InitialCoefficients: []float64{1, 1}, THypRange: Bounds{Min: 0, Max: 1}, WeightFactor: 1}

	t.Run("incomplete datapoint", func(t *testing.T) {
		ds := syntheticDataSet(t, []float64{0, 1, 2}, []float64{1, 1}, 1)
		ds.Datapoints.All()[1].UnshiftedIntensity = nil
		_, err := CalculateLifetime(ctx, ds, cfg)
		assert.ErrorIs(t, err, ErrIncompleteDatapoint)
	})

	t.Run("empty coefficients", func(t *testing.T) {
		ds := syntheticDataSet(t, []float64{0, 1, 2}, []float64{1, 1}, 1)
		_, err := CalculateLifetime(ctx, ds, Config{THypRange: Bounds{Min: 0, Max: 1}})
		assert.ErrorIs(t, err, ErrEmptyCoefficients)
	})

	t.Run("invalid bounds", func(t *testing.T) {
		ds := syntheticDataSet(t, []float64{0, 1, 2}, []float64{1, 1}, 1)
		_, err := CalculateLifetime(ctx, ds, Config{InitialCoefficients: []float64{1, 1}, THypRange: Bounds{Min: 2, Max: 1}})
		assert.ErrorIs(t, err, ErrInvalidBounds)
	})

	t.Run("singular covariance", func(t *testing.T) {
		// A slope cannot be determined from a single distance at t = 0.
		ds := syntheticDataSet(t, []float64{0}, []float64{1, 1}, 1)
		fixed := 1.0
		_, err := CalculateLifetime(ctx, ds, Config{InitialCoefficients: []float64{1, 1}, FixedTHyp: &fixed, WeightFactor: 1})
		assert.ErrorIs(t, err, ErrSingularMatrix)
	})

	t.Run("cancelled", func(t *testing.T) {
		ds := syntheticDataSet(t, []float64{0, 1, 2}, []float64{1, 1}, 1)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := CalculateLifetime(cctx, ds, cfg)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMeasurementsFromDataSet_SortedByDistance(t *testing.T) {
	ds := syntheticDataSet(t, []float64{2, 0, 1}, []float64{1, 2}, 1)

	m, active, err := MeasurementsFromDataSet(ds)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.InDeltaSlice(t, []float64{0, 1, 2}, m.Times, 1e-9)
	assert.InDeltaSlice(t, []float64{1, 3, 5}, m.Shifted, 1e-9)
	assert.Len(t, active, 3)
}

func TestTimesFromDistances(t *testing.T) {
	v, err := model.NewRelativeVelocity(0.5)
	require.NoError(t, err)

	times := TimesFromDistances([]float64{0, SpeedOfLight, 2 * SpeedOfLight}, v)
	assert.InDeltaSlice(t, []float64{0, 2, 4}, times, 1e-12)
}

func TestCalculateLifetime_NoActiveDatapoints(t *testing.T) {
	ctx := context.Background()
	cfg := Config{InitialCoefficients: []float64{1, 1}, THypRange: Bounds{Min: 0, Max: 1}, WeightFactor: 1}

	t.Run("empty dataset", func(t *testing.T) {
		v, _ := model.NewRelativeVelocity(testVelocity)
		ds := model.NewDataSet("empty", v, 0, nil)

		lt, err := CalculateLifetime(ctx, ds, cfg)
		require.NoError(t, err)
		assert.Equal(t, NoData, lt.Tau)
		assert.True(t, math.IsNaN(lt.THyp))
		assert.Empty(t, lt.Coefficients)
		assert.Empty(t, lt.TauI)
		assert.Empty(t, lt.DeltaTauI)
		require.NotNil(t, ds.WeightedMeanTau)
		assert.Equal(t, NoData, *ds.WeightedMeanTau)
		assert.Empty(t, ds.Polynomials)
	})

	t.Run("all inactive with fixed t_hyp", func(t *testing.T) {
		ds := syntheticDataSet(t, []float64{0, 1, 2}, []float64{1, 1}, 1)
		for _, dp := range ds.Datapoints.All() {
			dp.Active = false
		}
		fixed := 0.5
		withFixed := cfg
		withFixed.FixedTHyp = &fixed

		lt, err := CalculateLifetime(ctx, ds, withFixed)
		require.NoError(t, err)
		assert.Equal(t, model.ValueErrorPair{Value: -1, Error: -1}, lt.Tau)
		assert.Equal(t, 0.5, lt.THyp)
		for _, dp := range ds.Datapoints.All() {
			assert.Nil(t, dp.Tau)
		}
	})
}
