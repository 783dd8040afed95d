package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/napytau/internal/model"
)

func TestWriteRun_ReadRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ds := createTestDataSet(t, "run1")
	run := createTestRun(t, "0190a000-0000-7000-8000-000000000001", ds)

	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
	assert.True(t, got.FixedTHyp)
	assert.Len(t, got.Points, 2)
}

func TestWriteRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-a", createTestDataSet(t, "run1"))

	require.NoError(t, s.WriteRun(ctx, run))
	assert.Error(t, s.WriteRun(ctx, run))
}

func TestWriteRun_NaNRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-nan", createTestDataSet(t, "run1"))
	run.Tau = model.ValueErrorPair{Value: math.NaN(), Error: math.NaN()}
	run.Points[1].TauError = math.NaN()

	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.Tau.Value))
	assert.True(t, math.IsNaN(got.Tau.Error))
	assert.True(t, math.IsNaN(got.Points[1].TauError))
	assert.Equal(t, 2.2, got.Points[0].Tau)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	gen := NewFixedGenerator("run-1", "run-2", "run-3")

	for _, label := range []string{"beta", "alpha", "beta"} {
		run := createTestRun(t, gen.Generate(), createTestDataSet(t, label))
		require.NoError(t, s.WriteRun(ctx, run))
	}

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"run-1", "run-2", "run-3"}, runIDs(all))

	beta, err := s.ListRuns(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run-3"}, runIDs(beta))

	none, err := s.ListRuns(ctx, "gamma")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

// TestListRuns_NormalizesLabel checks composed and decomposed forms of the
// same label select the same runs.
func TestListRuns_NormalizesLabel(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	decomposed := "cafe\u0301"
	composed := "caf\u00e9"
	require.NoError(t, s.WriteRun(ctx, createTestRun(t, "run-1", createTestDataSet(t, decomposed))))

	runs, err := s.ListRuns(ctx, composed)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, composed, runs[0].Label)
}

func runIDs(runs []Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func TestDatasetHash(t *testing.T) {
	a := createTestDataSet(t, "a")
	b := createTestDataSet(t, "b")

	ha, err := DatasetHash(a)
	require.NoError(t, err)
	hb, err := DatasetHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb, "label is not part of the hash")
	assert.Len(t, ha, 64)

	a.Datapoints.All()[0].Active = false
	hc, err := DatasetHash(a)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestDatasetHash_FeedingChannels(t *testing.T) {
	a := createTestDataSet(t, "a")
	b := createTestDataSet(t, "a")
	for _, ds := range []*model.DataSet{a, b} {
		dp := ds.Datapoints.All()[1]
		dp.FeedingShiftedIntensity = &model.ValueErrorPair{Value: 1, Error: 0.1}
		dp.FeedingUnshiftedIntensity = &model.ValueErrorPair{Value: 2, Error: 0.2}
	}
	b.Datapoints.All()[1].FeedingUnshiftedIntensity.Value = 3

	plain, err := DatasetHash(createTestDataSet(t, "a"))
	require.NoError(t, err)
	ha, err := DatasetHash(a)
	require.NoError(t, err)
	hb, err := DatasetHash(b)
	require.NoError(t, err)
	assert.NotEqual(t, plain, ha)
	assert.NotEqual(t, ha, hb)
}

func TestHashWithDomain_Separation(t *testing.T) {
	assert.NotEqual(t, hashWithDomain("a", []byte("bc")), hashWithDomain("ab", []byte("c")))
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	first := g.Generate()
	second := g.Generate()

	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
	assert.Equal(t, byte('7'), first[14], "version nibble")
}

func TestFixedGenerator_Exhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
