package cli

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/napytau/internal/core"
	"github.com/roach88/napytau/internal/ingest"
	"github.com/roach88/napytau/internal/model"
)

func TestExport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	out, _, err := execute(t, linearArgs("export", "-o", path, "--samples", "3")...)
	require.NoError(t, err)
	assert.Contains(t, out, "testdata/linear.json -> "+path)

	ds, err := ingest.ReadNapytau(path)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Datapoints.Len())
	require.NotNil(t, ds.WeightedMeanTau)
	assert.InDelta(t, 2, ds.WeightedMeanTau.Value, 1e-3)
	require.NotNil(t, ds.TauFactor)
	assert.Equal(t, 2.0, *ds.TauFactor)
	require.Len(t, ds.Polynomials, 1)
	assert.Equal(t, 1, ds.Polynomials[0].Degree())
	assert.InDeltaSlice(t, []float64{0, 1, 2}, ds.SamplingPoints, 1e-12)
}

func TestExport_NonFiniteLifetime(t *testing.T) {
	// A constant polynomial has a zero derivative, so every τ_i is infinite.
	path := filepath.Join(t.TempDir(), "out.json")
	_, _, err := execute(t, "export", "--dataset-format", "napytau", "--t-hyp", "2", "--degree", "0",
		"-o", path, linearDataset)
	require.NoError(t, err)

	ds, err := ingest.ReadNapytau(path)
	require.NoError(t, err)
	require.NotNil(t, ds.WeightedMeanTau)
	assert.True(t, math.IsNaN(ds.WeightedMeanTau.Value))
	require.Len(t, ds.Polynomials, 1)
	assert.Equal(t, 0, ds.Polynomials[0].Degree())
}

func TestExport_Stdout(t *testing.T) {
	out, _, err := execute(t, linearArgs("export", "-o", "-")...)
	require.NoError(t, err)

	ds, err := ingest.ParseNapytau("stdout", []byte(out))
	require.NoError(t, err)
	require.NotNil(t, ds.WeightedMeanTau)
	assert.Empty(t, ds.SamplingPoints)
}

func TestExport_RequiresOutput(t *testing.T) {
	_, _, err := execute(t, "export", "--dataset-format", "napytau", linearDataset)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"output" not set`)
}

func TestExportPaths(t *testing.T) {
	v, err := model.NewRelativeVelocity(0.5)
	require.NoError(t, err)
	result := func(label string) fitted {
		return fitted{ds: model.NewDataSet(label, v, 0, nil), lt: &core.Lifetime{}}
	}

	t.Run("single dataset", func(t *testing.T) {
		paths, err := exportPaths("out.json", []fitted{result("data/run1")})
		require.NoError(t, err)
		assert.Equal(t, []string{"out.json"}, paths)
	})

	t.Run("several datasets", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exported")
		paths, err := exportPaths(dir, []fitted{result("data/run1"), result("data/run2")})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "data_run1.json"),
			filepath.Join(dir, "data_run2.json"),
		}, paths)
		assert.DirExists(t, dir)
	})

	t.Run("colliding names", func(t *testing.T) {
		_, err := exportPaths(t.TempDir(), []fitted{result("a/b"), result("a_b")})
		assert.ErrorContains(t, err, "both map to a_b.json")
	})
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"data/run1":         "data_run1",
		"./data/run1/":      "data_run1",
		"../up/run":         "up_run",
		"C:\\runs\\r1":      "C__runs_r1",
		"testdata/run.json": "testdata_run.json",
		".":                 "dataset",
	}
	for label, want := range tests {
		assert.Equal(t, want, fileName(label), label)
	}
}
