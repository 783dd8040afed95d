package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/napytau/internal/config"
)

func ptr[T any](v T) *T { return &v }

// linearScenario has P(t) = 2 + 3t sampled at t = 0, 1, 2 with t_hyp = 2.
func linearScenario() *Scenario {
	return &Scenario{
		Name:        "linear",
		Description: "linear fit at fixed t_hyp",
		Dataset: DatasetSpec{
			Velocity: 0.5,
			Datapoints: []DatapointSpec{
				{Distance: 0, Shifted: []float64{2, 1}, Unshifted: []float64{6, 1}},
				{Distance: 149896229, Shifted: []float64{5, 1}, Unshifted: []float64{6, 1}},
				{Distance: 299792458, Shifted: []float64{8, 1}, Unshifted: []float64{6, 1}},
			},
		},
		Fit:    config.FitConfig{Degree: ptr(1), FixedTHyp: ptr(2.0)},
		Expect: Expectation{Tau: ptr(2.0), TauError: ptr(0.41626), Tolerance: 1e-3},
	}
}

func TestRun_Linear(t *testing.T) {
	result, err := Run(context.Background(), linearScenario())
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "scenario-linear", result.RunID)
	require.NotNil(t, result.Lifetime)
	assert.InDeltaSlice(t, []float64{2, 3}, result.Lifetime.Coefficients, 1e-3)
	assert.InDeltaSlice(t, []float64{16.0 / 18, 5.0 / 9, 16.0 / 18}, result.Lifetime.DeltaTauI, 1e-3)
}

func TestRun_WrongExpectation(t *testing.T) {
	s := linearScenario()
	s.Expect = Expectation{Tau: ptr(7.0), THyp: ptr(2.0)}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "tau")
}

func TestRun_ExpectedError(t *testing.T) {
	s := linearScenario()
	s.Dataset.Velocity = 1.5
	s.Expect = Expectation{Error: "relative velocity"}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.RunID)
	assert.Nil(t, result.Lifetime)
}

func TestRun_UnexpectedError(t *testing.T) {
	s := linearScenario()
	s.Dataset.Datapoints[1].Unshifted = nil

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "missing intensities")
}

func TestRun_ExpectedErrorNotRaised(t *testing.T) {
	s := linearScenario()
	s.Expect = Expectation{Error: "singular"}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "success with tau")
}

func TestRun_Cancelled(t *testing.T) {
	s := linearScenario()
	s.Fit.FixedTHyp = nil
	s.Fit.THypRange = []float64{1, 3}
	s.Expect = Expectation{Error: "context canceled"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "quadratic-search.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "quadratic-search", s.Name)
	assert.Equal(t, 0.5, s.Dataset.Velocity)
	require.Len(t, s.Dataset.Datapoints, 5)
	assert.Equal(t, []float64{3.75, 0.1}, s.Dataset.Datapoints[1].Shifted)
	assert.Equal(t, []float64{0, 5}, s.Fit.THypRange)
	require.NotNil(t, s.Fit.Degree)
	assert.Equal(t, 2, *s.Fit.Degree)
	require.NotNil(t, s.Expect.THyp)
	assert.Equal(t, 0.01, s.Expect.Tolerance)

	ds, err := s.DataSet()
	require.NoError(t, err)
	assert.Equal(t, "quadratic-search", ds.Label)
	assert.Equal(t, 5, ds.Datapoints.Len())
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"unknown-field.yaml", "field expected not found"},
		{"missing-expect.yaml", "one of tau"},
		{"bad-intensity.yaml", "shifted must be [value, error]"},
		{"does-not-exist.yaml", "failed to read"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := LoadScenario(filepath.Join("testdata", "invalid", tt.file))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateScenario(t *testing.T) {
	t.Run("error with numeric expectation", func(t *testing.T) {
		s := linearScenario()
		s.Expect.Error = "boom"
		assert.ErrorContains(t, validateScenario(s), "cannot be combined")
	})

	t.Run("invalid fit", func(t *testing.T) {
		s := linearScenario()
		s.Fit.THypRange = []float64{1}
		assert.True(t, config.IsValidationError(validateScenario(s)))
	})

	t.Run("negative tolerance", func(t *testing.T) {
		s := linearScenario()
		s.Expect.Tolerance = -1
		assert.ErrorContains(t, validateScenario(s), "tolerance")
	})

	t.Run("missing name", func(t *testing.T) {
		s := linearScenario()
		s.Name = ""
		assert.ErrorContains(t, validateScenario(s), "name is required")
	})
}

func TestScenarios(t *testing.T) {
	paths, err := FindScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.Len(t, paths, 4)

	for _, path := range paths {
		s, err := LoadScenario(path)
		require.NoError(t, err)
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunDir(t *testing.T) {
	suite, err := RunDir(context.Background(), filepath.Join("testdata", "invalid"))
	require.NoError(t, err)

	assert.Equal(t, 4, suite.Total)
	assert.Equal(t, 0, suite.Passed)
	assert.Equal(t, 4, suite.Failed)
	require.Len(t, suite.Failures, 4)

	// Failures are reported in file name order.
	assert.Equal(t, filepath.Join("testdata", "invalid", "bad-intensity.yaml"), suite.Failures[0].Path)
	assert.Empty(t, suite.Failures[0].Scenario)
	last := suite.Failures[3]
	assert.Equal(t, "wrong-expectation", last.Scenario)
	assert.Contains(t, last.Errors[0], "tau")
}

func TestRunDir_Missing(t *testing.T) {
	_, err := RunDir(context.Background(), filepath.Join("testdata", "nope"))
	assert.Error(t, err)
}

func TestRun_NoActiveDatapoints(t *testing.T) {
	s := linearScenario()
	for i := range s.Dataset.Datapoints {
		s.Dataset.Datapoints[i].Active = ptr(false)
	}
	s.Expect = Expectation{Tau: ptr(-1.0), TauError: ptr(-1.0), THyp: ptr(2.0)}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.NotEmpty(t, result.RunID)
	require.NotNil(t, result.Lifetime)
	assert.Empty(t, result.Lifetime.TauI)
}
