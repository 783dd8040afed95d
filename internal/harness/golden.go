package harness

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result for golden comparison. Numbers are printed to
// four significant digits so that optimiser noise does not show.
func Snapshot(name string, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	if result.Err != nil {
		fmt.Fprintf(&buf, "error: %s\n", result.Err)
		return buf.Bytes()
	}

	lt := result.Lifetime
	fmt.Fprintf(&buf, "t_hyp: %.4g\n", lt.THyp)
	fmt.Fprintf(&buf, "coefficients:")
	for _, c := range lt.Coefficients {
		fmt.Fprintf(&buf, " %.4g", c)
	}
	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "tau: %.4g ± %.4g\n", lt.Tau.Value, lt.Tau.Error)
	for i, d := range lt.Distances {
		fmt.Fprintf(&buf, "distance %.4g: %.4g ± %.4g\n", d, lt.TauI[i], lt.DeltaTauI[i])
	}
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
