package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/napytau/internal/core"
)

// CurveOptions holds flags for the curve command.
type CurveOptions struct {
	*RootOptions
	FitOptions
	Samples int
}

// CurvePoint is the fitted model at one time.
type CurvePoint struct {
	Time      Number `json:"time"`
	Shifted   Number `json:"shifted"`
	Unshifted Number `json:"unshifted"`
}

// CurveResult is the fitted curve of one dataset.
type CurveResult struct {
	Label  string       `json:"label"`
	Tau    Measurement  `json:"tau"`
	THyp   Number       `json:"t_hyp"`
	Points []CurvePoint `json:"points"`
}

// NewCurveCommand creates the curve command.
func NewCurveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CurveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "curve <data-path>",
		Short: "Sample the fitted curves",
		Long: `Fit every dataset and sample the fitted model between the first and
last measured time: P(t) for the shifted intensity and t_hyp·P'(t) for the
unshifted intensity.

Examples:
  napytau curve --samples 50 ./data
  napytau curve --dataset-format napytau --format json run.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurve(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().IntVar(&opts.Samples, "samples", 10, "number of sampling points")

	return cmd
}

func runCurve(opts *CurveOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	if opts.Samples < 1 {
		return f.Fail(ExitCommandError, ErrCodeConfig, fmt.Sprintf("--samples must be positive, got %d", opts.Samples), nil)
	}

	results, err := opts.fitAll(cmd, f, path)
	if err != nil {
		return err
	}

	curves := make([]CurveResult, len(results))
	for i, r := range results {
		curves[i] = sampleCurve(r, opts.Samples)
	}
	return f.Print(curves, func(w io.Writer) {
		for i, c := range curves {
			if i > 0 {
				fmt.Fprintln(w)
			}
			printCurve(w, c)
		}
	})
}

// samplingTimes spans the measured times of a fit with n points and records
// them on the dataset.
func samplingTimes(r fitted, n int) []float64 {
	times := r.lt.Times
	if len(times) == 0 {
		r.ds.SamplingPoints = nil
		return []float64{}
	}
	ts := core.SampleTimes(times[0], times[len(times)-1], n)
	r.ds.SamplingPoints = ts
	return ts
}

func sampleCurve(r fitted, n int) CurveResult {
	ts := samplingTimes(r, n)
	shifted, unshifted := core.FitCurve(ts, r.lt.Coefficients, r.lt.THyp)
	c := CurveResult{
		Label:  r.ds.Label,
		Tau:    measurement(r.lt.Tau),
		THyp:   Number(r.lt.THyp),
		Points: make([]CurvePoint, len(ts)),
	}
	for i, t := range ts {
		c.Points[i] = CurvePoint{Time: Number(t), Shifted: Number(shifted[i]), Unshifted: Number(unshifted[i])}
	}
	return c
}

// printCurve renders a curve as a table with four significant digits.
func printCurve(w io.Writer, c CurveResult) {
	fmt.Fprintf(w, "dataset: %s\n", c.Label)
	fmt.Fprintf(w, "t_hyp: %.4g\n", float64(c.THyp))
	fmt.Fprintf(w, "tau: %.4g ± %.4g\n", float64(c.Tau.Value), float64(c.Tau.Error))
	fmt.Fprintln(w, "time\tshifted\tunshifted")
	for _, p := range c.Points {
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\n", float64(p.Time), float64(p.Shifted), float64(p.Unshifted))
	}
}
