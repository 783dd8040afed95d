package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/napytau/internal/store"
)

// ComputeOptions holds flags for the compute command.
type ComputeOptions struct {
	*RootOptions
	FitOptions
	Database string

	// IDs and Now allow overriding run ids and timestamps (for testing).
	// They default to UUIDv7 ids and the wall clock.
	IDs store.IDGenerator
	Now func() time.Time
}

// PointResult is the lifetime at one distance.
type PointResult struct {
	Distance Number      `json:"distance"`
	Time     Number      `json:"time"`
	Tau      Measurement `json:"tau"`
}

// ComputeResult is the lifetime of one dataset.
type ComputeResult struct {
	Label        string        `json:"label"`
	Tau          Measurement   `json:"tau"`
	THyp         Number        `json:"t_hyp"`
	ChiSquared   Number        `json:"chi_squared"`
	Coefficients []Number      `json:"coefficients"`
	RunID        string        `json:"run_id,omitempty"`
	Points       []PointResult `json:"points"`
}

// NewComputeCommand creates the compute command.
func NewComputeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComputeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compute <data-path>",
		Short: "Compute the lifetime of every dataset",
		Long: `Compute the lifetime τ ± Δτ of every dataset under a path.

For the legacy format the path is a directory tree; every directory with a
v_c, distances.dat, norm.fac and *.fit file is one dataset. For the napytau
format the path is a JSON dataset file.

With --db each computation is recorded in a SQLite database and can be
listed with the history command.

Examples:
  napytau compute ./data
  napytau compute --t-hyp 2.5 --degree 3 ./data
  napytau compute --dataset-format napytau --setup-file setup.json run.json
  napytau compute --db runs.db --format json ./data`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")

	return cmd
}

func runCompute(opts *ComputeOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	results, err := opts.fitAll(cmd, f, path)
	if err != nil {
		return err
	}

	runIDs := make([]string, len(results))
	if opts.Database != "" {
		runIDs, err = recordRuns(cmd, f, opts, results)
		if err != nil {
			return err
		}
	}

	out := make([]ComputeResult, len(results))
	for i, r := range results {
		out[i] = computeResult(r, runIDs[i])
	}
	return f.Print(out, func(w io.Writer) {
		for _, r := range results {
			printLifetime(w, r, opts.Verbose)
		}
	})
}

// recordRuns writes one run per result and returns the run ids.
func recordRuns(cmd *cobra.Command, f *OutputFormatter, opts *ComputeOptions, results []fitted) ([]string, error) {
	ids := opts.IDs
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	logger := f.Logger()
	runIDs := make([]string, len(results))
	for i, r := range results {
		run, err := store.NewRun(ids.Generate(), r.ds, r.cfg, r.lt, now())
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to build run", err)
		}
		if err := st.WriteRun(cmd.Context(), run); err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		logger.Debug("run recorded", "run_id", run.ID, "dataset", r.ds.Label)
		runIDs[i] = run.ID
	}
	return runIDs, nil
}

func computeResult(r fitted, runID string) ComputeResult {
	lt := r.lt
	res := ComputeResult{
		Label:        r.ds.Label,
		Tau:          measurement(lt.Tau),
		THyp:         Number(lt.THyp),
		ChiSquared:   Number(lt.ChiSquared),
		Coefficients: numbers(lt.Coefficients),
		RunID:        runID,
		Points:       make([]PointResult, len(lt.TauI)),
	}
	for i := range lt.TauI {
		res.Points[i] = PointResult{
			Distance: Number(lt.Distances[i]),
			Time:     Number(lt.Times[i]),
			Tau:      Measurement{Value: Number(lt.TauI[i]), Error: Number(lt.DeltaTauI[i])},
		}
	}
	return res
}

func printLifetime(w io.Writer, r fitted, verbose bool) {
	lt := r.lt
	fmt.Fprintf(w, "%s: τ = %s (t_hyp = %g, χ² = %g)\n", r.ds.Label, lt.Tau, lt.THyp, lt.ChiSquared)
	if !verbose {
		return
	}
	for i, d := range lt.Distances {
		fmt.Fprintf(w, "  distance %g: τ = %g ± %g\n", d, lt.TauI[i], lt.DeltaTauI[i])
	}
}
