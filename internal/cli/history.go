package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/napytau/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// RunSummary is one recorded run.
type RunSummary struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	DatasetHash string        `json:"dataset_hash"`
	CreatedAt   time.Time     `json:"created_at"`
	Tau         Measurement   `json:"tau"`
	THyp        Number        `json:"t_hyp"`
	FixedTHyp   bool          `json:"fixed_t_hyp"`
	Points      []PointResult `json:"points,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [label]",
		Short: "List recorded runs",
		Long: `List the runs recorded by compute --db, oldest first, optionally only
those of one dataset label. With --run a single run is shown together with
its per-distance lifetimes.

Examples:
  napytau history --db runs.db
  napytau history --db runs.db data/run1
  napytau history --db runs.db --run 0190a6f4-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			label := ""
			if len(args) == 1 {
				label = args[0]
			}
			return runHistory(opts, label, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show a single run with its points")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, label string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	// Opening would create a missing database.
	if _, err := os.Stat(opts.Database); err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			return f.Fail(ExitFailure, ErrCodeNotFound, "run not found", err)
		}
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
		}
		summary := runSummary(run)
		return f.Print(summary, func(w io.Writer) {
			printRun(w, summary)
			for _, p := range summary.Points {
				fmt.Fprintf(w, "  distance %g: τ = %g ± %g\n", float64(p.Distance), float64(p.Tau.Value), float64(p.Tau.Error))
			}
		})
	}

	runs, err := st.ListRuns(ctx, label)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}
	summaries := make([]RunSummary, len(runs))
	for i, r := range runs {
		summaries[i] = runSummary(r)
	}
	return f.Print(summaries, func(w io.Writer) {
		if len(summaries) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return
		}
		for _, s := range summaries {
			printRun(w, s)
		}
	})
}

func runSummary(r store.Run) RunSummary {
	s := RunSummary{
		ID:          r.ID,
		Label:       r.Label,
		DatasetHash: r.DatasetHash,
		CreatedAt:   r.CreatedAt,
		Tau:         measurement(r.Tau),
		THyp:        Number(r.THyp),
		FixedTHyp:   r.FixedTHyp,
	}
	for _, p := range r.Points {
		s.Points = append(s.Points, PointResult{
			Distance: Number(p.Distance),
			Time:     Number(p.Time),
			Tau:      Measurement{Value: Number(p.Tau), Error: Number(p.TauError)},
		})
	}
	return s
}

func printRun(w io.Writer, s RunSummary) {
	mode := "searched"
	if s.FixedTHyp {
		mode = "fixed"
	}
	fmt.Fprintf(w, "%s  %s  %s  τ = %g ± %g  t_hyp = %g (%s)\n",
		s.ID, s.CreatedAt.Format(time.RFC3339), s.Label,
		float64(s.Tau.Value), float64(s.Tau.Error), float64(s.THyp), mode)
}
