package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/napytau/internal/ingest"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	FitOptions
	Output  string
	Samples int
}

// ExportResult lists the written files.
type ExportResult struct {
	Files []ExportedFile `json:"files"`
}

// ExportedFile is one written dataset.
type ExportedFile struct {
	Label string      `json:"label"`
	Path  string      `json:"path"`
	Tau   Measurement `json:"tau"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <data-path>",
		Short: "Compute lifetimes and write napytau JSON",
		Long: `Read datasets in either format, compute their lifetimes and write each
one as a napytau JSON document including the fit results.

With a single dataset -o names the output file. With several datasets -o
is a directory and each dataset is written to <label>.json inside it.
"-o -" writes a single dataset to stdout.

Examples:
  napytau export -o run.json ./data/run1
  napytau export -o ./exported ./data
  napytau export --samples 20 -o - ./data/run1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file or directory (required)")
	cmd.Flags().IntVar(&opts.Samples, "samples", 0, "record this many sampling points (0 for none)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	if opts.Samples < 0 {
		return f.Fail(ExitCommandError, ErrCodeConfig, fmt.Sprintf("--samples must not be negative, got %d", opts.Samples), nil)
	}

	results, err := opts.fitAll(cmd, f, path)
	if err != nil {
		return err
	}
	if opts.Samples > 0 {
		for _, r := range results {
			samplingTimes(r, opts.Samples)
		}
	}

	if opts.Output == "-" {
		if len(results) != 1 {
			return f.Fail(ExitCommandError, ErrCodeConfig, fmt.Sprintf("-o - needs exactly one dataset, found %d", len(results)), nil)
		}
		if err := ingest.WriteNapytau(cmd.OutOrStdout(), results[0].ds); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write dataset", err)
		}
		return nil
	}

	paths, err := exportPaths(opts.Output, results)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to prepare output", err)
	}

	out := ExportResult{Files: make([]ExportedFile, len(results))}
	for i, r := range results {
		if err := ingest.WriteNapytauFile(paths[i], r.ds); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write dataset", err)
		}
		f.VerboseLog("Wrote %s", paths[i])
		out.Files[i] = ExportedFile{Label: r.ds.Label, Path: paths[i], Tau: measurement(r.lt.Tau)}
	}
	return f.Print(out, func(w io.Writer) {
		for _, file := range out.Files {
			fmt.Fprintf(w, "%s -> %s\n", file.Label, file.Path)
		}
	})
}

// exportPaths decides where each dataset is written.
func exportPaths(output string, results []fitted) ([]string, error) {
	if len(results) == 1 {
		return []string{output}, nil
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return nil, err
	}
	seen := make(map[string]string, len(results))
	paths := make([]string, len(results))
	for i, r := range results {
		name := fileName(r.ds.Label) + ".json"
		if other, ok := seen[name]; ok {
			return nil, fmt.Errorf("datasets %s and %s both map to %s", other, r.ds.Label, name)
		}
		seen[name] = r.ds.Label
		paths[i] = filepath.Join(output, name)
	}
	return paths, nil
}

// fileName turns a dataset label into a flat file name.
func fileName(label string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, filepath.Clean(label))
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "dataset"
	}
	return name
}
