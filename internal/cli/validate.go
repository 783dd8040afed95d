package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/napytau/internal/ingest"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Kind string // "dataset" | "setup"
}

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	File   string            `json:"file"`
	Kind   string            `json:"kind"`
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

var documentKinds = map[string]ingest.Document{
	"dataset": ingest.DatasetDocument,
	"setup":   ingest.SetupDocument,
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a napytau dataset or setup file",
		Long: `Check a napytau JSON document against the dataset or setup schema
without computing anything.

Exit codes:
  0 - Document is valid
  1 - Document is invalid
  2 - Command error (unreadable file, unknown kind)

Examples:
  napytau validate run.json
  napytau validate --kind setup setup.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "dataset", "document kind (dataset|setup)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	doc, ok := documentKinds[opts.Kind]
	if !ok {
		return f.Fail(ExitCommandError, ErrCodeConfig, fmt.Sprintf("unknown kind %q: must be dataset or setup", opts.Kind), nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		code := ErrCodeLoadFailed
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return f.Fail(ExitCommandError, code, "failed to read file", err)
	}
	f.VerboseLog("Validating %s as %s", path, opts.Kind)

	// Datasets are fully decoded so that cross-field rules are checked too.
	if doc == ingest.DatasetDocument {
		_, err = ingest.ParseNapytau(path, data)
	} else {
		_, err = ingest.Validate(doc, path, data)
	}

	result := ValidationResult{File: path, Kind: opts.Kind, Valid: err == nil}
	if err == nil {
		return f.Print(result, func(w io.Writer) {
			fmt.Fprintf(w, "✓ %s is a valid %s document\n", path, opts.Kind)
		})
	}

	result.Errors = []ValidationIssue{issueFromError(err)}
	if printErr := f.Error(ErrCodeSchema, fmt.Sprintf("%s is not a valid %s document", path, opts.Kind), result); printErr != nil {
		return printErr
	}
	if opts.Format != "json" {
		fmt.Fprintf(f.Writer, "  %s\n", err)
	}
	return WrapExitError(ExitFailure, "validation failed", err).reported()
}

// issueFromError extracts the position of a schema error when there is one.
func issueFromError(err error) ValidationIssue {
	var se *ingest.SchemaError
	if errors.As(err, &se) {
		issue := ValidationIssue{Message: se.Message}
		if se.Pos.IsValid() {
			issue.Line = se.Pos.Line()
			issue.Column = se.Pos.Column()
		}
		return issue
	}
	return ValidationIssue{Message: err.Error()}
}
