package ingest

import (
	"errors"
	"fmt"

	"github.com/roach88/napytau/internal/model"
)

// Format names a dataset format.
type Format string

const (
	FormatLegacy  Format = "legacy"
	FormatNapytau Format = "napytau"
)

// ErrUnknownFormat is returned for a Format other than legacy or napytau.
var ErrUnknownFormat = errors.New("ingest: unknown dataset format")

// ParseFormat converts a flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatLegacy, FormatNapytau:
		return Format(s), nil
	}
	return "", fmt.Errorf("%q (want legacy or napytau): %w", s, ErrUnknownFormat)
}

// LoadOptions selects what Load reads.
type LoadOptions struct {
	Format Format

	// Path is the legacy root directory or the napytau JSON file.
	Path string

	// FitFile overrides the *.fit files of every legacy bundle.
	FitFile string

	// SetupFile is applied to every loaded dataset when set.
	SetupFile string
}

// Load reads the datasets described by opts.
func Load(opts LoadOptions) ([]*model.DataSet, error) {
	var datasets []*model.DataSet
	switch opts.Format {
	case FormatLegacy:
		var err error
		datasets, err = ReadLegacy(opts.Path, opts.FitFile)
		if err != nil {
			return nil, err
		}
	case FormatNapytau:
		ds, err := ReadNapytau(opts.Path)
		if err != nil {
			return nil, err
		}
		datasets = []*model.DataSet{ds}
	default:
		return nil, fmt.Errorf("%q: %w", opts.Format, ErrUnknownFormat)
	}

	if opts.SetupFile == "" {
		return datasets, nil
	}
	setup, err := ReadSetup(opts.SetupFile)
	if err != nil {
		return nil, err
	}
	for _, ds := range datasets {
		if err := Enrich(ds, setup); err != nil {
			return nil, err
		}
	}
	return datasets, nil
}
