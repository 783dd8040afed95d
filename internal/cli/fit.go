package cli

import (
	"encoding/json"
	"errors"
	"io/fs"
	"math"

	"github.com/spf13/cobra"

	"github.com/roach88/napytau/internal/config"
	"github.com/roach88/napytau/internal/core"
	"github.com/roach88/napytau/internal/ingest"
	"github.com/roach88/napytau/internal/model"
)

// FitOptions holds the dataset and fit flags shared by compute, curve and
// export. Flags override the config file.
type FitOptions struct {
	DatasetFormat string
	FitFile       string
	SetupFile     string
	Config        string
	THyp          float64
	THypMin       float64
	THypMax       float64
	WeightFactor  float64
	Degree        int
}

func (o *FitOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.DatasetFormat, "dataset-format", string(ingest.FormatLegacy), "dataset format (legacy|napytau)")
	f.StringVar(&o.FitFile, "fit-file", "", "fit file used instead of each directory's *.fit file (legacy only)")
	f.StringVar(&o.SetupFile, "setup-file", "", "setup file applied to every dataset")
	f.StringVar(&o.Config, "config", "", "YAML fit configuration")
	f.Float64Var(&o.THyp, "t-hyp", 0, "fixed lifetime estimate; skips the t_hyp search")
	f.Float64Var(&o.THypMin, "t-hyp-min", config.DefaultTHypMin, "lower bound of the t_hyp search")
	f.Float64Var(&o.THypMax, "t-hyp-max", config.DefaultTHypMax, "upper bound of the t_hyp search")
	f.Float64Var(&o.WeightFactor, "weight-factor", config.DefaultWeightFactor, "weight of the unshifted term in χ²")
	f.IntVar(&o.Degree, "degree", config.DefaultDegree, "polynomial degree")
}

// fitConfig loads the config file, if any, and applies the flags that were
// set explicitly.
func (o *FitOptions) fitConfig(cmd *cobra.Command) (config.FitConfig, error) {
	var cfg config.FitConfig
	if o.Config != "" {
		var err error
		cfg, err = config.Load(o.Config)
		if err != nil {
			return config.FitConfig{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("t-hyp") {
		v := o.THyp
		cfg.FixedTHyp = &v
	}
	if flags.Changed("t-hyp-min") || flags.Changed("t-hyp-max") {
		lo, hi := config.DefaultTHypMin, config.DefaultTHypMax
		if len(cfg.THypRange) == 2 {
			lo, hi = cfg.THypRange[0], cfg.THypRange[1]
		}
		if flags.Changed("t-hyp-min") {
			lo = o.THypMin
		}
		if flags.Changed("t-hyp-max") {
			hi = o.THypMax
		}
		cfg.THypRange = []float64{lo, hi}
	}
	if flags.Changed("weight-factor") {
		v := o.WeightFactor
		cfg.WeightFactor = &v
	}
	if flags.Changed("degree") {
		v := o.Degree
		cfg.Degree = &v
		cfg.InitialCoefficients = nil
	}
	if err := cfg.Validate(); err != nil {
		return config.FitConfig{}, err
	}
	return cfg, nil
}

// loadDatasets reads the datasets at path in the selected format.
func (o *FitOptions) loadDatasets(path string) ([]*model.DataSet, error) {
	format, err := ingest.ParseFormat(o.DatasetFormat)
	if err != nil {
		return nil, err
	}
	return ingest.Load(ingest.LoadOptions{
		Format:    format,
		Path:      path,
		FitFile:   o.FitFile,
		SetupFile: o.SetupFile,
	})
}

// fitted is one dataset together with its computed lifetime.
type fitted struct {
	ds  *model.DataSet
	cfg core.Config
	lt  *core.Lifetime
}

// fitAll loads every dataset at path and computes its lifetime. Failures
// are reported through f and returned as ExitErrors.
func (o *FitOptions) fitAll(cmd *cobra.Command, f *OutputFormatter, path string) ([]fitted, error) {
	base, err := o.fitConfig(cmd)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid fit configuration", err)
	}

	datasets, err := o.loadDatasets(path)
	if err != nil {
		return nil, loadFailure(f, err)
	}
	f.VerboseLog("Loaded %d dataset(s) from %s", len(datasets), path)

	logger := f.Logger()
	results := make([]fitted, 0, len(datasets))
	for _, ds := range datasets {
		cfg, err := base.WithSetup(ds.TauFactor, ds.PolynomialCount).Core()
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid fit configuration for "+ds.Label, err)
		}
		lt, err := core.CalculateLifetime(cmd.Context(), ds, cfg, core.WithLogger(logger))
		if err != nil {
			return nil, f.Fail(ExitFailure, ErrCodeCompute, "lifetime computation failed for "+ds.Label, err)
		}
		results = append(results, fitted{ds: ds, cfg: cfg, lt: lt})
	}
	return results, nil
}

// loadFailure maps an ingest error onto an error code and exit code.
func loadFailure(f *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, ingest.ErrNotDirectory):
		return f.Fail(ExitCommandError, ErrCodeNotFound, "dataset not found", err)
	case errors.Is(err, ingest.ErrSchema):
		return f.Fail(ExitFailure, ErrCodeSchema, "invalid dataset", err)
	case errors.Is(err, ingest.ErrUnknownFormat):
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid dataset format", err)
	default:
		return f.Fail(ExitCommandError, ErrCodeLoadFailed, "failed to load dataset", err)
	}
}

// Number is a float64 that encodes NaN and ±Inf as JSON null.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Measurement is a ValueErrorPair for JSON output.
type Measurement struct {
	Value Number `json:"value"`
	Error Number `json:"error"`
}

func measurement(p model.ValueErrorPair) Measurement {
	return Measurement{Value: Number(p.Value), Error: Number(p.Error)}
}

func numbers(values []float64) []Number {
	out := make([]Number, len(values))
	for i, v := range values {
		out[i] = Number(v)
	}
	return out
}
