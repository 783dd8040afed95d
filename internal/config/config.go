// Package config loads the fit configuration for a lifetime computation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/napytau/internal/core"
)

// Defaults applied to unset fields.
const (
	DefaultTHypMin      = -5.0
	DefaultTHypMax      = 5.0
	DefaultWeightFactor = 1.0
	DefaultDegree       = 2
)

// FitConfig is the YAML fit configuration. Unset fields take their defaults
// when converted with Core.
type FitConfig struct {
	// THypRange is [min, max] for the t_hyp search.
	THypRange []float64 `yaml:"t_hyp_range,omitempty"`

	WeightFactor *float64 `yaml:"weight_factor,omitempty"`

	// Degree of the fitted polynomial.
	Degree *int `yaml:"degree,omitempty"`

	// InitialCoefficients seeds the fit. Defaults to degree+1 ones.
	InitialCoefficients []float64 `yaml:"initial_coefficients,omitempty"`

	// FixedTHyp skips the t_hyp search.
	FixedTHyp *float64 `yaml:"fixed_t_hyp,omitempty"`

	Budget BudgetConfig `yaml:"budget,omitempty"`
}

// BudgetConfig limits each optimisation run.
type BudgetConfig struct {
	MaxIterations  int           `yaml:"max_iterations,omitempty"`
	MaxEvaluations int           `yaml:"max_evaluations,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	Strict         bool          `yaml:"strict,omitempty"`
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// IsValidationError returns true if err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Load reads a YAML config file. Unknown keys are rejected.
func Load(path string) (FitConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FitConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes and validates a YAML config. An empty document yields the
// zero FitConfig.
func Parse(r io.Reader) (FitConfig, error) {
	var cfg FitConfig
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return FitConfig{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return FitConfig{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and consistency.
func (c FitConfig) Validate() error {
	if c.THypRange != nil {
		if len(c.THypRange) != 2 {
			return &ValidationError{Field: "t_hyp_range", Message: fmt.Sprintf("want [min, max], got %d values", len(c.THypRange))}
		}
		if err := (core.Bounds{Min: c.THypRange[0], Max: c.THypRange[1]}).Validate(); err != nil {
			return &ValidationError{Field: "t_hyp_range", Message: err.Error()}
		}
	}
	if c.WeightFactor != nil && (*c.WeightFactor < 0 || math.IsNaN(*c.WeightFactor) || math.IsInf(*c.WeightFactor, 0)) {
		return &ValidationError{Field: "weight_factor", Message: "must be a finite non-negative number"}
	}
	if c.Degree != nil && *c.Degree < 0 {
		return &ValidationError{Field: "degree", Message: "must be non-negative"}
	}
	if c.InitialCoefficients != nil {
		if len(c.InitialCoefficients) == 0 {
			return &ValidationError{Field: "initial_coefficients", Message: "must not be empty"}
		}
		if c.Degree != nil && len(c.InitialCoefficients) != *c.Degree+1 {
			return &ValidationError{
				Field:   "initial_coefficients",
				Message: fmt.Sprintf("%d coefficients for degree %d", len(c.InitialCoefficients), *c.Degree),
			}
		}
	}
	if c.FixedTHyp != nil && (math.IsNaN(*c.FixedTHyp) || math.IsInf(*c.FixedTHyp, 0)) {
		return &ValidationError{Field: "fixed_t_hyp", Message: "must be finite"}
	}
	b := c.Budget
	if b.MaxIterations < 0 || b.MaxEvaluations < 0 || b.Timeout < 0 {
		return &ValidationError{Field: "budget", Message: "limits must be non-negative"}
	}
	return nil
}

// WithSetup fills the degree and fixed t_hyp from a dataset setup unless
// they are already set.
func (c FitConfig) WithSetup(tauFactor *float64, polynomialCount *int) FitConfig {
	if c.FixedTHyp == nil && tauFactor != nil {
		v := *tauFactor
		c.FixedTHyp = &v
	}
	if c.Degree == nil && c.InitialCoefficients == nil && polynomialCount != nil {
		v := *polynomialCount
		c.Degree = &v
	}
	return c
}

// Core converts the configuration into core.Config, applying defaults.
func (c FitConfig) Core() (core.Config, error) {
	if err := c.Validate(); err != nil {
		return core.Config{}, err
	}

	out := core.Config{
		THypRange:    core.Bounds{Min: DefaultTHypMin, Max: DefaultTHypMax},
		WeightFactor: DefaultWeightFactor,
		Budget: core.Budget{
			MaxIterations:  c.Budget.MaxIterations,
			MaxEvaluations: c.Budget.MaxEvaluations,
			Timeout:        c.Budget.Timeout,
			Strict:         c.Budget.Strict,
		},
	}
	if c.THypRange != nil {
		out.THypRange = core.Bounds{Min: c.THypRange[0], Max: c.THypRange[1]}
	}
	if c.WeightFactor != nil {
		out.WeightFactor = *c.WeightFactor
	}
	if c.FixedTHyp != nil {
		v := *c.FixedTHyp
		out.FixedTHyp = &v
	}

	if c.InitialCoefficients != nil {
		out.InitialCoefficients = append([]float64(nil), c.InitialCoefficients...)
	} else {
		degree := DefaultDegree
		if c.Degree != nil {
			degree = *c.Degree
		}
		out.InitialCoefficients = make([]float64, degree+1)
		for i := range out.InitialCoefficients {
			out.InitialCoefficients[i] = 1
		}
	}
	return out, nil
}
