package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/napytau/internal/config"
	"github.com/roach88/napytau/internal/model"
)

// DefaultTolerance is the absolute tolerance used when a scenario sets none.
const DefaultTolerance = 1e-6

// Scenario defines one lifetime computation and its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the dataset label
	// and the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Dataset DatasetSpec      `yaml:"dataset"`
	Fit     config.FitConfig `yaml:"fit,omitempty"`
	Expect  Expectation      `yaml:"expect"`
}

// DatasetSpec is an inline dataset.
type DatasetSpec struct {
	Velocity      float64         `yaml:"velocity"`
	VelocityError float64         `yaml:"velocity_error,omitempty"`
	Datapoints    []DatapointSpec `yaml:"datapoints"`
}

// DatapointSpec is one distance of an inline dataset. Intensities are
// [value, error] pairs and may be omitted.
type DatapointSpec struct {
	Distance      float64   `yaml:"distance"`
	DistanceError float64   `yaml:"distance_error,omitempty"`
	Shifted       []float64 `yaml:"shifted,omitempty"`
	Unshifted     []float64 `yaml:"unshifted,omitempty"`

	// Active defaults to true.
	Active *bool `yaml:"active,omitempty"`
}

// Expectation is the expected outcome of a scenario. Either Error is set
// or at least one of the numeric fields.
type Expectation struct {
	Tau      *float64 `yaml:"tau,omitempty"`
	TauError *float64 `yaml:"tau_error,omitempty"`
	THyp     *float64 `yaml:"t_hyp,omitempty"`

	// Tolerance is the absolute tolerance for the numeric fields.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Error is a substring the computation error must contain.
	Error string `yaml:"error,omitempty"`
}

func (e Expectation) tolerance() float64 {
	if e.Tolerance > 0 {
		return e.Tolerance
	}
	return DefaultTolerance
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expected:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files directly inside dir,
// sorted by name.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	for i, dp := range s.Dataset.Datapoints {
		if dp.Shifted != nil && len(dp.Shifted) != 2 {
			return fmt.Errorf("dataset.datapoints[%d]: shifted must be [value, error]", i)
		}
		if dp.Unshifted != nil && len(dp.Unshifted) != 2 {
			return fmt.Errorf("dataset.datapoints[%d]: unshifted must be [value, error]", i)
		}
	}

	if err := s.Fit.Validate(); err != nil {
		return err
	}

	e := s.Expect
	numeric := e.Tau != nil || e.TauError != nil || e.THyp != nil
	switch {
	case e.Error != "" && numeric:
		return fmt.Errorf("expect: error cannot be combined with tau, tau_error or t_hyp")
	case e.Error == "" && !numeric:
		return fmt.Errorf("expect: one of tau, tau_error, t_hyp or error is required")
	case e.Tolerance < 0:
		return fmt.Errorf("expect: tolerance must be non-negative")
	}

	return nil
}

// DataSet builds the scenario's dataset, labelled with the scenario name.
func (s *Scenario) DataSet() (*model.DataSet, error) {
	v, err := model.NewRelativeVelocity(s.Dataset.Velocity)
	if err != nil {
		return nil, err
	}
	c := model.NewDatapointCollection()
	for _, spec := range s.Dataset.Datapoints {
		dp := model.NewDatapoint(model.Pair(spec.Distance, spec.DistanceError))
		if spec.Shifted != nil {
			dp.ShiftedIntensity = &model.ValueErrorPair{Value: spec.Shifted[0], Error: spec.Shifted[1]}
		}
		if spec.Unshifted != nil {
			dp.UnshiftedIntensity = &model.ValueErrorPair{Value: spec.Unshifted[0], Error: spec.Unshifted[1]}
		}
		if spec.Active != nil {
			dp.Active = *spec.Active
		}
		if err := c.Add(dp); err != nil {
			return nil, err
		}
	}
	return model.NewDataSet(s.Name, v, s.Dataset.VelocityError, c), nil
}
