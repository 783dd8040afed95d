package ingest

import (
	"fmt"
	"math"
	"os"

	"github.com/roach88/napytau/internal/model"
)

type jsonDatapoint struct {
	Distance                       float64  `json:"distance"`
	DistanceError                  float64  `json:"distanceError"`
	Calibration                    float64  `json:"calibration"`
	CalibrationError               float64  `json:"calibrationError"`
	ShiftedIntensity               float64  `json:"shiftedIntensity"`
	ShiftedIntensityError          float64  `json:"shiftedIntensityError"`
	UnshiftedIntensity             float64  `json:"unshiftedIntensity"`
	UnshiftedIntensityError        float64  `json:"unshiftedIntensityError"`
	FeedingShiftedIntensity        *float64 `json:"feedingShiftedIntensity,omitempty"`
	FeedingShiftedIntensityError   *float64 `json:"feedingShiftedIntensityError,omitempty"`
	FeedingUnshiftedIntensity      *float64 `json:"feedingUnshiftedIntensity,omitempty"`
	FeedingUnshiftedIntensityError *float64 `json:"feedingUnshiftedIntensityError,omitempty"`
}

// Fit results may be non-finite; those are written as null and read back
// as NaN.
type jsonPair struct {
	Value *float64 `json:"value"`
	Error *float64 `json:"error"`
}

type jsonPolynomial struct {
	Coefficients []*float64 `json:"coefficients"`
}

type jsonDataset struct {
	RelativeVelocity      float64               `json:"relativeVelocity"`
	RelativeVelocityError float64               `json:"relativeVelocityError"`
	Datapoints            []jsonDatapoint       `json:"datapoints"`
	TauFactor             *float64              `json:"tauFactor,omitempty"`
	WeightedMeanTau       *jsonPair             `json:"weightedMeanTau,omitempty"`
	SamplingPoints        []float64             `json:"samplingPoints,omitempty"`
	Polynomials           []jsonPolynomial      `json:"polynomials,omitempty"`
}

// DatapointSetup sets the active flag of the datapoint at Distance.
type DatapointSetup struct {
	Distance float64 `json:"distance"`
	Active   bool    `json:"active"`
}

// Setup is the decoded setup document.
type Setup struct {
	TauFactor       float64          `json:"tauFactor"`
	PolynomialCount int              `json:"polynomialCount"`
	DatapointSetups []DatapointSetup `json:"datapointSetups"`
}

// ReadNapytau reads and validates a napytau JSON dataset file.
func ReadNapytau(path string) (*model.DataSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseNapytau(path, data)
}

// ParseNapytau validates and decodes a napytau JSON dataset. label names the
// resulting dataset and appears in error positions.
func ParseNapytau(label string, data []byte) (*model.DataSet, error) {
	v, err := Validate(DatasetDocument, label, data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", label, err)
	}
	var raw jsonDataset
	if err := v.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", label, err)
	}
	return raw.toModel(label)
}

func (raw jsonDataset) toModel(label string) (*model.DataSet, error) {
	velocity, err := model.NewRelativeVelocity(raw.RelativeVelocity)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", label, err)
	}

	c := model.NewDatapointCollection()
	for i, p := range raw.Datapoints {
		dp := model.NewDatapoint(model.Pair(p.Distance, p.DistanceError))
		dp.Calibration = &model.ValueErrorPair{Value: p.Calibration, Error: p.CalibrationError}
		dp.ShiftedIntensity = &model.ValueErrorPair{Value: p.ShiftedIntensity, Error: p.ShiftedIntensityError}
		dp.UnshiftedIntensity = &model.ValueErrorPair{Value: p.UnshiftedIntensity, Error: p.UnshiftedIntensityError}

		feeding := []*float64{
			p.FeedingShiftedIntensity, p.FeedingShiftedIntensityError,
			p.FeedingUnshiftedIntensity, p.FeedingUnshiftedIntensityError,
		}
		switch countSet(feeding) {
		case 0:
		case len(feeding):
			dp.FeedingShiftedIntensity = &model.ValueErrorPair{Value: *p.FeedingShiftedIntensity, Error: *p.FeedingShiftedIntensityError}
			dp.FeedingUnshiftedIntensity = &model.ValueErrorPair{Value: *p.FeedingUnshiftedIntensity, Error: *p.FeedingUnshiftedIntensityError}
		default:
			return nil, &SchemaError{Message: fmt.Sprintf("%s: datapoints[%d]: feeding intensities must be given together", label, i)}
		}
		if err := c.Add(dp); err != nil {
			return nil, fmt.Errorf("dataset %s: datapoints[%d]: %w", label, i, err)
		}
	}

	ds := model.NewDataSet(label, velocity, raw.RelativeVelocityError, c)
	ds.TauFactor = raw.TauFactor
	if raw.WeightedMeanTau != nil {
		ds.WeightedMeanTau = &model.ValueErrorPair{
			Value: orNaN(raw.WeightedMeanTau.Value),
			Error: orNaN(raw.WeightedMeanTau.Error),
		}
	}
	ds.SamplingPoints = raw.SamplingPoints
	for i, p := range raw.Polynomials {
		coefficients := make([]float64, len(p.Coefficients))
		for k, c := range p.Coefficients {
			coefficients[k] = orNaN(c)
		}
		poly, err := model.NewPolynomial(coefficients, len(coefficients)-1)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: polynomials[%d]: %w", label, i, err)
		}
		ds.Polynomials = append(ds.Polynomials, poly)
	}
	return ds, nil
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// finite returns nil for NaN and ±Inf.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func countSet(values []*float64) int {
	n := 0
	for _, v := range values {
		if v != nil {
			n++
		}
	}
	return n
}

// ReadSetup reads and validates a setup file.
func ReadSetup(path string) (*Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := Validate(SetupDocument, path, data)
	if err != nil {
		return nil, fmt.Errorf("setup %s: %w", path, err)
	}
	var s Setup
	if err := v.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode setup %s: %w", path, err)
	}
	return &s, nil
}

// Enrich applies a setup to ds: tau factor, polynomial count and the active
// flag of each listed distance. Distances the setup does not list keep their
// current flag.
func Enrich(ds *model.DataSet, s *Setup) error {
	tauFactor := s.TauFactor
	polynomialCount := s.PolynomialCount
	ds.TauFactor = &tauFactor
	ds.PolynomialCount = &polynomialCount

	for _, dpSetup := range s.DatapointSetups {
		dp, err := ds.Datapoints.ByDistance(dpSetup.Distance)
		if err != nil {
			return fmt.Errorf("enrich %s: %w", ds.Label, err)
		}
		dp.Active = dpSetup.Active
	}
	return nil
}
