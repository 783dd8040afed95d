package core

import (
	"fmt"

	"github.com/roach88/napytau/internal/model"
)

// Measurements holds the parallel vectors a fit runs on, ordered by distance.
type Measurements struct {
	Times           []float64
	Shifted         []float64
	ShiftedErrors   []float64
	Unshifted       []float64
	UnshiftedErrors []float64
}

// Len returns the number of distances.
func (m Measurements) Len() int {
	return len(m.Times)
}

// Validate checks that all vectors have the same length.
func (m Measurements) Validate() error {
	n := len(m.Times)
	vectors := []struct {
		name   string
		values []float64
	}{
		{"shifted", m.Shifted},
		{"shifted errors", m.ShiftedErrors},
		{"unshifted", m.Unshifted},
		{"unshifted errors", m.UnshiftedErrors},
	}
	for _, v := range vectors {
		if len(v.values) != n {
			return fmt.Errorf("%s has %d values, times has %d: %w", v.name, len(v.values), n, ErrLengthMismatch)
		}
	}
	return nil
}

// MeasurementsFromDataSet collects the active datapoints of ds, sorted by
// distance, and converts their distances to times. The returned datapoints
// are parallel to the measurement vectors.
func MeasurementsFromDataSet(ds *model.DataSet) (Measurements, []*model.Datapoint, error) {
	active := ds.Datapoints.Active().All()
	if len(active) == 0 {
		return Measurements{}, nil, ErrNoDatapoints
	}

	n := len(active)
	m := Measurements{
		Shifted:         make([]float64, n),
		ShiftedErrors:   make([]float64, n),
		Unshifted:       make([]float64, n),
		UnshiftedErrors: make([]float64, n),
	}
	distances := make([]float64, n)
	for i, dp := range active {
		if !dp.HasIntensities() {
			return Measurements{}, nil, fmt.Errorf("distance %g: %w", dp.Distance.Value, ErrIncompleteDatapoint)
		}
		distances[i] = dp.Distance.Value
		m.Shifted[i] = dp.ShiftedIntensity.Value
		m.ShiftedErrors[i] = dp.ShiftedIntensity.Error
		m.Unshifted[i] = dp.UnshiftedIntensity.Value
		m.UnshiftedErrors[i] = dp.UnshiftedIntensity.Error
	}
	m.Times = TimesFromDistances(distances, ds.RelativeVelocity)
	return m, active, nil
}
