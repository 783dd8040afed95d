package model

import (
	"fmt"
	"math"
)

// ValueErrorPair is a measured quantity together with its uncertainty.
type ValueErrorPair struct {
	Value float64 `json:"value"`
	Error float64 `json:"error"`
}

// Pair is shorthand for constructing a ValueErrorPair.
func Pair(value, err float64) ValueErrorPair {
	return ValueErrorPair{Value: value, Error: err}
}

// String formats the pair as "value ± error".
func (p ValueErrorPair) String() string {
	return fmt.Sprintf("%g ± %g", p.Value, p.Error)
}

// RelativeVelocity is the recoil velocity as a fraction of the speed of light.
// The zero value is invalid; use NewRelativeVelocity.
type RelativeVelocity struct {
	velocity float64
}

// NewRelativeVelocity validates that v is strictly between 0 and 1.
func NewRelativeVelocity(v float64) (RelativeVelocity, error) {
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return RelativeVelocity{}, fmt.Errorf("velocity %g: %w", v, ErrInvalidVelocity)
	}
	return RelativeVelocity{velocity: v}, nil
}

// Velocity returns the velocity as a fraction of c.
func (r RelativeVelocity) Velocity() float64 {
	return r.velocity
}

// Datapoint holds everything measured at one target-to-stopper distance.
//
// Distance is the identifying key and is always present. All other channels
// are optional and nil when the source format did not provide them.
type Datapoint struct {
	Distance                  ValueErrorPair
	Calibration               *ValueErrorPair
	ShiftedIntensity          *ValueErrorPair
	UnshiftedIntensity        *ValueErrorPair
	FeedingShiftedIntensity   *ValueErrorPair
	FeedingUnshiftedIntensity *ValueErrorPair

	// Active marks whether the datapoint participates in fitting.
	Active bool

	// Tau is the per-distance lifetime, filled in after a fit.
	Tau *ValueErrorPair
}

// NewDatapoint creates an active datapoint at the given distance.
func NewDatapoint(distance ValueErrorPair) *Datapoint {
	return &Datapoint{Distance: distance, Active: true}
}

// HasIntensities reports whether both the shifted and unshifted channels are set.
func (d *Datapoint) HasIntensities() bool {
	return d.ShiftedIntensity != nil && d.UnshiftedIntensity != nil
}

// HasFeeding reports whether both feeding channels are set.
func (d *Datapoint) HasFeeding() bool {
	return d.FeedingShiftedIntensity != nil && d.FeedingUnshiftedIntensity != nil
}

// Polynomial is a fitted polynomial P(t) = Σ a_k t^k.
type Polynomial struct {
	coefficients []float64
	degree       int
}

// NewPolynomial checks that len(coefficients) == degree+1 and copies the slice.
func NewPolynomial(coefficients []float64, degree int) (Polynomial, error) {
	if degree < 0 || len(coefficients) != degree+1 {
		return Polynomial{}, fmt.Errorf("degree %d with %d coefficients: %w",
			degree, len(coefficients), ErrDegreeMismatch)
	}
	c := make([]float64, len(coefficients))
	copy(c, coefficients)
	return Polynomial{coefficients: c, degree: degree}, nil
}

// Coefficients returns a copy of the coefficients [a_0, ..., a_n].
func (p Polynomial) Coefficients() []float64 {
	c := make([]float64, len(p.coefficients))
	copy(c, p.coefficients)
	return c
}

// Degree returns n for coefficients [a_0, ..., a_n].
func (p Polynomial) Degree() int {
	return p.degree
}

// DataSet is the entirety of the data collected from one observation, plus
// whatever fit results have been attached to it.
type DataSet struct {
	// Label identifies the dataset (usually the directory or file it came from).
	Label string

	RelativeVelocity      RelativeVelocity
	RelativeVelocityError float64
	Datapoints            *DatapointCollection

	// TauFactor is a previously stored or externally fixed t_hyp.
	TauFactor *float64

	// PolynomialCount is the polynomial degree requested by a setup file.
	PolynomialCount *int

	WeightedMeanTau *ValueErrorPair
	SamplingPoints  []float64
	Polynomials     []Polynomial
}

// NewDataSet creates a dataset with an empty datapoint collection when
// datapoints is nil.
func NewDataSet(label string, velocity RelativeVelocity, velocityError float64, datapoints *DatapointCollection) *DataSet {
	if datapoints == nil {
		datapoints = NewDatapointCollection()
	}
	return &DataSet{
		Label:                 label,
		RelativeVelocity:      velocity,
		RelativeVelocityError: velocityError,
		Datapoints:            datapoints,
	}
}
