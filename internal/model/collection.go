package model

import (
	"fmt"
	"math"
	"sort"
)

// DatapointCollection stores datapoints keyed by distance.
// Not safe for concurrent mutation.
type DatapointCollection struct {
	elements map[float64]*Datapoint
}

// NewDatapointCollection builds a collection; later datapoints replace
// earlier ones with the same distance. Datapoints with a non-finite distance
// are rejected by Add and silently dropped here, so prefer Add when the input
// is untrusted.
func NewDatapointCollection(datapoints ...*Datapoint) *DatapointCollection {
	c := &DatapointCollection{elements: make(map[float64]*Datapoint, len(datapoints))}
	for _, dp := range datapoints {
		_ = c.Add(dp)
	}
	return c
}

// Add inserts or replaces the datapoint at dp.Distance.Value.
func (c *DatapointCollection) Add(dp *Datapoint) error {
	d := dp.Distance.Value
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return fmt.Errorf("add datapoint at %g: %w", d, ErrInvalidDistance)
	}
	c.elements[d] = dp
	return nil
}

// Len returns the number of datapoints.
func (c *DatapointCollection) Len() int {
	return len(c.elements)
}

// All returns the datapoints sorted by ascending distance.
func (c *DatapointCollection) All() []*Datapoint {
	out := make([]*Datapoint, 0, len(c.elements))
	for _, dp := range c.elements {
		out = append(out, dp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Distance.Value < out[j].Distance.Value
	})
	return out
}

// ByDistance returns the datapoint at distance or ErrDatapointNotFound.
func (c *DatapointCollection) ByDistance(distance float64) (*Datapoint, error) {
	dp, ok := c.elements[distance]
	if !ok {
		return nil, fmt.Errorf("distance %g: %w", distance, ErrDatapointNotFound)
	}
	return dp, nil
}

// Filter returns a new collection sharing the datapoints that satisfy keep.
func (c *DatapointCollection) Filter(keep func(*Datapoint) bool) *DatapointCollection {
	out := NewDatapointCollection()
	for d, dp := range c.elements {
		if keep(dp) {
			out.elements[d] = dp
		}
	}
	return out
}

// Active returns the datapoints flagged as active.
func (c *DatapointCollection) Active() *DatapointCollection {
	return c.Filter(func(dp *Datapoint) bool { return dp.Active })
}

// Distances returns the distance of every datapoint in distance order.
func (c *DatapointCollection) Distances() []ValueErrorPair {
	all := c.All()
	out := make([]ValueErrorPair, len(all))
	for i, dp := range all {
		out[i] = dp.Distance
	}
	return out
}

// Calibrations returns the calibrations of datapoints that have one.
func (c *DatapointCollection) Calibrations() []ValueErrorPair {
	return c.channel(func(dp *Datapoint) *ValueErrorPair { return dp.Calibration })
}

// ShiftedIntensities returns the shifted intensities of datapoints that have one.
func (c *DatapointCollection) ShiftedIntensities() []ValueErrorPair {
	return c.channel(func(dp *Datapoint) *ValueErrorPair { return dp.ShiftedIntensity })
}

// UnshiftedIntensities returns the unshifted intensities of datapoints that have one.
func (c *DatapointCollection) UnshiftedIntensities() []ValueErrorPair {
	return c.channel(func(dp *Datapoint) *ValueErrorPair { return dp.UnshiftedIntensity })
}

// FeedingShiftedIntensities returns the feeding shifted intensities that are set.
func (c *DatapointCollection) FeedingShiftedIntensities() []ValueErrorPair {
	return c.channel(func(dp *Datapoint) *ValueErrorPair { return dp.FeedingShiftedIntensity })
}

// FeedingUnshiftedIntensities returns the feeding unshifted intensities that are set.
func (c *DatapointCollection) FeedingUnshiftedIntensities() []ValueErrorPair {
	return c.channel(func(dp *Datapoint) *ValueErrorPair { return dp.FeedingUnshiftedIntensity })
}

// Taus returns the per-distance lifetimes that have been computed.
func (c *DatapointCollection) Taus() []ValueErrorPair {
	return c.channel(func(dp *Datapoint) *ValueErrorPair { return dp.Tau })
}

func (c *DatapointCollection) channel(get func(*Datapoint) *ValueErrorPair) []ValueErrorPair {
	var out []ValueErrorPair
	for _, dp := range c.All() {
		if p := get(dp); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Values extracts the values of pairs.
func Values(pairs []ValueErrorPair) []float64 {
	out := make([]float64, len(pairs))
	for i, p := range pairs {
		out[i] = p.Value
	}
	return out
}

// Errors extracts the errors of pairs.
func Errors(pairs []ValueErrorPair) []float64 {
	out := make([]float64, len(pairs))
	for i, p := range pairs {
		out[i] = p.Error
	}
	return out
}
