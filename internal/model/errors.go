package model

import "errors"

var (
	// ErrInvalidVelocity is returned when a relative velocity is not strictly
	// between 0 and 1 (as a fraction of the speed of light).
	ErrInvalidVelocity = errors.New("model: relative velocity must be in (0, 1)")

	// ErrDegreeMismatch is returned when a polynomial's coefficient count does
	// not equal degree+1.
	ErrDegreeMismatch = errors.New("model: number of coefficients must match polynomial degree")

	// ErrDatapointNotFound is returned when no datapoint exists at a distance.
	ErrDatapointNotFound = errors.New("model: datapoint not found")

	// ErrInvalidDistance is returned for NaN or infinite distances.
	ErrInvalidDistance = errors.New("model: distance must be finite")
)
