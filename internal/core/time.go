package core

import (
	"gonum.org/v1/gonum/unit/constant"

	"github.com/roach88/napytau/internal/model"
)

// SpeedOfLight is c in m/s.
var SpeedOfLight = float64(constant.LightSpeedInVacuum)

// TimesFromDistances converts flight distances to flight times,
// t = d / (v·c).
func TimesFromDistances(distances []float64, velocity model.RelativeVelocity) []float64 {
	out := make([]float64, len(distances))
	speed := velocity.Velocity() * SpeedOfLight
	for i, d := range distances {
		out[i] = d / speed
	}
	return out
}
