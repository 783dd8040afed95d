package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/napytau/internal/model"
)

// DomainDataset prefixes dataset content hashes.
const DomainDataset = "napytau/dataset/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeLabel returns the NFC form of a dataset label, so that visually
// identical labels compare equal.
func NormalizeLabel(label string) string {
	return norm.NFC.String(label)
}

type hashedPoint struct {
	Distance         model.ValueErrorPair  `json:"distance"`
	Calibration      *model.ValueErrorPair `json:"calibration,omitempty"`
	Shifted          *model.ValueErrorPair `json:"shifted,omitempty"`
	Unshifted        *model.ValueErrorPair `json:"unshifted,omitempty"`
	FeedingShifted   *model.ValueErrorPair `json:"feeding_shifted,omitempty"`
	FeedingUnshifted *model.ValueErrorPair `json:"feeding_unshifted,omitempty"`
	Active           bool                  `json:"active"`
}

type hashedDataset struct {
	Velocity      float64       `json:"velocity"`
	VelocityError float64       `json:"velocity_error"`
	Points        []hashedPoint `json:"points"`
}

// DatasetHash identifies the measurements of ds: velocity, every datapoint
// in distance order with all its channels and its active flag. Labels and fit results are not part
// of the hash.
func DatasetHash(ds *model.DataSet) (string, error) {
	h := hashedDataset{
		Velocity:      ds.RelativeVelocity.Velocity(),
		VelocityError: ds.RelativeVelocityError,
		Points:        []hashedPoint{},
	}
	for _, dp := range ds.Datapoints.All() {
		h.Points = append(h.Points, hashedPoint{
			Distance:         dp.Distance,
			Calibration:      dp.Calibration,
			Shifted:          dp.ShiftedIntensity,
			Unshifted:        dp.UnshiftedIntensity,
			FeedingShifted:   dp.FeedingShiftedIntensity,
			FeedingUnshifted: dp.FeedingUnshiftedIntensity,
			Active:           dp.Active,
		})
	}
	data, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("hash dataset %s: %w", ds.Label, err)
	}
	return hashWithDomain(DomainDataset, data), nil
}
