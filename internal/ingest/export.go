package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/roach88/napytau/internal/model"
)

// WriteNapytau encodes ds, including any fit results, as a napytau JSON
// document. Missing channels are written as zero. Non-finite fit results
// are written as null, and a non-finite tau factor is left out.
func WriteNapytau(w io.Writer, ds *model.DataSet) error {
	data, err := encodeNapytau(ds)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write dataset %s: %w", ds.Label, err)
	}
	return nil
}

// WriteNapytauFile writes ds to path. Nothing is written when ds cannot be
// encoded.
func WriteNapytauFile(path string, ds *model.DataSet) error {
	data, err := encodeNapytau(ds)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

func encodeNapytau(ds *model.DataSet) ([]byte, error) {
	raw := jsonDataset{
		RelativeVelocity:      ds.RelativeVelocity.Velocity(),
		RelativeVelocityError: ds.RelativeVelocityError,
		Datapoints:            []jsonDatapoint{},
		SamplingPoints:        ds.SamplingPoints,
	}
	if ds.TauFactor != nil {
		raw.TauFactor = finite(*ds.TauFactor)
	}
	if ds.WeightedMeanTau != nil {
		raw.WeightedMeanTau = &jsonPair{
			Value: finite(ds.WeightedMeanTau.Value),
			Error: finite(ds.WeightedMeanTau.Error),
		}
	}
	for _, dp := range ds.Datapoints.All() {
		p := jsonDatapoint{
			Distance:      dp.Distance.Value,
			DistanceError: dp.Distance.Error,
		}
		p.Calibration, p.CalibrationError = unpack(dp.Calibration)
		p.ShiftedIntensity, p.ShiftedIntensityError = unpack(dp.ShiftedIntensity)
		p.UnshiftedIntensity, p.UnshiftedIntensityError = unpack(dp.UnshiftedIntensity)
		if dp.HasFeeding() {
			p.FeedingShiftedIntensity = &dp.FeedingShiftedIntensity.Value
			p.FeedingShiftedIntensityError = &dp.FeedingShiftedIntensity.Error
			p.FeedingUnshiftedIntensity = &dp.FeedingUnshiftedIntensity.Value
			p.FeedingUnshiftedIntensityError = &dp.FeedingUnshiftedIntensity.Error
		}
		raw.Datapoints = append(raw.Datapoints, p)
	}
	for _, poly := range ds.Polynomials {
		p := jsonPolynomial{Coefficients: []*float64{}}
		for _, c := range poly.Coefficients() {
			p.Coefficients = append(p.Coefficients, finite(c))
		}
		raw.Polynomials = append(raw.Polynomials, p)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return nil, fmt.Errorf("encode dataset %s: %w", ds.Label, err)
	}
	return buf.Bytes(), nil
}

func unpack(p *model.ValueErrorPair) (float64, float64) {
	if p == nil {
		return 0, 0
	}
	return p.Value, p.Error
}
