package tables

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// ReadGroundTruth parses a ground-truth table and validates it.
func ReadGroundTruth(r io.Reader) ([]fusion.GroundTruthSample, error) {
	cr := newReader(r)
	h, err := readHeader(cr, "ground truth", GroundTruthColumns)
	if err != nil {
		return nil, err
	}

	var samples []fusion.GroundTruthSample
	err = readRows(cr, h, "ground truth", func(p *rowParser) error {
		s := fusion.GroundTruthSample{
			CycleID: p.int64(ColCycleID),
			X:       p.float(ColX),
			Y:       p.float(ColY),
			VX:      p.float(ColVX),
			VY:      p.float(ColVY),
		}
		if p.err != nil {
			return p.err
		}
		samples = append(samples, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := fusion.ValidateGroundTruth(samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// WriteGroundTruth writes samples in the ground-truth contract. It is used
// for corrected ground truth as well as for round-tripping inputs.
func WriteGroundTruth(w io.Writer, samples []fusion.GroundTruthSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GroundTruthColumns); err != nil {
		return fmt.Errorf("failed to write ground truth header: %w", err)
	}
	for _, s := range samples {
		row := []string{
			formatInt(s.CycleID),
			formatFloat(s.X),
			formatFloat(s.Y),
			formatFloat(s.VX),
			formatFloat(s.VY),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write ground truth row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
