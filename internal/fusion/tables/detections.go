package tables

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// ReadDetections parses a detections table. Azimuth is wrapped into
// (−π, π]. The optional category column fills Detection.Category. The
// rows are validated before they are returned.
func ReadDetections(r io.Reader) ([]fusion.Detection, error) {
	cr := newReader(r)
	h, err := readHeader(cr, "detections", DetectionColumns)
	if err != nil {
		return nil, err
	}
	withCategory := h.has(ColCategory)

	var dets []fusion.Detection
	err = readRows(cr, h, "detections", func(p *rowParser) error {
		d := fusion.Detection{
			CycleID:        p.int64(ColCycleID),
			Range:          p.float(ColRange),
			Azimuth:        fusion.WrapAngle(p.float(ColAzimuth)),
			RadialVelocity: p.float(ColRadialVelocity),
			SNR:            p.float(ColSNR),
		}
		if p.err != nil {
			return p.err
		}
		if withCategory {
			d.Category = p.field(ColCategory)
		}
		dets = append(dets, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := fusion.ValidateDetections(dets); err != nil {
		return nil, err
	}
	return dets, nil
}

// WriteDetections writes dets with the contract columns, plus category when
// any detection carries one.
func WriteDetections(w io.Writer, dets []fusion.Detection) error {
	withCategory := hasCategory(dets)
	hdr := append([]string(nil), DetectionColumns...)
	if withCategory {
		hdr = append(hdr, ColCategory)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(hdr); err != nil {
		return fmt.Errorf("failed to write detections header: %w", err)
	}
	for _, d := range dets {
		row := detectionRow(d)
		if withCategory {
			row = append(row, d.Category)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write detection row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAnnotatedDetections writes the detections table augmented with the
// association outcome of each row. results must be indexed by row, as
// returned by the JPDA scorer.
func WriteAnnotatedDetections(w io.Writer, dets []fusion.Detection, results []fusion.AssociationResult) error {
	if len(results) != len(dets) {
		return fmt.Errorf("have %d association results for %d detections", len(results), len(dets))
	}
	withCategory := hasCategory(dets)
	hdr := append([]string(nil), DetectionColumns...)
	if withCategory {
		hdr = append(hdr, ColCategory)
	}
	hdr = append(hdr, ColConfirmed, ColProbability, ColDistance, ColLikelihood, ColScored)

	cw := csv.NewWriter(w)
	if err := cw.Write(hdr); err != nil {
		return fmt.Errorf("failed to write annotated detections header: %w", err)
	}
	for i, d := range dets {
		res := results[i]
		if res.Index != i {
			return fmt.Errorf("association result %d refers to row %d", i, res.Index)
		}
		row := detectionRow(d)
		if withCategory {
			row = append(row, d.Category)
		}
		row = append(row,
			formatBool(res.Confirmed),
			formatFloat(res.Probability),
			formatFloat(res.Distance),
			formatFloat(res.Likelihood),
			formatBool(res.Scored),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write annotated detection row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func detectionRow(d fusion.Detection) []string {
	return []string{
		formatInt(d.CycleID),
		formatFloat(d.Range),
		formatFloat(d.Azimuth),
		formatFloat(d.RadialVelocity),
		formatFloat(d.SNR),
	}
}

func hasCategory(dets []fusion.Detection) bool {
	for _, d := range dets {
		if d.Category != "" {
			return true
		}
	}
	return false
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
