// Package tables reads and writes the detection, ground-truth and
// association tables as CSV. Columns are matched by header name, case
// insensitively; unknown columns are ignored.
package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// Column names of the tabular contracts.
const (
	ColCycleID        = "cycle_id"
	ColRange          = "range"
	ColAzimuth        = "azimuth"
	ColRadialVelocity = "radial_velocity"
	ColSNR            = "snr"
	ColCategory       = "category"

	ColX  = "x"
	ColY  = "y"
	ColVX = "vx"
	ColVY = "vy"

	ColConfirmed   = "confirmed"
	ColProbability = "association_probability"
	ColDistance    = "mahalanobis_distance"
	ColLikelihood  = "likelihood"
	ColScored      = "scored"
)

// DetectionColumns are the required detection columns, in output order.
var DetectionColumns = []string{ColCycleID, ColRange, ColAzimuth, ColRadialVelocity, ColSNR}

// GroundTruthColumns are the required ground-truth columns, in output order.
var GroundTruthColumns = []string{ColCycleID, ColX, ColY, ColVX, ColVY}

// header maps lower-cased column names to record indices.
type header map[string]int

func readHeader(r *csv.Reader, table string, required []string) (header, error) {
	rec, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s table is empty, expected header %s",
			fusion.ErrMalformedInput, table, strings.Join(required, ","))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s header: %v", fusion.ErrMalformedInput, table, err)
	}
	h := make(header, len(rec))
	for i, name := range rec {
		key := strings.ToLower(strings.TrimSpace(name))
		if i == 0 {
			key = strings.TrimPrefix(key, "\ufeff")
		}
		if _, dup := h[key]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q in %s header", fusion.ErrMalformedInput, key, table)
		}
		h[key] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("%w: %s table is missing required column %q", fusion.ErrMalformedInput, table, col)
		}
	}
	return h, nil
}

// has reports whether the optional column is present.
func (h header) has(col string) bool {
	_, ok := h[col]
	return ok
}

// rowParser extracts typed fields from one record, remembering the first
// failure so callers can check once per row.
type rowParser struct {
	h    header
	rec  []string
	line int
	err  error
}

func (p *rowParser) field(col string) string {
	i := p.h[col]
	if i >= len(p.rec) {
		return ""
	}
	return strings.TrimSpace(p.rec[i])
}

func (p *rowParser) float(col string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.field(col), 64)
	if err != nil {
		p.err = fmt.Errorf("%w: invalid %s at line %d: %v", fusion.ErrMalformedInput, col, p.line, err)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		p.err = fmt.Errorf("%w: non-finite %s at line %d", fusion.ErrMalformedInput, col, p.line)
		return 0
	}
	return v
}

func (p *rowParser) int64(col string) int64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(p.field(col), 10, 64)
	if err != nil {
		p.err = fmt.Errorf("%w: invalid %s at line %d: %v", fusion.ErrMalformedInput, col, p.line, err)
		return 0
	}
	return v
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // short rows are reported per column
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true
	return cr
}

// readRows reads every data row after the header and hands it to fn with its
// line number in the source.
func readRows(cr *csv.Reader, h header, table string, fn func(p *rowParser) error) error {
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: failed to read %s table: %v", fusion.ErrMalformedInput, table, err)
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		line, _ := cr.FieldPos(0)
		if err := fn(&rowParser{h: h, rec: rec, line: line}); err != nil {
			return err
		}
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
