package fusion

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrMalformedInput marks input tables that cannot be processed at all.
// It is the only error class that halts a run; data-sufficiency problems
// are reported as outcomes instead.
var ErrMalformedInput = errors.New("malformed input")

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidateDetections checks every detection row before any computation.
func ValidateDetections(dets []Detection) error {
	for i, d := range dets {
		switch {
		case !finite(d.Range):
			return malformed("detection row %d (cycle %d): range is not finite", i, d.CycleID)
		case d.Range < 0:
			return malformed("detection row %d (cycle %d): negative range %g", i, d.CycleID, d.Range)
		case !finite(d.Azimuth):
			return malformed("detection row %d (cycle %d): azimuth is not finite", i, d.CycleID)
		case !finite(d.RadialVelocity):
			return malformed("detection row %d (cycle %d): radial velocity is not finite", i, d.CycleID)
		case !finite(d.SNR):
			return malformed("detection row %d (cycle %d): snr is not finite", i, d.CycleID)
		}
	}
	return nil
}

// ValidateGroundTruth checks every ground-truth row and rejects duplicate
// cycles; a reference track has at most one sample per cycle.
func ValidateGroundTruth(samples []GroundTruthSample) error {
	seen := make(map[int64]int, len(samples))
	for i, s := range samples {
		if !finite(s.X) || !finite(s.Y) || !finite(s.VX) || !finite(s.VY) {
			return malformed("ground truth row %d (cycle %d): non-finite state", i, s.CycleID)
		}
		if prev, ok := seen[s.CycleID]; ok {
			return malformed("ground truth rows %d and %d share cycle %d", prev, i, s.CycleID)
		}
		seen[s.CycleID] = i
	}
	return nil
}

// CycleOrder returns detection row indices ordered by cycle id. Rows with the
// same cycle keep their input order.
func CycleOrder(dets []Detection) []int {
	order := make([]int, len(dets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dets[order[a]].CycleID < dets[order[b]].CycleID
	})
	return order
}

// SortedGroundTruth returns a copy of samples ordered by cycle id.
func SortedGroundTruth(samples []GroundTruthSample) []GroundTruthSample {
	out := append([]GroundTruthSample(nil), samples...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].CycleID < out[b].CycleID })
	return out
}
