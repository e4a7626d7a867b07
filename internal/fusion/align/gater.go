package align

import (
	"math"
	"sort"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// Candidate is a gated detection together with its row in the input table.
type Candidate struct {
	Row int
	fusion.Detection
}

// CandidateGater restricts, per ground-truth sample, the detections worth
// considering: a temporal window of ±Window cycles, then a range tolerance
// around the ground truth's implied range.
type CandidateGater struct {
	sorted    []Candidate // ordered by cycle id, stable within a cycle
	window    int64
	tolerance float64
}

// NewCandidateGater indexes dets by cycle. The input slice is not modified.
func NewCandidateGater(dets []fusion.Detection, window int64, tolerance float64) *CandidateGater {
	order := fusion.CycleOrder(dets)
	sorted := make([]Candidate, len(order))
	for i, row := range order {
		sorted[i] = Candidate{Row: row, Detection: dets[row]}
	}
	return &CandidateGater{sorted: sorted, window: window, tolerance: tolerance}
}

// Temporal returns the detections with cycle id in [cycle−W, cycle+W],
// located by binary search over the cycle-ordered index.
func (g *CandidateGater) Temporal(cycle int64) []Candidate {
	lo := sort.Search(len(g.sorted), func(i int) bool {
		return g.sorted[i].CycleID >= cycle-g.window
	})
	hi := sort.Search(len(g.sorted), func(i int) bool {
		return g.sorted[i].CycleID > cycle+g.window
	})
	return g.sorted[lo:hi:hi]
}

// Candidates returns the temporally gated detections whose range lies
// within the tolerance of the ground truth's implied range. An empty
// result is valid and means no alignment data for this cycle.
func (g *CandidateGater) Candidates(gt fusion.GroundTruthSample) []Candidate {
	gtRange := gt.Range()
	window := g.Temporal(gt.CycleID)
	out := make([]Candidate, 0, len(window))
	for _, c := range window {
		if math.Abs(c.Range-gtRange) <= g.tolerance {
			out = append(out, c)
		}
	}
	return out
}
