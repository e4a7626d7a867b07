package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

func rows(cands []Candidate) []int {
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.Row
	}
	return out
}

func TestCandidateGater_TemporalWindow(t *testing.T) {
	dets := []fusion.Detection{
		{CycleID: 7, Range: 10},
		{CycleID: 5, Range: 10},
		{CycleID: 3, Range: 10},
		{CycleID: 5, Range: 11},
		{CycleID: 2, Range: 10},
		{CycleID: 8, Range: 10},
	}

	tests := []struct {
		name   string
		window int64
		cycle  int64
		want   []int
	}{
		{name: "zero window is same cycle only", window: 0, cycle: 5, want: []int{1, 3}},
		{name: "bounds are inclusive", window: 2, cycle: 5, want: []int{2, 1, 3, 0}},
		{name: "window past the data", window: 100, cycle: 5, want: []int{4, 2, 1, 3, 0, 5}},
		{name: "empty cycle", window: 0, cycle: 4, want: []int{}},
		{name: "before all data", window: 1, cycle: -10, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewCandidateGater(dets, tt.window, 5)
			got := g.Temporal(tt.cycle)
			assert.Equal(t, tt.want, rows(got))
			for _, c := range got {
				assert.Equal(t, dets[c.Row], c.Detection, "gate must be a subset of the input")
			}
		})
	}
}

func TestCandidateGater_RangeTolerance(t *testing.T) {
	dets := []fusion.Detection{
		{CycleID: 0, Range: 15},   // exactly at tolerance
		{CycleID: 0, Range: 15.5}, // outside
		{CycleID: 1, Range: 5},    // exactly at tolerance, below
		{CycleID: 1, Range: 10},
		{CycleID: 9, Range: 10}, // outside window
	}
	g := NewCandidateGater(dets, 1, 5)

	got := g.Candidates(fusion.GroundTruthSample{CycleID: 0, X: 10})
	assert.Equal(t, []int{0, 2, 3}, rows(got))

	none := g.Candidates(fusion.GroundTruthSample{CycleID: 0, X: 100})
	assert.Empty(t, none)
}

func TestCandidateGater_DoesNotMutateInput(t *testing.T) {
	dets := []fusion.Detection{{CycleID: 3}, {CycleID: 1}, {CycleID: 2}}
	before := append([]fusion.Detection(nil), dets...)

	g := NewCandidateGater(dets, 5, 5)
	got := g.Temporal(2)
	require.Len(t, got, 3)

	// Appending to a gate must not write into the gater's index.
	_ = append(got, Candidate{Row: 99})
	assert.Equal(t, before, dets)
	assert.Equal(t, []int{1, 2, 0}, rows(g.Temporal(2)))
}
