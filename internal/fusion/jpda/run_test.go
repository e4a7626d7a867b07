package jpda

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// syntheticRun builds a straight-line target with one true detection and a
// couple of clutter returns per cycle. Rows are deliberately not sorted by
// cycle.
func syntheticRun(cycles int) ([]fusion.Detection, []fusion.GroundTruthSample) {
	var dets []fusion.Detection
	var truth []fusion.GroundTruthSample
	for c := cycles - 1; c >= 0; c-- {
		gt := fusion.GroundTruthSample{CycleID: int64(c), X: 20 + float64(c), Y: 5, VX: 1, VY: 0}
		truth = append(truth, gt)
		r := gt.Range()
		az := math.Atan2(gt.Y, gt.X)
		vr := (gt.X*gt.VX + gt.Y*gt.VY) / r
		dets = append(dets,
			fusion.Detection{CycleID: int64(c), Range: r + 0.1, Azimuth: az - 0.01, RadialVelocity: vr + 0.05, SNR: 20},
			fusion.Detection{CycleID: int64(c), Range: r + 30, Azimuth: az + 0.5, RadialVelocity: -4, SNR: 5},
			fusion.Detection{CycleID: int64(c), Range: 2, Azimuth: -1, RadialVelocity: 0, SNR: 3},
		)
	}
	return dets, truth
}

func TestScoreRun(t *testing.T) {
	s := newTestScorer(t, DefaultConfig())
	dets, truth := syntheticRun(20)

	run, err := s.ScoreRun(dets, truth)
	require.NoError(t, err)
	require.Len(t, run.Results, len(dets))

	for i, r := range run.Results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, dets[i].CycleID, r.CycleID)
		assert.True(t, r.Scored)
		// Every third row is the true return.
		if i%3 == 0 {
			assert.True(t, r.Confirmed, "row %d should be confirmed (p=%v)", i, r.Probability)
		} else {
			assert.False(t, r.Confirmed, "row %d is clutter (p=%v)", i, r.Probability)
			assert.Equal(t, 0.0, r.Probability)
		}
	}

	assert.Equal(t, 20, run.Summary.CyclesScored)
	assert.Equal(t, 60, run.Summary.DetectionsScored)
	assert.Equal(t, 20, run.Summary.DetectionsConfirmed)
	for i := 1; i < len(run.Cycles); i++ {
		assert.Less(t, run.Cycles[i-1].CycleID, run.Cycles[i].CycleID)
	}
}

func TestScoreRun_MissingReferenceCycles(t *testing.T) {
	s := newTestScorer(t, DefaultConfig())
	dets := []fusion.Detection{
		{CycleID: 10, Range: 50.2, Azimuth: 0.1, RadialVelocity: 2.0},
		{CycleID: 11, Range: 50.4, Azimuth: 0.1, RadialVelocity: 2.0}, // no ground truth
	}
	truth := []fusion.GroundTruthSample{
		gt50,
		{CycleID: 12, X: 52, VX: 2}, // no detections
	}

	run, err := s.ScoreRun(dets, truth)
	require.NoError(t, err)

	assert.True(t, run.Results[0].Confirmed)
	assert.False(t, run.Results[1].Scored)
	assert.False(t, run.Results[1].Confirmed)

	require.Len(t, run.Cycles, 3)
	assert.Equal(t, CycleScored, run.Cycles[0].Status)
	assert.Equal(t, CycleNoGroundTruth, run.Cycles[1].Status)
	assert.Equal(t, CycleNoCandidates, run.Cycles[2].Status)
	assert.Empty(t, run.Cycles[2].Results)
	assert.Equal(t, Summary{
		CyclesScored:        1,
		CyclesNoCandidates:  1,
		CyclesNoGroundTruth: 1,
		DetectionsScored:    1,
		DetectionsConfirmed: 1,
	}, run.Summary)
}

func TestScoreRun_MalformedInputFailsFast(t *testing.T) {
	s := newTestScorer(t, DefaultConfig())

	_, err := s.ScoreRun([]fusion.Detection{{CycleID: 1, Range: -3}}, []fusion.GroundTruthSample{gt50})
	assert.True(t, errors.Is(err, fusion.ErrMalformedInput), "got %v", err)

	_, err = s.ScoreRun(nil, []fusion.GroundTruthSample{gt50, gt50})
	assert.True(t, errors.Is(err, fusion.ErrMalformedInput), "got %v", err)
}

func TestScoreRun_EmptyInputs(t *testing.T) {
	s := newTestScorer(t, DefaultConfig())
	run, err := s.ScoreRun(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, run.Results)
	assert.Empty(t, run.Cycles)
}

// TestScoreRun_IdempotentAndWorkerIndependent checks that repeated runs and
// concurrent scoring produce bit-identical output.
func TestScoreRun_IdempotentAndWorkerIndependent(t *testing.T) {
	dets, truth := syntheticRun(50)

	seq := newTestScorer(t, DefaultConfig())
	first, err := seq.ScoreRun(dets, truth)
	require.NoError(t, err)
	second, err := seq.ScoreRun(dets, truth)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ScoreRun not idempotent (-first +second):\n%s", diff)
	}

	cfg := DefaultConfig()
	cfg.Workers = 8
	par := newTestScorer(t, cfg)
	parallel, err := par.ScoreRun(dets, truth)
	require.NoError(t, err)
	if diff := cmp.Diff(first, parallel); diff != "" {
		t.Errorf("parallel run differs from sequential (-seq +par):\n%s", diff)
	}
}
