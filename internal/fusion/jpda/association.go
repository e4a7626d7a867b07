package jpda

import (
	"fmt"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// CycleStatus describes how a cycle was handled.
type CycleStatus string

const (
	CycleScored        CycleStatus = "scored"          // ground truth present, at least one track-relevant detection
	CycleNoCandidates  CycleStatus = "no_candidates"   // ground truth present, nothing to score
	CycleNoGroundTruth CycleStatus = "no_ground_truth" // detections present, cycle skipped
)

// CycleResult holds the association outcome for one cycle. Results are in
// the order of the detections passed in; Index is the position in that slice.
type CycleResult struct {
	CycleID int64
	Status  CycleStatus
	Pseudo  bool // innovation covariance was singular
	Results []fusion.AssociationResult
}

// Scorer applies the JPDA gating and scoring rule with a fixed Config.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer validates cfg and returns a Scorer.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid jpda config: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the scorer configuration.
func (s *Scorer) Config() Config { return s.cfg }

// Probabilities normalises likelihoods against the clutter density:
// p_i = L_i / (Σ_j L_j + λ). A zero denominator yields zeros, never NaN.
func Probabilities(likelihoods []float64, clutter float64) []float64 {
	sum := clutter
	for _, l := range likelihoods {
		sum += l
	}
	probs := make([]float64, len(likelihoods))
	if sum <= 0 {
		return probs
	}
	for i, l := range likelihoods {
		probs[i] = l / sum
	}
	return probs
}

// ScoreCycle scores the detections of a single cycle against gt. A nil gt
// skips the cycle: every detection is returned unscored and unconfirmed.
// Detections outside the configured track category are passed through
// unscored and do not contribute to the normalisation.
func (s *Scorer) ScoreCycle(cycleID int64, gt *fusion.GroundTruthSample, dets []fusion.Detection) CycleResult {
	res := CycleResult{CycleID: cycleID, Results: make([]fusion.AssociationResult, len(dets))}
	for i := range dets {
		res.Results[i] = fusion.AssociationResult{Index: i, CycleID: cycleID}
	}

	if gt == nil {
		res.Status = CycleNoGroundTruth
		return res
	}

	relevant := make([]int, 0, len(dets))
	for i, d := range dets {
		if s.cfg.relevant(d.Category) {
			relevant = append(relevant, i)
		}
	}
	if len(relevant) == 0 {
		res.Status = CycleNoCandidates
		return res
	}

	gate := NewGate(*gt, s.cfg)
	res.Pseudo = gate.Pseudo

	likelihoods := make([]float64, len(relevant))
	for k, i := range relevant {
		dist, l := gate.Score(dets[i])
		likelihoods[k] = l
		res.Results[i].Distance = dist
		res.Results[i].Likelihood = l
	}

	probs := Probabilities(likelihoods, s.cfg.ClutterDensity)
	for k, i := range relevant {
		r := &res.Results[i]
		r.Scored = true
		r.Probability = probs[k]
		r.Confirmed = probs[k] > s.cfg.ConfirmThreshold
		fusion.Tracef("cycle %d det %d: d=%.3f L=%.4g p=%.4f confirmed=%v",
			cycleID, i, r.Distance, r.Likelihood, r.Probability, r.Confirmed)
	}
	res.Status = CycleScored
	return res
}
