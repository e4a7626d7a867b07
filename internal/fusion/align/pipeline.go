package align

import (
	"fmt"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// Aligner runs temporal then spatial alignment with a fixed Config.
type Aligner struct {
	cfg Config
}

// NewAligner validates cfg and returns an Aligner.
func NewAligner(cfg Config) (*Aligner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid alignment config: %w", err)
	}
	return &Aligner{cfg: cfg}, nil
}

// Config returns the aligner's configuration.
func (a *Aligner) Config() Config { return a.cfg }

// Result is the outcome of a full alignment run.
type Result struct {
	// Outcome is OutcomeAligned only when both stages aligned; otherwise it
	// is the outcome of the first stage that did not.
	Outcome  Outcome
	Temporal TemporalResult
	// Spatial is nil when temporal alignment did not succeed.
	Spatial *SpatialResult
	// Corrected is the time-shifted and transformed ground truth when both
	// stages aligned, the time-shifted ground truth when only the temporal
	// stage did, and nil otherwise.
	Corrected []fusion.GroundTruthSample
}

// Lag returns the estimated lag, or 0 when temporal alignment failed.
func (r *Result) Lag() fusion.TimeLag {
	if !r.Temporal.Outcome.OK() {
		return 0
	}
	return r.Temporal.Lag
}

// Transform returns the fitted transform, or the identity when spatial
// alignment failed or did not run.
func (r *Result) Transform() fusion.RigidTransform {
	if r.Spatial == nil || !r.Spatial.Outcome.OK() {
		return fusion.IdentityTransform()
	}
	return r.Spatial.Transform
}

// Run aligns truth to dets. Inputs are never modified. Malformed input is
// an error; data that cannot support alignment is reported through
// Result.Outcome.
func (a *Aligner) Run(dets []fusion.Detection, truth []fusion.GroundTruthSample) (*Result, error) {
	if err := fusion.ValidateDetections(dets); err != nil {
		return nil, err
	}
	if err := fusion.ValidateGroundTruth(truth); err != nil {
		return nil, err
	}

	gater := NewCandidateGater(dets, a.cfg.Window, a.cfg.RangeTolerance)
	res := &Result{Temporal: EstimateLag(gater, truth, a.cfg.Policy)}
	if !res.Temporal.Outcome.OK() {
		res.Outcome = res.Temporal.Outcome
		fusion.Opsf("alignment stopped at temporal stage: %s (%s)", res.Outcome, res.Temporal.Reason)
		return res, nil
	}

	shifted := res.Temporal.Lag.ApplyTo(truth)
	spatial := AlignSpatial(gater, shifted, a.cfg.Mode)
	res.Spatial = &spatial
	res.Outcome = spatial.Outcome
	if !spatial.Outcome.OK() {
		res.Corrected = shifted
		fusion.Opsf("spatial alignment not possible: %s (%s); ground truth is time-corrected only",
			spatial.Outcome, spatial.Reason)
		return res, nil
	}

	res.Corrected = spatial.Transform.ApplyToSamples(shifted)
	if !spatial.Quality.IsUsableForScoring() {
		fusion.Opsf("spatial fit quality is %s", spatial.Quality)
	}
	return res, nil
}

// Report is the serialisable summary of a Result.
type Report struct {
	Outcome           Outcome    `json:"outcome"`
	TemporalOutcome   Outcome    `json:"temporal_outcome"`
	TemporalReason    string     `json:"temporal_reason,omitempty"`
	Lag               int64      `json:"lag_cycles"`
	Correlation       float64    `json:"correlation"`
	Confidence        float64    `json:"confidence"`
	TruthSamples      int        `json:"truth_samples"`
	RadarSamples      int        `json:"radar_samples"`
	SpatialOutcome    Outcome    `json:"spatial_outcome,omitempty"`
	SpatialReason     string     `json:"spatial_reason,omitempty"`
	FitMode           FitMode    `json:"fit_mode,omitempty"`
	Rotation          [4]float64 `json:"rotation"` // row-major R
	Translation       [2]float64 `json:"translation"`
	RotationRadians   float64    `json:"rotation_radians"`
	Pairs             int        `json:"pairs"`
	Cycles            int        `json:"cycles"`
	RMSE              float64    `json:"rmse"`
	Quality           FitQuality `json:"quality"`
	CorrectedSamples  int        `json:"corrected_samples"`
	SpatiallyAdjusted bool       `json:"spatially_adjusted"`
}

// Report flattens r for logging and persistence.
func (r *Result) Report() Report {
	rt := r.Transform()
	rep := Report{
		Outcome:          r.Outcome,
		TemporalOutcome:  r.Temporal.Outcome,
		TemporalReason:   r.Temporal.Reason,
		Lag:              int64(r.Lag()),
		Correlation:      r.Temporal.Correlation,
		Confidence:       r.Temporal.Confidence,
		TruthSamples:     r.Temporal.TruthSamples,
		RadarSamples:     r.Temporal.RadarSamples,
		Rotation:         [4]float64{rt.R[0][0], rt.R[0][1], rt.R[1][0], rt.R[1][1]},
		Translation:      rt.T,
		RotationRadians:  rt.Angle(),
		Quality:          FitQualityUnknown,
		CorrectedSamples: len(r.Corrected),
	}
	if s := r.Spatial; s != nil {
		rep.SpatialOutcome = s.Outcome
		rep.SpatialReason = s.Reason
		rep.FitMode = s.Mode
		rep.Pairs = s.Pairs
		rep.Cycles = s.Cycles
		rep.Quality = s.Quality
		rep.SpatiallyAdjusted = s.Outcome.OK()
		if s.Outcome.OK() {
			rep.RMSE = s.RMSE
		}
	}
	return rep
}
