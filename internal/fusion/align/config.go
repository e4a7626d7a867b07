package align

import (
	"fmt"

	"github.com/banshee-data/radar.fusion/internal/config"
)

// RepresentativePolicy selects the radar range used per cycle in temporal alignment.
type RepresentativePolicy string

const (
	RepresentativeMean    RepresentativePolicy = config.RepresentativeMean    // mean range of gated candidates
	RepresentativeBestSNR RepresentativePolicy = config.RepresentativeBestSNR // range of the highest-SNR candidate
)

// FitMode selects how point pairs are gathered for the rigid fit.
type FitMode string

const (
	// FitBestCandidate pairs each cycle's ground truth with its single
	// closest-in-range candidate.
	FitBestCandidate FitMode = config.FitBestCandidate
	// FitAllPoints pairs every gated candidate with its (replicated)
	// ground-truth point. Cycles with more candidates weigh more in the
	// aggregate fit; this weighting is deliberate and preserved.
	FitAllPoints FitMode = config.FitAllPoints
)

// Config holds the alignment tunables. Callers own it; nothing is cached.
type Config struct {
	Window         int64   // temporal gate half-width in cycles
	RangeTolerance float64 // spatial gate on |range − ground-truth range|
	Policy         RepresentativePolicy
	Mode           FitMode
}

// DefaultConfig returns the documented defaults without reading any file.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Window:         cfg.GetGateWindowCycles(),
		RangeTolerance: cfg.GetRangeTolerance(),
		Policy:         RepresentativePolicy(cfg.GetRepresentativeRange()),
		Mode:           FitMode(cfg.GetSpatialFitMode()),
	}
}

// Validate reports configuration values the aligner cannot use.
func (c Config) Validate() error {
	if c.Window < 0 {
		return fmt.Errorf("window must be non-negative, got %d", c.Window)
	}
	if c.RangeTolerance < 0 {
		return fmt.Errorf("range tolerance must be non-negative, got %g", c.RangeTolerance)
	}
	switch c.Policy {
	case RepresentativeMean, RepresentativeBestSNR:
	default:
		return fmt.Errorf("unknown representative range policy %q", c.Policy)
	}
	switch c.Mode {
	case FitBestCandidate, FitAllPoints:
	default:
		return fmt.Errorf("unknown spatial fit mode %q", c.Mode)
	}
	return nil
}
