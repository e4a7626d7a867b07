package jpda

import (
	"fmt"

	"github.com/banshee-data/radar.fusion/internal/config"
)

// Config holds the fixed per-run JPDA tunables.
type Config struct {
	StateCovariance  [4]float64 // diagonal of P over x, y, vx, vy
	MeasurementNoise [3]float64 // diagonal of R over range, azimuth, radial velocity
	GateDistance     float64    // Mahalanobis gate d_max; d == d_max is inside the gate
	ClutterDensity   float64    // λ
	ConfirmThreshold float64    // β; confirmed iff p > β
	TrackCategory    string     // only detections with this category are scored; "" scores all
	Workers          int        // cycles scored concurrently; results do not depend on it
}

// DefaultConfig returns the documented defaults without reading any file.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		StateCovariance:  cfg.GetStateCovariance(),
		MeasurementNoise: cfg.GetMeasurementNoise(),
		GateDistance:     cfg.GetMahalanobisGate(),
		ClutterDensity:   cfg.GetClutterDensity(),
		ConfirmThreshold: cfg.GetConfirmThreshold(),
		TrackCategory:    cfg.GetTrackCategory(),
		Workers:          cfg.GetWorkers(),
	}
}

// Validate reports configuration values the scorer cannot use.
func (c Config) Validate() error {
	for i, v := range c.StateCovariance {
		if v < 0 {
			return fmt.Errorf("state covariance[%d] must be non-negative, got %g", i, v)
		}
	}
	for i, v := range c.MeasurementNoise {
		if v < 0 {
			return fmt.Errorf("measurement noise[%d] must be non-negative, got %g", i, v)
		}
	}
	if c.GateDistance <= 0 {
		return fmt.Errorf("gate distance must be positive, got %g", c.GateDistance)
	}
	if c.ClutterDensity < 0 {
		return fmt.Errorf("clutter density must be non-negative, got %g", c.ClutterDensity)
	}
	if c.ConfirmThreshold < 0 || c.ConfirmThreshold > 1 {
		return fmt.Errorf("confirm threshold must be in [0, 1], got %g", c.ConfirmThreshold)
	}
	return nil
}

// relevant reports whether a detection of the given category is scored.
func (c Config) relevant(category string) bool {
	return c.TrackCategory == "" || category == c.TrackCategory
}
