package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// The Get* fallbacks below must stay in sync with it.
const DefaultConfigPath = "config/tuning.defaults.json"

// Representative-range policies for temporal alignment.
const (
	RepresentativeMean    = "mean"
	RepresentativeBestSNR = "best-by-snr"
)

// Spatial-fit modes for rigid alignment.
const (
	FitBestCandidate = "best-candidate"
	FitAllPoints     = "all-points"
)

// TuningConfig represents the root configuration for alignment and
// association parameters. Every field is optional; nil fields fall back to
// the documented defaults via the Get* accessors, so partial files are safe.
type TuningConfig struct {
	// Candidate gating
	GateWindowCycles *int64   `json:"gate_window_cycles,omitempty" yaml:"gate_window_cycles,omitempty"`
	RangeTolerance   *float64 `json:"range_tolerance,omitempty" yaml:"range_tolerance,omitempty"`

	// Alignment policies
	RepresentativeRange *string `json:"representative_range,omitempty" yaml:"representative_range,omitempty"` // "mean" or "best-by-snr"
	SpatialFitMode      *string `json:"spatial_fit_mode,omitempty" yaml:"spatial_fit_mode,omitempty"`         // "best-candidate" or "all-points"

	// JPDA scoring
	MahalanobisGate  *float64  `json:"mahalanobis_gate,omitempty" yaml:"mahalanobis_gate,omitempty"`
	ClutterDensity   *float64  `json:"clutter_density,omitempty" yaml:"clutter_density,omitempty"`
	ConfirmThreshold *float64  `json:"confirm_threshold,omitempty" yaml:"confirm_threshold,omitempty"`
	StateCovariance  []float64 `json:"state_covariance,omitempty" yaml:"state_covariance,omitempty"`   // diag over x, y, vx, vy
	MeasurementNoise []float64 `json:"measurement_noise,omitempty" yaml:"measurement_noise,omitempty"` // diag over range, azimuth, radial velocity
	TrackCategory    *string   `json:"track_category,omitempty" yaml:"track_category,omitempty"`
	Workers          *int      `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// with its default value. It matches config/tuning.defaults.json.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		GateWindowCycles:    ptrInt64(15),
		RangeTolerance:      ptrFloat64(5.0),
		RepresentativeRange: ptrString(RepresentativeMean),
		SpatialFitMode:      ptrString(FitBestCandidate),
		MahalanobisGate:     ptrFloat64(5.0),
		ClutterDensity:      ptrFloat64(0.1),
		ConfirmThreshold:    ptrFloat64(0.5),
		StateCovariance:     []float64{0.01, 0.01, 0.01, 0.01},
		MeasurementNoise:    []float64{0.25, 0.0025, 0.25},
		TrackCategory:       ptrString(""),
		Workers:             ptrInt(1),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON or YAML file.
// The file must have a .json, .yaml or .yml extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/fusion/align/
		"../../../../" + DefaultConfigPath, // from internal/fusion/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.GateWindowCycles != nil && *c.GateWindowCycles < 0 {
		return fmt.Errorf("gate_window_cycles must be non-negative, got %d", *c.GateWindowCycles)
	}
	if c.RangeTolerance != nil && *c.RangeTolerance < 0 {
		return fmt.Errorf("range_tolerance must be non-negative, got %f", *c.RangeTolerance)
	}
	if c.RepresentativeRange != nil {
		switch *c.RepresentativeRange {
		case RepresentativeMean, RepresentativeBestSNR:
		default:
			return fmt.Errorf("representative_range must be %q or %q, got %q",
				RepresentativeMean, RepresentativeBestSNR, *c.RepresentativeRange)
		}
	}
	if c.SpatialFitMode != nil {
		switch *c.SpatialFitMode {
		case FitBestCandidate, FitAllPoints:
		default:
			return fmt.Errorf("spatial_fit_mode must be %q or %q, got %q",
				FitBestCandidate, FitAllPoints, *c.SpatialFitMode)
		}
	}
	if c.MahalanobisGate != nil && *c.MahalanobisGate <= 0 {
		return fmt.Errorf("mahalanobis_gate must be positive, got %f", *c.MahalanobisGate)
	}
	if c.ClutterDensity != nil && *c.ClutterDensity < 0 {
		return fmt.Errorf("clutter_density must be non-negative, got %f", *c.ClutterDensity)
	}
	if c.ConfirmThreshold != nil && (*c.ConfirmThreshold < 0 || *c.ConfirmThreshold > 1) {
		return fmt.Errorf("confirm_threshold must be between 0 and 1, got %f", *c.ConfirmThreshold)
	}
	if err := validateDiag("state_covariance", c.StateCovariance, 4); err != nil {
		return err
	}
	if err := validateDiag("measurement_noise", c.MeasurementNoise, 3); err != nil {
		return err
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

func validateDiag(name string, v []float64, n int) error {
	if v == nil {
		return nil
	}
	if len(v) != n {
		return fmt.Errorf("%s must have %d entries, got %d", name, n, len(v))
	}
	for i, x := range v {
		if x < 0 {
			return fmt.Errorf("%s[%d] must be non-negative, got %f", name, i, x)
		}
	}
	return nil
}

// GetGateWindowCycles returns the gate_window_cycles value or the default.
func (c *TuningConfig) GetGateWindowCycles() int64 {
	if c.GateWindowCycles == nil {
		return 15
	}
	return *c.GateWindowCycles
}

// GetRangeTolerance returns the range_tolerance value or the default.
func (c *TuningConfig) GetRangeTolerance() float64 {
	if c.RangeTolerance == nil {
		return 5.0
	}
	return *c.RangeTolerance
}

// GetRepresentativeRange returns the representative_range policy or the default.
func (c *TuningConfig) GetRepresentativeRange() string {
	if c.RepresentativeRange == nil || *c.RepresentativeRange == "" {
		return RepresentativeMean
	}
	return *c.RepresentativeRange
}

// GetSpatialFitMode returns the spatial_fit_mode value or the default.
func (c *TuningConfig) GetSpatialFitMode() string {
	if c.SpatialFitMode == nil || *c.SpatialFitMode == "" {
		return FitBestCandidate
	}
	return *c.SpatialFitMode
}

// GetMahalanobisGate returns the mahalanobis_gate value or the default.
func (c *TuningConfig) GetMahalanobisGate() float64 {
	if c.MahalanobisGate == nil {
		return 5.0
	}
	return *c.MahalanobisGate
}

// GetClutterDensity returns the clutter_density value or the default.
func (c *TuningConfig) GetClutterDensity() float64 {
	if c.ClutterDensity == nil {
		return 0.1
	}
	return *c.ClutterDensity
}

// GetConfirmThreshold returns the confirm_threshold value or the default.
func (c *TuningConfig) GetConfirmThreshold() float64 {
	if c.ConfirmThreshold == nil {
		return 0.5
	}
	return *c.ConfirmThreshold
}

// GetStateCovariance returns the state covariance diagonal or the default.
func (c *TuningConfig) GetStateCovariance() [4]float64 {
	if len(c.StateCovariance) != 4 {
		return [4]float64{0.01, 0.01, 0.01, 0.01}
	}
	return [4]float64{c.StateCovariance[0], c.StateCovariance[1], c.StateCovariance[2], c.StateCovariance[3]}
}

// GetMeasurementNoise returns the measurement noise diagonal or the default.
func (c *TuningConfig) GetMeasurementNoise() [3]float64 {
	if len(c.MeasurementNoise) != 3 {
		return [3]float64{0.25, 0.0025, 0.25}
	}
	return [3]float64{c.MeasurementNoise[0], c.MeasurementNoise[1], c.MeasurementNoise[2]}
}

// GetTrackCategory returns the track_category filter. Empty means every
// detection is track-relevant.
func (c *TuningConfig) GetTrackCategory() string {
	if c.TrackCategory == nil {
		return ""
	}
	return *c.TrackCategory
}

// GetWorkers returns the workers value or the default.
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}
