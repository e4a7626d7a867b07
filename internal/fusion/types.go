package fusion

import "math"

// Detection is a single radar measurement at a discrete sensor cycle.
// Detections are treated as immutable once read.
type Detection struct {
	CycleID        int64
	Range          float64 // metres, >= 0
	Azimuth        float64 // radians, wrapped to (-π, π]
	RadialVelocity float64 // m/s
	SNR            float64
	Category       string // classifier label; empty when the source has none
}

// Cartesian returns the detection position in the sensor frame.
func (d Detection) Cartesian() Point {
	return PolarToCartesian(d.Range, d.Azimuth)
}

// GroundTruthSample is one reference-track state at a discrete cycle.
// Corrections never modify a sample in place; they return new samples.
type GroundTruthSample struct {
	CycleID int64
	X       float64
	Y       float64
	VX      float64
	VY      float64
}

// State returns the kinematic state vector [x, y, vx, vy].
func (g GroundTruthSample) State() [4]float64 {
	return [4]float64{g.X, g.Y, g.VX, g.VY}
}

// Range returns the implied sensor range sqrt(x²+y²).
func (g GroundTruthSample) Range() float64 {
	return math.Hypot(g.X, g.Y)
}

// Position returns the Cartesian position of the sample.
func (g GroundTruthSample) Position() Point {
	return Point{X: g.X, Y: g.Y}
}

// AssociationResult annotates one detection with its JPDA outcome.
// Index refers to the detection's row in the table passed to the scorer.
type AssociationResult struct {
	Index       int
	CycleID     int64
	Scored      bool    // false for out-of-category rows and cycles without ground truth
	Confirmed   bool    // Probability > confirmation threshold
	Probability float64 // in [0, 1]; 0 when not scored
	Distance    float64 // Mahalanobis distance; 0 when not scored
	Likelihood  float64 // Gaussian likelihood; 0 when gated out or not scored
}

// Point is a 2D Cartesian point.
type Point struct {
	X float64
	Y float64
}

// TimeLag is a signed cycle offset. A positive lag means the radar stream
// runs behind ground truth: radar cycle = ground-truth cycle + lag.
type TimeLag int64

// ApplyTo returns copies of samples with every cycle id shifted by the lag.
// Ground truth moves to match radar; the input is left untouched.
func (l TimeLag) ApplyTo(samples []GroundTruthSample) []GroundTruthSample {
	out := make([]GroundTruthSample, len(samples))
	for i, s := range samples {
		s.CycleID += int64(l)
		out[i] = s
	}
	return out
}
