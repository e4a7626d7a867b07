package fusion

import "math"

// RotationTolerance bounds |det(R) - 1| and the orthonormality residual for
// a matrix to count as a proper rotation.
const RotationTolerance = 1e-6

// RigidTransform maps p to R·p + T. R is a proper 2x2 rotation (det = +1).
type RigidTransform struct {
	R [2][2]float64
	T [2]float64
}

// IdentityTransform returns the transform that leaves every point in place.
func IdentityTransform() RigidTransform {
	return RigidTransform{R: [2][2]float64{{1, 0}, {0, 1}}}
}

// RotationTransform builds a transform from a rotation angle (radians) and
// a translation.
func RotationTransform(theta, tx, ty float64) RigidTransform {
	c, s := math.Cos(theta), math.Sin(theta)
	return RigidTransform{
		R: [2][2]float64{{c, -s}, {s, c}},
		T: [2]float64{tx, ty},
	}
}

// Apply maps a single point.
func (rt RigidTransform) Apply(p Point) Point {
	return Point{
		X: rt.R[0][0]*p.X + rt.R[0][1]*p.Y + rt.T[0],
		Y: rt.R[1][0]*p.X + rt.R[1][1]*p.Y + rt.T[1],
	}
}

// Rotate applies only the rotation part, for direction vectors such as velocity.
func (rt RigidTransform) Rotate(p Point) Point {
	return Point{
		X: rt.R[0][0]*p.X + rt.R[0][1]*p.Y,
		Y: rt.R[1][0]*p.X + rt.R[1][1]*p.Y,
	}
}

// ApplyToSamples returns transformed copies of samples. Positions get the
// full transform; velocities are rotated so that radial velocity stays
// consistent with the corrected position.
func (rt RigidTransform) ApplyToSamples(samples []GroundTruthSample) []GroundTruthSample {
	out := make([]GroundTruthSample, len(samples))
	for i, s := range samples {
		p := rt.Apply(Point{X: s.X, Y: s.Y})
		v := rt.Rotate(Point{X: s.VX, Y: s.VY})
		out[i] = GroundTruthSample{CycleID: s.CycleID, X: p.X, Y: p.Y, VX: v.X, VY: v.Y}
	}
	return out
}

// Det returns det(R).
func (rt RigidTransform) Det() float64 {
	return rt.R[0][0]*rt.R[1][1] - rt.R[0][1]*rt.R[1][0]
}

// Angle returns the rotation angle in radians, in (-π, π].
func (rt RigidTransform) Angle() float64 {
	return WrapAngle(math.Atan2(rt.R[1][0], rt.R[0][0]))
}

// IsProper reports whether R is orthonormal with det(R) = +1, i.e. a
// rotation and never a mirror flip.
func (rt RigidTransform) IsProper() bool {
	if math.Abs(rt.Det()-1) > RotationTolerance {
		return false
	}
	// Columns must be unit length and orthogonal.
	c0 := rt.R[0][0]*rt.R[0][0] + rt.R[1][0]*rt.R[1][0]
	c1 := rt.R[0][1]*rt.R[0][1] + rt.R[1][1]*rt.R[1][1]
	dot := rt.R[0][0]*rt.R[0][1] + rt.R[1][0]*rt.R[1][1]
	return math.Abs(c0-1) <= RotationTolerance &&
		math.Abs(c1-1) <= RotationTolerance &&
		math.Abs(dot) <= RotationTolerance
}
