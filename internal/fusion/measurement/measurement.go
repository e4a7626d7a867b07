// Package measurement maps a Cartesian kinematic state into radar
// measurement space (range, azimuth, radial velocity) and provides the
// analytic Jacobian of that map.
package measurement

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// StateDim is the length of the state vector [x, y, vx, vy].
	StateDim = 4
	// Dim is the length of a measurement [range, azimuth, radial velocity].
	Dim = 3
	// RangeFloor is the smallest range used as a divisor. States closer to
	// the sensor are clamped to it; this is a numeric floor, not an error.
	RangeFloor = 1e-6
)

// Measurement is a point in radar measurement space.
type Measurement struct {
	Range          float64
	Azimuth        float64
	RadialVelocity float64
}

// Vec returns the measurement as a gonum vector.
func (m Measurement) Vec() *mat.VecDense {
	return mat.NewVecDense(Dim, []float64{m.Range, m.Azimuth, m.RadialVelocity})
}

func flooredRange(x, y float64) float64 {
	r := math.Hypot(x, y)
	if r < RangeFloor {
		return RangeFloor
	}
	return r
}

// Predict is the measurement function h(state).
func Predict(state [StateDim]float64) Measurement {
	x, y, vx, vy := state[0], state[1], state[2], state[3]
	r := flooredRange(x, y)
	return Measurement{
		Range:          r,
		Azimuth:        math.Atan2(y, x),
		RadialVelocity: (x*vx + y*vy) / r,
	}
}

// Jacobian returns the 3x4 matrix of partial derivatives of Predict with
// respect to (x, y, vx, vy), using the same range floor.
func Jacobian(state [StateDim]float64) *mat.Dense {
	x, y, vx, vy := state[0], state[1], state[2], state[3]
	r := flooredRange(x, y)
	r2 := r * r
	r3 := r2 * r

	// d(vr)/dx = y·(vx·y − vy·x)/r³, d(vr)/dy = x·(vy·x − vx·y)/r³
	cross := vx*y - vy*x

	return mat.NewDense(Dim, StateDim, []float64{
		x / r, y / r, 0, 0,
		-y / r2, x / r2, 0, 0,
		y * cross / r3, -x * cross / r3, x / r, y / r,
	})
}
