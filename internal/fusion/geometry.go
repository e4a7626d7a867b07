package fusion

import "math"

// WrapAngle maps an angle in radians into (-π, π].
func WrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return a
	}
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// PolarToCartesian converts range (metres) and azimuth (radians) to the
// sensor frame. Azimuth follows atan2(y, x): zero along +X, positive
// towards +Y.
func PolarToCartesian(r, azimuth float64) Point {
	return Point{X: r * math.Cos(azimuth), Y: r * math.Sin(azimuth)}
}
