package jpda

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/radar.fusion/internal/fusion"
	"github.com/banshee-data/radar.fusion/internal/fusion/measurement"
)

// gaussianNorm3 is (2π)³, the normalising constant for a 3-D Gaussian.
var gaussianNorm3 = math.Pow(2*math.Pi, measurement.Dim)

// Gate is the per-cycle scoring context built from one ground-truth state.
type Gate struct {
	Predicted measurement.Measurement
	S         *mat.SymDense // innovation covariance
	Det       float64       // det(S), or the pseudo-determinant when Pseudo is set
	Pseudo    bool          // S was singular and a pseudo-inverse is in use

	sInv        *mat.Dense
	norm        float64
	maxDistance float64
}

// NewGate computes ẑ = h(x), H = ∂h/∂x and S = H·P·Hᵀ + R for a ground-truth sample.
func NewGate(gt fusion.GroundTruthSample, cfg Config) *Gate {
	state := gt.State()
	H := measurement.Jacobian(state)

	P := mat.NewDiagDense(measurement.StateDim, cfg.StateCovariance[:])
	var hp, hph mat.Dense
	hp.Mul(H, P)
	hph.Mul(&hp, H.T())

	S := mat.NewSymDense(measurement.Dim, nil)
	for i := 0; i < measurement.Dim; i++ {
		for j := i; j < measurement.Dim; j++ {
			v := 0.5 * (hph.At(i, j) + hph.At(j, i))
			if i == j {
				v += cfg.MeasurementNoise[i]
			}
			S.SetSym(i, j, v)
		}
	}

	inv, det, pseudo := invertCovariance(S)
	return &Gate{
		Predicted:   measurement.Predict(state),
		S:           S,
		Det:         det,
		Pseudo:      pseudo,
		sInv:        inv,
		norm:        1 / math.Sqrt(gaussianNorm3*det),
		maxDistance: cfg.GateDistance,
	}
}

// Innovation returns y = z − ẑ with the azimuth component wrapped to (-π, π].
func (g *Gate) Innovation(d fusion.Detection) *mat.VecDense {
	return mat.NewVecDense(measurement.Dim, []float64{
		d.Range - g.Predicted.Range,
		fusion.WrapAngle(d.Azimuth - g.Predicted.Azimuth),
		d.RadialVelocity - g.Predicted.RadialVelocity,
	})
}

// Score returns the Mahalanobis distance of a detection and its Gaussian
// likelihood. Detections with distance strictly greater than the gate get
// likelihood 0.
func (g *Gate) Score(d fusion.Detection) (distance, likelihood float64) {
	y := g.Innovation(d)
	d2 := mat.Inner(y, g.sInv, y)
	if d2 < 0 {
		d2 = 0
	}
	distance = math.Sqrt(d2)
	if distance > g.maxDistance {
		return distance, 0
	}
	return distance, g.norm * math.Exp(-d2/2)
}

// invertCovariance inverts S via Cholesky. When S is not positive definite
// (or too ill-conditioned to invert) it falls back to the SVD pseudo-inverse
// and the pseudo-determinant, so callers never see a failure.
func invertCovariance(S *mat.SymDense) (inv *mat.Dense, det float64, pseudo bool) {
	var chol mat.Cholesky
	if chol.Factorize(S) {
		var symInv mat.SymDense
		if err := chol.InverseTo(&symInv); err == nil {
			det = chol.Det()
			if det > 0 && !math.IsInf(det, 0) {
				return mat.DenseCopyOf(&symInv), det, false
			}
		}
	}
	inv, det = pseudoInverse(S)
	return inv, det, true
}

// pseudoInverse returns the Moore-Penrose inverse of S and the product of
// its non-negligible singular values. An all-zero S yields a zero inverse
// and a pseudo-determinant of 1.
func pseudoInverse(S mat.Matrix) (*mat.Dense, float64) {
	r, c := S.Dims()
	inv := mat.NewDense(c, r, nil)

	var svd mat.SVD
	if !svd.Factorize(S, mat.SVDFull) {
		return inv, 1
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	tol := 0.0
	if len(values) > 0 {
		tol = float64(max(r, c)) * values[0] * 2.220446049250313e-16
	}

	pdet := 1.0
	sigmaInv := mat.NewDiagDense(len(values), nil)
	for i, s := range values {
		if s > tol {
			sigmaInv.SetDiag(i, 1/s)
			pdet *= s
		}
	}

	// S⁺ = V·Σ⁺·Uᵀ
	var vs mat.Dense
	vs.Mul(&v, sigmaInv)
	inv.Mul(&vs, u.T())
	return inv, pdet
}
