package align

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// MinFitPoints is the minimum number of point pairs for a rigid fit.
const MinFitPoints = 3

// ErrTooFewPoints is returned by RigidFit when fewer than MinFitPoints pairs
// are supplied.
var ErrTooFewPoints = errors.New("too few point pairs for rigid fit")

// RigidFit returns the rotation and translation minimising
// Σ‖R·src[i] + t − dst[i]‖², with R constrained to a proper rotation.
//
// With centred point sets, H = Σ srcᶜ·dstᶜᵀ = U·Σ·Vᵀ and R = V·Uᵀ. When the
// SVD yields a reflection (det R < 0) the last column of V is negated and R
// recomputed.
func RigidFit(src, dst []fusion.Point) (fusion.RigidTransform, error) {
	if len(src) != len(dst) {
		return fusion.RigidTransform{}, fmt.Errorf("point sets differ in length: %d vs %d", len(src), len(dst))
	}
	if len(src) < MinFitPoints {
		return fusion.RigidTransform{}, fmt.Errorf("%w: have %d, need %d", ErrTooFewPoints, len(src), MinFitPoints)
	}

	ca := centroid(src)
	cb := centroid(dst)

	h := mat.NewDense(2, 2, nil)
	for i := range src {
		ax, ay := src[i].X-ca.X, src[i].Y-ca.Y
		bx, by := dst[i].X-cb.X, dst[i].Y-cb.Y
		h.Set(0, 0, h.At(0, 0)+ax*bx)
		h.Set(0, 1, h.At(0, 1)+ax*by)
		h.Set(1, 0, h.At(1, 0)+ay*bx)
		h.Set(1, 1, h.At(1, 1)+ay*by)
	}

	var svd mat.SVD
	if !svd.Factorize(h, mat.SVDFull) {
		return fusion.RigidTransform{}, errors.New("SVD of cross-covariance failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&v, u.T())
	if mat.Det(&r) < 0 {
		v.Set(0, 1, -v.At(0, 1))
		v.Set(1, 1, -v.At(1, 1))
		r.Mul(&v, u.T())
	}

	rt := fusion.RigidTransform{
		R: [2][2]float64{
			{r.At(0, 0), r.At(0, 1)},
			{r.At(1, 0), r.At(1, 1)},
		},
	}
	rc := rt.Rotate(ca)
	rt.T = [2]float64{cb.X - rc.X, cb.Y - rc.Y}
	return rt, nil
}

func centroid(pts []fusion.Point) fusion.Point {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	return fusion.Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}
}

// RMSE returns the root mean square residual of rt mapping src onto dst.
func RMSE(rt fusion.RigidTransform, src, dst []fusion.Point) float64 {
	if len(src) == 0 {
		return 0
	}
	var sum float64
	for i := range src {
		p := rt.Apply(src[i])
		dx, dy := p.X-dst[i].X, p.Y-dst[i].Y
		sum += dx*dx + dy*dy
	}
	return math.Sqrt(sum / float64(len(src)))
}

// PointPairs holds index-paired ground-truth and radar points.
type PointPairs struct {
	Truth  []fusion.Point
	Radar  []fusion.Point
	Cycles int // ground-truth samples that contributed at least one pair
}

// Len returns the number of pairs.
func (p PointPairs) Len() int { return len(p.Truth) }

// CollectPairs gathers (ground truth, detection) point pairs for every
// sample in truth according to mode. truth is expected to be time-corrected
// already.
func CollectPairs(gater *CandidateGater, truth []fusion.GroundTruthSample, mode FitMode) PointPairs {
	var pairs PointPairs
	for _, s := range fusion.SortedGroundTruth(truth) {
		cands := gater.Candidates(s)
		if len(cands) == 0 {
			continue
		}
		pairs.Cycles++
		gt := s.Position()
		if mode == FitAllPoints {
			for _, c := range cands {
				pairs.Truth = append(pairs.Truth, gt)
				pairs.Radar = append(pairs.Radar, c.Cartesian())
			}
			continue
		}
		best := closestInRange(cands, s.Range())
		pairs.Truth = append(pairs.Truth, gt)
		pairs.Radar = append(pairs.Radar, best.Cartesian())
	}
	return pairs
}

// closestInRange picks the candidate with the smallest range error. Ties go
// to the higher SNR, then to the earlier candidate.
func closestInRange(cands []Candidate, gtRange float64) Candidate {
	best := cands[0]
	bestErr := math.Abs(best.Range - gtRange)
	for _, c := range cands[1:] {
		e := math.Abs(c.Range - gtRange)
		if e < bestErr || (e == bestErr && c.SNR > best.SNR) {
			best, bestErr = c, e
		}
	}
	return best
}

// SpatialResult is the outcome of rigid spatial alignment.
type SpatialResult struct {
	Outcome   Outcome
	Reason    string
	Mode      FitMode
	Transform fusion.RigidTransform
	Pairs     int
	Cycles    int
	RMSE      float64
	Quality   FitQuality
}

// AlignSpatial fits a single global rigid transform mapping ground-truth
// positions onto gated radar positions.
func AlignSpatial(gater *CandidateGater, truth []fusion.GroundTruthSample, mode FitMode) SpatialResult {
	pairs := CollectPairs(gater, truth, mode)
	res := SpatialResult{
		Mode:      mode,
		Transform: fusion.IdentityTransform(),
		Pairs:     pairs.Len(),
		Cycles:    pairs.Cycles,
		RMSE:      -1,
		Quality:   FitQualityUnknown,
	}
	if pairs.Len() == 0 {
		res.Outcome = OutcomeNoCandidates
		res.Reason = "no detection passed any ground-truth gate after time correction"
		return res
	}

	rt, err := RigidFit(pairs.Truth, pairs.Radar)
	if err != nil {
		res.Outcome = OutcomeInsufficientData
		res.Reason = err.Error()
		return res
	}

	res.Outcome = OutcomeAligned
	res.Transform = rt
	res.RMSE = RMSE(rt, pairs.Truth, pairs.Radar)
	res.Quality = AssessFit(res.RMSE)
	fusion.Diagf("spatial alignment (%s): rotation=%.4f rad translation=(%.3f, %.3f) rmse=%.3f quality=%s pairs=%d cycles=%d",
		mode, rt.Angle(), rt.T[0], rt.T[1], res.RMSE, res.Quality, res.Pairs, res.Cycles)
	return res
}
