package align

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// MinTemporalSamples is the minimum number of samples in each series for a
// lag estimate to be defined.
const MinTemporalSamples = 2

// TemporalResult is the outcome of lag estimation.
type TemporalResult struct {
	Outcome Outcome
	Reason  string
	// Lag is the cycle offset of the radar stream relative to ground truth;
	// ground truth is corrected by shifting its cycle ids by +Lag.
	Lag fusion.TimeLag
	// Correlation is the peak of the mean-centred cross-correlation.
	Correlation float64
	// Confidence is Correlation normalised by the series energies, in [-1, 1].
	Confidence   float64
	TruthSamples int
	RadarSamples int
}

// series is a cycle-indexed scalar sequence, ordered by cycle.
type series struct {
	cycles []int64
	values []float64
}

// EstimateLag finds the integer cycle lag that maximises the cross-correlation
// between the ground-truth range series and the representative radar range
// series.
//
// The ground-truth series holds the implied range of every sample whose gate
// is non-empty. The radar series holds, per radar cycle, the representative
// range of the detections that passed at least one ground-truth gate. Both
// are mean-centred and laid on a common absolute cycle axis of length N
// (absent cycles contribute zero), and every lag in [−(N−1), N−1] is
// considered. Ties resolve to the smallest lag.
func EstimateLag(gater *CandidateGater, truth []fusion.GroundTruthSample, policy RepresentativePolicy) TemporalResult {
	truthSeries, radarSeries := buildSeries(gater, fusion.SortedGroundTruth(truth), policy)
	res := TemporalResult{
		TruthSamples: len(truthSeries.cycles),
		RadarSamples: len(radarSeries.cycles),
	}

	switch {
	case res.RadarSamples == 0:
		res.Outcome = OutcomeNoCandidates
		res.Reason = "no detection passed any ground-truth gate"
		return res
	case res.TruthSamples < MinTemporalSamples || res.RadarSamples < MinTemporalSamples:
		res.Outcome = OutcomeInsufficientData
		res.Reason = "fewer than 2 samples in a correlation series"
		return res
	}

	g := centred(truthSeries.values)
	r := centred(radarSeries.values)
	energy := math.Sqrt(floats.Dot(g, g) * floats.Dot(r, r))
	if energy == 0 {
		res.Outcome = OutcomeInsufficientData
		res.Reason = "a correlation series has no variance"
		return res
	}

	lag, peak := argmaxCorrelation(series{truthSeries.cycles, g}, series{radarSeries.cycles, r})
	res.Outcome = OutcomeAligned
	res.Lag = fusion.TimeLag(lag)
	res.Correlation = peak
	res.Confidence = peak / energy

	fusion.Diagf("temporal alignment: lag=%d corr=%.4g confidence=%.3f (truth=%d radar=%d samples)",
		lag, peak, res.Confidence, res.TruthSamples, res.RadarSamples)
	return res
}

func buildSeries(gater *CandidateGater, truth []fusion.GroundTruthSample, policy RepresentativePolicy) (series, series) {
	var gt series
	buckets := make(map[int64][]Candidate)
	used := make(map[int]bool)

	for _, s := range truth {
		cands := gater.Candidates(s)
		if len(cands) == 0 {
			continue
		}
		gt.cycles = append(gt.cycles, s.CycleID)
		gt.values = append(gt.values, s.Range())
		for _, c := range cands {
			if used[c.Row] {
				continue
			}
			used[c.Row] = true
			buckets[c.CycleID] = append(buckets[c.CycleID], c)
		}
	}

	var radar series
	for c := range buckets {
		radar.cycles = append(radar.cycles, c)
	}
	sort.Slice(radar.cycles, func(a, b int) bool { return radar.cycles[a] < radar.cycles[b] })
	radar.values = make([]float64, len(radar.cycles))
	for i, c := range radar.cycles {
		// Candidates for a cycle may arrive from several gates; restore row
		// order so the SNR tie-break is input-order stable.
		bucket := buckets[c]
		sort.Slice(bucket, func(a, b int) bool { return bucket[a].Row < bucket[b].Row })
		radar.values[i] = representativeRange(bucket, policy)
	}
	return gt, radar
}

// representativeRange reduces one cycle's candidates to a single range.
func representativeRange(cands []Candidate, policy RepresentativePolicy) float64 {
	if policy == RepresentativeBestSNR {
		best := 0
		for i := 1; i < len(cands); i++ {
			if cands[i].SNR > cands[best].SNR {
				best = i
			}
		}
		return cands[best].Range
	}
	ranges := make([]float64, len(cands))
	for i, c := range cands {
		ranges[i] = c.Range
	}
	return stat.Mean(ranges, nil)
}

func centred(v []float64) []float64 {
	out := append([]float64(nil), v...)
	floats.AddConst(-stat.Mean(v, nil), out)
	return out
}

// argmaxCorrelation evaluates c[k] = Σ g[n]·r[n+k] over the full lag support
// of the common cycle axis. Only lags realised by some (truth, radar) pair
// can be non-zero, so those are accumulated sparsely; the remaining lags are
// exactly zero and represented by the smallest such lag.
func argmaxCorrelation(g, r series) (lag int64, peak float64) {
	lo := min(g.cycles[0], r.cycles[0])
	hi := max(g.cycles[len(g.cycles)-1], r.cycles[len(r.cycles)-1])
	maxLag := hi - lo

	corr := make(map[int64]float64)
	for i, gc := range g.cycles {
		for j, rc := range r.cycles {
			corr[rc-gc] += g.values[i] * r.values[j]
		}
	}

	lags := make([]int64, 0, len(corr)+1)
	for k := range corr {
		lags = append(lags, k)
	}
	if int64(len(corr)) < 2*maxLag+1 {
		for k := -maxLag; k <= maxLag; k++ {
			if _, ok := corr[k]; !ok {
				corr[k] = 0
				lags = append(lags, k)
				break
			}
		}
	}
	sort.Slice(lags, func(a, b int) bool { return lags[a] < lags[b] })

	lag, peak = lags[0], corr[lags[0]]
	for _, k := range lags[1:] {
		if corr[k] > peak {
			lag, peak = k, corr[k]
		}
	}
	return lag, peak
}
