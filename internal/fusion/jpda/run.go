package jpda

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// Summary counts how a run's cycles and detections were handled.
type Summary struct {
	CyclesScored        int `json:"cycles_scored"`
	CyclesNoCandidates  int `json:"cycles_no_candidates"`
	CyclesNoGroundTruth int `json:"cycles_no_ground_truth"`
	CyclesPseudoInverse int `json:"cycles_pseudo_inverse"`
	DetectionsScored    int `json:"detections_scored"`
	DetectionsConfirmed int `json:"detections_confirmed"`
}

// Run is the outcome of scoring a whole detections table.
type Run struct {
	// Results has one entry per input detection row, Index == row.
	Results []fusion.AssociationResult
	// Cycles lists every cycle seen in either table, ordered by cycle id.
	Cycles  []CycleResult
	Summary Summary
}

type cycleRows struct {
	cycleID int64
	rows    []int
}

// ScoreRun scores every detection against the ground-truth sample of its
// cycle. Malformed input is rejected before any computation. Cycles are
// independent, so with Workers > 1 they are scored concurrently; each
// worker writes only its own cycle's rows and results are identical to a
// sequential run.
func (s *Scorer) ScoreRun(dets []fusion.Detection, truth []fusion.GroundTruthSample) (*Run, error) {
	if err := fusion.ValidateDetections(dets); err != nil {
		return nil, err
	}
	if err := fusion.ValidateGroundTruth(truth); err != nil {
		return nil, err
	}

	gtByCycle := make(map[int64]fusion.GroundTruthSample, len(truth))
	for _, g := range truth {
		gtByCycle[g.CycleID] = g
	}

	// Group detection rows by cycle, preserving input order within a cycle.
	var groups []cycleRows
	for _, row := range fusion.CycleOrder(dets) {
		c := dets[row].CycleID
		if n := len(groups); n == 0 || groups[n-1].cycleID != c {
			groups = append(groups, cycleRows{cycleID: c})
		}
		groups[len(groups)-1].rows = append(groups[len(groups)-1].rows, row)
	}

	run := &Run{Results: make([]fusion.AssociationResult, len(dets))}
	cycleResults := make([]CycleResult, len(groups))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for gi := range groups {
		gi := gi
		g.Go(func() error {
			grp := groups[gi]
			local := make([]fusion.Detection, len(grp.rows))
			for k, row := range grp.rows {
				local[k] = dets[row]
			}
			var gt *fusion.GroundTruthSample
			if sample, ok := gtByCycle[grp.cycleID]; ok {
				gt = &sample
			}
			cr := s.ScoreCycle(grp.cycleID, gt, local)
			for k, row := range grp.rows {
				r := cr.Results[k]
				r.Index = row
				cr.Results[k] = r
				run.Results[row] = r
			}
			cycleResults[gi] = cr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score cycles: %w", err)
	}

	// Ground-truth cycles with no detections at all yield no results.
	seen := make(map[int64]bool, len(groups))
	for _, grp := range groups {
		seen[grp.cycleID] = true
	}
	for _, gt := range truth {
		if !seen[gt.CycleID] {
			cycleResults = append(cycleResults, CycleResult{CycleID: gt.CycleID, Status: CycleNoCandidates})
		}
	}
	sort.Slice(cycleResults, func(a, b int) bool { return cycleResults[a].CycleID < cycleResults[b].CycleID })
	run.Cycles = cycleResults
	run.Summary = summarise(cycleResults)

	fusion.Diagf("jpda: %d cycles scored, %d without candidates, %d without ground truth; %d/%d detections confirmed",
		run.Summary.CyclesScored, run.Summary.CyclesNoCandidates, run.Summary.CyclesNoGroundTruth,
		run.Summary.DetectionsConfirmed, run.Summary.DetectionsScored)
	if run.Summary.CyclesPseudoInverse > 0 {
		fusion.Diagf("jpda: %d cycles used a pseudo-inverse innovation covariance", run.Summary.CyclesPseudoInverse)
	}
	return run, nil
}

func summarise(cycles []CycleResult) Summary {
	var s Summary
	for _, c := range cycles {
		switch c.Status {
		case CycleScored:
			s.CyclesScored++
		case CycleNoCandidates:
			s.CyclesNoCandidates++
		case CycleNoGroundTruth:
			s.CyclesNoGroundTruth++
		}
		if c.Pseudo {
			s.CyclesPseudoInverse++
		}
		for _, r := range c.Results {
			if r.Scored {
				s.DetectionsScored++
			}
			if r.Confirmed {
				s.DetectionsConfirmed++
			}
		}
	}
	return s
}
