package main

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radar.fusion/internal/config"
	"github.com/banshee-data/radar.fusion/internal/fusion"
	"github.com/banshee-data/radar.fusion/internal/fusion/align"
	"github.com/banshee-data/radar.fusion/internal/fusion/storage/sqlite"
	"github.com/banshee-data/radar.fusion/internal/fusion/tables"
)

func TestParseRunFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		dataset string
	}{
		{name: "csv inputs", args: []string{"-detections", "dir/drive7.csv", "-ground-truth", "gt.csv"}, dataset: "drive7"},
		{name: "db inputs", args: []string{"-db", "f.db", "-dataset", "d1"}, dataset: "d1"},
		{name: "explicit dataset wins", args: []string{"-detections", "a.csv", "-ground-truth", "b.csv", "-dataset", "x"}, dataset: "x"},
		{name: "no inputs", args: nil, wantErr: true},
		{name: "detections only", args: []string{"-detections", "a.csv"}, wantErr: true},
		{name: "db without dataset", args: []string{"-db", "f.db"}, wantErr: true},
		{name: "negative workers", args: []string{"-db", "f.db", "-dataset", "d", "-workers", "-1"}, wantErr: true},
		{name: "unknown flag", args: []string{"-bogus"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseRunFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRunFlags(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if !tt.wantErr && o.dataset != tt.dataset {
				t.Errorf("dataset = %q, want %q", o.dataset, tt.dataset)
			}
		})
	}
}

func TestLoadTuningWorkersOverride(t *testing.T) {
	cfg, err := loadTuning(runOptions{workers: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.GetWorkers())

	cfg, err = loadTuning(runOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.GetWorkers())

	_, err = loadTuning(runOptions{configPath: "missing.yaml"})
	assert.Error(t, err)
}

// writeScenario writes a target seen by a radar that reports two cycles
// late, rotated and offset from the ground-truth frame, plus one clutter
// return per cycle.
func writeScenario(t *testing.T, dir string) (string, string) {
	t.Helper()
	rt := fusion.RotationTransform(0.03, 0.4, -0.2)
	var dets []fusion.Detection
	var truth []fusion.GroundTruthSample
	for c := 0; c < 25; c++ {
		fc := float64(c)
		gt := fusion.GroundTruthSample{CycleID: int64(c), X: 30 + 2*fc, Y: 5 + 0.1*fc*fc, VX: 2, VY: 0.2 * fc}
		truth = append(truth, gt)
		q := rt.Apply(gt.Position())
		v := rt.Rotate(fusion.Point{X: gt.VX, Y: gt.VY})
		r := math.Hypot(q.X, q.Y)
		dets = append(dets,
			fusion.Detection{CycleID: int64(c) + 2, Range: r, Azimuth: math.Atan2(q.Y, q.X), RadialVelocity: (q.X*v.X + q.Y*v.Y) / r, SNR: 15},
			fusion.Detection{CycleID: int64(c) + 2, Range: 3, Azimuth: -2, RadialVelocity: 0, SNR: 2},
		)
	}
	detPath := filepath.Join(dir, "dets.csv")
	gtPath := filepath.Join(dir, "gt.csv")
	require.NoError(t, tables.WriteFile(detPath, func(w io.Writer) error { return tables.WriteDetections(w, dets) }))
	require.NoError(t, tables.WriteFile(gtPath, func(w io.Writer) error { return tables.WriteGroundTruth(w, truth) }))
	return detPath, gtPath
}

func TestRunCommandEndToEnd(t *testing.T) {
	fusion.SetLogWriters(fusion.LogWriters{})
	dir := t.TempDir()
	detPath, gtPath := writeScenario(t, dir)
	outDir := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "fusion.db")

	err := runCommand([]string{
		"-detections", detPath, "-ground-truth", gtPath,
		"-db", dbPath, "-out", outDir, "-workers", "3",
	})
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(outDir, summaryFile))
	require.NoError(t, err)
	defer f.Close()
	summary, err := tables.ReadSummary(f)
	require.NoError(t, err)

	assert.Equal(t, align.OutcomeAligned, summary.Alignment.Outcome)
	assert.Equal(t, int64(2), summary.Alignment.Lag)
	assert.InDelta(t, 0.03, summary.Alignment.RotationRadians, 1e-6)
	assert.Equal(t, 50, summary.Detections)
	require.NotNil(t, summary.Association)
	// Every true return sits on the corrected track; clutter does not.
	assert.Equal(t, 25, summary.Association.DetectionsConfirmed)

	corrected, err := tables.ReadGroundTruthFile(filepath.Join(outDir, correctedFile))
	require.NoError(t, err)
	assert.Len(t, corrected, 25)
	assert.Equal(t, int64(2), corrected[0].CycleID)

	annotated, err := tables.ReadDetectionsFile(filepath.Join(outDir, annotatedFile))
	require.NoError(t, err)
	assert.Len(t, annotated, 50)

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListAlignmentRuns("dets")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].RunID)
	results, err := store.LoadAssociationResults(runs[0].RunID)
	require.NoError(t, err)
	assert.Len(t, results, 50)
}

func TestImportThenRunFromDatabase(t *testing.T) {
	fusion.SetLogWriters(fusion.LogWriters{})
	dir := t.TempDir()
	detPath, gtPath := writeScenario(t, dir)
	dbPath := filepath.Join(dir, "fusion.db")

	require.NoError(t, importCommand([]string{"-db", dbPath, "-dataset", "drive", "-detections", detPath, "-ground-truth", gtPath}))
	require.NoError(t, runCommand([]string{"-db", dbPath, "-dataset", "drive", "-out", filepath.Join(dir, "out")}))

	err := runCommand([]string{"-db", dbPath, "-dataset", "nope", "-out", filepath.Join(dir, "out2")})
	assert.Error(t, err)
}

func TestEvaluateFallsBackToOriginalTruth(t *testing.T) {
	fusion.SetLogWriters(fusion.LogWriters{})
	truth := []fusion.GroundTruthSample{{CycleID: 0, X: 10}, {CycleID: 1, X: 11}}
	dets := []fusion.Detection{{CycleID: 0, Range: 10}, {CycleID: 5, Range: 90}}

	ev, err := evaluate(config.DefaultTuningConfig(), dets, truth, false)
	require.NoError(t, err)

	assert.False(t, ev.Alignment.Outcome.OK())
	assert.Nil(t, ev.Alignment.Corrected)
	require.Len(t, ev.Association.Results, 2)
	assert.True(t, ev.Association.Results[0].Confirmed)
	assert.Equal(t, align.OutcomeInsufficientData, ev.Summary.Alignment.Outcome)
}
