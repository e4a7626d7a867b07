package tables

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radar.fusion/internal/fusion"
	"github.com/banshee-data/radar.fusion/internal/fusion/align"
	"github.com/banshee-data/radar.fusion/internal/fusion/jpda"
)

func TestReadDetections(t *testing.T) {
	in := `Cycle_ID, range, azimuth, radial_velocity, snr, extra
3,50.2,0.1,2.0,18,ignored
1,12.5,-0.25,-1.5,7,ignored
`
	dets, err := ReadDetections(strings.NewReader(in))
	require.NoError(t, err)

	want := []fusion.Detection{
		{CycleID: 3, Range: 50.2, Azimuth: 0.1, RadialVelocity: 2.0, SNR: 18},
		{CycleID: 1, Range: 12.5, Azimuth: -0.25, RadialVelocity: -1.5, SNR: 7},
	}
	if diff := cmp.Diff(want, dets); diff != "" {
		t.Errorf("ReadDetections mismatch (-want +got):\n%s", diff)
	}
}

func TestReadDetections_CategoryAndWrap(t *testing.T) {
	in := "snr,cycle_id,range,azimuth,radial_velocity,category\n" +
		"5,0,10,4.0,0,moving\n" +
		"5,0,10,-4.0,0,\n"
	dets, err := ReadDetections(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.Equal(t, "moving", dets[0].Category)
	assert.Equal(t, "", dets[1].Category)
	assert.InDelta(t, 4.0-2*math.Pi, dets[0].Azimuth, 1e-12)
	assert.InDelta(t, -4.0+2*math.Pi, dets[1].Azimuth, 1e-12)
}

func TestReadDetections_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantMsg string
	}{
		{name: "empty", in: "", wantMsg: "empty"},
		{name: "missing column", in: "cycle_id,range,azimuth,snr\n1,2,3,4\n", wantMsg: `"radial_velocity"`},
		{name: "duplicate column", in: "cycle_id,range,range,azimuth,radial_velocity,snr\n", wantMsg: "duplicate"},
		{name: "bad float", in: "cycle_id,range,azimuth,radial_velocity,snr\n1,abc,0,0,0\n", wantMsg: "invalid range at line 2"},
		{name: "bad cycle", in: "cycle_id,range,azimuth,radial_velocity,snr\n1.5,1,0,0,0\n", wantMsg: "invalid cycle_id"},
		{name: "short row", in: "cycle_id,range,azimuth,radial_velocity,snr\n1,1,0\n", wantMsg: "invalid radial_velocity"},
		{name: "nan", in: "cycle_id,range,azimuth,radial_velocity,snr\n1,NaN,0,0,0\n", wantMsg: "non-finite range"},
		{name: "negative range", in: "cycle_id,range,azimuth,radial_velocity,snr\n1,-1,0,0,0\n", wantMsg: "range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDetections(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, fusion.ErrMalformedInput), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestReadGroundTruth(t *testing.T) {
	in := "cycle_id,x,y,vx,vy\n0,10,0,1,0\n1,11,0.5,1,0.5\n"
	samples, err := ReadGroundTruth(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []fusion.GroundTruthSample{
		{CycleID: 0, X: 10, Y: 0, VX: 1, VY: 0},
		{CycleID: 1, X: 11, Y: 0.5, VX: 1, VY: 0.5},
	}, samples)

	_, err = ReadGroundTruth(strings.NewReader("cycle_id,x,y,vx,vy\n0,1,1,0,0\n0,2,2,0,0\n"))
	assert.True(t, errors.Is(err, fusion.ErrMalformedInput), "duplicate cycle: got %v", err)

	_, err = ReadGroundTruth(strings.NewReader("cycle_id,x,y,vx\n"))
	assert.True(t, errors.Is(err, fusion.ErrMalformedInput), "missing vy: got %v", err)
}

func TestRoundTrip(t *testing.T) {
	dets := []fusion.Detection{
		{CycleID: 7, Range: 1.0 / 3, Azimuth: -math.Pi / 7, RadialVelocity: 2.5, SNR: 11, Category: "moving"},
		{CycleID: 8, Range: 100, Azimuth: math.Pi, RadialVelocity: 0, SNR: 0},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDetections(&buf, dets))
	got, err := ReadDetections(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(dets, got); diff != "" {
		t.Errorf("detections round trip (-want +got):\n%s", diff)
	}

	truth := []fusion.GroundTruthSample{{CycleID: -2, X: 0.1, Y: -0.2, VX: 1e-9, VY: 3}}
	buf.Reset()
	require.NoError(t, WriteGroundTruth(&buf, truth))
	gotTruth, err := ReadGroundTruth(&buf)
	require.NoError(t, err)
	assert.Equal(t, truth, gotTruth)
}

func TestWriteAnnotatedDetections(t *testing.T) {
	dets := []fusion.Detection{
		{CycleID: 1, Range: 10, SNR: 3},
		{CycleID: 1, Range: 50, SNR: 9},
	}
	results := []fusion.AssociationResult{
		{Index: 0, CycleID: 1, Scored: true, Confirmed: true, Probability: 0.75, Distance: 1.5, Likelihood: 0.3},
		{Index: 1, CycleID: 1, Scored: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAnnotatedDetections(&buf, dets, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "cycle_id,range,azimuth,radial_velocity,snr,confirmed,association_probability,mahalanobis_distance,likelihood,scored", lines[0])
	assert.Equal(t, "1,10,0,0,3,true,0.75,1.5,0.3,true", lines[1])
	assert.Equal(t, "1,50,0,0,9,false,0,0,0,true", lines[2])

	// The annotated table is still a readable detections table.
	back, err := ReadDetections(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, dets, back)

	assert.Error(t, WriteAnnotatedDetections(&buf, dets, results[:1]))
	assert.Error(t, WriteAnnotatedDetections(&buf, dets, []fusion.AssociationResult{{Index: 1}, {Index: 0}}))
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	detPath := filepath.Join(dir, "out", "dets.csv")

	dets := []fusion.Detection{{CycleID: 1, Range: 5, Azimuth: 0.5, RadialVelocity: 1, SNR: 2}}
	require.NoError(t, WriteFile(detPath, func(w io.Writer) error { return WriteDetections(w, dets) }))

	got, err := ReadDetectionsFile(detPath)
	require.NoError(t, err)
	assert.Equal(t, dets, got)

	_, err = ReadGroundTruthFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("cycle_id,x\n"), 0o644))
	_, err = ReadGroundTruthFile(bad)
	assert.True(t, errors.Is(err, fusion.ErrMalformedInput))
	assert.Contains(t, err.Error(), bad)
}

func TestSummaryRoundTrip(t *testing.T) {
	s := EvaluationSummary{
		RunID:       "run-1",
		CreatedAt:   "2026-01-02T03:04:05Z",
		Detections:  10,
		GroundTruth: 4,
		Alignment: align.Report{
			Outcome:         align.OutcomeInsufficientData,
			TemporalOutcome: align.OutcomeInsufficientData,
			TemporalReason:  "fewer than 2 samples in a correlation series",
			Rotation:        [4]float64{1, 0, 0, 1},
			Quality:         align.FitQualityUnknown,
		},
		Association: &jpda.Summary{CyclesScored: 3, DetectionsConfirmed: 2},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, s))
	assert.Contains(t, buf.String(), `"outcome": "insufficient_data"`)

	got, err := ReadSummary(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("summary round trip (-want +got):\n%s", diff)
	}
}
