package tables

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/radar.fusion/internal/fusion/align"
	"github.com/banshee-data/radar.fusion/internal/fusion/jpda"
)

// EvaluationSummary is the JSON document written at the end of a run.
type EvaluationSummary struct {
	RunID       string        `json:"run_id"`
	ToolVersion string        `json:"tool_version,omitempty"`
	CreatedAt   string        `json:"created_at"`
	Detections  int           `json:"detections"`
	GroundTruth int           `json:"ground_truth_samples"`
	Alignment   align.Report  `json:"alignment"`
	Association *jpda.Summary `json:"association,omitempty"`
}

// WriteSummary writes s as indented JSON.
func WriteSummary(w io.Writer, s EvaluationSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

// ReadSummary decodes a summary written by WriteSummary.
func ReadSummary(r io.Reader) (EvaluationSummary, error) {
	var s EvaluationSummary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return s, fmt.Errorf("failed to decode summary: %w", err)
	}
	return s, nil
}
