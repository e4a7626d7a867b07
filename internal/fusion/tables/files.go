package tables

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// ReadDetectionsFile opens path and parses it with ReadDetections.
func ReadDetectionsFile(path string) ([]fusion.Detection, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open detections file: %w", err)
	}
	defer f.Close()

	dets, err := ReadDetections(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dets, nil
}

// ReadGroundTruthFile opens path and parses it with ReadGroundTruth.
func ReadGroundTruthFile(path string) ([]fusion.GroundTruthSample, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open ground truth file: %w", err)
	}
	defer f.Close()

	samples, err := ReadGroundTruth(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// WriteFile creates path (and its parent directory) and passes it to write.
// The file is closed before returning, and a close failure is reported.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	path = filepath.Clean(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
