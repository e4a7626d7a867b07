package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/radar.fusion/internal/fusion"
)

// ReplaceDetections stores dets under datasetID, replacing any rows already
// stored for it. Row order is kept in row_index.
func (s *Store) ReplaceDetections(datasetID string, dets []fusion.Detection) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM radar_detections WHERE dataset_id = ?`, datasetID); err != nil {
			return fmt.Errorf("clear detections: %w", err)
		}
		stmt, err := tx.Prepare(`
			INSERT INTO radar_detections (
				dataset_id, row_index, cycle_id, range, azimuth, radial_velocity, snr, category
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare detection insert: %w", err)
		}
		defer stmt.Close()
		for i, d := range dets {
			if _, err := stmt.Exec(datasetID, i, d.CycleID, d.Range, d.Azimuth, d.RadialVelocity, d.SNR, d.Category); err != nil {
				return fmt.Errorf("insert detection row %d: %w", i, err)
			}
		}
		return nil
	})
}

// LoadDetections returns the detections stored under datasetID in their
// original row order.
func (s *Store) LoadDetections(datasetID string) ([]fusion.Detection, error) {
	rows, err := s.db.Query(`
		SELECT cycle_id, range, azimuth, radial_velocity, snr, category
		FROM radar_detections
		WHERE dataset_id = ?
		ORDER BY row_index`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query detections: %w", err)
	}
	defer rows.Close()

	var dets []fusion.Detection
	for rows.Next() {
		var d fusion.Detection
		if err := rows.Scan(&d.CycleID, &d.Range, &d.Azimuth, &d.RadialVelocity, &d.SNR, &d.Category); err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		dets = append(dets, d)
	}
	return dets, rows.Err()
}

// ReplaceGroundTruth stores samples under datasetID, replacing any samples
// already stored for it.
func (s *Store) ReplaceGroundTruth(datasetID string, samples []fusion.GroundTruthSample) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM ground_truth_samples WHERE dataset_id = ?`, datasetID); err != nil {
			return fmt.Errorf("clear ground truth: %w", err)
		}
		return insertSamples(tx, `
			INSERT INTO ground_truth_samples (dataset_id, cycle_id, x, y, vx, vy)
			VALUES (?, ?, ?, ?, ?, ?)`, datasetID, samples)
	})
}

// LoadGroundTruth returns the samples stored under datasetID ordered by cycle.
func (s *Store) LoadGroundTruth(datasetID string) ([]fusion.GroundTruthSample, error) {
	return s.querySamples(`
		SELECT cycle_id, x, y, vx, vy
		FROM ground_truth_samples
		WHERE dataset_id = ?
		ORDER BY cycle_id`, datasetID)
}

// ListDatasets returns the ids of every dataset with detections or ground
// truth, sorted.
func (s *Store) ListDatasets() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT dataset_id FROM radar_detections
		UNION
		SELECT dataset_id FROM ground_truth_samples
		ORDER BY dataset_id`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan dataset id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertSamples(tx *sql.Tx, query, key string, samples []fusion.GroundTruthSample) error {
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("prepare sample insert: %w", err)
	}
	defer stmt.Close()
	for i, g := range samples {
		if _, err := stmt.Exec(key, g.CycleID, g.X, g.Y, g.VX, g.VY); err != nil {
			return fmt.Errorf("insert sample %d (cycle %d): %w", i, g.CycleID, err)
		}
	}
	return nil
}

func (s *Store) querySamples(query, key string) ([]fusion.GroundTruthSample, error) {
	rows, err := s.db.Query(query, key)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []fusion.GroundTruthSample
	for rows.Next() {
		var g fusion.GroundTruthSample
		if err := rows.Scan(&g.CycleID, &g.X, &g.Y, &g.VX, &g.VY); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, g)
	}
	return samples, rows.Err()
}
