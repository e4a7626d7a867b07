package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/radar.fusion/internal/fusion"
	"github.com/banshee-data/radar.fusion/internal/fusion/align"
)

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

// AlignmentRun is a persisted alignment outcome for one dataset.
type AlignmentRun struct {
	RunID      string          `json:"run_id"`
	DatasetID  string          `json:"dataset_id"`
	Report     align.Report    `json:"report"`
	ParamsJSON json.RawMessage `json:"params_json,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

// InsertAlignmentRun persists run. If RunID is empty, a UUID is generated;
// if CreatedAt is zero, the current time in nanoseconds is used.
func (s *Store) InsertAlignmentRun(run *AlignmentRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("marshal alignment report: %w", err)
	}
	var params interface{}
	if len(run.ParamsJSON) > 0 {
		params = string(run.ParamsJSON)
	}

	r := run.Report
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO fusion_alignment_runs (
				run_id, dataset_id, outcome, lag_cycles, confidence,
				rotation_radians, translation_x, translation_y, rmse, quality,
				report_json, params_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.DatasetID, string(r.Outcome), r.Lag, r.Confidence,
			r.RotationRadians, r.Translation[0], r.Translation[1], r.RMSE, string(r.Quality),
			string(report), params, run.CreatedAt,
		)
		return err
	})
}

// GetAlignmentRun returns a single run by id.
func (s *Store) GetAlignmentRun(runID string) (*AlignmentRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, dataset_id, report_json, params_json, created_at
		FROM fusion_alignment_runs
		WHERE run_id = ?`, runID)
	run, err := scanAlignmentRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// ListAlignmentRuns returns every run for datasetID, newest first.
func (s *Store) ListAlignmentRuns(datasetID string) ([]*AlignmentRun, error) {
	rows, err := s.db.Query(`
		SELECT run_id, dataset_id, report_json, params_json, created_at
		FROM fusion_alignment_runs
		WHERE dataset_id = ?
		ORDER BY created_at DESC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query alignment runs: %w", err)
	}
	defer rows.Close()

	var runs []*AlignmentRun
	for rows.Next() {
		run, err := scanAlignmentRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAlignmentRun(row scanner) (*AlignmentRun, error) {
	var run AlignmentRun
	var report string
	var params sql.NullString
	if err := row.Scan(&run.RunID, &run.DatasetID, &report, &params, &run.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan alignment run: %w", err)
	}
	if err := json.Unmarshal([]byte(report), &run.Report); err != nil {
		return nil, fmt.Errorf("decode alignment report for run %s: %w", run.RunID, err)
	}
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	return &run, nil
}

// DeleteAlignmentRun removes a run and, through the foreign keys, its
// association results and corrected ground truth.
func (s *Store) DeleteAlignmentRun(runID string) error {
	return retryOnBusy(func() error {
		res, err := s.db.Exec(`DELETE FROM fusion_alignment_runs WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

// InsertAssociationResults stores the per-row JPDA outcome for runID.
func (s *Store) InsertAssociationResults(runID string, results []fusion.AssociationResult) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO fusion_association_results (
				run_id, row_index, cycle_id, scored, confirmed, probability, distance, likelihood
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare association insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range results {
			if _, err := stmt.Exec(runID, r.Index, r.CycleID, r.Scored, r.Confirmed, r.Probability, r.Distance, r.Likelihood); err != nil {
				return fmt.Errorf("insert association result row %d: %w", r.Index, err)
			}
		}
		return nil
	})
}

// LoadAssociationResults returns the results stored for runID ordered by row.
func (s *Store) LoadAssociationResults(runID string) ([]fusion.AssociationResult, error) {
	rows, err := s.db.Query(`
		SELECT row_index, cycle_id, scored, confirmed, probability, distance, likelihood
		FROM fusion_association_results
		WHERE run_id = ?
		ORDER BY row_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query association results: %w", err)
	}
	defer rows.Close()

	var results []fusion.AssociationResult
	for rows.Next() {
		var r fusion.AssociationResult
		if err := rows.Scan(&r.Index, &r.CycleID, &r.Scored, &r.Confirmed, &r.Probability, &r.Distance, &r.Likelihood); err != nil {
			return nil, fmt.Errorf("scan association result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// InsertCorrectedGroundTruth stores the corrected ground truth for runID.
func (s *Store) InsertCorrectedGroundTruth(runID string, samples []fusion.GroundTruthSample) error {
	return s.withTx(func(tx *sql.Tx) error {
		return insertSamples(tx, `
			INSERT INTO fusion_corrected_ground_truth (run_id, cycle_id, x, y, vx, vy)
			VALUES (?, ?, ?, ?, ?, ?)`, runID, samples)
	})
}

// LoadCorrectedGroundTruth returns the corrected ground truth for runID
// ordered by cycle.
func (s *Store) LoadCorrectedGroundTruth(runID string) ([]fusion.GroundTruthSample, error) {
	return s.querySamples(`
		SELECT cycle_id, x, y, vx, vy
		FROM fusion_corrected_ground_truth
		WHERE run_id = ?
		ORDER BY cycle_id`, runID)
}
