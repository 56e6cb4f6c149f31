package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/cropaccuracy/internal/bootstrap"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded bootstrap evaluation.
type Run struct {
	ID            string                    `json:"run_id"`
	Dataset       string                    `json:"dataset"`
	InputFile     string                    `json:"input_file"`
	Predictor     string                    `json:"predictor"`
	StartedAt     time.Time                 `json:"started_at"`
	Duration      time.Duration             `json:"duration"`
	NResamples    int                       `json:"n_resamples"`
	Seed          uint64                    `json:"seed"`
	NObservations int                       `json:"n_observations"`
	NDropped      int                       `json:"n_dropped"`
	Rows          []bootstrap.StratumResult `json:"rows,omitempty"`
}

// RecordRun stores run and its rows in one transaction. A missing ID is
// filled with a new UUID.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, dataset, input_file, predictor, started_at_ns, duration_ns,
			n_resamples, seed, n_observations, n_dropped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Dataset, run.InputFile, run.Predictor, run.StartedAt.UnixNano(), int64(run.Duration),
		run.NResamples, strconv.FormatUint(run.Seed, 10), run.NObservations, run.NDropped,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_rows (run_id, crop, week, mean_accuracy, accuracy_std, n_observations)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Rows {
		if _, err := stmt.ExecContext(ctx, run.ID, r.CropType, r.Week, r.MeanAccuracy, r.StdAccuracy, r.NObservations); err != nil {
			return fmt.Errorf("failed to insert row %s: %w", r.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `run_id, dataset, input_file, predictor, started_at_ns, duration_ns,
	n_resamples, seed, n_observations, n_dropped`

// ListRuns returns the most recent runs first, without their rows. A
// non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at_ns DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its rows ordered by crop then week.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.QueryContext(ctx, `
		SELECT crop, week, mean_accuracy, accuracy_std, n_observations
		FROM run_rows WHERE run_id = ? ORDER BY crop, week`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load rows of run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		r := bootstrap.StratumResult{NResamples: run.NResamples}
		if err := rows.Scan(&r.CropType, &r.Week, &r.MeanAccuracy, &r.StdAccuracy, &r.NObservations); err != nil {
			return nil, fmt.Errorf("failed to scan row of run %s: %w", id, err)
		}
		run.Rows = append(run.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load rows of run %s: %w", id, err)
	}
	return run, nil
}

// DeleteRun removes a run and, through the foreign key, its rows.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run        Run
		startedNs  int64
		durationNs int64
		seed       string
	)
	err := sc.Scan(&run.ID, &run.Dataset, &run.InputFile, &run.Predictor, &startedNs, &durationNs,
		&run.NResamples, &seed, &run.NObservations, &run.NDropped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt = time.Unix(0, startedNs).UTC()
	run.Duration = time.Duration(durationNs)
	if run.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, fmt.Errorf("run %s: invalid seed %q: %w", run.ID, seed, err)
	}
	return &run, nil
}
