package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/survivalburger/storyteller/internal/models"
)

// Run repository errors.
var (
	ErrRunNotFound = errors.New("run not found")
	ErrInvalidRun  = errors.New("invalid run record")
)

const runColumns = `id, run_id, phase, language, lines_shown, lines_total,
	skipped, elapsed_ms, destination, completed_at`

// RunRepository handles finished run persistence.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a finished run.
func (r *RunRepository) Create(ctx context.Context, record *models.RunRecord) error {
	if record == nil || record.RunID == "" || record.Phase == "" || record.Language == "" {
		return ErrInvalidRun
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CompletedAt.IsZero() {
		record.CompletedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.RunID,
		string(record.Phase),
		string(record.Language),
		record.LinesShown,
		record.LinesTotal,
		record.Skipped,
		record.Elapsed.Milliseconds(),
		nullString(record.Destination),
		record.CompletedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// SetDestination records where a run led.
func (r *RunRepository) SetDestination(ctx context.Context, runID, destination string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE runs SET destination = ? WHERE run_id = ?`, destination, runID)
	if err != nil {
		return fmt.Errorf("failed to update run destination: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetByRunID retrieves a run by the sequencer run ID.
func (r *RunRepository) GetByRunID(ctx context.Context, runID string) (*models.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)

	record, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return record, err
}

// Query retrieves runs matching the filters, newest first.
func (r *RunRepository) Query(ctx context.Context, q models.RunQuery) ([]*models.RunRecord, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := []any{}

	if q.Phase != nil {
		query += ` AND phase = ?`
		args = append(args, string(*q.Phase))
	}
	if q.Language != nil {
		query += ` AND language = ?`
		args = append(args, string(*q.Language))
	}
	if q.Skipped != nil {
		query += ` AND skipped = ?`
		args = append(args, *q.Skipped)
	}
	if q.Since != nil {
		query += ` AND completed_at >= ?`
		args = append(args, q.Since.UTC().Format(timeFormat))
	}

	query += ` ORDER BY completed_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []*models.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return records, nil
}

// Summarize aggregates runs per phase and language.
func (r *RunRepository) Summarize(ctx context.Context, since *time.Time) ([]*models.RunSummary, error) {
	query := `SELECT
		phase,
		language,
		COUNT(*) as runs,
		COALESCE(SUM(skipped), 0) as skipped,
		COALESCE(SUM(lines_shown), 0) as lines_shown,
		COALESCE(SUM(elapsed_ms), 0) as elapsed_ms
		FROM runs WHERE 1=1`
	args := []any{}

	if since != nil {
		query += ` AND completed_at >= ?`
		args = append(args, since.UTC().Format(timeFormat))
	}
	query += ` GROUP BY phase, language ORDER BY phase, language`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize runs: %w", err)
	}
	defer rows.Close()

	var summaries []*models.RunSummary
	for rows.Next() {
		var s models.RunSummary
		var phase, language string
		var elapsedMS int64
		if err := rows.Scan(&phase, &language, &s.Runs, &s.Skipped, &s.LinesShown, &elapsedMS); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		s.Phase = models.Phase(phase)
		s.Language = models.Language(language)
		s.TotalElapsed = time.Duration(elapsedMS) * time.Millisecond
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run summaries: %w", err)
	}

	return summaries, nil
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var record models.RunRecord
	var phase, language, completedAt string
	var destination sql.NullString
	var elapsedMS int64

	err := row.Scan(
		&record.ID,
		&record.RunID,
		&phase,
		&language,
		&record.LinesShown,
		&record.LinesTotal,
		&record.Skipped,
		&elapsedMS,
		&destination,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	record.Phase = models.Phase(phase)
	record.Language = models.Language(language)
	record.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	if destination.Valid {
		record.Destination = destination.String
	}
	if t, err := time.Parse(timeFormat, completedAt); err == nil {
		record.CompletedAt = t
	}

	return &record, nil
}
