package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/xc-ratings/internal/database"
	"github.com/yourusername/xc-ratings/internal/models"
)

const runColumns = `id, anchor_course_id, anchor_rating, method, parameters, courses_analyzed,
	high_confidence_count, needs_review_count, isolated_count, failed_count, status,
	COALESCE(error_message, ''), started_at, completed_at`

// PostgresRunRepository implements RunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *database.DB
}

// NewPostgresRunRepository creates a new run repository
func NewPostgresRunRepository(db *database.DB) RunRepository {
	return &PostgresRunRepository{db: db}
}

// Create inserts a run in its starting state
func (r *PostgresRunRepository) Create(ctx context.Context, run *models.CalibrationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	query := `
		INSERT INTO calibration_runs (id, anchor_course_id, anchor_rating, method, parameters, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Conn(ctx).Exec(ctx, query,
		run.ID, run.AnchorCourseID, storedRating(run.AnchorRating), run.Method,
		[]byte(run.Parameters), run.Status, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create calibration run: %w", err)
	}
	return nil
}

// Complete stores the final counts and status of a run
func (r *PostgresRunRepository) Complete(ctx context.Context, run *models.CalibrationRun) error {
	query := `
		UPDATE calibration_runs SET
			courses_analyzed = $2, high_confidence_count = $3, needs_review_count = $4,
			isolated_count = $5, failed_count = $6, status = $7, error_message = NULLIF($8, ''),
			completed_at = $9
		WHERE id = $1
	`
	tag, err := r.db.Conn(ctx).Exec(ctx, query,
		run.ID, run.CoursesAnalyzed, run.HighConfidenceCount, run.NeedsReviewCount,
		run.IsolatedCount, run.FailedCount, run.Status, run.ErrorMessage, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to complete calibration run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByID retrieves a run by ID
func (r *PostgresRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CalibrationRun, error) {
	run, err := scanRun(r.db.Conn(ctx).QueryRow(ctx, `SELECT `+runColumns+` FROM calibration_runs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calibration run: %w", err)
	}
	return run, nil
}

// ListRecent returns the latest runs, newest first
func (r *PostgresRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.CalibrationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Conn(ctx).Query(ctx,
		`SELECT `+runColumns+` FROM calibration_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list calibration runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.CalibrationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calibration run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*models.CalibrationRun, error) {
	run := &models.CalibrationRun{}
	var params []byte
	err := row.Scan(
		&run.ID, &run.AnchorCourseID, &run.AnchorRating, &run.Method, &params, &run.CoursesAnalyzed,
		&run.HighConfidenceCount, &run.NeedsReviewCount, &run.IsolatedCount, &run.FailedCount,
		&run.Status, &run.ErrorMessage, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Parameters = params
	return run, nil
}
