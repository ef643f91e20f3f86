package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/xc-ratings/internal/database"
	"github.com/yourusername/xc-ratings/internal/models"
)

const recommendationSelect = `
	SELECT rec.id, rec.run_id, rec.course_id, c.name, rec.anchor_course_id, rec.method,
	       rec.implied_rating, rec.current_rating, rec.confidence, rec.shared_athlete_count,
	       rec.needs_adjustment, rec.severity, rec.statistics, rec.created_at
	FROM calibration_recommendations rec
	JOIN courses c ON c.id = rec.course_id
`

// PostgresRecommendationRepository implements RecommendationRepository for PostgreSQL
type PostgresRecommendationRepository struct {
	db *database.DB
}

// NewPostgresRecommendationRepository creates a new recommendation repository
func NewPostgresRecommendationRepository(db *database.DB) RecommendationRepository {
	return &PostgresRecommendationRepository{db: db}
}

// Upsert writes rec keyed by (course_id, method). On conflict the existing row
// keeps its id and takes every other value from rec.
func (r *PostgresRecommendationRepository) Upsert(ctx context.Context, rec *models.CalibrationRecommendation) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `
		INSERT INTO calibration_recommendations (
			id, run_id, course_id, anchor_course_id, method, implied_rating, current_rating,
			confidence, shared_athlete_count, needs_adjustment, severity, statistics, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (course_id, method) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			anchor_course_id = EXCLUDED.anchor_course_id,
			implied_rating = EXCLUDED.implied_rating,
			current_rating = EXCLUDED.current_rating,
			confidence = EXCLUDED.confidence,
			shared_athlete_count = EXCLUDED.shared_athlete_count,
			needs_adjustment = EXCLUDED.needs_adjustment,
			severity = EXCLUDED.severity,
			statistics = EXCLUDED.statistics,
			created_at = EXCLUDED.created_at
		RETURNING id, created_at
	`
	err := r.db.Conn(ctx).QueryRow(ctx, query,
		rec.ID, rec.RunID, rec.CourseID, rec.AnchorCourseID, string(rec.Method),
		storedRating(rec.ImpliedRating), storedRating(rec.CurrentRating), rec.Confidence,
		rec.SharedAthleteCount, rec.NeedsAdjustment, rec.Severity, finiteStatistics(rec.Statistics),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert recommendation for course %s: %w", rec.CourseID, err)
	}
	return nil
}

// GetByID retrieves a recommendation by ID
func (r *PostgresRecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CalibrationRecommendation, error) {
	rec, err := scanRecommendation(r.db.Conn(ctx).QueryRow(ctx, recommendationSelect+` WHERE rec.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}
	return rec, nil
}

// List returns recommendations ordered by discrepancy, largest first
func (r *PostgresRecommendationRepository) List(ctx context.Context, filter RecommendationFilter) ([]*models.CalibrationRecommendation, error) {
	var conditions []string
	var args []any
	if filter.Method != "" {
		args = append(args, string(filter.Method))
		conditions = append(conditions, fmt.Sprintf("rec.method = $%d", len(args)))
	}
	if filter.CourseID != uuid.Nil {
		args = append(args, filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("rec.course_id = $%d", len(args)))
	}
	if filter.MinConfidence > 0 {
		args = append(args, filter.MinConfidence)
		conditions = append(conditions, fmt.Sprintf("rec.confidence >= $%d", len(args)))
	}

	query := recommendationSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY ABS(rec.implied_rating - rec.current_rating) DESC, c.name, rec.course_id, rec.method"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*models.CalibrationRecommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteByCourseAndMethod removes a superseded recommendation, if any
func (r *PostgresRecommendationRepository) DeleteByCourseAndMethod(ctx context.Context, courseID uuid.UUID, method models.CalibrationMethod) error {
	_, err := r.db.Conn(ctx).Exec(ctx,
		`DELETE FROM calibration_recommendations WHERE course_id = $1 AND method = $2`,
		courseID, string(method))
	if err != nil {
		return fmt.Errorf("failed to delete %s recommendation for course %s: %w", method, courseID, err)
	}
	return nil
}

func scanRecommendation(row pgx.Row) (*models.CalibrationRecommendation, error) {
	rec := &models.CalibrationRecommendation{}
	var method string
	err := row.Scan(
		&rec.ID, &rec.RunID, &rec.CourseID, &rec.CourseName, &rec.AnchorCourseID, &method,
		&rec.ImpliedRating, &rec.CurrentRating, &rec.Confidence, &rec.SharedAthleteCount,
		&rec.NeedsAdjustment, &rec.Severity, &rec.Statistics, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Method = models.CalibrationMethod(method)
	return rec, nil
}
