package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/xc-ratings/internal/database"
	"github.com/yourusername/xc-ratings/internal/models"
)

// PostgresRatingChangeRepository implements RatingChangeRepository for PostgreSQL
type PostgresRatingChangeRepository struct {
	db *database.DB
}

// NewPostgresRatingChangeRepository creates a new rating change repository
func NewPostgresRatingChangeRepository(db *database.DB) RatingChangeRepository {
	return &PostgresRatingChangeRepository{db: db}
}

// Create inserts an audit row
func (r *PostgresRatingChangeRepository) Create(ctx context.Context, change *models.RatingChange) error {
	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}
	query := `
		INSERT INTO course_rating_changes (id, course_id, recommendation_id, method, old_rating, new_rating,
			confidence, applied_by, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING applied_at
	`
	err := r.db.Conn(ctx).QueryRow(ctx, query,
		change.ID, change.CourseID, change.RecommendationID, change.Method,
		storedRating(change.OldRating), storedRating(change.NewRating), change.Confidence,
		change.AppliedBy, change.Reason,
	).Scan(&change.AppliedAt)
	if err != nil {
		return fmt.Errorf("failed to record rating change: %w", err)
	}
	return nil
}

// ListByCourse returns a course's rating history, newest first
func (r *PostgresRatingChangeRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*models.RatingChange, error) {
	query := `
		SELECT id, course_id, COALESCE(recommendation_id, '00000000-0000-0000-0000-000000000000'::uuid),
		       method, old_rating, new_rating, confidence, applied_by, reason, applied_at
		FROM course_rating_changes
		WHERE course_id = $1
		ORDER BY applied_at DESC, id
	`
	rows, err := r.db.Conn(ctx).Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating changes: %w", err)
	}
	defer rows.Close()

	var changes []*models.RatingChange
	for rows.Next() {
		c := &models.RatingChange{}
		err := rows.Scan(&c.ID, &c.CourseID, &c.RecommendationID, &c.Method, &c.OldRating,
			&c.NewRating, &c.Confidence, &c.AppliedBy, &c.Reason, &c.AppliedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
