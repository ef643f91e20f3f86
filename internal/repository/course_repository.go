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

const courseColumns = `id, name, distance_meters, terrain_difficulty, current_rating,
	rating_confidence, is_anchor, created_at, updated_at`

// PostgresCourseRepository implements CourseRepository for PostgreSQL
type PostgresCourseRepository struct {
	db *database.DB
}

// NewPostgresCourseRepository creates a new course repository
func NewPostgresCourseRepository(db *database.DB) CourseRepository {
	return &PostgresCourseRepository{db: db}
}

// Create inserts a new course
func (r *PostgresCourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	query := `
		INSERT INTO courses (id, name, distance_meters, terrain_difficulty, current_rating, rating_confidence, is_anchor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRow(ctx, query,
		course.ID, course.Name, course.DistanceMeters, course.TerrainDifficulty,
		storedRating(course.CurrentRating), course.RatingConfidence, course.IsAnchor,
	).Scan(&course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

// GetByID retrieves a course by ID
func (r *PostgresCourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	course, err := scanCourse(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// GetAnchor returns the single anchor course
func (r *PostgresCourseRepository) GetAnchor(ctx context.Context) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE is_anchor ORDER BY id LIMIT 2`

	rows, err := r.db.Conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query anchor course: %w", err)
	}
	defer rows.Close()

	var anchors []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		anchors = append(anchors, course)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(anchors) {
	case 0:
		return nil, models.ErrNoAnchorCourse
	case 1:
		return anchors[0], nil
	default:
		return nil, models.ErrMultipleAnchors
	}
}

// List returns every course ordered by name, then id
func (r *PostgresCourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY name, id`

	rows, err := r.db.Conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// UpdateRating stores a new rating. Only the apply command calls this.
func (r *PostgresCourseRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating, confidence float64) error {
	query := `
		UPDATE courses
		SET current_rating = $2, rating_confidence = $3, updated_at = NOW()
		WHERE id = $1 AND NOT is_anchor
	`
	tag, err := r.db.Conn(ctx).Exec(ctx, query, id, storedRating(rating), confidence)
	if err != nil {
		return fmt.Errorf("failed to update course rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	c := &models.Course{}
	err := row.Scan(
		&c.ID, &c.Name, &c.DistanceMeters, &c.TerrainDifficulty, &c.CurrentRating,
		&c.RatingConfidence, &c.IsAnchor, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
