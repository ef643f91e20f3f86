package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/xc-ratings/internal/database"
	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/observation"
)

// PostgresObservationRepository reads results joined with their course
type PostgresObservationRepository struct {
	db *database.DB
}

// NewPostgresObservationRepository creates a new observation repository
func NewPostgresObservationRepository(db *database.DB) ObservationRepository {
	return &PostgresObservationRepository{db: db}
}

// Name identifies this source in metrics and logs
func (r *PostgresObservationRepository) Name() string {
	return "postgres"
}

// FetchPage returns one page of a course's results ordered by race date, then id
func (r *PostgresObservationRepository) FetchPage(ctx context.Context, courseID uuid.UUID, offset, limit int) (*observation.Page, error) {
	query := `
		SELECT r.id, r.athlete_id, r.course_id, r.race_time_cs, r.race_date,
		       c.id, c.name, c.distance_meters, c.terrain_difficulty, c.current_rating,
		       c.rating_confidence, c.is_anchor, c.created_at, c.updated_at
		FROM results r
		JOIN courses c ON c.id = r.course_id
		WHERE r.course_id = $1
		ORDER BY r.race_date, r.id
		OFFSET $2 LIMIT $3
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, courseID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	page := &observation.Page{}
	for rows.Next() {
		var obs models.Observation
		var c models.Course
		err := rows.Scan(
			&obs.ID, &obs.AthleteID, &obs.CourseID, &obs.RaceTime, &obs.RaceDate,
			&c.ID, &c.Name, &c.DistanceMeters, &c.TerrainDifficulty, &c.CurrentRating,
			&c.RatingConfidence, &c.IsAnchor, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if page.Course == nil {
			page.Course = &c
		}
		page.Observations = append(page.Observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return page, nil
}

// Create inserts a result
func (r *PostgresObservationRepository) Create(ctx context.Context, obs *models.Observation) error {
	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}
	query := `
		INSERT INTO results (id, athlete_id, course_id, race_time_cs, race_date)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Conn(ctx).Exec(ctx, query, obs.ID, obs.AthleteID, obs.CourseID, int64(obs.RaceTime), obs.RaceDate)
	if err != nil {
		return fmt.Errorf("failed to create result: %w", err)
	}
	return nil
}

// Import inserts a result unless one with the same id already exists. It
// reports whether a row was written.
func (r *PostgresObservationRepository) Import(ctx context.Context, obs *models.Observation) (bool, error) {
	query := `
		INSERT INTO results (id, athlete_id, course_id, race_time_cs, race_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := r.db.Conn(ctx).Exec(ctx, query, obs.ID, obs.AthleteID, obs.CourseID, int64(obs.RaceTime), obs.RaceDate)
	if err != nil {
		return false, fmt.Errorf("failed to import result: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountByCourse returns the number of results on a course
func (r *PostgresObservationRepository) CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	var n int
	err := r.db.Conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM results WHERE course_id = $1`, courseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return n, nil
}
