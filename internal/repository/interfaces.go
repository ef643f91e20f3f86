package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/observation"
)

// CourseRepository defines the interface for course data access
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	GetAnchor(ctx context.Context) (*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	UpdateRating(ctx context.Context, id uuid.UUID, rating, confidence float64) error
}

// ObservationRepository reads and records race results
type ObservationRepository interface {
	observation.PageSource
	Create(ctx context.Context, obs *models.Observation) error
	Import(ctx context.Context, obs *models.Observation) (bool, error)
	CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error)
}

// RecommendationFilter narrows recommendation listings
type RecommendationFilter struct {
	Method        models.CalibrationMethod
	CourseID      uuid.UUID
	MinConfidence float64
	Limit         int
}

// RecommendationRepository defines the interface for recommendation data access
type RecommendationRepository interface {
	Upsert(ctx context.Context, rec *models.CalibrationRecommendation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CalibrationRecommendation, error)
	List(ctx context.Context, filter RecommendationFilter) ([]*models.CalibrationRecommendation, error)
	DeleteByCourseAndMethod(ctx context.Context, courseID uuid.UUID, method models.CalibrationMethod) error
}

// RunRepository defines the interface for calibration run history
type RunRepository interface {
	Create(ctx context.Context, run *models.CalibrationRun) error
	Complete(ctx context.Context, run *models.CalibrationRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CalibrationRun, error)
	ListRecent(ctx context.Context, limit int) ([]*models.CalibrationRun, error)
}

// RatingChangeRepository records applied rating changes
type RatingChangeRepository interface {
	Create(ctx context.Context, change *models.RatingChange) error
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*models.RatingChange, error)
}
