package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/xc-ratings/internal/logger"
	"github.com/yourusername/xc-ratings/internal/metrics"
	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/repository"
)

// ErrStaleRecommendation is returned when the course rating moved after the recommendation was produced
var ErrStaleRecommendation = errors.New("course rating changed since the recommendation was produced")

// ratingTolerance absorbs the rounding applied when ratings are stored
const ratingTolerance = 1e-6

// Transactor runs fn inside a single database transaction
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

// ApplyRequest is an operator's decision to adopt a recommendation
type ApplyRequest struct {
	RecommendationID uuid.UUID `validate:"required"`
	AppliedBy        string    `validate:"required,max=255"`
	Reason           string    `validate:"max=1000"`
	// Force applies even if the course rating moved since the run.
	Force bool
}

// ApplyService is the only code path that writes Course.current_rating
type ApplyService struct {
	tx       Transactor
	courses  repository.CourseRepository
	recs     repository.RecommendationRepository
	changes  repository.RatingChangeRepository
	audit    *logger.AuditLogger
	validate *validator.Validate
	now      func() time.Time
}

// NewApplyService creates a new apply service
func NewApplyService(
	tx Transactor,
	courses repository.CourseRepository,
	recs repository.RecommendationRepository,
	changes repository.RatingChangeRepository,
	log *logrus.Logger,
) *ApplyService {
	return &ApplyService{
		tx:       tx,
		courses:  courses,
		recs:     recs,
		changes:  changes,
		audit:    logger.NewAuditLogger(log),
		validate: validator.New(),
		now:      time.Now,
	}
}

// Apply writes the recommended rating to the course and records the change,
// both in one transaction.
func (s *ApplyService) Apply(ctx context.Context, req ApplyRequest) (*models.RatingChange, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid apply request: %w", err)
	}

	rec, err := s.recs.GetByID(ctx, req.RecommendationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation %s: %w", req.RecommendationID, err)
	}
	if !rec.IsApplicable() {
		reason := fmt.Sprintf("method %s with confidence %.3f", rec.Method, rec.Confidence)
		s.audit.LogApplyRejected(rec.ID.String(), req.AppliedBy, reason)
		return nil, fmt.Errorf("%w: %s", models.ErrNotApplicable, reason)
	}

	var change *models.RatingChange
	var courseName string
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		course, err := s.courses.GetByID(ctx, rec.CourseID)
		if err != nil {
			return fmt.Errorf("failed to load course %s: %w", rec.CourseID, err)
		}
		if course.IsAnchor {
			return fmt.Errorf("%w: course %s is the anchor", models.ErrNotApplicable, course.Name)
		}
		if !req.Force && math.Abs(course.CurrentRating-rec.CurrentRating) > ratingTolerance {
			return fmt.Errorf("%w: stored %.6f, recommendation saw %.6f", ErrStaleRecommendation, course.CurrentRating, rec.CurrentRating)
		}
		courseName = course.Name

		if err := s.courses.UpdateRating(ctx, course.ID, rec.ImpliedRating, rec.Confidence); err != nil {
			return fmt.Errorf("failed to update course rating: %w", err)
		}

		change = &models.RatingChange{
			ID:               uuid.New(),
			CourseID:         course.ID,
			RecommendationID: rec.ID,
			Method:           string(rec.Method),
			OldRating:        course.CurrentRating,
			NewRating:        rec.ImpliedRating,
			Confidence:       rec.Confidence,
			AppliedBy:        req.AppliedBy,
			Reason:           req.Reason,
			AppliedAt:        s.now().UTC(),
		}
		if err := s.changes.Create(ctx, change); err != nil {
			return fmt.Errorf("failed to record rating change: %w", err)
		}
		return nil
	})
	if err != nil {
		s.audit.LogApplyRejected(rec.ID.String(), req.AppliedBy, err.Error())
		return nil, err
	}

	metrics.RecordRatingApplied()
	s.audit.LogRatingApplied(change, courseName)
	return change, nil
}
