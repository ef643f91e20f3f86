package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/repository"
)

// ImportService copies results from a remote source into the local results table
type ImportService struct {
	remote       ObservationFetcher
	courses      repository.CourseRepository
	observations repository.ObservationRepository
	validator    *ObservationValidator
	logger       *logrus.Entry
}

// NewImportService creates a new import service
func NewImportService(
	remote ObservationFetcher,
	courses repository.CourseRepository,
	observations repository.ObservationRepository,
	log *logrus.Logger,
) *ImportService {
	return &ImportService{
		remote:       remote,
		courses:      courses,
		observations: observations,
		validator:    NewObservationValidator(),
		logger:       log.WithField("component", "import"),
	}
}

// ImportCourses imports results for the given courses, or every known course
// when ids is empty. A failing course is logged and skipped.
func (s *ImportService) ImportCourses(ctx context.Context, ids []uuid.UUID) (*ImportStats, error) {
	stats := NewImportStats()

	courses, err := s.selectCourses(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("courses", len(courses)).Info("Starting results import")

	for _, course := range courses {
		if ctx.Err() != nil {
			break
		}
		fetched, err := s.importCourse(ctx, course, stats)
		stats.recordCourse(fetched, err)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"course_id":   course.ID,
				"course_name": course.Name,
			}).WithError(err).Warn("Course import failed")
		}
	}

	stats.finish()
	s.logger.Info(stats.String())
	return stats, ctx.Err()
}

func (s *ImportService) selectCourses(ctx context.Context, ids []uuid.UUID) ([]*models.Course, error) {
	if len(ids) == 0 {
		courses, err := s.courses.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list courses: %w", err)
		}
		return courses, nil
	}

	courses := make([]*models.Course, 0, len(ids))
	for _, id := range ids {
		course, err := s.courses.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load course %s: %w", id, err)
		}
		courses = append(courses, course)
	}
	return courses, nil
}

func (s *ImportService) importCourse(ctx context.Context, course *models.Course, stats *ImportStats) (int, error) {
	remote, err := s.remote.Fetch(ctx, *course)
	if err != nil {
		return 0, err
	}

	if remote.Course.DistanceMeters != course.DistanceMeters || remote.Course.TerrainDifficulty != course.TerrainDifficulty {
		s.logger.WithFields(logrus.Fields{
			"course_id":         course.ID,
			"local_distance":    course.DistanceMeters,
			"remote_distance":   remote.Course.DistanceMeters,
			"local_difficulty":  course.TerrainDifficulty,
			"remote_difficulty": remote.Course.TerrainDifficulty,
		}).Warn("Remote course geometry differs from local record")
	}

	for i := range remote.Observations {
		obs := &remote.Observations[i]
		if problems := s.validator.ValidateObservation(obs, course); len(problems) > 0 {
			stats.recordValidationError()
			s.logger.WithFields(logrus.Fields{
				"observation_id": obs.ID,
				"course_id":      course.ID,
				"problems":       problems,
			}).Debug("Skipping invalid result")
			continue
		}

		inserted, err := s.observations.Import(ctx, obs)
		if err != nil {
			stats.recordError()
			return len(remote.Observations), err
		}
		stats.recordImported(inserted)
	}
	return len(remote.Observations), nil
}
