package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/xc-ratings/internal/models"
)

func TestImportCourses(t *testing.T) {
	course := &models.Course{ID: uuid.New(), Name: "Riverside", DistanceMeters: models.MetersPerMile, TerrainDifficulty: 1, CurrentRating: 1}
	other := &models.Course{ID: uuid.New(), Name: "Quarry", DistanceMeters: models.MetersPerMile, TerrainDifficulty: 1, CurrentRating: 1}

	valid := result(course.ID, uuid.New(), 330, raceDay)
	known := result(course.ID, uuid.New(), 340, raceDay)
	tooFast := result(course.ID, uuid.New(), 60, raceDay)

	fetcher := newFakeFetcher()
	fetcher.data[course.ID] = &models.CourseObservations{Course: *course, Observations: []models.Observation{valid, known, tooFast}}
	fetcher.errs[other.ID] = errors.New("upstream unavailable")

	courses := &MockCourseRepository{}
	courses.On("List", mock.Anything).Return([]*models.Course{course, other}, nil)

	observations := &MockObservationRepository{}
	observations.On("Import", mock.Anything, mock.MatchedBy(func(o *models.Observation) bool { return o.ID == valid.ID })).Return(true, nil)
	observations.On("Import", mock.Anything, mock.MatchedBy(func(o *models.Observation) bool { return o.ID == known.ID })).Return(false, nil)

	svc := NewImportService(fetcher, courses, observations, quietLogger())
	stats, err := svc.ImportCourses(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Courses)
	assert.Equal(t, 1, stats.FailedCourses)
	assert.Equal(t, 3, stats.Fetched)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, stats.ValidationErrors)
	assert.Contains(t, stats.String(), "Imported=1")
	observations.AssertNumberOfCalls(t, "Import", 2)
}

func TestImportSelectedCourses(t *testing.T) {
	course := &models.Course{ID: uuid.New(), Name: "Riverside", DistanceMeters: models.MetersPerMile, TerrainDifficulty: 1}

	fetcher := newFakeFetcher()
	fetcher.data[course.ID] = &models.CourseObservations{Course: *course}

	courses := &MockCourseRepository{}
	courses.On("GetByID", mock.Anything, course.ID).Return(course, nil)

	svc := NewImportService(fetcher, courses, &MockObservationRepository{}, quietLogger())
	stats, err := svc.ImportCourses(context.Background(), []uuid.UUID{course.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Courses)
	courses.AssertNotCalled(t, "List", mock.Anything)
}

func TestValidateObservation(t *testing.T) {
	course := &models.Course{ID: uuid.New(), DistanceMeters: models.MetersPerMile, TerrainDifficulty: 1}
	v := NewObservationValidator()
	v.now = func() time.Time { return raceDay }

	tests := []struct {
		name       string
		mutate     func(o *models.Observation)
		shouldHave string
	}{
		{name: "valid", mutate: func(o *models.Observation) {}},
		{name: "missing athlete", mutate: func(o *models.Observation) { o.AthleteID = uuid.Nil }, shouldHave: "athlete_id is required"},
		{name: "zero time", mutate: func(o *models.Observation) { o.RaceTime = 0 }, shouldHave: "race time must be positive"},
		{name: "future date", mutate: func(o *models.Observation) { o.RaceDate = raceDay.AddDate(0, 1, 0) }, shouldHave: "in the future"},
		{name: "wrong course", mutate: func(o *models.Observation) { o.CourseID = uuid.New() }, shouldHave: "does not match"},
		{name: "implausibly slow", mutate: func(o *models.Observation) { o.RaceTime = models.CentisecondsFromSeconds(3600) }, shouldHave: "outside"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := result(course.ID, uuid.New(), 330, raceDay)
			tt.mutate(&obs)

			problems := v.ValidateObservation(&obs, course)
			if tt.shouldHave == "" {
				assert.Empty(t, problems)
				return
			}
			require.NotEmpty(t, problems)
			assert.Contains(t, problems[0], tt.shouldHave)
		})
	}
}
