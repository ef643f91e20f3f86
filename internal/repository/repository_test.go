package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/xc-ratings/internal/database"
	"github.com/yourusername/xc-ratings/internal/models"
)

func setup(t *testing.T) (*Repositories, context.Context) {
	db := database.SetupTestDB(t)
	database.TruncateAll(t, db)

	repos, err := NewRepositories(db)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return repos, ctx
}

func createCourse(t *testing.T, ctx context.Context, repos *Repositories, name string, anchor bool) *models.Course {
	course := &models.Course{
		Name:              name,
		DistanceMeters:    5000,
		TerrainDifficulty: 1.1,
		CurrentRating:     1.0,
		IsAnchor:          anchor,
	}
	require.NoError(t, repos.Course.Create(ctx, course))
	return course
}

func TestNewRepositoriesRequiresDB(t *testing.T) {
	_, err := NewRepositories(nil)
	assert.Error(t, err)
}

func TestStoredRatingRoundsHalfUp(t *testing.T) {
	assert.Equal(t, "1.234568", storedRating(1.2345675).String())
	assert.Equal(t, "1.1", storedRating(1.1).String())
}

func TestFiniteStatistics(t *testing.T) {
	stats := finiteStatistics(map[string]float64{"ok": 1, "nan": math.NaN(), "inf": math.Inf(1)})
	assert.Equal(t, map[string]float64{"ok": 1}, stats)
}

func TestCourseRepositoryAnchor(t *testing.T) {
	repos, ctx := setup(t)

	_, err := repos.Course.GetAnchor(ctx)
	assert.ErrorIs(t, err, models.ErrNoAnchorCourse)

	anchor := createCourse(t, ctx, repos, "Anchor Park", true)
	createCourse(t, ctx, repos, "Hilltop", false)

	got, err := repos.Course.GetAnchor(ctx)
	require.NoError(t, err)
	assert.Equal(t, anchor.ID, got.ID)

	courses, err := repos.Course.List(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Anchor Park", courses[0].Name)

	// the anchor rating is never updated
	assert.ErrorIs(t, repos.Course.UpdateRating(ctx, anchor.ID, 2, 1), models.ErrNotFound)
}

func TestObservationRepositoryPages(t *testing.T) {
	repos, ctx := setup(t)
	course := createCourse(t, ctx, repos, "Riverside", false)

	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		require.NoError(t, repos.Observation.Create(ctx, &models.Observation{
			AthleteID: uuid.New(),
			CourseID:  course.ID,
			RaceTime:  models.Centiseconds(100000 + i),
			RaceDate:  base.AddDate(0, 0, 7-i),
		}))
	}

	first, err := repos.Observation.FetchPage(ctx, course.ID, 0, 5)
	require.NoError(t, err)
	require.Len(t, first.Observations, 5)
	require.NotNil(t, first.Course)
	assert.Equal(t, "Riverside", first.Course.Name)
	assert.True(t, first.Observations[0].RaceDate.Before(first.Observations[4].RaceDate))

	second, err := repos.Observation.FetchPage(ctx, course.ID, 5, 5)
	require.NoError(t, err)
	assert.Len(t, second.Observations, 2)

	n, err := repos.Observation.CountByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestRecommendationUpsertIsKeyedByCourseAndMethod(t *testing.T) {
	repos, ctx := setup(t)
	anchor := createCourse(t, ctx, repos, "Anchor Park", true)
	course := createCourse(t, ctx, repos, "Hilltop", false)

	run := &models.CalibrationRun{AnchorCourseID: anchor.ID, Method: "both", Parameters: []byte(`{}`),
		Status: models.RunStatusRunning, StartedAt: time.Now()}
	require.NoError(t, repos.Run.Create(ctx, run))

	rec := &models.CalibrationRecommendation{
		RunID: run.ID, CourseID: course.ID, AnchorCourseID: anchor.ID, Method: models.MethodRatio,
		ImpliedRating: 1.155, CurrentRating: 1.1, Confidence: 0.12, SharedAthleteCount: 12,
		Statistics: map[string]float64{"median_ratio": 1.05},
	}
	require.NoError(t, repos.Recommendation.Upsert(ctx, rec))
	firstID := rec.ID

	again := *rec
	again.ID = uuid.Nil
	again.ImpliedRating = 1.2
	require.NoError(t, repos.Recommendation.Upsert(ctx, &again))
	assert.Equal(t, firstID, again.ID)

	list, err := repos.Recommendation.List(ctx, RecommendationFilter{Method: models.MethodRatio})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.InDelta(t, 1.2, list[0].ImpliedRating, 1e-9)
	assert.Equal(t, "Hilltop", list[0].CourseName)
	assert.InDelta(t, 1.05, list[0].Statistics["median_ratio"], 1e-12)

	require.NoError(t, repos.Recommendation.DeleteByCourseAndMethod(ctx, course.ID, models.MethodRatio))
	_, err = repos.Recommendation.GetByID(ctx, firstID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRunLifecycle(t *testing.T) {
	repos, ctx := setup(t)
	anchor := createCourse(t, ctx, repos, "Anchor Park", true)

	run := &models.CalibrationRun{AnchorCourseID: anchor.ID, AnchorRating: 1, Method: "ratio",
		Parameters: []byte(`{"min_shared_athletes":10}`), Status: models.RunStatusRunning, StartedAt: time.Now()}
	require.NoError(t, repos.Run.Create(ctx, run))

	done := time.Now()
	run.Status = models.RunStatusCompleted
	run.CoursesAnalyzed = 3
	run.IsolatedCount = 1
	run.CompletedAt = &done
	require.NoError(t, repos.Run.Complete(ctx, run))

	got, err := repos.Run.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, 3, got.CoursesAnalyzed)
	assert.NotNil(t, got.CompletedAt)
	assert.JSONEq(t, `{"min_shared_athletes":10}`, string(got.Parameters))

	recent, err := repos.Run.ListRecent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
