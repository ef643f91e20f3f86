package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/observation"
	"github.com/yourusername/xc-ratings/internal/repository"
)

// MockCourseRepository mocks the course repository
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *MockCourseRepository) GetAnchor(ctx context.Context) (*models.Course, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *MockCourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Course), args.Error(1)
}

func (m *MockCourseRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating, confidence float64) error {
	args := m.Called(ctx, id, rating, confidence)
	return args.Error(0)
}

// MockRecommendationRepository mocks the recommendation repository
type MockRecommendationRepository struct {
	mock.Mock
}

func (m *MockRecommendationRepository) Upsert(ctx context.Context, rec *models.CalibrationRecommendation) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CalibrationRecommendation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalibrationRecommendation), args.Error(1)
}

func (m *MockRecommendationRepository) List(ctx context.Context, filter repository.RecommendationFilter) ([]*models.CalibrationRecommendation, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.CalibrationRecommendation), args.Error(1)
}

func (m *MockRecommendationRepository) DeleteByCourseAndMethod(ctx context.Context, courseID uuid.UUID, method models.CalibrationMethod) error {
	args := m.Called(ctx, courseID, method)
	return args.Error(0)
}

// MockRunRepository mocks the run repository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *models.CalibrationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) Complete(ctx context.Context, run *models.CalibrationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CalibrationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalibrationRun), args.Error(1)
}

func (m *MockRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.CalibrationRun, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*models.CalibrationRun), args.Error(1)
}

// MockRatingChangeRepository mocks the rating change repository
type MockRatingChangeRepository struct {
	mock.Mock
}

func (m *MockRatingChangeRepository) Create(ctx context.Context, change *models.RatingChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockRatingChangeRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*models.RatingChange, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).([]*models.RatingChange), args.Error(1)
}

// MockObservationRepository mocks the observation repository
type MockObservationRepository struct {
	mock.Mock
}

func (m *MockObservationRepository) Name() string {
	return "mock"
}

func (m *MockObservationRepository) FetchPage(ctx context.Context, courseID uuid.UUID, offset, limit int) (*observation.Page, error) {
	args := m.Called(ctx, courseID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*observation.Page), args.Error(1)
}

func (m *MockObservationRepository) Create(ctx context.Context, obs *models.Observation) error {
	args := m.Called(ctx, obs)
	return args.Error(0)
}

func (m *MockObservationRepository) Import(ctx context.Context, obs *models.Observation) (bool, error) {
	args := m.Called(ctx, obs)
	return args.Bool(0), args.Error(1)
}

func (m *MockObservationRepository) CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	args := m.Called(ctx, courseID)
	return args.Int(0), args.Error(1)
}

// fakeFetcher serves fixed observations per course
type fakeFetcher struct {
	mu      sync.Mutex
	data    map[uuid.UUID]*models.CourseObservations
	errs    map[uuid.UUID]error
	delays  map[uuid.UUID]time.Duration
	fetched map[uuid.UUID]int
	flushed int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		data:    make(map[uuid.UUID]*models.CourseObservations),
		errs:    make(map[uuid.UUID]error),
		delays:  make(map[uuid.UUID]time.Duration),
		fetched: make(map[uuid.UUID]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, course models.Course) (*models.CourseObservations, error) {
	f.mu.Lock()
	f.fetched[course.ID]++
	delay := f.delays[course.ID]
	err := f.errs[course.ID]
	co, ok := f.data[course.ID]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("unknown course")
	}
	return co, nil
}

func (f *fakeFetcher) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed++
}

func (f *fakeFetcher) fetchCount(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched[id]
}

// fakeTx runs fn inline
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	f.calls++
	return fn(ctx)
}
