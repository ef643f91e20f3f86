package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/xc-ratings/internal/config"
	"github.com/yourusername/xc-ratings/internal/models"
)

var (
	testCourseID = uuid.MustParse("5a4f1a40-0000-4000-8000-000000000001")
	testAthlete  = uuid.MustParse("5a4f1a40-0000-4000-8000-0000000000a1")
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 2 * time.Millisecond
	cfg.MaxRetries = 2
	cfg.RateLimit = 0
	return NewRateLimitedHTTPClient(cfg, quietLogger())
}

const objectJoinBody = `[
  {"id":"5a4f1a40-0000-4000-8000-0000000000b1","athlete_id":"5a4f1a40-0000-4000-8000-0000000000a1",
   "course_id":"5a4f1a40-0000-4000-8000-000000000001","time_cs":101550,"meet_date":"2024-09-14",
   "courses":{"id":"5a4f1a40-0000-4000-8000-000000000001","name":"Hilltop","distance_meters":5000,
              "terrain_difficulty":1.1,"current_rating":1.05,"rating_confidence":0.4,"is_anchor":false}}
]`

const arrayJoinBody = `[
  {"id":"5a4f1a40-0000-4000-8000-0000000000b2","athlete_id":"5a4f1a40-0000-4000-8000-0000000000a1",
   "course_id":"5a4f1a40-0000-4000-8000-000000000001","time_seconds":1015.5,"meet_date":"2024-09-21T00:00:00Z",
   "courses":[{"id":"5a4f1a40-0000-4000-8000-000000000001","name":"Hilltop","distance_meters":5000,
               "terrain_difficulty":1.1,"current_rating":1.05,"rating_confidence":0.4,"is_anchor":false}]}
]`

func TestResultsAPISourceMapsObjectJoin(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.Equal(t, "/results", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(objectJoinBody))
	}))
	defer server.Close()

	source := NewResultsAPISource(testClient(), server.URL+"/", "secret", quietLogger())
	page, err := source.FetchPage(context.Background(), testCourseID, 10, 5)
	require.NoError(t, err)

	require.Len(t, page.Observations, 1)
	obs := page.Observations[0]
	assert.Equal(t, testAthlete, obs.AthleteID)
	assert.Equal(t, models.Centiseconds(101550), obs.RaceTime)
	assert.Equal(t, time.Date(2024, 9, 14, 0, 0, 0, 0, time.UTC), obs.RaceDate)

	require.NotNil(t, page.Course)
	assert.Equal(t, "Hilltop", page.Course.Name)
	assert.Equal(t, 1.1, page.Course.TerrainDifficulty)

	assert.Contains(t, gotQuery, "offset=10")
	assert.Contains(t, gotQuery, "limit=5")
	assert.Contains(t, gotQuery, "course_id=eq."+testCourseID.String())
}

func TestResultsAPISourceMapsArrayJoin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(arrayJoinBody))
	}))
	defer server.Close()

	page, err := NewResultsAPISource(testClient(), server.URL, "", quietLogger()).
		FetchPage(context.Background(), testCourseID, 0, 5)
	require.NoError(t, err)

	require.Len(t, page.Observations, 1)
	assert.Equal(t, models.Centiseconds(101550), page.Observations[0].RaceTime)
	require.NotNil(t, page.Course)
	assert.Equal(t, 5000.0, page.Course.DistanceMeters)
}

func TestDecodeEmbeddedCourse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantNil bool
		wantErr error
	}{
		{"null", `null`, true, nil},
		{"empty array", `[]`, true, nil},
		{"object", `{"name":"A","distance_meters":1}`, false, nil},
		{"single array", `[{"name":"A","distance_meters":1}]`, false, nil},
		{"ambiguous", `[{"name":"A"},{"name":"B"}]`, true, ErrAmbiguousJoin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course, err := decodeEmbeddedCourse(json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, course == nil)
		})
	}
}

func TestMapRowsRejectsMissingTime(t *testing.T) {
	_, err := MapRows(testCourseID, []ResultsAPIRow{{ID: uuid.New(), MeetDate: "2024-09-14"}})
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestResultsAPISourceAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewResultsAPISource(testClient(), server.URL, "bad", quietLogger()).
		FetchPage(context.Background(), testCourseID, 0, 5)

	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeAuthenticationFailed, dsErr.Code)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestRateLimitedHTTPClientRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	page, err := NewResultsAPISource(testClient(), server.URL, "", quietLogger()).
		FetchPage(context.Background(), testCourseID, 0, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Observations)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRateLimitedHTTPClientCircuitBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 0
	cfg.CircuitBreakerMax = 2
	client := NewRateLimitedHTTPClient(cfg, quietLogger())

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), server.URL)
		require.Error(t, err)
	}
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	client.Reset()
	_, err = client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "circuit breaker open")
}

func TestNewPageSource(t *testing.T) {
	_, err := NewPageSource(config.SourceConfig{Type: config.SourcePostgres}, nil, quietLogger())
	assert.Error(t, err)

	src, err := NewPageSource(config.SourceConfig{
		Type: config.SourceHTTP,
		HTTP: config.HTTPSourceConfig{BaseURL: "https://results.example.org"},
	}, nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "results_api", src.Name())

	_, err = NewPageSource(config.SourceConfig{Type: "csv"}, nil, quietLogger())
	assert.Error(t, err)
}
