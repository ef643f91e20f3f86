package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRecordRun(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(CalibrationRunsTotal.WithLabelValues("completed"))

	RecordRun("completed", 12.5, 1700000000)

	assert.Equal(t, before+1, testutil.ToFloat64(CalibrationRunsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(LastRunTimestamp))
}

func TestUpdateRunCounts(t *testing.T) {
	InitRegistry()

	UpdateRunCounts(7, 3, 2, 1)

	assert.Equal(t, 7.0, testutil.ToFloat64(LastRunCourses.WithLabelValues("high_confidence")))
	assert.Equal(t, 3.0, testutil.ToFloat64(LastRunCourses.WithLabelValues("needs_review")))
	assert.Equal(t, 2.0, testutil.ToFloat64(LastRunCourses.WithLabelValues("isolated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(LastRunCourses.WithLabelValues("failed")))
}

func TestRecordCacheLookup(t *testing.T) {
	InitRegistry()
	hits := testutil.ToFloat64(ObservationCacheTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(ObservationCacheTotal.WithLabelValues("miss"))

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	assert.Equal(t, hits+1, testutil.ToFloat64(ObservationCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(ObservationCacheTotal.WithLabelValues("miss")))
}

func TestRecordCourseAndRecommendation(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordCourseOutcome("ratio", "ok", 0.02)
		RecordRecommendation("ratio", 0.65)
		RecordFetch("postgres", "ok", 0.1)
		RecordPage("postgres")
		RecordRatingApplied()
	})
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordRun("completed", 1, 1)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "xc_ratings_calibration_runs_total"))
}

func BenchmarkRecordCourseOutcome(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordCourseOutcome("ratio", "ok", 0.01)
	}
}
