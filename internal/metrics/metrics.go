// Package metrics provides the centralized Prometheus metrics registry for calibration runs.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xc_ratings"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	CalibrationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calibration_runs_total",
		Help:      "Total number of calibration runs by final status",
	}, []string{"status"})
	CourseOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "course_outcomes_total",
		Help:      "Total number of course analyses by method and outcome",
	}, []string{"method", "outcome"})
	RecommendationsUpsertedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_upserted_total",
		Help:      "Total number of recommendation rows written",
	}, []string{"method"})
	RatingsAppliedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratings_applied_total",
		Help:      "Total number of recommendations applied by an operator",
	})
)

// Gauge metrics
var (
	LastRunCourses = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_courses",
		Help:      "Course counts of the most recent run by category",
	}, []string{"category"})
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the most recent run completed",
	})
)

// Histogram metrics
var (
	CalibrationRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "calibration_run_duration_seconds",
		Help:      "Duration of calibration runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
	CourseAnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "course_analysis_duration_seconds",
		Help:      "Duration of a single course analysis in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	RecommendationConfidence = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommendation_confidence",
		Help:      "Confidence of produced recommendations",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	}, []string{"method"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(CalibrationRunsTotal)
		registry.MustRegister(CourseOutcomesTotal)
		registry.MustRegister(RecommendationsUpsertedTotal)
		registry.MustRegister(RatingsAppliedTotal)

		registry.MustRegister(LastRunCourses)
		registry.MustRegister(LastRunTimestamp)

		registry.MustRegister(CalibrationRunDuration)
		registry.MustRegister(CourseAnalysisDuration)
		registry.MustRegister(RecommendationConfidence)

		// Register observation fetch metrics
		registry.MustRegister(ObservationFetchesTotal)
		registry.MustRegister(ObservationPagesTotal)
		registry.MustRegister(ObservationCacheTotal)
		registry.MustRegister(ObservationFetchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRun records a finished run.
func RecordRun(status string, durationSeconds float64, completedUnix float64) {
	CalibrationRunsTotal.WithLabelValues(status).Inc()
	CalibrationRunDuration.Observe(durationSeconds)
	LastRunTimestamp.Set(completedUnix)
}

// UpdateRunCounts sets the per-category course gauges for the latest run.
func UpdateRunCounts(highConfidence, needsReview, isolated, failed int) {
	LastRunCourses.WithLabelValues("high_confidence").Set(float64(highConfidence))
	LastRunCourses.WithLabelValues("needs_review").Set(float64(needsReview))
	LastRunCourses.WithLabelValues("isolated").Set(float64(isolated))
	LastRunCourses.WithLabelValues("failed").Set(float64(failed))
}

// RecordCourseOutcome records one course analysis.
func RecordCourseOutcome(method, outcome string, durationSeconds float64) {
	CourseOutcomesTotal.WithLabelValues(method, outcome).Inc()
	CourseAnalysisDuration.Observe(durationSeconds)
}

// RecordRecommendation records an upserted recommendation.
func RecordRecommendation(method string, confidence float64) {
	RecommendationsUpsertedTotal.WithLabelValues(method).Inc()
	RecommendationConfidence.WithLabelValues(method).Observe(confidence)
}

// RecordRatingApplied records an operator applying a recommendation.
func RecordRatingApplied() {
	RatingsAppliedTotal.Inc()
}
