// Package metrics defines observation fetch metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ObservationFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observation_fetches_total",
		Help:      "Observation fetches per course by source and outcome",
	}, []string{"source", "outcome"})

	ObservationPagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observation_pages_total",
		Help:      "Observation pages read by source",
	}, []string{"source"})

	ObservationCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observation_cache_total",
		Help:      "Observation cache lookups by result",
	}, []string{"result"})
)

var ObservationFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "observation_fetch_duration_seconds",
	Help:      "Duration of a full per-course observation fetch",
	Buckets:   prometheus.DefBuckets,
}, []string{"source"})

// RecordFetch records a completed per-course fetch.
func RecordFetch(source, outcome string, durationSeconds float64) {
	ObservationFetchesTotal.WithLabelValues(source, outcome).Inc()
	ObservationFetchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordPage records one page read from a source.
func RecordPage(source string) {
	ObservationPagesTotal.WithLabelValues(source).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		ObservationCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	ObservationCacheTotal.WithLabelValues("miss").Inc()
}
