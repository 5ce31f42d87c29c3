// Package metrics provides Prometheus metrics for the prospect valuation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "afwd"
	subsystem = "valuation"
)

var registry = prometheus.NewRegistry()

// GetRegistry returns the registry backing all service metrics, for use by
// the /healthz metrics handler.
func GetRegistry() *prometheus.Registry {
	return registry
}

var (
	// Cohort store metrics.
	percentileLookups = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "percentile_lookups_total",
		Help: "Total percentile lookups against the cohort store.",
	})
	seasonWidenings = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "season_widenings_total",
		Help: "Lookups that fell back to an earlier season's cohort.",
	})
	noCohort = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "no_cohort_total",
		Help: "Lookups that found no eligible cohort after widening.",
	})
	cohortSnapshotAge = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "cohort_snapshot_age_seconds",
		Help: "Age of the current cohort snapshot.",
	})
	cohortSnapshotReloads = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "cohort_snapshot_reloads_total",
		Help: "Cohort snapshot swaps triggered by the refresh adapter.",
	})

	// Performance aggregation metrics.
	insufficientSample = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "insufficient_sample_total",
		Help: "Performance snapshots rejected for too few events.",
	}, []string{"role"})
	performanceLatency = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name:    "performance_snapshot_duration_ms",
		Help:    "Latency of performance snapshot computation in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	// Fit scoring metrics.
	fitScores = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "fit_scores_total",
		Help: "Fit scores computed, labeled by resulting rating.",
	}, []string{"rating"})
	fitLatency = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name:    "fit_score_duration_ms",
		Help:    "Latency of fit score computation in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	// Ranking metrics.
	rankingBatches = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "ranking_batches_total",
		Help: "Batch ranking runs completed.",
	})
	rankingBatchSize = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "ranking_batch_size",
		Help: "Prospects evaluated in the most recent ranking run.",
	})
	rankingIneligible = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "ranking_ineligible_total",
		Help: "Prospects excluded from rankings by eligibility rules.",
	})
	rankingLatency = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name:    "ranking_batch_duration_ms",
		Help:    "Latency of batch ranking runs in milliseconds.",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
	})
	workerCount = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "ranking_workers",
		Help: "Configured size of the ranking worker pool.",
	})

	// Provider metrics.
	qualityCacheHits = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "quality_cache_total",
		Help: "Quality-signal cache lookups by outcome (hit/miss).",
	}, []string{"outcome"})

	// HTTP metrics.
	httpRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})
	httpDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name:    "http_request_duration_ms",
		Help:    "HTTP request latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"endpoint", "method", "status"})

	// System metrics.
	systemMemory = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "system_memory_bytes",
		Help: "Current heap allocation in bytes.",
	})
	systemGoroutines = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "system_goroutines",
		Help: "Current number of goroutines.",
	})
)

// Cohort store helpers.

func RecordPercentileLookup()     { percentileLookups.Inc() }
func RecordSeasonWidening()       { seasonWidenings.Inc() }
func RecordNoCohort()             { noCohort.Inc() }
func RecordCohortSnapshotReload() { cohortSnapshotReloads.Inc() }

// UpdateCohortSnapshotAge sets the age of the active cohort snapshot.
func UpdateCohortSnapshotAge(seconds float64) { cohortSnapshotAge.Set(seconds) }

// Performance helpers.

func RecordInsufficientSample(role string)     { insufficientSample.WithLabelValues(role).Inc() }
func RecordPerformanceLatency(ms float64)      { performanceLatency.Observe(ms) }

// Fit scoring helpers.

func RecordFitScore(rating string)   { fitScores.WithLabelValues(rating).Inc() }
func RecordFitLatency(ms float64)    { fitLatency.Observe(ms) }

// Ranking helpers.

func RecordRankingBatch(size int, ms float64) {
	rankingBatches.Inc()
	rankingBatchSize.Set(float64(size))
	rankingLatency.Observe(ms)
}

func RecordIneligibleProspect() { rankingIneligible.Inc() }
func UpdateWorkerCount(n int)   { workerCount.Set(float64(n)) }

// Provider helpers.

func RecordQualityCacheHit()  { qualityCacheHits.WithLabelValues("hit").Inc() }
func RecordQualityCacheMiss() { qualityCacheHits.WithLabelValues("miss").Inc() }

// HTTP helpers.

func RecordHTTPRequest(endpoint, method, status string) {
	httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	httpDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// System helpers.

func UpdateSystemMemoryUsage(bytes uint64) { systemMemory.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(n int)     { systemGoroutines.Set(float64(n)) }
