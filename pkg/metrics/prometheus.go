// Package metrics provides Prometheus metrics for the draft coach.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the coach.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Poll loop
	pollTicks          prometheus.Counter
	pollErrors         prometheus.Counter
	snapshotsMalformed prometheus.Counter
	reconcileChanges   prometheus.Counter
	sessionsStarted    prometheus.Counter
	sessionsCompleted  prometheus.Counter

	// Lookup cache
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	cacheWarmSize prometheus.Gauge

	// Statistics source
	sourceQueryLatency prometheus.Histogram
	sourceQueryErrors  prometheus.Counter

	// Advisory output
	pickAdviceIssued prometheus.Counter
	banAdviceIssued  prometheus.Counter
	dispatchAttempts prometheus.Counter
	dispatchFailures prometheus.Counter

	// Acquisition pipeline
	acquisitionJobs    prometheus.Counter
	acquisitionRetries prometheus.Counter
	acquisitionFailed  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "draftcoach",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.pollTicks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "poll_ticks_total",
		Help:      "Total number of poll loop iterations",
	})
	m.pollErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "poll_errors_total",
		Help:      "Total number of ticks skipped due to transport errors",
	})
	m.snapshotsMalformed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_malformed_total",
		Help:      "Total number of snapshots rejected as malformed",
	})
	m.reconcileChanges = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_changes_total",
		Help:      "Total number of ticks where the draft state changed",
	})
	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_started_total",
		Help:      "Total number of draft sessions observed",
	})
	m.sessionsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_completed_total",
		Help:      "Total number of draft sessions that reached completion",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total number of lookup cache hits",
	})
	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Total number of lookup cache misses (live source queries)",
	})
	m.cacheWarmSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_warm_size",
		Help:      "Number of candidates in the currently warmed pool",
	})

	m.sourceQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_query_latency_milliseconds",
		Help:      "Statistics source query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.sourceQueryErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_query_errors_total",
		Help:      "Total number of failed statistics source queries",
	})

	m.pickAdviceIssued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pick_advice_issued_total",
		Help:      "Total number of pick recommendation sets produced",
	})
	m.banAdviceIssued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ban_advice_issued_total",
		Help:      "Total number of ban recommendation sets produced",
	})
	m.dispatchAttempts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_attempts_total",
		Help:      "Total number of advisory selections dispatched",
	})
	m.dispatchFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_failures_total",
		Help:      "Total number of advisory dispatches rejected by the session",
	})

	m.acquisitionJobs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "acquisition",
		Name:      "jobs_total",
		Help:      "Total number of refresh jobs processed",
	})
	m.acquisitionRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "acquisition",
		Name:      "retries_total",
		Help:      "Total number of refresh job retries",
	})
	m.acquisitionFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "acquisition",
		Name:      "jobs_failed_total",
		Help:      "Total number of refresh jobs abandoned after retries",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Current memory usage in bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Current number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordPollTick increments the poll tick counter.
func RecordPollTick() {
	globalManager.pollTicks.Inc()
}

// RecordPollError increments the transport error counter.
func RecordPollError() {
	globalManager.pollErrors.Inc()
}

// RecordSnapshotMalformed increments the malformed snapshot counter.
func RecordSnapshotMalformed() {
	globalManager.snapshotsMalformed.Inc()
}

// RecordReconcileChange increments the state change counter.
func RecordReconcileChange() {
	globalManager.reconcileChanges.Inc()
}

// RecordSessionStarted increments the session counter.
func RecordSessionStarted() {
	globalManager.sessionsStarted.Inc()
}

// RecordSessionCompleted increments the completed session counter.
func RecordSessionCompleted() {
	globalManager.sessionsCompleted.Inc()
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// UpdateCacheWarmSize sets the warmed pool size gauge.
func UpdateCacheWarmSize(size int) {
	globalManager.cacheWarmSize.Set(float64(size))
}

// RecordSourceQueryLatency records a source query latency in milliseconds.
func RecordSourceQueryLatency(latencyMs float64) {
	globalManager.sourceQueryLatency.Observe(latencyMs)
}

// RecordSourceQueryError increments the source error counter.
func RecordSourceQueryError() {
	globalManager.sourceQueryErrors.Inc()
}

// RecordPickAdvice increments the pick advice counter.
func RecordPickAdvice() {
	globalManager.pickAdviceIssued.Inc()
}

// RecordBanAdvice increments the ban advice counter.
func RecordBanAdvice() {
	globalManager.banAdviceIssued.Inc()
}

// RecordDispatchAttempt increments the dispatch counter.
func RecordDispatchAttempt() {
	globalManager.dispatchAttempts.Inc()
}

// RecordDispatchFailure increments the dispatch failure counter.
func RecordDispatchFailure() {
	globalManager.dispatchFailures.Inc()
}

// RecordAcquisitionJob increments the refresh job counter.
func RecordAcquisitionJob() {
	globalManager.acquisitionJobs.Inc()
}

// RecordAcquisitionRetry increments the refresh retry counter.
func RecordAcquisitionRetry() {
	globalManager.acquisitionRetries.Inc()
}

// RecordAcquisitionFailure increments the abandoned job counter.
func RecordAcquisitionFailure() {
	globalManager.acquisitionFailed.Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
