// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog (DuckDB) Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB catalog queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB catalog query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Model Metrics
	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_model_version",
			Help: "Artifact version currently served (0 = none loaded)",
		},
	)

	ModelRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_model_titles",
			Help: "Number of titles (matrix rows) in the served model",
		},
	)

	ModelCols = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_model_users",
			Help: "Number of users (matrix columns) in the served model",
		},
	)

	ModelCoverage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_model_coverage_ratio",
			Help: "Share of all distinct titles that survived the filters",
		},
	)

	ModelReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_model_reloads_total",
			Help: "Total number of model reload attempts",
		},
		[]string{"trigger", "result"}, // trigger: "startup", "poll", "event"
	)

	// Pipeline Metrics
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_pipeline_stage_duration_seconds",
			Help:    "Duration of build pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_pipeline_runs_total",
			Help: "Total number of build pipeline runs",
		},
		[]string{"result"},
	)

	PipelineLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last successful build",
		},
	)

	// Recommendation Metrics
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookshelf_recommend_duration_seconds",
			Help:    "Duration of nearest-neighbor queries in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_recommend_requests_total",
			Help: "Total number of recommendation queries",
		},
		[]string{"result"}, // "ok", "not_found", "invalid", "error"
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "memory", "redis"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (capacity or TTL)",
		},
		[]string{"cache_type"},
	)

	// Session Metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookshelf_sessions_active",
			Help: "Sessions counted at the last cleanup pass",
		},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_session_transitions_total",
			Help: "Total number of view transitions",
		},
		[]string{"transition", "result"},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookshelf_sessions_expired_total",
			Help: "Total number of sessions removed by cleanup",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_events_published_total",
			Help: "Total number of model events published",
		},
		[]string{"backend", "result"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_events_consumed_total",
			Help: "Total number of model events consumed",
		},
		[]string{"backend"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// maxErrorLabel bounds error_type label length.
const maxErrorLabel = 50

// RecordDBQuery records a catalog query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > maxErrorLabel {
			errorType = errorType[:maxErrorLabel]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordModelLoaded publishes the gauges describing the served model.
func RecordModelLoaded(version, rows, cols int, coverage float64) {
	ModelVersion.Set(float64(version))
	ModelRows.Set(float64(rows))
	ModelCols.Set(float64(cols))
	ModelCoverage.Set(coverage)
}

// RecordModelReload counts a reload attempt.
func RecordModelReload(trigger string, err error) {
	ModelReloads.WithLabelValues(trigger, resultLabel(err)).Inc()
}

// RecordPipelineStage observes one pipeline stage.
func RecordPipelineStage(stage string, duration time.Duration) {
	PipelineDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordPipelineRun counts a finished pipeline run.
func RecordPipelineRun(err error) {
	PipelineRuns.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		PipelineLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordRecommend records a recommendation query outcome.
func RecordRecommend(result string, duration time.Duration) {
	RecommendRequests.WithLabelValues(result).Inc()
	RecommendDuration.Observe(duration.Seconds())
}

// RecordSessionTransition counts a view transition.
func RecordSessionTransition(transition string, err error) {
	SessionTransitions.WithLabelValues(transition, resultLabel(err)).Inc()
}

// RecordEventPublished counts a published model event.
func RecordEventPublished(backend string, err error) {
	EventsPublished.WithLabelValues(backend, resultLabel(err)).Inc()
}

// SetAppInfo sets the build information gauge.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}

// UpdateUptime sets the uptime gauge from the process start time.
func UpdateUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}

// StatusLabel converts an HTTP status code to its label value.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
