// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - Geocoding performance and cache efficiency
// - Place search latency, fallbacks, and result counts
// - Semantic (LLM) scoring latency and token usage
// - Recommendation pipeline throughput and stage timings
// - Upstream AMap API calls and circuit breaker state
// - API endpoint latency and throughput

var (
	// Geocoding Metrics
	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Total number of geocode resolutions",
		},
		[]string{"result"}, // "success", "failure"
	)

	GeocodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geocode_duration_seconds",
			Help:    "Duration of geocode resolutions in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GeocodeRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_retries_total",
			Help: "Total number of relaxed-query geocode retries",
		},
	)

	GeocodeAliasHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_alias_hits_total",
			Help: "Total number of inputs expanded by the alias table",
		},
	)

	// Place Search Metrics
	PlaceSearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "place_search_requests_total",
			Help: "Total number of place searches",
		},
		[]string{"result"}, // "success", "failure"
	)

	PlaceSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "place_search_duration_seconds",
			Help:    "Duration of place searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PlaceSearchFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "place_search_fallbacks_total",
			Help: "Total number of searches that widened to the fallback radius",
		},
	)

	PlaceSearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "place_search_results",
			Help:    "Number of candidates returned per search",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)

	// Semantic Scoring Metrics
	SemanticRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semantic_requests_total",
			Help: "Total number of semantic scoring calls",
		},
		[]string{"result"}, // "success", "failure", "skipped"
	)

	SemanticDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "semantic_duration_seconds",
			Help:    "Duration of semantic scoring calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60}, // LLM calls can take tens of seconds
		},
	)

	SemanticTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semantic_tokens_total",
			Help: "Total number of tokens consumed by semantic scoring",
		},
		[]string{"direction"}, // "input", "output"
	)

	// Recommendation Pipeline Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"mode", "status"}, // status: "ok", "geocode_failed", "no_candidates", "search_failed", "capacity", "validation", "error"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end recommendation duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	RecommendationStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // "resolve", "search", "rank", "semantic", "render"
	)

	RecommendationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendations_in_flight",
			Help: "Current number of recommendation requests being processed",
		},
	)

	RecommendationsQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendations_queued",
			Help: "Current number of recommendation requests waiting for a slot",
		},
	)

	RecommendationRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_rejections_total",
			Help: "Total number of requests rejected because the engine was at capacity",
		},
	)

	CandidatesRanked = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidates_ranked",
			Help:    "Number of candidates scored per recommendation",
			Buckets: []float64{1, 5, 10, 20, 50, 100},
		},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "geocode", "search", "artifact"
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
			Help: "Total number of cache evictions (capacity)",
		},
		[]string{"cache_type"},
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
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

	// Upstream AMap API Metrics
	AmapRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amap_requests_total",
			Help: "Total number of AMap API calls",
		},
		[]string{"endpoint", "result"}, // endpoint: "geocode", "text", "around"; result: "ok", "rate_limited", "error"
	)

	AmapRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amap_request_duration_seconds",
			Help:    "Duration of AMap API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AmapRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amap_retries_total",
			Help: "Total number of AMap request retries",
		},
		[]string{"endpoint", "reason"}, // reason: "network", "http_status", "rate_limited"
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

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Artifact Metrics
	ArtifactsRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "artifacts_rendered_total",
			Help: "Total number of HTML result pages rendered",
		},
	)

	ArtifactStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "artifact_store_entries",
			Help: "Current number of stored result artifacts",
		},
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

// RecordGeocode records a geocode resolution metric
func RecordGeocode(duration time.Duration, retried bool, err error) {
	GeocodeDuration.Observe(duration.Seconds())
	if retried {
		GeocodeRetries.Inc()
	}
	if err != nil {
		GeocodeRequests.WithLabelValues("failure").Inc()
	} else {
		GeocodeRequests.WithLabelValues("success").Inc()
	}
}

// RecordPlaceSearch records a place search metric
func RecordPlaceSearch(duration time.Duration, fallback bool, results int, err error) {
	PlaceSearchDuration.Observe(duration.Seconds())
	if fallback {
		PlaceSearchFallbacks.Inc()
	}
	if err != nil {
		PlaceSearchRequests.WithLabelValues("failure").Inc()
		return
	}
	PlaceSearchRequests.WithLabelValues("success").Inc()
	PlaceSearchResults.Observe(float64(results))
}

// RecordSemanticScore records a semantic scoring call metric
func RecordSemanticScore(duration time.Duration, err error) {
	SemanticDuration.Observe(duration.Seconds())
	if err != nil {
		SemanticRequests.WithLabelValues("failure").Inc()
	} else {
		SemanticRequests.WithLabelValues("success").Inc()
	}
}

// RecordSemanticSkipped records a scoring call that was skipped
// (scorer disabled or rule-only mode selected)
func RecordSemanticSkipped() {
	SemanticRequests.WithLabelValues("skipped").Inc()
}

// RecordSemanticUsage records token consumption for a semantic scoring call
func RecordSemanticUsage(inputTokens, outputTokens int64) {
	SemanticTokens.WithLabelValues("input").Add(float64(inputTokens))
	SemanticTokens.WithLabelValues("output").Add(float64(outputTokens))
}

// RecordRecommendation records an end-to-end recommendation metric.
// The status label is derived from the error message prefix so callers
// can pass the pipeline error through unchanged.
func RecordRecommendation(mode string, duration time.Duration, err error) {
	RecommendationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	status := "ok"
	if err != nil {
		status = "error"
		errorMsg := err.Error()
		if len(errorMsg) > 0 {
			switch {
			case contains(errorMsg, "geocode"):
				status = "geocode_failed"
			case contains(errorMsg, "no candidates"):
				status = "no_candidates"
			case contains(errorMsg, "place search"):
				status = "search_failed"
			case contains(errorMsg, "capacity"):
				status = "capacity"
			case contains(errorMsg, "invalid"):
				status = "validation"
			}
		}
	}
	RecommendationsTotal.WithLabelValues(mode, status).Inc()
}

// RecordStage records the duration of a single pipeline stage
func RecordStage(stage string, duration time.Duration) {
	RecommendationStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
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

// TrackInFlight tracks recommendation requests holding a pipeline slot
func TrackInFlight(inc bool) {
	if inc {
		RecommendationsInFlight.Inc()
	} else {
		RecommendationsInFlight.Dec()
	}
}

// TrackQueued tracks recommendation requests waiting for a pipeline slot
func TrackQueued(inc bool) {
	if inc {
		RecommendationsQueued.Inc()
	} else {
		RecommendationsQueued.Dec()
	}
}

// RecordCacheHit records a cache hit for the given cache type
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCacheEviction records a capacity eviction for the given cache type
func RecordCacheEviction(cacheType string) {
	CacheEvictions.WithLabelValues(cacheType).Inc()
}

// UpdateCacheSize updates the entry count gauge for the given cache type
func UpdateCacheSize(cacheType string, entries int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(entries))
}

// RecordAmapRequest records an AMap API call metric
func RecordAmapRequest(endpoint, result string, duration time.Duration) {
	AmapRequests.WithLabelValues(endpoint, result).Inc()
	AmapRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordAmapRetry records an AMap request retry and its reason
func RecordAmapRetry(endpoint, reason string) {
	AmapRetries.WithLabelValues(endpoint, reason).Inc()
}

// SetAppInfo publishes the application version
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// UpdateUptime updates the uptime gauge from the process start time
func UpdateUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}

// Helper function to check if string starts with substring
func contains(s, substr string) bool {
	return len(s) >= len(substr) && s[:len(substr)] == substr
}
