// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements comprehensive application instrumentation using the Prometheus
client library, exposing metrics for monitoring performance, errors, and system health.

# Overview

The package provides metrics for:
  - Geocoding latency, retries, and alias expansion
  - Place search latency, radius fallbacks, and result counts
  - Semantic (LLM) scoring latency and token usage
  - Recommendation pipeline throughput, stage timings, and capacity
  - Upstream AMap API calls and circuit breaker state
  - Cache hit/miss rates for the geocode and search caches
  - HTTP request latency and throughput

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:4326/metrics

# Available Metrics

Geocoding Metrics:
  - geocode_requests_total: Geocode resolutions (counter)
    Labels: result (success, failure)
  - geocode_duration_seconds: Resolution latency (histogram)
  - geocode_retries_total: Relaxed-query retries after a soft failure (counter)
  - geocode_alias_hits_total: Inputs expanded by the alias table (counter)

Place Search Metrics:
  - place_search_requests_total: Place searches (counter)
    Labels: result (success, failure)
  - place_search_duration_seconds: Search latency (histogram)
  - place_search_fallbacks_total: Searches widened to the fallback radius (counter)
  - place_search_results: Candidates returned per search (histogram)

Semantic Scoring Metrics:
  - semantic_requests_total: Scoring calls (counter)
    Labels: result (success, failure, skipped)
  - semantic_duration_seconds: Scoring latency (histogram)
    Buckets: 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60
  - semantic_tokens_total: Token consumption (counter)
    Labels: direction (input, output)

Recommendation Pipeline Metrics:
  - recommendations_total: Recommendation requests (counter)
    Labels: mode, status
  - recommendation_duration_seconds: End-to-end latency (histogram)
    Labels: mode
  - recommendation_stage_duration_seconds: Per-stage latency (histogram)
    Labels: stage (resolve, search, rank, semantic, render)
  - recommendations_in_flight: Requests holding a pipeline slot (gauge)
  - recommendations_queued: Requests waiting for a slot (gauge)
  - recommendation_rejections_total: Requests rejected at capacity (counter)
  - candidates_ranked: Candidates scored per recommendation (histogram)

Upstream API Metrics:
  - amap_requests_total: AMap API calls (counter)
    Labels: endpoint (geocode, text, around), result (ok, rate_limited, error)
  - amap_request_duration_seconds: AMap call latency (histogram)
    Labels: endpoint
  - amap_retries_total: AMap request retries (counter)
    Labels: endpoint, reason (network, http_status, rate_limited)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests through the breaker (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_consecutive_failures: Consecutive failures (gauge)
    Labels: name
  - circuit_breaker_state_transitions_total: State transitions (counter)
    Labels: name, from_state, to_state

Cache Metrics:
  - cache_hits_total: Cache hits (counter)
    Labels: cache_type (geocode, search, artifact)
  - cache_misses_total: Cache misses (counter)
    Labels: cache_type
  - cache_evictions_total: Capacity evictions (counter)
    Labels: cache_type
  - cache_entries: Current entry count (gauge)
    Labels: cache_type

HTTP Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

# Usage Example

Metrics self-register on import via promauto. Basic setup in main.go:

	import (
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	    "github.com/tomtom215/confluo/internal/metrics"
	)

	func main() {
	    metrics.SetAppInfo(version)

	    // Register metrics endpoint
	    http.Handle("/metrics", promhttp.Handler())

	    // Record metrics
	    metrics.RecordGeocode(23*time.Millisecond, false, nil)
	    metrics.RecordPlaceSearch(120*time.Millisecond, false, 18, nil)
	    metrics.RecordRecommendation("blended", 2300*time.Millisecond, nil)
	}

Recording pipeline metrics from the orchestrator:

	start := time.Now()
	result, err := o.runPipeline(ctx, req)
	metrics.RecordRecommendation(string(req.Mode), time.Since(start), err)

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'confluo'
	    static_configs:
	      - targets: ['localhost:4326']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

# Grafana Dashboards

The metrics support Grafana dashboards with panels for:

  - Recommendation rate and latency (p50, p95, p99 percentiles)
  - Pipeline stage breakdown (resolve vs search vs rank vs semantic)
  - Geocode and search cache hit rates
  - AMap call rate, retry rate, and circuit breaker state
  - Semantic scoring latency and token spend
  - Capacity pressure (in-flight, queued, rejections)

Example PromQL queries:

	# Recommendation request rate
	rate(recommendations_total[5m])

	# Recommendation p95 latency by mode
	histogram_quantile(0.95, rate(recommendation_duration_seconds_bucket[5m]))

	# Geocode cache hit rate
	sum(rate(cache_hits_total{cache_type="geocode"}[5m]))
	/
	(sum(rate(cache_hits_total{cache_type="geocode"}[5m])) + sum(rate(cache_misses_total{cache_type="geocode"}[5m])))

	# Fallback radius ratio
	rate(place_search_fallbacks_total[5m]) / rate(place_search_requests_total[5m])

	# Semantic token spend per hour
	rate(semantic_tokens_total[1h]) * 3600

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

To prevent high cardinality issues:

  - Endpoint labels use chi route patterns, not raw URLs
  - Recommendation status values are limited to a fixed set
  - Cache types and pipeline stages are predefined constants
  - User-supplied strings (locations, keywords) never become labels

# Alerting Rules

Example Prometheus alerting rules:

	groups:
	  - name: confluo
	    rules:
	      - alert: HighGeocodeFailureRate
	        expr: |
	          sum(rate(geocode_requests_total{result="failure"}[5m]))
	          /
	          sum(rate(geocode_requests_total[5m]))
	          > 0.2
	        for: 5m
	        annotations:
	          summary: "Geocode failure rate: {{ $value }}%"

	      - alert: CircuitBreakerOpen
	        expr: circuit_breaker_state == 2
	        for: 2m
	        annotations:
	          summary: "Circuit breaker open for {{ $labels.name }}"

	      - alert: CapacityRejections
	        expr: rate(recommendation_rejections_total[5m]) > 0.1
	        for: 5m
	        annotations:
	          summary: "Recommendation engine shedding load"

# See Also

  - internal/middleware: HTTP middleware with metrics integration
  - internal/amap: Upstream client and circuit breaker metrics recording
  - internal/recommend: Pipeline metrics recording
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
  - https://prometheus.io/docs/practices/instrumentation/: Instrumentation guide
*/
package metrics
