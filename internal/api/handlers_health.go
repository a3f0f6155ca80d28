// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the payload for GET /health.
type HealthStatus struct {
	Status          string  `json:"status"`
	Version         string  `json:"version"`
	UpstreamBreaker string  `json:"upstream_breaker"`
	SemanticEnabled bool    `json:"semantic_enabled"`
	Uptime          float64 `json:"uptime"`
}

// Health returns overall health. The service is degraded when the map
// provider circuit is open: requests will fail fast until it recovers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	breakerState := "unknown"
	if h.upstream != nil {
		breakerState = h.upstream.BreakerState()
	}

	status := "healthy"
	if breakerState == "open" {
		status = "degraded"
	}

	rw.Success(HealthStatus{
		Status:          status,
		Version:         h.version,
		UpstreamBreaker: breakerState,
		SemanticEnabled: h.semanticEnabled,
		Uptime:          time.Since(h.startTime).Seconds(),
	})
}

// HealthLive is the Kubernetes-style liveness probe. Returns 200 if the
// process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady is the Kubernetes-style readiness probe. Returns 200 when
// the service can serve recommendations, 503 when the map provider
// circuit is open.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.upstream != nil && h.upstream.BreakerState() == "open" {
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Map provider circuit is open")
		return
	}

	rw.Success(map[string]interface{}{
		"ready": true,
	})
}
