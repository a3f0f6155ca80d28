// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/confluo/internal/cache"
	"github.com/tomtom215/confluo/internal/logging"
	"github.com/tomtom215/confluo/internal/models"
	"github.com/tomtom215/confluo/internal/render"
	"github.com/tomtom215/confluo/internal/validation"
)

// maxRequestBodyBytes bounds recommendation request bodies. The largest
// legitimate request (10 locations, 10 requirements) is well under 8 KiB.
const maxRequestBodyBytes = 64 * 1024

// Recommender runs the recommendation pipeline; satisfied by
// *recommend.Orchestrator.
type Recommender interface {
	Recommend(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResult, error)
}

// ArtifactStore fetches stored result pages; satisfied by *render.Renderer.
type ArtifactStore interface {
	Get(id string) (render.Artifact, bool)
	StoreStats() cache.Stats
}

// UpstreamStatus reports the map provider circuit state; satisfied by
// *amap.Client.
type UpstreamStatus interface {
	BreakerState() string
}

// CacheStatsFunc supplies cache counters for the status endpoint.
type CacheStatsFunc func() cache.Stats

// InFlightFunc reports the number of recommendations currently executing.
type InFlightFunc func() int

// Handler holds dependencies for all HTTP handlers.
type Handler struct {
	recommender Recommender
	artifacts   ArtifactStore
	upstream    UpstreamStatus
	semantic    UpstreamStatus

	geocodeCacheStats CacheStatsFunc
	searchCacheStats  CacheStatsFunc
	inFlight          InFlightFunc

	semanticEnabled bool
	version         string
	startTime       time.Time
}

// HandlerConfig collects the Handler's dependencies.
type HandlerConfig struct {
	Recommender       Recommender
	Artifacts         ArtifactStore
	Upstream          UpstreamStatus
	Semantic          UpstreamStatus
	GeocodeCacheStats CacheStatsFunc
	SearchCacheStats  CacheStatsFunc
	InFlight          InFlightFunc
	SemanticEnabled   bool
	Version           string
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		recommender:       cfg.Recommender,
		artifacts:         cfg.Artifacts,
		upstream:          cfg.Upstream,
		semantic:          cfg.Semantic,
		geocodeCacheStats: cfg.GeocodeCacheStats,
		searchCacheStats:  cfg.SearchCacheStats,
		inFlight:          cfg.InFlight,
		semanticEnabled:   cfg.SemanticEnabled,
		version:           cfg.Version,
		startTime:         time.Now(),
	}
}

// Recommend handles POST /api/v1/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.RecommendationRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			rw.BadRequest("Request body too large")
			return
		}
		rw.BadRequest("Invalid JSON request body")
		return
	}
	req.Normalize()
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	result, err := h.recommender.Recommend(r.Context(), &req)
	if err != nil {
		writePipelineError(rw, w, err)
		return
	}

	rw.Success(result)
}

// Result handles GET /api/v1/results/{id}, returning the stored HTML page.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := chi.URLParam(r, "id")
	if id == "" {
		rw.BadRequest("Missing result ID")
		return
	}

	artifact, ok := h.artifacts.Get(id)
	if !ok {
		rw.NotFound("Result page not found or expired")
		return
	}

	// Artifacts are immutable once stored, so the ID doubles as a strong ETag.
	etag := `"` + artifact.ID + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, artifact.HTML); err != nil {
		logging.Error().Err(err).Str("artifact_id", id).Msg("Failed to write result page")
	}
}

// StatusResponse is the payload for GET /api/v1/status.
type StatusResponse struct {
	Version         string         `json:"version"`
	UptimeSeconds   int64          `json:"uptime_seconds"`
	UpstreamBreaker string         `json:"upstream_breaker"`
	SemanticBreaker string         `json:"semantic_breaker,omitempty"`
	SemanticEnabled bool           `json:"semantic_enabled"`
	InFlight        int            `json:"in_flight"`
	Caches          map[string]any `json:"caches"`
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	caches := map[string]any{}
	if h.geocodeCacheStats != nil {
		caches["geocode"] = h.geocodeCacheStats()
	}
	if h.searchCacheStats != nil {
		caches["search"] = h.searchCacheStats()
	}
	if h.artifacts != nil {
		caches["artifacts"] = h.artifacts.StoreStats()
	}

	breakerState := "unknown"
	if h.upstream != nil {
		breakerState = h.upstream.BreakerState()
	}

	semanticState := ""
	if h.semantic != nil {
		semanticState = h.semantic.BreakerState()
	}

	inFlight := 0
	if h.inFlight != nil {
		inFlight = h.inFlight()
	}

	rw.Success(StatusResponse{
		Version:         h.version,
		UptimeSeconds:   int64(time.Since(h.startTime).Seconds()),
		UpstreamBreaker: breakerState,
		SemanticBreaker: semanticState,
		SemanticEnabled: h.semanticEnabled,
		InFlight:        inFlight,
		Caches:          caches,
	})
}
