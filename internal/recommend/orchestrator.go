// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package recommend orchestrates the recommendation pipeline: concurrent
// location resolution, centroid computation, candidate retrieval, ranking,
// and result assembly. It owns admission control (a bounded in-flight
// slot pool) and the aggregate error types the HTTP layer maps to
// response envelopes.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/confluo/internal/brands"
	"github.com/tomtom215/confluo/internal/config"
	"github.com/tomtom215/confluo/internal/geo"
	"github.com/tomtom215/confluo/internal/geocode"
	"github.com/tomtom215/confluo/internal/logging"
	"github.com/tomtom215/confluo/internal/metrics"
	"github.com/tomtom215/confluo/internal/models"
	"github.com/tomtom215/confluo/internal/places"
	"github.com/tomtom215/confluo/internal/rank"
)

// maxCandidates bounds how many venues are requested from the place
// source per search; the provider pages at 25.
const maxCandidates = 25

// AddressResolver resolves a raw location string to coordinates;
// satisfied by *geocode.Resolver.
type AddressResolver interface {
	Resolve(ctx context.Context, raw string) (models.ResolvedAddress, error)
}

// CandidateSource retrieves venues around a centroid; satisfied by
// *places.Source.
type CandidateSource interface {
	Search(ctx context.Context, center geo.Point, keyword string, maxResults int) (places.Result, error)
}

// Ranker scores and orders candidates; satisfied by *rank.Engine.
type Ranker interface {
	Rank(ctx context.Context, candidates []models.Candidate, req rank.Request, mode models.RankMode) ([]models.RankedCandidate, bool)
}

// ArtifactRenderer stores a browsable page for a finished result and
// returns its ID. Optional; a nil renderer disables artifacts.
type ArtifactRenderer interface {
	Render(result *models.RecommendationResult) (string, error)
}

// Orchestrator runs the end-to-end recommendation pipeline. Safe for
// concurrent use; admission is capped by the configured in-flight limit.
type Orchestrator struct {
	resolver AddressResolver
	source   CandidateSource
	ranker   Ranker
	renderer ArtifactRenderer

	cfg               config.EngineConfig
	semanticAvailable bool

	slots chan struct{}
	log   zerolog.Logger
}

// NewOrchestrator wires the pipeline stages together. semanticAvailable
// reflects whether a semantic scorer is configured; it gates the auto
// mode decision, not blended requests themselves (those degrade).
func NewOrchestrator(cfg config.EngineConfig, resolver AddressResolver, source CandidateSource, ranker Ranker, renderer ArtifactRenderer, semanticAvailable bool) *Orchestrator {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 3
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = 5 * time.Second
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.ComplexityThreshold <= 0 {
		cfg.ComplexityThreshold = rank.DefaultComplexityThreshold
	}
	return &Orchestrator{
		resolver:          resolver,
		source:            source,
		ranker:            ranker,
		renderer:          renderer,
		cfg:               cfg,
		semanticAvailable: semanticAvailable,
		slots:             make(chan struct{}, cfg.MaxInFlight),
		log:               logging.WithComponent("recommend"),
	}
}

// Recommend runs the full pipeline for one request. The request must be
// normalized and validated by the transport layer first; Recommend only
// re-checks what validation cannot see.
func (o *Orchestrator) Recommend(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResult, error) {
	start := time.Now()

	if err := o.checkInput(req); err != nil {
		metrics.RecordRecommendation(string(req.Mode), time.Since(start), err)
		return nil, err
	}

	if err := o.acquireSlot(ctx); err != nil {
		metrics.RecordRecommendation(string(req.Mode), time.Since(start), err)
		return nil, err
	}
	defer o.releaseSlot()

	assessment := rank.AssessComplexity(req, o.cfg.ComplexityThreshold, o.semanticAvailable)

	result, err := o.run(ctx, req, assessment)
	metrics.RecordRecommendation(string(assessment.Mode), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	result.Timings.TotalMS = time.Since(start).Milliseconds()
	o.log.Info().
		Int("locations", len(req.Locations)).
		Str("keyword", logging.SanitizeField(req.Keyword)).
		Str("mode", string(assessment.Mode)).
		Int("complexity", assessment.Score).
		Int("venues", len(result.Venues)).
		Int64("total_ms", result.Timings.TotalMS).
		Msg("Recommendation complete")
	return result, nil
}

// run executes the pipeline stages once a slot is held.
func (o *Orchestrator) run(ctx context.Context, req *models.RecommendationRequest, assessment rank.Assessment) (*models.RecommendationResult, error) {
	result := &models.RecommendationResult{
		Keyword:    req.Keyword,
		Mode:       assessment.Mode,
		ModeAuto:   req.Mode == models.ModeAuto || req.Mode == "",
		Complexity: assessment.Score,
	}

	resolveStart := time.Now()
	resolved, err := o.resolveLocations(ctx, req.Locations)
	result.Timings.ResolveMS = time.Since(resolveStart).Milliseconds()
	metrics.RecordStage("resolve", time.Since(resolveStart))
	if err != nil {
		return nil, err
	}
	result.Resolved = resolved

	centroid, err := o.centroid(resolved)
	if err != nil {
		return nil, err
	}
	result.Centroid = centroid

	searchStart := time.Now()
	found, err := o.source.Search(ctx, centroid, req.Keyword, maxCandidates)
	result.Timings.SearchMS = time.Since(searchStart).Milliseconds()
	metrics.RecordStage("search", time.Since(searchStart))
	if err != nil {
		return nil, fmt.Errorf("place search: %w", err)
	}
	result.RadiusM = found.RadiusM
	if len(found.Candidates) == 0 {
		return nil, &NoCandidatesError{Keyword: found.Keyword, RadiusM: found.RadiusM}
	}

	rankStart := time.Now()
	ranked, degraded := o.ranker.Rank(ctx, found.Candidates, o.rankRequest(req), assessment.Mode)
	result.Timings.RankMS = time.Since(rankStart).Milliseconds()
	metrics.RecordStage("rank", time.Since(rankStart))
	metrics.CandidatesRanked.Observe(float64(len(found.Candidates)))
	if len(ranked) == 0 {
		return nil, &NoCandidatesError{Keyword: found.Keyword, RadiusM: found.RadiusM}
	}
	result.SemanticDegraded = degraded
	result.Venues = o.applyTopN(ranked, req.TopN)

	o.renderArtifact(result)
	return result, nil
}

// checkInput rejects requests that passed struct validation but are
// semantically empty.
func (o *Orchestrator) checkInput(req *models.RecommendationRequest) error {
	if len(req.Locations) == 0 {
		return &InvalidInputError{Field: "locations", Reason: "at least one non-blank location is required"}
	}
	if req.Keyword == "" {
		return &InvalidInputError{Field: "keyword", Reason: "keyword is required"}
	}
	return nil
}

// acquireSlot blocks until a pipeline slot frees up, the queue timeout
// elapses, or the caller's context is done.
func (o *Orchestrator) acquireSlot(ctx context.Context) error {
	select {
	case o.slots <- struct{}{}:
		metrics.TrackInFlight(true)
		return nil
	default:
	}

	metrics.TrackQueued(true)
	defer metrics.TrackQueued(false)

	timer := time.NewTimer(o.cfg.QueueTimeout)
	defer timer.Stop()

	select {
	case o.slots <- struct{}{}:
		metrics.TrackInFlight(true)
		return nil
	case <-timer.C:
		metrics.RecommendationRejections.Inc()
		o.log.Warn().
			Dur("queue_timeout", o.cfg.QueueTimeout).
			Int("max_in_flight", o.cfg.MaxInFlight).
			Msg("Request rejected at capacity")
		return ErrCapacity
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) releaseSlot() {
	<-o.slots
	metrics.TrackInFlight(false)
}

// InFlight reports how many recommendations are currently executing.
func (o *Orchestrator) InFlight() int {
	return len(o.slots)
}

// resolveLocations geocodes every location concurrently. All inputs are
// resolved before reporting failure so the caller learns about every bad
// location at once; output order matches input order.
func (o *Orchestrator) resolveLocations(ctx context.Context, locations []string) ([]models.ResolvedAddress, error) {
	resolved := make([]models.ResolvedAddress, len(locations))
	errs := make([]error, len(locations))

	var wg sync.WaitGroup
	for i, loc := range locations {
		wg.Add(1)
		go func(i int, loc string) {
			defer wg.Done()
			resolved[i], errs[i] = o.resolver.Resolve(ctx, loc)
		}(i, loc)
	}
	wg.Wait()

	var failures []*geocode.GeocodeError
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ge *geocode.GeocodeError
		if errors.As(err, &ge) {
			failures = append(failures, ge)
			continue
		}
		// Non-geocode failure (context cancellation, provider outage)
		// aborts the request outright.
		return nil, fmt.Errorf("resolve locations: %w", err)
	}
	if len(failures) > 0 {
		return nil, &PartialGeocodeError{Failures: failures}
	}
	return resolved, nil
}

func (o *Orchestrator) centroid(resolved []models.ResolvedAddress) (geo.Point, error) {
	points := make([]geo.Point, len(resolved))
	for i, r := range resolved {
		points[i] = r.Point
	}
	center, err := geo.Centroid(points)
	if err != nil {
		return geo.Point{}, fmt.Errorf("centroid: %w", err)
	}
	return center, nil
}

// rankRequest translates the transport request into ranking inputs,
// canonicalizing requirements against the knowledge base aliases.
func (o *Orchestrator) rankRequest(req *models.RecommendationRequest) rank.Request {
	return rank.Request{
		Keyword:      req.Keyword,
		Requirements: brands.ParseRequirements(req.Requirements),
		FreeText:     strings.Join(req.Requirements, " "),
		MinRating:    req.MinRating,
		PriceRange:   req.PriceRange,
		MaxDistanceM: float64(req.MaxDistanceM),
	}
}

func (o *Orchestrator) applyTopN(ranked []models.RankedCandidate, topN int) []models.RankedCandidate {
	if topN <= 0 {
		topN = o.cfg.TopN
	}
	if topN > len(ranked) {
		topN = len(ranked)
	}
	return ranked[:topN]
}

// renderArtifact stores the browsable page for the result. Rendering
// failures are logged and dropped; the JSON response stands on its own.
func (o *Orchestrator) renderArtifact(result *models.RecommendationResult) {
	if o.renderer == nil {
		return
	}
	id, err := o.renderer.Render(result)
	if err != nil {
		o.log.Warn().Err(err).Msg("Artifact rendering failed")
		return
	}
	result.ArtifactID = id
}
