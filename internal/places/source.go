// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package places retrieves candidate venues around a centroid.
//
// A search walks a fallback ladder and stops at the first stage that yields
// results: the requested keyword at the primary radius, the same keyword at
// the widened fallback radius, and finally a default venue set at the
// widened radius. The ladder exists because dense keywords in sparse areas
// ("board game cafe" in a suburb) otherwise return nothing.
//
// Every stage consults a bounded cache keyed by (rounded centroid, keyword,
// radius) before calling the provider, and stores what the provider returned.
// Provider result order is not assumed meaningful; the ranking engine
// re-orders.
package places

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/confluo/internal/cache"
	"github.com/tomtom215/confluo/internal/geo"
	"github.com/tomtom215/confluo/internal/logging"
	"github.com/tomtom215/confluo/internal/metrics"
	"github.com/tomtom215/confluo/internal/models"
)

// DefaultVenueSet is the last-resort search keyword: common meeting venue
// types joined with AMap's OR separator.
const DefaultVenueSet = "咖啡馆|餐厅|商场"

// SearchError reports a place-search provider failure after the client's
// retry budget was exhausted.
type SearchError struct {
	Keyword string
	RadiusM int
	Err     error
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	return fmt.Sprintf("place search %q (radius %dm): %v", e.Keyword, e.RadiusM, e.Err)
}

// Unwrap exposes the provider error to errors.Is/As.
func (e *SearchError) Unwrap() error {
	return e.Err
}

// Searcher is the provider dependency; satisfied by *amap.Client.
type Searcher interface {
	SearchAround(ctx context.Context, center geo.Point, radiusM int, keywords string, limit int) ([]models.Candidate, error)
}

// Result carries the candidates together with the ladder stage that
// produced them.
type Result struct {
	Candidates []models.Candidate
	Keyword    string // keyword actually used (may be DefaultVenueSet)
	RadiusM    int    // radius actually used
	Fallback   bool   // true when any fallback stage was needed
}

// Source finds candidate venues around a centroid. Safe for concurrent use.
type Source struct {
	provider        Searcher
	cache           *cache.BoundedCache[string, []models.Candidate]
	radiusM         int
	fallbackRadiusM int
	log             zerolog.Logger
}

// NewSource creates a candidate source. radiusM is the primary search
// radius, fallbackRadiusM the widened one used when the primary search
// comes back empty.
func NewSource(provider Searcher, radiusM, fallbackRadiusM, cacheCapacity int) *Source {
	return &Source{
		provider:        provider,
		cache:           cache.NewBounded[string, []models.Candidate](cacheCapacity),
		radiusM:         radiusM,
		fallbackRadiusM: fallbackRadiusM,
		log:             logging.WithComponent("places"),
	}
}

// CacheStats returns a snapshot of the search cache counters.
func (s *Source) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Search returns candidates for keyword around center, walking the fallback
// ladder until a stage yields results. Candidates carry their distance from
// center. Fails with *SearchError on provider failure; an empty result after
// the whole ladder is not an error here (the orchestrator maps it to its
// no-candidates condition).
func (s *Source) Search(ctx context.Context, center geo.Point, keyword string, maxResults int) (Result, error) {
	start := time.Now()
	res, err := s.search(ctx, center, keyword, maxResults)
	metrics.RecordPlaceSearch(time.Since(start), res.Fallback, len(res.Candidates), err)
	metrics.UpdateCacheSize("search", s.cache.Len())
	return res, err
}

type stage struct {
	keyword string
	radiusM int
}

func (s *Source) search(ctx context.Context, center geo.Point, keyword string, maxResults int) (Result, error) {
	if keyword == "" {
		keyword = DefaultVenueSet
	}

	stages := []stage{
		{keyword, s.radiusM},
		{keyword, s.fallbackRadiusM},
	}
	if keyword != DefaultVenueSet {
		stages = append(stages, stage{DefaultVenueSet, s.fallbackRadiusM})
	}

	for i, st := range stages {
		if i > 0 {
			metrics.PlaceSearchFallbacks.Inc()
			s.log.Debug().
				Str("keyword", st.keyword).
				Int("radius_m", st.radiusM).
				Msg("Previous search stage empty, widening")
		}

		cands, err := s.searchStage(ctx, center, st, maxResults)
		if err != nil {
			return Result{Fallback: i > 0}, &SearchError{Keyword: st.keyword, RadiusM: st.radiusM, Err: err}
		}
		if len(cands) > 0 {
			return Result{
				Candidates: withDistances(cands, center),
				Keyword:    st.keyword,
				RadiusM:    st.radiusM,
				Fallback:   i > 0,
			}, nil
		}
	}

	return Result{Keyword: keyword, RadiusM: s.fallbackRadiusM, Fallback: true}, nil
}

// searchStage runs one ladder stage through the cache.
func (s *Source) searchStage(ctx context.Context, center geo.Point, st stage, maxResults int) ([]models.Candidate, error) {
	key := cacheKey(center, st.keyword, st.radiusM)
	if cands, ok := s.cache.Get(key); ok {
		metrics.RecordCacheHit("search")
		return cands, nil
	}
	metrics.RecordCacheMiss("search")

	cands, err := s.provider.SearchAround(ctx, center, st.radiusM, st.keyword, maxResults)
	if err != nil {
		return nil, err
	}
	s.cache.Put(key, cands)
	return cands, nil
}

// withDistances returns a copy of cands with DistanceMeters filled from
// center. Cached slices are shared between requests and never mutated in
// place; the rounded-centroid cache key keeps cached distances honest to
// within a few meters.
func withDistances(cands []models.Candidate, center geo.Point) []models.Candidate {
	out := make([]models.Candidate, len(cands))
	for i, c := range cands {
		c.DistanceMeters = geo.DistanceMeters(center, c.Point)
		out[i] = c
	}
	return out
}

// cacheKey rounds the centroid to 4 decimals (~11 m) so nearby requests for
// the same participants share an entry.
func cacheKey(center geo.Point, keyword string, radiusM int) string {
	return fmt.Sprintf("%.4f,%.4f|%s|%d", center.Lat, center.Lon, keyword, radiusM)
}
