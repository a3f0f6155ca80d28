// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package geocode resolves raw user location strings to coordinates.
//
// Resolution pipeline: normalize the input, expand known abbreviations via
// the alias table, consult the bounded geocode cache, and only then call the
// provider. An empty provider result is retried once with the alias city
// qualifier dropped before the resolution fails. Successful resolutions are
// cached; failures never are, so the cache never holds partial entries.
//
// Concurrent misses on the same key may each call the provider. That is
// accepted: geocoding is idempotent and the duplicate call is cheaper than
// per-key locking across the request fan-out.
package geocode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/confluo/internal/cache"
	"github.com/tomtom215/confluo/internal/logging"
	"github.com/tomtom215/confluo/internal/metrics"
	"github.com/tomtom215/confluo/internal/models"
)

// GeocodeError reports one unresolvable location. Query is the
// alias-expanded string actually sent upstream, which differs from Input
// when the alias table rewrote it.
type GeocodeError struct {
	Input    string
	Query    string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *GeocodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocode %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("geocode %q: no match after %d attempts", e.Input, e.Attempts)
}

// Unwrap exposes the underlying provider error to errors.Is/As.
func (e *GeocodeError) Unwrap() error {
	return e.Err
}

// Geocoder is the provider dependency; satisfied by *amap.Client.
type Geocoder interface {
	GeocodeFull(ctx context.Context, address string) (models.AmapGeocode, bool, error)
}

// Resolver turns raw location strings into ResolvedAddress values.
// Safe for concurrent use.
type Resolver struct {
	provider Geocoder
	aliases  *AliasTable
	cache    *cache.BoundedCache[string, models.ResolvedAddress]
	log      zerolog.Logger
}

// NewResolver creates a resolver with a bounded geocode cache of the given
// capacity.
func NewResolver(provider Geocoder, aliases *AliasTable, cacheCapacity int) *Resolver {
	return &Resolver{
		provider: provider,
		aliases:  aliases,
		cache:    cache.NewBounded[string, models.ResolvedAddress](cacheCapacity),
		log:      logging.WithComponent("geocode"),
	}
}

// CacheStats returns a snapshot of the geocode cache counters.
func (r *Resolver) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// Resolve resolves one raw location string. The returned address carries the
// original input and, when the alias table rewrote it, the alias that
// matched. Fails with *GeocodeError when the provider has no match after the
// relaxed retry or the transport gave up.
func (r *Resolver) Resolve(ctx context.Context, raw string) (models.ResolvedAddress, error) {
	start := time.Now()
	addr, err := r.resolve(ctx, raw)
	metrics.RecordGeocode(time.Since(start), false, err)
	r.publishCacheStats()
	return addr, err
}

func (r *Resolver) resolve(ctx context.Context, raw string) (models.ResolvedAddress, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return models.ResolvedAddress{}, &GeocodeError{Input: raw, Err: fmt.Errorf("empty location")}
	}

	query, alias, city := r.expand(input)

	if cached, ok := r.cache.Get(query); ok {
		metrics.RecordCacheHit("geocode")
		cached.Input = input
		return cached, nil
	}
	metrics.RecordCacheMiss("geocode")

	attempts := 0
	for _, q := range resolutionQueries(query, city) {
		attempts++
		g, found, err := r.provider.GeocodeFull(ctx, q)
		if err != nil {
			return models.ResolvedAddress{}, &GeocodeError{Input: input, Query: q, Attempts: attempts, Err: err}
		}
		if !found {
			if attempts == 1 && len(resolutionQueries(query, city)) > 1 {
				metrics.GeocodeRetries.Inc()
				r.log.Debug().Str("input", input).Str("query", q).Msg("Empty geocode, retrying without city qualifier")
			}
			continue
		}

		pt, err := g.Point()
		if err != nil {
			return models.ResolvedAddress{}, &GeocodeError{Input: input, Query: q, Attempts: attempts, Err: err}
		}

		resolved := models.ResolvedAddress{
			Input:   input,
			Address: g.FormattedAddress,
			City:    string(g.City),
			Alias:   alias,
			Point:   pt,
		}
		r.cache.Put(query, resolved)
		return resolved, nil
	}

	return models.ResolvedAddress{}, &GeocodeError{Input: input, Query: query, Attempts: attempts}
}

// expand rewrites input via the alias table. A prefix hit keeps the
// remainder ("北大东门" becomes "北京市海淀区北京大学东门") so landmark
// sub-locations still resolve.
func (r *Resolver) expand(input string) (query, alias, city string) {
	if r.aliases == nil {
		return input, "", ""
	}
	a, ok := r.aliases.Lookup(input)
	if !ok {
		return input, "", ""
	}
	metrics.GeocodeAliasHits.Inc()
	remainder := strings.TrimPrefix(input, a.Alias)
	return a.City + a.Address + remainder, a.Alias, a.City
}

// resolutionQueries returns the query ladder: the full expanded string, then
// the relaxed form with the alias city qualifier dropped. Inputs without a
// city qualifier have no relaxed form.
func resolutionQueries(query, city string) []string {
	if city == "" || !strings.HasPrefix(query, city) {
		return []string{query}
	}
	relaxed := strings.TrimPrefix(query, city)
	if relaxed == "" || relaxed == query {
		return []string{query}
	}
	return []string{query, relaxed}
}

func (r *Resolver) publishCacheStats() {
	metrics.UpdateCacheSize("geocode", r.cache.Len())
}
