// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package amap implements the AMap (高德地图) Web Service v3 client used for
// geocoding and place search.
//
// The client wraps every call in three layers of protection, innermost first:
//   - a client-side QPS limiter (golang.org/x/time/rate), because the free
//     AMap tier enforces a low per-key query rate and rejects excess with
//     infocode 10021 (CUQPS_HAS_EXCEEDED_THE_LIMIT)
//   - a bounded retry ladder with exponential backoff for transient network
//     errors, retryable HTTP statuses, and upstream rate-limit rejections
//   - a circuit breaker (sony/gobreaker) shared across all three endpoints,
//     so a dead upstream fails fast instead of burning the retry budget on
//     every pipeline stage
//
// Consumers (internal/geocode, internal/places) depend on the small Geocoder
// and Searcher interfaces declared in those packages; Client satisfies both.
//
// Thread safety: all methods are safe for concurrent use.
package amap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/confluo/internal/config"
	"github.com/tomtom215/confluo/internal/geo"
	"github.com/tomtom215/confluo/internal/logging"
	"github.com/tomtom215/confluo/internal/metrics"
	"github.com/tomtom215/confluo/internal/models"
)

// maxErrorBodySize caps how much of an error response body is read for
// diagnostics, preventing unbounded allocation on a misbehaving upstream.
const maxErrorBodySize = 16 * 1024

// ErrUpstreamStatus is wrapped into errors returned for non-2xx responses.
var ErrUpstreamStatus = errors.New("amap: unexpected HTTP status")

// ErrAPIRejected is wrapped into errors returned when the upstream answers
// 200 but reports status "0" in the response body.
var ErrAPIRejected = errors.New("amap: request rejected by API")

// Client talks to the AMap Web Service REST API.
type Client struct {
	baseURL        string
	key            string
	city           string
	cityLimit      bool
	httpClient     *http.Client
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker[[]byte]
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates an AMap client from configuration. The circuit breaker
// opens after 5 consecutive failures and probes again after 30 seconds; both
// endpoints (geocode and place search) share one breaker because they share
// one upstream.
func NewClient(cfg config.AMapConfig) *Client {
	settings := gobreaker.Settings{
		Name:        "amap",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("component", "amap").
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	}

	qps := cfg.RateLimitQPS
	if qps <= 0 {
		qps = 3
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		key:       cfg.Key,
		city:      cfg.City,
		cityLimit: cfg.CityLimit,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(rate.Limit(qps), burst),
		breaker:        gobreaker.NewCircuitBreaker[[]byte](settings),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// BreakerState returns the circuit breaker state string for status reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Geocode resolves an address string to coordinates via v3/geocode/geo.
// An address the provider does not recognize returns (zero, false, nil);
// transport and API failures return an error.
func (c *Client) Geocode(ctx context.Context, address string) (geo.Point, bool, error) {
	params := url.Values{}
	params.Set("address", address)
	if c.city != "" {
		params.Set("city", c.city)
	}

	var out models.AmapGeocodeResponse
	if err := c.call(ctx, "geocode", "/v3/geocode/geo", params, &out); err != nil {
		return geo.Point{}, false, err
	}
	if len(out.Geocodes) == 0 {
		return geo.Point{}, false, nil
	}

	pt, err := out.Geocodes[0].Point()
	if err != nil {
		return geo.Point{}, false, fmt.Errorf("geocode %q: %w", address, err)
	}
	return pt, true, nil
}

// GeocodeFull resolves an address and returns the full first match, used by
// the resolver to surface the canonical formatted address and city.
func (c *Client) GeocodeFull(ctx context.Context, address string) (models.AmapGeocode, bool, error) {
	params := url.Values{}
	params.Set("address", address)
	if c.city != "" {
		params.Set("city", c.city)
	}

	var out models.AmapGeocodeResponse
	if err := c.call(ctx, "geocode", "/v3/geocode/geo", params, &out); err != nil {
		return models.AmapGeocode{}, false, err
	}
	if len(out.Geocodes) == 0 {
		return models.AmapGeocode{}, false, nil
	}
	return out.Geocodes[0], true, nil
}

// SearchAround queries v3/place/around for POIs near center within radius
// meters, optionally filtered by keywords. Results are converted to
// candidates; records with malformed coordinates are skipped, not fatal.
func (c *Client) SearchAround(ctx context.Context, center geo.Point, radiusM int, keywords string, limit int) ([]models.Candidate, error) {
	params := url.Values{}
	params.Set("location", formatLocation(center))
	params.Set("radius", strconv.Itoa(radiusM))
	params.Set("sortrule", "distance")
	if keywords != "" {
		params.Set("keywords", keywords)
	}
	setPageSize(params, limit)

	var out models.AmapPlaceResponse
	if err := c.call(ctx, "around", "/v3/place/around", params, &out); err != nil {
		return nil, err
	}
	return poisToCandidates(out.Pois), nil
}

// SearchText queries v3/place/text for POIs matching keywords, biased to the
// configured city.
func (c *Client) SearchText(ctx context.Context, keywords string, limit int) ([]models.Candidate, error) {
	params := url.Values{}
	params.Set("keywords", keywords)
	if c.city != "" {
		params.Set("city", c.city)
		if c.cityLimit {
			params.Set("citylimit", "true")
		}
	}
	setPageSize(params, limit)

	var out models.AmapPlaceResponse
	if err := c.call(ctx, "text", "/v3/place/text", params, &out); err != nil {
		return nil, err
	}
	return poisToCandidates(out.Pois), nil
}

// call performs one logical API call: rate-limit wait, breaker-guarded
// retried HTTP GET, JSON decode, and API-level status check.
func (c *Client) call(ctx context.Context, endpoint, path string, params url.Values, result interface{}) error {
	start := time.Now()

	params.Set("key", c.key)
	params.Set("output", "json")
	reqURL := c.baseURL + path + "?" + params.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetchWithRetry(ctx, endpoint, reqURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues("amap", "rejected").Inc()
			metrics.RecordAmapRequest(endpoint, "error", time.Since(start))
			return fmt.Errorf("amap %s unavailable: %w", endpoint, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues("amap", "failure").Inc()
		metrics.RecordAmapRequest(endpoint, "error", time.Since(start))
		return err
	}
	metrics.CircuitBreakerRequests.WithLabelValues("amap", "success").Inc()

	if err := json.Unmarshal(body, result); err != nil {
		metrics.RecordAmapRequest(endpoint, "error", time.Since(start))
		return fmt.Errorf("amap %s: decode response: %w", endpoint, err)
	}

	// All response types share the top-level status/info/infocode triple.
	var envelope struct {
		Status   string `json:"status"`
		Info     string `json:"info"`
		Infocode string `json:"infocode"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Status != models.AmapStatusOK {
		metrics.RecordAmapRequest(endpoint, "error", time.Since(start))
		return fmt.Errorf("%w: %s (infocode %s)", ErrAPIRejected, envelope.Info, envelope.Infocode)
	}

	metrics.RecordAmapRequest(endpoint, "ok", time.Since(start))
	return nil
}

// fetchWithRetry performs the HTTP GET with the bounded retry ladder.
// Retried conditions: network errors, 5xx/429 statuses, and the upstream's
// own QPS rejection (HTTP 200 with infocode 10021). A 200 with any other
// infocode is returned to the caller for API-level handling, because
// "no match found" must not consume retries.
func (c *Client) fetchWithRetry(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("amap %s: rate limiter: %w", endpoint, err)
		}

		body, retryable, err := c.fetchOnce(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		metrics.RecordAmapRetry(endpoint, retryReason(err))
		logging.Warn().
			Str("component", "amap").
			Str("endpoint", endpoint).
			Int("attempt", attempt+1).
			Err(err).
			Msg("AMap request failed, retrying")
	}

	return nil, fmt.Errorf("amap %s: %d attempts exhausted: %w", endpoint, c.maxRetries+1, lastErr)
}

// fetchOnce performs a single GET and classifies the failure as retryable
// or terminal.
func (c *Client) fetchOnce(ctx context.Context, reqURL string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to body handling below.
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, true, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, false, fmt.Errorf("%w: %d: %s", ErrUpstreamStatus, resp.StatusCode, snippet)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response body: %w", err)
	}

	// The API reports its per-key QPS rejection as a 200; treat it like a
	// 429 so the backoff ladder absorbs it.
	var envelope struct {
		Status   string `json:"status"`
		Infocode string `json:"infocode"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil &&
		envelope.Status != models.AmapStatusOK &&
		envelope.Infocode == models.AmapInfocodeRateLimit {
		return nil, true, fmt.Errorf("%w: per-key QPS exceeded (infocode %s)", ErrUpstreamStatus, envelope.Infocode)
	}

	return body, false, nil
}

func poisToCandidates(pois []models.AmapPOI) []models.Candidate {
	out := make([]models.Candidate, 0, len(pois))
	for _, poi := range pois {
		cand, err := poi.ToCandidate()
		if err != nil {
			logging.Warn().
				Str("component", "amap").
				Str("poi_id", poi.ID).
				Err(err).
				Msg("Skipping POI with malformed record")
			continue
		}
		out = append(out, cand)
	}
	return out
}

// formatLocation renders a point in AMap's "lng,lat" order with the
// 6-decimal precision the API documents.
func formatLocation(p geo.Point) string {
	return strconv.FormatFloat(p.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
}

func setPageSize(params url.Values, limit int) {
	if limit <= 0 || limit > 25 {
		limit = 25 // AMap page size cap
	}
	params.Set("offset", strconv.Itoa(limit))
	params.Set("page", "1")
}

func retryReason(err error) string {
	if errors.Is(err, ErrUpstreamStatus) {
		msg := err.Error()
		if strings.Contains(msg, "429") || strings.Contains(msg, models.AmapInfocodeRateLimit) {
			return "rate_limited"
		}
		return "http_status"
	}
	return "network"
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}
