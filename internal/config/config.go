// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables and config files.
// Provides centralized configuration management for all application components including
// the AMap provider, semantic scoring, the recommendation engine, server, API, security,
// and logging.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Upstream Providers:
//     - AMap: Geocoding and place search (required)
//     - Semantic: Claude-backed candidate scoring (optional)
//
//  2. Engine:
//     - Engine: Pipeline limits, search radii, cache capacities, scoring defaults
//
//  3. Transport:
//     - Server: HTTP server configuration (port, host, timeout)
//     - API: Response and body-size limits
//     - Security: Rate limiting, CORS, trusted proxies
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
// Example - Load configuration:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.AMap.Key, cfg.Engine.TopN, etc. are now populated
//
// Thread Safety:
// Config is immutable after LoadWithKoanf() and safe for concurrent read access
// from multiple goroutines.
type Config struct {
	AMap     AMapConfig     `koanf:"amap"`
	Semantic SemanticConfig `koanf:"semantic"` // Optional: blended scoring via Claude
	Engine   EngineConfig   `koanf:"engine"`
	Server   ServerConfig   `koanf:"server"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// AMapConfig holds AMap (高德地图) Web Service API settings. AMap is the
// geocoding and place-search provider and is required for the engine to
// operate.
//
// Environment Variables:
//   - AMAP_KEY: Web Service API key (required)
//   - AMAP_BASE_URL: API base URL (default: https://restapi.amap.com)
//   - AMAP_CITY: City bias for keyword searches (default: 北京)
//   - AMAP_CITY_LIMIT: Restrict keyword searches to the bias city (default: true)
//   - AMAP_TIMEOUT: Per-request timeout (default: 10s)
//   - AMAP_MAX_RETRIES: Retry attempts for transient failures (default: 3)
//   - AMAP_RETRY_BASE_DELAY: Base delay for the retry backoff ladder (default: 200ms)
//   - AMAP_RATE_LIMIT_QPS: Client-side request rate cap (default: 3)
//   - AMAP_RATE_LIMIT_BURST: Rate limiter burst size (default: 3)
//
// The free AMap tier enforces a low per-key QPS; the client-side limiter
// keeps concurrent pipelines from tripping the server-side CUQPS rejection.
type AMapConfig struct {
	Key            string        `koanf:"key"`              // Web Service API key
	BaseURL        string        `koanf:"base_url"`         // API base URL
	City           string        `koanf:"city"`             // City bias for keyword searches
	CityLimit      bool          `koanf:"city_limit"`       // Restrict keyword searches to the bias city
	Timeout        time.Duration `koanf:"timeout"`          // Per-request timeout
	MaxRetries     int           `koanf:"max_retries"`      // Retry attempts for transient failures
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"` // Base delay for the retry backoff ladder
	RateLimitQPS   float64       `koanf:"rate_limit_qps"`   // Client-side request rate cap
	RateLimitBurst int           `koanf:"rate_limit_burst"` // Rate limiter burst size
}

// SemanticConfig holds Claude API settings for semantic candidate scoring.
// When enabled, complex requests blend the rule-based score with a model
// judgment; when disabled or unreachable, the engine degrades to rule-only
// scoring without failing requests.
//
// Environment Variables:
//   - SEMANTIC_ENABLED: Enable semantic scoring (default: false)
//   - ANTHROPIC_API_KEY: Claude API key (required when enabled)
//   - SEMANTIC_MODEL: Model identifier (default: claude-sonnet-4-20250514)
//   - SEMANTIC_MAX_TOKENS: Response token budget (default: 1024)
//   - SEMANTIC_TEMPERATURE: Sampling temperature (default: 0.2)
//   - SEMANTIC_TIMEOUT: Per-call timeout (default: 30s)
type SemanticConfig struct {
	Enabled     bool          `koanf:"enabled"`     // Master toggle for semantic scoring
	APIKey      string        `koanf:"api_key"`     // Claude API key
	Model       string        `koanf:"model"`       // Model identifier
	MaxTokens   int64         `koanf:"max_tokens"`  // Response token budget
	Temperature float64       `koanf:"temperature"` // Sampling temperature (0 = deterministic)
	Timeout     time.Duration `koanf:"timeout"`     // Per-call timeout
}

// EngineConfig holds recommendation pipeline settings: concurrency limits,
// search radii, cache capacities, and scoring defaults.
//
// Environment Variables:
//   - ENGINE_TOP_N: Default result count when the request omits top_n (default: 5)
//   - ENGINE_MAX_IN_FLIGHT: Concurrent pipeline cap (default: 3)
//   - ENGINE_QUEUE_TIMEOUT: How long a request waits for a pipeline slot (default: 2s)
//   - ENGINE_SEARCH_RADIUS_M: Primary search radius in meters (default: 5000)
//   - ENGINE_FALLBACK_RADIUS_M: Widened radius when the primary search is empty (default: 50000)
//   - ENGINE_MAX_DISTANCE_M: Hard distance filter in meters (default: 100000)
//   - ENGINE_DEFAULT_RATING: Rating assumed for unrated venues (default: 3.5)
//   - ENGINE_GEOCODE_CACHE_SIZE: Geocode cache capacity (default: 30)
//   - ENGINE_SEARCH_CACHE_SIZE: Search cache capacity (default: 15)
//   - ENGINE_ARTIFACT_CACHE_SIZE: Stored result page capacity (default: 64)
//   - ENGINE_COMPLEXITY_THRESHOLD: Auto-mode score above which blended ranking engages (default: 40)
type EngineConfig struct {
	TopN                int           `koanf:"top_n"`                // Default result count
	MaxInFlight         int           `koanf:"max_in_flight"`        // Concurrent pipeline cap
	QueueTimeout        time.Duration `koanf:"queue_timeout"`        // Max wait for a pipeline slot
	SearchRadiusM       int           `koanf:"search_radius_m"`      // Primary search radius (meters)
	FallbackRadiusM     int           `koanf:"fallback_radius_m"`    // Widened radius on empty results (meters)
	MaxDistanceM        float64       `koanf:"max_distance_m"`       // Hard distance filter (meters)
	DefaultRating       float64       `koanf:"default_rating"`       // Rating assumed for unrated venues
	GeocodeCacheSize    int           `koanf:"geocode_cache_size"`   // Geocode cache capacity
	SearchCacheSize     int           `koanf:"search_cache_size"`    // Search cache capacity
	ArtifactCacheSize   int           `koanf:"artifact_cache_size"`  // Stored result page capacity
	ComplexityThreshold int           `koanf:"complexity_threshold"` // Auto-mode blended cutover score
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 4326)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 60s)
//   - ENVIRONMENT: Deployment environment, "development" or "production" (default: development)
type ServerConfig struct {
	Port        int           `koanf:"port"`        // Listen port
	Host        string        `koanf:"host"`        // Bind address
	Timeout     time.Duration `koanf:"timeout"`     // Read/write timeout
	Environment string        `koanf:"environment"` // Deployment environment
}

// APIConfig holds response and request-size limits for the HTTP API.
//
// Environment Variables:
//   - API_MAX_BODY_BYTES: Request body cap in bytes (default: 65536)
//   - API_CACHE_MAX_AGE: Cache-Control max-age for cacheable responses in seconds (default: 60)
type APIConfig struct {
	MaxBodyBytes int64 `koanf:"max_body_bytes"` // Request body cap (bytes)
	CacheMaxAge  int   `koanf:"cache_max_age"`  // Cache-Control max-age (seconds)
}

// SecurityConfig holds rate limiting and cross-origin settings.
//
// Environment Variables:
//   - RATE_LIMIT_REQUESTS: Requests allowed per window per client (default: 60)
//   - RATE_LIMIT_WINDOW: Rate limit window (default: 1m)
//   - DISABLE_RATE_LIMIT: Disable rate limiting entirely (default: false)
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
//   - TRUSTED_PROXIES: Comma-separated proxy CIDRs whose X-Forwarded-For is honored
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`    // Requests per window per client
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`  // Rate limit window
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`    // Allowed CORS origins
	TrustedProxies    []string      `koanf:"trusted_proxies"` // Proxy CIDRs whose forwarded headers are honored
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error, fatal (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file:line in log events (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
