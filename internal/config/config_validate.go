// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package config

import (
	"fmt"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateAMap(); err != nil {
		return err
	}

	if err := c.validateSemantic(); err != nil {
		return err
	}

	if err := c.validateEngine(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateAMap validates the AMap provider configuration. AMap is the only
// geocoding and place-search backend, so a key is always required.
func (c *Config) validateAMap() error {
	if c.AMap.Key == "" {
		return fmt.Errorf("AMAP_KEY is required")
	}

	if err := validateHTTPURL(c.AMap.BaseURL, "AMAP_BASE_URL"); err != nil {
		return fmt.Errorf("AMAP_BASE_URL is invalid: %w", err)
	}

	if c.AMap.Timeout < time.Second || c.AMap.Timeout > 2*time.Minute {
		return fmt.Errorf("AMAP_TIMEOUT must be between 1s and 2m")
	}

	if c.AMap.MaxRetries < 0 || c.AMap.MaxRetries > 10 {
		return fmt.Errorf("AMAP_MAX_RETRIES must be between 0 and 10")
	}

	if c.AMap.RetryBaseDelay <= 0 || c.AMap.RetryBaseDelay > 10*time.Second {
		return fmt.Errorf("AMAP_RETRY_BASE_DELAY must be between 1ms and 10s")
	}

	if c.AMap.RateLimitQPS <= 0 || c.AMap.RateLimitQPS > 1000 {
		return fmt.Errorf("AMAP_RATE_LIMIT_QPS must be between 0 and 1000")
	}

	if c.AMap.RateLimitBurst < 1 {
		return fmt.Errorf("AMAP_RATE_LIMIT_BURST must be at least 1")
	}

	return nil
}

// validateSemantic validates semantic scoring configuration (only if enabled)
func (c *Config) validateSemantic() error {
	if !c.Semantic.Enabled {
		return nil // Semantic scoring is optional - no validation needed when disabled
	}

	if c.Semantic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when SEMANTIC_ENABLED=true")
	}

	if c.Semantic.Model == "" {
		return fmt.Errorf("SEMANTIC_MODEL is required when SEMANTIC_ENABLED=true")
	}

	if c.Semantic.MaxTokens < 64 || c.Semantic.MaxTokens > 64000 {
		return fmt.Errorf("SEMANTIC_MAX_TOKENS must be between 64 and 64000")
	}

	if c.Semantic.Temperature < 0 || c.Semantic.Temperature > 1 {
		return fmt.Errorf("SEMANTIC_TEMPERATURE must be between 0 and 1")
	}

	if c.Semantic.Timeout < time.Second || c.Semantic.Timeout > 5*time.Minute {
		return fmt.Errorf("SEMANTIC_TIMEOUT must be between 1s and 5m")
	}

	return nil
}

// Engine limit constants
const (
	engineMaxTopN        = 100
	engineMaxInFlightCap = 64
	engineMaxCacheSize   = 10000
)

// validateEngine validates recommendation pipeline limits
func (c *Config) validateEngine() error {
	validators := []func() error{
		c.validateEngineTopN,
		c.validateEngineConcurrency,
		c.validateEngineRadii,
		c.validateEngineScoring,
		c.validateEngineCaches,
	}

	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

// validateEngineTopN validates the default result count
func (c *Config) validateEngineTopN() error {
	if c.Engine.TopN < 1 || c.Engine.TopN > engineMaxTopN {
		return fmt.Errorf("ENGINE_TOP_N must be between 1 and %d", engineMaxTopN)
	}
	return nil
}

// validateEngineConcurrency validates the pipeline concurrency settings
func (c *Config) validateEngineConcurrency() error {
	if c.Engine.MaxInFlight < 1 || c.Engine.MaxInFlight > engineMaxInFlightCap {
		return fmt.Errorf("ENGINE_MAX_IN_FLIGHT must be between 1 and %d", engineMaxInFlightCap)
	}
	if c.Engine.QueueTimeout < 0 || c.Engine.QueueTimeout > time.Minute {
		return fmt.Errorf("ENGINE_QUEUE_TIMEOUT must be between 0 and 1m")
	}
	return nil
}

// validateEngineRadii validates search radii and the hard distance filter
func (c *Config) validateEngineRadii() error {
	if c.Engine.SearchRadiusM < 100 || c.Engine.SearchRadiusM > 50000 {
		return fmt.Errorf("ENGINE_SEARCH_RADIUS_M must be between 100 and 50000")
	}
	if c.Engine.FallbackRadiusM <= c.Engine.SearchRadiusM {
		return fmt.Errorf("ENGINE_FALLBACK_RADIUS_M must be greater than ENGINE_SEARCH_RADIUS_M")
	}
	if c.Engine.FallbackRadiusM > 100000 {
		return fmt.Errorf("ENGINE_FALLBACK_RADIUS_M must be at most 100000")
	}
	if c.Engine.MaxDistanceM <= 0 {
		return fmt.Errorf("ENGINE_MAX_DISTANCE_M must be positive")
	}
	return nil
}

// validateEngineScoring validates scoring defaults
func (c *Config) validateEngineScoring() error {
	if c.Engine.DefaultRating < 0 || c.Engine.DefaultRating > 5 {
		return fmt.Errorf("ENGINE_DEFAULT_RATING must be between 0 and 5")
	}
	if c.Engine.ComplexityThreshold < 0 || c.Engine.ComplexityThreshold > 200 {
		return fmt.Errorf("ENGINE_COMPLEXITY_THRESHOLD must be between 0 and 200")
	}
	return nil
}

// validateEngineCaches validates bounded cache capacities
func (c *Config) validateEngineCaches() error {
	if c.Engine.GeocodeCacheSize < 1 || c.Engine.GeocodeCacheSize > engineMaxCacheSize {
		return fmt.Errorf("ENGINE_GEOCODE_CACHE_SIZE must be between 1 and %d", engineMaxCacheSize)
	}
	if c.Engine.SearchCacheSize < 1 || c.Engine.SearchCacheSize > engineMaxCacheSize {
		return fmt.Errorf("ENGINE_SEARCH_CACHE_SIZE must be between 1 and %d", engineMaxCacheSize)
	}
	if c.Engine.ArtifactCacheSize < 1 || c.Engine.ArtifactCacheSize > engineMaxCacheSize {
		return fmt.Errorf("ENGINE_ARTIFACT_CACHE_SIZE must be between 1 and %d", engineMaxCacheSize)
	}
	return nil
}

// validateServer validates the HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout < time.Second || c.Server.Timeout > 10*time.Minute {
		return fmt.Errorf("HTTP_TIMEOUT must be between 1s and 10m")
	}
	switch c.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, production, or test, got: %s", c.Server.Environment)
	}
	return nil
}

// validateSecurity validates rate limiting settings
func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow < time.Second || c.Security.RateLimitWindow > time.Hour {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between 1s and 1h")
	}
	return nil
}

// validateLogging validates logging settings
func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, disabled, got: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}

	return nil
}
