// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

/*
Package config provides layered configuration management using Koanf v2.

Configuration is assembled from three sources with clear precedence:

 1. Built-in defaults (lowest priority)
 2. Optional YAML config file
 3. Environment variables (highest priority)

# Loading

The single entry point is LoadWithKoanf:

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}

The config file is searched at config.yaml, config.yml,
/etc/confluo/config.yaml, and /etc/confluo/config.yml in order, or the
path given by CONFIG_PATH. A missing file is not an error; environment
variables and defaults are always sufficient.

# Config File Format

	amap:
	  key: "your-amap-key"
	  city: "北京"
	engine:
	  top_n: 5
	  max_in_flight: 3
	semantic:
	  enabled: true
	  model: "claude-sonnet-4-20250514"
	server:
	  port: 4326
	logging:
	  level: info
	  format: json

# Environment Variables

Every setting has an environment variable override. The most commonly
used ones:

	AMAP_KEY                 AMap Web Service API key (required)
	ANTHROPIC_API_KEY        Claude API key (required when SEMANTIC_ENABLED=true)
	SEMANTIC_ENABLED         Enable blended semantic scoring
	ENGINE_TOP_N             Default recommendation count
	ENGINE_MAX_IN_FLIGHT     Concurrent pipeline cap
	HTTP_PORT                Listen port (default 4326)
	LOG_LEVEL                trace, debug, info, warn, error, fatal
	LOG_FORMAT               json or console

Slice-valued settings (CORS_ORIGINS, TRUSTED_PROXIES) accept
comma-separated values:

	CORS_ORIGINS="https://a.example,https://b.example"

Duration-valued settings accept Go duration strings:

	AMAP_TIMEOUT=10s
	RATE_LIMIT_WINDOW=1m

# Validation

LoadWithKoanf validates the assembled configuration before returning it.
Validation errors name the environment variable form of the offending
setting:

	configuration validation failed: AMAP_KEY is required

Optional subsystems are validated only when enabled: a disabled semantic
scorer needs no API key.

# Hot Reload

WatchConfigFile wires a file watcher for deployments that want config
hot-reload. Callers own the locking around the re-load; see the function
documentation for the pattern.

# Thread Safety

The returned Config is never mutated after load and is safe for
concurrent reads. Treat it as immutable; hot-reload replaces the whole
pointer under the caller's lock rather than editing fields in place.
*/
package config
