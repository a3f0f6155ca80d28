// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, request
ID tracking, and Prometheus metrics instrumentation. The api package wires
these into the Chi router alongside the Chi-ecosystem middleware (CORS,
rate limiting, panic recovery).

Key Components:

  - Compression: Gzip compression for responses
  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

Usage Example - Request ID:

	http.HandleFunc("/api/v1/recommendations",
	    middleware.RequestID(handler),
	)

	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    ...
	}

Thread Safety:

All middleware components are thread-safe:
  - Compression pools gzip writers per request
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/api: Chi router that assembles the middleware stack
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
