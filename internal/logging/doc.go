// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package logging provides centralized zerolog-based structured logging for Confluo.
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Context-aware logging with correlation and request ID propagation
//   - slog adapter for Suture v4 integration
//   - Sanitization helpers for API keys and user-supplied free text
//
// # Quick Start
//
//	import "github.com/tomtom215/confluo/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log messages
//	logging.Info().Msg("Server starting")
//	logging.Error().Err(err).Msg("Operation failed")
//
//	// With context (correlation ID)
//	logging.Ctx(ctx).Info().Str("keyword", kw).Msg("Search complete")
//
// # Log Hygiene
//
// Request fields that originate from users (addresses, keywords, requirement
// text) pass through SanitizeField before logging so that embedded newlines
// cannot forge log records. API keys are never logged whole; use
// SanitizeToken when key material must appear in a message.
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
