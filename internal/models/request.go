// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package models

import "strings"

// RecommendationRequest is the caller-facing input for one recommendation.
//
// Locations are raw user strings (free text, an address, or a known alias);
// each is resolved independently and concurrently. Keyword is the venue
// type or theme ("咖啡馆", "quiet cafe", "library"). Requirements are
// free-text constraints normalized against the requirement alias table
// ("parking", "安静", "can sit long").
//
// Validation tags are enforced by internal/validation before the request
// reaches the orchestrator.
type RecommendationRequest struct {
	Locations    []string `json:"locations" validate:"required,min=1,max=10,dive,required,max=120"`
	Keyword      string   `json:"keyword" validate:"required,max=60,venue_keyword"`
	Requirements []string `json:"requirements" validate:"max=10,dive,max=40"`

	// TopN bounds the returned venue count; 0 uses the configured default.
	TopN int `json:"top_n" validate:"gte=0,lte=20"`

	// Mode pins rule-only or blended scoring; empty or "auto" defers to
	// the complexity heuristic.
	Mode RankMode `json:"mode" validate:"omitempty,oneof=auto rule blended"`

	// MinRating drops candidates rated below the threshold before scoring.
	MinRating float64 `json:"min_rating" validate:"gte=0,lte=5"`

	// PriceRange keeps only candidates whose reported price band matches
	// (prefix match on the provider's band string, e.g. "¥¥").
	PriceRange string `json:"price_range" validate:"max=10"`

	// MaxDistanceM overrides the configured hard distance filter; 0 keeps
	// the engine default.
	MaxDistanceM int `json:"max_distance_m" validate:"gte=0,lte=200000"`
}

// Normalize trims whitespace from all free-text fields and drops empty
// entries. Called by the transport layer before validation so that " "
// inputs fail as missing rather than passing as non-empty.
func (r *RecommendationRequest) Normalize() {
	locations := r.Locations[:0]
	for _, loc := range r.Locations {
		if trimmed := strings.TrimSpace(loc); trimmed != "" {
			locations = append(locations, trimmed)
		}
	}
	r.Locations = locations

	requirements := r.Requirements[:0]
	for _, req := range r.Requirements {
		if trimmed := strings.TrimSpace(req); trimmed != "" {
			requirements = append(requirements, trimmed)
		}
	}
	r.Requirements = requirements

	r.Keyword = strings.TrimSpace(r.Keyword)
	r.PriceRange = strings.TrimSpace(r.PriceRange)
	if r.Mode == "" {
		r.Mode = ModeAuto
	}
}
