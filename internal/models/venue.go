// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package models

import (
	"github.com/tomtom215/confluo/internal/geo"
)

// ResolvedAddress is the output of address resolution: the canonical address
// the geocoding provider matched, its coordinate, and the alias (if any) that
// expanded the raw input.
//
// Invariant: Point is within WGS84 bounds. Instances live only in memory (the
// geocode cache); nothing is persisted.
type ResolvedAddress struct {
	Input   string    `json:"input"`
	Address string    `json:"address"`
	City    string    `json:"city,omitempty"`
	Alias   string    `json:"alias,omitempty"`
	Point   geo.Point `json:"point"`
}

// Candidate is a venue returned by the place-search provider, immutable once
// fetched. Rating 0 means the provider reported none; the ranking engine
// substitutes its configured default.
type Candidate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Point       geo.Point `json:"point"`
	Type        string    `json:"type"`
	Address     string    `json:"address,omitempty"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"review_count"`
	PhotoCount  int       `json:"photo_count"`
	PriceRange  string    `json:"price_range,omitempty"`
	Brand       string    `json:"brand,omitempty"`

	// DistanceMeters is the straight-line distance from the request centroid,
	// filled by the candidate source after retrieval.
	DistanceMeters float64 `json:"distance_meters"`
}

// ScoreBreakdown carries the five rubric components plus the optional
// semantic signal. Components are additive and individually capped:
// base 30, popularity 20, distance 25, scenario 15, requirements 10.
type ScoreBreakdown struct {
	Base         float64 `json:"base"`
	Popularity   float64 `json:"popularity"`
	Distance     float64 `json:"distance"`
	Scenario     float64 `json:"scenario"`
	Requirements float64 `json:"requirements"`

	// DiversityPenalty is subtracted from the rule sum for repeated
	// chain-store brands (0 for the first occurrence of a brand).
	DiversityPenalty float64 `json:"diversity_penalty,omitempty"`

	// RuleScore is the clamped sum of the components minus the penalty.
	RuleScore float64 `json:"rule_score"`

	// SemanticScore is set only in blended mode (0-100 from the scorer).
	SemanticScore *float64 `json:"semantic_score,omitempty"`
}

// RankedCandidate is a Candidate with its scores and final rank. Produced by
// the ranking engine and discarded once the response is built.
type RankedCandidate struct {
	Candidate Candidate      `json:"candidate"`
	Scores    ScoreBreakdown `json:"scores"`
	Final     float64        `json:"final_score"`
	Rank      int            `json:"rank"`

	// Reasons are short human-readable notes ("well rated 4.8",
	// "350m from center") shown in responses and rendered pages.
	Reasons []string `json:"reasons,omitempty"`
}

// RankMode selects how the final score is produced.
type RankMode string

const (
	// ModeAuto lets the complexity heuristic choose.
	ModeAuto RankMode = "auto"
	// ModeRule uses the deterministic rubric only.
	ModeRule RankMode = "rule"
	// ModeBlended combines the rubric with the semantic scorer
	// (rule*0.4 + semantic*0.6), degrading to rule-only on scorer failure.
	ModeBlended RankMode = "blended"
)

// Valid reports whether m is one of the known modes.
func (m RankMode) Valid() bool {
	switch m {
	case ModeAuto, ModeRule, ModeBlended:
		return true
	}
	return false
}

// RecommendationResult is the orchestrator's output for one request.
type RecommendationResult struct {
	Venues    []RankedCandidate `json:"venues"`
	Centroid  geo.Point         `json:"centroid"`
	Resolved  []ResolvedAddress `json:"resolved_locations"`
	Keyword   string            `json:"keyword"`
	RadiusM   int               `json:"radius_m"`
	Mode      RankMode          `json:"mode"`
	ModeAuto  bool              `json:"mode_auto"`
	Complexity int              `json:"complexity"`

	// SemanticDegraded is true when blended mode was requested but the
	// semantic scorer failed and the request fell back to rule-only.
	SemanticDegraded bool `json:"semantic_degraded,omitempty"`

	// ArtifactID references the rendered HTML page for this result, when
	// rendering is enabled.
	ArtifactID string `json:"artifact_id,omitempty"`

	Timings StageTimings `json:"timings"`
}

// StageTimings records per-stage wall time in milliseconds for observability.
type StageTimings struct {
	ResolveMS int64 `json:"resolve_ms"`
	SearchMS  int64 `json:"search_ms"`
	RankMS    int64 `json:"rank_ms"`
	TotalMS   int64 `json:"total_ms"`
}
