// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package rank

import (
	"strings"

	"github.com/tomtom215/confluo/internal/brands"
	"github.com/tomtom215/confluo/internal/models"
)

// DefaultComplexityThreshold is the score at or above which auto mode
// selects blended ranking.
const DefaultComplexityThreshold = 40

// Assessment is the complexity router's verdict for one request.
type Assessment struct {
	Score   int             `json:"score"`
	Mode    models.RankMode `json:"mode"`
	Reasons []string        `json:"reasons,omitempty"`
}

// AssessComplexity estimates how much a request benefits from semantic
// scoring, with a simple additive heuristic over location count, keyword
// variety, requirement count, and explicit filters. Scores at or above
// threshold select blended mode; semanticAvailable false pins rule mode
// regardless (there is nothing to blend with).
//
// A request that pins mode "rule" or "blended" bypasses the heuristic; the
// score is still computed for observability.
func AssessComplexity(req *models.RecommendationRequest, threshold int, semanticAvailable bool) Assessment {
	if threshold <= 0 {
		threshold = DefaultComplexityThreshold
	}

	score := 0
	var reasons []string

	// Location count: more participants, harder centroid trade-offs.
	switch n := len(req.Locations); {
	case n >= 4:
		score += 30
		reasons = append(reasons, "4+ locations")
	case n >= 3:
		score += 15
		reasons = append(reasons, "3 locations")
	}

	// Keyword variety.
	switch n := len(splitKeyword(req.Keyword)); {
	case n >= 3:
		score += 25
		reasons = append(reasons, "3+ venue types")
	case n >= 2:
		score += 12
		reasons = append(reasons, "2 venue types")
	}

	// Requirement complexity: count canonical features recognized in the
	// requirement text; long unrecognized text also signals complexity.
	freeText := strings.Join(req.Requirements, " ")
	switch n := len(brands.ParseRequirements(req.Requirements)); {
	case n >= 3:
		score += 25
		reasons = append(reasons, "3+ requirements")
	case n >= 2:
		score += 15
		reasons = append(reasons, "2 requirements")
	case len([]rune(freeText)) > 50:
		score += 20
		reasons = append(reasons, "detailed custom requirements")
	}

	// Explicit filters.
	filters := 0
	if req.MinRating > 0 {
		filters++
	}
	if req.MaxDistanceM > 0 && req.MaxDistanceM < 10000 {
		filters++
	}
	if req.PriceRange != "" {
		filters++
	}
	if filters > 0 {
		score += filters * 5
		reasons = append(reasons, "explicit filters")
	}

	if score > 100 {
		score = 100
	}

	mode := models.ModeRule
	switch {
	case req.Mode == models.ModeRule || req.Mode == models.ModeBlended:
		mode = req.Mode
	case score >= threshold && semanticAvailable:
		mode = models.ModeBlended
	}
	if mode == models.ModeBlended && !semanticAvailable {
		mode = models.ModeRule
	}

	return Assessment{Score: score, Mode: mode, Reasons: reasons}
}
