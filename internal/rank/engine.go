// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package rank scores and orders candidate venues.
//
// The rule rubric is five additive components capped at 100 total:
//
//	base         0-30  rating * 6 (unrated venues use the configured default)
//	popularity   0-20  log10(1+reviews)*5 plus up to 6 points for photos
//	distance     0-25  full inside 500 m, decaying with distance (see distanceScore)
//	scenario     0-15  keyword <-> name/type match via the synonym table
//	requirements 0-10  brand knowledge base feature matching
//
// A chain-diversity penalty subtracts from repeat brand occurrences so the
// result page is not five branches of the same franchise. In blended mode
// the rule score is combined with a semantic score (rule*0.4 + semantic*0.6);
// a semantic failure silently degrades the request to rule-only.
//
// Ranking is deterministic: identical inputs produce identical scores and
// ordering. Ties break by higher raw rating, then lower distance, then ID.
package rank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/confluo/internal/brands"
	"github.com/tomtom215/confluo/internal/logging"
	"github.com/tomtom215/confluo/internal/metrics"
	"github.com/tomtom215/confluo/internal/models"
)

// Component caps.
const (
	maxBase         = 30.0
	maxPopularity   = 20.0
	maxDistance     = 25.0
	maxScenario     = 15.0
	maxRequirements = 10.0
)

// ruleWeight and semanticWeight blend the two signals in blended mode.
const (
	ruleWeight     = 0.4
	semanticWeight = 0.6
)

// maxSemanticCandidates bounds how many candidates are sent to the scorer.
const maxSemanticCandidates = 15

// Config holds the engine's scoring parameters.
type Config struct {
	// DefaultRating substitutes for venues the provider reports unrated.
	DefaultRating float64
	// MaxDistanceM is the hard filter: candidates farther from the
	// centroid are excluded entirely, not scored zero.
	MaxDistanceM float64
}

// Request carries the user intent the rubric scores against.
type Request struct {
	Keyword      string
	Requirements []string // canonical feature names (brands.ParseRequirements output)
	FreeText     string   // original requirement text, passed to the semantic scorer

	// Pre-filters, applied before scoring.
	MinRating    float64
	PriceRange   string
	MaxDistanceM float64 // overrides Config.MaxDistanceM when > 0
}

// SemanticScorer produces 0-100 scores for candidates against the user's
// free-text request; satisfied by *semantic.Scorer. Implementations return
// a map keyed by candidate ID; missing IDs keep their rule score.
type SemanticScorer interface {
	ScoreCandidates(ctx context.Context, candidates []models.Candidate, keyword, freeText string) (map[string]float64, error)
}

// Engine ranks candidates. Safe for concurrent use; all state is read-only
// after construction.
type Engine struct {
	kb     *brands.KnowledgeBase
	scorer SemanticScorer
	cfg    Config
	log    zerolog.Logger
}

// NewEngine creates a ranking engine. scorer may be nil, in which case
// blended mode always degrades to rule-only.
func NewEngine(kb *brands.KnowledgeBase, scorer SemanticScorer, cfg Config) *Engine {
	if cfg.DefaultRating <= 0 {
		cfg.DefaultRating = 3.5
	}
	if cfg.MaxDistanceM <= 0 {
		cfg.MaxDistanceM = 100_000
	}
	return &Engine{
		kb:     kb,
		scorer: scorer,
		cfg:    cfg,
		log:    logging.WithComponent("rank"),
	}
}

// Rank scores and orders candidates. The returned degraded flag is true when
// blended mode was requested but the semantic scorer was missing or failed,
// and the result fell back to rule-only scoring.
func (e *Engine) Rank(ctx context.Context, candidates []models.Candidate, req Request, mode models.RankMode) (ranked []models.RankedCandidate, degraded bool) {
	maxDist := e.cfg.MaxDistanceM
	if req.MaxDistanceM > 0 {
		maxDist = req.MaxDistanceM
	}

	kept := e.prefilter(candidates, req, maxDist)
	metrics.CandidatesRanked.Observe(float64(len(kept)))
	if len(kept) == 0 {
		return nil, false
	}

	ranked = make([]models.RankedCandidate, len(kept))
	for i, c := range kept {
		ranked[i] = e.scoreOne(c, req, maxDist)
	}

	// Preliminary deterministic order so the diversity walk always sees
	// brands in the same sequence.
	sortRanked(ranked)
	applyDiversityPenalty(ranked)

	if mode == models.ModeBlended {
		degraded = !e.blend(ctx, ranked, req)
	}
	for i := range ranked {
		if ranked[i].Scores.SemanticScore == nil {
			ranked[i].Final = ranked[i].Scores.RuleScore
		}
	}

	sortRanked(ranked)
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Reasons = e.reasons(&ranked[i])
	}
	return ranked, degraded
}

// prefilter applies the hard filters: distance cap, minimum rating, and
// price range. Unrated venues pass the rating filter (they have no evidence
// either way).
func (e *Engine) prefilter(candidates []models.Candidate, req Request, maxDist float64) []models.Candidate {
	kept := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.DistanceMeters > maxDist {
			continue
		}
		if req.MinRating > 0 && c.Rating > 0 && c.Rating < req.MinRating {
			continue
		}
		if req.PriceRange != "" && c.PriceRange != "" && !priceMatches(c.PriceRange, req.PriceRange) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (e *Engine) scoreOne(c models.Candidate, req Request, maxDist float64) models.RankedCandidate {
	var b models.ScoreBreakdown
	b.Base = e.baseScore(c)
	b.Popularity = popularityScore(c)
	b.Distance = distanceScore(c.DistanceMeters, maxDist)
	b.Scenario = scenarioScore(c, req.Keyword)
	b.Requirements = e.requirementScore(c, req.Requirements)
	b.RuleScore = clamp(b.Base+b.Popularity+b.Distance+b.Scenario+b.Requirements, 0, 100)
	return models.RankedCandidate{Candidate: c, Scores: b, Final: b.RuleScore}
}

// baseScore maps the 0-5 rating onto 0-30. Rating 0 means the provider
// reported none; the configured default applies.
func (e *Engine) baseScore(c models.Candidate) float64 {
	rating := c.Rating
	if rating <= 0 {
		rating = e.cfg.DefaultRating
	}
	return math.Min(rating, 5) * 6
}

// popularityScore is a saturating log scale over review count plus a small
// photo bonus. log10 keeps thousand-review venues from drowning everything:
// 100 reviews ~ 10 points, 600+ reviews with 3 photos saturate the cap.
func popularityScore(c models.Candidate) float64 {
	var reviewScore float64
	if c.ReviewCount > 0 {
		reviewScore = math.Log10(float64(c.ReviewCount)+1) * 5
	}
	photoScore := math.Min(float64(c.PhotoCount)*2, 6)
	return math.Min(maxPopularity, reviewScore+photoScore)
}

// distanceScore awards the full 25 points inside 500 m, then decays with a
// power-1.5 curve to a 5-point floor at 2500 m, then linearly from 5 to 0
// between 2500 m and the hard cap. The piecewise tail keeps the function
// monotonic all the way to maxDist instead of plateauing at the floor.
func distanceScore(distM, maxDist float64) float64 {
	switch {
	case distM <= 500:
		return maxDistance
	case distM <= 2500:
		ratio := (distM - 500) / 2000
		return maxDistance * (1 - math.Pow(ratio, 1.5)*0.8)
	case distM >= maxDist:
		return 0
	default:
		floor := 5.0
		return floor * (1 - (distM-2500)/(maxDist-2500))
	}
}

// requirementScore distributes the 10-point cap proportionally across the
// requested requirements: each requirement is worth 10/n points and earns
// them when the brand knowledge base reports the venue satisfies it.
func (e *Engine) requirementScore(c models.Candidate, requirements []string) float64 {
	if len(requirements) == 0 {
		return 0
	}
	share := maxRequirements / float64(len(requirements))
	var score float64
	for _, req := range requirements {
		if ok, _ := e.kb.Satisfies(c.Name, c.Type, req); ok {
			score += share
		}
	}
	return math.Min(maxRequirements, score)
}

// applyDiversityPenalty subtracts from the second and later occurrences of
// the same chain brand: min(15, 5*seen) points, clamped at zero. Candidates
// must already be in their deterministic preliminary order.
func applyDiversityPenalty(ranked []models.RankedCandidate) {
	seen := make(map[string]int, len(ranked))
	for i := range ranked {
		base := brands.BaseName(ranked[i].Candidate.Name)
		if base == "" {
			continue
		}
		if n := seen[base]; n > 0 {
			penalty := math.Min(15, float64(n)*5)
			ranked[i].Scores.DiversityPenalty = penalty
			ranked[i].Scores.RuleScore = clamp(ranked[i].Scores.RuleScore-penalty, 0, 100)
			ranked[i].Final = ranked[i].Scores.RuleScore
		}
		seen[base]++
	}
}

// blend invokes the semantic scorer for the leading candidates and mixes the
// signals. Returns false when the scorer is unavailable or failed; the
// caller reports the degradation but the request still succeeds.
func (e *Engine) blend(ctx context.Context, ranked []models.RankedCandidate, req Request) bool {
	if e.scorer == nil {
		metrics.RecordSemanticSkipped()
		return false
	}

	n := len(ranked)
	if n > maxSemanticCandidates {
		n = maxSemanticCandidates
	}
	candidates := make([]models.Candidate, n)
	for i := 0; i < n; i++ {
		candidates[i] = ranked[i].Candidate
	}

	start := time.Now()
	scores, err := e.scorer.ScoreCandidates(ctx, candidates, req.Keyword, req.FreeText)
	metrics.RecordSemanticScore(time.Since(start), err)
	if err != nil {
		e.log.Warn().Err(err).Msg("Semantic scoring failed, degrading to rule-only")
		return false
	}

	for i := range ranked[:n] {
		sem, ok := scores[ranked[i].Candidate.ID]
		if !ok {
			continue
		}
		sem = clamp(sem, 0, 100)
		s := sem
		ranked[i].Scores.SemanticScore = &s
		ranked[i].Final = clamp(ranked[i].Scores.RuleScore*ruleWeight+sem*semanticWeight, 0, 100)
	}
	return true
}

// reasons builds the short per-venue notes shown in responses.
func (e *Engine) reasons(rc *models.RankedCandidate) []string {
	var out []string
	c := rc.Candidate

	switch {
	case c.DistanceMeters < 500:
		out = append(out, fmt.Sprintf("距离中心点仅%d米", int(c.DistanceMeters)))
	case c.DistanceMeters < 1500:
		out = append(out, fmt.Sprintf("位置便利，约%d米", int(c.DistanceMeters)))
	}

	switch {
	case c.Rating >= 4.5:
		out = append(out, fmt.Sprintf("口碑极佳，评分%.1f", c.Rating))
	case c.Rating >= 4.0:
		out = append(out, fmt.Sprintf("评价良好，%.1f分", c.Rating))
	}

	switch {
	case c.ReviewCount >= 500:
		out = append(out, fmt.Sprintf("人气火爆，%d条评价", c.ReviewCount))
	case c.ReviewCount >= 100:
		out = append(out, fmt.Sprintf("热门场所，%d人评价", c.ReviewCount))
	}

	if rc.Scores.Scenario >= maxScenario {
		out = append(out, "场景契合度高")
	}
	if rc.Scores.Requirements > 0 {
		out = append(out, "满足您的特殊需求")
	}

	if len(out) == 0 {
		out = append(out, "综合评价不错")
	}
	if len(out) > 2 {
		out = out[:2]
	}
	return out
}

// sortRanked orders by final score descending with deterministic
// tie-breaking: higher raw rating, then lower distance, then ID.
func sortRanked(ranked []models.RankedCandidate) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Final != b.Final {
			return a.Final > b.Final
		}
		if a.Candidate.Rating != b.Candidate.Rating {
			return a.Candidate.Rating > b.Candidate.Rating
		}
		if a.Candidate.DistanceMeters != b.Candidate.DistanceMeters {
			return a.Candidate.DistanceMeters < b.Candidate.DistanceMeters
		}
		return a.Candidate.ID < b.Candidate.ID
	})
}

func priceMatches(candidateBand, requested string) bool {
	return len(candidateBand) >= len(requested) && candidateBand[:len(requested)] == requested
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
