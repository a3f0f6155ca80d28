// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package semantic scores candidate venues against the user's free-text
// request with the Claude messages API.
//
// The scorer sends a compact JSON summary of the candidates plus the user's
// keyword and requirements, and asks the model for a JSON array of 0-100
// scores. The ranking engine blends these with its rule score; any failure
// here (transport, refusal, unparseable output) is reported as an error and
// absorbed by the engine as a rule-only fallback, never a failed request.
// A circuit breaker short-circuits scoring while the API is unhealthy so
// degraded requests do not pay the full API timeout.
package semantic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/confluo/internal/config"
	"github.com/tomtom215/confluo/internal/logging"
	"github.com/tomtom215/confluo/internal/metrics"
	"github.com/tomtom215/confluo/internal/models"
)

const systemPrompt = "你是会面地点推荐助手。根据参与者需求为候选场所打分，只返回JSON数组，不要其他内容。"

// Scorer calls Claude to judge candidates. Safe for concurrent use.
type Scorer struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
	breaker     *gobreaker.CircuitBreaker[map[string]float64]
	log         zerolog.Logger
}

// NewScorer creates a scorer from configuration. Returns nil when semantic
// scoring is disabled or no API key is configured; the engine treats a nil
// scorer as permanently degraded.
func NewScorer(cfg config.SemanticConfig) *Scorer {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// The breaker opens after 3 consecutive failures and probes again after
	// a minute. While open, every request degrades to rule-only scoring
	// immediately instead of waiting out the API timeout.
	settings := gobreaker.Settings{
		Name:        "semantic",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("component", "semantic").
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	}

	return &Scorer{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
		breaker:     gobreaker.NewCircuitBreaker[map[string]float64](settings),
		log:         logging.WithComponent("semantic"),
	}
}

// BreakerState returns the circuit breaker state string for status reporting.
func (s *Scorer) BreakerState() string {
	return s.breaker.State().String()
}

// candidateSummary is the compact per-venue record sent to the model.
type candidateSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	DistanceM   int     `json:"distance_m"`
	Address     string  `json:"address,omitempty"`
}

// verdict is one entry of the model's expected reply.
type verdict struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// ScoreCandidates returns 0-100 scores keyed by candidate ID. Candidates
// the model omitted are absent from the map; the engine keeps their rule
// score. Implements rank.SemanticScorer.
func (s *Scorer) ScoreCandidates(ctx context.Context, candidates []models.Candidate, keyword, freeText string) (map[string]float64, error) {
	if len(candidates) == 0 {
		return map[string]float64{}, nil
	}

	return s.breaker.Execute(func() (map[string]float64, error) {
		return s.score(ctx, candidates, keyword, freeText)
	})
}

func (s *Scorer) score(ctx context.Context, candidates []models.Candidate, keyword, freeText string) (map[string]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt, err := s.buildPrompt(candidates, keyword, freeText)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: s.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if s.temperature > 0 {
		params.Temperature = anthropic.Float(s.temperature)
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("semantic: messages API: %w", err)
	}
	metrics.RecordSemanticUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("semantic: empty model response")
	}

	scores, err := parseVerdicts(text.String())
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("candidates", len(candidates)).Int("scored", len(scores)).Msg("Semantic scoring complete")
	return scores, nil
}

// HealthCheck probes the API with a minimal request. Used by the readiness
// endpoint; a failing probe does not disable the scorer (each request
// degrades individually).
func (s *Scorer) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: 8,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: health probe: %w", err)
	}
	return nil
}

func (s *Scorer) buildPrompt(candidates []models.Candidate, keyword, freeText string) (string, error) {
	summaries := make([]candidateSummary, len(candidates))
	for i, c := range candidates {
		summaries[i] = candidateSummary{
			ID:          c.ID,
			Name:        c.Name,
			Type:        c.Type,
			Rating:      c.Rating,
			ReviewCount: c.ReviewCount,
			DistanceM:   int(c.DistanceMeters),
			Address:     c.Address,
		}
	}
	encoded, err := json.Marshal(summaries)
	if err != nil {
		return "", fmt.Errorf("semantic: encode candidates: %w", err)
	}

	if freeText == "" {
		freeText = "无特殊要求"
	}

	return fmt.Sprintf(`请为以下候选会面场所打分（0-100）。

## 会面信息
- 寻找的场所类型: %s
- 用户特殊需求: %s

## 候选场所
%s

## 评分要求
综合考虑：需求匹配度(30%%)、位置便利性(25%%)、场所品质(25%%)、特色吸引力(20%%)。

## 输出格式
直接返回JSON数组，按场所原始id：
[{"id":"B000A1","score":85},{"id":"B000A2","score":70}]`, keyword, freeText, encoded), nil
}

// parseVerdicts extracts the score array from the model reply, tolerating
// a markdown code fence around the JSON. Scores are clamped to [0,100].
func parseVerdicts(reply string) (map[string]float64, error) {
	content := strings.TrimSpace(reply)
	if i := strings.Index(content, "```"); i >= 0 {
		content = content[i+3:]
		content = strings.TrimPrefix(content, "json")
		if j := strings.Index(content, "```"); j >= 0 {
			content = content[:j]
		}
		content = strings.TrimSpace(content)
	}

	var verdicts []verdict
	if err := json.Unmarshal([]byte(content), &verdicts); err != nil {
		return nil, fmt.Errorf("semantic: parse model reply: %w", err)
	}

	scores := make(map[string]float64, len(verdicts))
	for _, v := range verdicts {
		score := v.Score
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		scores[v.ID] = score
	}
	return scores, nil
}
