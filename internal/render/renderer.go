// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package render turns a finished recommendation into a browsable HTML
// page and keeps recent pages in a bounded in-memory store so they can
// be fetched by ID. All user-supplied content passes through
// html/template escaping.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/confluo/internal/cache"
	"github.com/tomtom215/confluo/internal/logging"
	"github.com/tomtom215/confluo/internal/metrics"
	"github.com/tomtom215/confluo/internal/models"
)

// Artifact is one stored result page.
type Artifact struct {
	ID        string
	HTML      string
	Keyword   string
	CreatedAt time.Time
}

// Renderer renders result pages and stores them for later retrieval.
// Safe for concurrent use.
type Renderer struct {
	tmpl  *template.Template
	store *cache.BoundedCache[string, Artifact]
	log   zerolog.Logger
}

// NewRenderer builds a renderer whose store holds at most capacity pages;
// the oldest page is evicted when a new one arrives at capacity.
func NewRenderer(capacity int) *Renderer {
	if capacity <= 0 {
		capacity = 50
	}
	return &Renderer{
		tmpl:  template.Must(template.New("result").Funcs(funcMap()).Parse(resultPageTemplate)),
		store: cache.NewBounded[string, Artifact](capacity),
		log:   logging.WithComponent("render"),
	}
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatScore": func(f float64) string {
			return fmt.Sprintf("%.1f", f)
		},
		"formatDistance": func(m float64) string {
			if m < 1000 {
				return fmt.Sprintf("%.0f m", m)
			}
			return fmt.Sprintf("%.1f km", m/1000)
		},
		"formatCoord": func(f float64) string {
			return fmt.Sprintf("%.6f", f)
		},
		"ratingStars": func(rating float64) string {
			full := int(rating)
			if full > 5 {
				full = 5
			}
			var b strings.Builder
			for i := 0; i < full; i++ {
				b.WriteString("★")
			}
			for i := full; i < 5; i++ {
				b.WriteString("☆")
			}
			return b.String()
		},
		"joinReasons": func(reasons []string) string {
			return strings.Join(reasons, " · ")
		},
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// Render produces the HTML page for a result, stores it, and returns the
// artifact ID.
func (r *Renderer) Render(result *models.RecommendationResult) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, result); err != nil {
		return "", fmt.Errorf("render result page: %w", err)
	}

	artifact := Artifact{
		ID:        uuid.NewString(),
		HTML:      buf.String(),
		Keyword:   result.Keyword,
		CreatedAt: time.Now(),
	}
	r.store.Put(artifact.ID, artifact)
	metrics.ArtifactsRendered.Inc()
	metrics.ArtifactStoreSize.Set(float64(r.store.Len()))

	r.log.Debug().
		Str("artifact_id", artifact.ID).
		Int("bytes", len(artifact.HTML)).
		Msg("Result page rendered")
	return artifact.ID, nil
}

// Get returns a stored page by ID. Evicted or unknown IDs return false.
func (r *Renderer) Get(id string) (Artifact, bool) {
	return r.store.Get(id)
}

// StoreStats exposes hit/miss/eviction counters for the status endpoint.
func (r *Renderer) StoreStats() cache.Stats {
	return r.store.Stats()
}
