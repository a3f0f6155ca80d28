// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package rank

import (
	"testing"

	"github.com/tomtom215/confluo/internal/models"
)

func TestAssessComplexity(t *testing.T) {
	tests := []struct {
		name      string
		req       models.RecommendationRequest
		semantic  bool
		wantMode  models.RankMode
		wantScore int
	}{
		{
			name:      "simple two-party request stays rule",
			req:       models.RecommendationRequest{Locations: []string{"北大", "清华"}, Keyword: "咖啡馆", Mode: models.ModeAuto},
			semantic:  true,
			wantMode:  models.ModeRule,
			wantScore: 0,
		},
		{
			name: "many locations and requirements select blended",
			req: models.RecommendationRequest{
				Locations:    []string{"北大", "清华", "人大", "北师大"},
				Keyword:      "咖啡馆",
				Requirements: []string{"安静", "停车", "wifi"},
				Mode:         models.ModeAuto,
			},
			semantic:  true,
			wantMode:  models.ModeBlended,
			wantScore: 55,
		},
		{
			name: "three locations alone stay below threshold",
			req: models.RecommendationRequest{
				Locations: []string{"北大", "清华", "人大"},
				Keyword:   "咖啡馆",
				Mode:      models.ModeAuto,
			},
			semantic:  true,
			wantMode:  models.ModeRule,
			wantScore: 15,
		},
		{
			name: "multi-keyword adds variety score",
			req: models.RecommendationRequest{
				Locations: []string{"北大", "清华", "人大"},
				Keyword:   "咖啡馆 茶馆 餐厅",
				Mode:      models.ModeAuto,
			},
			semantic:  true,
			wantMode:  models.ModeBlended,
			wantScore: 40,
		},
		{
			name: "blended unavailable pins rule",
			req: models.RecommendationRequest{
				Locations:    []string{"北大", "清华", "人大", "北师大"},
				Keyword:      "咖啡馆",
				Requirements: []string{"安静", "停车", "wifi"},
				Mode:         models.ModeAuto,
			},
			semantic: false,
			wantMode: models.ModeRule,
		},
		{
			name: "explicit rule mode bypasses heuristic",
			req: models.RecommendationRequest{
				Locations:    []string{"北大", "清华", "人大", "北师大"},
				Keyword:      "咖啡馆",
				Requirements: []string{"安静", "停车", "wifi"},
				Mode:         models.ModeRule,
			},
			semantic: true,
			wantMode: models.ModeRule,
		},
		{
			name: "explicit blended mode honored when available",
			req: models.RecommendationRequest{
				Locations: []string{"北大", "清华"},
				Keyword:   "咖啡馆",
				Mode:      models.ModeBlended,
			},
			semantic: true,
			wantMode: models.ModeBlended,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AssessComplexity(&tt.req, DefaultComplexityThreshold, tt.semantic)
			if a.Mode != tt.wantMode {
				t.Errorf("Expected mode %s, got %s (score %d, reasons %v)", tt.wantMode, a.Mode, a.Score, a.Reasons)
			}
			if tt.wantScore != 0 && a.Score != tt.wantScore {
				t.Errorf("Expected score %d, got %d", tt.wantScore, a.Score)
			}
		})
	}
}

func TestAssessComplexity_FiltersAdd(t *testing.T) {
	req := models.RecommendationRequest{
		Locations:  []string{"北大", "清华"},
		Keyword:    "咖啡馆",
		MinRating:  4.0,
		PriceRange: "¥¥",
		Mode:       models.ModeAuto,
	}
	a := AssessComplexity(&req, DefaultComplexityThreshold, true)
	if a.Score != 10 {
		t.Errorf("Expected 10 points for two filters, got %d", a.Score)
	}
}
