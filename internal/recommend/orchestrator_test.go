// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/confluo/internal/config"
	"github.com/tomtom215/confluo/internal/geo"
	"github.com/tomtom215/confluo/internal/geocode"
	"github.com/tomtom215/confluo/internal/models"
	"github.com/tomtom215/confluo/internal/places"
	"github.com/tomtom215/confluo/internal/rank"
)

type fakeResolver struct {
	mu    sync.Mutex
	addrs map[string]models.ResolvedAddress
	errs  map[string]error
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, raw string) (models.ResolvedAddress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[raw]; ok {
		return models.ResolvedAddress{}, err
	}
	addr, ok := f.addrs[raw]
	if !ok {
		return models.ResolvedAddress{}, &geocode.GeocodeError{Input: raw, Attempts: 2}
	}
	return addr, nil
}

type fakeSource struct {
	result     places.Result
	err        error
	gotCenter  geo.Point
	gotKeyword string
}

func (f *fakeSource) Search(_ context.Context, center geo.Point, keyword string, _ int) (places.Result, error) {
	f.gotCenter = center
	f.gotKeyword = keyword
	return f.result, f.err
}

type fakeRanker struct {
	gotMode  models.RankMode
	gotReq   rank.Request
	degraded bool
	block    chan struct{} // when set, Rank waits until closed
	entered  chan struct{} // when set, closed once Rank is running
}

func (f *fakeRanker) Rank(_ context.Context, candidates []models.Candidate, req rank.Request, mode models.RankMode) ([]models.RankedCandidate, bool) {
	f.gotMode = mode
	f.gotReq = req
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.block != nil {
		<-f.block
	}
	ranked := make([]models.RankedCandidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = models.RankedCandidate{
			Candidate: c,
			Final:     float64(100 - i),
			Rank:      i + 1,
		}
	}
	return ranked, f.degraded
}

type fakeRenderer struct {
	id  string
	err error
}

func (f *fakeRenderer) Render(*models.RecommendationResult) (string, error) {
	return f.id, f.err
}

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		TopN:                10,
		MaxInFlight:         3,
		QueueTimeout:        time.Second,
		ComplexityThreshold: 40,
	}
}

func testResolver() *fakeResolver {
	return &fakeResolver{addrs: map[string]models.ResolvedAddress{
		"北大": {Input: "北大", Point: geo.Point{Lat: 39.9926, Lon: 116.3057}},
		"清华": {Input: "清华", Point: geo.Point{Lat: 40.0005, Lon: 116.3262}},
		"人大": {Input: "人大", Point: geo.Point{Lat: 39.9695, Lon: 116.3175}},
		"北航": {Input: "北航", Point: geo.Point{Lat: 39.9818, Lon: 116.3473}},
	}}
}

func testCandidates(n int) []models.Candidate {
	out := make([]models.Candidate, n)
	for i := range out {
		out[i] = models.Candidate{
			ID:     fmt.Sprintf("B%03d", i),
			Name:   fmt.Sprintf("venue-%d", i),
			Point:  geo.Point{Lat: 39.99, Lon: 116.31},
			Rating: 4.5,
		}
	}
	return out
}

func TestOrchestrator_Recommend(t *testing.T) {
	source := &fakeSource{result: places.Result{
		Candidates: testCandidates(5),
		Keyword:    "咖啡馆",
		RadiusM:    5000,
	}}
	ranker := &fakeRanker{}
	o := NewOrchestrator(testConfig(), testResolver(), source, ranker, &fakeRenderer{id: "art-1"}, false)

	req := &models.RecommendationRequest{
		Locations: []string{"北大", "清华"},
		Keyword:   "咖啡馆",
	}
	result, err := o.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if len(result.Venues) != 5 {
		t.Errorf("Expected 5 venues, got %d", len(result.Venues))
	}
	if len(result.Resolved) != 2 {
		t.Errorf("Expected 2 resolved locations, got %d", len(result.Resolved))
	}
	if result.Resolved[0].Input != "北大" || result.Resolved[1].Input != "清华" {
		t.Errorf("Expected resolved order to match input order, got %v", result.Resolved)
	}
	if source.gotKeyword != "咖啡馆" {
		t.Errorf("Expected search keyword 咖啡馆, got %q", source.gotKeyword)
	}
	// Midpoint of the two campuses sits between their latitudes.
	if source.gotCenter.Lat <= 39.9926 || source.gotCenter.Lat >= 40.0005 {
		t.Errorf("Expected centroid latitude between the inputs, got %f", source.gotCenter.Lat)
	}
	if result.RadiusM != 5000 {
		t.Errorf("Expected radius 5000, got %d", result.RadiusM)
	}
	if result.ArtifactID != "art-1" {
		t.Errorf("Expected artifact ID art-1, got %q", result.ArtifactID)
	}
	if ranker.gotMode != models.ModeRule {
		t.Errorf("Expected rule mode for a simple request, got %s", ranker.gotMode)
	}
	if !result.ModeAuto {
		t.Error("Expected ModeAuto true when mode was not pinned")
	}
}

func TestOrchestrator_AggregatesAllGeocodeFailures(t *testing.T) {
	resolver := testResolver()
	resolver.errs = map[string]error{
		"nowhere-1": &geocode.GeocodeError{Input: "nowhere-1", Attempts: 2},
		"nowhere-2": &geocode.GeocodeError{Input: "nowhere-2", Attempts: 2},
	}
	source := &fakeSource{result: places.Result{Candidates: testCandidates(3)}}
	o := NewOrchestrator(testConfig(), resolver, source, &fakeRanker{}, nil, false)

	req := &models.RecommendationRequest{
		Locations: []string{"北大", "nowhere-1", "nowhere-2"},
		Keyword:   "咖啡馆",
	}
	_, err := o.Recommend(context.Background(), req)

	var pge *PartialGeocodeError
	if !errors.As(err, &pge) {
		t.Fatalf("Expected PartialGeocodeError, got %v", err)
	}
	if len(pge.Failures) != 2 {
		t.Fatalf("Expected 2 failures, got %d", len(pge.Failures))
	}
	inputs := pge.FailedInputs()
	if inputs[0] != "nowhere-1" || inputs[1] != "nowhere-2" {
		t.Errorf("Expected both failing inputs reported, got %v", inputs)
	}
}

func TestOrchestrator_NonGeocodeResolveFailureAborts(t *testing.T) {
	resolver := testResolver()
	resolver.errs = map[string]error{"北大": context.DeadlineExceeded}
	o := NewOrchestrator(testConfig(), resolver, &fakeSource{}, &fakeRanker{}, nil, false)

	req := &models.RecommendationRequest{Locations: []string{"北大"}, Keyword: "咖啡馆"}
	_, err := o.Recommend(context.Background(), req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected wrapped deadline error, got %v", err)
	}
	var pge *PartialGeocodeError
	if errors.As(err, &pge) {
		t.Error("Expected infrastructure failure not to be reported as a geocode failure")
	}
}

func TestOrchestrator_NoCandidates(t *testing.T) {
	source := &fakeSource{result: places.Result{Keyword: "咖啡馆", RadiusM: 50000}}
	o := NewOrchestrator(testConfig(), testResolver(), source, &fakeRanker{}, nil, false)

	req := &models.RecommendationRequest{Locations: []string{"北大"}, Keyword: "咖啡馆"}
	_, err := o.Recommend(context.Background(), req)

	var nce *NoCandidatesError
	if !errors.As(err, &nce) {
		t.Fatalf("Expected NoCandidatesError, got %v", err)
	}
	if nce.RadiusM != 50000 {
		t.Errorf("Expected radius 50000 in error, got %d", nce.RadiusM)
	}
}

func TestOrchestrator_TopN(t *testing.T) {
	tests := []struct {
		name      string
		reqTopN   int
		available int
		want      int
	}{
		{"default applies", 0, 25, 10},
		{"request override", 3, 25, 3},
		{"capped at available", 15, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{result: places.Result{Candidates: testCandidates(tt.available), RadiusM: 5000}}
			o := NewOrchestrator(testConfig(), testResolver(), source, &fakeRanker{}, nil, false)
			req := &models.RecommendationRequest{
				Locations: []string{"北大"},
				Keyword:   "咖啡馆",
				TopN:      tt.reqTopN,
			}
			result, err := o.Recommend(context.Background(), req)
			if err != nil {
				t.Fatalf("Expected success, got %v", err)
			}
			if len(result.Venues) != tt.want {
				t.Errorf("Expected %d venues, got %d", tt.want, len(result.Venues))
			}
		})
	}
}

func TestOrchestrator_TopNZeroConfigDefault(t *testing.T) {
	source := &fakeSource{result: places.Result{Candidates: testCandidates(25), RadiusM: 5000}}
	o := NewOrchestrator(config.EngineConfig{}, testResolver(), source, &fakeRanker{}, nil, false)

	result, err := o.Recommend(context.Background(), &models.RecommendationRequest{
		Locations: []string{"北大"},
		Keyword:   "咖啡馆",
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if len(result.Venues) != 5 {
		t.Errorf("Expected 5 venues from the built-in default, got %d", len(result.Venues))
	}
}

func TestOrchestrator_ModeSelection(t *testing.T) {
	complexReq := func() *models.RecommendationRequest {
		return &models.RecommendationRequest{
			Locations:    []string{"北大", "清华", "人大", "北航"},
			Keyword:      "咖啡馆",
			Requirements: []string{"安静", "停车", "WiFi"},
			Mode:         models.ModeAuto,
		}
	}

	tests := []struct {
		name              string
		req               *models.RecommendationRequest
		semanticAvailable bool
		wantMode          models.RankMode
	}{
		{"complex with scorer goes blended", complexReq(), true, models.ModeBlended},
		{"complex without scorer stays rule", complexReq(), false, models.ModeRule},
		{
			"simple stays rule",
			&models.RecommendationRequest{Locations: []string{"北大"}, Keyword: "咖啡馆", Mode: models.ModeAuto},
			true,
			models.ModeRule,
		},
		{
			"pinned rule ignores complexity",
			&models.RecommendationRequest{
				Locations:    []string{"北大", "清华", "人大", "北航"},
				Keyword:      "咖啡馆",
				Requirements: []string{"安静", "停车", "WiFi"},
				Mode:         models.ModeRule,
			},
			true,
			models.ModeRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{result: places.Result{Candidates: testCandidates(3), RadiusM: 5000}}
			ranker := &fakeRanker{}
			o := NewOrchestrator(testConfig(), testResolver(), source, ranker, nil, tt.semanticAvailable)
			result, err := o.Recommend(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Expected success, got %v", err)
			}
			if ranker.gotMode != tt.wantMode {
				t.Errorf("Expected mode %s, got %s", tt.wantMode, ranker.gotMode)
			}
			if result.Mode != tt.wantMode {
				t.Errorf("Expected result mode %s, got %s", tt.wantMode, result.Mode)
			}
		})
	}
}

func TestOrchestrator_RequirementsCanonicalized(t *testing.T) {
	source := &fakeSource{result: places.Result{Candidates: testCandidates(3), RadiusM: 5000}}
	ranker := &fakeRanker{}
	o := NewOrchestrator(testConfig(), testResolver(), source, ranker, nil, false)

	req := &models.RecommendationRequest{
		Locations:    []string{"北大"},
		Keyword:      "咖啡馆",
		Requirements: []string{"parking", "quiet"},
	}
	if _, err := o.Recommend(context.Background(), req); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if len(ranker.gotReq.Requirements) != 2 {
		t.Fatalf("Expected 2 canonical requirements, got %v", ranker.gotReq.Requirements)
	}
	if ranker.gotReq.Requirements[0] != "停车" || ranker.gotReq.Requirements[1] != "安静" {
		t.Errorf("Expected canonical feature names, got %v", ranker.gotReq.Requirements)
	}
	if ranker.gotReq.FreeText != "parking quiet" {
		t.Errorf("Expected original free text preserved, got %q", ranker.gotReq.FreeText)
	}
}

func TestOrchestrator_InvalidInput(t *testing.T) {
	o := NewOrchestrator(testConfig(), testResolver(), &fakeSource{}, &fakeRanker{}, nil, false)

	tests := []struct {
		name string
		req  *models.RecommendationRequest
	}{
		{"no locations", &models.RecommendationRequest{Keyword: "咖啡馆"}},
		{"no keyword", &models.RecommendationRequest{Locations: []string{"北大"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Recommend(context.Background(), tt.req)
			var iie *InvalidInputError
			if !errors.As(err, &iie) {
				t.Errorf("Expected InvalidInputError, got %v", err)
			}
		})
	}
}

func TestOrchestrator_CapacityRejection(t *testing.T) {
	cfg := testConfig()
	cfg.MaxInFlight = 1
	cfg.QueueTimeout = 20 * time.Millisecond

	block := make(chan struct{})
	entered := make(chan struct{})
	ranker := &fakeRanker{block: block, entered: entered}
	source := &fakeSource{result: places.Result{Candidates: testCandidates(3), RadiusM: 5000}}
	o := NewOrchestrator(cfg, testResolver(), source, ranker, nil, false)

	req := &models.RecommendationRequest{Locations: []string{"北大"}, Keyword: "咖啡馆"}

	done := make(chan error, 1)
	go func() {
		_, err := o.Recommend(context.Background(), req)
		done <- err
	}()
	<-entered

	_, err := o.Recommend(context.Background(), req)
	if !errors.Is(err, ErrCapacity) {
		t.Errorf("Expected ErrCapacity while the slot is held, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("Expected the held request to finish, got %v", err)
	}

	// Slot released; the next request goes straight through.
	if _, err := o.Recommend(context.Background(), req); err != nil {
		t.Errorf("Expected success after slot release, got %v", err)
	}
}

func TestOrchestrator_RendererFailureIsNonFatal(t *testing.T) {
	source := &fakeSource{result: places.Result{Candidates: testCandidates(3), RadiusM: 5000}}
	renderer := &fakeRenderer{err: errors.New("template exploded")}
	o := NewOrchestrator(testConfig(), testResolver(), source, &fakeRanker{}, renderer, false)

	req := &models.RecommendationRequest{Locations: []string{"北大"}, Keyword: "咖啡馆"}
	result, err := o.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected success despite renderer failure, got %v", err)
	}
	if result.ArtifactID != "" {
		t.Errorf("Expected empty artifact ID, got %q", result.ArtifactID)
	}
}

func TestOrchestrator_SemanticDegradationSurfaced(t *testing.T) {
	source := &fakeSource{result: places.Result{Candidates: testCandidates(3), RadiusM: 5000}}
	ranker := &fakeRanker{degraded: true}
	o := NewOrchestrator(testConfig(), testResolver(), source, ranker, nil, true)

	req := &models.RecommendationRequest{
		Locations: []string{"北大"},
		Keyword:   "咖啡馆",
		Mode:      models.ModeBlended,
	}
	result, err := o.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if !result.SemanticDegraded {
		t.Error("Expected SemanticDegraded true when the ranker fell back")
	}
	if result.ModeAuto {
		t.Error("Expected ModeAuto false for a pinned mode")
	}
}
