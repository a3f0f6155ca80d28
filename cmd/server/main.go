// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Confluo finds the best venue for a group meeting. Given several
// starting locations, it geocodes each one, computes the geographic
// midpoint, searches for venues around it, and ranks them with a
// deterministic rubric optionally blended with a model judgment.
//
// # Quick Start
//
//	AMAP_KEY=your-web-service-key ./confluo
//
// With semantic scoring:
//
//	AMAP_KEY=... SEMANTIC_ENABLED=true SEMANTIC_API_KEY=sk-ant-... ./confluo
//
// # Port 4326
//
// The default port 4326 references EPSG:4326 (WGS 84), the coordinate
// system the engine computes in.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/confluo/internal/amap"
	"github.com/tomtom215/confluo/internal/api"
	"github.com/tomtom215/confluo/internal/brands"
	"github.com/tomtom215/confluo/internal/config"
	"github.com/tomtom215/confluo/internal/geocode"
	"github.com/tomtom215/confluo/internal/logging"
	"github.com/tomtom215/confluo/internal/metrics"
	"github.com/tomtom215/confluo/internal/places"
	"github.com/tomtom215/confluo/internal/rank"
	"github.com/tomtom215/confluo/internal/recommend"
	"github.com/tomtom215/confluo/internal/render"
	"github.com/tomtom215/confluo/internal/semantic"
	"github.com/tomtom215/confluo/internal/supervisor"
	"github.com/tomtom215/confluo/internal/supervisor/services"
)

// version is set at build time via -ldflags.
var version = "1.0.0"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("amap_key", logging.SanitizeToken(cfg.AMap.Key)).
		Bool("semantic_enabled", cfg.Semantic.Enabled).
		Msg("Starting Confluo")

	// Upstream map provider client with rate limiting and circuit breaking.
	amapClient := amap.NewClient(cfg.AMap)

	// Pipeline stages.
	resolver := geocode.NewResolver(amapClient, geocode.NewAliasTable(), cfg.Engine.GeocodeCacheSize)
	source := places.NewSource(amapClient, cfg.Engine.SearchRadiusM, cfg.Engine.FallbackRadiusM, cfg.Engine.SearchCacheSize)
	kb := brands.NewKnowledgeBase()

	// A nil *semantic.Scorer must not be stored in the interface, or the
	// engine's nil check never fires.
	semScorer := semantic.NewScorer(cfg.Semantic)
	var scorer rank.SemanticScorer
	if semScorer != nil {
		scorer = semScorer
	}
	engine := rank.NewEngine(kb, scorer, rank.Config{
		DefaultRating: cfg.Engine.DefaultRating,
		MaxDistanceM:  cfg.Engine.MaxDistanceM,
	})

	renderer := render.NewRenderer(cfg.Engine.ArtifactCacheSize)

	orchestrator := recommend.NewOrchestrator(
		cfg.Engine, resolver, source, engine, renderer, semScorer != nil)

	var semStatus api.UpstreamStatus
	if semScorer != nil {
		semStatus = semScorer
	}

	// HTTP surface.
	handler := api.NewHandler(api.HandlerConfig{
		Recommender:       orchestrator,
		Artifacts:         renderer,
		Upstream:          amapClient,
		Semantic:          semStatus,
		GeocodeCacheStats: resolver.CacheStats,
		SearchCacheStats:  source.CacheStats,
		InFlight:          orchestrator.InFlight,
		SemanticEnabled:   semScorer != nil,
		Version:           version,
	})

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled

	router := api.NewRouter(handler, mwConfig)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervision tree; sutureslog bridges zerolog to slog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Observability bookkeeping.
	metrics.SetAppInfo(version)
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateUptime(startTime)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
