// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package supervisor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingService struct {
	starts atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(slog.Default(), TreeConfig{})
	if err != nil {
		t.Fatalf("Expected tree construction to succeed, got %v", err)
	}
	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("Expected default threshold 5.0, got %f", tree.config.FailureThreshold)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected default shutdown timeout 10s, got %v", tree.config.ShutdownTimeout)
	}
	if tree.Root() == nil {
		t.Error("Expected a root supervisor")
	}
}

func TestSupervisorTree_RunsAndStopsServices(t *testing.T) {
	tree, err := NewSupervisorTree(slog.Default(), DefaultTreeConfig())
	if err != nil {
		t.Fatalf("Expected tree construction to succeed, got %v", err)
	}

	svc := &countingService{}
	tree.AddAPIService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for svc.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("Expected service to start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected supervisor to stop after cancellation")
	}

	if svc.starts.Load() != 1 {
		t.Errorf("Expected exactly one start, got %d", svc.starts.Load())
	}
}
