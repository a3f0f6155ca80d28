// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newBufferedSlogger(buf *bytes.Buffer) *slog.Logger {
	handler := NewSlogHandlerWithLogger(NewTestLogger(buf))
	return slog.New(handler)
}

func TestSlogHandlerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		logFn func(l *slog.Logger)
		want  string
	}{
		{"debug", func(l *slog.Logger) { l.Debug("m") }, `"level":"debug"`},
		{"info", func(l *slog.Logger) { l.Info("m") }, `"level":"info"`},
		{"warn", func(l *slog.Logger) { l.Warn("m") }, `"level":"warn"`},
		{"error", func(l *slog.Logger) { l.Error("m") }, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tt.logFn(newBufferedSlogger(&buf))
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q missing %q", buf.String(), tt.want)
			}
		})
	}
}

func TestSlogHandlerAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newBufferedSlogger(&buf)

	logger.Info("service event",
		slog.String("service", "http-server"),
		slog.Int("restarts", 2),
		slog.Bool("ok", true),
	)

	output := buf.String()
	for _, want := range []string{`"service":"http-server"`, `"restarts":2`, `"ok":true`, "service event"} {
		if !strings.Contains(output, want) {
			t.Errorf("output %q missing %q", output, want)
		}
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("tree", "root")}))

	logger.Info("started")

	if !strings.Contains(buf.String(), `"tree":"root"`) {
		t.Errorf("pre-configured attr missing: %s", buf.String())
	}
}

func TestSlogHandlerWithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(handler.WithGroup("suture"))

	logger.Info("event", slog.String("supervisor", "confluo-root"))

	if !strings.Contains(buf.String(), `"suture.supervisor":"confluo-root"`) {
		t.Errorf("group prefix missing: %s", buf.String())
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.WarnLevel)
	handler := NewSlogHandlerWithLogger(zl)

	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	NewSlogLogger().Info("bridged")

	if !strings.Contains(buf.String(), "bridged") {
		t.Errorf("global bridge failed: %s", buf.String())
	}
}
