// Package rlzlog provides the injected logging seam used throughout the build
// pipeline. Per design, no component reaches for a global logger: every builder
// takes a [Logger] explicitly.
package rlzlog

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Logger is the minimal structured logging contract the pipeline depends on.
// Components log stage start/done events with timing and counters; the
// orchestrator additionally logs whether an artifact was "loaded" (cache hit)
// or "built" (rebuilt from scratch).
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Nop discards everything. Useful in tests and library callers that don't want
// output.
type Nop struct{}

func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

// compile-time checks
var (
	_ Logger = Nop{}
	_ Logger = (*slogLogger)(nil)
)

type slogLogger struct {
	l *slog.Logger
}

// New builds a Logger writing structured (text) lines to w, at or above level.
func New(w io.Writer, level slog.Level) Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &slogLogger{l: slog.New(h)}
}

func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// Stage times a single named pipeline stage and logs its start and completion,
// matching how the orchestrator reports "loaded" vs "built" for each artifact.
//
// Usage:
//
//	done := rlzlog.Stage(ctx, log, "C3", "build dictionary")
//	defer done("picked", len(picked), "bytes", len(dict))
func Stage(_ context.Context, log Logger, component, action string) func(fields ...any) {
	start := time.Now()

	log.Info(action+" start", "component", component)

	return func(fields ...any) {
		args := append([]any{"component", component, "elapsed", time.Since(start).String()}, fields...)
		log.Info(action+" done", args...)
	}
}
