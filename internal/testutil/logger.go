// Package testutil provides shared test helpers.
package testutil

import (
	"log/slog"
	"testing"
)

// NewLogger returns a debug-level slog.Logger that writes through t.Log,
// so engine logs show up only on test failure or with -v.
func NewLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
