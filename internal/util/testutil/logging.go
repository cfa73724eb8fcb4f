package testutil

import (
	"log/slog"
	"testing"
)

// testWriter writes log records to the test log.
type testWriter struct {
	tb testing.TB
}

// Write implements io.Writer.
func (w testWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(string(p))

	return len(p), nil
}

// Logger returns slog logger writing to the test log at debug level.
func Logger(tb testing.TB) *slog.Logger {
	tb.Helper()

	h := slog.NewTextHandler(testWriter{tb: tb}, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(h)
}
