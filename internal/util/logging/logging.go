// Package logging provides logging helpers.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// WithName returns a logger with the given name attribute.
//
// Nil logger is replaced with a logger that discards everything.
func WithName(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = Discard()
	}

	return l.With(slog.String("name", name))
}

// Discard returns a logger that drops all records.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a level name into slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}

	return l, nil
}

// Error returns an attribute for the error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}
