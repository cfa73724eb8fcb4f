package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithName(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := WithName(slog.New(slog.NewTextHandler(&buf, nil)), "ydb")
	l.Info("hello")
	assert.Contains(t, buf.String(), "name=ydb")

	l.Error("failed", Error(errors.New("boom")))
	assert.Contains(t, buf.String(), "error=boom")

	assert.NotNil(t, WithName(nil, "memory"))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	l, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
