package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/docbridge/internal/util/testutil"
)

func TestBackends(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"memory", "ydb"}, Backends())
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	opts := &NewBackendOpts{Logger: testutil.Logger(t)}

	b, err := NewBackend(ctx, "memory", opts)
	require.NoError(t, err)
	b.Close()

	_, err = NewBackend(ctx, "mysql", opts)
	assert.ErrorContains(t, err, `unknown backend "mysql"`)

	_, err = NewBackend(ctx, "ydb", opts)
	assert.ErrorContains(t, err, "YDB URL is required")

	_, err = NewBackend(ctx, "memory", nil)
	assert.Error(t, err)
}
