package registry

import (
	"context"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/backends/memory"
)

// init registers "memory" backend.
func init() {
	registry["memory"] = func(_ context.Context, opts *NewBackendOpts) (backends.Backend, error) {
		return memory.NewBackend(&memory.NewBackendParams{L: opts.Logger}), nil
	}
}
