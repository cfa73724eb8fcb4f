// Package registry provides a registry of backends.
package registry

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/backends/ydb/metadata"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

// newBackendFunc represents a function that constructs a new backend.
type newBackendFunc func(ctx context.Context, opts *NewBackendOpts) (backends.Backend, error)

// registry maps backend names to constructors.
//
// Map values must be added through the `init()` functions in separate files
// so that we can control which backends will be included in the build with build tags.
var registry = map[string]newBackendFunc{}

// NewBackendOpts represents configuration for constructing backends.
//
//nolint:vet // for readability
type NewBackendOpts struct {
	// for all backends
	Logger *slog.Logger

	// for `ydb` backend
	YDBURL  string
	YDBAuth *metadata.AuthParams

	_ struct{} // prevent unkeyed literals
}

// NewBackend constructs a new backend by name.
func NewBackend(ctx context.Context, name string, opts *NewBackendOpts) (backends.Backend, error) {
	if opts == nil {
		return nil, lazyerrors.New("opts is nil")
	}

	newBackend := registry[name]
	if newBackend == nil {
		return nil, lazyerrors.Errorf("unknown backend %q", name)
	}

	return newBackend(ctx, opts)
}

// Backends returns a list of registered backend names.
func Backends() []string {
	res := maps.Keys(registry)
	slices.Sort(res)

	return res
}
