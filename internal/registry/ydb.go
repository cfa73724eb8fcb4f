package registry

import (
	"context"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/backends/ydb"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
	"github.com/ydb-platform/docbridge/internal/util/logging"
)

// init registers "ydb" backend.
func init() {
	registry["ydb"] = func(ctx context.Context, opts *NewBackendOpts) (backends.Backend, error) {
		if opts.YDBURL == "" {
			return nil, lazyerrors.New("YDB URL is required")
		}

		b, err := ydb.NewBackend(ctx, &ydb.NewBackendParams{
			URI:  opts.YDBURL,
			Auth: opts.YDBAuth,
			L:    logging.WithName(opts.Logger, "registry"),
		})
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		return b, nil
	}
}
