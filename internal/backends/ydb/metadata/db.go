package metadata

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/ydb-platform/ydb-go-sdk/v3"

	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

// DB wraps YDB driver with the database URI it was opened with.
type DB struct {
	baseURI url.URL
	l       *slog.Logger
	Driver  *ydb.Driver
}

// New opens YDB driver for the given DSN.
func New(ctx context.Context, dsn string, auth *AuthParams, l *slog.Logger) (*DB, error) {
	baseURI, err := url.Parse(dsn)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if baseURI.Scheme == "" || baseURI.Host == "" {
		return nil, lazyerrors.Errorf("invalid YDB URI %q", dsn)
	}

	driver, err := openDB(ctx, baseURI.String(), auth, l)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return &DB{
		baseURI: *baseURI,
		l:       l,
		Driver:  driver,
	}, nil
}

// Close closes the driver.
func (db *DB) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Driver.Close(ctx); err != nil {
		db.l.Warn("Failed to close YDB driver", slog.String("error", err.Error()))
	}
}
