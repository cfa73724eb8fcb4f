// Package ydb provides YDB backend.
//
// Documents are stored as JSON in the `_jsonb` column of per-collection tables;
// pushable filters are compiled to JSON_EXISTS expressions over that column.
package ydb

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/backends/ydb/metadata"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
	"github.com/ydb-platform/docbridge/internal/util/logging"
)

// nowFunc returns the time used to stamp written documents.
var nowFunc = time.Now

// backend implements backends.Backend interface.
type backend struct {
	r *metadata.Registry
	l *slog.Logger
}

// NewBackendParams represents the parameters of NewBackend function.
//
//nolint:vet // for readability
type NewBackendParams struct {
	URI  string
	Auth *metadata.AuthParams
	L    *slog.Logger
	_    struct{} // prevent unkeyed literals
}

// NewBackend creates a new YDB backend.
func NewBackend(ctx context.Context, params *NewBackendParams) (backends.Backend, error) {
	l := logging.WithName(params.L, "ydb")

	r, err := metadata.NewRegistry(ctx, params.URI, params.Auth, l)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return &backend{
		r: r,
		l: l,
	}, nil
}

// Close implements backends.Backend interface.
func (b *backend) Close() {
	b.r.Close()
}

// Collection implements backends.Backend interface.
func (b *backend) Collection(dbName, name string) (backends.Collection, error) {
	if !metadata.ValidCollectionName(name) {
		return nil, backends.NewError(
			backends.ErrorCodeCollectionNameIsInvalid,
			lazyerrors.Errorf("invalid collection name %q in database %q", name, dbName),
		)
	}

	return newCollection(b.r, b.l, dbName, name), nil
}

// ListCollections implements backends.Backend interface.
//
//nolint:lll // for readability
func (b *backend) ListCollections(ctx context.Context, params *backends.ListCollectionsParams) (*backends.ListCollectionsResult, error) {
	list, err := b.r.CollectionList(ctx, params.DBName)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	res := make([]backends.CollectionInfo, len(list))
	for i, c := range list {
		res[i] = backends.CollectionInfo{
			Name: c.Name,
			UUID: c.UUID,
		}
	}

	return &backends.ListCollectionsResult{Collections: res}, nil
}

// CreateCollection implements backends.Backend interface.
func (b *backend) CreateCollection(ctx context.Context, params *backends.CreateCollectionParams) error {
	if !metadata.ValidCollectionName(params.Name) {
		return backends.NewError(
			backends.ErrorCodeCollectionNameIsInvalid,
			lazyerrors.Errorf("invalid collection name %q", params.Name),
		)
	}

	created, err := b.r.CollectionCreate(ctx, &metadata.CollectionCreateParams{
		DBName: params.DBName,
		Name:   params.Name,
	})
	if err != nil {
		return lazyerrors.Error(err)
	}

	if !created {
		return backends.NewError(
			backends.ErrorCodeCollectionAlreadyExists,
			lazyerrors.Errorf("collection %s.%s already exists", params.DBName, params.Name),
		)
	}

	return nil
}

// DropCollection implements backends.Backend interface.
func (b *backend) DropCollection(ctx context.Context, params *backends.DropCollectionParams) error {
	dropped, err := b.r.CollectionDrop(ctx, params.DBName, params.Name)
	if err != nil {
		return lazyerrors.Error(err)
	}

	if !dropped {
		return backends.NewError(
			backends.ErrorCodeCollectionDoesNotExist,
			lazyerrors.Errorf("no collection %s.%s", params.DBName, params.Name),
		)
	}

	return nil
}

// Describe implements prometheus.Collector.
func (b *backend) Describe(ch chan<- *prometheus.Desc) {
	b.r.Describe(ch)
}

// Collect implements prometheus.Collector.
func (b *backend) Collect(ch chan<- prometheus.Metric) {
	b.r.Collect(ch)
}

// check interfaces
var (
	_ backends.Backend = (*backend)(nil)
)
