// Package memory provides an in-process backend.
//
// It evaluates backend filters with the post-filter evaluator in strict mode,
// which makes it a reference implementation for other backends and a test double.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/maps"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
	"github.com/ydb-platform/docbridge/internal/util/logging"
	"github.com/ydb-platform/docbridge/internal/where"
)

// Parts of Prometheus metric names.
const (
	namespace = "docbridge"
	subsystem = "memory"
)

// backend implements backends.Backend interface.
//
//nolint:vet // for readability
type backend struct {
	l  *slog.Logger
	e  *where.Evaluator
	rw sync.RWMutex

	// database name -> collection name -> stored collection
	dbs map[string]map[string]*storage
}

// storage holds documents of a single collection.
type storage struct {
	uuid string
	docs map[string]types.Document // $id -> document
}

// NewBackendParams represents the parameters of NewBackend function.
//
//nolint:vet // for readability
type NewBackendParams struct {
	L *slog.Logger
	_ struct{} // prevent unkeyed literals
}

// NewBackend creates a new in-memory backend.
func NewBackend(params *NewBackendParams) backends.Backend {
	if params == nil {
		params = new(NewBackendParams)
	}

	l := logging.WithName(params.L, "memory")

	return &backend{
		l:   l,
		e:   &where.Evaluator{Strict: true, L: l},
		dbs: make(map[string]map[string]*storage),
	}
}

// Close implements backends.Backend interface.
func (b *backend) Close() {
	b.rw.Lock()
	defer b.rw.Unlock()

	b.dbs = make(map[string]map[string]*storage)
}

// Collection implements backends.Backend interface.
func (b *backend) Collection(dbName, name string) (backends.Collection, error) {
	if name == "" {
		return nil, backends.NewError(
			backends.ErrorCodeCollectionNameIsInvalid,
			lazyerrors.Errorf("empty collection name in database %q", dbName),
		)
	}

	return newCollection(b, dbName, name), nil
}

// ListCollections implements backends.Backend interface.
//
//nolint:lll // for readability
func (b *backend) ListCollections(ctx context.Context, params *backends.ListCollectionsParams) (*backends.ListCollectionsResult, error) {
	b.rw.RLock()
	defer b.rw.RUnlock()

	colls := b.dbs[params.DBName]

	names := maps.Keys(colls)
	sort.Strings(names)

	res := make([]backends.CollectionInfo, len(names))
	for i, name := range names {
		res[i] = backends.CollectionInfo{Name: name, UUID: colls[name].uuid}
	}

	return &backends.ListCollectionsResult{Collections: res}, nil
}

// CreateCollection implements backends.Backend interface.
func (b *backend) CreateCollection(ctx context.Context, params *backends.CreateCollectionParams) error {
	b.rw.Lock()
	defer b.rw.Unlock()

	if _, created := b.storage(params.DBName, params.Name, true); !created {
		return backends.NewError(
			backends.ErrorCodeCollectionAlreadyExists,
			lazyerrors.Errorf("collection %s.%s already exists", params.DBName, params.Name),
		)
	}

	return nil
}

// DropCollection implements backends.Backend interface.
func (b *backend) DropCollection(ctx context.Context, params *backends.DropCollectionParams) error {
	b.rw.Lock()
	defer b.rw.Unlock()

	colls := b.dbs[params.DBName]
	if _, ok := colls[params.Name]; !ok {
		return backends.NewError(
			backends.ErrorCodeCollectionDoesNotExist,
			lazyerrors.Errorf("no collection %s.%s", params.DBName, params.Name),
		)
	}

	delete(colls, params.Name)

	return nil
}

// storage returns collection storage, creating it if requested.
//
// It does not hold the lock.
func (b *backend) storage(dbName, name string, create bool) (*storage, bool) {
	colls := b.dbs[dbName]
	if s := colls[name]; s != nil {
		return s, false
	}

	if !create {
		return nil, false
	}

	if colls == nil {
		colls = make(map[string]*storage)
		b.dbs[dbName] = colls
	}

	s := &storage{
		uuid: uuid.NewString(),
		docs: make(map[string]types.Document),
	}
	colls[name] = s

	b.l.Debug("Collection created", slog.String("db", dbName), slog.String("collection", name))

	return s, true
}

// Describe implements prometheus.Collector.
func (b *backend) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(b, ch)
}

// Collect implements prometheus.Collector.
func (b *backend) Collect(ch chan<- prometheus.Metric) {
	b.rw.RLock()
	defer b.rw.RUnlock()

	for db, colls := range b.dbs {
		var docs int

		for _, s := range colls {
			docs += len(s.docs)
		}

		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(
				prometheus.BuildFQName(namespace, subsystem, "collections"),
				"The current number of collections.",
				[]string{"db"}, nil,
			),
			prometheus.GaugeValue,
			float64(len(colls)),
			db,
		)

		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(
				prometheus.BuildFQName(namespace, subsystem, "documents"),
				"The current number of documents.",
				[]string{"db"}, nil,
			),
			prometheus.GaugeValue,
			float64(docs),
			db,
		)
	}
}

// check interfaces
var (
	_ backends.Backend = (*backend)(nil)
)
