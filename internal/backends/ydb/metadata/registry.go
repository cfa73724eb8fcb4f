package metadata

import (
	"context"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ydb-platform/ydb-go-sdk/v3/sugar"
	"github.com/ydb-platform/ydb-go-sdk/v3/table"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/options"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/result/named"
	ydbTypes "github.com/ydb-platform/ydb-go-sdk/v3/table/types"
	"golang.org/x/exp/maps"

	"github.com/ydb-platform/docbridge/internal/backends/ydb/metadata/transaction"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

const (
	// YDB table name where collection metadata is stored.
	metadataTableName = "_docbridge_metadata"
)

// Parts of Prometheus metric names.
const (
	namespace = "docbridge"
	subsystem = "ydb_metadata"
)

// Registry provides access to YDB databases and collections information.
//
// Database metadata is loaded upon first access.
//
//nolint:vet // for readability
type Registry struct {
	D *DB
	l *slog.Logger

	rw    sync.RWMutex
	colls map[string]map[string]*Collection // database name -> collection name -> collection
}

// CollectionCreateParams contains parameters for CollectionCreate.
type CollectionCreateParams struct {
	DBName string
	Name   string
	_      struct{} // prevent unkeyed literals
}

// NewRegistry creates a registry for YDB database with a given DSN.
func NewRegistry(ctx context.Context, dsn string, auth *AuthParams, l *slog.Logger) (*Registry, error) {
	db, err := New(ctx, dsn, auth, l)
	if err != nil {
		return nil, err
	}

	return &Registry{
		D:     db,
		l:     l,
		colls: map[string]map[string]*Collection{},
	}, nil
}

// Close closes the registry.
func (r *Registry) Close() {
	r.D.Close()
}

// DatabasePath returns YDB directory path for the given database name.
func (r *Registry) DatabasePath(dbName string) string {
	return path.Join(r.D.Driver.Name(), dbName)
}

// LoadMetadata loads collections metadata of the given database
// if it hasn't been loaded yet, and returns database directory path.
//
// It acquires read lock to check metadata, if metadata is absent it acquires write lock
// to load it, so it is safe for concurrent use.
func (r *Registry) LoadMetadata(ctx context.Context, dbName string) (string, error) {
	ydbPath := r.DatabasePath(dbName)

	r.rw.RLock()
	_, ok := r.colls[dbName]
	r.rw.RUnlock()

	if ok {
		return ydbPath, nil
	}

	r.rw.Lock()
	defer r.rw.Unlock()

	if _, ok = r.colls[dbName]; ok {
		return ydbPath, nil
	}

	if err := r.initDirectory(ctx, ydbPath); err != nil {
		return "", lazyerrors.Error(err)
	}

	colls, err := r.loadCollections(ctx, ydbPath)
	if err != nil {
		return "", lazyerrors.Error(err)
	}

	r.colls[dbName] = colls

	return ydbPath, nil
}

// loadCollections reads all metadata records of the database.
//
// It does not hold the lock.
func (r *Registry) loadCollections(ctx context.Context, ydbPath string) (map[string]*Collection, error) {
	colls := map[string]*Collection{}

	exists, err := sugar.IsTableExists(ctx, r.D.Driver.Scheme(), path.Join(ydbPath, metadataTableName))
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if !exists {
		return colls, nil
	}

	q, err := Render(SelectMetadataTmpl, TemplateConfig{
		TablePathPrefix: ydbPath,
		TableName:       metadataTableName,
		ColumnName:      DefaultColumn,
	})
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	err = r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		clear(colls)

		_, res, err := s.Execute(ctx, transaction.StaleReadTx, q, table.NewQueryParameters())
		if err != nil {
			return err
		}

		defer res.Close() //nolint:errcheck // result is fully read

		for res.NextResultSet(ctx) {
			for res.NextRow() {
				var jsonData string
				if err = res.ScanNamed(named.OptionalWithDefault(DefaultColumn, &jsonData)); err != nil {
					return err
				}

				var c Collection
				if err = c.unmarshal([]byte(jsonData)); err != nil {
					return err
				}

				colls[c.Name] = &c
			}
		}

		return res.Err()
	}, table.WithIdempotent())
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return colls, nil
}

func (r *Registry) initDirectory(ctx context.Context, ydbPath string) error {
	exists, err := sugar.IsDirectoryExists(ctx, r.D.Driver.Scheme(), ydbPath)
	if err != nil {
		return lazyerrors.Error(err)
	}

	if exists {
		return nil
	}

	if err = r.D.Driver.Scheme().MakeDirectory(ctx, ydbPath); err != nil {
		return lazyerrors.Error(err)
	}

	r.l.Debug("Directory created", slog.String("path", ydbPath))

	return nil
}

// CollectionList returns a sorted copy of collections in the database.
//
// If database does not exist, no error is returned.
func (r *Registry) CollectionList(ctx context.Context, dbName string) ([]*Collection, error) {
	if _, err := r.LoadMetadata(ctx, dbName); err != nil {
		return nil, lazyerrors.Error(err)
	}

	r.rw.RLock()
	defer r.rw.RUnlock()

	res := make([]*Collection, 0, len(r.colls[dbName]))
	for _, c := range r.colls[dbName] {
		res = append(res, c.deepCopy())
	}

	slices.SortFunc(res, func(a, b *Collection) int { return strings.Compare(a.Name, b.Name) })

	return res, nil
}

// CollectionGet returns a copy of collection metadata.
// It can be safely modified by a caller.
//
// If database or collection does not exist, nil is returned.
func (r *Registry) CollectionGet(ctx context.Context, dbName, collectionName string) (*Collection, error) {
	if _, err := r.LoadMetadata(ctx, dbName); err != nil {
		return nil, lazyerrors.Error(err)
	}

	r.rw.RLock()
	defer r.rw.RUnlock()

	return r.collectionGet(dbName, collectionName), nil
}

// collectionGet returns a copy of collection metadata.
//
// It does not hold the lock.
func (r *Registry) collectionGet(dbName, collectionName string) *Collection {
	return r.colls[dbName][collectionName].deepCopy()
}

// CollectionCreate creates a collection in the database.
//
// Returned boolean value indicates whether the collection was created.
// If collection already exists, (false, nil) is returned.
func (r *Registry) CollectionCreate(ctx context.Context, params *CollectionCreateParams) (bool, error) {
	ydbPath, err := r.LoadMetadata(ctx, params.DBName)
	if err != nil {
		return false, lazyerrors.Error(err)
	}

	r.rw.Lock()
	defer r.rw.Unlock()

	return r.collectionCreate(ctx, ydbPath, params)
}

// collectionCreate creates a collection in the database.
//
// It does not hold the lock.
func (r *Registry) collectionCreate(ctx context.Context, ydbPath string, params *CollectionCreateParams) (bool, error) {
	if r.collectionGet(params.DBName, params.Name) != nil {
		return false, nil
	}

	if err := r.createMetadataTable(ctx, ydbPath); err != nil {
		return false, lazyerrors.Error(err)
	}

	c := &Collection{
		Name:      params.Name,
		UUID:      uuid.NewString(),
		TableName: r.generateUniqueTableName(params.DBName, params.Name),
	}

	if err := r.createTable(ctx, ydbPath, c.TableName); err != nil {
		return false, lazyerrors.Error(err)
	}

	if err := r.storeCollectionMetadata(ctx, ydbPath, c); err != nil {
		return false, lazyerrors.Error(err)
	}

	r.colls[params.DBName][c.Name] = c

	r.l.Debug(
		"Collection created",
		slog.String("db", params.DBName), slog.String("collection", c.Name), slog.String("table", c.TableName),
	)

	return true, nil
}

// createMetadataTable creates metadata table if it does not exist.
func (r *Registry) createMetadataTable(ctx context.Context, ydbPath string) error {
	p := path.Join(ydbPath, metadataTableName)

	exists, err := sugar.IsTableExists(ctx, r.D.Driver.Scheme(), p)
	if err != nil || exists {
		return err
	}

	return r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		return s.CreateTable(ctx, p,
			options.WithColumn(IDColumn, ydbTypes.TypeString),
			options.WithColumn(DefaultColumn, ydbTypes.Optional(ydbTypes.TypeJSONDocument)),
			options.WithPrimaryKeyColumn(IDColumn),
		)
	}, table.WithIdempotent())
}

// createTable creates a table for collection documents.
func (r *Registry) createTable(ctx context.Context, ydbPath, tableName string) error {
	return r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		return s.CreateTable(ctx, path.Join(ydbPath, tableName),
			options.WithColumn(IDColumn, ydbTypes.TypeString),
			options.WithColumn(CreatedAtColumn, ydbTypes.Optional(ydbTypes.TypeInt64)),
			options.WithColumn(DefaultColumn, ydbTypes.Optional(ydbTypes.TypeJSONDocument)),
			options.WithPrimaryKeyColumn(IDColumn),
		)
	}, table.WithIdempotent())
}

// storeCollectionMetadata upserts collection metadata record.
func (r *Registry) storeCollectionMetadata(ctx context.Context, ydbPath string, c *Collection) error {
	b, err := c.marshal()
	if err != nil {
		return lazyerrors.Error(err)
	}

	q, err := Render(UpsertMetadataTmpl, TemplateConfig{
		TablePathPrefix: ydbPath,
		TableName:       metadataTableName,
		ColumnName:      DefaultColumn,
	})
	if err != nil {
		return lazyerrors.Error(err)
	}

	var p Placeholder

	return r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		_, res, err := s.Execute(ctx, transaction.WriteTx, q, table.NewQueryParameters(
			table.ValueParam(p.Named("id"), ydbTypes.BytesValueFromString(c.Name)),
			table.ValueParam(p.Named("json"), ydbTypes.JSONDocumentValueFromBytes(b)),
		))
		if err != nil {
			return err
		}

		return res.Close()
	}, table.WithIdempotent())
}

// CollectionDrop drops a collection in the database.
//
// Returned boolean value indicates whether the collection was dropped.
// If database or collection did not exist, (false, nil) is returned.
func (r *Registry) CollectionDrop(ctx context.Context, dbName, collectionName string) (bool, error) {
	ydbPath, err := r.LoadMetadata(ctx, dbName)
	if err != nil {
		return false, lazyerrors.Error(err)
	}

	r.rw.Lock()
	defer r.rw.Unlock()

	c := r.collectionGet(dbName, collectionName)
	if c == nil {
		return false, nil
	}

	err = r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		err := s.DropTable(ctx, path.Join(ydbPath, c.TableName))
		if IsOperationErrorTableNotFound(err) {
			return nil
		}

		return err
	}, table.WithIdempotent())
	if err != nil {
		return false, lazyerrors.Error(err)
	}

	q, err := Render(DeleteMetadataTmpl, TemplateConfig{
		TablePathPrefix: ydbPath,
		TableName:       metadataTableName,
		ColumnName:      DefaultColumn,
	})
	if err != nil {
		return false, lazyerrors.Error(err)
	}

	var p Placeholder

	err = r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		_, res, err := s.Execute(ctx, transaction.WriteTx, q, table.NewQueryParameters(
			table.ValueParam(p.Named("id"), ydbTypes.BytesValueFromString(c.Name)),
		))
		if err != nil {
			return err
		}

		return res.Close()
	}, table.WithIdempotent())
	if err != nil {
		return false, lazyerrors.Error(err)
	}

	delete(r.colls[dbName], collectionName)

	r.l.Debug("Collection dropped", slog.String("db", dbName), slog.String("collection", collectionName))

	return true, nil
}

// generateUniqueTableName returns a table name for the collection
// that is not used by other collections of the database.
//
// It does not hold the lock.
func (r *Registry) generateUniqueTableName(dbName, collectionName string) string {
	h := fnv32Hash(collectionName)
	list := maps.Values(r.colls[dbName])

	for {
		name := tableName(collectionName, h)
		if !slices.ContainsFunc(list, func(c *Collection) bool { return c.TableName == name }) {
			return name
		}

		// table name is taken, try the next hash value
		h++
	}
}

// Describe implements prometheus.Collector.
func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(r, ch)
}

// Collect implements prometheus.Collector.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	r.rw.RLock()
	defer r.rw.RUnlock()

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "databases"),
			"The current number of databases in the registry.",
			nil, nil,
		),
		prometheus.GaugeValue,
		float64(len(r.colls)),
	)

	for db, colls := range r.colls {
		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(
				prometheus.BuildFQName(namespace, subsystem, "collections"),
				"The current number of collections in the registry.",
				[]string{"db"}, nil,
			),
			prometheus.GaugeValue,
			float64(len(colls)),
			db,
		)
	}
}

// check interfaces
var (
	_ prometheus.Collector = (*Registry)(nil)
)
