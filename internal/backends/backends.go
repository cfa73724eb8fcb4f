// Package backends defines the storage contract shared by all backends.
//
// Documents crossing this boundary are backend-encoded (see package transcode):
// the identifier is stored in the `$id` field, the creation time in `$createdAt`,
// and every write stamps `$timestamp`.
package backends

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/where"
)

// Backend is a generic interface for all backends for accessing them.
//
// Backend object should be stateful and wrap database connection(s).
// Handler uses only one long-lived Backend object.
//
// Backend(s) methods can be called by multiple client connections / command handlers concurrently.
// They should be thread-safe.
type Backend interface {
	Close()

	Collection(dbName, name string) (Collection, error)
	ListCollections(ctx context.Context, params *ListCollectionsParams) (*ListCollectionsResult, error)
	CreateCollection(ctx context.Context, params *CreateCollectionParams) error
	DropCollection(ctx context.Context, params *DropCollectionParams) error

	prometheus.Collector
}

// ListCollectionsParams represents the parameters of Backend.ListCollections method.
type ListCollectionsParams struct {
	DBName string
	_      struct{} // prevent unkeyed literals
}

// ListCollectionsResult represents the results of Backend.ListCollections method.
type ListCollectionsResult struct {
	Collections []CollectionInfo
}

// CollectionInfo represents information about a single collection.
type CollectionInfo struct {
	Name string
	UUID string
}

// CreateCollectionParams represents the parameters of Backend.CreateCollection method.
type CreateCollectionParams struct {
	DBName string
	Name   string
	_      struct{} // prevent unkeyed literals
}

// DropCollectionParams represents the parameters of Backend.DropCollection method.
type DropCollectionParams struct {
	DBName string
	Name   string
	_      struct{} // prevent unkeyed literals
}

// Collection is a generic interface for all backends for accessing collection.
//
// Collection object is expected to be stateless and temporary;
// all state should be in the Backend that created this Collection object.
// Handler can create and destroy Collection objects on the fly.
// Creating a Collection object does not imply the creation of the database or collection.
//
// Collection methods should be thread-safe.
type Collection interface {
	Query(ctx context.Context, params *QueryParams) (*QueryResult, error)
	InsertAll(ctx context.Context, params *InsertAllParams) (*InsertAllResult, error)
	ReplaceAll(ctx context.Context, params *ReplaceAllParams) (*ReplaceAllResult, error)
	DeleteAll(ctx context.Context, params *DeleteAllParams) (*DeleteAllResult, error)
	Count(ctx context.Context, params *CountParams) (*CountResult, error)
	Explain(ctx context.Context, params *ExplainParams) (*ExplainResult, error)
}

// QueryParams represents the parameters of Collection.Query method.
//
// Filter must be pushable (see [where.IsPushable]); nil filter matches all documents.
// Documents are ordered by creation time, then by identifier.
// Zero Limit means no limit.
//
//nolint:vet // for readability
type QueryParams struct {
	Filter     where.Node
	Descending bool
	Limit      int64
	Offset     int64
	_          struct{} // prevent unkeyed literals
}

// QueryResult represents the results of Collection.Query method.
type QueryResult struct {
	Docs []types.Document
}

// InsertAllParams represents the parameters of Collection.InsertAll method.
//
// The collection is created if it does not exist.
type InsertAllParams struct {
	Docs []types.Document
	_    struct{} // prevent unkeyed literals
}

// InsertAllResult represents the results of Collection.InsertAll method.
type InsertAllResult struct{}

// ReplaceAllParams represents the parameters of Collection.ReplaceAll method.
//
// Documents are matched by identifier; missing documents are inserted.
type ReplaceAllParams struct {
	Docs []types.Document
	_    struct{} // prevent unkeyed literals
}

// ReplaceAllResult represents the results of Collection.ReplaceAll method.
type ReplaceAllResult struct{}

// DeleteAllParams represents the parameters of Collection.DeleteAll method.
type DeleteAllParams struct {
	IDs []string
	_   struct{} // prevent unkeyed literals
}

// DeleteAllResult represents the results of Collection.DeleteAll method.
type DeleteAllResult struct {
	Deleted int64
}

// CountParams represents the parameters of Collection.Count method.
type CountParams struct {
	Filter where.Node
	_      struct{} // prevent unkeyed literals
}

// CountResult represents the results of Collection.Count method.
type CountResult struct {
	Count int64
}

// ExplainParams represents the parameters of Collection.Explain method.
type ExplainParams struct {
	Query *QueryParams
	_     struct{} // prevent unkeyed literals
}

// ExplainResult represents the results of Collection.Explain method.
type ExplainResult struct {
	// Query is the backend query text.
	Query string

	// Plan is the backend query plan, if available.
	Plan map[string]any
}
