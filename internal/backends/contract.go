package backends

import (
	"context"
	"fmt"

	"github.com/ydb-platform/docbridge/internal/transcode"
	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/where"
)

// collectionContract implements Collection interface.
type collectionContract struct {
	c Collection
}

// CollectionContract wraps Collection and enforces its contract.
//
// All backend implementations should use that function when they create new Collection instances.
// The handler should not use that function.
func CollectionContract(c Collection) Collection {
	return &collectionContract{c: c}
}

// Query executes a query against the collection.
//
// If the collection does not exist it returns empty result.
func (cc *collectionContract) Query(ctx context.Context, params *QueryParams) (*QueryResult, error) {
	if params == nil {
		params = new(QueryParams)
	}

	checkQueryParams(params)

	res, err := cc.c.Query(ctx, params)
	checkError(err)

	return res, err
}

// InsertAll inserts all or none documents into the collection.
//
// The collection is created if it does not exist.
// Documents without identifiers are rejected by the caller.
func (cc *collectionContract) InsertAll(ctx context.Context, params *InsertAllParams) (*InsertAllResult, error) {
	checkDocuments(params.Docs)

	res, err := cc.c.InsertAll(ctx, params)
	checkError(err, ErrorCodeInsertDuplicateID)

	return res, err
}

// ReplaceAll replaces documents with the same identifiers, inserting missing ones.
func (cc *collectionContract) ReplaceAll(ctx context.Context, params *ReplaceAllParams) (*ReplaceAllResult, error) {
	checkDocuments(params.Docs)

	res, err := cc.c.ReplaceAll(ctx, params)
	checkError(err)

	return res, err
}

// DeleteAll deletes all documents with the given identifiers.
//
// Missing documents are ignored; the number of deleted documents is returned.
func (cc *collectionContract) DeleteAll(ctx context.Context, params *DeleteAllParams) (*DeleteAllResult, error) {
	res, err := cc.c.DeleteAll(ctx, params)
	checkError(err)

	return res, err
}

// Count returns the number of documents matching the filter.
func (cc *collectionContract) Count(ctx context.Context, params *CountParams) (*CountResult, error) {
	if params == nil {
		params = new(CountParams)
	}

	checkFilter(params.Filter)

	res, err := cc.c.Count(ctx, params)
	checkError(err)

	return res, err
}

// Explain returns the backend query and its plan.
func (cc *collectionContract) Explain(ctx context.Context, params *ExplainParams) (*ExplainResult, error) {
	if params == nil {
		params = new(ExplainParams)
	}

	if params.Query == nil {
		params.Query = new(QueryParams)
	}

	checkQueryParams(params.Query)

	res, err := cc.c.Explain(ctx, params)
	checkError(err)

	return res, err
}

func checkQueryParams(params *QueryParams) {
	checkFilter(params.Filter)

	if params.Limit < 0 || params.Offset < 0 {
		panic(fmt.Sprintf("invalid limit %d or offset %d", params.Limit, params.Offset))
	}
}

// checkFilter panics if the filter can't be evaluated by a backend.
func checkFilter(n where.Node) {
	if n != nil && !where.IsPushable(n) {
		panic(fmt.Sprintf("filter is not pushable: %s", n))
	}
}

// checkDocuments panics if any document lacks a string identifier.
func checkDocuments(docs []types.Document) {
	for i, doc := range docs {
		if _, ok := doc[transcode.BackendIDField].(string); !ok {
			panic(fmt.Sprintf("document %d has no %s string field", i, transcode.BackendIDField))
		}
	}
}

// check interfaces
var (
	_ Collection = (*collectionContract)(nil)
)
