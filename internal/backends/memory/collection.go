package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
	"github.com/ydb-platform/docbridge/internal/where"
)

// collection implements backends.Collection interface.
type collection struct {
	b      *backend
	dbName string
	name   string
}

// newCollection creates a new Collection.
func newCollection(b *backend, dbName, name string) backends.Collection {
	return backends.CollectionContract(&collection{
		b:      b,
		dbName: dbName,
		name:   name,
	})
}

// Query implements backends.Collection interface.
func (c *collection) Query(ctx context.Context, params *backends.QueryParams) (*backends.QueryResult, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, lazyerrors.Error(err)
	}

	docs := c.match(params.Filter)

	slices.SortFunc(docs, backends.CompareOrder)

	if params.Descending {
		slices.Reverse(docs)
	}

	docs = window(docs, params.Offset, params.Limit)

	return &backends.QueryResult{Docs: docs}, nil
}

// InsertAll implements backends.Collection interface.
func (c *collection) InsertAll(ctx context.Context, params *backends.InsertAllParams) (*backends.InsertAllResult, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, lazyerrors.Error(err)
	}

	c.b.rw.Lock()
	defer c.b.rw.Unlock()

	s, _ := c.b.storage(c.dbName, c.name, true)

	seen := make(map[string]struct{}, len(params.Docs))

	for _, doc := range params.Docs {
		id := backends.ID(doc)

		_, dup := seen[id]
		if _, exists := s.docs[id]; exists || dup {
			return nil, backends.NewError(
				backends.ErrorCodeInsertDuplicateID,
				lazyerrors.Errorf("duplicate id %q in %s.%s", id, c.dbName, c.name),
			)
		}

		seen[id] = struct{}{}
	}

	now := time.Now()

	for _, doc := range params.Docs {
		s.docs[backends.ID(doc)] = backends.Stamp(doc, now)
	}

	return new(backends.InsertAllResult), nil
}

// ReplaceAll implements backends.Collection interface.
func (c *collection) ReplaceAll(ctx context.Context, params *backends.ReplaceAllParams) (*backends.ReplaceAllResult, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, lazyerrors.Error(err)
	}

	c.b.rw.Lock()
	defer c.b.rw.Unlock()

	s, _ := c.b.storage(c.dbName, c.name, true)
	now := time.Now()

	for _, doc := range params.Docs {
		s.docs[backends.ID(doc)] = backends.Stamp(doc, now)
	}

	return new(backends.ReplaceAllResult), nil
}

// DeleteAll implements backends.Collection interface.
func (c *collection) DeleteAll(ctx context.Context, params *backends.DeleteAllParams) (*backends.DeleteAllResult, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, lazyerrors.Error(err)
	}

	c.b.rw.Lock()
	defer c.b.rw.Unlock()

	s, _ := c.b.storage(c.dbName, c.name, false)
	if s == nil {
		return new(backends.DeleteAllResult), nil
	}

	var deleted int64

	for _, id := range params.IDs {
		if _, ok := s.docs[id]; ok {
			delete(s.docs, id)
			deleted++
		}
	}

	return &backends.DeleteAllResult{Deleted: deleted}, nil
}

// Count implements backends.Collection interface.
func (c *collection) Count(ctx context.Context, params *backends.CountParams) (*backends.CountResult, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return &backends.CountResult{Count: int64(len(c.match(params.Filter)))}, nil
}

// Explain implements backends.Collection interface.
func (c *collection) Explain(ctx context.Context, params *backends.ExplainParams) (*backends.ExplainResult, error) {
	q := params.Query

	filter := "<all>"
	if q.Filter != nil {
		filter = q.Filter.String()
	}

	return &backends.ExplainResult{
		Query: fmt.Sprintf("scan %s.%s filter %s", c.dbName, c.name, filter),
		Plan: map[string]any{
			"collection": c.name,
			"descending": q.Descending,
			"limit":      q.Limit,
			"offset":     q.Offset,
		},
	}, nil
}

// match returns copies of stored documents matching the filter.
func (c *collection) match(filter where.Node) []types.Document {
	c.b.rw.RLock()
	defer c.b.rw.RUnlock()

	s, _ := c.b.storage(c.dbName, c.name, false)
	if s == nil {
		return nil
	}

	var res []types.Document

	for _, doc := range s.docs {
		if c.b.e.Match(filter, doc) {
			res = append(res, types.CloneDocument(doc))
		}
	}

	return res
}

// window applies offset and limit; zero limit means no limit.
func window(docs []types.Document, offset, limit int64) []types.Document {
	if offset >= int64(len(docs)) {
		return nil
	}

	docs = docs[offset:]

	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}

	return docs
}

// check interfaces
var (
	_ backends.Collection = (*collection)(nil)
)
