// Package adapter provides document CRUD on top of a backend, filter plans and the query chain.
//
// Documents are accepted and returned in the application encoding.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/query"
	"github.com/ydb-platform/docbridge/internal/transcode"
	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
	"github.com/ydb-platform/docbridge/internal/util/logging"
	"github.com/ydb-platform/docbridge/internal/where"
)

// defaultBatchConcurrency is used when Params.BatchConcurrency is not set.
const defaultBatchConcurrency = 8

// Params represents the parameters of New function.
//
//nolint:vet // for readability
type Params struct {
	Backend          backends.Backend
	Sessions         *SessionStore
	L                *slog.Logger
	DBName           string
	BatchConcurrency int

	// Evaluator is used for post-filtering; nil means permissive evaluation.
	Evaluator *where.Evaluator

	_ struct{} // prevent unkeyed literals
}

// Adapter provides CRUD operations on collections of a single database.
type Adapter struct {
	b           backends.Backend
	sessions    *SessionStore
	l           *slog.Logger
	dbName      string
	concurrency int
	e           *where.Evaluator
}

// New creates a new Adapter.
func New(params Params) *Adapter {
	concurrency := params.BatchConcurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	sessions := params.Sessions
	if sessions == nil {
		sessions = NewSessionStore()
	}

	return &Adapter{
		b:           params.Backend,
		sessions:    sessions,
		l:           logging.WithName(params.L, "adapter"),
		dbName:      params.DBName,
		concurrency: concurrency,
		e:           params.Evaluator,
	}
}

// nowFunc returns the current time for generated timestamps.
var nowFunc = time.Now

// FindParams represents the parameters of Find method.
//
// Nil Limit means no limit. Page is numbered from 1 and used only with positive PerPage.
//
//nolint:vet // for readability
type FindParams struct {
	Where   map[string]any
	Sort    query.Direction
	Limit   *int
	Page    int64
	PerPage int64
	_       struct{} // prevent unkeyed literals
}

// FindResult represents the results of Find method.
type FindResult struct {
	Docs        []types.Document
	HasNextPage bool
}

// UpdateParams represents the parameters of update methods.
//
// Set fields replace document fields; Increments add numbers to existing fields
// (missing fields count as zero).
//
//nolint:vet // for readability
type UpdateParams struct {
	Where      map[string]any
	Set        types.Document
	Increments map[string]any
	_          struct{} // prevent unkeyed literals
}

// collection returns backend collection by name.
func (a *Adapter) collection(name string) (backends.Collection, error) {
	c, err := a.b.Collection(a.dbName, name)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return c, nil
}

// Create inserts a document and returns it as stored.
//
// Missing id is generated, non-string id is formatted as a string.
// Missing createdAt is set to the current time.
func (a *Adapter) Create(ctx context.Context, coll string, doc types.Document) (types.Document, error) {
	c, err := a.collection(coll)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	doc = types.CloneDocument(doc)
	if doc == nil {
		doc = types.Document{}
	}

	switch id := doc[transcode.IDField].(type) {
	case nil:
		doc[transcode.IDField] = uuid.NewString()
	case string:
		if id == "" {
			doc[transcode.IDField] = uuid.NewString()
		}
	default:
		doc[transcode.IDField] = fmt.Sprint(id)
	}

	if _, ok := doc[transcode.CreatedAtField]; !ok {
		doc[transcode.CreatedAtField] = nowFunc()
	}

	b := transcode.ToBackend(doc)

	if _, err = c.InsertAll(ctx, &backends.InsertAllParams{Docs: []types.Document{b}}); err != nil {
		return nil, lazyerrors.Error(err)
	}

	a.l.DebugContext(ctx, "Document created", slog.String("collection", coll), slog.String("id", backends.ID(b)))

	return transcode.ToApplication(b), nil
}

// Find returns documents matching the filter.
//
// When the filter needs post-filtering, all backend candidates are fetched
// and the limit or the page is applied in memory.
func (a *Adapter) Find(ctx context.Context, coll string, params *FindParams) (*FindResult, error) {
	if params == nil {
		params = new(FindParams)
	}

	c, err := a.collection(coll)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	plan, err := where.ParsePlan(params.Where)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	ch := query.New(c, plan).WithEvaluator(a.e).Order(params.Sort).PostFilter()

	if plan.Post == nil {
		if params.PerPage > 0 {
			page, err := ch.Paginate(query.PaginateParams{Page: params.Page, PerPage: params.PerPage}).CollectPage(ctx)
			if err != nil {
				return nil, lazyerrors.Error(err)
			}

			return &FindResult{Docs: page.Docs, HasNextPage: page.HasNextPage}, nil
		}

		docs, err := ch.Take(int64(pointer.GetInt(params.Limit))).ToApplication(ctx)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		return &FindResult{Docs: docs}, nil
	}

	docs, err := ch.ToApplication(ctx)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return window(docs, params), nil
}

// window applies limit or page to already filtered documents.
func window(docs []types.Document, params *FindParams) *FindResult {
	if params.PerPage > 0 {
		page := max(params.Page, 1)

		start := min((page-1)*params.PerPage, int64(len(docs)))
		end := min(start+params.PerPage, int64(len(docs)))

		return &FindResult{
			Docs:        docs[start:end],
			HasNextPage: end < int64(len(docs)),
		}
	}

	if params.Limit != nil && *params.Limit > 0 && *params.Limit < len(docs) {
		docs = docs[:*params.Limit]
	}

	return &FindResult{Docs: docs}
}

// FindOne returns the first document matching the filter, or nil.
func (a *Adapter) FindOne(ctx context.Context, coll string, filter map[string]any) (types.Document, error) {
	res, err := a.Find(ctx, coll, &FindParams{Where: filter, Limit: pointer.ToInt(1)})
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if len(res.Docs) == 0 {
		return nil, nil
	}

	return res.Docs[0], nil
}

// FindByID returns the document with the given id, or nil.
func (a *Adapter) FindByID(ctx context.Context, coll, id string) (types.Document, error) {
	return a.FindOne(ctx, coll, map[string]any{transcode.IDField: id})
}

// Count returns the number of documents matching the filter.
func (a *Adapter) Count(ctx context.Context, coll string, filter map[string]any) (int64, error) {
	c, err := a.collection(coll)
	if err != nil {
		return 0, lazyerrors.Error(err)
	}

	plan, err := where.ParsePlan(filter)
	if err != nil {
		return 0, lazyerrors.Error(err)
	}

	if plan.Post == nil {
		res, err := c.Count(ctx, &backends.CountParams{Filter: plan.DB})
		if err != nil {
			return 0, lazyerrors.Error(err)
		}

		return res.Count, nil
	}

	docs, err := query.New(c, plan).WithEvaluator(a.e).PostFilter().Collect(ctx)
	if err != nil {
		return 0, lazyerrors.Error(err)
	}

	return int64(len(docs)), nil
}

// UpdateOne updates the first document matching the filter and returns it.
//
// If no document matches, an error with [backends.ErrorCodeDocumentNotFound] is returned.
func (a *Adapter) UpdateOne(ctx context.Context, coll string, params *UpdateParams) (types.Document, error) {
	doc, err := a.FindOne(ctx, coll, params.Where)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if doc == nil {
		return nil, backends.NewError(
			backends.ErrorCodeDocumentNotFound,
			lazyerrors.Errorf("no document in %s.%s matches the filter", a.dbName, coll),
		)
	}

	updated, err := applyUpdate(doc, params)
	if err != nil {
		return nil, err
	}

	if err = a.replace(ctx, coll, updated); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return updated, nil
}

// UpdateMany updates all documents matching the filter and returns the number of updated documents.
//
// Documents are updated concurrently; every failure is reported and successful updates are kept.
func (a *Adapter) UpdateMany(ctx context.Context, coll string, params *UpdateParams) (int, error) {
	res, err := a.Find(ctx, coll, &FindParams{Where: params.Where})
	if err != nil {
		return 0, lazyerrors.Error(err)
	}

	updated := make([]types.Document, len(res.Docs))
	for i, doc := range res.Docs {
		if updated[i], err = applyUpdate(doc, params); err != nil {
			return 0, err
		}
	}

	return a.fanOut(ctx, updated, func(ctx context.Context, doc types.Document) error {
		return a.replace(ctx, coll, doc)
	})
}

// Upsert updates the first document matching the filter, or creates a new one
// from the filter's top-level equality fields (see seedDocument) and the update.
func (a *Adapter) Upsert(ctx context.Context, coll string, params *UpdateParams) (types.Document, error) {
	doc, err := a.FindOne(ctx, coll, params.Where)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if doc == nil {
		if doc, err = applyUpdate(seedDocument(params.Where), params); err != nil {
			return nil, err
		}

		return a.Create(ctx, coll, doc)
	}

	updated, err := applyUpdate(doc, params)
	if err != nil {
		return nil, err
	}

	if err = a.replace(ctx, coll, updated); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return updated, nil
}

// seedDocument returns a document with the filter's top-level equality fields:
// shorthand values and single-operator `equals` records with non-nil values.
// Logical keys and nested paths are skipped.
func seedDocument(filter map[string]any) types.Document {
	doc := types.Document{}

	for k, v := range filter {
		if k == "and" || k == "or" || k == "not" || transcode.IsNestedPath(k) {
			continue
		}

		record, isRecord := v.(map[string]any)
		if !isRecord {
			doc[k] = v
			continue
		}

		if eq, ok := record[string(where.OpEquals)]; ok && len(record) == 1 && eq != nil {
			doc[k] = eq
		}
	}

	return doc
}

// DeleteOne deletes the first document matching the filter.
// It returns true if a document was deleted.
func (a *Adapter) DeleteOne(ctx context.Context, coll string, filter map[string]any) (bool, error) {
	doc, err := a.FindOne(ctx, coll, filter)
	if err != nil {
		return false, lazyerrors.Error(err)
	}

	if doc == nil {
		return false, nil
	}

	n, err := a.delete(ctx, coll, doc)
	if err != nil {
		return false, lazyerrors.Error(err)
	}

	return n > 0, nil
}

// DeleteMany deletes all documents matching the filter and returns the number of deleted documents.
//
// Documents are deleted concurrently; every failure is reported and successful deletions are kept.
func (a *Adapter) DeleteMany(ctx context.Context, coll string, filter map[string]any) (int, error) {
	res, err := a.Find(ctx, coll, &FindParams{Where: filter})
	if err != nil {
		return 0, lazyerrors.Error(err)
	}

	return a.fanOut(ctx, res.Docs, func(ctx context.Context, doc types.Document) error {
		_, err := a.delete(ctx, coll, doc)
		return err
	})
}

// WithTransaction runs fn within a tracked session.
//
// The session is committed if fn succeeds and rolled back otherwise.
// Backend writes made by fn are not undone on rollback.
func (a *Adapter) WithTransaction(ctx context.Context, fn func(ctx context.Context, sessionID string) error) error {
	id := a.sessions.Create()
	defer a.sessions.Delete(id)

	if err := a.sessions.Begin(id); err != nil {
		return lazyerrors.Error(err)
	}

	if err := fn(ctx, id); err != nil {
		if rerr := a.sessions.Rollback(id); rerr != nil {
			return errors.Join(err, rerr)
		}

		return err
	}

	if err := a.sessions.Commit(id); err != nil {
		return lazyerrors.Error(err)
	}

	return nil
}

// Sessions returns the session store.
func (a *Adapter) Sessions() *SessionStore {
	return a.sessions
}

// fanOut calls f for every document concurrently and waits for all calls.
// It returns the number of successful calls and all errors joined.
func (a *Adapter) fanOut(ctx context.Context, docs []types.Document, f func(context.Context, types.Document) error) (int, error) {
	var g errgroup.Group
	g.SetLimit(a.concurrency)

	var m sync.Mutex
	var errs []error
	var done int

	for _, doc := range docs {
		g.Go(func() error {
			err := f(ctx, doc)

			m.Lock()
			defer m.Unlock()

			if err != nil {
				errs = append(errs, lazyerrors.Errorf("%s: %w", doc[transcode.IDField], err))
				return nil
			}

			done++

			return nil
		})
	}

	_ = g.Wait()

	return done, errors.Join(errs...)
}

// replace stores an application document.
func (a *Adapter) replace(ctx context.Context, coll string, doc types.Document) error {
	c, err := a.collection(coll)
	if err != nil {
		return lazyerrors.Error(err)
	}

	_, err = c.ReplaceAll(ctx, &backends.ReplaceAllParams{Docs: []types.Document{transcode.ToBackend(doc)}})

	return err
}

// delete deletes an application document by id.
func (a *Adapter) delete(ctx context.Context, coll string, doc types.Document) (int64, error) {
	c, err := a.collection(coll)
	if err != nil {
		return 0, lazyerrors.Error(err)
	}

	id, _ := doc[transcode.IDField].(string)

	res, err := c.DeleteAll(ctx, &backends.DeleteAllParams{IDs: []string{id}})
	if err != nil {
		return 0, lazyerrors.Error(err)
	}

	return res.Deleted, nil
}
