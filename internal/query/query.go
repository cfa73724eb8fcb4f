// Package query provides chainable query execution over a backend collection and a filter plan.
//
// The pipeline is: backend filter, order, limit or page, post-filter, transcode.
// Each terminal call executes the backend query again; nothing is cached.
package query

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/transcode"
	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
	"github.com/ydb-platform/docbridge/internal/where"
)

const tracerName = "github.com/ydb-platform/docbridge/internal/query"

// Direction is a sort direction by creation time.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// PaginateParams switches the chain to paginated mode.
//
// Pages are numbered from 1.
type PaginateParams struct {
	Page    int64
	PerPage int64
	_       struct{} // prevent unkeyed literals
}

// Page is a result of paginated query.
type Page struct {
	Docs        []types.Document
	Page        int64
	PerPage     int64
	HasNextPage bool
}

// Chain is a fluent query builder.
//
// Builder methods mutate and return the same Chain; it is not safe for concurrent use.
//
//nolint:vet // for readability
type Chain struct {
	coll backends.Collection
	plan *where.Plan
	m    *Metrics
	e    *where.Evaluator

	dbFilter   where.Node
	post       bool
	descending bool
	take       int64
	paginate   *PaginateParams
}

// New returns a chain over the collection and the plan.
//
// The plan's backend filter is applied automatically.
// Nil plan matches all documents.
func New(coll backends.Collection, plan *where.Plan) *Chain {
	if plan == nil {
		plan = where.NewPlan(nil, nil)
	}

	c := &Chain{
		coll: coll,
		plan: plan,
		m:    DefaultMetrics,
	}

	if plan.DB != nil {
		c.Filter()
	}

	return c
}

// WithEvaluator sets the post-filter evaluator; [where.Match] semantics are used by default.
func (c *Chain) WithEvaluator(e *where.Evaluator) *Chain {
	c.e = e
	return c
}

// WithMetrics sets metrics to update instead of [DefaultMetrics].
func (c *Chain) WithMetrics(m *Metrics) *Chain {
	c.m = m
	return c
}

// Filter applies the plan's backend filter.
func (c *Chain) Filter() *Chain {
	c.dbFilter = c.plan.DB
	return c
}

// PostFilter marks the chain for post-filtering with the plan's post filter.
func (c *Chain) PostFilter() *Chain {
	c.post = true
	return c
}

// Order sets sort direction.
func (c *Chain) Order(dir Direction) *Chain {
	c.descending = dir == Descending
	return c
}

// Take limits the number of fetched documents; zero means no limit.
func (c *Chain) Take(n int64) *Chain {
	c.take = n
	return c
}

// Paginate switches the chain to paginated mode.
func (c *Chain) Paginate(params PaginateParams) *Chain {
	if params.Page < 1 {
		params.Page = 1
	}

	c.paginate = &params

	return c
}

// Collect executes the query and returns backend documents.
func (c *Chain) Collect(ctx context.Context) ([]types.Document, error) {
	ctx, span := c.start(ctx, "Collect")
	defer span.End()

	docs, _, err := c.execute(ctx, span, c.take, c.paginate)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return docs, nil
}

// ToApplication executes the query and returns application documents.
func (c *Chain) ToApplication(ctx context.Context) ([]types.Document, error) {
	ctx, span := c.start(ctx, "ToApplication")
	defer span.End()

	docs, _, err := c.execute(ctx, span, c.take, c.paginate)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return toApplication(docs), nil
}

// ToPayload is an alias for [Chain.ToApplication].
func (c *Chain) ToPayload(ctx context.Context) ([]types.Document, error) {
	return c.ToApplication(ctx)
}

// First executes the query with limit 1 and returns the first application document or nil.
// Pagination is ignored; the chain itself is not changed.
func (c *Chain) First(ctx context.Context) (types.Document, error) {
	ctx, span := c.start(ctx, "First")
	defer span.End()

	docs, _, err := c.execute(ctx, span, 1, nil)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if len(docs) == 0 {
		return nil, nil
	}

	return transcode.ToApplication(docs[0]), nil
}

// CollectPage executes the query in paginated mode and returns application documents.
// Without [Chain.Paginate] the first page of default size is returned.
func (c *Chain) CollectPage(ctx context.Context) (*Page, error) {
	p := PaginateParams{Page: 1, PerPage: DefaultPerPage}
	if c.paginate != nil {
		p = *c.paginate
	}

	ctx, span := c.start(ctx, "CollectPage")
	defer span.End()

	docs, hasNext, err := c.execute(ctx, span, c.take, &p)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return &Page{
		Docs:        toApplication(docs),
		Page:        p.Page,
		PerPage:     p.PerPage,
		HasNextPage: hasNext,
	}, nil
}

// DefaultPerPage is a page size used when none is given.
const DefaultPerPage = 20

// execute runs the backend query once with the given limit or page, then post-filters if requested.
// In paginated mode it also reports whether the next page exists.
func (c *Chain) execute(ctx context.Context, span trace.Span, take int64, paginate *PaginateParams) ([]types.Document, bool, error) {
	params := &backends.QueryParams{
		Filter:     c.dbFilter,
		Descending: c.descending,
		Limit:      take,
	}

	if p := paginate; p != nil && p.PerPage > 0 {
		params.Limit = p.PerPage + 1
		params.Offset = (p.Page - 1) * p.PerPage
	}

	res, err := c.coll.Query(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, false, lazyerrors.Error(err)
	}

	docs := res.Docs

	var hasNext bool
	if p := paginate; p != nil && p.PerPage > 0 && int64(len(docs)) > p.PerPage {
		docs = docs[:p.PerPage]
		hasNext = true
	}

	fetched := len(docs)

	if c.post && c.plan.Post != nil {
		if c.e != nil {
			docs = c.e.Filter(c.plan.Post, docs)
		} else {
			docs = where.Filter(c.plan.Post, docs)
		}
	}

	c.m.observePlan(c.plan.Strategy)
	c.m.observePostFiltered(fetched - len(docs))

	span.SetAttributes(
		attribute.Int("docbridge.query.fetched", fetched),
		attribute.Int("docbridge.query.returned", len(docs)),
	)

	return docs, hasNext, nil
}

// start starts a span for the terminal call.
func (c *Chain) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "query."+name, trace.WithAttributes(
		attribute.String("docbridge.query.strategy", string(c.plan.Strategy)),
		attribute.Bool("docbridge.query.post_filter", c.post && c.plan.Post != nil),
	))
}

func toApplication(docs []types.Document) []types.Document {
	res := make([]types.Document, len(docs))
	for i, doc := range docs {
		res[i] = transcode.ToApplication(doc)
	}

	return res
}
