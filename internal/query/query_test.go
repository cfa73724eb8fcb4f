package query

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/backends/memory"
	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/where"
)

// setup returns a collection with test posts.
func setup(t *testing.T) backends.Collection {
	t.Helper()

	b := memory.NewBackend(nil)
	t.Cleanup(b.Close)

	c, err := b.Collection("test", "posts")
	require.NoError(t, err)

	_, err = c.InsertAll(context.Background(), &backends.InsertAllParams{Docs: []types.Document{
		{"$id": "p1", "$createdAt": int64(1), "status": "published", "title": "Learning Go"},
		{"$id": "p2", "$createdAt": int64(2), "status": "published", "title": "Rust notes"},
		{"$id": "p3", "$createdAt": int64(3), "status": "draft", "title": "Go generics"},
		{"$id": "p4", "$createdAt": int64(4), "status": "published", "title": "Going further"},
		{"$id": "p5", "$createdAt": int64(5), "status": "published", "title": "Databases"},
	}})
	require.NoError(t, err)

	return c
}

func ids(docs []types.Document) []string {
	res := make([]string, len(docs))
	for i, d := range docs {
		res[i], _ = d["id"].(string)
		if res[i] == "" {
			res[i] = backends.ID(d)
		}
	}

	return res
}

func plan(t *testing.T, filter map[string]any) *where.Plan {
	t.Helper()

	p, err := where.ParsePlan(filter)
	require.NoError(t, err)

	return p
}

func TestChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := setup(t)

	hybrid := map[string]any{
		"status": "published",
		"title":  map[string]any{"like": "%go%"},
	}

	for name, tc := range map[string]struct {
		chain    func(*Chain) *Chain
		filter   map[string]any
		expected []string
	}{
		"AllAscending": {
			chain:    func(ch *Chain) *Chain { return ch },
			expected: []string{"p1", "p2", "p3", "p4", "p5"},
		},
		"Descending": {
			chain:    func(ch *Chain) *Chain { return ch.Order(Descending) },
			expected: []string{"p5", "p4", "p3", "p2", "p1"},
		},
		"Take": {
			chain:    func(ch *Chain) *Chain { return ch.Take(2) },
			expected: []string{"p1", "p2"},
		},
		"HybridWithoutPostFilter": {
			chain:    func(ch *Chain) *Chain { return ch },
			filter:   hybrid,
			expected: []string{"p1", "p2", "p4", "p5"},
		},
		"HybridWithPostFilter": {
			chain:    func(ch *Chain) *Chain { return ch.PostFilter() },
			filter:   hybrid,
			expected: []string{"p1", "p4"},
		},
		"PostOnly": {
			chain:    func(ch *Chain) *Chain { return ch.PostFilter().Order(Descending) },
			filter:   map[string]any{"title": map[string]any{"contains": "GO"}},
			expected: []string{"p4", "p3", "p1"},
		},
		"LimitBeforePostFilter": {
			chain:    func(ch *Chain) *Chain { return ch.PostFilter().Take(2) },
			filter:   hybrid,
			expected: []string{"p1"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ch := New(c, plan(t, tc.filter)).WithMetrics(NewMetrics())

			docs, err := tc.chain(ch).Collect(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ids(docs))
		})
	}
}

func TestToApplication(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := setup(t)

	docs, err := New(c, plan(t, map[string]any{"id": "p3"})).WithMetrics(NewMetrics()).ToPayload(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "p3", doc["id"])
	assert.Equal(t, int64(3), doc["createdAt"])
	assert.Equal(t, "draft", doc["status"])
	assert.NotContains(t, doc, "$createdAt")
}

func TestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := setup(t)

	doc, err := New(c, plan(t, map[string]any{"status": "published"})).
		WithMetrics(NewMetrics()).
		Order(Descending).
		First(ctx)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "p5", doc["id"])

	doc, err = New(c, plan(t, map[string]any{"status": "archived"})).WithMetrics(NewMetrics()).First(ctx)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestCollectPage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := setup(t)

	for name, tc := range map[string]struct {
		params   PaginateParams
		expected []string
		hasNext  bool
	}{
		"First": {
			params:   PaginateParams{Page: 1, PerPage: 2},
			expected: []string{"p1", "p2"},
			hasNext:  true,
		},
		"Middle": {
			params:   PaginateParams{Page: 2, PerPage: 2},
			expected: []string{"p3", "p4"},
			hasNext:  true,
		},
		"Last": {
			params:   PaginateParams{Page: 3, PerPage: 2},
			expected: []string{"p5"},
			hasNext:  false,
		},
		"Exact": {
			params:   PaginateParams{Page: 1, PerPage: 5},
			expected: []string{"p1", "p2", "p3", "p4", "p5"},
			hasNext:  false,
		},
		"ZeroPage": {
			params:   PaginateParams{Page: 0, PerPage: 4},
			expected: []string{"p1", "p2", "p3", "p4"},
			hasNext:  true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			page, err := New(c, nil).WithMetrics(NewMetrics()).Paginate(tc.params).CollectPage(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ids(page.Docs))
			assert.Equal(t, tc.hasNext, page.HasNextPage)
			assert.Equal(t, tc.params.PerPage, page.PerPage)
		})
	}
}

func TestTerminalsKeepChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := setup(t)

	ch := New(c, nil).WithMetrics(NewMetrics())

	doc, err := ch.First(ctx)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "p1", doc["id"])

	docs, err := ch.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, ids(docs))

	page, err := ch.Take(3).CollectPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Page)
	assert.Equal(t, int64(DefaultPerPage), page.PerPage)
	assert.Len(t, page.Docs, 5)

	docs, err = ch.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(docs))
}

func TestWithEvaluator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := setup(t)

	p := plan(t, map[string]any{"title": map[string]any{"sounds_like": "go"}})
	require.Equal(t, where.StrategyPost, p.Strategy)

	docs, err := New(c, p).WithMetrics(NewMetrics()).PostFilter().Collect(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 5)

	docs, err = New(c, p).
		WithMetrics(NewMetrics()).
		WithEvaluator(&where.Evaluator{Strict: true}).
		PostFilter().
		Collect(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestNoCaching(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := setup(t)

	ch := New(c, plan(t, map[string]any{"status": "draft"})).WithMetrics(NewMetrics())

	docs, err := ch.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, ids(docs))

	_, err = c.InsertAll(ctx, &backends.InsertAllParams{Docs: []types.Document{
		{"$id": "p6", "$createdAt": int64(6), "status": "draft"},
	}})
	require.NoError(t, err)

	docs, err = ch.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p6"}, ids(docs))
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := setup(t)
	m := NewMetrics()

	p := plan(t, map[string]any{
		"status": "published",
		"title":  map[string]any{"like": "%go%"},
	})
	require.Equal(t, where.StrategyHybrid, p.Strategy)

	_, err := New(c, p).WithMetrics(m).PostFilter().Collect(ctx)
	require.NoError(t, err)

	_, err = New(c, nil).WithMetrics(m).Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.plans.WithLabelValues("hybrid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.plans.WithLabelValues("db")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.postFiltered))
}
