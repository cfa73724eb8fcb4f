package adapter

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/backends/memory"
	"github.com/ydb-platform/docbridge/internal/query"
	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/util/testutil"
	"github.com/ydb-platform/docbridge/internal/where"
)

// setup returns an adapter over the memory backend with test posts in the "posts" collection.
func setup(t *testing.T) *Adapter {
	t.Helper()

	l := testutil.Logger(t)

	b := memory.NewBackend(&memory.NewBackendParams{L: l})
	t.Cleanup(b.Close)

	a := New(Params{Backend: b, L: l, DBName: "test", BatchConcurrency: 2})

	posts := []types.Document{
		{"id": "p1", "status": "published", "title": "Learning Go", "views": 10},
		{"id": "p2", "status": "published", "title": "Rust notes", "views": 5},
		{"id": "p3", "status": "draft", "title": "Go generics", "views": 0},
		{"id": "p4", "status": "published", "title": "Going further", "views": 7},
		{"id": "p5", "status": "published", "title": "Databases", "views": 3},
	}

	for i, p := range posts {
		p["createdAt"] = time.Date(2024, 1, i+1, 12, 0, 0, 0, time.UTC)

		_, err := a.Create(context.Background(), "posts", p)
		require.NoError(t, err)
	}

	return a
}

func ids(docs []types.Document) []string {
	res := make([]string, len(docs))
	for i, d := range docs {
		res[i], _ = d["id"].(string)
	}

	return res
}

var hybrid = map[string]any{
	"status": "published",
	"title":  map[string]any{"like": "%go%"},
}

func TestCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setup(t)

	doc, err := a.Create(ctx, "posts", types.Document{"title": "Untitled", "_secret": "s"})
	require.NoError(t, err)

	id, _ := doc["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, id, doc["$id"])
	assert.IsType(t, "", doc["createdAt"])

	found, err := a.FindByID(ctx, "posts", id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Untitled", found["title"])
	assert.Equal(t, "s", found["_secret"])

	found, err = a.FindByID(ctx, "posts", "p1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T12:00:00.000Z", found["createdAt"])

	_, err = a.Create(ctx, "posts", types.Document{"id": "p1"})
	assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeInsertDuplicateID), "%v", err)
}

func TestFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setup(t)

	for _, tc := range []struct { //nolint:vet // for readability
		name     string
		params   *FindParams
		expected []string
		hasNext  bool
	}{
		{
			name:     "All",
			params:   nil,
			expected: []string{"p1", "p2", "p3", "p4", "p5"},
		},
		{
			name:     "DescendingLimit",
			params:   &FindParams{Sort: query.Descending, Limit: pointer.ToInt(2)},
			expected: []string{"p5", "p4"},
		},
		{
			name:     "DBFirstPage",
			params:   &FindParams{Where: map[string]any{"status": "published"}, Page: 1, PerPage: 2},
			expected: []string{"p1", "p2"},
			hasNext:  true,
		},
		{
			name:     "DBLastPage",
			params:   &FindParams{Where: map[string]any{"status": "published"}, Page: 2, PerPage: 2},
			expected: []string{"p4", "p5"},
		},
		{
			name:     "Hybrid",
			params:   &FindParams{Where: hybrid},
			expected: []string{"p1", "p4"},
		},
		{
			name:     "HybridLimit",
			params:   &FindParams{Where: hybrid, Limit: pointer.ToInt(1)},
			expected: []string{"p1"},
		},
		{
			name:     "HybridFirstPage",
			params:   &FindParams{Where: hybrid, Page: 1, PerPage: 1},
			expected: []string{"p1"},
			hasNext:  true,
		},
		{
			name:     "HybridSecondPage",
			params:   &FindParams{Where: hybrid, Page: 2, PerPage: 1},
			expected: []string{"p4"},
		},
		{
			name:     "HybridPageOutOfRange",
			params:   &FindParams{Where: hybrid, Page: 5, PerPage: 1},
			expected: []string{},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res, err := a.Find(ctx, "posts", tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ids(res.Docs))
			assert.Equal(t, tc.hasNext, res.HasNextPage)
		})
	}
}

func TestFindOne(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setup(t)

	doc, err := a.FindOne(ctx, "posts", hybrid)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "p1", doc["id"])

	doc, err = a.FindOne(ctx, "posts", map[string]any{"status": "archived"})
	require.NoError(t, err)
	assert.Nil(t, doc)

	doc, err = a.FindByID(ctx, "missing", "p1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setup(t)

	for name, tc := range map[string]struct {
		filter   map[string]any
		expected int64
	}{
		"All":    {filter: nil, expected: 5},
		"DB":     {filter: map[string]any{"views": map[string]any{"greater_than": 4}}, expected: 3},
		"Hybrid": {filter: hybrid, expected: 2},
		"Post":   {filter: map[string]any{"title": map[string]any{"contains": "go"}}, expected: 3},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			n, err := a.Count(ctx, "posts", tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, n)
		})
	}
}

func TestEvaluator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setup(t)

	filter := map[string]any{"title": map[string]any{"sounds_like": "go"}}

	n, err := a.Count(ctx, "posts", filter)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	strict := New(Params{Backend: a.b, DBName: "test", Evaluator: &where.Evaluator{Strict: true}})

	n, err = strict.Count(ctx, "posts", filter)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	res, err := strict.Find(ctx, "posts", &FindParams{Where: filter})
	require.NoError(t, err)
	assert.Empty(t, res.Docs)
}

func TestUpdateOne(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("SetAndIncrement", func(t *testing.T) {
		t.Parallel()

		a := setup(t)

		updated, err := a.UpdateOne(ctx, "posts", &UpdateParams{
			Where:      map[string]any{"id": "p2"},
			Set:        types.Document{"title": "Rust", "id": "other"},
			Increments: map[string]any{"views": 2, "score": 1.5},
		})
		require.NoError(t, err)
		assert.Equal(t, "p2", updated["id"])

		doc, err := a.FindByID(ctx, "posts", "p2")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "Rust", doc["title"])
		assert.Equal(t, int64(7), doc["views"])
		assert.Equal(t, 1.5, doc["score"])
		assert.IsType(t, "", doc["updatedAt"])
		assert.Equal(t, "2024-01-02T12:00:00.000Z", doc["createdAt"])
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()

		a := setup(t)

		_, err := a.UpdateOne(ctx, "posts", &UpdateParams{
			Where: map[string]any{"id": "missing"},
			Set:   types.Document{"title": "x"},
		})
		assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeDocumentNotFound), "%v", err)
	})

	t.Run("IncrementErrors", func(t *testing.T) {
		t.Parallel()

		a := setup(t)

		for name, tc := range map[string]struct {
			increments map[string]any
			field      string
			value      any
		}{
			"NonNumericValue": {increments: map[string]any{"views": "a lot"}, field: "views", value: "a lot"},
			"NonNumericField": {increments: map[string]any{"title": 1}, field: "title", value: 1},
		} {
			_, err := a.UpdateOne(ctx, "posts", &UpdateParams{
				Where:      map[string]any{"id": "p1"},
				Increments: tc.increments,
			})

			var ie *IncrementError
			require.True(t, errors.As(err, &ie), name)
			assert.Equal(t, tc.field, ie.Field, name)
			assert.Equal(t, tc.value, ie.Value, name)
		}

		doc, err := a.FindByID(ctx, "posts", "p1")
		require.NoError(t, err)
		assert.Equal(t, 10, doc["views"])
	})
}

func TestIncrement(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		current  any
		delta    any
		expected any
		err      bool
	}{
		"IntInt":     {current: 1, delta: int32(2), expected: int64(3)},
		"Missing":    {current: nil, delta: 5, expected: int64(5)},
		"IntFloat":   {current: 1, delta: 0.5, expected: 1.5},
		"FloatInt":   {current: 2.5, delta: -1, expected: 1.5},
		"Overflow":   {current: int64(math.MaxInt64), delta: 1, expected: float64(math.MaxInt64)},
		"String":     {current: 1, delta: "1", err: true},
		"NotANumber": {current: "x", delta: 1, err: true},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			actual, err := increment(tc.current, tc.delta)
			if tc.err {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestUpdateDeleteMany(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setup(t)

	n, err := a.UpdateMany(ctx, "posts", &UpdateParams{
		Where:      hybrid,
		Increments: map[string]any{"views": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := a.Find(ctx, "posts", &FindParams{Where: map[string]any{"views": map[string]any{"in": []any{11, 8}}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p4"}, ids(res.Docs))

	n, err = a.DeleteMany(ctx, "posts", map[string]any{"status": "published"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	count, err := a.Count(ctx, "posts", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	deleted, err := a.DeleteOne(ctx, "posts", map[string]any{"id": "p3"})
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = a.DeleteOne(ctx, "posts", map[string]any{"id": "p3"})
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setup(t)

	params := &UpdateParams{
		Where:      map[string]any{"slug": "hello", "views": map[string]any{"greater_than_equal": 0}},
		Set:        types.Document{"title": "Hello"},
		Increments: map[string]any{"views": 1},
	}

	doc, err := a.Upsert(ctx, "posts", params)
	require.NoError(t, err)
	assert.Equal(t, "hello", doc["slug"])
	assert.Equal(t, int64(1), doc["views"])

	doc, err = a.Upsert(ctx, "posts", params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc["views"])

	count, err := a.Count(ctx, "posts", map[string]any{"slug": "hello"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpsertEqualsRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setup(t)

	params := &UpdateParams{
		Where: map[string]any{"slug": map[string]any{"equals": "intro"}},
		Set:   types.Document{"title": "Intro"},
	}

	first, err := a.Upsert(ctx, "posts", params)
	require.NoError(t, err)
	assert.Equal(t, "intro", first["slug"])

	second, err := a.Upsert(ctx, "posts", params)
	require.NoError(t, err)
	assert.Equal(t, first["id"], second["id"])

	count, err := a.Count(ctx, "posts", map[string]any{"slug": "intro"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSeedDocument(t *testing.T) {
	t.Parallel()

	actual := seedDocument(map[string]any{
		"slug":        map[string]any{"equals": "intro"},
		"status":      "draft",
		"views":       map[string]any{"greater_than": 1},
		"range":       map[string]any{"equals": 1, "not_equals": 2},
		"deleted":     map[string]any{"equals": nil},
		"author.name": "ann",
		"or":          []any{map[string]any{"a": 1}},
	})

	assert.Equal(t, types.Document{"slug": "intro", "status": "draft"}, actual)
}

func TestWithTransaction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setup(t)

	var committed string

	err := a.WithTransaction(ctx, func(ctx context.Context, id string) error {
		committed = id

		state, err := a.Sessions().State(id)
		require.NoError(t, err)
		assert.Equal(t, SessionInProgress, state)

		_, err = a.Create(ctx, "posts", types.Document{"title": "In transaction"})

		return err
	})
	require.NoError(t, err)
	assert.NotEmpty(t, committed)

	fail := errors.New("fail")

	err = a.WithTransaction(ctx, func(context.Context, string) error { return fail })
	require.ErrorIs(t, err, fail)

	assert.Zero(t, a.Sessions().Len())

	_, err = a.Sessions().State(committed)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
