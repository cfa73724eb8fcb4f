package ydb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ydb-platform/ydb-go-sdk/v3/sugar"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/util/testutil"
	"github.com/ydb-platform/docbridge/internal/where"
)

// setup creates a backend connected to the test YDB and a collection with test documents.
func setup(t *testing.T) (backends.Backend, backends.Collection, string) {
	t.Helper()

	ctx := context.Background()

	b, err := NewBackend(ctx, &NewBackendParams{
		URI: testutil.TestYDBURI(t),
		L:   testutil.Logger(t),
	})
	require.NoError(t, err)

	dbName := testutil.DirectoryName(t)

	t.Cleanup(func() {
		defer b.Close()

		if t.Failed() {
			t.Logf("Keeping database %s for debugging.", dbName)
			return
		}

		require.NoError(t, sugar.RemoveRecursive(ctx, b.(*backend).r.D.Driver, dbName))
	})

	c, err := b.Collection(dbName, "posts")
	require.NoError(t, err)

	_, err = c.InsertAll(ctx, &backends.InsertAllParams{Docs: []types.Document{
		{"$id": "p3", "$createdAt": int64(3), "status": "draft", "score": int64(1)},
		{"$id": "p1", "$createdAt": int64(1), "status": "published", "score": int64(5)},
		{"$id": "p2", "$createdAt": int64(1), "status": "published", "score": 7.5},
		{"$id": "p4", "$createdAt": int64(4), "status": nil},
	}})
	require.NoError(t, err)

	return b, c, dbName
}

func ids(docs []types.Document) []string {
	res := make([]string, len(docs))
	for i, d := range docs {
		res[i] = backends.ID(d)
	}

	return res
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	_, c, _ := setup(t)

	published := &where.Comparison{Field: "status", Op: where.OpEquals, Value: "published"}

	for name, tc := range map[string]struct { //nolint:vet // for readability
		params   *backends.QueryParams
		expected []string
	}{
		"All": {
			params:   nil,
			expected: []string{"p1", "p2", "p3", "p4"},
		},
		"Filter": {
			params:   &backends.QueryParams{Filter: published},
			expected: []string{"p1", "p2"},
		},
		"Descending": {
			params:   &backends.QueryParams{Descending: true},
			expected: []string{"p4", "p3", "p2", "p1"},
		},
		"LimitOffset": {
			params:   &backends.QueryParams{Limit: 2, Offset: 1},
			expected: []string{"p2", "p3"},
		},
		"InEmpty": {
			params:   &backends.QueryParams{Filter: &where.Comparison{Field: "score", Op: where.OpIn, Value: []any{}}},
			expected: []string{},
		},
		"NotInEmpty": {
			params:   &backends.QueryParams{Filter: &where.Comparison{Field: "score", Op: where.OpNotIn, Value: []any{}}},
			expected: []string{"p1", "p2", "p3", "p4"},
		},
		"EqualsNil": {
			params:   &backends.QueryParams{Filter: &where.Comparison{Field: "score", Op: where.OpEquals, Value: nil}},
			expected: []string{"p4"},
		},
		"NumericAcrossKinds": {
			params:   &backends.QueryParams{Filter: &where.Comparison{Field: "score", Op: where.OpGreaterThan, Value: int64(4)}},
			expected: []string{"p1", "p2"},
		},
		"ID": {
			params:   &backends.QueryParams{Filter: &where.Comparison{Field: "id", Op: where.OpIn, Value: []any{"p3", "p4"}}},
			expected: []string{"p3", "p4"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := c.Query(ctx, tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ids(res.Docs))
		})
	}
}

func TestWrites(t *testing.T) {
	ctx := context.Background()
	_, c, _ := setup(t)

	_, err := c.InsertAll(ctx, &backends.InsertAllParams{Docs: []types.Document{{"$id": "p1"}}})
	assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeInsertDuplicateID), "%v", err)

	_, err = c.ReplaceAll(ctx, &backends.ReplaceAllParams{Docs: []types.Document{
		{"$id": "p1", "$createdAt": int64(1), "status": "archived"},
	}})
	require.NoError(t, err)

	res, err := c.Query(ctx, &backends.QueryParams{Filter: &where.Comparison{Field: "status", Op: where.OpEquals, Value: "archived"}})
	require.NoError(t, err)
	require.Len(t, res.Docs, 1)
	assert.Contains(t, res.Docs[0], "$timestamp")

	count, err := c.Count(ctx, &backends.CountParams{Filter: &where.Comparison{Field: "status", Op: where.OpEquals, Value: "published"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Count)

	deleted, err := c.DeleteAll(ctx, &backends.DeleteAllParams{IDs: []string{"p1", "p2", "missing"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted.Deleted)

	count, err = c.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Count)

	explain, err := c.Explain(ctx, &backends.ExplainParams{Query: &backends.QueryParams{Limit: 1}})
	require.NoError(t, err)
	assert.Contains(t, explain.Query, "LIMIT $f1")
	assert.NotEmpty(t, explain.Plan)
}

func TestCollections(t *testing.T) {
	ctx := context.Background()
	b, _, dbName := setup(t)

	err := b.CreateCollection(ctx, &backends.CreateCollectionParams{DBName: dbName, Name: "posts"})
	assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeCollectionAlreadyExists), "%v", err)

	require.NoError(t, b.CreateCollection(ctx, &backends.CreateCollectionParams{DBName: dbName, Name: "authors"}))

	list, err := b.ListCollections(ctx, &backends.ListCollectionsParams{DBName: dbName})
	require.NoError(t, err)
	require.Len(t, list.Collections, 2)
	assert.Equal(t, "authors", list.Collections[0].Name)
	assert.Equal(t, "posts", list.Collections[1].Name)

	require.NoError(t, b.DropCollection(ctx, &backends.DropCollectionParams{DBName: dbName, Name: "authors"}))

	err = b.DropCollection(ctx, &backends.DropCollectionParams{DBName: dbName, Name: "authors"})
	assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeCollectionDoesNotExist), "%v", err)

	_, err = b.Collection(dbName, "$bad")
	assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeCollectionNameIsInvalid), "%v", err)
}
