// Package integration contains end-to-end tests of the adapter over a real YDB instance.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/docbridge/internal/adapter"
	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/registry"
	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/util/testutil"
)

// setup returns an adapter over the YDB backend with test posts in the "posts" collection.
//
// The collection is dropped after the test unless it failed.
func setup(t *testing.T) *adapter.Adapter {
	t.Helper()

	ctx := context.Background()
	l := testutil.Logger(t)

	b, err := registry.NewBackend(ctx, "ydb", &registry.NewBackendOpts{
		Logger: l,
		YDBURL: testutil.TestYDBURI(t),
	})
	require.NoError(t, err)

	dbName := testutil.DirectoryName(t)

	t.Cleanup(func() {
		defer b.Close()

		if t.Failed() {
			t.Logf("Keeping collection %s.posts for debugging.", dbName)
			return
		}

		err := b.DropCollection(ctx, &backends.DropCollectionParams{DBName: dbName, Name: "posts"})
		if !backends.ErrorCodeIs(err, backends.ErrorCodeCollectionDoesNotExist) {
			require.NoError(t, err)
		}
	})

	a := adapter.New(adapter.Params{Backend: b, L: l, DBName: dbName, BatchConcurrency: 4})

	posts := []types.Document{
		{"id": "p1", "status": "published", "title": "Learning Go", "views": 10, "tags": []any{"go"}},
		{"id": "p2", "status": "published", "title": "Rust notes", "views": 5, "tags": []any{"rust"}},
		{"id": "p3", "status": "draft", "title": "Go generics", "views": 0},
		{"id": "p4", "status": "published", "title": "Going further", "views": 7, "author": map[string]any{"name": "ann"}},
		{"id": "p5", "status": "published", "title": "Databases", "views": 3, "author": map[string]any{"name": "bob"}},
	}

	for i, p := range posts {
		p["createdAt"] = time.Date(2024, 1, i+1, 12, 0, 0, 0, time.UTC)

		_, err = a.Create(ctx, "posts", p)
		require.NoError(t, err)
	}

	return a
}

// ids returns identifiers of application documents.
func ids(docs []types.Document) []string {
	res := make([]string, len(docs))
	for i, d := range docs {
		res[i], _ = d["id"].(string)
	}

	return res
}
