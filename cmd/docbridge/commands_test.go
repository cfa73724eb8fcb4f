package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/docbridge/internal/registry"
	"github.com/ydb-platform/docbridge/internal/util/testutil"
)

const hybridFilter = `{"status": "published", "title": {"like": "%go%"}}`

func TestExplain(t *testing.T) {
	t.Parallel()

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := &explainCmd{Filter: hybridFilter, Collection: "posts", Format: "json"}
		require.NoError(t, cmd.run(&buf))

		var out struct {
			Plan struct {
				Strategy   string         `json:"strategy"`
				DBFilter   map[string]any `json:"dbFilter"`
				PostFilter map[string]any `json:"postFilter"`
			} `json:"plan"`
			YQL string `json:"yql"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

		assert.Equal(t, "hybrid", out.Plan.Strategy)
		assert.Equal(t, "comparison", out.Plan.DBFilter["type"])
		assert.Equal(t, "like", out.Plan.PostFilter["operator"])
		assert.Contains(t, out.YQL, "FROM `posts`")
		assert.Contains(t, out.YQL, `WHERE JSON_EXISTS(_jsonb, '$.status ? (@ == $param)' PASSING $f1 AS "param")`)
	})

	t.Run("YAML", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := &explainCmd{Filter: `{"title": {"contains": "go"}}`, Collection: "posts", Format: "yaml"}
		require.NoError(t, cmd.run(&buf))

		assert.Contains(t, buf.String(), "strategy: post\n")
		assert.Contains(t, buf.String(), "dbFilter: null\n")
		assert.Contains(t, buf.String(), "yql: |")
		assert.NotContains(t, buf.String(), "WHERE")
	})

	t.Run("MessagePack", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := &explainCmd{Filter: hybridFilter, Format: "msgpack"}
		require.NoError(t, cmd.run(&buf))

		assert.Regexp(t, `^[0-9a-f]+\n$`, buf.String())
	})

	t.Run("InvalidFilter", func(t *testing.T) {
		t.Parallel()

		cmd := &explainCmd{Filter: `{"status":`, Format: "json"}
		assert.ErrorContains(t, cmd.run(new(bytes.Buffer)), "invalid filter")
	})
}

func TestFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := testutil.Logger(t)
	opts := &registry.NewBackendOpts{Logger: l}

	var buf bytes.Buffer
	cmd := &findCmd{Backend: "memory", DB: "test", Collection: "posts", Filter: hybridFilter, Sort: "desc", Limit: 1}
	require.NoError(t, cmd.run(ctx, &buf, opts, nil, l))
	assert.Empty(t, buf.String())

	cmd = &findCmd{Backend: "memory", DB: "test", Collection: "posts", Filter: `{"title":{"sounds_like":"go"}}`, Strict: true}
	require.NoError(t, cmd.run(ctx, &buf, opts, nil, l))
	assert.Empty(t, buf.String())

	cmd = &findCmd{Backend: "postgresql", DB: "test", Collection: "posts"}
	assert.ErrorContains(t, cmd.run(ctx, &buf, opts, nil, l), `unknown backend "postgresql"`)
}

func TestParse(t *testing.T) {
	// parser fills the global cli variable, no t.Parallel()

	parser, err := kong.New(&cli, kongOptions...)
	require.NoError(t, err)

	kongCtx, err := parser.Parse([]string{
		"--log-level=debug", "--ydb-sa-key-file=key.json",
		"find", "--backend=memory", "--collection=posts", "--sort=desc", "--strict",
	})
	require.NoError(t, err)

	assert.Equal(t, "find", kongCtx.Command())
	assert.Equal(t, "debug", cli.LogLevel)
	assert.Equal(t, "memory", cli.Find.Backend)
	assert.Equal(t, "desc", cli.Find.Sort)
	assert.True(t, cli.Find.Strict)
	assert.Equal(t, "key.json", ydbAuth().KeyFile)
	assert.Equal(t, "sa_file", ydbAuth().Method)

	_, err = parser.Parse([]string{"find", "--backend=mysql", "--collection=posts"})
	assert.Error(t, err)
}
