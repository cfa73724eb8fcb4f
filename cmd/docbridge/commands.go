package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/AlekSi/pointer"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/ydb-platform/docbridge/internal/adapter"
	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/backends/ydb"
	"github.com/ydb-platform/docbridge/internal/query"
	"github.com/ydb-platform/docbridge/internal/registry"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
	"github.com/ydb-platform/docbridge/internal/util/logging"
	"github.com/ydb-platform/docbridge/internal/where"
)

// explainTablePathPrefix is used in offline compiled queries.
const explainTablePathPrefix = "/local/docbridge"

// explainCmd represents `explain` command.
//
//nolint:vet // for readability
type explainCmd struct {
	Filter     string `default:"{}"         help:"Filter as JSON object."`
	Collection string `default:"collection" help:"Table name used in the compiled query."`
	Limit      int64  `default:"0"          help:"Limit used in the compiled query; 0 means the maximum page size."`
	Format     string `default:"json"       help:"Output format: json, yaml, or msgpack (hex-encoded plan only)." enum:"json,yaml,msgpack"`
}

// explainOutput represents `explain` command output.
type explainOutput struct {
	Plan any    `json:"plan" yaml:"plan"`
	YQL  string `json:"yql"  yaml:"yql"`
}

// run prints the plan and the YQL query for the backend part of the filter.
func (cmd *explainCmd) run(w io.Writer) error {
	filter, err := decodeFilter(cmd.Filter)
	if err != nil {
		return err
	}

	plan, err := where.ParsePlan(filter)
	if err != nil {
		return lazyerrors.Error(err)
	}

	if cmd.Format == "msgpack" {
		var b []byte
		if b, err = where.EncodePlan(plan); err != nil {
			return lazyerrors.Error(err)
		}

		_, err = fmt.Fprintf(w, "%x\n", b)

		return err
	}

	b, err := where.MarshalPlan(plan)
	if err != nil {
		return lazyerrors.Error(err)
	}

	out := explainOutput{
		YQL: ydb.CompileQuery(explainTablePathPrefix, cmd.Collection, &backends.QueryParams{
			Filter: plan.DB,
			Limit:  cmd.Limit,
		}),
	}

	if err = json.Unmarshal(b, &out.Plan); err != nil {
		return lazyerrors.Error(err)
	}

	switch cmd.Format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err = enc.Encode(out); err != nil {
			return lazyerrors.Error(err)
		}

		return enc.Close()

	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}
}

// findCmd represents `find` command.
//
//nolint:vet // for readability
type findCmd struct {
	Backend    string `default:"ydb"       help:"Backend: ${backends}."                 enum:"${backends}"`
	DB         string `default:"docbridge" help:"Database (directory) name."            name:"db"`
	Collection string `required:""         help:"Collection name."`
	Filter     string `default:"{}"        help:"Filter as JSON object."`
	Sort       string `default:"asc"       help:"Sort direction by creation time: asc or desc." enum:"asc,desc"`
	Limit      int    `default:"0"         help:"Maximum number of documents; 0 means no limit."`
	Strict     bool   `default:"false"     help:"Treat unknown filter operators as non-matching."`
}

// run prints matching documents as JSON lines.
func (cmd *findCmd) run(ctx context.Context, w io.Writer, opts *registry.NewBackendOpts, reg prometheus.Registerer, l *slog.Logger) error {
	filter, err := decodeFilter(cmd.Filter)
	if err != nil {
		return err
	}

	b, err := registry.NewBackend(ctx, cmd.Backend, opts)
	if err != nil {
		return lazyerrors.Error(err)
	}

	defer b.Close()

	if reg != nil {
		if err = reg.Register(b); err != nil {
			l.WarnContext(ctx, "Failed to register backend metrics", logging.Error(err))
		}

		defer reg.Unregister(b)
	}

	a := adapter.New(adapter.Params{
		Backend:   b,
		L:         l,
		DBName:    cmd.DB,
		Evaluator: &where.Evaluator{Strict: cmd.Strict, L: l},
	})

	params := &adapter.FindParams{
		Where: filter,
		Sort:  query.Direction(cmd.Sort),
	}

	if cmd.Limit > 0 {
		params.Limit = pointer.ToInt(cmd.Limit)
	}

	res, err := a.Find(ctx, cmd.Collection, params)
	if err != nil {
		return lazyerrors.Error(err)
	}

	enc := json.NewEncoder(w)

	for _, doc := range res.Docs {
		if err = enc.Encode(doc); err != nil {
			return lazyerrors.Error(err)
		}
	}

	l.DebugContext(ctx, "Documents found", slog.Int("count", len(res.Docs)))

	return nil
}

// decodeFilter decodes filter JSON object.
func decodeFilter(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}

	var filter map[string]any
	if err := json.Unmarshal([]byte(s), &filter); err != nil {
		return nil, lazyerrors.Errorf("invalid filter: %w", err)
	}

	return filter, nil
}
