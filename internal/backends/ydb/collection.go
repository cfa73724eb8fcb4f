package ydb

import (
	"context"
	"encoding/json"
	"log/slog"
	"text/template"

	"github.com/ydb-platform/ydb-go-sdk/v3/table"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/result/named"
	ydbTypes "github.com/ydb-platform/ydb-go-sdk/v3/table/types"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/backends/ydb/metadata"
	"github.com/ydb-platform/docbridge/internal/backends/ydb/metadata/transaction"
	"github.com/ydb-platform/docbridge/internal/types"
	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

// collection implements backends.Collection interface.
type collection struct {
	r      *metadata.Registry
	l      *slog.Logger
	dbName string
	name   string
}

// newCollection creates a new Collection.
func newCollection(r *metadata.Registry, l *slog.Logger, dbName, name string) backends.Collection {
	return backends.CollectionContract(&collection{
		r:      r,
		l:      l,
		dbName: dbName,
		name:   name,
	})
}

// Query implements backends.Collection interface.
func (c *collection) Query(ctx context.Context, params *backends.QueryParams) (*backends.QueryResult, error) {
	meta, err := c.r.CollectionGet(ctx, c.dbName, c.name)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if meta == nil {
		return &backends.QueryResult{Docs: []types.Document{}}, nil
	}

	docs := []types.Document{}
	offset := params.Offset
	remaining := params.Limit

	// result sets are capped, so larger queries are fetched page by page
	for {
		size := int64(defaultRowsLimit)
		if remaining > 0 && remaining < size {
			size = remaining
		}

		q, ps := buildSelectQuery(&selectParams{
			TablePathPrefix: c.r.DatabasePath(c.dbName),
			Table:           meta.TableName,
			Comment:         c.name,
			Filter:          params.Filter,
			Descending:      params.Descending,
			Limit:           size,
			Offset:          offset,
		})

		c.l.DebugContext(ctx, "Querying documents", slog.String("collection", c.name), slog.String("query", q))

		page, err := c.queryDocuments(ctx, q, ps)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		docs = append(docs, page...)

		n := int64(len(page))
		if n < size {
			break
		}

		offset += n

		if remaining > 0 {
			if remaining -= n; remaining == 0 {
				break
			}
		}
	}

	return &backends.QueryResult{Docs: docs}, nil
}

// queryDocuments executes a single select query and decodes documents.
func (c *collection) queryDocuments(ctx context.Context, q string, ps *metadata.Params) ([]types.Document, error) {
	var docs []types.Document

	err := c.r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		docs = docs[:0]

		_, res, err := s.Execute(ctx, transaction.ReadTx, q, ps.QueryParameters())
		if err != nil {
			return err
		}

		defer res.Close() //nolint:errcheck // result is fully read

		for res.NextResultSet(ctx) {
			for res.NextRow() {
				var b string
				if err = res.ScanNamed(named.OptionalWithDefault(metadata.DefaultColumn, &b)); err != nil {
					return err
				}

				doc, err := unmarshalDocument([]byte(b))
				if err != nil {
					return err
				}

				docs = append(docs, doc)
			}
		}

		return res.Err()
	}, table.WithIdempotent())
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return docs, nil
}

// InsertAll implements backends.Collection interface.
func (c *collection) InsertAll(ctx context.Context, params *backends.InsertAllParams) (*backends.InsertAllResult, error) {
	err := c.write(ctx, metadata.InsertDocumentsTmpl, params.Docs, false)
	if metadata.IsOperationErrorConflictExistingKey(err) {
		return nil, backends.NewError(backends.ErrorCodeInsertDuplicateID, err)
	}

	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return new(backends.InsertAllResult), nil
}

// ReplaceAll implements backends.Collection interface.
func (c *collection) ReplaceAll(ctx context.Context, params *backends.ReplaceAllParams) (*backends.ReplaceAllResult, error) {
	if err := c.write(ctx, metadata.UpsertDocumentsTmpl, params.Docs, true); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return new(backends.ReplaceAllResult), nil
}

// write stamps documents and writes them with the given template,
// creating the collection if needed.
func (c *collection) write(ctx context.Context, tmpl *template.Template, docs []types.Document, idempotent bool) error {
	if len(docs) == 0 {
		return nil
	}

	if _, err := c.r.CollectionCreate(ctx, &metadata.CollectionCreateParams{DBName: c.dbName, Name: c.name}); err != nil {
		return lazyerrors.Error(err)
	}

	meta, err := c.r.CollectionGet(ctx, c.dbName, c.name)
	if err != nil {
		return lazyerrors.Error(err)
	}

	if meta == nil {
		return backends.NewError(
			backends.ErrorCodeCollectionDoesNotExist,
			lazyerrors.Errorf("no collection %s.%s", c.dbName, c.name),
		)
	}

	data, err := documentsData(docs)
	if err != nil {
		return lazyerrors.Error(err)
	}

	q, err := metadata.Render(tmpl, metadata.TemplateConfig{
		TablePathPrefix: c.r.DatabasePath(c.dbName),
		TableName:       meta.TableName,
		ColumnName:      metadata.DefaultColumn,
	})
	if err != nil {
		return lazyerrors.Error(err)
	}

	var p metadata.Placeholder

	var opts []table.Option
	if idempotent {
		opts = append(opts, table.WithIdempotent())
	}

	c.l.DebugContext(ctx, "Writing documents", slog.String("collection", c.name), slog.Int("count", len(docs)))

	return c.r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		_, res, err := s.Execute(ctx, transaction.WriteTx, q, table.NewQueryParameters(
			table.ValueParam(p.Named("data"), data),
		))
		if err != nil {
			return err
		}

		return res.Close()
	}, opts...)
}

// documentsData returns a list of table rows for documents stamped with the current time.
func documentsData(docs []types.Document) (ydbTypes.Value, error) {
	now := nowFunc()
	rows := make([]ydbTypes.Value, len(docs))

	for i, doc := range docs {
		doc = backends.Stamp(doc, now)

		b, err := json.Marshal(doc)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		rows[i] = ydbTypes.StructValue(
			ydbTypes.StructFieldValue(metadata.IDColumn, ydbTypes.BytesValueFromString(backends.ID(doc))),
			ydbTypes.StructFieldValue(metadata.CreatedAtColumn, ydbTypes.Int64Value(backends.CreatedAt(doc))),
			ydbTypes.StructFieldValue(metadata.DefaultColumn, ydbTypes.JSONDocumentValueFromBytes(b)),
		)
	}

	return ydbTypes.ListValue(rows...), nil
}

// DeleteAll implements backends.Collection interface.
func (c *collection) DeleteAll(ctx context.Context, params *backends.DeleteAllParams) (*backends.DeleteAllResult, error) {
	meta, err := c.r.CollectionGet(ctx, c.dbName, c.name)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if meta == nil || len(params.IDs) == 0 {
		return new(backends.DeleteAllResult), nil
	}

	q, err := metadata.Render(metadata.DeleteDocumentsTmpl, metadata.TemplateConfig{
		TablePathPrefix: c.r.DatabasePath(c.dbName),
		TableName:       meta.TableName,
		ColumnName:      metadata.DefaultColumn,
	})
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	ids := make([]ydbTypes.Value, len(params.IDs))
	for i, id := range params.IDs {
		ids[i] = ydbTypes.BytesValueFromString(id)
	}

	var p metadata.Placeholder
	var deleted uint64

	err = c.r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		_, res, err := s.Execute(ctx, transaction.WriteTx, q, table.NewQueryParameters(
			table.ValueParam(p.Named("ids"), ydbTypes.ListValue(ids...)),
		))
		if err != nil {
			return err
		}

		defer res.Close() //nolint:errcheck // result is fully read

		for res.NextResultSet(ctx) {
			for res.NextRow() {
				if err = res.ScanNamed(named.Required("deleted_count", &deleted)); err != nil {
					return err
				}
			}
		}

		return res.Err()
	}, table.WithIdempotent())
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return &backends.DeleteAllResult{Deleted: int64(deleted)}, nil
}

// Count implements backends.Collection interface.
func (c *collection) Count(ctx context.Context, params *backends.CountParams) (*backends.CountResult, error) {
	meta, err := c.r.CollectionGet(ctx, c.dbName, c.name)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if meta == nil {
		return new(backends.CountResult), nil
	}

	q, ps := buildSelectQuery(&selectParams{
		TablePathPrefix: c.r.DatabasePath(c.dbName),
		Table:           meta.TableName,
		Comment:         c.name,
		Filter:          params.Filter,
		Count:           true,
	})

	var count uint64

	err = c.r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		_, res, err := s.Execute(ctx, transaction.ReadTx, q, ps.QueryParameters())
		if err != nil {
			return err
		}

		defer res.Close() //nolint:errcheck // result is fully read

		for res.NextResultSet(ctx) {
			for res.NextRow() {
				if err = res.ScanNamed(named.Required("count", &count)); err != nil {
					return err
				}
			}
		}

		return res.Err()
	}, table.WithIdempotent())
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return &backends.CountResult{Count: int64(count)}, nil
}

// Explain implements backends.Collection interface.
func (c *collection) Explain(ctx context.Context, params *backends.ExplainParams) (*backends.ExplainResult, error) {
	qp := params.Query
	if qp == nil {
		qp = new(backends.QueryParams)
	}

	tableName := c.name
	meta, err := c.r.CollectionGet(ctx, c.dbName, c.name)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if meta != nil {
		tableName = meta.TableName
	}

	q, _ := buildSelectQuery(&selectParams{
		TablePathPrefix: c.r.DatabasePath(c.dbName),
		Table:           tableName,
		Comment:         c.name,
		Filter:          qp.Filter,
		Descending:      qp.Descending,
		Limit:           qp.Limit,
		Offset:          qp.Offset,
	})

	res := &backends.ExplainResult{Query: q}

	// the table does not exist yet, so there is no plan
	if meta == nil {
		return res, nil
	}

	var plan string

	err = c.r.D.Driver.Table().Do(ctx, func(ctx context.Context, s table.Session) error {
		exp, err := s.Explain(ctx, q)
		if err != nil {
			return err
		}

		plan = exp.Plan

		return nil
	}, table.WithIdempotent())
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if res.Plan, err = UnmarshalExplain(plan); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return res, nil
}

// check interfaces
var (
	_ backends.Collection = (*collection)(nil)
)
