package ydb

import (
	"fmt"
	"strings"

	ydbTypes "github.com/ydb-platform/ydb-go-sdk/v3/table/types"

	"github.com/ydb-platform/docbridge/internal/backends"
	"github.com/ydb-platform/docbridge/internal/backends/ydb/metadata"
	"github.com/ydb-platform/docbridge/internal/where"
)

// selectParams contains parameters of the SELECT statement.
//
//nolint:vet // for readability
type selectParams struct {
	TablePathPrefix string
	Table           string
	Comment         string
	Filter          where.Node
	Descending      bool
	Limit           int64
	Offset          int64
	Count           bool
}

// buildSelectQuery returns the full YQL query with declared parameters.
func buildSelectQuery(params *selectParams) (string, *metadata.Params) {
	ps := new(metadata.Params)

	var sb strings.Builder

	sb.WriteString(prepareSelectClause(params))
	sb.WriteString(prepareWhereClause(params.Filter, ps))

	if !params.Count {
		sb.WriteString(prepareOrderByClause(params.Descending))
		sb.WriteString(prepareLimitClause(params.Limit, params.Offset, ps))
	}

	q := fmt.Sprintf("PRAGMA TablePathPrefix(%q);\n", params.TablePathPrefix)
	if decls := ps.Declarations(); decls != "" {
		q += "\n" + decls + "\n"
	}

	q += "\n" + sb.String() + ";\n"

	return q, ps
}

// CompileQuery returns the YQL query for the given table without connecting to YDB.
//
// Filter must be pushable.
func CompileQuery(tablePathPrefix, table string, params *backends.QueryParams) string {
	if params == nil {
		params = new(backends.QueryParams)
	}

	q, _ := buildSelectQuery(&selectParams{
		TablePathPrefix: tablePathPrefix,
		Table:           table,
		Filter:          params.Filter,
		Descending:      params.Descending,
		Limit:           params.Limit,
		Offset:          params.Offset,
	})

	return q
}

// prepareSelectClause returns SELECT and FROM clauses.
func prepareSelectClause(params *selectParams) string {
	if params == nil {
		params = new(selectParams)
	}

	var comment string
	if params.Comment != "" {
		comment = strings.ReplaceAll(params.Comment, "/*", "/ *")
		comment = strings.ReplaceAll(comment, "*/", "* /")
		comment = "/* " + comment + " */"
	}

	column := metadata.DefaultColumn
	if params.Count {
		column = "COUNT(*) AS count"
	}

	return fmt.Sprintf("%s %s %s %s `%s`", SelectWord, comment, column, FromWord, params.Table)
}

// prepareWhereClause returns WHERE clause for the filter, or empty string for no filtering.
func prepareWhereClause(filter where.Node, ps *metadata.Params) string {
	if filter == nil || where.IsCatchAll(filter) {
		return ""
	}

	return " " + WhereWord + " " + buildFilter(filter, ps)
}

// prepareOrderByClause returns ORDER BY clause by creation time and identifier.
func prepareOrderByClause(descending bool) string {
	if descending {
		return fmt.Sprintf(
			" %s %s %s, %s %s",
			OrderByWord, metadata.CreatedAtColumn, DescWord, metadata.IDColumn, DescWord,
		)
	}

	return fmt.Sprintf(" %s %s, %s", OrderByWord, metadata.CreatedAtColumn, metadata.IDColumn)
}

// prepareLimitClause returns LIMIT and OFFSET clauses.
//
// Zero limit is replaced by the maximum result set size.
func prepareLimitClause(limit, offset int64, ps *metadata.Params) string {
	if limit <= 0 || limit > defaultRowsLimit {
		limit = defaultRowsLimit
	}

	res := " " + LimitWord + " " + ps.Add(ydbTypes.TypeUint64, ydbTypes.Uint64Value(uint64(limit)))

	if offset > 0 {
		res += " " + OffsetWord + " " + ps.Add(ydbTypes.TypeUint64, ydbTypes.Uint64Value(uint64(offset)))
	}

	return res
}
