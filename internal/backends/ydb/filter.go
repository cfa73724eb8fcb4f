package ydb

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	ydbTypes "github.com/ydb-platform/ydb-go-sdk/v3/table/types"

	"github.com/ydb-platform/docbridge/internal/backends/ydb/metadata"
	"github.com/ydb-platform/docbridge/internal/transcode"
	"github.com/ydb-platform/docbridge/internal/where"
)

// compareOps maps filter operators to JSON path comparison operators.
var compareOps = map[where.Operator]CompareOp{
	where.OpEquals:           CompareOpEq,
	where.OpGreaterThan:      CompareOpGt,
	where.OpGreaterThanEqual: CompareOpGte,
	where.OpLessThan:         CompareOpLt,
	where.OpLessThanEqual:    CompareOpLte,
}

// buildFilter returns YQL boolean expression for the pushable filter node.
// Parameters are declared in ps.
//
// Node must be pushable (see [where.IsPushable]); it panics otherwise.
func buildFilter(n where.Node, ps *metadata.Params) string {
	switch n := n.(type) {
	case *where.Comparison:
		return buildComparison(n, ps)

	case *where.And:
		return joinFilters(n.Nodes, AndWord, TrueWord, ps)

	case *where.Or:
		return joinFilters(n.Nodes, OrWord, FalseWord, ps)

	case *where.Not:
		return NotWord + " (" + buildFilter(n.Node, ps) + ")"

	default:
		panic(fmt.Sprintf("unexpected node type %T", n))
	}
}

// joinFilters joins children with the given keyword; no children yield empty.
func joinFilters(nodes []where.Node, word, empty string, ps *metadata.Params) string {
	if len(nodes) == 0 {
		return empty
	}

	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = buildFilter(n, ps)
	}

	return "(" + strings.Join(parts, " "+word+" ") + ")"
}

// buildComparison returns YQL expression for a single comparison.
func buildComparison(c *where.Comparison, ps *metadata.Params) string {
	path := buildPathToField(transcode.ToBackendKey(c.Field))

	switch c.Op {
	case where.OpEquals:
		if c.Value == nil {
			return getAbsentJsonFilterExpr(path)
		}

		return getDefaultJsonFilterExpr(path, addParam(ps, c), CompareOpEq)

	case where.OpNotEquals:
		if c.Value == nil {
			return getPresentJsonFilterExpr(path)
		}

		return NotWord + " " + getDefaultJsonFilterExpr(path, addParam(ps, c), CompareOpEq)

	case where.OpGreaterThan, where.OpGreaterThanEqual, where.OpLessThan, where.OpLessThanEqual:
		return getDefaultJsonFilterExpr(path, addParam(ps, c), compareOps[c.Op])

	case where.OpIn:
		return buildList(c, path, OrWord, FalseWord, "", ps)

	case where.OpNotIn:
		return buildList(c, path, AndWord, TrueWord, NotWord+" ", ps)

	case where.OpExists:
		if c.Value == true {
			return getPresentJsonFilterExpr(path)
		}

		return getAbsentJsonFilterExpr(path)

	default:
		panic(fmt.Sprintf(
			"operator %q is not supported by YDB filter builder: field %q, value %v",
			c.Op, c.Field, c.Value,
		))
	}
}

// buildList returns YQL expression for in and not_in operators.
func buildList(c *where.Comparison, path, word, empty, prefix string, ps *metadata.Params) string {
	list, _ := c.Value.([]any)
	if len(list) == 0 {
		return empty
	}

	parts := make([]string, len(list))

	for i, v := range list {
		name := addParam(ps, &where.Comparison{Field: c.Field, Op: where.OpEquals, Value: v})
		parts[i] = prefix + getDefaultJsonFilterExpr(path, name, CompareOpEq)
	}

	return "(" + strings.Join(parts, " "+word+" ") + ")"
}

// addParam declares a parameter for the comparison value and returns its name.
func addParam(ps *metadata.Params, c *where.Comparison) string {
	typ, v := paramValue(c)
	return ps.Add(typ, v)
}

// paramValue returns YDB type and value for a scalar comparison value.
func paramValue(c *where.Comparison) (ydbTypes.Type, ydbTypes.Value) {
	switch v := c.Value.(type) {
	case string:
		return ydbTypes.TypeText, ydbTypes.TextValue(v)
	case bool:
		return ydbTypes.TypeBool, ydbTypes.BoolValue(v)
	case int:
		return ydbTypes.TypeInt64, ydbTypes.Int64Value(int64(v))
	case int8:
		return ydbTypes.TypeInt64, ydbTypes.Int64Value(int64(v))
	case int16:
		return ydbTypes.TypeInt64, ydbTypes.Int64Value(int64(v))
	case int32:
		return ydbTypes.TypeInt64, ydbTypes.Int64Value(int64(v))
	case int64:
		return ydbTypes.TypeInt64, ydbTypes.Int64Value(v)
	case uint:
		return uintParam(uint64(v))
	case uint8:
		return ydbTypes.TypeInt64, ydbTypes.Int64Value(int64(v))
	case uint16:
		return ydbTypes.TypeInt64, ydbTypes.Int64Value(int64(v))
	case uint32:
		return ydbTypes.TypeInt64, ydbTypes.Int64Value(int64(v))
	case uint64:
		return uintParam(v)
	case float32:
		return ydbTypes.TypeDouble, ydbTypes.DoubleValue(float64(v))
	case float64:
		return ydbTypes.TypeDouble, ydbTypes.DoubleValue(v)
	default:
		panic(fmt.Sprintf(
			"unsupported value type %T for operator %q: field %q, value %v",
			c.Value, c.Op, c.Field, c.Value,
		))
	}
}

// uintParam returns Int64 parameter, or Double for values that do not fit.
func uintParam(v uint64) (ydbTypes.Type, ydbTypes.Value) {
	if v > math.MaxInt64 {
		return ydbTypes.TypeDouble, ydbTypes.DoubleValue(float64(v))
	}

	return ydbTypes.TypeInt64, ydbTypes.Int64Value(int64(v))
}

// buildPathToField returns JSON path to the top-level document key.
//
// Keys other than letters, digits and underscores are quoted.
func buildPathToField(key string) string {
	key = strings.TrimSpace(key)

	if key != "" && strings.IndexFunc(key, needsQuoting) < 0 {
		return jsonPathRoot + "." + key
	}

	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)

	return jsonPathRoot + `."` + r.Replace(key) + `"`
}

func needsQuoting(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

// quoteJsonPath returns JSON path as YQL string literal.
func quoteJsonPath(path string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(path) + "'"
}

// getDefaultJsonFilterExpr returns JSON_EXISTS expression comparing value at path with the parameter.
func getDefaultJsonFilterExpr(path, paramName string, op CompareOp) string {
	return fmt.Sprintf(
		`JSON_EXISTS(%s, %s PASSING %s AS "param")`,
		metadata.DefaultColumn, quoteJsonPath(path+" ? (@ "+string(op)+" $param)"), paramName,
	)
}

// getExistsJsonFilterExpr returns JSON_EXISTS expression for the path.
func getExistsJsonFilterExpr(path string) string {
	return fmt.Sprintf(`JSON_EXISTS(%s, %s)`, metadata.DefaultColumn, quoteJsonPath(path))
}

// getNullJsonFilterExpr returns JSON_EXISTS expression matching null value at path.
func getNullJsonFilterExpr(path string) string {
	return getExistsJsonFilterExpr(path + " ? (@ == null)")
}

// getPresentJsonFilterExpr matches documents with a non-null value at path.
func getPresentJsonFilterExpr(path string) string {
	return "(" + getExistsJsonFilterExpr(path) + " " + AndWord + " " + NotWord + " " + getNullJsonFilterExpr(path) + ")"
}

// getAbsentJsonFilterExpr matches documents without a value at path or with null.
func getAbsentJsonFilterExpr(path string) string {
	return "(" + NotWord + " " + getExistsJsonFilterExpr(path) + " " + OrWord + " " + getNullJsonFilterExpr(path) + ")"
}
