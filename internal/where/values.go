package where

import (
	"reflect"
	"strings"

	"github.com/ydb-platform/docbridge/internal/transcode"
)

// normalizeValue prepares a comparison value for both the backend builder and the evaluator.
//
// Dates become epoch milliseconds for ordering and equality operators;
// pattern, substring and geo operators keep their raw values.
func normalizeValue(op Operator, v any) any {
	switch op {
	case OpIn, OpNotIn:
		list := toList(v)
		res := make([]any, len(list))

		for i, e := range list {
			res[i] = transcode.NormalizeValue(e)
		}

		return res

	case OpExists:
		switch v := v.(type) {
		case string:
			switch strings.ToLower(v) {
			case "true":
				return true
			case "false":
				return false
			}
		}

		return v

	case OpContains, OpLike, OpNear:
		return v

	default:
		return transcode.NormalizeValue(v)
	}
}

// toList converts list-like values to []any.
//
// Comma-separated strings are split; other scalars become single-element lists.
func toList(v any) []any {
	switch v := v.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case string:
		if v == "" {
			return []any{}
		}

		parts := strings.Split(v, ",")
		res := make([]any, len(parts))

		for i, p := range parts {
			res[i] = strings.TrimSpace(p)
		}

		return res
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}

	res := make([]any, rv.Len())
	for i := range res {
		res[i] = rv.Index(i).Interface()
	}

	return res
}

// isScalar returns true for values the backend can receive as query parameters.
func isScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string:
		return true
	}

	_, ok := transcode.ToFloat(v)

	return ok
}
