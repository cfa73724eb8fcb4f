package where

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/ydb-platform/docbridge/internal/transcode"
	"github.com/ydb-platform/docbridge/internal/types"
)

// Evaluator evaluates filter nodes against backend-encoded documents.
//
// Operator semantics mirror the backend filter builder for the operators they share.
//
//nolint:vet // for readability
type Evaluator struct {
	// Strict makes unknown operators fail to match.
	// By default they match, and a warning is logged.
	Strict bool

	L *slog.Logger
}

// defaultEvaluator is used by Match and Filter.
var defaultEvaluator = new(Evaluator)

// Match reports whether the backend-encoded document matches the node.
//
// Nil node matches every document.
func Match(n Node, doc types.Document) bool {
	return defaultEvaluator.Match(n, doc)
}

// Filter returns documents matching the node, preserving their order.
func Filter(n Node, docs []types.Document) []types.Document {
	return defaultEvaluator.Filter(n, docs)
}

// Filter returns documents matching the node, preserving their order.
func (e *Evaluator) Filter(n Node, docs []types.Document) []types.Document {
	if n == nil {
		return docs
	}

	res := make([]types.Document, 0, len(docs))

	for _, doc := range docs {
		if e.Match(n, doc) {
			res = append(res, doc)
		}
	}

	return res
}

// Match reports whether the backend-encoded document matches the node.
//
// Nil node matches every document.
func (e *Evaluator) Match(n Node, doc types.Document) bool {
	switch n := n.(type) {
	case nil:
		return true

	case *And:
		for _, c := range n.Nodes {
			if !e.Match(c, doc) {
				return false
			}
		}

		return true

	case *Or:
		for _, c := range n.Nodes {
			if e.Match(c, doc) {
				return true
			}
		}

		return false

	case *Not:
		return !e.Match(n.Node, doc)

	case *Comparison:
		return e.compare(n, doc)

	default:
		panic(fmt.Sprintf("unexpected node type %T", n))
	}
}

// compare evaluates a single comparison.
func (e *Evaluator) compare(c *Comparison, doc types.Document) bool {
	v, found := Lookup(doc, c.Field)

	switch c.Op {
	case OpEquals:
		return equalsAny(v, found, c.Value)

	case OpNotEquals:
		return !equalsAny(v, found, c.Value)

	case OpGreaterThan:
		return orderedAny(v, found, c.Value, func(r int) bool { return r > 0 })

	case OpGreaterThanEqual:
		return orderedAny(v, found, c.Value, func(r int) bool { return r >= 0 })

	case OpLessThan:
		return orderedAny(v, found, c.Value, func(r int) bool { return r < 0 })

	case OpLessThanEqual:
		return orderedAny(v, found, c.Value, func(r int) bool { return r <= 0 })

	case OpIn:
		return inList(v, found, c.Value)

	case OpNotIn:
		return !inList(v, found, c.Value)

	case OpExists:
		return (found && v != nil) == truthy(c.Value)

	case OpContains:
		return contains(v, found, c.Value)

	case OpLike:
		return like(v, found, c.Value)

	case OpNear:
		return near(v, found, c.Value)

	default:
		if e.L != nil {
			e.L.Warn(
				"Unknown filter operator",
				slog.String("field", c.Field), slog.String("operator", string(c.Op)), slog.Bool("strict", e.Strict),
			)
		}

		return !e.Strict
	}
}

// Lookup resolves an application field path in a backend-encoded document.
//
// The top-level segment is mapped to its backend key; nested segments traverse maps by key
// and lists by numeric index.
func Lookup(doc types.Document, field string) (any, bool) {
	var cur any = doc

	for _, seg := range transcode.MapPath(field) {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}

			cur = v

		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}

			cur = c[i]

		default:
			return nil, false
		}
	}

	return cur, true
}

// items returns list elements, or the value itself for non-lists.
//
// Backend JSON paths unwrap arrays, so comparisons apply to each element.
func items(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}

	return []any{v}
}

// equalsAny implements equals: null matches absent or null fields,
// other values match the field or any of its elements.
func equalsAny(v any, found bool, want any) bool {
	if want == nil {
		return !found || v == nil
	}

	if !found {
		return false
	}

	if _, ok := want.([]any); ok {
		return equal(v, want)
	}

	for _, e := range items(v) {
		if equal(e, want) {
			return true
		}
	}

	return false
}

// equal compares two values; numbers are compared by value regardless of their types.
func equal(a, b any) bool {
	if af, ok := transcode.ToFloat(a); ok {
		bf, ok := transcode.ToFloat(b)
		return ok && af == bf
	}

	switch a := a.(type) {
	case string:
		bs, ok := b.(string)
		return ok && a == bs
	case bool:
		bb, ok := b.(bool)
		return ok && a == bb
	case nil:
		return b == nil
	default:
		return reflect.DeepEqual(a, b)
	}
}

// compareValues orders numbers and strings; other combinations are not comparable.
func compareValues(a, b any) (int, bool) {
	if af, ok := transcode.ToFloat(a); ok {
		bf, ok := transcode.ToFloat(b)
		if !ok {
			return 0, false
		}

		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	as, ok := a.(string)
	if !ok {
		return 0, false
	}

	bs, ok := b.(string)
	if !ok {
		return 0, false
	}

	return strings.Compare(as, bs), true
}

func orderedAny(v any, found bool, want any, accept func(int) bool) bool {
	if !found || want == nil {
		return false
	}

	for _, e := range items(v) {
		if r, ok := compareValues(e, want); ok && accept(r) {
			return true
		}
	}

	return false
}

// inList implements in; an empty list never matches.
func inList(v any, found bool, want any) bool {
	for _, w := range toList(want) {
		if equalsAny(v, found, w) {
			return true
		}
	}

	return false
}

func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	case nil:
		return false
	default:
		f, ok := transcode.ToFloat(v)
		return !ok || f != 0
	}
}

// contains implements case-insensitive substring search for strings
// and element search for lists.
func contains(v any, found bool, want any) bool {
	if !found || v == nil || want == nil {
		return false
	}

	switch v := v.(type) {
	case string:
		s, ok := want.(string)
		return ok && strings.Contains(strings.ToLower(v), strings.ToLower(s))

	case []any:
		for _, e := range v {
			if equal(e, want) {
				return true
			}

			if es, ok := e.(string); ok {
				if s, ok := want.(string); ok && strings.EqualFold(es, s) {
					return true
				}
			}
		}

		return false

	default:
		return false
	}
}
