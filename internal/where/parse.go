package where

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/ydb-platform/docbridge/internal/types"
)

// Logical combinator keys.
const (
	keyAnd = "and"
	keyOr  = "or"
	keyNot = "not"
)

// ParseError is returned for filters that do not follow the grammar.
type ParseError struct {
	Path string
	Msg  string
}

// Error implements error interface.
func (e *ParseError) Error() string {
	if e.Path == "" {
		return "where: " + e.Msg
	}

	return fmt.Sprintf("where: %s: %s", e.Path, e.Msg)
}

// Parse parses an application filter into a single node.
//
// Field keys map to operator records; a non-record value is shorthand for equals.
// Sibling conditions are combined with AND. A filter without conditions
// parses to [CatchAll].
func Parse(filter map[string]any) (Node, error) {
	nodes, err := parseLevel(filter, "")
	if err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return CatchAll(), nil
	}

	return conjunction(nodes), nil
}

// ParsePlan parses the filter and splits it into a plan.
//
// An empty filter produces a plan without filters at all.
func ParsePlan(filter map[string]any) (*Plan, error) {
	if len(filter) == 0 {
		return &Plan{Strategy: StrategyDB}, nil
	}

	n, err := Parse(filter)
	if err != nil {
		return nil, err
	}

	return Split(n), nil
}

// parseLevel parses all keys of a single filter object.
//
// Keys are processed in sorted order so the produced tree is deterministic.
func parseLevel(filter map[string]any, path string) ([]Node, error) {
	keys := maps.Keys(filter)
	sort.Strings(keys)

	var nodes []Node

	for _, k := range keys {
		v := filter[k]

		switch k {
		case keyAnd, keyOr:
			list, ok := toFilterList(v)
			if !ok {
				return nil, &ParseError{Path: joinPath(path, k), Msg: fmt.Sprintf("expected a list of filters, got %T", v)}
			}

			children := make([]Node, 0, len(list))

			for i, sub := range list {
				subPath := fmt.Sprintf("%s[%d]", joinPath(path, k), i)

				subFilter, ok := toFilter(sub)
				if !ok {
					return nil, &ParseError{Path: subPath, Msg: fmt.Sprintf("expected a filter, got %T", sub)}
				}

				subNodes, err := parseLevel(subFilter, subPath)
				if err != nil {
					return nil, err
				}

				switch {
				case len(subNodes) > 0:
					children = append(children, conjunction(subNodes))
				case k == keyOr:
					// an empty alternative matches everything
					children = append(children, CatchAll())
				}
			}

			if k == keyAnd {
				if n := conjunction(children); n != nil {
					nodes = append(nodes, n)
				}

				continue
			}

			if n := disjunction(children); n != nil {
				nodes = append(nodes, n)
			}

		case keyNot:
			subFilter, ok := toFilter(v)
			if !ok {
				return nil, &ParseError{Path: joinPath(path, k), Msg: fmt.Sprintf("expected a filter, got %T", v)}
			}

			subNodes, err := parseLevel(subFilter, joinPath(path, k))
			if err != nil {
				return nil, err
			}

			inner := conjunction(subNodes)
			if inner == nil {
				inner = CatchAll()
			}

			nodes = append(nodes, &Not{Node: inner})

		default:
			nodes = append(nodes, parseField(k, v)...)
		}
	}

	return nodes, nil
}

// parseField emits one comparison per operator of the field's record.
func parseField(field string, v any) []Node {
	record, ok := toFilter(v)
	if !ok {
		return []Node{&Comparison{Field: field, Op: OpEquals, Value: normalizeValue(OpEquals, v)}}
	}

	ops := maps.Keys(record)
	sort.Strings(ops)

	nodes := make([]Node, 0, len(ops))

	for _, op := range ops {
		o := Operator(op)
		nodes = append(nodes, &Comparison{Field: field, Op: o, Value: normalizeValue(o, record[op])})
	}

	return nodes
}

func toFilter(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case map[string]any:
		return v, true
	default:
		return nil, false
	}
}

func toFilterList(v any) ([]any, bool) {
	switch v := v.(type) {
	case []any:
		return v, true
	case []types.Document:
		res := make([]any, len(v))
		for i, f := range v {
			res[i] = f
		}

		return res, true
	default:
		return nil, false
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}

	return path + "." + key
}
