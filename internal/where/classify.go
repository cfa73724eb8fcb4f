package where

import (
	"github.com/ydb-platform/docbridge/internal/transcode"
)

// deferredOperators can't be expressed by the backend and are always post-filtered.
var deferredOperators = map[Operator]struct{}{
	OpContains: {},
	OpLike:     {},
	OpNear:     {},
}

// pushdownOperators are compiled by the backend filter builder.
var pushdownOperators = map[Operator]struct{}{
	OpEquals:           {},
	OpNotEquals:        {},
	OpGreaterThan:      {},
	OpGreaterThanEqual: {},
	OpLessThan:         {},
	OpLessThanEqual:    {},
	OpIn:               {},
	OpNotIn:            {},
	OpExists:           {},
}

// IsDeferred returns true for operators that are never pushed down.
func IsDeferred(op Operator) bool {
	_, ok := deferredOperators[op]
	return ok
}

// IsSupportedForPushdown returns true for operators the backend filter builder compiles.
func IsSupportedForPushdown(op Operator) bool {
	_, ok := pushdownOperators[op]
	return ok
}

// IsPushable returns true if the backend can evaluate the whole node natively.
//
// A comparison is pushable if its field path is not nested, its operator is supported
// for pushdown, and its value can be passed as a query parameter.
// And, Or and Not nodes are pushable if all their children are.
func IsPushable(n Node) bool {
	switch n := n.(type) {
	case *Comparison:
		return isPushableComparison(n)

	case *And:
		return allPushable(n.Nodes)

	case *Or:
		return allPushable(n.Nodes)

	case *Not:
		return IsPushable(n.Node)

	default:
		return false
	}
}

func allPushable(nodes []Node) bool {
	for _, n := range nodes {
		if !IsPushable(n) {
			return false
		}
	}

	return true
}

func isPushableComparison(c *Comparison) bool {
	if transcode.IsNestedPath(c.Field) || IsDeferred(c.Op) || !IsSupportedForPushdown(c.Op) {
		return false
	}

	switch c.Op {
	case OpIn, OpNotIn:
		list, ok := c.Value.([]any)
		if !ok {
			return false
		}

		for _, e := range list {
			if e == nil || !isScalar(e) {
				return false
			}
		}

		return true

	case OpExists:
		_, ok := c.Value.(bool)
		return ok

	case OpGreaterThan, OpGreaterThanEqual, OpLessThan, OpLessThanEqual:
		return c.Value != nil && isScalar(c.Value)

	default:
		return isScalar(c.Value)
	}
}
