// Package where compiles application filters into plans that split the work
// between the backend and in-memory post-filtering.
//
// A filter is parsed into a tree of [Node] values, classified node by node with [IsPushable],
// and split into a [Plan] with [Split]. The part of the plan that can't be pushed down is
// evaluated against fetched documents with [Match].
package where

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is a comparison operator of the filter grammar.
type Operator string

// Filter grammar operators.
const (
	OpEquals           Operator = "equals"
	OpNotEquals        Operator = "not_equals"
	OpGreaterThan      Operator = "greater_than"
	OpGreaterThanEqual Operator = "greater_than_equal"
	OpLessThan         Operator = "less_than"
	OpLessThanEqual    Operator = "less_than_equal"
	OpIn               Operator = "in"
	OpNotIn            Operator = "not_in"
	OpExists           Operator = "exists"
	OpContains         Operator = "contains"
	OpLike             Operator = "like"
	OpNear             Operator = "near"
)

// Node is a filter tree node: [*Comparison], [*And], [*Or] or [*Not].
//
// Nodes must not be modified once built; they may be shared between plans.
type Node interface {
	fmt.Stringer

	node() // seal
}

// Comparison compares the value at a field path with a constant.
type Comparison struct {
	Field string
	Op    Operator
	Value any
}

// And matches if all nodes match.
type And struct {
	Nodes []Node
}

// Or matches if any node matches.
type Or struct {
	Nodes []Node
}

// Not inverts the node.
type Not struct {
	Node Node
}

func (*Comparison) node() {}
func (*And) node()        {}
func (*Or) node()         {}
func (*Not) node()        {}

// CatchAll returns the comparison that matches every stored document.
func CatchAll() *Comparison {
	return &Comparison{Field: "id", Op: OpExists, Value: true}
}

// IsCatchAll returns true if n is the catch-all comparison.
func IsCatchAll(n Node) bool {
	c, ok := n.(*Comparison)
	return ok && c.Field == "id" && c.Op == OpExists && c.Value == true
}

// conjunction combines nodes with AND.
//
// It returns nil for no nodes and the node itself for a single node.
// Nested And nodes are flattened.
func conjunction(nodes []Node) Node {
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	}

	res := make([]Node, 0, len(nodes))

	for _, n := range nodes {
		if and, ok := n.(*And); ok {
			res = append(res, and.Nodes...)
			continue
		}

		res = append(res, n)
	}

	return &And{Nodes: res}
}

// disjunction combines nodes with OR, same as conjunction.
func disjunction(nodes []Node) Node {
	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	}

	res := make([]Node, 0, len(nodes))

	for _, n := range nodes {
		if or, ok := n.(*Or); ok {
			res = append(res, or.Nodes...)
			continue
		}

		res = append(res, n)
	}

	return &Or{Nodes: res}
}

// String implements fmt.Stringer.
func (c *Comparison) String() string {
	return c.Field + " " + string(c.Op) + " " + formatValue(c.Value)
}

// String implements fmt.Stringer.
func (a *And) String() string {
	return joinNodes(a.Nodes, " AND ")
}

// String implements fmt.Stringer.
func (o *Or) String() string {
	return joinNodes(o.Nodes, " OR ")
}

// String implements fmt.Stringer.
func (n *Not) String() string {
	return "NOT (" + n.Node.String() + ")"
}

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}

	return "(" + strings.Join(parts, sep) + ")"
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatValue(e)
		}

		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

// check interfaces
var (
	_ Node = (*Comparison)(nil)
	_ Node = (*And)(nil)
	_ Node = (*Or)(nil)
	_ Node = (*Not)(nil)
)
