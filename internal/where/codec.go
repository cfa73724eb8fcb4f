package where

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

// Wire node types.
const (
	wireComparison = "comparison"
	wireAnd        = "and"
	wireOr         = "or"
	wireNot        = "not"
)

// wireNode is the plain-data encoding of a Node.
type wireNode struct {
	Type     string      `json:"type" msgpack:"type"`
	Field    string      `json:"field,omitempty" msgpack:"field,omitempty"`
	Operator Operator    `json:"operator,omitempty" msgpack:"operator,omitempty"`
	Value    any         `json:"value,omitempty" msgpack:"value"` // false, 0 and [] must survive
	Nodes    []*wireNode `json:"nodes,omitempty" msgpack:"nodes,omitempty"`
	Node     *wireNode   `json:"node,omitempty" msgpack:"node,omitempty"`
}

// wirePlan is the plain-data encoding of a Plan.
type wirePlan struct {
	Strategy   Strategy  `json:"strategy" msgpack:"strategy"`
	DBFilter   *wireNode `json:"dbFilter" msgpack:"dbFilter"`
	PostFilter *wireNode `json:"postFilter" msgpack:"postFilter"`
}

// MarshalPlan returns the JSON wire encoding of the plan.
func MarshalPlan(p *Plan) ([]byte, error) {
	b, err := json.Marshal(toWirePlan(p))
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return b, nil
}

// UnmarshalPlan decodes the JSON wire encoding of a plan.
//
// Integral numbers decode as int64, others as float64.
func UnmarshalPlan(b []byte) (*Plan, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var wp wirePlan
	if err := dec.Decode(&wp); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return fromWirePlan(&wp)
}

// EncodePlan returns the msgpack wire encoding of the plan.
func EncodePlan(p *Plan) ([]byte, error) {
	b, err := msgpack.Marshal(toWirePlan(p))
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return b, nil
}

// DecodePlan decodes the msgpack wire encoding of a plan.
func DecodePlan(b []byte) (*Plan, error) {
	var wp wirePlan
	if err := msgpack.Unmarshal(b, &wp); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return fromWirePlan(&wp)
}

// MarshalNode returns the JSON wire encoding of a single node.
func MarshalNode(n Node) ([]byte, error) {
	b, err := json.Marshal(toWireNode(n))
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return b, nil
}

func toWirePlan(p *Plan) *wirePlan {
	if p == nil {
		return &wirePlan{Strategy: StrategyDB}
	}

	return &wirePlan{
		Strategy:   p.Strategy,
		DBFilter:   toWireNode(p.DB),
		PostFilter: toWireNode(p.Post),
	}
}

func fromWirePlan(wp *wirePlan) (*Plan, error) {
	db, err := fromWireNode(wp.DBFilter)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	post, err := fromWireNode(wp.PostFilter)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if db != nil && !IsPushable(db) {
		return nil, lazyerrors.Errorf("backend filter is not pushable: %s", db)
	}

	p := NewPlan(db, post)

	if wp.Strategy != p.Strategy {
		return nil, lazyerrors.Errorf("strategy %q does not match filters (expected %q)", wp.Strategy, p.Strategy)
	}

	return p, nil
}

func toWireNode(n Node) *wireNode {
	switch n := n.(type) {
	case nil:
		return nil

	case *Comparison:
		return &wireNode{Type: wireComparison, Field: n.Field, Operator: n.Op, Value: n.Value}

	case *And:
		return &wireNode{Type: wireAnd, Nodes: toWireNodes(n.Nodes)}

	case *Or:
		return &wireNode{Type: wireOr, Nodes: toWireNodes(n.Nodes)}

	case *Not:
		return &wireNode{Type: wireNot, Node: toWireNode(n.Node)}

	default:
		panic(fmt.Sprintf("unexpected node type %T", n))
	}
}

func toWireNodes(nodes []Node) []*wireNode {
	res := make([]*wireNode, len(nodes))
	for i, n := range nodes {
		res[i] = toWireNode(n)
	}

	return res
}

func fromWireNode(wn *wireNode) (Node, error) {
	if wn == nil {
		return nil, nil
	}

	switch wn.Type {
	case wireComparison:
		if wn.Field == "" || wn.Operator == "" {
			return nil, lazyerrors.New("comparison without field or operator")
		}

		return &Comparison{Field: wn.Field, Op: wn.Operator, Value: fromWireValue(wn.Value)}, nil

	case wireAnd, wireOr:
		if len(wn.Nodes) == 0 {
			return nil, lazyerrors.Errorf("%s node without children", wn.Type)
		}

		nodes := make([]Node, len(wn.Nodes))

		for i, c := range wn.Nodes {
			n, err := fromWireNode(c)
			if err != nil {
				return nil, lazyerrors.Error(err)
			}

			if n == nil {
				return nil, lazyerrors.Errorf("%s node with null child", wn.Type)
			}

			nodes[i] = n
		}

		if wn.Type == wireAnd {
			return &And{Nodes: nodes}, nil
		}

		return &Or{Nodes: nodes}, nil

	case wireNot:
		n, err := fromWireNode(wn.Node)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		if n == nil {
			return nil, lazyerrors.New("not node without child")
		}

		return &Not{Node: n}, nil

	default:
		return nil, lazyerrors.Errorf("unknown node type %q", wn.Type)
	}
}

// fromWireValue converts decoded values to the types produced by the parser:
// integers become int64, floats become float64.
func fromWireValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}

		f, _ := v.Float64()

		return f

	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}

		return float64(v)
	case float32:
		return float64(v)

	case []any:
		res := make([]any, len(v))
		for i, e := range v {
			res[i] = fromWireValue(e)
		}

		return res

	case map[string]any:
		res := make(map[string]any, len(v))
		for k, e := range v {
			res[k] = fromWireValue(e)
		}

		return res

	default:
		return v
	}
}
