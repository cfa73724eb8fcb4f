package where

// Strategy tells how a plan is executed.
type Strategy string

// Plan strategies.
const (
	// StrategyDB evaluates the whole filter in the backend.
	StrategyDB Strategy = "db"

	// StrategyPost fetches candidates without a backend filter and evaluates everything in memory.
	StrategyPost Strategy = "post"

	// StrategyHybrid narrows candidates in the backend and refines them in memory.
	StrategyHybrid Strategy = "hybrid"
)

// Plan is a filter split into a pushable part and a post-filter part.
//
// Plan is plain data; see [MarshalPlan] and [EncodePlan] for wire encodings.
type Plan struct {
	Strategy Strategy
	DB       Node // nil means no backend filter
	Post     Node // nil means no post-filtering
}

// NewPlan returns a plan for the given parts with the derived strategy.
func NewPlan(db, post Node) *Plan {
	return &Plan{
		Strategy: strategyFor(db, post),
		DB:       db,
		Post:     post,
	}
}

func strategyFor(db, post Node) Strategy {
	switch {
	case post == nil:
		return StrategyDB
	case db == nil:
		return StrategyPost
	default:
		return StrategyHybrid
	}
}

// Split splits the node into the backend filter and the post-filter.
//
// And nodes are split child by child; that is sound because every child must hold.
// Or, Not and comparisons are never split: if they are not pushable as a whole,
// they are post-filtered as a whole.
func Split(n Node) *Plan {
	db, post := split(n)
	return NewPlan(db, post)
}

func split(n Node) (db, post Node) {
	if n == nil {
		return nil, nil
	}

	if IsPushable(n) {
		return n, nil
	}

	and, ok := n.(*And)
	if !ok {
		return nil, n
	}

	var dbNodes, postNodes []Node

	for _, child := range and.Nodes {
		d, p := split(child)

		if d != nil {
			dbNodes = append(dbNodes, d)
		}

		if p != nil {
			postNodes = append(postNodes, p)
		}
	}

	return conjunction(dbNodes), conjunction(postNodes)
}
