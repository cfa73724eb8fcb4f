package ydb

// YQL keywords used by the query builder.
const (
	SelectWord  = "SELECT"
	FromWord    = "FROM"
	WhereWord   = "WHERE"
	OrderByWord = "ORDER BY"
	LimitWord   = "LIMIT"
	OffsetWord  = "OFFSET"
	AndWord     = "AND"
	OrWord      = "OR"
	NotWord     = "NOT"
	DescWord    = "DESC"
	TrueWord    = "TRUE"
	FalseWord   = "FALSE"
)

const (
	// jsonPathRoot is the root of JSON path expressions.
	jsonPathRoot = "$"

	// defaultRowsLimit is the maximum number of rows in a single result set of the table service.
	defaultRowsLimit = 1000
)

// CompareOp is a JSON path comparison operator.
type CompareOp string

// Comparison operators.
const (
	CompareOpEq  CompareOp = "=="
	CompareOpNe  CompareOp = "!="
	CompareOpGt  CompareOp = ">"
	CompareOpGte CompareOp = ">="
	CompareOpLt  CompareOp = "<"
	CompareOpLte CompareOp = "<="
)
