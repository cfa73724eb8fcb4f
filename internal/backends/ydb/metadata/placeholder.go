package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ydb-platform/ydb-go-sdk/v3/table"
	ydbTypes "github.com/ydb-platform/ydb-go-sdk/v3/table/types"
)

// Placeholder stores the number of the last generated query parameter.
type Placeholder int

// Next increases the identifier value for the next parameter in the YDB query.
func (p *Placeholder) Next() string {
	*p++
	return "$f" + strconv.Itoa(int(*p))
}

// Named returns a static named parameter with the given name (e.g., $f_data, $f_ids).
func (p *Placeholder) Named(name string) string {
	return "$f_" + name
}

// Params collects declared query parameters.
//
// YQL requires every parameter to be declared before use;
// Params keeps declarations and values in the same order.
type Params struct {
	p       Placeholder
	decls   []string
	options []table.ParameterOption
}

// Add declares the next numbered parameter and returns its name.
func (ps *Params) Add(typ ydbTypes.Type, v ydbTypes.Value) string {
	name := ps.p.Next()
	ps.add(name, typ, v)

	return name
}

// AddNamed declares a named parameter and returns its name.
func (ps *Params) AddNamed(name string, typ ydbTypes.Type, v ydbTypes.Value) string {
	name = ps.p.Named(name)
	ps.add(name, typ, v)

	return name
}

func (ps *Params) add(name string, typ ydbTypes.Type, v ydbTypes.Value) {
	ps.decls = append(ps.decls, fmt.Sprintf("DECLARE %s AS %s;", name, typ.Yql()))
	ps.options = append(ps.options, table.ValueParam(name, v))
}

// Declarations returns DECLARE statements, one per line.
func (ps *Params) Declarations() string {
	return strings.Join(ps.decls, "\n")
}

// Options returns parameter values.
func (ps *Params) Options() []table.ParameterOption {
	return ps.options
}

// QueryParameters returns parameter values for query execution.
func (ps *Params) QueryParameters() *table.QueryParameters {
	return table.NewQueryParameters(ps.options...)
}
