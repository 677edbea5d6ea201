// Package dialect isolates the SQL surface differences between
// PostgreSQL and SQLite: identifier quoting, parameter placeholders,
// case-insensitive text matching, JSON aggregation, and boolean
// literals. Compiler code never special-cases a dialect by name; it
// always goes through this interface.
package dialect

import (
	"fmt"
	"strings"
)

// Name identifies a supported dialect.
type Name string

const (
	PostgreSQL Name = "postgres"
	SQLiteName Name = "sqlite"
)

// Dialect renders the dialect-specific fragments of compiled SQL.
type Dialect interface {
	Name() Name

	// QuoteIdentifier double-quotes a bare identifier, escaping any
	// embedded quote.
	QuoteIdentifier(name string) string

	// QuoteTable renders a (possibly schema-qualified) table reference.
	// schema is ignored for dialects with no schema concept (SQLite).
	QuoteTable(schema, table string) string

	// Placeholder renders the parameter marker for the given 1-based
	// position in the statement's parameter vector.
	Placeholder(position int) string

	// BoolLiteral renders a boolean constant.
	BoolLiteral(v bool) string

	// SupportsBatch reports whether the CTE batch combinator is usable.
	SupportsBatch() bool

	// SupportsDistinctOn reports whether DISTINCT ON is available
	// (PostgreSQL) or must be emulated with a window function (SQLite).
	SupportsDistinctOn() bool

	// WriteTextMatch appends a case-sensitive or case-insensitive LIKE
	// comparison. columnSQL and placeholderSQL are already-rendered
	// fragments (a quoted column reference and a pushed placeholder).
	WriteTextMatch(b *strings.Builder, columnSQL, placeholderSQL string, insensitive bool)

	// JSONArrayAgg wraps rowExprSQL (a JSON object expression over the
	// correlated subquery alias) into a JSON array aggregate, applying
	// orderBySQL (already rendered, may be empty) inside the aggregate
	// where the dialect supports it.
	JSONArrayAgg(rowExprSQL, orderBySQL string) string

	// JSONBuildObject builds a JSON object expression from ordered
	// key/valueSQL pairs (valueSQL already-rendered column refs or
	// nested subqueries).
	JSONBuildObject(pairs []JSONPair) string
}

// JSONPair is one key/value entry passed to JSONBuildObject.
type JSONPair struct {
	Key      string
	ValueSQL string
}

// ParamVector is the append-only parameter arena a compilation context
// owns. Placeholders and pushes share its counter so positional
// agreement with the parameter vector is guaranteed by construction.
type ParamVector struct {
	dialect Dialect
	args    []interface{}
}

// NewParamVector creates an empty parameter vector for the dialect.
func NewParamVector(d Dialect) *ParamVector {
	return &ParamVector{dialect: d}
}

// Push appends a value and returns the placeholder string for it.
func (p *ParamVector) Push(v interface{}) string {
	p.args = append(p.args, v)
	return p.dialect.Placeholder(len(p.args))
}

// Args returns the accumulated parameter vector in emission order.
func (p *ParamVector) Args() []interface{} {
	return p.args
}

// Len reports how many parameters have been pushed so far.
func (p *ParamVector) Len() int {
	return len(p.args)
}

// Rebase appends other's values to p, returning the offset that was in
// effect before the append (other's placeholders must be rewritten by
// that offset by the caller — used by the batch combinator to fuse
// independently compiled statements into one parameter vector).
func (p *ParamVector) Rebase(other []interface{}) int {
	offset := len(p.args)
	p.args = append(p.args, other...)
	return offset
}

func quoteWith(q byte, name string) string {
	esc := strings.ReplaceAll(name, string(q), string(q)+string(q))
	return fmt.Sprintf("%c%s%c", q, esc, q)
}
