package compiler

import (
	"strings"

	"github.com/queryforge/queryforge/internal/catalog"
	"github.com/queryforge/queryforge/internal/queryast"
)

// buildOrderBy renders an " ORDER BY ..." clause, or "" if terms is
// empty. Callers run validateOrderBy first, so unknown fields are
// reported as SchemaMismatch before this is reached.
func (c *ctx) buildOrderBy(m *catalog.Model, alias string, terms []queryast.OrderTerm) string {
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		f, ok := m.Field(t.Field)
		if !ok {
			// Caller paths (compileFind, compileGroupBy, buildRelation)
			// run validateOrderBy before this, so an unknown field has
			// already failed there; this branch is not reached for them.
			continue
		}
		dir := "ASC"
		if t.Direction == queryast.Desc {
			dir = "DESC"
		}
		parts = append(parts, c.col(m, alias, f)+" "+dir)
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// validateOrderBy checks every ordered field exists on m, returning a
// SchemaMismatch otherwise. Called before buildOrderBy so bad input
// fails loudly instead of being silently dropped.
func (c *ctx) validateOrderBy(m *catalog.Model, terms []queryast.OrderTerm) error {
	for _, t := range terms {
		if _, ok := m.Field(t.Field); !ok {
			return schemaMismatch(c.pathString(), "model %q has no field %q in orderBy", m.Name, t.Field)
		}
	}
	return nil
}

// distinctPlan captures how a DISTINCT clause was rendered so the
// caller can wrap the already-built SELECT statement: either inline via
// DISTINCT ON (PostgreSQL), or as an outer filter over a window
// function (SQLite, and any dialect without DISTINCT ON).
type distinctPlan struct {
	inline bool
}

// wrap applies the window-function DISTINCT emulation: number rows
// within each distinct-key partition and keep only the first of each
// group. columns are already-resolved column names (not field names).
// The partition relies on the query's own ORDER BY, already embedded in
// innerSQL, for its "first" tie-break. Only called when !d.inline.
func (d *distinctPlan) wrap(innerSQL, alias string, columns []string, c *ctx) string {
	partitionCols := make([]string, len(columns))
	for i, name := range columns {
		partitionCols[i] = c.dia.QuoteIdentifier(name)
	}
	sub := "SELECT sub.*, ROW_NUMBER() OVER (PARTITION BY " +
		strings.Join(partitionCols, ", ") +
		") AS __rn FROM (" + innerSQL + ") AS sub"
	return "SELECT * FROM (" + sub + ") AS __distinct WHERE __rn = 1"
}

// buildDistinct validates the query's Distinct field list and decides
// how DISTINCT should be rendered for the active dialect. It does not
// itself modify the SELECT statement; compileFind calls distinctPlan.wrap
// once the full inner SQL is assembled.
func (c *ctx) buildDistinct(m *catalog.Model, alias string, q *queryast.Query) (*distinctPlan, error) {
	if len(q.Distinct) == 0 {
		return nil, nil
	}
	for _, name := range q.Distinct {
		if _, ok := m.Field(name); !ok {
			return nil, schemaMismatch(c.pathString(), "model %q has no field %q in distinct", m.Name, name)
		}
	}
	if c.dia.SupportsDistinctOn() {
		return &distinctPlan{inline: true}, nil
	}
	return &distinctPlan{inline: false}, nil
}
