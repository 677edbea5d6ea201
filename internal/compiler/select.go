package compiler

import (
	"strings"

	"github.com/queryforge/queryforge/internal/catalog"
	"github.com/queryforge/queryforge/internal/plan"
	"github.com/queryforge/queryforge/internal/queryast"
)

// projection resolves a query's Select/Include into the scalar fields
// to project and the relations to embed, enforcing their mutual
// exclusion.
type projection struct {
	scalars   []catalog.Field
	relations map[string]*queryast.Projection // insertion order not significant; orderedRelationNames sorts by catalog order
}

func resolveProjection(c *ctx, m *catalog.Model, q *queryast.Query) (*projection, error) {
	if q.Select != nil && q.Include != nil {
		return nil, invalidArgument(c.pathString(), "select and include are mutually exclusive")
	}

	p := &projection{relations: map[string]*queryast.Projection{}}

	if q.Select != nil {
		for name, proj := range q.Select {
			if _, ok := m.Field(name); ok {
				if proj.Nested != nil {
					return nil, invalidArgument(c.pathString(), "select.%s: %q is a scalar field, not a relation", name, name)
				}
				continue
			}
			if _, ok := m.Relation(name); ok {
				p.relations[name] = proj
				continue
			}
			return nil, schemaMismatch(c.pathString(), "model %q has no field or relation %q", m.Name, name)
		}
		// Selected scalars follow catalog declaration order, not map
		// iteration order, so the column list is deterministic.
		for _, f := range m.Fields {
			if _, ok := q.Select[f.Name]; ok {
				p.scalars = append(p.scalars, f)
			}
		}
		return p, nil
	}

	// No select: project every scalar field.
	p.scalars = append(p.scalars, m.Fields...)

	if q.Include != nil {
		for name, proj := range q.Include {
			if _, ok := m.Field(name); ok {
				return nil, invalidArgument(c.pathString(), "include.%s: %q is a scalar field, not a relation", name, name)
			}
			if _, ok := m.Relation(name); !ok {
				return nil, schemaMismatch(c.pathString(), "model %q has no relation %q", m.Name, name)
			}
			p.relations[name] = proj
		}
	}

	return p, nil
}

// compileFind compiles findMany/findFirst/findUnique into a single
// SELECT statement: scalar columns plus one correlated JSON subquery
// expression per embedded relation.
func (c *ctx) compileFind(m *catalog.Model, q *queryast.Query) (string, *plan.Plan, error) {
	alias := rootAlias(m)
	proj, err := resolveProjection(c, m, q)
	if err != nil {
		return "", nil, err
	}

	p := &plan.Plan{Model: m.Name}
	var selectExprs []string

	for _, f := range proj.scalars {
		selectExprs = append(selectExprs, c.col(m, alias, &f)+" AS "+c.dia.QuoteIdentifier(f.Column))
		p.Columns = append(p.Columns, plan.ColumnPlan{Column: f.Column, Field: f.Name, FieldType: string(f.Type)})
	}

	for _, relName := range orderedRelationNames(m, proj.relations) {
		relProj := proj.relations[relName]
		expr, colAlias, relPlan, err := c.buildRelation(m, alias, relName, relProj)
		if err != nil {
			return "", nil, err
		}
		selectExprs = append(selectExprs, expr+" AS "+c.dia.QuoteIdentifier(colAlias))
		p.Relations = append(p.Relations, *relPlan)
	}

	if err := c.validateOrderBy(m, q.OrderBy); err != nil {
		return "", nil, err
	}
	if err := validatePagination(c.pathString(), q.Take, q.Skip); err != nil {
		return "", nil, err
	}
	distinctSQL, err := c.buildDistinct(m, alias, q)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if distinctSQL != nil && distinctSQL.inline {
		b.WriteString("DISTINCT ON (")
		for i, name := range q.Distinct {
			if i > 0 {
				b.WriteString(", ")
			}
			f, _ := m.Field(name)
			b.WriteString(c.col(m, alias, f))
		}
		b.WriteString(") ")
	}
	b.WriteString(strings.Join(selectExprs, ", "))
	b.WriteString(" FROM ")
	b.WriteString(c.dia.QuoteTable(m.Schema, m.Table))
	b.WriteString(" AS ")
	b.WriteString(c.dia.QuoteIdentifier(alias))

	where, err := c.buildWhereWithCursor(m, alias, q)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	orderSQL := c.buildOrderBy(m, alias, q.OrderBy)
	b.WriteString(orderSQL)

	limit := resolveLimit(q)
	if limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(c.params.Push(*limit))
	}
	if offset := resolveOffset(q); offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(c.params.Push(offset))
	}

	sqlText := b.String()
	if distinctSQL != nil && !distinctSQL.inline {
		cols := make([]string, len(q.Distinct))
		for i, name := range q.Distinct {
			f, _ := m.Field(name)
			cols[i] = f.Column
		}
		sqlText = distinctSQL.wrap(sqlText, alias, cols, c)
	}

	switch q.Method {
	case queryast.FindMany:
		p.Unwrap = plan.UnwrapMany
	case queryast.FindFirst:
		p.Unwrap = plan.UnwrapFirstOrNull
	case queryast.FindUnique:
		p.Unwrap = plan.UnwrapUniqueOrNull
	}

	return sqlText, p, nil
}

func resolveLimit(q *queryast.Query) *int {
	if q.Method == queryast.FindFirst || q.Method == queryast.FindUnique {
		one := 1
		return &one
	}
	return q.Take
}

// resolveOffset combines the caller's Skip with the cursor's implicit
// +1, without mutating the query value shared with the caller.
func resolveOffset(q *queryast.Query) int {
	offset := 0
	if q.Skip != nil {
		offset = *q.Skip
	}
	return offset + cursorSkipBump(q)
}

// orderedRelationNames returns the relations to embed in the model's
// own catalog declaration order, so compiled SQL (and therefore
// parameter positions) is deterministic across calls with the same
// query description.
func orderedRelationNames(m *catalog.Model, selected map[string]*queryast.Projection) []string {
	var out []string
	for _, r := range m.Relations {
		if _, ok := selected[r.Name]; ok {
			out = append(out, r.Name)
		}
	}
	return out
}
