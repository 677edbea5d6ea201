package compiler

import (
	"strconv"
	"strings"

	"github.com/queryforge/queryforge/internal/catalog"
	"github.com/queryforge/queryforge/internal/plan"
	"github.com/queryforge/queryforge/internal/queryast"
)

// compileCount compiles a count() query into a single-row COUNT(*).
func (c *ctx) compileCount(m *catalog.Model, q *queryast.Query) (string, *plan.Plan, error) {
	alias := rootAlias(m)
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) AS count FROM ")
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

	p := &plan.Plan{
		Model:      m.Name,
		Unwrap:     plan.UnwrapScalarCount,
		Aggregates: []plan.AggregateOutput{{Column: "count", OutputKey: "count", FieldType: string(catalog.BigInt)}},
	}
	return b.String(), p, nil
}

// aggregateExprSQL renders one aggregate spec as a SQL function call
// over the model's alias, validating the referenced field exists and
// (for sum/avg/min/max) is scalar.
func (c *ctx) aggregateExprSQL(m *catalog.Model, alias string, a queryast.AggregateSpec) (string, catalog.FieldType, error) {
	if a.Func == queryast.FuncCount && a.All {
		return "COUNT(*)", catalog.BigInt, nil
	}
	f, ok := m.Field(a.Field)
	if !ok {
		return "", "", schemaMismatch(c.pathString(), "model %q has no field %q", m.Name, a.Field)
	}
	colSQL := c.col(m, alias, f)
	switch a.Func {
	case queryast.FuncCount:
		return "COUNT(" + colSQL + ")", catalog.BigInt, nil
	case queryast.FuncSum:
		return "SUM(" + colSQL + ")", f.Type, nil
	case queryast.FuncAvg:
		return "AVG(" + colSQL + ")", catalog.Decimal, nil
	case queryast.FuncMin:
		return "MIN(" + colSQL + ")", f.Type, nil
	case queryast.FuncMax:
		return "MAX(" + colSQL + ")", f.Type, nil
	default:
		return "", "", invalidArgument(c.pathString(), "unknown aggregate function %q", a.Func)
	}
}

// compileAggregate compiles an aggregate() query into a single row of
// named aggregate outputs.
func (c *ctx) compileAggregate(m *catalog.Model, q *queryast.Query) (string, *plan.Plan, error) {
	if len(q.Aggregations) == 0 {
		return "", nil, invalidArgument(c.pathString(), "aggregate requires at least one aggregation")
	}
	alias := rootAlias(m)

	var selectExprs []string
	var outputs []plan.AggregateOutput
	for i, a := range q.Aggregations {
		exprSQL, fieldType, err := c.aggregateExprSQL(m, alias, a)
		if err != nil {
			return "", nil, err
		}
		colAlias := aggregateColumnAlias(i)
		selectExprs = append(selectExprs, exprSQL+" AS "+c.dia.QuoteIdentifier(colAlias))
		outputs = append(outputs, plan.AggregateOutput{Column: colAlias, OutputKey: a.OutputKey(), FieldType: string(fieldType)})
	}

	var b strings.Builder
	b.WriteString("SELECT ")
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

	p := &plan.Plan{Model: m.Name, Unwrap: plan.UnwrapSingleObject, Aggregates: outputs}
	return b.String(), p, nil
}

// compileGroupBy compiles a groupBy() query into one row per distinct
// combination of the By fields, plus any requested aggregations, with
// an optional HAVING filter over those aggregate outputs.
func (c *ctx) compileGroupBy(m *catalog.Model, q *queryast.Query) (string, *plan.Plan, error) {
	if len(q.By) == 0 {
		return "", nil, invalidArgument(c.pathString(), "groupBy requires at least one field in by")
	}
	alias := rootAlias(m)

	var groupExprs []string
	var selectExprs []string
	for _, name := range q.By {
		f, ok := m.Field(name)
		if !ok {
			return "", nil, schemaMismatch(c.pathString(), "model %q has no field %q in by", m.Name, name)
		}
		colSQL := c.col(m, alias, f)
		groupExprs = append(groupExprs, colSQL)
		selectExprs = append(selectExprs, colSQL+" AS "+c.dia.QuoteIdentifier(f.Name))
	}

	var outputs []plan.AggregateOutput
	for i, a := range q.Aggregations {
		exprSQL, fieldType, err := c.aggregateExprSQL(m, alias, a)
		if err != nil {
			return "", nil, err
		}
		colAlias := aggregateColumnAlias(i)
		selectExprs = append(selectExprs, exprSQL+" AS "+c.dia.QuoteIdentifier(colAlias))
		outputs = append(outputs, plan.AggregateOutput{Column: colAlias, OutputKey: a.OutputKey(), FieldType: string(fieldType)})
	}

	var b strings.Builder
	b.WriteString("SELECT ")
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

	b.WriteString(" GROUP BY ")
	b.WriteString(strings.Join(groupExprs, ", "))

	if q.Having != nil {
		havingSQL, err := c.buildHaving(m, alias, q.Having)
		if err != nil {
			return "", nil, err
		}
		if havingSQL != "" {
			b.WriteString(" HAVING ")
			b.WriteString(havingSQL)
		}
	}

	if err := validatePagination(c.pathString(), q.Take, q.Skip); err != nil {
		return "", nil, err
	}

	if err := c.validateOrderBy(m, q.OrderBy); err != nil {
		return "", nil, err
	}
	orderSQL := c.buildOrderBy(m, alias, q.OrderBy)
	b.WriteString(orderSQL)

	if q.Take != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(c.params.Push(*q.Take))
	}
	if offset := resolveOffset(q); offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(c.params.Push(offset))
	}

	p := &plan.Plan{Model: m.Name, Unwrap: plan.UnwrapGroups, GroupKeys: q.By, Aggregates: outputs}
	return b.String(), p, nil
}

func aggregateColumnAlias(i int) string {
	return "agg_" + strconv.Itoa(i)
}

// buildHaving compiles a Having tree. Leaves re-render the aggregate
// expression rather than referencing the SELECT alias, since HAVING is
// evaluated before SELECT-list aliases exist in standard SQL scoping.
func (c *ctx) buildHaving(m *catalog.Model, alias string, h *queryast.Having) (string, error) {
	if h == nil {
		return "", nil
	}
	switch {
	case len(h.And) > 0:
		return c.buildHavingConjunction(m, alias, h.And, "AND")
	case len(h.Or) > 0:
		return c.buildHavingConjunction(m, alias, h.Or, "OR")
	case h.Not != nil:
		inner, err := c.buildHaving(m, alias, h.Not)
		if err != nil {
			return "", err
		}
		if inner == "" {
			return "", nil
		}
		return "NOT (" + inner + ")", nil
	case h.Leaf != nil:
		return c.buildHavingLeaf(m, alias, h.Leaf)
	default:
		return "", nil
	}
}

func (c *ctx) buildHavingConjunction(m *catalog.Model, alias string, children []*queryast.Having, op string) (string, error) {
	var parts []string
	for _, child := range children {
		sql, err := c.buildHaving(m, alias, child)
		if err != nil {
			return "", err
		}
		if sql != "" {
			parts = append(parts, "("+sql+")")
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, " "+op+" "), nil
}

func (c *ctx) buildHavingLeaf(m *catalog.Model, alias string, leaf *queryast.HavingLeaf) (string, error) {
	exprSQL, _, err := c.aggregateExprSQL(m, alias, leaf.Aggregate)
	if err != nil {
		return "", err
	}
	switch leaf.Op {
	case queryast.OpEquals:
		return exprSQL + " = " + c.params.Push(leaf.Value), nil
	case queryast.OpNot:
		return exprSQL + " <> " + c.params.Push(leaf.Value), nil
	case queryast.OpLT:
		return exprSQL + " < " + c.params.Push(leaf.Value), nil
	case queryast.OpLTE:
		return exprSQL + " <= " + c.params.Push(leaf.Value), nil
	case queryast.OpGT:
		return exprSQL + " > " + c.params.Push(leaf.Value), nil
	case queryast.OpGTE:
		return exprSQL + " >= " + c.params.Push(leaf.Value), nil
	case queryast.OpIn, queryast.OpNotIn:
		if len(leaf.In) == 0 {
			if leaf.Op == queryast.OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		placeholders := make([]string, len(leaf.In))
		for i, v := range leaf.In {
			placeholders[i] = c.params.Push(v)
		}
		kw := "IN"
		if leaf.Op == queryast.OpNotIn {
			kw = "NOT IN"
		}
		return exprSQL + " " + kw + " (" + strings.Join(placeholders, ", ") + ")", nil
	default:
		return "", invalidArgument(c.pathString(), "unsupported having operator %q", leaf.Op)
	}
}
