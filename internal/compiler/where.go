package compiler

import (
	"fmt"
	"strings"

	"github.com/queryforge/queryforge/internal/catalog"
	"github.com/queryforge/queryforge/internal/queryast"
)

// buildWhereWithCursor combines the query's Where filter with its
// Cursor (a seek predicate keyed by the query's ordering) into one
// WHERE body. An empty return means no WHERE clause is needed.
func (c *ctx) buildWhereWithCursor(m *catalog.Model, alias string, q *queryast.Query) (string, error) {
	var parts []string

	if q.Where != nil {
		restore := c.pushPath("where")
		sql, err := c.buildFilter(m, alias, q.Where)
		restore()
		if err != nil {
			return "", err
		}
		if sql != "" {
			parts = append(parts, sql)
		}
	}

	if len(q.Cursor) > 0 {
		restore := c.pushPath("cursor")
		sql, err := c.buildCursor(m, alias, q.Cursor, q.OrderBy)
		restore()
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}

	if len(parts) == 0 {
		return "", nil
	}
	wrapped := make([]string, len(parts))
	for i, p := range parts {
		wrapped[i] = "(" + p + ")"
	}
	return strings.Join(wrapped, " AND "), nil
}

// cursorSkipBump reports the extra offset a cursor contributes: seeking
// to k >= cursor still returns the cursor row itself, so the caller
// must skip one further row to land on the page that starts after it.
func cursorSkipBump(q *queryast.Query) int {
	if len(q.Cursor) > 0 {
		return 1
	}
	return 0
}

// buildCursor renders the cursor fields as a seek predicate: `col >=
// $v` when the field orders ascending, `col <= $v` when it orders
// descending. Every cursor field must appear in orderBy, since its
// direction there is what fixes the comparison's sign; combined with
// cursorSkipBump's +1 to skip, this gives seek-style pagination
// starting just past the cursor row rather than an equality match on
// it.
func (c *ctx) buildCursor(m *catalog.Model, alias string, cursor map[string]interface{}, orderBy []queryast.OrderTerm) (string, error) {
	directions := make(map[string]queryast.Direction, len(orderBy))
	for _, term := range orderBy {
		directions[term.Field] = term.Direction
	}

	names := make([]string, 0, len(cursor))
	for name := range cursor {
		names = append(names, name)
	}
	sortFieldNames(names)

	var conds []string
	for _, name := range names {
		f, ok := m.Field(name)
		if !ok {
			return "", schemaMismatch(c.pathString(), "model %q has no field %q", m.Name, name)
		}
		dir, ok := directions[name]
		if !ok {
			return "", invalidArgument(c.pathString(), "cursor field %q must also appear in orderBy", name)
		}
		op := ">="
		if dir == queryast.Desc {
			op = "<="
		}
		ph := c.params.Push(cursor[name])
		conds = append(conds, c.col(m, alias, f)+" "+op+" "+ph)
	}
	return strings.Join(conds, " AND "), nil
}

func sortFieldNames(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
}

// buildFilter compiles a Filter tree into a SQL boolean expression.
func (c *ctx) buildFilter(m *catalog.Model, alias string, f *queryast.Filter) (string, error) {
	if f == nil {
		return "", nil
	}

	switch {
	case len(f.And) > 0:
		return c.buildConjunction(m, alias, f.And, "AND")
	case len(f.Or) > 0:
		return c.buildConjunction(m, alias, f.Or, "OR")
	case f.Not != nil:
		inner, err := c.buildFilter(m, alias, f.Not)
		if err != nil {
			return "", err
		}
		if inner == "" {
			return "", nil
		}
		return "NOT (" + inner + ")", nil
	case f.Leaf != nil:
		return c.buildLeaf(m, alias, f.Leaf)
	case f.Relation != nil:
		return c.buildRelationQuantifier(m, alias, f.Relation)
	default:
		return "", nil
	}
}

func (c *ctx) buildConjunction(m *catalog.Model, alias string, children []*queryast.Filter, op string) (string, error) {
	var parts []string
	for _, child := range children {
		sql, err := c.buildFilter(m, alias, child)
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

func (c *ctx) buildLeaf(m *catalog.Model, alias string, leaf *queryast.Leaf) (string, error) {
	f, ok := m.Field(leaf.Field)
	if !ok {
		return "", schemaMismatch(c.pathString(), "model %q has no field %q", m.Name, leaf.Field)
	}
	colSQL := c.col(m, alias, f)

	switch leaf.Op {
	case queryast.OpEquals:
		return colSQL + " = " + c.params.Push(leaf.Value), nil
	case queryast.OpNot:
		return colSQL + " <> " + c.params.Push(leaf.Value), nil
	case queryast.OpLT:
		return colSQL + " < " + c.params.Push(leaf.Value), nil
	case queryast.OpLTE:
		return colSQL + " <= " + c.params.Push(leaf.Value), nil
	case queryast.OpGT:
		return colSQL + " > " + c.params.Push(leaf.Value), nil
	case queryast.OpGTE:
		return colSQL + " >= " + c.params.Push(leaf.Value), nil
	case queryast.OpIsNull:
		if b, ok := leaf.Value.(bool); ok && !b {
			return colSQL + " IS NOT NULL", nil
		}
		return colSQL + " IS NULL", nil
	case queryast.OpIn, queryast.OpNotIn:
		if len(leaf.In) == 0 {
			// Empty IN list: "in nothing" is always false, "not in
			// nothing" is always true.
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
		return fmt.Sprintf("%s %s (%s)", colSQL, kw, strings.Join(placeholders, ", ")), nil
	case queryast.OpContains, queryast.OpStartsWith, queryast.OpEndsWith:
		return c.buildTextMatch(colSQL, leaf)
	default:
		return "", invalidArgument(c.pathString(), "unsupported operator %q on field %q", leaf.Op, leaf.Field)
	}
}

func (c *ctx) buildTextMatch(colSQL string, leaf *queryast.Leaf) (string, error) {
	s, ok := leaf.Value.(string)
	if !ok {
		return "", invalidArgument(c.pathString(), "%s requires a string value", leaf.Op)
	}
	pattern := escapeLikePattern(s)
	switch leaf.Op {
	case queryast.OpContains:
		pattern = "%" + pattern + "%"
	case queryast.OpStartsWith:
		pattern = pattern + "%"
	case queryast.OpEndsWith:
		pattern = "%" + pattern
	}
	ph := c.params.Push(pattern)
	var b strings.Builder
	c.dia.WriteTextMatch(&b, colSQL, ph, leaf.Mode == queryast.MatchInsensitive || leaf.Insensitive)
	return b.String(), nil
}

func escapeLikePattern(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "%", "\\%", "_", "\\_")
	return r.Replace(s)
}

// buildRelationQuantifier compiles a relation filter ("some"/"every"/
// "none" related rows match) into an EXISTS or NOT EXISTS subquery.
func (c *ctx) buildRelationQuantifier(m *catalog.Model, alias string, rl *queryast.RelationLeaf) (string, error) {
	rel, ok := m.Relation(rl.Relation)
	if !ok {
		return "", schemaMismatch(c.pathString(), "model %q has no relation %q", m.Name, rl.Relation)
	}
	if c.depth+1 > c.maxDepth {
		return "", depthExceeded(c.pathString(), c.maxDepth)
	}

	target, err := c.cat.Model(rel.ToModel)
	if err != nil {
		return "", schemaMismatch(c.pathString(), "%s", err)
	}
	childAlias := relationAlias(c.pathString()+"."+rl.Relation, c.depth+1)

	c.depth++
	restore := c.pushPath(rl.Relation)
	joinCond, joinFrom, err := c.relationJoinSQL(m, alias, target, childAlias, rel)
	if err != nil {
		restore()
		c.depth--
		return "", err
	}

	var innerWhere string
	if rl.Where != nil {
		innerWhere, err = c.buildFilter(target, childAlias, rl.Where)
		if err != nil {
			restore()
			c.depth--
			return "", err
		}
	}
	restore()
	c.depth--

	conds := []string{joinCond}
	if innerWhere != "" {
		conds = append(conds, innerWhere)
	}
	existsBody := fmt.Sprintf("SELECT 1 FROM %s WHERE %s", joinFrom, strings.Join(conds, " AND "))

	switch rl.Quantifier {
	case queryast.QuantSome:
		return "EXISTS (" + existsBody + ")", nil
	case queryast.QuantNone:
		return "NOT EXISTS (" + existsBody + ")", nil
	case queryast.QuantEvery:
		// "every related row matches" == "no related row fails to
		// match": NOT EXISTS a related row where the negated filter
		// holds (or, with no inner filter, just requires no related
		// rows violate an always-true condition, which never excludes).
		var negWhere string
		if innerWhere != "" {
			negWhere = "NOT (" + innerWhere + ")"
		} else {
			negWhere = "1 = 0"
		}
		negBody := fmt.Sprintf("SELECT 1 FROM %s WHERE %s AND %s", joinFrom, joinCond, negWhere)
		return "NOT EXISTS (" + negBody + ")", nil
	default:
		return "", invalidArgument(c.pathString(), "unknown quantifier %q", rl.Quantifier)
	}
}

// relationJoinSQL renders the FROM clause (table AS alias, or a join
// through a many-to-many bridge table) and join condition correlating
// childAlias back to parentAlias for the given relation edge.
func (c *ctx) relationJoinSQL(parent *catalog.Model, parentAlias string, child *catalog.Model, childAlias string, rel *catalog.Relation) (joinCond, fromSQL string, err error) {
	childTable := c.dia.QuoteTable(child.Schema, child.Table) + " AS " + c.dia.QuoteIdentifier(childAlias)

	if rel.Kind == catalog.ManyToMany {
		parentKey, ok := parent.PrimaryKey()
		if !ok {
			return "", "", schemaMismatch(c.pathString(), "relation %s.%s: model %q needs a single-column unique key to join through %s", parent.Name, rel.Name, parent.Name, rel.JoinTable)
		}
		childKey, ok := child.PrimaryKey()
		if !ok {
			return "", "", schemaMismatch(c.pathString(), "relation %s.%s: model %q needs a single-column unique key to join through %s", parent.Name, rel.Name, child.Name, rel.JoinTable)
		}

		bridge := c.dia.QuoteIdentifier(bridgeAlias(childAlias))
		join := fmt.Sprintf("%s JOIN %s %s ON %s.%s = %s.%s",
			childTable, c.dia.QuoteIdentifier(rel.JoinTable), bridge,
			bridge, c.dia.QuoteIdentifier(rel.JoinForeignKey),
			c.dia.QuoteIdentifier(childAlias), c.dia.QuoteIdentifier(childKey.Column),
		)
		cond := fmt.Sprintf("%s.%s = %s.%s",
			c.dia.QuoteIdentifier(parentAlias), c.dia.QuoteIdentifier(parentKey.Column),
			bridge, c.dia.QuoteIdentifier(rel.JoinLocalKey),
		)
		return cond, join, nil
	}

	localField, ok := parent.Field(rel.LocalKey)
	if !ok {
		return "", "", schemaMismatch(c.pathString(), "relation %s.%s: local key %q not found", parent.Name, rel.Name, rel.LocalKey)
	}
	refField, ok := child.Field(rel.ReferencedKey)
	if !ok {
		return "", "", schemaMismatch(c.pathString(), "relation %s.%s: referenced key %q not found on %s", parent.Name, rel.Name, rel.ReferencedKey, child.Name)
	}
	cond := fmt.Sprintf("%s = %s",
		c.col(child, childAlias, refField),
		c.col(parent, parentAlias, localField),
	)
	_ = localField
	return cond, childTable, nil
}

func bridgeAlias(childAlias string) string { return childAlias + "_bridge" }
