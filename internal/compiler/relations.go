package compiler

import (
	"github.com/queryforge/queryforge/internal/catalog"
	"github.com/queryforge/queryforge/internal/dialect"
	"github.com/queryforge/queryforge/internal/plan"
	"github.com/queryforge/queryforge/internal/queryast"
)

// buildRelation compiles one embedded relation into a correlated
// scalar subquery expression that produces a JSON value: a JSON array
// for to-many relations, a single JSON object (or null) for to-one
// relations. The expression is self-contained and can be dropped
// straight into the parent's SELECT list.
func (c *ctx) buildRelation(parent *catalog.Model, parentAlias, relName string, proj *queryast.Projection) (exprSQL, colAlias string, relPlan *plan.RelationPlan, err error) {
	rel, ok := parent.Relation(relName)
	if !ok {
		return "", "", nil, schemaMismatch(c.pathString(), "model %q has no relation %q", parent.Name, relName)
	}
	if c.depth+1 > c.maxDepth {
		return "", "", nil, depthExceeded(c.pathString()+"."+relName, c.maxDepth)
	}

	target, err := c.cat.Model(rel.ToModel)
	if err != nil {
		return "", "", nil, schemaMismatch(c.pathString(), "%s", err)
	}

	nested := &queryast.Query{Model: rel.ToModel}
	if proj != nil && proj.Nested != nil {
		nested = proj.Nested
		nested.Model = rel.ToModel
	}

	childAlias := relationAlias(c.pathString()+"."+relName, c.depth+1)

	c.depth++
	restore := c.pushPath(relName)
	defer func() { restore(); c.depth-- }()

	childProj, err := resolveProjection(c, target, nested)
	if err != nil {
		return "", "", nil, err
	}

	var pairs []dialect.JSONPair
	nestedPlan := &plan.Plan{Model: target.Name}
	for _, f := range childProj.scalars {
		pairs = append(pairs, dialect.JSONPair{Key: f.Name, ValueSQL: c.col(target, childAlias, &f)})
		nestedPlan.Columns = append(nestedPlan.Columns, plan.ColumnPlan{Column: f.Name, Field: f.Name, FieldType: string(f.Type)})
	}
	for _, nestedRelName := range orderedRelationNames(target, childProj.relations) {
		nestedProj := childProj.relations[nestedRelName]
		nestedExpr, nestedAlias, nestedRelPlan, err := c.buildRelation(target, childAlias, nestedRelName, nestedProj)
		if err != nil {
			return "", "", nil, err
		}
		pairs = append(pairs, dialect.JSONPair{Key: nestedAlias, ValueSQL: nestedExpr})
		nestedPlan.Relations = append(nestedPlan.Relations, *nestedRelPlan)
	}
	rowObj := c.dia.JSONBuildObject(pairs)

	joinCond, fromSQL, err := c.relationJoinSQL(parent, parentAlias, target, childAlias, rel)
	if err != nil {
		return "", "", nil, err
	}

	var whereExtra string
	if nested.Where != nil {
		whereExtra, err = c.buildFilter(target, childAlias, nested.Where)
		if err != nil {
			return "", "", nil, err
		}
	}
	whereSQL := joinCond
	if whereExtra != "" {
		whereSQL += " AND (" + whereExtra + ")"
	}

	toMany := rel.Kind == catalog.OneToMany || rel.Kind == catalog.ManyToMany

	if !toMany {
		nestedPlan.Unwrap = plan.UnwrapSingleObject
		expr := "(SELECT " + rowObj + " FROM " + fromSQL + " WHERE " + whereSQL + " LIMIT 1)"
		return expr, relName, &plan.RelationPlan{Field: relName, Column: relName, Shape: plan.ShapeObject, Nested: nestedPlan}, nil
	}

	if err := validatePagination(c.pathString(), nested.Take, nested.Skip); err != nil {
		return "", "", nil, err
	}

	if err := c.validateOrderBy(target, nested.OrderBy); err != nil {
		return "", "", nil, err
	}
	orderSQL := c.buildOrderBy(target, childAlias, nested.OrderBy)
	limitSQL := ""
	if nested.Take != nil {
		limitSQL = " LIMIT " + c.params.Push(*nested.Take)
	}
	nestedPlan.Unwrap = plan.UnwrapMany
	// Ordering is applied in the derived table, not inside the JSON
	// aggregate itself, since only row_obj survives into the outer
	// SELECT; Postgres preserves a derived table's row order through
	// an unordered aggregate call in practice but this relies on
	// planner behavior rather than a guarantee.
	inner := "SELECT " + rowObj + " AS row_obj FROM " + fromSQL + " WHERE " + whereSQL + orderSQL + limitSQL
	agg := c.dia.JSONArrayAgg("row_obj", "")
	expr := "(SELECT " + agg + " FROM (" + inner + ") AS " + c.dia.QuoteIdentifier(childAlias+"_agg") + ")"
	return expr, relName, &plan.RelationPlan{Field: relName, Column: relName, Shape: plan.ShapeArray, Nested: nestedPlan}, nil
}
