package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queryforge/queryforge/internal/catalog"
	"github.com/queryforge/queryforge/internal/compiler"
	"github.com/queryforge/queryforge/internal/dialect"
	"github.com/queryforge/queryforge/internal/plan"
	"github.com/queryforge/queryforge/internal/queryast"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Model{
		{
			Name:  "User",
			Table: "users",
			Fields: []catalog.Field{
				{Name: "id", Column: "id", Type: catalog.Int},
				{Name: "email", Column: "email", Type: catalog.String},
				{Name: "name", Column: "name", Type: catalog.String, Nullable: true},
			},
			Relations: []catalog.Relation{
				{Name: "posts", Kind: catalog.OneToMany, FromModel: "User", ToModel: "Post", LocalKey: "id", ReferencedKey: "authorId", Inverse: "author"},
			},
			UniqueKeys: [][]string{{"id"}},
		},
		{
			Name:  "Post",
			Table: "posts",
			Fields: []catalog.Field{
				{Name: "id", Column: "id", Type: catalog.Int},
				{Name: "authorId", Column: "author_id", Type: catalog.Int},
				{Name: "title", Column: "title", Type: catalog.String},
				{Name: "views", Column: "views", Type: catalog.Int},
			},
			Relations: []catalog.Relation{
				{Name: "author", Kind: catalog.ManyToOne, FromModel: "Post", ToModel: "User", LocalKey: "authorId", ReferencedKey: "id", Inverse: "posts"},
				{Name: "tags", Kind: catalog.ManyToMany, FromModel: "Post", ToModel: "Tag", JoinTable: "post_tags", JoinLocalKey: "postId", JoinForeignKey: "tagId", Inverse: "posts"},
			},
			UniqueKeys: [][]string{{"id"}},
		},
		{
			Name:  "Tag",
			Table: "tags",
			Fields: []catalog.Field{
				{Name: "id", Column: "id", Type: catalog.Int},
				{Name: "name", Column: "name", Type: catalog.String},
			},
			Relations: []catalog.Relation{
				{Name: "posts", Kind: catalog.ManyToMany, FromModel: "Tag", ToModel: "Post", JoinTable: "post_tags", JoinLocalKey: "tagId", JoinForeignKey: "postId", Inverse: "tags"},
			},
			UniqueKeys: [][]string{{"id"}},
		},
	})
}

func TestCompileFindManySimpleWhere(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:  "User",
		Method: queryast.FindMany,
		Where: &queryast.Filter{Leaf: &queryast.Leaf{
			Field: "email", Op: queryast.OpEquals, Value: "a@b.com",
		}},
	}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, `"users"."email" = $1`)
	assert.Equal(t, []interface{}{"a@b.com"}, out.Args)
	assert.Equal(t, plan.UnwrapMany, out.Plan.Unwrap)
}

func TestCompileFindFirstLimitsToOne(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{Model: "User", Method: queryast.FindFirst}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "LIMIT $1")
	assert.Equal(t, []interface{}{1}, out.Args)
	assert.Equal(t, plan.UnwrapFirstOrNull, out.Plan.Unwrap)
}

func TestCompileSelectIncludeMutualExclusion(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:   "User",
		Method:  queryast.FindMany,
		Select:  map[string]*queryast.Projection{"id": queryast.True()},
		Include: map[string]*queryast.Projection{"posts": queryast.True()},
	}
	_, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.Error(t, err)
	var cerr *compiler.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, compiler.InvalidArgument, cerr.Kind)
}

func TestCompileUnknownFieldIsSchemaMismatch(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:  "User",
		Method: queryast.FindMany,
		Where:  &queryast.Filter{Leaf: &queryast.Leaf{Field: "nope", Op: queryast.OpEquals, Value: 1}},
	}
	_, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.Error(t, err)
	var cerr *compiler.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, compiler.SchemaMismatch, cerr.Kind)
}

func TestCompileIncludeRelationEmbedsJSONAggregate(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:   "User",
		Method:  queryast.FindMany,
		Include: map[string]*queryast.Projection{"posts": queryast.True()},
	}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "JSON_AGG")
	require.Len(t, out.Plan.Relations, 1)
	assert.Equal(t, "posts", out.Plan.Relations[0].Field)
	assert.Equal(t, plan.ShapeArray, out.Plan.Relations[0].Shape)
}

func TestCompileIncludeToOneRelationIsSingleObject(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:   "Post",
		Method:  queryast.FindMany,
		Include: map[string]*queryast.Projection{"author": queryast.True()},
	}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	require.Len(t, out.Plan.Relations, 1)
	assert.Equal(t, plan.ShapeObject, out.Plan.Relations[0].Shape)
}

func TestCompileRelationFilterQuantifiers(t *testing.T) {
	cat := testCatalog()
	for _, tc := range []struct {
		quant queryast.Quantifier
		want  string
	}{
		{queryast.QuantSome, "EXISTS ("},
		{queryast.QuantNone, "NOT EXISTS ("},
		{queryast.QuantEvery, "NOT EXISTS ("},
	} {
		q := &queryast.Query{
			Model:  "User",
			Method: queryast.FindMany,
			Where: &queryast.Filter{Relation: &queryast.RelationLeaf{
				Relation: "posts", Quantifier: tc.quant,
			}},
		}
		out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
		require.NoError(t, err)
		assert.Contains(t, out.SQL, tc.want)
	}
}

func TestCompileCursorSeeksPastTheCursorRow(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:   "Post",
		Method:  queryast.FindMany,
		OrderBy: []queryast.OrderTerm{{Field: "id", Direction: queryast.Asc}},
		Cursor:  map[string]interface{}{"id": 10},
	}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, `"posts"."id" >= $1`)
	assert.Contains(t, out.SQL, "OFFSET $2")
	assert.Equal(t, []interface{}{10, 1}, out.Args)
}

func TestCompileCursorDescendingFlipsComparison(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:   "Post",
		Method:  queryast.FindMany,
		OrderBy: []queryast.OrderTerm{{Field: "id", Direction: queryast.Desc}},
		Cursor:  map[string]interface{}{"id": 10},
	}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, `"posts"."id" <= $1`)
}

func TestCompileCursorFieldNotInOrderByIsInvalidArgument(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:  "Post",
		Method: queryast.FindMany,
		Cursor: map[string]interface{}{"id": 10},
	}
	_, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.Error(t, err)
	var cerr *compiler.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, compiler.InvalidArgument, cerr.Kind)
}

func TestCompileNegativeTakeIsInvalidArgument(t *testing.T) {
	cat := testCatalog()
	take := -1
	q := &queryast.Query{Model: "Post", Method: queryast.FindMany, Take: &take}
	_, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.Error(t, err)
	var cerr *compiler.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, compiler.InvalidArgument, cerr.Kind)
}

func TestCompileNegativeSkipIsInvalidArgument(t *testing.T) {
	cat := testCatalog()
	skip := -1
	q := &queryast.Query{Model: "Post", Method: queryast.FindMany, Skip: &skip}
	_, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.Error(t, err)
	var cerr *compiler.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, compiler.InvalidArgument, cerr.Kind)
}

func TestCompileNegativeTakeInGroupByIsInvalidArgument(t *testing.T) {
	cat := testCatalog()
	take := -5
	q := &queryast.Query{
		Model:        "Post",
		Method:       queryast.GroupBy,
		By:           []string{"authorId"},
		Aggregations: []queryast.AggregateSpec{{Func: queryast.FuncCount, All: true}},
		Take:         &take,
	}
	_, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.Error(t, err)
	var cerr *compiler.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, compiler.InvalidArgument, cerr.Kind)
}

func TestCompileManyToManyRelationFilterQuantifier(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:  "Post",
		Method: queryast.FindMany,
		Where: &queryast.Filter{Relation: &queryast.RelationLeaf{
			Relation: "tags", Quantifier: queryast.QuantSome,
		}},
	}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "EXISTS (")
	assert.Contains(t, out.SQL, `JOIN "post_tags"`)
	assert.Contains(t, out.SQL, `"posts"."id" =`)
	assert.Contains(t, out.SQL, `"tagId"`)
	assert.NotContains(t, out.SQL, `."" =`)
	assert.NotContains(t, out.SQL, `= "".`)
}

func TestCompileManyToManyRelationEmbedding(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:   "Post",
		Method:  queryast.FindMany,
		Include: map[string]*queryast.Projection{"tags": queryast.True()},
	}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "JSON_AGG")
	assert.Contains(t, out.SQL, `JOIN "post_tags"`)
	assert.NotContains(t, out.SQL, `."" =`)
	assert.NotContains(t, out.SQL, `= "".`)
	require.Len(t, out.Plan.Relations, 1)
	assert.Equal(t, "tags", out.Plan.Relations[0].Field)
	assert.Equal(t, plan.ShapeArray, out.Plan.Relations[0].Shape)
}

func TestCompileDepthExceeded(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:  "User",
		Method: queryast.FindMany,
		Include: map[string]*queryast.Projection{
			"posts": queryast.With(&queryast.Query{
				Include: map[string]*queryast.Projection{
					"author": queryast.With(&queryast.Query{
						Include: map[string]*queryast.Projection{
							"posts": queryast.True(),
						},
					}),
				},
			}),
		},
	}
	_, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{MaxDepth: 2})
	require.Error(t, err)
	var cerr *compiler.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, compiler.DepthExceeded, cerr.Kind)

	_, err = compiler.Compile(cat, dialect.Postgres, q, compiler.Options{MaxDepth: 5})
	require.NoError(t, err)
}

func TestCompileDistinctPostgresUsesDistinctOn(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{Model: "Post", Method: queryast.FindMany, Distinct: []string{"authorId"}}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "DISTINCT ON (")
}

func TestCompileDistinctSQLiteUsesWindowFunctionFallback(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{Model: "Post", Method: queryast.FindMany, Distinct: []string{"authorId"}}
	out, err := compiler.Compile(cat, dialect.SQLite, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "ROW_NUMBER() OVER (PARTITION BY")
	assert.Contains(t, out.SQL, "__rn = 1")
}

func TestCompileCount(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{Model: "User", Method: queryast.Count}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "COUNT(*)")
	assert.Equal(t, plan.UnwrapScalarCount, out.Plan.Unwrap)
}

func TestCompileAggregateRequiresAtLeastOneSpec(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{Model: "Post", Method: queryast.Aggregate}
	_, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.Error(t, err)
}

func TestCompileAggregateSumAndCountAll(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:  "Post",
		Method: queryast.Aggregate,
		Aggregations: []queryast.AggregateSpec{
			{Func: queryast.FuncSum, Field: "views"},
			{Func: queryast.FuncCount, All: true},
		},
	}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "SUM(")
	assert.Contains(t, out.SQL, "COUNT(*)")
	require.Len(t, out.Plan.Aggregates, 2)
	assert.Equal(t, "_sum.views", out.Plan.Aggregates[0].OutputKey)
	assert.Equal(t, "_count._all", out.Plan.Aggregates[1].OutputKey)
}

func TestCompileGroupByWithHaving(t *testing.T) {
	cat := testCatalog()
	q := &queryast.Query{
		Model:  "Post",
		Method: queryast.GroupBy,
		By:     []string{"authorId"},
		Aggregations: []queryast.AggregateSpec{
			{Func: queryast.FuncCount, All: true},
		},
		Having: &queryast.Having{Leaf: &queryast.HavingLeaf{
			Aggregate: queryast.AggregateSpec{Func: queryast.FuncCount, All: true},
			Op:        queryast.OpGT,
			Value:     1,
		}},
	}
	out, err := compiler.Compile(cat, dialect.Postgres, q, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "GROUP BY")
	assert.Contains(t, out.SQL, "HAVING")
	assert.Equal(t, plan.UnwrapGroups, out.Plan.Unwrap)
}

func TestCompileBatchFusesQueriesIntoOneStatement(t *testing.T) {
	cat := testCatalog()
	items := []compiler.BatchItem{
		{Key: "users", Query: &queryast.Query{Model: "User", Method: queryast.FindMany}},
		{Key: "postCount", Query: &queryast.Query{Model: "Post", Method: queryast.Count}},
	}
	out, err := compiler.CompileBatch(cat, dialect.Postgres, items, compiler.Options{})
	require.NoError(t, err)
	assert.Contains(t, out.SQL, "WITH")
	assert.Contains(t, out.SQL, "UNION ALL")
	assert.Len(t, out.Plans, 2)
}

func TestCompileBatchUnsupportedOnSQLite(t *testing.T) {
	cat := testCatalog()
	items := []compiler.BatchItem{
		{Key: "users", Query: &queryast.Query{Model: "User", Method: queryast.FindMany}},
	}
	_, err := compiler.CompileBatch(cat, dialect.SQLite, items, compiler.Options{})
	require.Error(t, err)
	var cerr *compiler.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, compiler.Unsupported, cerr.Kind)
}

func TestCompileBatchEmptyIsNotAnError(t *testing.T) {
	cat := testCatalog()
	out, err := compiler.CompileBatch(cat, dialect.SQLite, nil, compiler.Options{})
	require.NoError(t, err)
	assert.Empty(t, out.SQL)
	assert.Empty(t, out.Plans)
}

func TestCompileBatchRebasesParameterPlaceholders(t *testing.T) {
	cat := testCatalog()
	items := []compiler.BatchItem{
		{Key: "a", Query: &queryast.Query{
			Model: "User", Method: queryast.FindMany,
			Where: &queryast.Filter{Leaf: &queryast.Leaf{Field: "email", Op: queryast.OpEquals, Value: "x"}},
		}},
		{Key: "b", Query: &queryast.Query{
			Model: "Post", Method: queryast.FindMany,
			Where: &queryast.Filter{Leaf: &queryast.Leaf{Field: "title", Op: queryast.OpEquals, Value: "y"}},
		}},
	}
	out, err := compiler.CompileBatch(cat, dialect.Postgres, items, compiler.Options{})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"x", "y"}, out.Args)
	assert.Contains(t, out.SQL, "$1")
	assert.Contains(t, out.SQL, "$2")
}
