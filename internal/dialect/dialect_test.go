package dialect_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/queryforge/queryforge/internal/dialect"
)

func TestPostgresPlaceholdersArePositional(t *testing.T) {
	pv := dialect.NewParamVector(dialect.Postgres)
	assert.Equal(t, "$1", pv.Push("a"))
	assert.Equal(t, "$2", pv.Push("b"))
	assert.Equal(t, []interface{}{"a", "b"}, pv.Args())
}

func TestSQLitePlaceholdersAreAlwaysQuestionMark(t *testing.T) {
	pv := dialect.NewParamVector(dialect.SQLite)
	assert.Equal(t, "?", pv.Push(1))
	assert.Equal(t, "?", pv.Push(2))
}

func TestParamVectorRebaseReturnsPriorLength(t *testing.T) {
	pv := dialect.NewParamVector(dialect.Postgres)
	pv.Push("a")
	offset := pv.Rebase([]interface{}{"b", "c"})
	assert.Equal(t, 1, offset)
	assert.Equal(t, []interface{}{"a", "b", "c"}, pv.Args())
}

func TestBoolLiteralsDifferByDialect(t *testing.T) {
	assert.Equal(t, "TRUE", dialect.Postgres.BoolLiteral(true))
	assert.Equal(t, "FALSE", dialect.Postgres.BoolLiteral(false))
	assert.Equal(t, "1", dialect.SQLite.BoolLiteral(true))
	assert.Equal(t, "0", dialect.SQLite.BoolLiteral(false))
}

func TestWriteTextMatchInsensitive(t *testing.T) {
	var pg strings.Builder
	dialect.Postgres.WriteTextMatch(&pg, `"t"."name"`, "$1", true)
	assert.Equal(t, `"t"."name" ILIKE $1`, pg.String())

	var lite strings.Builder
	dialect.SQLite.WriteTextMatch(&lite, `"t"."name"`, "?", true)
	assert.Equal(t, `LOWER("t"."name") LIKE LOWER(?)`, lite.String())
}

func TestWriteTextMatchCaseSensitive(t *testing.T) {
	var pg strings.Builder
	dialect.Postgres.WriteTextMatch(&pg, `"t"."name"`, "$1", false)
	assert.Equal(t, `"t"."name" LIKE $1`, pg.String())
}

func TestJSONAggregationDiffersByDialect(t *testing.T) {
	assert.Equal(t, "COALESCE(JSON_AGG(row), '[]')", dialect.Postgres.JSONArrayAgg("row", ""))
	assert.Equal(t, "COALESCE(JSON_GROUP_ARRAY(row), '[]')", dialect.SQLite.JSONArrayAgg("row", ""))
}

func TestJSONBuildObjectRendersPairsInOrder(t *testing.T) {
	pairs := []dialect.JSONPair{{Key: "id", ValueSQL: `"t"."id"`}, {Key: "name", ValueSQL: `"t"."name"`}}
	assert.Equal(t, `JSON_BUILD_OBJECT('id', "t"."id", 'name', "t"."name")`, dialect.Postgres.JSONBuildObject(pairs))
	assert.Equal(t, `JSON_OBJECT('id', "t"."id", 'name', "t"."name")`, dialect.SQLite.JSONBuildObject(pairs))
}

func TestDistinctOnSupportOnlyOnPostgres(t *testing.T) {
	assert.True(t, dialect.Postgres.SupportsDistinctOn())
	assert.False(t, dialect.SQLite.SupportsDistinctOn())
}

func TestBatchSupportOnlyOnPostgres(t *testing.T) {
	assert.True(t, dialect.Postgres.SupportsBatch())
	assert.False(t, dialect.SQLite.SupportsBatch())
}

func TestQuoteIdentifierEscapesEmbeddedQuote(t *testing.T) {
	assert.Equal(t, `"a""b"`, dialect.Postgres.QuoteIdentifier(`a"b`))
}

func TestQuoteTableSchemaQualification(t *testing.T) {
	assert.Equal(t, `"public"."users"`, dialect.Postgres.QuoteTable("public", "users"))
	assert.Equal(t, `"users"`, dialect.Postgres.QuoteTable("", "users"))
	assert.Equal(t, `"users"`, dialect.SQLite.QuoteTable("public", "users"))
}
