package dialect

import (
	"fmt"
	"strings"
)

// postgresDialect implements Dialect for PostgreSQL: $N placeholders,
// native ILIKE, JSON_AGG/JSON_BUILD_OBJECT aggregation, native booleans.
type postgresDialect struct{}

// Postgres is the singleton PostgreSQL dialect.
var Postgres Dialect = postgresDialect{}

func (postgresDialect) Name() Name { return PostgreSQL }

func (postgresDialect) QuoteIdentifier(name string) string {
	return quoteWith('"', name)
}

func (d postgresDialect) QuoteTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

func (postgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

func (postgresDialect) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (postgresDialect) SupportsBatch() bool { return true }

func (postgresDialect) SupportsDistinctOn() bool { return true }

func (postgresDialect) WriteTextMatch(b *strings.Builder, columnSQL, placeholderSQL string, insensitive bool) {
	b.WriteString(columnSQL)
	if insensitive {
		b.WriteString(" ILIKE ")
	} else {
		b.WriteString(" LIKE ")
	}
	b.WriteString(placeholderSQL)
}

func (postgresDialect) JSONArrayAgg(rowExprSQL, orderBySQL string) string {
	agg := "JSON_AGG(" + rowExprSQL
	if orderBySQL != "" {
		agg += " " + orderBySQL
	}
	agg += ")"
	return "COALESCE(" + agg + ", '[]')"
}

func (postgresDialect) JSONBuildObject(pairs []JSONPair) string {
	var b strings.Builder
	b.WriteString("JSON_BUILD_OBJECT(")
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "'%s', %s", p.Key, p.ValueSQL)
	}
	b.WriteString(")")
	return b.String()
}
