package dialect

import (
	"fmt"
	"strings"
)

// sqliteDialect implements Dialect for SQLite: ? placeholders, no
// schema qualification, LOWER()-emulated case-insensitive matching,
// JSON_GROUP_ARRAY/JSON_OBJECT aggregation, 0/1 integer booleans.
type sqliteDialect struct{}

// SQLite is the singleton SQLite dialect.
var SQLite Dialect = sqliteDialect{}

func (sqliteDialect) Name() Name { return SQLiteName }

func (sqliteDialect) QuoteIdentifier(name string) string {
	return quoteWith('"', name)
}

func (d sqliteDialect) QuoteTable(_, table string) string {
	return d.QuoteIdentifier(table)
}

func (sqliteDialect) Placeholder(int) string {
	return "?"
}

func (sqliteDialect) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (sqliteDialect) SupportsBatch() bool { return false }

func (sqliteDialect) SupportsDistinctOn() bool { return false }

func (sqliteDialect) WriteTextMatch(b *strings.Builder, columnSQL, placeholderSQL string, insensitive bool) {
	if !insensitive {
		b.WriteString(columnSQL)
		b.WriteString(" LIKE ")
		b.WriteString(placeholderSQL)
		return
	}
	b.WriteString("LOWER(")
	b.WriteString(columnSQL)
	b.WriteString(") LIKE LOWER(")
	b.WriteString(placeholderSQL)
	b.WriteString(")")
}

func (sqliteDialect) JSONArrayAgg(rowExprSQL, _ string) string {
	// SQLite's JSON_GROUP_ARRAY has no ORDER BY clause of its own;
	// ordering is enforced by the caller ordering the correlated
	// subquery feeding this aggregate.
	return "COALESCE(JSON_GROUP_ARRAY(" + rowExprSQL + "), '[]')"
}

func (sqliteDialect) JSONBuildObject(pairs []JSONPair) string {
	var b strings.Builder
	b.WriteString("JSON_OBJECT(")
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "'%s', %s", p.Key, p.ValueSQL)
	}
	b.WriteString(")")
	return b.String()
}
