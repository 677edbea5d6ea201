// Package driver defines the adapter contract the compiled SQL and
// parameter vector execute against, and the generic row scanning
// shared by both dialect adapters.
package driver

import (
	"context"
	"database/sql"

	"github.com/queryforge/queryforge/internal/dialect"
	"github.com/queryforge/queryforge/internal/shaper"
)

// Adapter executes compiled statements against a concrete database.
// Connect/Disconnect manage a pooled *sql.DB; Query and Execute run one
// already-compiled statement each. Adapters hold no compiler or shaper
// state: they only move SQL, parameters, and rows.
type Adapter interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// Query runs a statement expected to return rows (find/aggregate/
	// groupBy/batch) and scans them into generic rows keyed by column
	// name, ready for shaper.Shape or shaper.DemuxBatch.
	Query(ctx context.Context, query string, args []interface{}) ([]shaper.Row, error)

	// Execute runs a statement not expected to return rows, reporting
	// how many were affected.
	Execute(ctx context.Context, query string, args []interface{}) (rowsAffected int64, err error)

	Ping(ctx context.Context) error

	// Dialect reports which dialect.Dialect this adapter's SQL was
	// compiled for.
	Dialect() dialect.Dialect
}

// Config holds pooled-connection tuning shared by both adapters.
type Config struct {
	DSN            string
	MaxConnections int
	MaxIdleTime    int // seconds
	ConnectTimeout int // seconds
}

// ScanRows drains *sql.Rows into shaper.Row values, preserving each
// column's driver-native type (no premature string conversion) so
// package shaper's coercion table sees the same values database/sql
// handed back.
func ScanRows(rows *sql.Rows) ([]shaper.Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, WrapError("scan", err)
	}

	var out []shaper.Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, WrapError("scan", err)
		}
		row := make(shaper.Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError("scan", err)
	}
	return out, nil
}
