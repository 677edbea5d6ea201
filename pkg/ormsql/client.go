// Package ormsql is the public entry point: it wires together a
// catalog.Catalog, a dialect.Dialect, the compiler, the shaper, and a
// driver.Adapter into the single call callers use to go from a query
// description to a shaped result.
package ormsql

import (
	"context"

	"github.com/google/uuid"

	"github.com/queryforge/queryforge/internal/catalog"
	"github.com/queryforge/queryforge/internal/compiler"
	"github.com/queryforge/queryforge/internal/debug"
	"github.com/queryforge/queryforge/internal/dialect"
	"github.com/queryforge/queryforge/internal/driver"
	"github.com/queryforge/queryforge/internal/queryast"
	"github.com/queryforge/queryforge/internal/shaper"
)

// Client ties a catalog and an execution adapter together. The zero
// value is not usable; construct with New.
type Client struct {
	cat     *catalog.Catalog
	adapter driver.Adapter
	opts    compiler.Options
}

// New builds a Client against the given catalog and adapter. The
// adapter must already be connected (see driver.Adapter.Connect); New
// does not manage connection lifecycle itself.
func New(cat *catalog.Catalog, adapter driver.Adapter) *Client {
	return &Client{cat: cat, adapter: adapter, opts: compiler.Options{MaxDepth: compiler.DefaultMaxDepth}}
}

// WithMaxDepth overrides the relation-nesting ceiling used by every
// subsequent Query/Batch call.
func (c *Client) WithMaxDepth(depth int) *Client {
	c.opts.MaxDepth = depth
	return c
}

// Dialect reports the dialect the client's adapter executes against.
func (c *Client) Dialect() dialect.Dialect { return c.adapter.Dialect() }

// Compile compiles q without executing it, for callers that want to
// cache or inspect the SQL/parameters/plan separately from running it.
func (c *Client) Compile(q *queryast.Query) (*compiler.Compiled, error) {
	return compiler.Compile(c.cat, c.adapter.Dialect(), q, c.opts)
}

// Query compiles q, executes it, and shapes the result.
func (c *Client) Query(ctx context.Context, q *queryast.Query) (interface{}, error) {
	correlationID := uuid.NewString()
	log := debug.With("component", "ormsql", "op", "query", "model", q.Model, "correlation_id", correlationID)

	compiled, err := c.Compile(q)
	if err != nil {
		return nil, err
	}
	log.Debug("executing", "sql", compiled.SQL)
	rows, err := c.adapter.Query(ctx, compiled.SQL, compiled.Args)
	if err != nil {
		return nil, err
	}
	return shaper.Shape(compiled.Plan, rows)
}

// NamedQuery is one entry of a Batch call: Key identifies the query in
// the returned result map.
type NamedQuery struct {
	Key   string
	Query *queryast.Query
}

// Batch fuses many query descriptions into one statement (PostgreSQL
// only; other dialects return an Unsupported compiler.Error for a
// non-empty batch) and shapes each item's rows back out, keyed by Key.
// An empty batch returns an empty map without executing anything.
func (c *Client) Batch(ctx context.Context, queries []NamedQuery) (map[string]interface{}, error) {
	correlationID := uuid.NewString()
	log := debug.With("component", "ormsql", "op", "batch", "items", len(queries), "correlation_id", correlationID)

	items := make([]compiler.BatchItem, len(queries))
	for i, nq := range queries {
		items[i] = compiler.BatchItem{Key: nq.Key, Query: nq.Query}
	}

	compiled, err := compiler.CompileBatch(c.cat, c.adapter.Dialect(), items, c.opts)
	if err != nil {
		return nil, err
	}
	if compiled.SQL == "" {
		log.Debug("empty batch, skipping execution")
		return map[string]interface{}{}, nil
	}
	log.Debug("executing fused batch", "sql", compiled.SQL)

	rows, err := c.adapter.Query(ctx, compiled.SQL, compiled.Args)
	if err != nil {
		return nil, err
	}

	batchRows := make([]shaper.BatchRow, len(rows))
	for i, row := range rows {
		key, _ := row["batch_key"].(string)
		batchRows[i] = shaper.BatchRow{Key: key, Result: row["result"]}
	}

	return shaper.DemuxBatch(compiled.Plans, batchRows)
}
