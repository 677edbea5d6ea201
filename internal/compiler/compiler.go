// Package compiler translates a queryast.Query plus a catalog.Catalog
// into dialect-specific SQL, a parameter vector, and a plan.Plan the
// shaper uses to reconstruct nested results from flat rows. Compilation
// is pure: no I/O, no driver calls, no blocking; a Compiled value can be
// cached and replayed against different parameter values by any caller
// that respects the parameter vector's ordering.
package compiler

import (
	"fmt"
	"strings"

	"github.com/queryforge/queryforge/internal/catalog"
	"github.com/queryforge/queryforge/internal/debug"
	"github.com/queryforge/queryforge/internal/dialect"
	"github.com/queryforge/queryforge/internal/plan"
	"github.com/queryforge/queryforge/internal/queryast"
)

// DefaultMaxDepth bounds relation nesting when a caller does not supply
// one. Past this depth Compile returns a DepthExceeded error rather than
// recursing indefinitely.
const DefaultMaxDepth = 8

// Compiled is the output of a successful compilation.
type Compiled struct {
	SQL  string
	Args []interface{}
	Plan *plan.Plan
}

// Options controls a single Compile call.
type Options struct {
	// MaxDepth overrides DefaultMaxDepth when non-zero.
	MaxDepth int
}

// ctx carries the state threaded through one compilation: the catalog
// and dialect being compiled against, the shared parameter arena, and
// the current relation-nesting depth and path (for error reporting).
type ctx struct {
	cat      *catalog.Catalog
	dia      dialect.Dialect
	params   *dialect.ParamVector
	maxDepth int
	depth    int
	path     []string
}

func (c *ctx) pushPath(seg string) (restore func()) {
	c.path = append(c.path, seg)
	i := len(c.path) - 1
	return func() { c.path = c.path[:i] }
}

func (c *ctx) pathString() string {
	return strings.Join(c.path, ".")
}

func (c *ctx) col(m *catalog.Model, alias string, f *catalog.Field) string {
	return c.dia.QuoteIdentifier(alias) + "." + c.dia.QuoteIdentifier(f.Column)
}

// Compile compiles a top-level query description into SQL, parameters,
// and a reshaping plan.
func Compile(cat *catalog.Catalog, dia dialect.Dialect, q *queryast.Query, opts Options) (*Compiled, error) {
	maxDepth := opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	c := &ctx{
		cat:      cat,
		dia:      dia,
		params:   dialect.NewParamVector(dia),
		maxDepth: maxDepth,
	}
	out, err := c.compileTop(q)
	if err != nil {
		debug.With("component", "compiler", "model", q.Model, "method", q.Method).Debug("compile failed", "error", err)
		return nil, err
	}
	debug.With("component", "compiler", "model", q.Model, "method", q.Method).Debug("compiled", "params", len(out.Args))
	return out, nil
}

func (c *ctx) compileTop(q *queryast.Query) (*Compiled, error) {
	m, err := c.cat.Model(q.Model)
	if err != nil {
		return nil, schemaMismatch(c.pathString(), "%s", err)
	}

	switch q.Method {
	case queryast.FindMany, queryast.FindFirst, queryast.FindUnique:
		sql, p, err := c.compileFind(m, q)
		if err != nil {
			return nil, err
		}
		return &Compiled{SQL: sql, Args: c.params.Args(), Plan: p}, nil
	case queryast.Count:
		sql, p, err := c.compileCount(m, q)
		if err != nil {
			return nil, err
		}
		return &Compiled{SQL: sql, Args: c.params.Args(), Plan: p}, nil
	case queryast.Aggregate:
		sql, p, err := c.compileAggregate(m, q)
		if err != nil {
			return nil, err
		}
		return &Compiled{SQL: sql, Args: c.params.Args(), Plan: p}, nil
	case queryast.GroupBy:
		sql, p, err := c.compileGroupBy(m, q)
		if err != nil {
			return nil, err
		}
		return &Compiled{SQL: sql, Args: c.params.Args(), Plan: p}, nil
	default:
		return nil, invalidArgument(c.pathString(), "unknown method %q", q.Method)
	}
}

// rootAlias returns the table alias a top-level (depth 0) query uses:
// the table name itself, for readable SQL.
func rootAlias(m *catalog.Model) string {
	return m.Table
}

// relationAlias returns a stable, collision-resistant alias for a
// correlated relation subquery at the given path.
func relationAlias(path string, depth int) string {
	return fmt.Sprintf("rel_%d_%s", depth, sanitizeAlias(path))
}

func sanitizeAlias(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
