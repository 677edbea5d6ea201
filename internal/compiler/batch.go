package compiler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/queryforge/queryforge/internal/catalog"
	"github.com/queryforge/queryforge/internal/dialect"
	"github.com/queryforge/queryforge/internal/plan"
	"github.com/queryforge/queryforge/internal/queryast"
)

// BatchItem is one named query to fuse into a batch statement. Key is
// caller-chosen and is how BatchCompiled.Plans and the shaper's batch
// demultiplexer report results back per query.
type BatchItem struct {
	Key   string
	Query *queryast.Query
}

// BatchCompiled is the output of CompileBatch: one fused statement that
// returns a (batch_key, result) row per item, where result is a JSON
// array of that item's rows.
type BatchCompiled struct {
	SQL   string
	Args  []interface{}
	Plans map[string]*plan.Plan
}

// CompileBatch fuses many independently-described queries into a
// single PostgreSQL statement using one CTE per item: each item's rows
// are JSON-aggregated and tagged with its key, then unioned. SQLite has
// no such combinator (SupportsBatch reports false) so a non-empty item
// list returns an Unsupported error. An empty item list is not an
// error for any dialect: it compiles to an empty result with no SQL to
// run.
func CompileBatch(cat *catalog.Catalog, dia dialect.Dialect, items []BatchItem, opts Options) (*BatchCompiled, error) {
	if len(items) == 0 {
		return &BatchCompiled{Plans: map[string]*plan.Plan{}}, nil
	}
	if !dia.SupportsBatch() {
		return nil, unsupported("batch", "dialect %q does not support batched CTE queries", dia.Name())
	}

	maxDepth := opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}

	fused := dialect.NewParamVector(dia)
	plans := make(map[string]*plan.Plan, len(items))
	var ctes []string
	var unions []string

	for i, item := range items {
		itemCtx := &ctx{
			cat:      cat,
			dia:      dia,
			params:   dialect.NewParamVector(dia),
			maxDepth: maxDepth,
			path:     []string{fmt.Sprintf("batch[%s]", item.Key)},
		}
		compiled, err := itemCtx.compileTop(item.Query)
		if err != nil {
			return nil, err
		}

		rowsName := fmt.Sprintf("b%d_rows", i)
		aggName := fmt.Sprintf("b%d", i)

		offset := fused.Rebase(compiled.Args)
		itemSQL := shiftPlaceholders(dia, compiled.SQL, offset)

		ctes = append(ctes, fmt.Sprintf("%s AS (%s)", rowsName, itemSQL))
		ctes = append(ctes, fmt.Sprintf(
			"%s AS (SELECT %s AS result FROM %s)",
			aggName,
			dia.JSONArrayAgg("ROW_TO_JSON("+rowsName+")", ""),
			rowsName,
		))

		keyLiteral := "'" + strings.ReplaceAll(item.Key, "'", "''") + "'"
		unions = append(unions, fmt.Sprintf("SELECT %s AS batch_key, result FROM %s", keyLiteral, aggName))

		plans[item.Key] = compiled.Plan
	}

	sql := "WITH " + strings.Join(ctes, ", ") + " " + strings.Join(unions, " UNION ALL ")
	return &BatchCompiled{SQL: sql, Args: fused.Args(), Plans: plans}, nil
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// shiftPlaceholders rewrites a sub-statement's own $N placeholders to
// account for it being appended after offset earlier parameters in the
// fused statement's shared vector. A no-op for dialects without
// positional placeholders (SQLite never reaches here: SupportsBatch is
// false for it).
func shiftPlaceholders(dia dialect.Dialect, sql string, offset int) string {
	if offset == 0 {
		return sql
	}
	return placeholderRe.ReplaceAllStringFunc(sql, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil {
			return m
		}
		return dia.Placeholder(n + offset)
	})
}
