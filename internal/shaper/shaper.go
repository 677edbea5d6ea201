// Package shaper reconstructs nested objects from the flat rows a
// compiled query returns, using the plan.Plan the compiler produced
// alongside it. Shaping is pure: it only reads rows already materialized
// in memory and a plan value, doing no I/O of its own.
package shaper

import (
	"encoding/json"
	"strconv"

	"github.com/queryforge/queryforge/internal/debug"
	"github.com/queryforge/queryforge/internal/plan"
)

// Row is one flat result row: column name (as aliased by the compiler)
// to the driver's raw scanned value.
type Row map[string]interface{}

// Shape reconstructs a method's result from its rows according to p,
// applying p.Unwrap to decide the final shape.
func Shape(p *plan.Plan, rows []Row) (interface{}, error) {
	debug.With("component", "shaper", "model", p.Model, "unwrap", p.Unwrap).Debug("shaping rows", "count", len(rows))
	switch p.Unwrap {
	case plan.UnwrapMany:
		out := make([]map[string]interface{}, 0, len(rows))
		for i, row := range rows {
			shaped, err := shapeObject(p, row, pathIndex(i))
			if err != nil {
				return nil, err
			}
			out = append(out, shaped)
		}
		return out, nil

	case plan.UnwrapFirstOrNull, plan.UnwrapUniqueOrNull:
		if len(rows) == 0 {
			return nil, nil
		}
		return shapeObject(p, rows[0], "0")

	case plan.UnwrapScalarCount:
		if len(rows) == 0 {
			return int64(0), nil
		}
		if len(p.Aggregates) == 0 {
			return nil, newErr("", "scalar count plan has no aggregate output")
		}
		col := p.Aggregates[0].Column
		v, err := coerce("BigInt", rows[0][col])
		if err != nil {
			return nil, wrapErr(col, err)
		}
		return v, nil

	case plan.UnwrapSingleObject:
		if len(rows) == 0 {
			return map[string]interface{}{}, nil
		}
		return shapeAggregates(p, rows[0], "0")

	case plan.UnwrapGroups:
		out := make([]map[string]interface{}, 0, len(rows))
		for i, row := range rows {
			group := make(map[string]interface{}, len(p.GroupKeys)+len(p.Aggregates))
			for _, key := range p.GroupKeys {
				group[key] = row[key]
			}
			aggs, err := shapeAggregates(p, row, pathIndex(i))
			if err != nil {
				return nil, err
			}
			for k, v := range aggs {
				group[k] = v
			}
			out = append(out, group)
		}
		return out, nil

	default:
		return nil, newErr("", "unknown unwrap mode %q", p.Unwrap)
	}
}

func shapeAggregates(p *plan.Plan, row Row, path string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(p.Aggregates))
	for _, a := range p.Aggregates {
		v, err := coerce(a.FieldType, row[a.Column])
		if err != nil {
			return nil, wrapErr(path+"."+a.OutputKey, err)
		}
		out[a.OutputKey] = v
	}
	return out, nil
}

// shapeObject shapes one row (or, recursively, one decoded JSON
// relation element) into the object p describes: scalar columns
// coerced to their logical type, plus one entry per embedded relation.
func shapeObject(p *plan.Plan, obj map[string]interface{}, path string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(p.Columns)+len(p.Relations))

	for _, cp := range p.Columns {
		v, err := coerce(cp.FieldType, obj[cp.Column])
		if err != nil {
			return nil, wrapErr(path+"."+cp.Field, err)
		}
		out[cp.Field] = v
	}

	for _, rp := range p.Relations {
		shaped, err := shapeRelation(rp, obj[rp.Column], path+"."+rp.Field)
		if err != nil {
			return nil, err
		}
		out[rp.Field] = shaped
	}

	return out, nil
}

func shapeRelation(rp plan.RelationPlan, raw interface{}, path string) (interface{}, error) {
	decoded, err := decodeJSON(raw, path)
	if err != nil {
		return nil, err
	}

	switch rp.Shape {
	case plan.ShapeObject:
		if decoded == nil {
			return nil, nil
		}
		obj, ok := decoded.(map[string]interface{})
		if !ok {
			return nil, newErr(path, "expected a JSON object, got %T", decoded)
		}
		return shapeObject(rp.Nested, obj, path)

	case plan.ShapeArray:
		if decoded == nil {
			return []map[string]interface{}{}, nil
		}
		arr, ok := decoded.([]interface{})
		if !ok {
			return nil, newErr(path, "expected a JSON array, got %T", decoded)
		}
		out := make([]map[string]interface{}, 0, len(arr))
		for i, el := range arr {
			obj, ok := el.(map[string]interface{})
			if !ok {
				return nil, newErr(pathIndexOf(path, i), "expected a JSON object element, got %T", el)
			}
			shaped, err := shapeObject(rp.Nested, obj, pathIndexOf(path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, shaped)
		}
		return out, nil

	default:
		return nil, newErr(path, "unknown relation shape %q", rp.Shape)
	}
}

// decodeJSON turns a raw driver relation value into a generic JSON
// value. Postgres and SQLite drivers surface JSON/JSONB columns as
// string or []byte; a value that already decoded (nested relations
// inside an outer JSON blob) is passed through unchanged.
func decodeJSON(raw interface{}, path string) (interface{}, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}, []interface{}:
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		var out interface{}
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, wrapErr(path, err)
		}
		return out, nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		var out interface{}
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, wrapErr(path, err)
		}
		return out, nil
	default:
		return nil, newErr(path, "unsupported relation column representation %T", raw)
	}
}

func pathIndex(i int) string {
	return pathIndexOf("", i)
}

func pathIndexOf(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}
