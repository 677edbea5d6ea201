// Package plan describes the reshaping plan a compilation produces
// alongside its SQL: how to walk a flat result row (or a decoded JSON
// relation object) back into the nested object the caller asked for.
// The compiler builds a Plan; the shaper (package shaper) interprets
// one. Plans carry no SQL and no driver types, so they can be tested in
// isolation from both.
package plan

// Plan describes one level of result shaping: the model being
// reconstructed, its scalar columns, its embedded relations, and (for
// aggregate/groupBy results) its aggregate outputs.
type Plan struct {
	Model string

	Columns    []ColumnPlan
	Relations  []RelationPlan
	Aggregates []AggregateOutput
	GroupKeys  []string

	// Unwrap controls how the shaper collapses this plan's row set into
	// the caller's result shape.
	Unwrap UnwrapMode
}

// ColumnPlan maps one result-row column back to a struct field name and
// the catalog type needed to coerce the driver value.
type ColumnPlan struct {
	Column    string
	Field     string
	FieldType string // catalog.FieldType, kept as string to avoid an import cycle with shaper's coercion table
}

// RelationShape distinguishes a to-one embedded relation (decoded from
// a single JSON object, possibly null) from a to-many one (decoded from
// a JSON array).
type RelationShape string

const (
	ShapeObject RelationShape = "object"
	ShapeArray  RelationShape = "array"
)

// RelationPlan describes one embedded relation: the JSON column it was
// aggregated into and the nested Plan for shaping each decoded element.
type RelationPlan struct {
	Field  string
	Column string
	Shape  RelationShape
	Nested *Plan
}

// AggregateOutput maps one aggregate result column to the dotted output
// key callers see (e.g. "_count._all", "_sum.amount").
type AggregateOutput struct {
	Column    string
	OutputKey string
	FieldType string
}

// UnwrapMode controls how a row set collapses into the method's result
// shape.
type UnwrapMode string

const (
	// UnwrapMany returns every row as an element of a slice (findMany).
	UnwrapMany UnwrapMode = "many"
	// UnwrapFirstOrNull returns the first row, or nil if there were none
	// (findFirst).
	UnwrapFirstOrNull UnwrapMode = "firstOrNull"
	// UnwrapUniqueOrNull is like UnwrapFirstOrNull; the compiler limits
	// the statement to one row (findUnique).
	UnwrapUniqueOrNull UnwrapMode = "uniqueOrNull"
	// UnwrapScalarCount returns a single integer read off the sole row
	// (count with no selected sub-fields).
	UnwrapScalarCount UnwrapMode = "scalarCount"
	// UnwrapSingleObject returns the sole row's aggregate outputs as one
	// object (aggregate).
	UnwrapSingleObject UnwrapMode = "singleObject"
	// UnwrapGroups returns every row as one group object keyed by
	// GroupKeys plus aggregate outputs (groupBy).
	UnwrapGroups UnwrapMode = "groups"
)
