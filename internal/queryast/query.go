// Package queryast defines the recursive query description the compiler
// consumes: the read-shaped operations, filter grammar, projection,
// ordering, pagination, and aggregation/grouping documents from spec.md
// §3. Each variant is a tagged struct; the compiler pattern-matches on
// these instead of using dynamic dispatch.
package queryast

// Method is one of the read-shaped operations the core compiles.
type Method string

const (
	FindMany   Method = "findMany"
	FindFirst  Method = "findFirst"
	FindUnique Method = "findUnique"
	Count      Method = "count"
	Aggregate  Method = "aggregate"
	GroupBy    Method = "groupBy"
)

// Query is the top-level, recursive query description.
type Query struct {
	Model  string `json:"model,omitempty"`
	Method Method `json:"method,omitempty"`

	Where *Filter `json:"where,omitempty"`

	// Select and Include are mutually exclusive at a given level
	// (enforced by the compiler's projection planner, InvalidArgument
	// otherwise). A nil map means "no restriction": all scalars, no
	// relations for Select; all scalars plus no additions for Include.
	Select  map[string]*Projection `json:"select,omitempty"`
	Include map[string]*Projection `json:"include,omitempty"`

	OrderBy  []OrderTerm            `json:"orderBy,omitempty"`
	Take     *int                   `json:"take,omitempty"`
	Skip     *int                   `json:"skip,omitempty"`
	Cursor   map[string]interface{} `json:"cursor,omitempty"`
	Distinct []string               `json:"distinct,omitempty"`

	// Aggregations and By/Having apply to Aggregate and GroupBy
	// respectively.
	Aggregations []AggregateSpec `json:"aggregations,omitempty"`
	By           []string        `json:"by,omitempty"`
	Having       *Having         `json:"having,omitempty"`
}

// Projection is the value side of a select/include map entry: either a
// bare inclusion (Nested == nil) or a nested query controlling the
// related model's own projection, filter, ordering, and pagination.
type Projection struct {
	Nested *Query `json:"nested,omitempty"`
}

// True returns a Projection equivalent to the shorthand `field: true`.
func True() *Projection { return &Projection{} }

// With returns a Projection carrying a nested query, equivalent to
// `relation: { where: ..., select: ..., take: ... }`.
func With(q *Query) *Projection { return &Projection{Nested: q} }

// OrderTerm is one (field, direction) pair in an ORDER BY list.
type OrderTerm struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// AggregateFunc is one of the supported aggregate functions.
type AggregateFunc string

const (
	FuncCount AggregateFunc = "_count"
	FuncSum   AggregateFunc = "_sum"
	FuncAvg   AggregateFunc = "_avg"
	FuncMin   AggregateFunc = "_min"
	FuncMax   AggregateFunc = "_max"
)

// AggregateSpec is one aggregate to compute. A Count with All set and
// Field empty is the `_count: {_all: true}` pseudo-field (COUNT(*));
// any other AggregateSpec names a scalar Field.
type AggregateSpec struct {
	Func  AggregateFunc `json:"func"`
	Field string        `json:"field,omitempty"`
	All   bool          `json:"all,omitempty"`
}

// OutputKey is the dotted output name the shaper and the concrete
// scenarios in spec.md §8 use, e.g. "_count._all" or "_sum.position".
func (a AggregateSpec) OutputKey() string {
	if a.All {
		return string(a.Func) + "._all"
	}
	return string(a.Func) + "." + a.Field
}
