package queryast

// Filter is a boolean expression tree. Exactly one of the fields on a
// given Filter is meaningful at a time: a combinator (And/Or holding
// child filters, Not holding a single child) or a leaf (Leaf for a
// scalar comparison, Relation for a relation quantifier).
type Filter struct {
	And []*Filter `json:"and,omitempty"`
	Or  []*Filter `json:"or,omitempty"`
	Not *Filter   `json:"not,omitempty"`

	Leaf     *Leaf         `json:"leaf,omitempty"`
	Relation *RelationLeaf `json:"relation,omitempty"`
}

// Leaf is a single scalar field comparison.
type Leaf struct {
	Field string    `json:"field"`
	Op    CompareOp `json:"op"`

	// Value holds the comparand for single-value operators. In holds
	// the comparand list for In/NotIn. Mode and Insensitive apply to
	// Contains/StartsWith/EndsWith.
	Value       interface{}   `json:"value,omitempty"`
	In          []interface{} `json:"in,omitempty"`
	Mode        MatchMode     `json:"mode,omitempty"`
	Insensitive bool          `json:"insensitive,omitempty"`
}

// CompareOp is a scalar comparison operator.
type CompareOp string

const (
	OpEquals     CompareOp = "equals"
	OpNot        CompareOp = "not"
	OpIn         CompareOp = "in"
	OpNotIn      CompareOp = "notIn"
	OpLT         CompareOp = "lt"
	OpLTE        CompareOp = "lte"
	OpGT         CompareOp = "gt"
	OpGTE        CompareOp = "gte"
	OpContains   CompareOp = "contains"
	OpStartsWith CompareOp = "startsWith"
	OpEndsWith   CompareOp = "endsWith"
	OpIsNull     CompareOp = "isNull"
)

// MatchMode selects case-sensitive or case-insensitive matching for the
// text-matching operators; unused by non-text operators.
type MatchMode string

const (
	MatchDefault     MatchMode = ""
	MatchInsensitive MatchMode = "insensitive"
)

// RelationLeaf is a relation quantifier: "does at least one / no /
// every related row match the nested filter".
type RelationLeaf struct {
	Relation   string     `json:"relation"`
	Quantifier Quantifier `json:"quantifier"`
	Where      *Filter    `json:"where,omitempty"` // nil means "any related row exists", used with Some/None
}

// Quantifier is a relation-filter quantifier.
type Quantifier string

const (
	QuantSome  Quantifier = "some"
	QuantEvery Quantifier = "every"
	QuantNone  Quantifier = "none"
)

// Having mirrors Filter but its leaves compare aggregate outputs
// instead of scalar columns, for groupBy's HAVING clause.
type Having struct {
	And []*Having `json:"and,omitempty"`
	Or  []*Having `json:"or,omitempty"`
	Not *Having   `json:"not,omitempty"`

	Leaf *HavingLeaf `json:"leaf,omitempty"`
}

// HavingLeaf compares one aggregate output against a value.
type HavingLeaf struct {
	Aggregate AggregateSpec `json:"aggregate"`
	Op        CompareOp     `json:"op"`
	Value     interface{}   `json:"value,omitempty"`
	In        []interface{} `json:"in,omitempty"`
}
