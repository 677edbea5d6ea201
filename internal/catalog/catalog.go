// Package catalog implements the in-memory schema registry the compiler
// and shaper consult: models, their fields, and the relation edges
// between them. A Catalog is built once from pre-parsed schema data and
// is immutable and safe for concurrent reads for the life of the
// process.
package catalog

import "fmt"

// FieldType is the logical type tag of a scalar field.
type FieldType string

const (
	Int      FieldType = "Int"
	BigInt   FieldType = "BigInt"
	String   FieldType = "String"
	Bool     FieldType = "Bool"
	DateTime FieldType = "DateTime"
	Decimal  FieldType = "Decimal"
	Json     FieldType = "Json"
	Enum     FieldType = "Enum"
)

// RelationKind is the cardinality of a relation edge.
type RelationKind string

const (
	OneToOne   RelationKind = "OneToOne"
	OneToMany  RelationKind = "OneToMany"
	ManyToOne  RelationKind = "ManyToOne"
	ManyToMany RelationKind = "ManyToMany"
)

// Field describes a scalar column on a model.
type Field struct {
	Name     string      `json:"name"`
	Column   string      `json:"column"`
	Type     FieldType   `json:"type"`
	Nullable bool        `json:"nullable,omitempty"`
	List     bool        `json:"list,omitempty"`
	Default  interface{} `json:"default,omitempty"`
}

// Relation describes a directed edge from one model to another.
//
// For direct edges (OneToOne, OneToMany, ManyToOne) LocalKey and
// ReferencedKey give the join columns: LocalKey is the field on
// FromModel, ReferencedKey the field on ToModel it joins to. For
// ManyToMany, JoinTable/JoinLocalKey/JoinForeignKey describe the join
// table instead and LocalKey/ReferencedKey are empty.
//
// Inverse names the relation field on ToModel that points back at
// FromModel. It disambiguates when two relations connect the same pair
// of models (e.g. Post.author and Post.reviewer both targeting User).
type Relation struct {
	Name          string       `json:"name"`
	Kind          RelationKind `json:"kind"`
	FromModel     string       `json:"fromModel"`
	ToModel       string       `json:"toModel"`
	LocalKey      string       `json:"localKey,omitempty"`
	ReferencedKey string       `json:"referencedKey,omitempty"`

	JoinTable      string `json:"joinTable,omitempty"`
	JoinLocalKey   string `json:"joinLocalKey,omitempty"`
	JoinForeignKey string `json:"joinForeignKey,omitempty"`

	Inverse string `json:"inverse"`
}

// Model is a table plus its fields and relation edges.
type Model struct {
	Name       string     `json:"name"`
	Table      string     `json:"table"`
	Schema     string     `json:"schema,omitempty"` // optional schema qualifier, e.g. "public"
	Fields     []Field    `json:"fields"`
	Relations  []Relation `json:"relations,omitempty"`
	UniqueKeys [][]string `json:"uniqueKeys,omitempty"`

	fieldsByName    map[string]*Field
	relationsByName map[string]*Relation
}

// Catalog is the read-only, ordered registry of models.
type Catalog struct {
	order  []string
	models map[string]*Model
}

// New builds a Catalog from a list of models, indexing fields and
// relations for O(1) lookup. It does not validate cross-model
// invariants; call Validate for that.
func New(models []Model) *Catalog {
	c := &Catalog{
		order:  make([]string, 0, len(models)),
		models: make(map[string]*Model, len(models)),
	}
	for i := range models {
		m := models[i]
		m.fieldsByName = make(map[string]*Field, len(m.Fields))
		for j := range m.Fields {
			m.fieldsByName[m.Fields[j].Name] = &m.Fields[j]
		}
		m.relationsByName = make(map[string]*Relation, len(m.Relations))
		for j := range m.Relations {
			m.relationsByName[m.Relations[j].Name] = &m.Relations[j]
		}
		c.models[m.Name] = &m
		c.order = append(c.order, m.Name)
	}
	return c
}

// Models returns models in catalog declaration order.
func (c *Catalog) Models() []*Model {
	out := make([]*Model, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.models[name])
	}
	return out
}

// Model looks up a model by name.
func (c *Catalog) Model(name string) (*Model, error) {
	m, ok := c.models[name]
	if !ok {
		return nil, fmt.Errorf("model %q not found in catalog", name)
	}
	return m, nil
}

// Field looks up a field on a model by name.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.fieldsByName[name]
	return f, ok
}

// Relation looks up a relation edge on a model by name.
func (m *Model) Relation(name string) (*Relation, bool) {
	r, ok := m.relationsByName[name]
	return r, ok
}

// TableRef returns the schema-qualified table identifier components
// (schema may be empty).
func (m *Model) TableRef() (schema, table string) {
	return m.Schema, m.Table
}

// PrimaryKey returns the field of the model's first single-column
// unique key, if it declares one. Many-to-many join correlation has no
// LocalKey/ReferencedKey to anchor on (those are empty for that
// RelationKind), so it falls back to this instead.
func (m *Model) PrimaryKey() (*Field, bool) {
	for _, key := range m.UniqueKeys {
		if len(key) == 1 {
			return m.Field(key[0])
		}
	}
	return nil, false
}

// Validate checks the cross-model invariants spec.md §3 requires:
// every relation has exactly one inverse, and both directions of a
// relation agree on kind and on the columns they join through.
func (c *Catalog) Validate() error {
	for _, m := range c.models {
		for _, rel := range m.Relations {
			target, err := c.Model(rel.ToModel)
			if err != nil {
				return fmt.Errorf("relation %s.%s: target model %q not in catalog", m.Name, rel.Name, rel.ToModel)
			}
			if rel.Inverse == "" {
				return fmt.Errorf("relation %s.%s: missing inverse relation name", m.Name, rel.Name)
			}
			inv, ok := target.Relation(rel.Inverse)
			if !ok {
				return fmt.Errorf("relation %s.%s: inverse %q not found on %s", m.Name, rel.Name, rel.Inverse, rel.ToModel)
			}
			if inv.ToModel != m.Name {
				return fmt.Errorf("relation %s.%s: inverse %s.%s does not point back at %s", m.Name, rel.Name, rel.ToModel, rel.Inverse, m.Name)
			}
			if !kindsAgree(rel.Kind, inv.Kind) {
				return fmt.Errorf("relation %s.%s (%s) and inverse %s.%s (%s) disagree on cardinality", m.Name, rel.Name, rel.Kind, rel.ToModel, rel.Inverse, inv.Kind)
			}
			if rel.Kind == ManyToMany {
				if rel.JoinTable != inv.JoinTable {
					return fmt.Errorf("relation %s.%s and inverse disagree on join table", m.Name, rel.Name)
				}
			} else if rel.LocalKey != "" && inv.ReferencedKey != "" && rel.LocalKey != inv.ReferencedKey {
				return fmt.Errorf("relation %s.%s and inverse disagree on referenced columns", m.Name, rel.Name)
			}
		}
	}
	return nil
}

func kindsAgree(a, b RelationKind) bool {
	switch a {
	case OneToOne:
		return b == OneToOne
	case OneToMany:
		return b == ManyToOne
	case ManyToOne:
		return b == OneToMany
	case ManyToMany:
		return b == ManyToMany
	}
	return false
}
