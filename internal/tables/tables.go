// Package tables defines the fixed registry of inventory tables mirrored
// into the relational store: column specifications, stable-identifier
// columns, default backend field mappings, and inter-table dependencies.
package tables

import (
	"fmt"

	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// Kind is the relational type of a column. The normalizer coerces raw
// backend values to the canonical Go value for the kind.
type Kind string

// Column kinds.
const (
	KindText  Kind = "text"
	KindInt   Kind = "integer"
	KindFloat Kind = "float"
	KindBool  Kind = "boolean"
	KindDate  Kind = "date"
	KindTime  Kind = "timestamp"
	KindJSON  Kind = "json"
)

// Column describes one relational column of a mirrored table.
type Column struct {
	Name     string
	Kind     Kind
	Required bool
	// Default is the documented value used when the backend field is
	// absent or empty and the column is not required. A nil Default
	// stores SQL NULL.
	Default any
	// Enum restricts the column to a fixed value set when non-empty.
	Enum []string
}

// Spec describes one mirrored table.
type Spec struct {
	// Name is the relational table name.
	Name string
	// BackendTable is the default table name on the no-code backend;
	// configuration may override it per deployment.
	BackendTable string
	// IDColumn holds the stable identifier: the backend record key
	// persisted as a relational column.
	IDColumn string
	// Columns lists the data columns, excluding IDColumn.
	Columns []Column
	// FieldMap maps column name to backend field name. Columns absent
	// from the map use their own name as the backend field.
	FieldMap map[string]string
	// DependsOn names tables that must sync before this one.
	DependsOn []string
	// ExtraData, when true, collects unmapped backend fields into the
	// extra_data JSON column.
	ExtraData bool
}

// ExtraDataColumn is the JSON column receiving unmapped backend fields.
const ExtraDataColumn = "extra_data"

// BackendField returns the backend field name feeding the given column.
func (s *Spec) BackendField(column string) string {
	if f, ok := s.FieldMap[column]; ok {
		return f
	}
	return column
}

// Column returns the column spec with the given name.
func (s *Spec) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the data column names in declaration order, with
// extra_data appended when the table collects it.
func (s *Spec) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns)+1)
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	if s.ExtraData {
		names = append(names, ExtraDataColumn)
	}
	return names
}

// Registry holds the mirrored table specs in registration order.
type Registry struct {
	order []string
	specs map[string]*Spec
}

// NewRegistry builds a registry from specs, preserving order.
func NewRegistry(specs ...*Spec) *Registry {
	r := &Registry{specs: make(map[string]*Spec, len(specs))}
	for _, s := range specs {
		r.order = append(r.order, s.Name)
		r.specs[s.Name] = s
	}
	return r
}

// Get returns the spec for the named table.
// Returns types.ErrUnknownTable if the name is not registered.
func (r *Registry) Get(name string) (*Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownTable, name)
	}
	return s, nil
}

// Names returns all registered table names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Has reports whether the named table is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.specs[name]
	return ok
}
