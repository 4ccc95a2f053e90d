package types

import "strings"

// SyntheticIDPrefix marks stable identifiers minted for backend records
// that carried none. Rows keyed by a synthetic identifier are always
// treated as not-yet-synced and produce inserts.
const SyntheticIDPrefix = "mbx-new:"

// Row maps relational column names to canonical scalar values.
// Canonical value types are nil, string, int64, float64, bool,
// time.Time, and (for extra_data columns) map[string]any.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RowSet is an insertion-ordered mapping from stable identifier to Row.
// Iteration order is the order IDs were first added, which keeps diff
// output and dry-run previews reproducible for a given input.
type RowSet struct {
	ids  []string
	rows map[string]Row
}

// NewRowSet returns an empty RowSet.
func NewRowSet() *RowSet {
	return &RowSet{rows: make(map[string]Row)}
}

// Put adds a row under id. It returns false if the id is already present,
// leaving the existing row untouched.
func (s *RowSet) Put(id string, row Row) bool {
	if _, ok := s.rows[id]; ok {
		return false
	}
	s.ids = append(s.ids, id)
	s.rows[id] = row
	return true
}

// Get returns the row stored under id.
func (s *RowSet) Get(id string) (Row, bool) {
	row, ok := s.rows[id]
	return row, ok
}

// Has reports whether id is present.
func (s *RowSet) Has(id string) bool {
	_, ok := s.rows[id]
	return ok
}

// IDs returns the identifiers in insertion order. The returned slice is
// shared with the set and must not be modified.
func (s *RowSet) IDs() []string {
	return s.ids
}

// Len returns the number of rows.
func (s *RowSet) Len() int {
	return len(s.rows)
}

// IsSyntheticID reports whether id was minted by the normalizer for a
// record that had no stable identifier of its own.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}
