// Package normalize converts raw backend records into typed rows keyed by
// stable identifier, applying per-table field mappings, type coercion,
// and documented defaults. It is a pure transform with no I/O.
package normalize

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/mt-climate-office/mbxsync/internal/tables"
	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// Records normalizes raw backend records for one table. The returned
// RowSet preserves fetch order, so diff output is reproducible for a
// given input. Records lacking a stable identifier are keyed by a
// synthetic transient identifier and therefore always insert. A duplicate
// stable identifier or an unrecoverable type mismatch returns a
// *types.NormalizeError, fatal for this table only.
func Records(spec *tables.Spec, raw []types.RawRecord) (*types.RowSet, error) {
	if spec.IDColumn == "" {
		return nil, &types.NormalizeError{Table: spec.Name, Err: types.ErrNoIDColumn}
	}
	set := types.NewRowSet()

	idField := spec.FieldMap[spec.IDColumn]
	if idField == "" {
		idField = types.RecordIDField
	}

	for i, record := range raw {
		id, ok := record[idField].(string)
		if !ok || id == "" {
			id = syntheticID()
		}

		row, err := normalizeRecord(spec, record)
		if err != nil {
			if ne, ok := err.(*types.NormalizeError); ok {
				ne.Table = spec.Name
				if ne.Record == "" {
					ne.Record = recordLabel(id, i)
				}
				return nil, ne
			}
			return nil, &types.NormalizeError{Table: spec.Name, Record: recordLabel(id, i), Err: err}
		}
		row[spec.IDColumn] = id

		if !set.Put(id, row) {
			return nil, &types.NormalizeError{
				Table:  spec.Name,
				Record: id,
				Err:    fmt.Errorf("%w: two backend records map to %q", types.ErrDuplicateID, id),
			}
		}
	}
	return set, nil
}

// normalizeRecord maps and coerces a single record into a Row.
func normalizeRecord(spec *tables.Spec, record types.RawRecord) (types.Row, error) {
	row := make(types.Row, len(spec.Columns)+1)

	for _, col := range spec.Columns {
		field := spec.BackendField(col.Name)
		value, present := record[field]
		if !present || isEmpty(value) {
			if col.Required {
				return nil, &types.NormalizeError{
					Column: col.Name,
					Err:    fmt.Errorf("required backend field %q is absent or empty", field),
				}
			}
			row[col.Name] = col.Default
			continue
		}

		coerced, err := Coerce(value, col.Kind)
		if err != nil {
			return nil, &types.NormalizeError{Column: col.Name, Err: err}
		}
		if len(col.Enum) > 0 {
			s, _ := coerced.(string)
			if !slices.Contains(col.Enum, s) {
				return nil, &types.NormalizeError{
					Column: col.Name,
					Err:    fmt.Errorf("value %q not in %v", s, col.Enum),
				}
			}
		}
		row[col.Name] = coerced
	}

	if spec.ExtraData {
		row[tables.ExtraDataColumn] = extraFields(spec, record)
	}
	return row, nil
}

// extraFields collects backend fields that feed no declared column.
func extraFields(spec *tables.Spec, record types.RawRecord) any {
	mapped := make(map[string]bool, len(spec.Columns)+1)
	mapped[types.RecordIDField] = true
	if f := spec.FieldMap[spec.IDColumn]; f != "" {
		mapped[f] = true
	}
	for _, col := range spec.Columns {
		mapped[spec.BackendField(col.Name)] = true
	}

	var extra map[string]any
	for field, value := range record {
		if mapped[field] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[field] = value
	}
	if extra == nil {
		return nil
	}
	return extra
}

// isEmpty reports whether a backend value counts as absent.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// syntheticID mints a transient identifier for a record that carried no
// stable identifier. The prefix keeps it disjoint from any backend key.
func syntheticID() string {
	return types.SyntheticIDPrefix + uuid.Must(uuid.NewV7()).String()
}

// recordLabel names a record for error messages: its identifier when the
// backend assigned one, otherwise its position in the fetch.
func recordLabel(id string, index int) string {
	if types.IsSyntheticID(id) {
		return fmt.Sprintf("#%d", index)
	}
	return id
}
