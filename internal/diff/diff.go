// Package diff computes the ordered change set that converges a
// relational table to the backend's current records. It performs no I/O.
package diff

import (
	"encoding/json"
	"time"

	"github.com/mt-climate-office/mbxsync/internal/tables"
	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// Tables compares the normalized backend rows against the relational
// snapshot and returns the change set: all deletes, then all updates
// (each listing exactly the differing columns), then all inserts.
// Within each group, order follows the insertion order of the source
// RowSet. Identifiers present on both sides with no differing column
// generate no change and are tallied as unchanged.
func Tables(spec *tables.Spec, normalized, snapshot *types.RowSet) *types.ChangeSet {
	cs := &types.ChangeSet{Table: spec.Name}

	// Deletes follow snapshot order.
	for _, id := range snapshot.IDs() {
		if !normalized.Has(id) {
			old, _ := snapshot.Get(id)
			cs.Changes = append(cs.Changes, types.Change{Kind: types.ChangeDelete, ID: id, OldRow: old})
		}
	}

	// Updates follow normalized order.
	columns := spec.ColumnNames()
	for _, id := range normalized.IDs() {
		old, ok := snapshot.Get(id)
		if !ok {
			continue
		}
		next, _ := normalized.Get(id)
		changed := changedColumns(columns, old, next)
		if len(changed) == 0 {
			cs.Unchanged++
			continue
		}
		cs.Changes = append(cs.Changes, types.Change{
			Kind:    types.ChangeUpdate,
			ID:      id,
			OldRow:  old,
			NewRow:  next,
			Columns: changed,
		})
	}

	// Inserts follow normalized order.
	for _, id := range normalized.IDs() {
		if !snapshot.Has(id) {
			row, _ := normalized.Get(id)
			cs.Changes = append(cs.Changes, types.Change{Kind: types.ChangeInsert, ID: id, NewRow: row})
		}
	}

	return cs
}

// changedColumns returns the columns whose values differ, in declaration
// order.
func changedColumns(columns []string, old, next types.Row) []string {
	var changed []string
	for _, col := range columns {
		if !ValueEqual(old[col], next[col]) {
			changed = append(changed, col)
		}
	}
	return changed
}

// ValueEqual compares two canonical column values. It uses value
// equality after type coercion rather than string equality, so numeric
// and timestamp formatting differences between the backend and the store
// do not register as changes.
func ValueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}

	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	case map[string]any, []any:
		// Structured values: compare canonical JSON encodings.
		ja, errA := json.Marshal(a)
		jb, errB := json.Marshal(b)
		return errA == nil && errB == nil && string(ja) == string(jb)
	default:
		return a == b
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}
