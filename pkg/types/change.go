package types

// ChangeKind is the type for change kinds.
type ChangeKind string

// Change kinds, in apply order.
const (
	ChangeDelete ChangeKind = "delete"
	ChangeUpdate ChangeKind = "update"
	ChangeInsert ChangeKind = "insert"
)

// Change is one convergence operation for a single stable identifier.
// Exactly one of the row fields is meaningful per kind: inserts carry
// NewRow, deletes carry OldRow, updates carry both plus the non-empty
// list of columns that differ.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	ID      string     `json:"id"`
	OldRow  Row        `json:"old_row,omitempty"`
	NewRow  Row        `json:"new_row,omitempty"`
	Columns []string   `json:"changed_columns,omitempty"`
}

// ChangeSet is the ordered sequence of Changes needed to converge one
// relational table to the backend's current state: all deletes, then all
// updates, then all inserts. Within each group, order follows the
// insertion order of the source RowSet.
type ChangeSet struct {
	Table   string   `json:"table"`
	Changes []Change `json:"changes"`

	// Unchanged counts identifiers present on both sides with no
	// differing column; they generate no Change.
	Unchanged int `json:"unchanged"`
}

// Len returns the number of changes.
func (cs *ChangeSet) Len() int {
	return len(cs.Changes)
}

// Empty reports whether the set contains no changes.
func (cs *ChangeSet) Empty() bool {
	return len(cs.Changes) == 0
}

// Counts returns the number of deletes, updates, and inserts.
func (cs *ChangeSet) Counts() (deletes, updates, inserts int) {
	for _, c := range cs.Changes {
		switch c.Kind {
		case ChangeDelete:
			deletes++
		case ChangeUpdate:
			updates++
		case ChangeInsert:
			inserts++
		}
	}
	return deletes, updates, inserts
}

// Batches partitions the change set into consecutive batches of at most
// size changes, preserving order across batch boundaries. A size of zero
// or less yields a single batch containing every change.
func (cs *ChangeSet) Batches(size int) [][]Change {
	if len(cs.Changes) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]Change{cs.Changes}
	}
	var out [][]Change
	for start := 0; start < len(cs.Changes); start += size {
		end := start + size
		if end > len(cs.Changes) {
			end = len(cs.Changes)
		}
		out = append(out, cs.Changes[start:end])
	}
	return out
}
