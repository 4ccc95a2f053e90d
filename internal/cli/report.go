package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// renderReport writes the per-table run report: a line-per-table summary
// in text mode, or the full results document with --json.
func renderReport(w io.Writer, order []string, results map[string]*types.SyncResult, jsonMode bool) error {
	if jsonMode {
		doc := make([]*types.SyncResult, 0, len(order))
		for _, name := range order {
			if r, ok := results[name]; ok {
				doc = append(doc, r)
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	for _, name := range order {
		r, ok := results[name]
		if !ok {
			continue
		}
		switch r.Status {
		case types.StatusSkipped:
			fmt.Fprintf(w, "%-20s skipped\n", name)
		case types.StatusFailed:
			fmt.Fprintf(w, "%-20s FAILED: %s\n", name, r.Reason)
		default:
			line := fmt.Sprintf("%-20s +%d ~%d -%d =%d", name, r.Inserted, r.Updated, r.Deleted, r.Unchanged)
			if r.DryRun {
				deletes, updates, inserts := countKinds(r.Attempted)
				line = fmt.Sprintf("%-20s would delete %d, update %d, insert %d (%d unchanged)",
					name, deletes, updates, inserts, r.Unchanged)
			}
			if n := r.FailedChanges(); n > 0 {
				line += fmt.Sprintf("  (%d change(s) failed)", n)
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

func countKinds(changes []types.Change) (deletes, updates, inserts int) {
	for _, c := range changes {
		switch c.Kind {
		case types.ChangeDelete:
			deletes++
		case types.ChangeUpdate:
			updates++
		case types.ChangeInsert:
			inserts++
		}
	}
	return deletes, updates, inserts
}
