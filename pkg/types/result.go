package types

import "time"

// TableStatus is the terminal state of one table's sync.
type TableStatus string

// Terminal table states. Every table passed to a run ends in exactly one.
const (
	StatusDone    TableStatus = "done"
	StatusFailed  TableStatus = "failed"
	StatusSkipped TableStatus = "skipped"
)

// BatchFailure records one batch (or one change, when the applier fell
// back to per-change application) that could not be applied.
type BatchFailure struct {
	Batch    int      `json:"batch"`
	Changes  []Change `json:"changes"`
	Error    string   `json:"error"`
	Attempts int      `json:"attempts"`
}

// SyncResult reports the outcome of one table's sync. Attempted always
// holds the full change list the run computed, in dry-run mode too; the
// counts reflect rows actually applied and are zero under dry-run.
type SyncResult struct {
	Table  string      `json:"table"`
	Status TableStatus `json:"status"`
	DryRun bool        `json:"dry_run"`

	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`

	Attempted []Change       `json:"attempted"`
	Failures  []BatchFailure `json:"failures,omitempty"`

	// Reason holds the fatal per-table error message when Status is
	// StatusFailed.
	Reason string `json:"reason,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Failed reports whether the table sync ended in StatusFailed.
func (r *SyncResult) Failed() bool {
	return r.Status == StatusFailed
}

// Applied returns the total number of rows actually mutated.
func (r *SyncResult) Applied() int {
	return r.Inserted + r.Updated + r.Deleted
}

// FailedChanges returns the number of changes enumerated in Failures.
func (r *SyncResult) FailedChanges() int {
	n := 0
	for _, f := range r.Failures {
		n += len(f.Changes)
	}
	return n
}
