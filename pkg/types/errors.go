package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	ErrUnknownTable = errors.New("unknown table")
	ErrDuplicateID  = errors.New("duplicate stable identifier")
	ErrNoIDColumn   = errors.New("table has no stable identifier column")
)

// NormalizeError reports bad input data while converting backend records
// to normalized rows. Fatal for the affected table only.
type NormalizeError struct {
	Table  string
	Record string // backend record identifier, when known
	Column string // relational column, when the failure is column-scoped
	Err    error
}

func (e *NormalizeError) Error() string {
	msg := fmt.Sprintf("normalize %s", e.Table)
	if e.Record != "" {
		msg += fmt.Sprintf(" record %q", e.Record)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	return msg + ": " + e.Err.Error()
}

func (e *NormalizeError) Unwrap() error { return e.Err }

// SnapshotError reports a schema mismatch or read failure while loading
// the relational snapshot. Fatal for the affected table only.
type SnapshotError struct {
	Table string
	Err   error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot %s: %v", e.Table, e.Err)
}

func (e *SnapshotError) Unwrap() error { return e.Err }

// BackendError reports a failed or incomplete fetch from the inventory
// backend. Fatal for the affected table only: a truncated fetch must
// never reach the diff engine, where it would manufacture deletes.
type BackendError struct {
	Backend string
	Table   string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s table %s: %v", e.Backend, e.Table, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// ConfigurationError reports an invalid configuration. It aborts the run
// before any table sync starts.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
