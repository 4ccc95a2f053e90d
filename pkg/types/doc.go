// Package types defines the shared data model for the mbxsync
// reconciliation engine: normalized rows, change sets, per-table sync
// results, and the error taxonomy used across the pipeline.
package types
