// Package apply executes change sets against the relational store in
// bounded batches. Each batch is one transaction: it commits completely
// or not at all. Transient failures are retried per an injected policy;
// exhausted or permanent failures are recorded in the result and
// processing continues with the next batch.
package apply

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mt-climate-office/mbxsync/internal/store"
	"github.com/mt-climate-office/mbxsync/internal/tables"
	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// Options configures one Apply call.
type Options struct {
	// BatchSize caps changes per transaction; zero or less applies the
	// whole set in one batch.
	BatchSize int
	// DryRun reports the change set without opening a transaction.
	DryRun bool
}

// Applier applies change sets to one relational store.
type Applier struct {
	store  *store.Store
	policy Policy
	logger *slog.Logger
}

// New creates an Applier. A nil logger uses slog.Default.
func New(s *store.Store, policy Policy, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{store: s, policy: policy, logger: logger}
}

// Apply partitions the change set into batches and applies them in
// order. The returned result always carries the full attempted change
// list; in dry-run mode nothing is applied and all counts are zero.
// Cancellation stops before the next batch starts; an in-flight batch
// commits or rolls back atomically.
func (a *Applier) Apply(ctx context.Context, spec *tables.Spec, cs *types.ChangeSet, opts Options) *types.SyncResult {
	result := &types.SyncResult{
		Table:     spec.Name,
		DryRun:    opts.DryRun,
		Unchanged: cs.Unchanged,
		Attempted: cs.Changes,
		StartedAt: time.Now().UTC(),
	}
	defer func() { result.CompletedAt = time.Now().UTC() }()

	if opts.DryRun {
		deletes, updates, inserts := cs.Counts()
		a.logger.Info("dry run computed",
			"table", spec.Name, "deletes", deletes, "updates", updates, "inserts", inserts,
			"unchanged", cs.Unchanged)
		return result
	}

	batches := cs.Batches(opts.BatchSize)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			// Enumerate everything not attempted so nothing is
			// silently dropped.
			for j := i; j < len(batches); j++ {
				result.Failures = append(result.Failures, types.BatchFailure{
					Batch:   j + 1,
					Changes: batches[j],
					Error:   fmt.Sprintf("not started: %v", err),
				})
			}
			a.logger.Warn("apply canceled", "table", spec.Name, "batches_remaining", len(batches)-i)
			return result
		}
		a.applyBatch(ctx, spec, i+1, batch, result)
	}
	return result
}

// applyBatch runs one batch with retry, falling back to per-change
// transactions on a permanent failure so only the offending changes are
// recorded as failed.
func (a *Applier) applyBatch(ctx context.Context, spec *tables.Spec, num int, batch []types.Change, result *types.SyncResult) {
	bo := a.policy.NewBackOff()
	for attempt := 1; ; attempt++ {
		err := a.runTx(ctx, spec, batch)
		if err == nil {
			countChanges(result, batch)
			return
		}

		if !a.policy.IsTransient(err) {
			a.logger.Warn("batch failed permanently, retrying row by row",
				"table", spec.Name, "batch", num, "error", err)
			a.applyRowByRow(ctx, spec, num, batch, attempt, result)
			return
		}
		if attempt >= a.policy.attempts() {
			a.logger.Error("batch failed after retries",
				"table", spec.Name, "batch", num, "attempts", attempt, "error", err)
			result.Failures = append(result.Failures, types.BatchFailure{
				Batch:    num,
				Changes:  batch,
				Error:    err.Error(),
				Attempts: attempt,
			})
			return
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			wait = 0
		}
		a.logger.Debug("retrying batch",
			"table", spec.Name, "batch", num, "attempt", attempt, "wait", wait)
		select {
		case <-ctx.Done():
			result.Failures = append(result.Failures, types.BatchFailure{
				Batch:    num,
				Changes:  batch,
				Error:    fmt.Sprintf("canceled during retry: %v", ctx.Err()),
				Attempts: attempt,
			})
			return
		case <-time.After(wait):
		}
	}
}

// applyRowByRow applies each change of a permanently failed batch in its
// own transaction, recording exactly the changes that fail.
func (a *Applier) applyRowByRow(ctx context.Context, spec *tables.Spec, num int, batch []types.Change, attempts int, result *types.SyncResult) {
	for _, change := range batch {
		if err := a.runTx(ctx, spec, []types.Change{change}); err != nil {
			result.Failures = append(result.Failures, types.BatchFailure{
				Batch:    num,
				Changes:  []types.Change{change},
				Error:    err.Error(),
				Attempts: attempts,
			})
			continue
		}
		countChanges(result, []types.Change{change})
	}
}

// runTx applies a batch inside a single transaction.
func (a *Applier) runTx(ctx context.Context, spec *tables.Spec, batch []types.Change) error {
	tx, err := a.store.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, change := range batch {
		if err := a.execChange(ctx, tx, spec, change); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func (a *Applier) execChange(ctx context.Context, tx *sql.Tx, spec *tables.Spec, change types.Change) error {
	switch change.Kind {
	case types.ChangeDelete:
		return a.execDelete(ctx, tx, spec, change)
	case types.ChangeUpdate:
		return a.execUpdate(ctx, tx, spec, change)
	case types.ChangeInsert:
		return a.execInsert(ctx, tx, spec, change)
	default:
		return fmt.Errorf("unknown change kind %q", change.Kind)
	}
}

func (a *Applier) execDelete(ctx context.Context, tx *sql.Tx, spec *tables.Spec, change types.Change) error {
	d := a.store.Dialect
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		a.store.TableRef(spec.Name), d.Quote(spec.IDColumn), d.Placeholder(1))
	res, err := tx.ExecContext(ctx, query, change.ID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", change.ID, err)
	}
	return requireRow(res, change)
}

func (a *Applier) execUpdate(ctx context.Context, tx *sql.Tx, spec *tables.Spec, change types.Change) error {
	d := a.store.Dialect
	assigns := make([]string, 0, len(change.Columns))
	args := make([]any, 0, len(change.Columns)+1)
	for i, col := range change.Columns {
		assigns = append(assigns, fmt.Sprintf("%s = %s", d.Quote(col), d.Placeholder(i+1)))
		value, err := a.store.EncodeValue(columnKind(spec, col), change.NewRow[col])
		if err != nil {
			return fmt.Errorf("update %s column %q: %w", change.ID, col, err)
		}
		args = append(args, value)
	}
	args = append(args, change.ID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		a.store.TableRef(spec.Name), strings.Join(assigns, ", "), d.Quote(spec.IDColumn), d.Placeholder(len(args)))
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", change.ID, err)
	}
	return requireRow(res, change)
}

func (a *Applier) execInsert(ctx context.Context, tx *sql.Tx, spec *tables.Spec, change types.Change) error {
	d := a.store.Dialect
	columns := spec.ColumnNames()
	names := make([]string, 0, len(columns)+1)
	holders := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+1)

	names = append(names, d.Quote(spec.IDColumn))
	holders = append(holders, d.Placeholder(1))
	args = append(args, change.ID)

	for _, col := range columns {
		value, err := a.store.EncodeValue(columnKind(spec, col), change.NewRow[col])
		if err != nil {
			return fmt.Errorf("insert %s column %q: %w", change.ID, col, err)
		}
		names = append(names, d.Quote(col))
		holders = append(holders, d.Placeholder(len(args)+1))
		args = append(args, value)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		a.store.TableRef(spec.Name), strings.Join(names, ", "), strings.Join(holders, ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", change.ID, err)
	}
	return nil
}

// requireRow rejects deletes and updates that matched no row: the
// snapshot has drifted since it was read.
func requireRow(res sql.Result, change types.Change) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil // driver cannot report; assume applied
	}
	if n == 0 {
		return fmt.Errorf("%s %s matched no row", change.Kind, change.ID)
	}
	return nil
}

func columnKind(spec *tables.Spec, column string) tables.Kind {
	if col, ok := spec.Column(column); ok {
		return col.Kind
	}
	return tables.KindJSON
}

func countChanges(result *types.SyncResult, batch []types.Change) {
	for _, c := range batch {
		switch c.Kind {
		case types.ChangeDelete:
			result.Deleted++
		case types.ChangeUpdate:
			result.Updated++
		case types.ChangeInsert:
			result.Inserted++
		}
	}
}
