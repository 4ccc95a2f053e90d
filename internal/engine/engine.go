// Package engine drives the per-table sync pipeline: fetch records from
// the backend, normalize, snapshot the relational table, diff, and apply
// or report. The engine is the only component with cross-table
// visibility; a fatal error in one table never aborts the run.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mt-climate-office/mbxsync/internal/apply"
	"github.com/mt-climate-office/mbxsync/internal/backends"
	"github.com/mt-climate-office/mbxsync/internal/diff"
	"github.com/mt-climate-office/mbxsync/internal/normalize"
	"github.com/mt-climate-office/mbxsync/internal/snapshot"
	"github.com/mt-climate-office/mbxsync/internal/store"
	"github.com/mt-climate-office/mbxsync/internal/tables"
	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// Options configures one run.
type Options struct {
	// DryRun computes and reports change sets without mutating the store.
	DryRun bool
	// BatchSize caps changes per transaction.
	BatchSize int
	// Selected restricts the run to these tables; nil runs all. Tables
	// outside the selection are reported as skipped, not failed.
	Selected []string
	// Parallel bounds concurrent table syncs within a dependency wave.
	// Values below two keep the default sequential processing.
	Parallel int
	// TableMappings overrides backend table names per relational table.
	TableMappings map[string]string
}

// Engine orchestrates a sync run across the registered tables.
type Engine struct {
	registry *tables.Registry
	backend  backends.Backend
	store    *store.Store
	applier  *apply.Applier
	logger   *slog.Logger
}

// New creates an Engine. A nil logger uses slog.Default.
func New(reg *tables.Registry, backend backends.Backend, st *store.Store, policy apply.Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		registry: reg,
		backend:  backend,
		store:    st,
		applier:  apply.New(st, policy, logger),
		logger:   logger,
	}
}

// Run syncs every registered table in dependency order and returns one
// result per table. Every table is accounted for as done, failed, or
// skipped. The error return is reserved for run-level problems (an
// unknown selected table, a dependency cycle); per-table failures are
// reported inside the results and never abort the run.
func (e *Engine) Run(ctx context.Context, opts Options) (map[string]*types.SyncResult, error) {
	selected, err := e.selection(opts.Selected)
	if err != nil {
		return nil, err
	}

	order, err := e.registry.RunOrder(e.registry.Names())
	if err != nil {
		return nil, err
	}

	results := make(map[string]*types.SyncResult, len(order))
	for _, name := range order {
		if !selected[name] {
			results[name] = &types.SyncResult{
				Table:     name,
				Status:    types.StatusSkipped,
				DryRun:    opts.DryRun,
				StartedAt: time.Now().UTC(),
			}
			results[name].CompletedAt = results[name].StartedAt
		}
	}

	mode := "sync"
	if opts.DryRun {
		mode = "dry run"
	}
	e.logger.Info("starting run", "mode", mode, "tables", len(order), "order", order)

	for _, wave := range e.waves(order, selected) {
		e.runWave(ctx, wave, opts, results)
	}

	return results, nil
}

// runWave syncs one dependency wave, concurrently when opts.Parallel
// allows. Tables in a wave own disjoint rows, so concurrent application
// never has two in-flight mutations for the same identifier.
func (e *Engine) runWave(ctx context.Context, wave []string, opts Options, results map[string]*types.SyncResult) {
	if opts.Parallel < 2 || len(wave) < 2 {
		for _, name := range wave {
			results[name] = e.syncTable(ctx, name, opts)
		}
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, opts.Parallel)
	out := make([]*types.SyncResult, len(wave))
	for i, name := range wave {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, name string) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = e.syncTable(ctx, name, opts)
		}(i, name)
	}
	wg.Wait()
	for i, name := range wave {
		results[name] = out[i]
	}
}

// syncTable runs the per-table state machine:
// fetching -> normalizing -> snapshotting -> diffing -> applying -> done,
// or failed from any state.
func (e *Engine) syncTable(ctx context.Context, name string, opts Options) *types.SyncResult {
	started := time.Now().UTC()
	spec, err := e.registry.Get(name)
	if err != nil {
		return failedResult(name, started, opts.DryRun, err)
	}
	log := e.logger.With("table", name)

	backendTable := spec.BackendTable
	if mapped := opts.TableMappings[name]; mapped != "" {
		backendTable = mapped
	}

	log.Debug("fetching", "backend_table", backendTable)
	records, err := e.backend.ReadRecords(ctx, backendTable)
	if err != nil {
		log.Error("fetch failed", "error", err)
		return failedResult(name, started, opts.DryRun, err)
	}

	log.Debug("normalizing", "records", len(records))
	normalized, err := normalize.Records(spec, records)
	if err != nil {
		log.Error("normalize failed", "error", err)
		return failedResult(name, started, opts.DryRun, err)
	}

	log.Debug("snapshotting")
	current, err := snapshot.Read(ctx, e.store, spec)
	if err != nil {
		log.Error("snapshot failed", "error", err)
		return failedResult(name, started, opts.DryRun, err)
	}

	log.Debug("diffing", "backend_rows", normalized.Len(), "store_rows", current.Len())
	cs := diff.Tables(spec, normalized, current)

	log.Debug("applying", "changes", cs.Len(), "dry_run", opts.DryRun)
	result := e.applier.Apply(ctx, spec, cs, apply.Options{
		BatchSize: opts.BatchSize,
		DryRun:    opts.DryRun,
	})
	result.Status = types.StatusDone
	result.StartedAt = started

	log.Info("table done",
		"inserted", result.Inserted, "updated", result.Updated, "deleted", result.Deleted,
		"unchanged", result.Unchanged, "failed_changes", result.FailedChanges())
	return result
}

// selection resolves the --tables restriction to a set. An unknown table
// name is a run-level error: it indicates a typo, not a skippable table.
func (e *Engine) selection(names []string) (map[string]bool, error) {
	selected := make(map[string]bool, len(names))
	if names == nil {
		for _, name := range e.registry.Names() {
			selected[name] = true
		}
		return selected, nil
	}
	for _, name := range names {
		if !e.registry.Has(name) {
			return nil, fmt.Errorf("%w: %s", types.ErrUnknownTable, name)
		}
		selected[name] = true
	}
	return selected, nil
}

// waves groups the ordered, selected tables into dependency waves: a
// table lands one wave after the deepest selected table it depends on.
func (e *Engine) waves(order []string, selected map[string]bool) [][]string {
	depth := make(map[string]int, len(order))
	var waves [][]string
	for _, name := range order {
		if !selected[name] {
			continue
		}
		spec, _ := e.registry.Get(name)
		d := 0
		for _, dep := range spec.DependsOn {
			if selected[dep] && depth[dep]+1 > d {
				d = depth[dep] + 1
			}
		}
		depth[name] = d
		for len(waves) <= d {
			waves = append(waves, nil)
		}
		waves[d] = append(waves[d], name)
	}
	return waves
}

func failedResult(table string, started time.Time, dryRun bool, err error) *types.SyncResult {
	return &types.SyncResult{
		Table:       table,
		Status:      types.StatusFailed,
		DryRun:      dryRun,
		Reason:      err.Error(),
		StartedAt:   started,
		CompletedAt: time.Now().UTC(),
	}
}
