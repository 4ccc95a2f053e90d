package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mt-climate-office/mbxsync/internal/apply"
	"github.com/mt-climate-office/mbxsync/internal/config"
	"github.com/mt-climate-office/mbxsync/internal/engine"
	"github.com/mt-climate-office/mbxsync/internal/store"
	"github.com/mt-climate-office/mbxsync/internal/tables"
	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// syncFlags holds sync command flag values.
type syncFlags struct {
	dryRun        bool
	tables        []string
	batchSize     int
	retryAttempts int
	parallel      int
}

func newSyncCmd() *cobra.Command {
	var sf syncFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync inventory tables from the backend to the relational store",
		Long: "Sync fetches each table's records from the configured backend,\n" +
			"diffs them against the relational store, and applies the resulting\n" +
			"inserts, updates, and deletes in batches. With --dry-run the change\n" +
			"set is reported without mutating the store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), sf)
		},
	}

	cmd.Flags().BoolVar(&sf.dryRun, "dry-run", false, "report changes without applying them")
	cmd.Flags().StringSliceVar(&sf.tables, "tables", nil, "restrict the run to these tables")
	cmd.Flags().IntVar(&sf.batchSize, "batch-size", 0, "changes per transaction (default from config)")
	cmd.Flags().IntVar(&sf.retryAttempts, "retry-attempts", -1, "retries per batch (default from config)")
	cmd.Flags().IntVar(&sf.parallel, "parallel", 1, "concurrent table syncs within a dependency wave")

	return cmd
}

func runSync(ctx context.Context, sf syncFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	logger := newLogger()

	batchSize := cfg.SyncOptions.BatchSize
	if sf.batchSize > 0 {
		batchSize = sf.batchSize
	}
	retryAttempts := cfg.SyncOptions.RetryAttempts
	if sf.retryAttempts >= 0 {
		retryAttempts = sf.retryAttempts
	}

	backend, err := cfg.NewBackend()
	if err != nil {
		return err
	}

	// An interrupt stops before the next batch; an in-flight batch
	// still commits or rolls back atomically.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return &exitCodeError{err: err, code: exitSysError}
	}
	defer st.Close()

	registry := tables.Default()
	eng := engine.New(registry, backend, st, apply.DefaultPolicy(retryAttempts+1), logger)

	var selected []string
	if len(sf.tables) > 0 {
		selected = sf.tables
	}
	results, err := eng.Run(ctx, engine.Options{
		DryRun:        sf.dryRun,
		BatchSize:     batchSize,
		Selected:      selected,
		Parallel:      sf.parallel,
		TableMappings: cfg.TableMappings,
	})
	if err != nil {
		return err
	}

	order, _ := registry.RunOrder(registry.Names())
	if err := renderReport(os.Stdout, order, results, flags.jsonMode); err != nil {
		return &exitCodeError{err: err, code: exitSysError}
	}

	failed := 0
	for _, r := range results {
		if r.Status == types.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d table(s) failed\n", failed)
		return failTables(failed)
	}
	return nil
}
