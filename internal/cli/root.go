// Package cli implements the mbxsync command-line interface: the sync,
// validate, and tables commands, logging setup, and report rendering.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess  = 0
	exitUserErr  = 1 // bad invocation, bad config, or a failed table
	exitSysError = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configPath string
	jsonMode   bool
	logLevel   string
	logFile    string
}

var flags rootFlags

// NewRootCmd creates the top-level "mbxsync" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mbxsync",
		Short: "Mirror no-code inventory tables into a relational database",
		Long: "mbxsync reconciles inventory tables held in AirTable, Baserow, or\n" +
			"NocoDB with a fixed relational schema, applying the minimal set of\n" +
			"inserts, updates, and deletes in bounded, retried batches.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "mbxsync.json", "configuration file")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "write logs to a rotated file instead of stderr")

	root.AddCommand(newSyncCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newTablesCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		var coded *exitCodeError
		code := exitUserErr
		if errors.As(err, &coded) {
			code = coded.code
		}
		os.Exit(code)
	}
	os.Exit(exitSuccess)
}

// exitCodeError carries an explicit process exit code through cobra.
type exitCodeError struct {
	err  error
	code int
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

// failTables signals that one or more tables failed; the run itself
// completed and the report was already rendered.
func failTables(n int) error {
	return &exitCodeError{err: fmt.Errorf("%d table(s) failed", n), code: exitUserErr}
}
