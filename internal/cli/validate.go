package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mt-climate-office/mbxsync/internal/config"
	"github.com/mt-climate-office/mbxsync/internal/store"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check configuration, backend, and database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			fmt.Println("configuration: ok")

			backend, err := cfg.NewBackend()
			if err != nil {
				return err
			}
			if err := backend.Validate(cmd.Context()); err != nil {
				fmt.Fprintf(os.Stderr, "backend (%s): %v\n", backend.Name(), err)
				return &exitCodeError{err: err, code: exitSysError}
			}
			fmt.Printf("backend (%s): ok\n", backend.Name())

			st, err := store.Open(cmd.Context(), cfg.StoreOptions())
			if err != nil {
				fmt.Fprintf(os.Stderr, "database: %v\n", err)
				return &exitCodeError{err: err, code: exitSysError}
			}
			defer st.Close()
			fmt.Println("database: ok")
			return nil
		},
	}
}
