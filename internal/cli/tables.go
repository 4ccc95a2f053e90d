package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mt-climate-office/mbxsync/internal/tables"
)

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List syncable tables with their dependencies and run order",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := tables.Default()
			order, err := registry.RunOrder(registry.Names())
			if err != nil {
				return err
			}

			if flags.jsonMode {
				type entry struct {
					Name         string   `json:"name"`
					BackendTable string   `json:"backend_table"`
					DependsOn    []string `json:"depends_on,omitempty"`
				}
				doc := struct {
					Tables   []entry  `json:"tables"`
					RunOrder []string `json:"run_order"`
				}{RunOrder: order}
				for _, name := range registry.Names() {
					spec, _ := registry.Get(name)
					doc.Tables = append(doc.Tables, entry{
						Name:         spec.Name,
						BackendTable: spec.BackendTable,
						DependsOn:    spec.DependsOn,
					})
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}

			for _, name := range registry.Names() {
				spec, _ := registry.Get(name)
				deps := "-"
				if len(spec.DependsOn) > 0 {
					deps = strings.Join(spec.DependsOn, ", ")
				}
				fmt.Printf("%-20s backend=%-20q depends on: %s\n", spec.Name, spec.BackendTable, deps)
			}
			fmt.Printf("\nrun order: %s\n", strings.Join(order, " -> "))
			return nil
		},
	}
}
