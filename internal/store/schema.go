package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/mt-climate-office/mbxsync/internal/tables"
)

// EnsureTable creates the table for spec if it does not exist. This is a
// bootstrap for the sqlite local mode and for tests; production
// PostgreSQL schemas are provisioned by separate schema-management
// tooling and are never created here.
func (s *Store) EnsureTable(ctx context.Context, spec *tables.Spec) error {
	var cols []string
	cols = append(cols, fmt.Sprintf("%s TEXT PRIMARY KEY", s.Dialect.Quote(spec.IDColumn)))
	for _, col := range spec.Columns {
		cols = append(cols, fmt.Sprintf("%s %s", s.Dialect.Quote(col.Name), s.columnDDL(col.Kind)))
	}
	if spec.ExtraData {
		cols = append(cols, fmt.Sprintf("%s %s", s.Dialect.Quote(tables.ExtraDataColumn), s.columnDDL(tables.KindJSON)))
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
		s.TableRef(spec.Name), strings.Join(cols, ",\n    "))
	if _, err := s.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure table %s: %w", spec.Name, err)
	}
	return nil
}
