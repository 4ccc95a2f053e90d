// Package snapshot loads the current relational rows for a table, keyed
// by stable identifier, for the diff engine to compare against. It is
// strictly read-only.
package snapshot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mt-climate-office/mbxsync/internal/normalize"
	"github.com/mt-climate-office/mbxsync/internal/store"
	"github.com/mt-climate-office/mbxsync/internal/tables"
	"github.com/mt-climate-office/mbxsync/pkg/types"
)

// Read loads every current row of the table into a RowSet, ordered by
// stable identifier so iteration is stable run-to-run. A missing table
// or column (schema mismatch) returns a *types.SnapshotError, fatal for
// this table only.
func Read(ctx context.Context, s *store.Store, spec *tables.Spec) (*types.RowSet, error) {
	columns := spec.ColumnNames()
	quoted := make([]string, 0, len(columns)+1)
	quoted = append(quoted, s.Dialect.Quote(spec.IDColumn))
	for _, col := range columns {
		quoted = append(quoted, s.Dialect.Quote(col))
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(quoted, ", "), s.TableRef(spec.Name), s.Dialect.Quote(spec.IDColumn))

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &types.SnapshotError{Table: spec.Name, Err: err}
	}
	defer rows.Close()

	set := types.NewRowSet()
	for rows.Next() {
		values := make([]any, len(quoted))
		dests := make([]any, len(quoted))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, &types.SnapshotError{Table: spec.Name, Err: fmt.Errorf("scan: %w", err)}
		}

		id, ok := scanString(values[0])
		if !ok || id == "" {
			return nil, &types.SnapshotError{
				Table: spec.Name,
				Err:   fmt.Errorf("row with empty %s column", spec.IDColumn),
			}
		}

		row := make(types.Row, len(columns)+1)
		row[spec.IDColumn] = id
		for i, col := range columns {
			value, err := decode(spec, col, values[i+1])
			if err != nil {
				return nil, &types.SnapshotError{
					Table: spec.Name,
					Err:   fmt.Errorf("column %q: %w", col, err),
				}
			}
			row[col] = value
		}

		if !set.Put(id, row) {
			return nil, &types.SnapshotError{
				Table: spec.Name,
				Err:   fmt.Errorf("%w: %s", types.ErrDuplicateID, id),
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &types.SnapshotError{Table: spec.Name, Err: err}
	}
	return set, nil
}

// decode converts a driver value to the canonical value for the column.
func decode(spec *tables.Spec, column string, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}

	kind := tables.KindJSON
	if col, ok := spec.Column(column); ok {
		kind = col.Kind
	}
	return normalize.Coerce(raw, kind)
}

func scanString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return "", false
	}
}
