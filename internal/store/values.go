package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mt-climate-office/mbxsync/internal/tables"
)

// EncodeValue converts a canonical column value into a driver-bindable
// value for the dialect. Postgres binds native types; sqlite stores
// dates, timestamps, and JSON as text and booleans as integers so the
// snapshot reader can coerce them back losslessly.
func (s *Store) EncodeValue(kind tables.Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case tables.KindDate:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("date column holds %T", v)
		}
		if s.Dialect == DialectSQLite {
			return t.UTC().Format("2006-01-02"), nil
		}
		return t, nil
	case tables.KindTime:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("timestamp column holds %T", v)
		}
		if s.Dialect == DialectSQLite {
			return t.UTC().Format(time.RFC3339Nano), nil
		}
		return t, nil
	case tables.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("boolean column holds %T", v)
		}
		if s.Dialect == DialectSQLite {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return b, nil
	case tables.KindJSON:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode JSON column: %w", err)
		}
		return string(raw), nil
	default:
		return v, nil
	}
}

// columnDDL returns the SQL type for a column kind in this dialect.
func (s *Store) columnDDL(kind tables.Kind) string {
	if s.Dialect == DialectSQLite {
		switch kind {
		case tables.KindInt, tables.KindBool:
			return "INTEGER"
		case tables.KindFloat:
			return "REAL"
		default:
			return "TEXT"
		}
	}
	switch kind {
	case tables.KindInt:
		return "BIGINT"
	case tables.KindFloat:
		return "DOUBLE PRECISION"
	case tables.KindBool:
		return "BOOLEAN"
	case tables.KindDate:
		return "DATE"
	case tables.KindTime:
		return "TIMESTAMPTZ"
	case tables.KindJSON:
		return "JSONB"
	default:
		return "TEXT"
	}
}
