package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mt-climate-office/mbxsync/internal/tables"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{
		Dialect: DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "mbxsync.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Options{Dialect: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestDialectPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", DialectPostgres.Placeholder(1))
	assert.Equal(t, "$7", DialectPostgres.Placeholder(7))
	assert.Equal(t, "?", DialectSQLite.Placeholder(1))
	assert.Equal(t, "?", DialectSQLite.Placeholder(7))
}

func TestDialectQuote(t *testing.T) {
	assert.Equal(t, `"stations"`, DialectPostgres.Quote("stations"))
	assert.Equal(t, `"odd""name"`, DialectSQLite.Quote(`odd"name`))
}

func TestTableRef(t *testing.T) {
	pg := &Store{Dialect: DialectPostgres, Schema: "network"}
	assert.Equal(t, `"network"."stations"`, pg.TableRef("stations"))

	pgNoSchema := &Store{Dialect: DialectPostgres}
	assert.Equal(t, `"stations"`, pgNoSchema.TableRef("stations"))

	lite := &Store{Dialect: DialectSQLite, Schema: "network"}
	assert.Equal(t, `"stations"`, lite.TableRef("stations"), "sqlite ignores the schema")
}

func TestEncodeValueSQLite(t *testing.T) {
	s := &Store{Dialect: DialectSQLite}
	noon := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		kind  tables.Kind
		value any
		want  any
	}{
		{"nil stays nil", tables.KindText, nil, nil},
		{"date as text", tables.KindDate, noon, "2024-03-01"},
		{"timestamp as text", tables.KindTime, noon, "2024-03-01T12:30:00Z"},
		{"bool true as integer", tables.KindBool, true, int64(1)},
		{"bool false as integer", tables.KindBool, false, int64(0)},
		{"json as text", tables.KindJSON, map[string]any{"a": float64(1)}, `{"a":1}`},
		{"text passthrough", tables.KindText, "hello", "hello"},
		{"int passthrough", tables.KindInt, int64(5), int64(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.EncodeValue(tt.kind, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeValuePostgresKeepsNativeTypes(t *testing.T) {
	s := &Store{Dialect: DialectPostgres}
	noon := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	got, err := s.EncodeValue(tables.KindTime, noon)
	require.NoError(t, err)
	assert.Equal(t, noon, got)

	got, err = s.EncodeValue(tables.KindBool, true)
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestEncodeValueWrongType(t *testing.T) {
	s := &Store{Dialect: DialectSQLite}
	_, err := s.EncodeValue(tables.KindDate, "2024-03-01")
	require.Error(t, err)
	_, err = s.EncodeValue(tables.KindBool, "yes")
	require.Error(t, err)
}

func TestEnsureTable(t *testing.T) {
	s := openSQLite(t)
	spec := &tables.Spec{
		Name:     "sensors",
		IDColumn: "sensor_id",
		Columns: []tables.Column{
			{Name: "name", Kind: tables.KindText},
			{Name: "active", Kind: tables.KindBool},
		},
		ExtraData: true,
	}
	ctx := context.Background()
	require.NoError(t, s.EnsureTable(ctx, spec))
	// Idempotent.
	require.NoError(t, s.EnsureTable(ctx, spec))

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO "sensors" (sensor_id, name, active, extra_data) VALUES (?, ?, ?, ?)`,
		"rec1", "TempSensor", int64(1), `{"k":"v"}`)
	require.NoError(t, err)

	var count int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM "sensors"`).Scan(&count))
	assert.Equal(t, 1, count)
}
