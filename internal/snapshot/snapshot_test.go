package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mt-climate-office/mbxsync/internal/store"
	"github.com/mt-climate-office/mbxsync/internal/tables"
	"github.com/mt-climate-office/mbxsync/pkg/types"
)

func setupStore(t *testing.T, spec *tables.Spec) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Options{
		Dialect: store.DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "mbxsync.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.EnsureTable(context.Background(), spec))
	return s
}

func stationSpec() *tables.Spec {
	return &tables.Spec{
		Name:     "stations",
		IDColumn: "station_id",
		Columns: []tables.Column{
			{Name: "name", Kind: tables.KindText},
			{Name: "latitude", Kind: tables.KindFloat},
			{Name: "active", Kind: tables.KindBool},
			{Name: "date_installed", Kind: tables.KindDate},
		},
		ExtraData: true,
	}
}

func TestReadEmptyTable(t *testing.T) {
	spec := stationSpec()
	s := setupStore(t, spec)

	set, err := Read(context.Background(), s, spec)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestReadDecodesRows(t *testing.T) {
	spec := stationSpec()
	s := setupStore(t, spec)
	ctx := context.Background()

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO "stations" (station_id, name, latitude, active, date_installed, extra_data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"rec1", "TempSensor", 46.87, int64(1), "2024-03-01", `{"Color":"red"}`)
	require.NoError(t, err)

	set, err := Read(ctx, s, spec)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	row, ok := set.Get("rec1")
	require.True(t, ok)
	assert.Equal(t, "rec1", row["station_id"])
	assert.Equal(t, "TempSensor", row["name"])
	assert.Equal(t, 46.87, row["latitude"])
	assert.Equal(t, true, row["active"])
	installed, ok := row["date_installed"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), installed)
	assert.Equal(t, map[string]any{"Color": "red"}, row["extra_data"])
}

func TestReadNullsStayNil(t *testing.T) {
	spec := stationSpec()
	s := setupStore(t, spec)
	ctx := context.Background()

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO "stations" (station_id, name) VALUES (?, ?)`, "rec1", "TempSensor")
	require.NoError(t, err)

	set, err := Read(ctx, s, spec)
	require.NoError(t, err)
	row, _ := set.Get("rec1")
	assert.Nil(t, row["latitude"])
	assert.Nil(t, row["date_installed"])
	assert.Nil(t, row["extra_data"])
}

func TestReadOrdersByID(t *testing.T) {
	spec := stationSpec()
	s := setupStore(t, spec)
	ctx := context.Background()

	for _, id := range []string{"recC", "recA", "recB"} {
		_, err := s.DB.ExecContext(ctx,
			`INSERT INTO "stations" (station_id, name) VALUES (?, ?)`, id, id)
		require.NoError(t, err)
	}

	set, err := Read(ctx, s, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"recA", "recB", "recC"}, set.IDs())
}

func TestReadMissingTable(t *testing.T) {
	spec := stationSpec()
	s := setupStore(t, spec)

	missing := &tables.Spec{Name: "nonexistent", IDColumn: "id",
		Columns: []tables.Column{{Name: "name", Kind: tables.KindText}}}

	_, err := Read(context.Background(), s, missing)
	require.Error(t, err)
	var se *types.SnapshotError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "nonexistent", se.Table)
}

func TestReadGarbledColumnValue(t *testing.T) {
	spec := stationSpec()
	s := setupStore(t, spec)
	ctx := context.Background()

	// SQLite column affinity lets text land in a REAL column.
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO "stations" (station_id, name, latitude) VALUES (?, ?, ?)`,
		"rec1", "TempSensor", "north")
	require.NoError(t, err)

	_, err = Read(ctx, s, spec)
	var se *types.SnapshotError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "latitude")
}
