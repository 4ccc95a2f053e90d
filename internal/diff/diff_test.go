package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mt-climate-office/mbxsync/internal/tables"
	"github.com/mt-climate-office/mbxsync/pkg/types"
)

func sensorSpec() *tables.Spec {
	return &tables.Spec{
		Name:     "sensors",
		IDColumn: "sensor_id",
		Columns: []tables.Column{
			{Name: "name", Kind: tables.KindText},
			{Name: "latitude", Kind: tables.KindFloat},
		},
	}
}

func rowSet(t *testing.T, rows ...types.Row) *types.RowSet {
	t.Helper()
	set := types.NewRowSet()
	for _, r := range rows {
		id, _ := r["sensor_id"].(string)
		require.True(t, set.Put(id, r))
	}
	return set
}

func TestTablesInsertOnly(t *testing.T) {
	spec := sensorSpec()
	normalized := rowSet(t, types.Row{"sensor_id": "rec1", "name": "TempSensor"})
	snapshot := types.NewRowSet()

	cs := Tables(spec, normalized, snapshot)

	require.Len(t, cs.Changes, 1)
	c := cs.Changes[0]
	assert.Equal(t, types.ChangeInsert, c.Kind)
	assert.Equal(t, "rec1", c.ID)
	assert.Equal(t, "TempSensor", c.NewRow["name"])
	assert.Nil(t, c.OldRow)
	assert.Equal(t, 0, cs.Unchanged)
}

func TestTablesUpdateListsChangedColumns(t *testing.T) {
	spec := sensorSpec()
	normalized := rowSet(t, types.Row{"sensor_id": "rec1", "name": "TempSensor2", "latitude": 46.87})
	snapshot := rowSet(t, types.Row{"sensor_id": "rec1", "name": "TempSensor", "latitude": 46.87})

	cs := Tables(spec, normalized, snapshot)

	require.Len(t, cs.Changes, 1)
	c := cs.Changes[0]
	assert.Equal(t, types.ChangeUpdate, c.Kind)
	assert.Equal(t, []string{"name"}, c.Columns)
	assert.Equal(t, "TempSensor", c.OldRow["name"])
	assert.Equal(t, "TempSensor2", c.NewRow["name"])
}

func TestTablesDelete(t *testing.T) {
	spec := sensorSpec()
	normalized := types.NewRowSet()
	snapshot := rowSet(t, types.Row{"sensor_id": "rec2", "name": "Orphan"})

	cs := Tables(spec, normalized, snapshot)

	require.Len(t, cs.Changes, 1)
	c := cs.Changes[0]
	assert.Equal(t, types.ChangeDelete, c.Kind)
	assert.Equal(t, "rec2", c.ID)
	assert.Equal(t, "Orphan", c.OldRow["name"])
}

func TestTablesIdenticalSidesUnchanged(t *testing.T) {
	spec := sensorSpec()
	row := types.Row{"sensor_id": "rec1", "name": "TempSensor", "latitude": 46.87}
	cs := Tables(spec, rowSet(t, row), rowSet(t, row.Clone()))

	assert.Empty(t, cs.Changes)
	assert.Equal(t, 1, cs.Unchanged)
}

func TestTablesOrdering(t *testing.T) {
	spec := sensorSpec()
	normalized := rowSet(t,
		types.Row{"sensor_id": "keep", "name": "renamed"},
		types.Row{"sensor_id": "new1", "name": "n1"},
		types.Row{"sensor_id": "new2", "name": "n2"},
	)
	snapshot := rowSet(t,
		types.Row{"sensor_id": "gone1", "name": "g1"},
		types.Row{"sensor_id": "keep", "name": "original"},
		types.Row{"sensor_id": "gone2", "name": "g2"},
	)

	cs := Tables(spec, normalized, snapshot)

	kinds := make([]types.ChangeKind, 0, len(cs.Changes))
	ids := make([]string, 0, len(cs.Changes))
	for _, c := range cs.Changes {
		kinds = append(kinds, c.Kind)
		ids = append(ids, c.ID)
	}
	// Deletes in snapshot order, then updates and inserts in fetch order.
	assert.Equal(t, []types.ChangeKind{
		types.ChangeDelete, types.ChangeDelete,
		types.ChangeUpdate,
		types.ChangeInsert, types.ChangeInsert,
	}, kinds)
	assert.Equal(t, []string{"gone1", "gone2", "keep", "new1", "new2"}, ids)
}

func TestTablesCompleteness(t *testing.T) {
	spec := sensorSpec()
	normalized := rowSet(t,
		types.Row{"sensor_id": "a", "name": "same"},
		types.Row{"sensor_id": "b", "name": "changed-b"},
		types.Row{"sensor_id": "c", "name": "new"},
	)
	snapshot := rowSet(t,
		types.Row{"sensor_id": "a", "name": "same"},
		types.Row{"sensor_id": "b", "name": "was-b"},
		types.Row{"sensor_id": "d", "name": "stale"},
	)

	cs := Tables(spec, normalized, snapshot)

	// Every identifier on either side is accounted for exactly once.
	assert.Equal(t, 3, cs.Len())
	assert.Equal(t, 1, cs.Unchanged)
	deletes, updates, inserts := cs.Counts()
	assert.Equal(t, 1, deletes)
	assert.Equal(t, 1, updates)
	assert.Equal(t, 1, inserts)
}

func TestTablesIsDeterministic(t *testing.T) {
	spec := sensorSpec()
	normalized := rowSet(t,
		types.Row{"sensor_id": "b", "name": "B"},
		types.Row{"sensor_id": "a", "name": "A"},
	)
	snapshot := rowSet(t, types.Row{"sensor_id": "x", "name": "X"})

	first := Tables(spec, normalized, snapshot)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Tables(spec, normalized, snapshot))
	}
}

func TestValueEqual(t *testing.T) {
	noon := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs value", nil, "x", false},
		{"equal strings", "a", "a", true},
		{"different strings", "a", "b", false},
		{"int vs float same value", int64(3), float64(3), true},
		{"int vs float different", int64(3), 3.5, false},
		{"bools", true, true, true},
		{"times equal across zones", noon, noon.In(time.FixedZone("MST", -7*3600)), true},
		{"times different", noon, noon.Add(time.Second), false},
		{"equal maps", map[string]any{"a": float64(1)}, map[string]any{"a": float64(1)}, true},
		{"different maps", map[string]any{"a": float64(1)}, map[string]any{"a": float64(2)}, false},
		{"string vs number", "3", float64(3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValueEqual(tt.a, tt.b))
		})
	}
}
