package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mt-climate-office/mbxsync/internal/tables"
	"github.com/mt-climate-office/mbxsync/pkg/types"
)

func stationSpec() *tables.Spec {
	return &tables.Spec{
		Name:         "stations",
		BackendTable: "Stations",
		IDColumn:     "station_id",
		Columns: []tables.Column{
			{Name: "name", Kind: tables.KindText, Required: true},
			{Name: "status", Kind: tables.KindText, Enum: []string{"pending", "active"}, Default: "pending"},
			{Name: "latitude", Kind: tables.KindFloat},
			{Name: "date_installed", Kind: tables.KindDate},
		},
		FieldMap: map[string]string{
			"name":           "Name",
			"status":         "Status",
			"latitude":       "Latitude",
			"date_installed": "Date Installed",
		},
		ExtraData: true,
	}
}

func TestRecordsMapsAndCoerces(t *testing.T) {
	spec := stationSpec()
	raw := []types.RawRecord{
		{
			"id":             "rec1",
			"Name":           "TempSensor",
			"Status":         "active",
			"Latitude":       "46.87",
			"Date Installed": "2024-03-01",
		},
	}

	set, err := Records(spec, raw)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	row, ok := set.Get("rec1")
	require.True(t, ok)
	assert.Equal(t, "rec1", row["station_id"])
	assert.Equal(t, "TempSensor", row["name"])
	assert.Equal(t, "active", row["status"])
	assert.Equal(t, 46.87, row["latitude"])
	installed, ok := row["date_installed"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), installed)
}

func TestRecordsAppliesDefaults(t *testing.T) {
	spec := stationSpec()
	set, err := Records(spec, []types.RawRecord{
		{"id": "rec1", "Name": "TempSensor"},
	})
	require.NoError(t, err)

	row, _ := set.Get("rec1")
	assert.Equal(t, "pending", row["status"], "absent field takes the documented default")
	assert.Nil(t, row["latitude"], "no default means NULL")
}

func TestRecordsTreatsEmptyAsAbsent(t *testing.T) {
	spec := stationSpec()
	for _, empty := range []any{"", nil, []any{}} {
		set, err := Records(spec, []types.RawRecord{
			{"id": "rec1", "Name": "TempSensor", "Status": empty},
		})
		require.NoError(t, err)
		row, _ := set.Get("rec1")
		assert.Equal(t, "pending", row["status"])
	}
}

func TestRecordsRequiredMissing(t *testing.T) {
	spec := stationSpec()
	_, err := Records(spec, []types.RawRecord{{"id": "rec1"}})
	require.Error(t, err)

	var ne *types.NormalizeError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "stations", ne.Table)
	assert.Equal(t, "rec1", ne.Record)
	assert.Equal(t, "name", ne.Column)
}

func TestRecordsCoercionFailureIsFatal(t *testing.T) {
	spec := stationSpec()
	_, err := Records(spec, []types.RawRecord{
		{"id": "rec1", "Name": "TempSensor", "Latitude": "north"},
	})
	var ne *types.NormalizeError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "latitude", ne.Column)
}

func TestRecordsEnumViolation(t *testing.T) {
	spec := stationSpec()
	_, err := Records(spec, []types.RawRecord{
		{"id": "rec1", "Name": "TempSensor", "Status": "exploded"},
	})
	var ne *types.NormalizeError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "status", ne.Column)
}

func TestRecordsDuplicateID(t *testing.T) {
	spec := stationSpec()
	_, err := Records(spec, []types.RawRecord{
		{"id": "rec1", "Name": "A"},
		{"id": "rec1", "Name": "B"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDuplicateID)
}

func TestRecordsSyntheticIDs(t *testing.T) {
	spec := stationSpec()
	set, err := Records(spec, []types.RawRecord{
		{"Name": "A"},
		{"Name": "B"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	for _, id := range set.IDs() {
		assert.True(t, types.IsSyntheticID(id))
		row, _ := set.Get(id)
		assert.Equal(t, id, row["station_id"])
	}
	assert.NotEqual(t, set.IDs()[0], set.IDs()[1])
}

func TestRecordsPreservesFetchOrder(t *testing.T) {
	spec := stationSpec()
	raw := []types.RawRecord{
		{"id": "z", "Name": "Z"},
		{"id": "a", "Name": "A"},
		{"id": "m", "Name": "M"},
	}
	set, err := Records(spec, raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, set.IDs())
}

func TestRecordsCollectsExtraData(t *testing.T) {
	spec := stationSpec()
	set, err := Records(spec, []types.RawRecord{
		{"id": "rec1", "Name": "TempSensor", "Color": "red", "Count": float64(3)},
	})
	require.NoError(t, err)

	row, _ := set.Get("rec1")
	extra, ok := row[tables.ExtraDataColumn].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "red", extra["Color"])
	assert.Equal(t, float64(3), extra["Count"])
	assert.NotContains(t, extra, "Name", "mapped fields stay out of extra_data")
	assert.NotContains(t, extra, "id")
}

func TestRecordsNoExtraDataIsNil(t *testing.T) {
	spec := stationSpec()
	set, err := Records(spec, []types.RawRecord{
		{"id": "rec1", "Name": "TempSensor"},
	})
	require.NoError(t, err)
	row, _ := set.Get("rec1")
	assert.Nil(t, row[tables.ExtraDataColumn])
}

func TestRecordsRejectsSpecWithoutIDColumn(t *testing.T) {
	spec := stationSpec()
	spec.IDColumn = ""
	_, err := Records(spec, []types.RawRecord{{"id": "rec1", "Name": "TempSensor"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNoIDColumn)
}

func TestRecordsEmptyInput(t *testing.T) {
	set, err := Records(stationSpec(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}
