package types

// RawRecord is one schema-less record as fetched from a backend adapter:
// a field-name-keyed mapping plus the backend's record key under
// RecordIDField when the backend assigned one.
type RawRecord map[string]any

// RecordIDField is the reserved RawRecord key under which adapters store
// the backend-assigned record key.
const RecordIDField = "id"

// ID returns the backend record key, or "" when the record has none.
func (r RawRecord) ID() string {
	id, _ := r[RecordIDField].(string)
	return id
}
