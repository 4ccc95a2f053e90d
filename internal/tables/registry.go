package tables

// Standard table names.
const (
	Elements          = "elements"
	ComponentModels   = "component_models"
	Stations          = "stations"
	Inventory         = "inventory"
	Deployments       = "deployments"
	ComponentElements = "component_elements"
	RequestSchemas    = "request_schemas"
	ResponseSchemas   = "response_schemas"
)

// stationStatuses matches the check constraint on stations.status.
var stationStatuses = []string{"pending", "active", "decommissioned", "inactive"}

// Default builds the standard inventory registry.
func Default() *Registry {
	return NewRegistry(
		&Spec{
			Name:         Elements,
			BackendTable: "Elements",
			IDColumn:     "element_id",
			Columns: []Column{
				{Name: "element", Kind: KindText, Required: true},
				{Name: "description", Kind: KindText, Required: true},
				{Name: "description_short", Kind: KindText, Required: true},
				{Name: "si_units", Kind: KindText},
				{Name: "us_units", Kind: KindText},
			},
			FieldMap: map[string]string{
				"element":           "Element",
				"description":       "Description",
				"description_short": "Description Short",
				"si_units":          "SI Units",
				"us_units":          "US Units",
			},
			ExtraData: true,
		},
		&Spec{
			Name:         ComponentModels,
			BackendTable: "Component Models",
			IDColumn:     "component_model_id",
			Columns: []Column{
				{Name: "model", Kind: KindText, Required: true},
				{Name: "manufacturer", Kind: KindText, Required: true},
				{Name: "type", Kind: KindText, Required: true},
			},
			FieldMap: map[string]string{
				"model":        "Model",
				"manufacturer": "Manufacturer",
				"type":         "Type",
			},
			ExtraData: true,
		},
		&Spec{
			Name:         Stations,
			BackendTable: "Stations",
			IDColumn:     "station_id",
			Columns: []Column{
				{Name: "station", Kind: KindText, Required: true},
				{Name: "name", Kind: KindText, Required: true},
				{Name: "status", Kind: KindText, Required: true, Enum: stationStatuses},
				{Name: "latitude", Kind: KindFloat, Required: true},
				{Name: "longitude", Kind: KindFloat, Required: true},
				{Name: "elevation", Kind: KindFloat, Required: true},
				{Name: "date_installed", Kind: KindDate},
			},
			FieldMap: map[string]string{
				"station":        "Station",
				"name":           "Name",
				"status":         "Status",
				"latitude":       "Latitude",
				"longitude":      "Longitude",
				"elevation":      "Elevation",
				"date_installed": "Date Installed",
			},
			DependsOn: []string{Elements},
			ExtraData: true,
		},
		&Spec{
			Name:         Inventory,
			BackendTable: "Inventory",
			IDColumn:     "inventory_id",
			Columns: []Column{
				{Name: "model", Kind: KindText, Required: true},
				{Name: "serial_number", Kind: KindText, Required: true},
			},
			FieldMap: map[string]string{
				"model":         "Model",
				"serial_number": "Serial Number",
			},
			DependsOn: []string{ComponentModels},
			ExtraData: true,
		},
		&Spec{
			Name:         Deployments,
			BackendTable: "Deployments",
			IDColumn:     "deployment_id",
			Columns: []Column{
				{Name: "station", Kind: KindText, Required: true},
				{Name: "model", Kind: KindText, Required: true},
				{Name: "serial_number", Kind: KindText, Required: true},
				{Name: "date_assigned", Kind: KindDate, Required: true},
				{Name: "date_start", Kind: KindDate},
				{Name: "date_end", Kind: KindDate},
				{Name: "elevation_cm", Kind: KindInt},
			},
			FieldMap: map[string]string{
				"station":       "Station",
				"model":         "Model",
				"serial_number": "Serial Number",
				"date_assigned": "Date Assigned",
				"date_start":    "Date Start",
				"date_end":      "Date End",
				"elevation_cm":  "Elevation (cm)",
			},
			DependsOn: []string{Stations, Inventory},
			ExtraData: true,
		},
		&Spec{
			Name:         ComponentElements,
			BackendTable: "Component Elements",
			IDColumn:     "component_element_id",
			Columns: []Column{
				{Name: "model", Kind: KindText, Required: true},
				{Name: "element", Kind: KindText, Required: true},
				{Name: "qc_values", Kind: KindJSON},
			},
			FieldMap: map[string]string{
				"model":     "Model",
				"element":   "Element",
				"qc_values": "QC Values",
			},
			DependsOn: []string{ComponentModels, Elements},
			ExtraData: true,
		},
		&Spec{
			Name:         RequestSchemas,
			BackendTable: "Request Schemas",
			IDColumn:     "request_schema_id",
			Columns: []Column{
				{Name: "network", Kind: KindText, Required: true},
				{Name: "request_model", Kind: KindJSON, Required: true},
			},
			FieldMap: map[string]string{
				"network":       "Network",
				"request_model": "Request Model",
			},
			DependsOn: []string{Elements},
			ExtraData: true,
		},
		&Spec{
			Name:         ResponseSchemas,
			BackendTable: "Response Schemas",
			IDColumn:     "response_schema_id",
			Columns: []Column{
				{Name: "response_name", Kind: KindText, Required: true},
				{Name: "response_model", Kind: KindJSON, Required: true},
			},
			FieldMap: map[string]string{
				"response_name":  "Response Name",
				"response_model": "Response Model",
			},
			DependsOn: []string{Elements},
			ExtraData: true,
		},
	)
}
