package models

// MeasurementKind constants for the built-in measurement kinds
const (
	MeasurementKindVoltage = "voltage"
	MeasurementKindCurrent = "current"
	MeasurementKindBattery = "battery"
)

// MeasurementCategory constants for grouping measurement kinds
const (
	MeasurementCategoryElectrical = "Electrical"
	MeasurementCategorySystem     = "System"
)

// MeasurementKindInfo holds metadata about a measurement kind
type MeasurementKindInfo struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
}

// MeasurementKindRegistry maps measurement kinds to their information
var MeasurementKindRegistry = map[string]MeasurementKindInfo{
	MeasurementKindVoltage: {
		Name:     MeasurementKindVoltage,
		Label:    "Voltaje",
		Category: MeasurementCategoryElectrical,
		Unit:     "V",
	},
	MeasurementKindCurrent: {
		Name:     MeasurementKindCurrent,
		Label:    "Corriente",
		Category: MeasurementCategoryElectrical,
		Unit:     "A",
	},
	MeasurementKindBattery: {
		Name:     MeasurementKindBattery,
		Label:    "Batería",
		Category: MeasurementCategorySystem,
		Unit:     "V",
	},
}

// GetMeasurementKindInfo returns the metadata for a kind, or false if it is unknown
func GetMeasurementKindInfo(kind string) (MeasurementKindInfo, bool) {
	info, ok := MeasurementKindRegistry[kind]
	return info, ok
}

// IsValidMeasurementKind checks if a kind is one of the built-in kinds
func IsValidMeasurementKind(kind string) bool {
	_, ok := MeasurementKindRegistry[kind]
	return ok
}
