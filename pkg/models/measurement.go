package models

import (
	"time"
)

// MeasurementTypes are the supported measurement item categories.
var MeasurementTypes = []string{
	"prospective_touch_voltage",
	"touch_voltage",
	"earth_potential_rise",
	"step_voltage",
	"transferred_potential",
	"earth_fault_current",
	"earthing_current",
	"earthing_resistance",
	"earthing_impedance",
	"soil_resistivity",
}

// Methods are the supported measurement campaign methods.
var Methods = []string{
	"staged_fault_test",
	"injection_remote_substation",
	"injection_earth_electrode",
}

// AssetTypes are the supported asset categories a measurement can target.
var AssetTypes = []string{
	"substation",
	"overhead_line_tower",
	"cable",
	"cable_cabinet",
	"house",
	"pole_mounted_transformer",
	"mv_lv_earthing_system",
}

// ValidMeasurementType reports whether t is a known measurement item category.
func ValidMeasurementType(t string) bool { return contains(MeasurementTypes, t) }

// ValidMethod reports whether m is a known campaign method.
func ValidMethod(m string) bool { return contains(Methods, m) }

// ValidAssetType reports whether a is a known asset category.
func ValidAssetType(a string) bool { return contains(AssetTypes, a) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Location is the site a measurement campaign was taken at.
type Location struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// Measurement is one field measurement campaign with its recorded items.
type Measurement struct {
	ID                 string            `json:"id"`
	Timestamp          time.Time         `json:"timestamp"`
	LocationID         *string           `json:"location_id,omitempty"`
	Location           *Location         `json:"location,omitempty"`
	Method             string            `json:"method"`
	AssetType          string            `json:"asset_type"`
	VoltageLevelKV     *float64          `json:"voltage_level_kv,omitempty"`
	FaultResistanceOhm *float64          `json:"fault_resistance_ohm,omitempty"`
	Operator           *string           `json:"operator,omitempty"`
	Description        *string           `json:"description,omitempty"`
	Items              []MeasurementItem `json:"items,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// MeasurementItem is a single reading inside a campaign. The electrical value
// may be polar (Value as magnitude plus AngleDeg) or rectangular (Real, Imag);
// at least one form must be present.
type MeasurementItem struct {
	ID                 string   `json:"id"`
	MeasurementID      string   `json:"measurement_id"`
	Type               string   `json:"measurement_type"`
	Value              *float64 `json:"value,omitempty"`
	AngleDeg           *float64 `json:"angle_deg,omitempty"`
	Real               *float64 `json:"real,omitempty"`
	Imag               *float64 `json:"imag,omitempty"`
	Unit               string   `json:"unit"`
	FrequencyHz        *float64 `json:"frequency_hz,omitempty"`
	DistanceM          *float64 `json:"measurement_distance_m,omitempty"`
	InjectionDistanceM *float64 `json:"injection_distance_m,omitempty"`
	Description        *string  `json:"description,omitempty"`
	AttachmentS3Key    *string  `json:"attachment_s3_key,omitempty"`
}

// MeasurementFilter narrows measurement list queries.
type MeasurementFilter struct {
	AssetType       string
	Method          string
	MeasurementType string
	LocationID      string
	VoltageMinKV    *float64
	VoltageMaxKV    *float64
}
