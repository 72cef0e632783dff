package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// LocationInput carries an optional site for a new measurement
type LocationInput struct {
	Name      string   `json:"name" required:"true" doc:"Site name"`
	Latitude  *float64 `json:"latitude,omitempty" doc:"Latitude in decimal degrees"`
	Longitude *float64 `json:"longitude,omitempty" doc:"Longitude in decimal degrees"`
	Altitude  *float64 `json:"altitude,omitempty" doc:"Altitude in meters"`
}

// MeasurementItemInput is one reading submitted with a measurement
type MeasurementItemInput struct {
	Type               string   `json:"measurement_type" required:"true" enum:"prospective_touch_voltage,touch_voltage,earth_potential_rise,step_voltage,transferred_potential,earth_fault_current,earthing_current,earthing_resistance,earthing_impedance,soil_resistivity" doc:"Measurement item category"`
	Value              *float64 `json:"value,omitempty" doc:"Value magnitude (polar form)"`
	AngleDeg           *float64 `json:"angle_deg,omitempty" doc:"Phase angle in degrees (polar form)"`
	Real               *float64 `json:"real,omitempty" doc:"Real part (rectangular form)"`
	Imag               *float64 `json:"imag,omitempty" doc:"Imaginary part (rectangular form)"`
	Unit               string   `json:"unit" required:"true" doc:"Physical unit, e.g. ohm"`
	FrequencyHz        *float64 `json:"frequency_hz,omitempty" minimum:"0" doc:"Measurement frequency in Hz"`
	DistanceM          *float64 `json:"measurement_distance_m,omitempty" minimum:"0" doc:"Probe distance in meters"`
	InjectionDistanceM *float64 `json:"injection_distance_m,omitempty" doc:"Current injection distance in meters"`
	Description        *string  `json:"description,omitempty" maxLength:"500" doc:"Free-form note"`
}

// CreateMeasurementRequest represents a request to record a new measurement
type CreateMeasurementRequest struct {
	Body struct {
		Method             string                 `json:"method" required:"true" enum:"staged_fault_test,injection_remote_substation,injection_earth_electrode" doc:"Measurement method"`
		AssetType          string                 `json:"asset_type" required:"true" enum:"substation,overhead_line_tower,cable,cable_cabinet,house,pole_mounted_transformer,mv_lv_earthing_system" doc:"Asset the measurement targets"`
		Timestamp          *time.Time             `json:"timestamp,omitempty" doc:"Measurement time; defaults to now"`
		VoltageLevelKV     *float64               `json:"voltage_level_kv,omitempty" doc:"System voltage level in kV"`
		FaultResistanceOhm *float64               `json:"fault_resistance_ohm,omitempty" doc:"Fault resistance in ohms"`
		Operator           *string                `json:"operator,omitempty" maxLength:"100" doc:"Operator name"`
		Description        *string                `json:"description,omitempty" maxLength:"500" doc:"Free-form note"`
		Location           *LocationInput         `json:"location,omitempty" doc:"Site of the measurement"`
		Items              []MeasurementItemInput `json:"items,omitempty" doc:"Initial readings"`
	}
}

// CreateMeasurementResponse returns the stored measurement
type CreateMeasurementResponse struct {
	Body Measurement
}

// GetMeasurementRequest asks for one measurement with its items
type GetMeasurementRequest struct {
	ID string `path:"id" doc:"Measurement ID"`
}

// GetMeasurementResponse returns one measurement with its items
type GetMeasurementResponse struct {
	Body Measurement
}

// ListMeasurementsRequest filters the measurement list
type ListMeasurementsRequest struct {
	AssetType       string   `query:"asset_type" doc:"Filter by asset type"`
	Method          string   `query:"method" doc:"Filter by method"`
	MeasurementType string   `query:"measurement_type" doc:"Keep only measurements with items of this type"`
	VoltageMinKV    *float64 `query:"voltage_min_kv" doc:"Minimum voltage level in kV"`
	VoltageMaxKV    *float64 `query:"voltage_max_kv" doc:"Maximum voltage level in kV"`
}

// ListMeasurementsResponse returns the matching measurements
type ListMeasurementsResponse struct {
	Body struct {
		Measurements []Measurement `json:"measurements" doc:"Matching measurements"`
		Count        int           `json:"count" doc:"Number of matches"`
	}
}

// UpdateMeasurementRequest patches measurement fields
type UpdateMeasurementRequest struct {
	ID   string `path:"id" doc:"Measurement ID"`
	Body struct {
		Method             *string  `json:"method,omitempty" enum:"staged_fault_test,injection_remote_substation,injection_earth_electrode" doc:"Measurement method"`
		AssetType          *string  `json:"asset_type,omitempty" enum:"substation,overhead_line_tower,cable,cable_cabinet,house,pole_mounted_transformer,mv_lv_earthing_system" doc:"Asset the measurement targets"`
		VoltageLevelKV     *float64 `json:"voltage_level_kv,omitempty" doc:"System voltage level in kV"`
		FaultResistanceOhm *float64 `json:"fault_resistance_ohm,omitempty" doc:"Fault resistance in ohms"`
		Operator           *string  `json:"operator,omitempty" maxLength:"100" doc:"Operator name"`
		Description        *string  `json:"description,omitempty" maxLength:"500" doc:"Free-form note"`
	}
}

// UpdateMeasurementResponse returns the updated measurement
type UpdateMeasurementResponse struct {
	Body Measurement
}

// DeleteMeasurementRequest removes a measurement and its items
type DeleteMeasurementRequest struct {
	ID string `path:"id" doc:"Measurement ID"`
}

// DeleteMeasurementResponse confirms the deletion
type DeleteMeasurementResponse struct {
	Body struct {
		Deleted bool `json:"deleted" doc:"Whether the measurement was removed"`
	}
}

// AddItemRequest appends a reading to an existing measurement
type AddItemRequest struct {
	ID   string               `path:"id" doc:"Measurement ID"`
	Body MeasurementItemInput `json:"-"`
}

// AddItemResponse returns the stored reading
type AddItemResponse struct {
	Body MeasurementItem
}

// CreateAttachmentRequest asks for a pre-signed upload URL for a raw
// instrument file or field photo belonging to a measurement
type CreateAttachmentRequest struct {
	ID   string `path:"id" doc:"Measurement ID"`
	Body struct {
		FileName string `json:"file_name" required:"true" minLength:"1" maxLength:"255" doc:"Original file name"`
		MimeType string `json:"mime_type" required:"true" enum:"text/csv,application/json,application/xml,image/jpeg,image/png,application/octet-stream" doc:"Attachment MIME type"`
		FileSize int64  `json:"file_size" required:"true" minimum:"1" maximum:"52428800" doc:"File size in bytes"`
	}
}

// CreateAttachmentResponse returns the pre-signed upload URL
type CreateAttachmentResponse struct {
	Body struct {
		Key       string `json:"key" doc:"Storage key of the attachment"`
		UploadURL string `json:"upload_url" doc:"Pre-signed URL for file upload"`
		ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
	}
}

// FrequencyValuePoint is one frequency sample of a projection
type FrequencyValuePoint struct {
	FrequencyHz float64 `json:"frequency_hz" doc:"Frequency in Hz"`
	Value       float64 `json:"value" doc:"Value magnitude"`
}

// ImpedanceOverFrequencyRequest asks for the frequency-to-impedance map of a
// measurement's earthing impedance items
type ImpedanceOverFrequencyRequest struct {
	ID string `path:"id" doc:"Measurement ID"`
}

// ImpedanceOverFrequencyResponse returns impedance magnitude per frequency
type ImpedanceOverFrequencyResponse struct {
	Body struct {
		Points []FrequencyValuePoint `json:"points" doc:"Impedance magnitude per frequency"`
	}
}

// ValueOverDistanceRequest asks for the distance-to-value series of one item type
type ValueOverDistanceRequest struct {
	ID   string `path:"id" doc:"Measurement ID"`
	Type string `query:"measurement_type" default:"earthing_impedance" doc:"Measurement item category"`
}

// DistancePoint is one distance sample of a projection
type DistancePoint struct {
	DistanceM float64 `json:"distance_m" doc:"Probe distance in meters"`
	Value     float64 `json:"value" doc:"Value magnitude"`
}

// ValueOverDistanceResponse returns value magnitude per probe distance
type ValueOverDistanceResponse struct {
	Body struct {
		Points []DistancePoint `json:"points" doc:"Value per probe distance"`
	}
}

// DistanceProfileRequest reduces a distance profile to a characteristic value
type DistanceProfileRequest struct {
	Body struct {
		MeasurementID      string   `json:"measurement_id" required:"true" doc:"Measurement ID"`
		MeasurementType    string   `json:"measurement_type,omitempty" default:"earthing_impedance" doc:"Measurement item category"`
		Algorithm          string   `json:"algorithm" required:"true" enum:"maximum,62_percent,minimum_gradient,minimum_stddev,inverse" doc:"Reduction algorithm"`
		InjectionDistanceM *float64 `json:"injection_distance_m,omitempty" doc:"Injection distance for 62_percent; defaults to the items' recorded injection distance"`
		Window             int      `json:"window,omitempty" minimum:"0" doc:"Sliding window size for minimum_stddev; 0 means 3"`
	}
}

// DistanceProfileResponse is the reduced characteristic point
type DistanceProfileResponse struct {
	Body struct {
		ResultValue    float64        `json:"result_value" doc:"Characteristic value"`
		ResultDistance *float64       `json:"result_distance" doc:"Characteristic distance in meters; null when extrapolated to infinity"`
		Details        map[string]any `json:"details" doc:"Audit trail of the reduction"`
	}
}

// RhoFModelRequest fits the rho-f impedance model across measurements
type RhoFModelRequest struct {
	Body struct {
		MeasurementIDs []string `json:"measurement_ids" required:"true" minItems:"1" doc:"Measurements contributing impedance and soil resistivity"`
	}
}

// RhoFModelResponse returns the five fitted model coefficients
type RhoFModelResponse struct {
	Body struct {
		K1 float64 `json:"k1" doc:"Resistivity coefficient"`
		K2 float64 `json:"k2" doc:"Real frequency coefficient"`
		K3 float64 `json:"k3" doc:"Imaginary frequency coefficient"`
		K4 float64 `json:"k4" doc:"Real cross-term coefficient"`
		K5 float64 `json:"k5" doc:"Imaginary cross-term coefficient"`
	}
}

// EPRRequest derives earth potential rise from an impedance and a current
// measurement
type EPRRequest struct {
	Body struct {
		ImpedanceMeasurementID string `json:"impedance_measurement_id" required:"true" doc:"Measurement carrying earthing_impedance items"`
		CurrentMeasurementID   string `json:"current_measurement_id" required:"true" doc:"Measurement carrying earthing_current items"`
	}
}

// EPRPointBody is the earth potential rise at one frequency
type EPRPointBody struct {
	FrequencyHz float64 `json:"frequency_hz" doc:"Frequency in Hz"`
	VoltageV    float64 `json:"voltage_v" doc:"Earth potential rise in volts"`
}

// EPRResponse returns earth potential rise per overlapping frequency
type EPRResponse struct {
	Body struct {
		Points []EPRPointBody `json:"points" doc:"Earth potential rise per frequency"`
	}
}

// SoilForwardRequest simulates apparent resistivity over a layered earth
type SoilForwardRequest struct {
	Body struct {
		Spacings    []float64 `json:"spacings" required:"true" minItems:"1" doc:"Electrode spacings in meters"`
		RhoLayers   []float64 `json:"rho_layers" required:"true" minItems:"1" doc:"Layer resistivities in ohm-meters, top down"`
		Thicknesses []float64 `json:"thicknesses,omitempty" doc:"Layer thicknesses in meters, one fewer than layers"`
		ArrayType   string    `json:"array_type" required:"true" enum:"wenner,schlumberger" doc:"Electrode array geometry"`
		Mode        string    `json:"mode,omitempty" enum:"filter,integrate" default:"filter" doc:"Kernel evaluation mode"`
		MNSpacingM  float64   `json:"mn_spacing_m,omitempty" doc:"Potential electrode separation for schlumberger integrate mode"`
	}
}

// SoilForwardResponse returns the simulated sounding curve
type SoilForwardResponse struct {
	Body struct {
		ApparentResistivities []float64 `json:"apparent_resistivities" doc:"Apparent resistivity per spacing in ohm-meters"`
	}
}

// SoilInvertRequest fits a layered-earth model to an observed sounding curve
type SoilInvertRequest struct {
	Body struct {
		Spacings      []float64 `json:"spacings" required:"true" minItems:"1" doc:"Electrode spacings in meters"`
		Observed      []float64 `json:"observed_resistivities" required:"true" minItems:"1" doc:"Observed apparent resistivities in ohm-meters"`
		InitialRho    []float64 `json:"initial_rho_layers" required:"true" minItems:"1" doc:"Starting layer resistivities"`
		InitialThick  []float64 `json:"initial_thicknesses,omitempty" doc:"Starting layer thicknesses"`
		ArrayType     string    `json:"array_type" required:"true" enum:"wenner,schlumberger" doc:"Electrode array geometry"`
		MaxIterations int       `json:"max_iter,omitempty" minimum:"0" maximum:"500" doc:"Iteration cap; 0 means 50"`
		Damping       float64   `json:"damping,omitempty" minimum:"0" doc:"Initial damping factor; 0 means 0.01"`
	}
}

// SoilInvertResponse returns the fitted model and the inversion trace
type SoilInvertResponse struct {
	Body struct {
		RhoLayers   []float64 `json:"rho_layers" doc:"Fitted layer resistivities in ohm-meters"`
		Thicknesses []float64 `json:"thicknesses" doc:"Fitted layer thicknesses in meters"`
		Misfit      float64   `json:"misfit" doc:"Final RMS relative misfit"`
		MisfitTrace []float64 `json:"misfit_trace" doc:"Misfit after each accepted iteration"`
		Converged   bool      `json:"converged" doc:"Whether the loop converged before the iteration cap"`
		Stalled     bool      `json:"stalled" doc:"Whether the loop stopped because no damped step improved the fit"`
		Iterations  int       `json:"iterations" doc:"Iterations run"`
	}
}

// ExportRequest exports filtered measurements to a file in object storage
type ExportRequest struct {
	Body struct {
		Format    string `json:"format" required:"true" enum:"json,csv,xml" doc:"Export file format"`
		AssetType string `json:"asset_type,omitempty" doc:"Filter by asset type"`
		Method    string `json:"method,omitempty" doc:"Filter by method"`
	}
}

// ExportResponse returns a pre-signed URL for the generated export file
type ExportResponse struct {
	Body struct {
		Key         string `json:"key" doc:"Storage key of the export file"`
		DownloadURL string `json:"download_url" doc:"Pre-signed download URL"`
		ExpiresIn   int    `json:"expires_in" doc:"URL expiration time in seconds"`
		Count       int    `json:"count" doc:"Number of measurements exported"`
	}
}
