package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/Ce1ectric/groundmeas/pkg/models"
)

// Format identifies an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
)

// ParseFormat validates a format token.
func ParseFormat(token string) (Format, error) {
	switch Format(token) {
	case FormatJSON, FormatCSV, FormatXML:
		return Format(token), nil
	default:
		return "", fmt.Errorf("unknown export format %q", token)
	}
}

// ContentType returns the MIME type of the rendered file.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXML:
		return "application/xml"
	default:
		return "application/json"
	}
}

// Render serializes measurements (with nested items) into the format.
func Render(format Format, measurements []*models.Measurement) ([]byte, error) {
	switch format {
	case FormatJSON:
		return renderJSON(measurements)
	case FormatCSV:
		return renderCSV(measurements)
	case FormatXML:
		return renderXML(measurements)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

func renderJSON(measurements []*models.Measurement) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(measurements); err != nil {
		return nil, fmt.Errorf("encode json export: %w", err)
	}
	return buf.Bytes(), nil
}

// renderCSV writes one row per measurement; the nested items travel as a JSON
// string in the last column.
func renderCSV(measurements []*models.Measurement) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "timestamp", "location_id", "method", "asset_type",
		"voltage_level_kv", "fault_resistance_ohm", "operator", "description",
		"items",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range measurements {
		items, err := json.Marshal(m.Items)
		if err != nil {
			return nil, fmt.Errorf("encode items for measurement %s: %w", m.ID, err)
		}
		row := []string{
			m.ID,
			m.Timestamp.UTC().Format(time.RFC3339),
			strOrEmpty(m.LocationID),
			m.Method,
			m.AssetType,
			floatOrEmpty(m.VoltageLevelKV),
			floatOrEmpty(m.FaultResistanceOhm),
			strOrEmpty(m.Operator),
			strOrEmpty(m.Description),
			string(items),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv export: %w", err)
	}
	return buf.Bytes(), nil
}

type xmlExport struct {
	XMLName      xml.Name         `xml:"measurements"`
	Measurements []xmlMeasurement `xml:"measurement"`
}

type xmlMeasurement struct {
	ID                 string    `xml:"id,attr"`
	Timestamp          string    `xml:"timestamp"`
	LocationID         *string   `xml:"location_id,omitempty"`
	Method             string    `xml:"method"`
	AssetType          string    `xml:"asset_type"`
	VoltageLevelKV     *float64  `xml:"voltage_level_kv,omitempty"`
	FaultResistanceOhm *float64  `xml:"fault_resistance_ohm,omitempty"`
	Operator           *string   `xml:"operator,omitempty"`
	Description        *string   `xml:"description,omitempty"`
	Items              []xmlItem `xml:"items>item"`
}

type xmlItem struct {
	ID                 string   `xml:"id,attr"`
	Type               string   `xml:"measurement_type"`
	Value              *float64 `xml:"value,omitempty"`
	AngleDeg           *float64 `xml:"angle_deg,omitempty"`
	Real               *float64 `xml:"real,omitempty"`
	Imag               *float64 `xml:"imag,omitempty"`
	Unit               string   `xml:"unit"`
	FrequencyHz        *float64 `xml:"frequency_hz,omitempty"`
	DistanceM          *float64 `xml:"measurement_distance_m,omitempty"`
	InjectionDistanceM *float64 `xml:"injection_distance_m,omitempty"`
}

func renderXML(measurements []*models.Measurement) ([]byte, error) {
	doc := xmlExport{Measurements: make([]xmlMeasurement, 0, len(measurements))}
	for _, m := range measurements {
		xm := xmlMeasurement{
			ID:                 m.ID,
			Timestamp:          m.Timestamp.UTC().Format(time.RFC3339),
			LocationID:         m.LocationID,
			Method:             m.Method,
			AssetType:          m.AssetType,
			VoltageLevelKV:     m.VoltageLevelKV,
			FaultResistanceOhm: m.FaultResistanceOhm,
			Operator:           m.Operator,
			Description:        m.Description,
			Items:              make([]xmlItem, 0, len(m.Items)),
		}
		for _, item := range m.Items {
			xm.Items = append(xm.Items, xmlItem{
				ID:                 item.ID,
				Type:               item.Type,
				Value:              item.Value,
				AngleDeg:           item.AngleDeg,
				Real:               item.Real,
				Imag:               item.Imag,
				Unit:               item.Unit,
				FrequencyHz:        item.FrequencyHz,
				DistanceM:          item.DistanceM,
				InjectionDistanceM: item.InjectionDistanceM,
			})
		}
		doc.Measurements = append(doc.Measurements, xm)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode xml export: %w", err)
	}
	return buf.Bytes(), nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%g", *f)
}
