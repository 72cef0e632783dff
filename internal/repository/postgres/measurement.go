package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Ce1ectric/groundmeas/internal/repository"
	"github.com/Ce1ectric/groundmeas/pkg/models"
)

// PostgresMeasurementRepository implements MeasurementRepository for PostgreSQL
type PostgresMeasurementRepository struct {
	db *sql.DB
}

// NewPostgresMeasurementRepository creates a new PostgreSQL measurement repository
func NewPostgresMeasurementRepository(db *sql.DB) repository.MeasurementRepository {
	return &PostgresMeasurementRepository{db: db}
}

// Create inserts a measurement, its optional location, and its initial items
// in one transaction.
func (r *PostgresMeasurementRepository) Create(ctx context.Context, m *models.Measurement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create measurement: %w", err)
	}
	defer tx.Rollback()

	if m.Location != nil {
		locQuery := `
			INSERT INTO locations (id, name, latitude, longitude, altitude)
			VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.ExecContext(ctx, locQuery,
			m.Location.ID,
			m.Location.Name,
			m.Location.Latitude,
			m.Location.Longitude,
			m.Location.Altitude); err != nil {
			return fmt.Errorf("insert location: %w", err)
		}
		m.LocationID = &m.Location.ID
	}

	query := `
		INSERT INTO measurements (id, ts, location_id, method, asset_type,
			voltage_level_kv, fault_resistance_ohm, operator, description,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := tx.ExecContext(ctx, query,
		m.ID,
		m.Timestamp,
		m.LocationID,
		m.Method,
		m.AssetType,
		m.VoltageLevelKV,
		m.FaultResistanceOhm,
		m.Operator,
		m.Description,
		m.CreatedAt,
		m.UpdatedAt); err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}

	for i := range m.Items {
		if err := insertItem(ctx, tx, &m.Items[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertItem(ctx context.Context, tx *sql.Tx, item *models.MeasurementItem) error {
	query := `
		INSERT INTO measurement_items (id, measurement_id, measurement_type,
			value, angle_deg, real_part, imag_part, unit, frequency_hz,
			measurement_distance_m, injection_distance_m, description,
			attachment_s3_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := tx.ExecContext(ctx, query,
		item.ID,
		item.MeasurementID,
		item.Type,
		item.Value,
		item.AngleDeg,
		item.Real,
		item.Imag,
		item.Unit,
		item.FrequencyHz,
		item.DistanceM,
		item.InjectionDistanceM,
		item.Description,
		item.AttachmentS3Key); err != nil {
		return fmt.Errorf("insert measurement item: %w", err)
	}
	return nil
}

// GetByID retrieves a measurement with its location and items.
func (r *PostgresMeasurementRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Measurement, error) {
	query := `
		SELECT m.id, m.ts, m.location_id, m.method, m.asset_type,
		       m.voltage_level_kv, m.fault_resistance_ohm, m.operator,
		       m.description, m.created_at, m.updated_at,
		       l.name, l.latitude, l.longitude, l.altitude
		FROM measurements m
		LEFT JOIN locations l ON l.id = m.location_id
		WHERE m.id = $1`

	var (
		m         models.Measurement
		locID     sql.NullString
		voltage   sql.NullFloat64
		faultRes  sql.NullFloat64
		operator  sql.NullString
		descr     sql.NullString
		locName   sql.NullString
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
		altitude  sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.Timestamp,
		&locID,
		&m.Method,
		&m.AssetType,
		&voltage,
		&faultRes,
		&operator,
		&descr,
		&m.CreatedAt,
		&m.UpdatedAt,
		&locName,
		&latitude,
		&longitude,
		&altitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select measurement: %w", err)
	}

	m.VoltageLevelKV = nullFloat(voltage)
	m.FaultResistanceOhm = nullFloat(faultRes)
	m.Operator = nullString(operator)
	m.Description = nullString(descr)
	if locID.Valid {
		m.LocationID = &locID.String
		loc := &models.Location{ID: locID.String, Name: locName.String}
		loc.Latitude = nullFloat(latitude)
		loc.Longitude = nullFloat(longitude)
		loc.Altitude = nullFloat(altitude)
		m.Location = loc
	}

	items, err := r.GetItems(ctx, id, "")
	if err != nil {
		return nil, err
	}
	m.Items = items
	return &m, nil
}

// List retrieves measurements matching the filter, newest first, with items.
func (r *PostgresMeasurementRepository) List(ctx context.Context, filter models.MeasurementFilter) ([]*models.Measurement, error) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.AssetType != "" {
		clauses = append(clauses, "m.asset_type = "+arg(filter.AssetType))
	}
	if filter.Method != "" {
		clauses = append(clauses, "m.method = "+arg(filter.Method))
	}
	if filter.LocationID != "" {
		clauses = append(clauses, "m.location_id = "+arg(filter.LocationID))
	}
	if filter.VoltageMinKV != nil {
		clauses = append(clauses, "m.voltage_level_kv >= "+arg(*filter.VoltageMinKV))
	}
	if filter.VoltageMaxKV != nil {
		clauses = append(clauses, "m.voltage_level_kv <= "+arg(*filter.VoltageMaxKV))
	}
	if filter.MeasurementType != "" {
		clauses = append(clauses, `EXISTS (
			SELECT 1 FROM measurement_items i
			WHERE i.measurement_id = m.id AND i.measurement_type = `+arg(filter.MeasurementType)+")")
	}

	query := `
		SELECT m.id, m.ts, m.location_id, m.method, m.asset_type,
		       m.voltage_level_kv, m.fault_resistance_ohm, m.operator,
		       m.description, m.created_at, m.updated_at
		FROM measurements m`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY m.ts DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	var out []*models.Measurement
	for rows.Next() {
		var (
			m        models.Measurement
			locID    sql.NullString
			voltage  sql.NullFloat64
			faultRes sql.NullFloat64
			operator sql.NullString
			descr    sql.NullString
		)
		if err := rows.Scan(
			&m.ID,
			&m.Timestamp,
			&locID,
			&m.Method,
			&m.AssetType,
			&voltage,
			&faultRes,
			&operator,
			&descr,
			&m.CreatedAt,
			&m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		if locID.Valid {
			m.LocationID = &locID.String
		}
		m.VoltageLevelKV = nullFloat(voltage)
		m.FaultResistanceOhm = nullFloat(faultRes)
		m.Operator = nullString(operator)
		m.Description = nullString(descr)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}

	for _, m := range out {
		id, err := uuid.Parse(m.ID)
		if err != nil {
			return nil, fmt.Errorf("stored measurement id %q: %w", m.ID, err)
		}
		items, err := r.GetItems(ctx, id, "")
		if err != nil {
			return nil, err
		}
		m.Items = items
	}
	return out, nil
}

// Update rewrites the mutable fields of a measurement.
func (r *PostgresMeasurementRepository) Update(ctx context.Context, m *models.Measurement) error {
	query := `
		UPDATE measurements
		SET method = $1, asset_type = $2, voltage_level_kv = $3,
		    fault_resistance_ohm = $4, operator = $5, description = $6,
		    updated_at = NOW()
		WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query,
		m.Method,
		m.AssetType,
		m.VoltageLevelKV,
		m.FaultResistanceOhm,
		m.Operator,
		m.Description,
		m.ID)
	if err != nil {
		return fmt.Errorf("update measurement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a measurement and cascades to its items.
func (r *PostgresMeasurementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM measurements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddItem appends a reading to an existing measurement.
func (r *PostgresMeasurementRepository) AddItem(ctx context.Context, item *models.MeasurementItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add item: %w", err)
	}
	defer tx.Rollback()
	if err := insertItem(ctx, tx, item); err != nil {
		return err
	}
	return tx.Commit()
}

// GetItems retrieves a measurement's items, optionally limited to one type.
func (r *PostgresMeasurementRepository) GetItems(ctx context.Context, measurementID uuid.UUID, measurementType string) ([]models.MeasurementItem, error) {
	query := `
		SELECT id, measurement_id, measurement_type, value, angle_deg,
		       real_part, imag_part, unit, frequency_hz,
		       measurement_distance_m, injection_distance_m, description,
		       attachment_s3_key
		FROM measurement_items
		WHERE measurement_id = $1`
	args := []any{measurementID}
	if measurementType != "" {
		query += " AND measurement_type = $2"
		args = append(args, measurementType)
	}
	query += " ORDER BY measurement_distance_m NULLS LAST, frequency_hz NULLS LAST"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list measurement items: %w", err)
	}
	defer rows.Close()

	var items []models.MeasurementItem
	for rows.Next() {
		var (
			item       models.MeasurementItem
			value      sql.NullFloat64
			angle      sql.NullFloat64
			realPart   sql.NullFloat64
			imagPart   sql.NullFloat64
			freq       sql.NullFloat64
			dist       sql.NullFloat64
			injDist    sql.NullFloat64
			descr      sql.NullString
			attachment sql.NullString
		)
		if err := rows.Scan(
			&item.ID,
			&item.MeasurementID,
			&item.Type,
			&value,
			&angle,
			&realPart,
			&imagPart,
			&item.Unit,
			&freq,
			&dist,
			&injDist,
			&descr,
			&attachment); err != nil {
			return nil, fmt.Errorf("scan measurement item: %w", err)
		}
		item.Value = nullFloat(value)
		item.AngleDeg = nullFloat(angle)
		item.Real = nullFloat(realPart)
		item.Imag = nullFloat(imagPart)
		item.FrequencyHz = nullFloat(freq)
		item.DistanceM = nullFloat(dist)
		item.InjectionDistanceM = nullFloat(injDist)
		item.Description = nullString(descr)
		item.AttachmentS3Key = nullString(attachment)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list measurement items: %w", err)
	}
	return items, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
