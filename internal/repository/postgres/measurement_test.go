package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Ce1ectric/groundmeas/internal/repository"
	"github.com/Ce1ectric/groundmeas/pkg/models"
)

// setupTestDB starts a PostgreSQL container and applies the schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := pgContainer.Run(ctx,
		"postgres:15-alpine",
		pgContainer.WithDatabase("groundmeas_test"),
		pgContainer.WithUsername("testuser"),
		pgContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../../migrations/0001_init.up.sql")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, string(schema))
	require.NoError(t, err)

	return db
}

func fp(v float64) *float64 { return &v }

func sp(s string) *string { return &s }

func newMeasurement(items ...models.MeasurementItem) *models.Measurement {
	id := uuid.New().String()
	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].MeasurementID = id
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Measurement{
		ID:             id,
		Timestamp:      now,
		Method:         "injection_remote_substation",
		AssetType:      "substation",
		VoltageLevelKV: fp(110),
		Operator:       sp("crew 7"),
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestMeasurementRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	repo := NewPostgresMeasurementRepository(db)
	ctx := context.Background()

	t.Run("create and get with location and items", func(t *testing.T) {
		m := newMeasurement(
			models.MeasurementItem{Type: "earthing_impedance", Value: fp(1.4), AngleDeg: fp(12), Unit: "Ohm", FrequencyHz: fp(50), DistanceM: fp(30)},
			models.MeasurementItem{Type: "earthing_impedance", Real: fp(1.1), Imag: fp(0.3), Unit: "Ohm", FrequencyHz: fp(150), DistanceM: fp(10)},
		)
		m.Location = &models.Location{
			ID:       uuid.New().String(),
			Name:     "Substation West",
			Latitude: fp(47.37),
		}
		require.NoError(t, repo.Create(ctx, m))

		got, err := repo.GetByID(ctx, uuid.MustParse(m.ID))
		require.NoError(t, err)
		assert.Equal(t, m.Method, got.Method)
		require.NotNil(t, got.Location)
		assert.Equal(t, "Substation West", got.Location.Name)
		require.NotNil(t, got.Location.Latitude)
		assert.InDelta(t, 47.37, *got.Location.Latitude, 1e-12)
		require.Len(t, got.Items, 2)
		// Items come back ordered by distance.
		assert.Equal(t, 10.0, *got.Items[0].DistanceM)
		assert.Equal(t, 30.0, *got.Items[1].DistanceM)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("list with filters", func(t *testing.T) {
		tower := newMeasurement(
			models.MeasurementItem{Type: "soil_resistivity", Value: fp(120), Unit: "Ohmm"},
		)
		tower.AssetType = "overhead_line_tower"
		tower.Method = "staged_fault_test"
		tower.VoltageLevelKV = fp(380)
		require.NoError(t, repo.Create(ctx, tower))

		byAsset, err := repo.List(ctx, models.MeasurementFilter{AssetType: "overhead_line_tower"})
		require.NoError(t, err)
		require.Len(t, byAsset, 1)
		assert.Equal(t, tower.ID, byAsset[0].ID)
		require.Len(t, byAsset[0].Items, 1)

		byType, err := repo.List(ctx, models.MeasurementFilter{MeasurementType: "soil_resistivity"})
		require.NoError(t, err)
		require.Len(t, byType, 1)
		assert.Equal(t, tower.ID, byType[0].ID)

		byVoltage, err := repo.List(ctx, models.MeasurementFilter{VoltageMinKV: fp(200)})
		require.NoError(t, err)
		require.Len(t, byVoltage, 1)
		assert.Equal(t, tower.ID, byVoltage[0].ID)

		none, err := repo.List(ctx, models.MeasurementFilter{AssetType: "house"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("update", func(t *testing.T) {
		m := newMeasurement()
		require.NoError(t, repo.Create(ctx, m))

		m.Method = "injection_earth_electrode"
		m.Description = sp("re-measured after electrode repair")
		require.NoError(t, repo.Update(ctx, m))

		got, err := repo.GetByID(ctx, uuid.MustParse(m.ID))
		require.NoError(t, err)
		assert.Equal(t, "injection_earth_electrode", got.Method)
		require.NotNil(t, got.Description)
		assert.Equal(t, "re-measured after electrode repair", *got.Description)
	})

	t.Run("update missing", func(t *testing.T) {
		m := newMeasurement()
		assert.ErrorIs(t, repo.Update(ctx, m), repository.ErrNotFound)
	})

	t.Run("add item and filter by type", func(t *testing.T) {
		m := newMeasurement()
		require.NoError(t, repo.Create(ctx, m))

		item := &models.MeasurementItem{
			ID:            uuid.New().String(),
			MeasurementID: m.ID,
			Type:          "earthing_current",
			Value:         fp(85),
			Unit:          "A",
			FrequencyHz:   fp(50),
		}
		require.NoError(t, repo.AddItem(ctx, item))

		items, err := repo.GetItems(ctx, uuid.MustParse(m.ID), "earthing_current")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, item.ID, items[0].ID)

		other, err := repo.GetItems(ctx, uuid.MustParse(m.ID), "earthing_impedance")
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("delete cascades to items", func(t *testing.T) {
		m := newMeasurement(
			models.MeasurementItem{Type: "earthing_impedance", Value: fp(2), Unit: "Ohm"},
		)
		require.NoError(t, repo.Create(ctx, m))
		require.NoError(t, repo.Delete(ctx, uuid.MustParse(m.ID)))

		_, err := repo.GetByID(ctx, uuid.MustParse(m.ID))
		assert.ErrorIs(t, err, repository.ErrNotFound)

		items, err := repo.GetItems(ctx, uuid.MustParse(m.ID), "")
		require.NoError(t, err)
		assert.Empty(t, items)

		assert.ErrorIs(t, repo.Delete(ctx, uuid.MustParse(m.ID)), repository.ErrNotFound)
	})
}
