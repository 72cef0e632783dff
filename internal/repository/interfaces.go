package repository

import (
	"context"
	"errors"

	"github.com/Ce1ectric/groundmeas/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound reports a lookup for a measurement or item that does not exist.
var ErrNotFound = errors.New("repository: not found")

// MeasurementRepository defines the interface for measurement data operations
type MeasurementRepository interface {
	Create(ctx context.Context, m *models.Measurement) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Measurement, error)
	List(ctx context.Context, filter models.MeasurementFilter) ([]*models.Measurement, error)
	Update(ctx context.Context, m *models.Measurement) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddItem(ctx context.Context, item *models.MeasurementItem) error
	GetItems(ctx context.Context, measurementID uuid.UUID, measurementType string) ([]models.MeasurementItem, error)
}
