package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/cmplx"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Ce1ectric/groundmeas/internal/analytics"
	"github.com/Ce1ectric/groundmeas/internal/repository"
	"github.com/Ce1ectric/groundmeas/internal/storage"
	"github.com/Ce1ectric/groundmeas/pkg/models"
)

// uploadURLExpiry is how long a pre-signed attachment upload URL stays valid.
const uploadURLExpiry = 15 * time.Minute

// MeasurementHandler handles measurement CRUD and projection HTTP requests
type MeasurementHandler struct {
	repo repository.MeasurementRepository
	s3   storage.S3Service
}

// NewMeasurementHandler creates a new measurement handler
func NewMeasurementHandler(repo repository.MeasurementRepository, s3Service storage.S3Service) *MeasurementHandler {
	return &MeasurementHandler{
		repo: repo,
		s3:   s3Service,
	}
}

// CreateMeasurement records a new measurement campaign with optional site and
// initial readings
func (h *MeasurementHandler) CreateMeasurement(ctx context.Context, req *models.CreateMeasurementRequest) (*models.CreateMeasurementResponse, error) {
	log.Info().Str("method", req.Body.Method).Str("assetType", req.Body.AssetType).Int("items", len(req.Body.Items)).Msg("Creating measurement")

	now := time.Now()
	timestamp := now
	if req.Body.Timestamp != nil {
		timestamp = *req.Body.Timestamp
	}

	measurement := &models.Measurement{
		ID:                 uuid.New().String(),
		Timestamp:          timestamp,
		Method:             req.Body.Method,
		AssetType:          req.Body.AssetType,
		VoltageLevelKV:     req.Body.VoltageLevelKV,
		FaultResistanceOhm: req.Body.FaultResistanceOhm,
		Operator:           req.Body.Operator,
		Description:        req.Body.Description,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if req.Body.Location != nil {
		locationID := uuid.New().String()
		measurement.LocationID = &locationID
		measurement.Location = &models.Location{
			ID:        locationID,
			Name:      req.Body.Location.Name,
			Latitude:  req.Body.Location.Latitude,
			Longitude: req.Body.Location.Longitude,
			Altitude:  req.Body.Location.Altitude,
		}
	}

	for i, input := range req.Body.Items {
		item, err := itemFromInput(measurement.ID, input)
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("item %d: %s", i, err), err)
		}
		measurement.Items = append(measurement.Items, *item)
	}

	if err := h.repo.Create(ctx, measurement); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create measurement", err)
	}

	log.Info().Str("measurementID", measurement.ID).Msg("Measurement created")
	return &models.CreateMeasurementResponse{Body: *measurement}, nil
}

// GetMeasurement returns one measurement with its items
func (h *MeasurementHandler) GetMeasurement(ctx context.Context, req *models.GetMeasurementRequest) (*models.GetMeasurementResponse, error) {
	measurement, err := h.fetch(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &models.GetMeasurementResponse{Body: *measurement}, nil
}

// ListMeasurements returns measurements matching the filter
func (h *MeasurementHandler) ListMeasurements(ctx context.Context, req *models.ListMeasurementsRequest) (*models.ListMeasurementsResponse, error) {
	filter := models.MeasurementFilter{
		AssetType:       req.AssetType,
		Method:          req.Method,
		MeasurementType: req.MeasurementType,
		VoltageMinKV:    req.VoltageMinKV,
		VoltageMaxKV:    req.VoltageMaxKV,
	}

	measurements, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list measurements", err)
	}

	resp := &models.ListMeasurementsResponse{}
	resp.Body.Measurements = make([]models.Measurement, 0, len(measurements))
	for _, m := range measurements {
		resp.Body.Measurements = append(resp.Body.Measurements, *m)
	}
	resp.Body.Count = len(measurements)
	return resp, nil
}

// UpdateMeasurement patches measurement fields
func (h *MeasurementHandler) UpdateMeasurement(ctx context.Context, req *models.UpdateMeasurementRequest) (*models.UpdateMeasurementResponse, error) {
	measurement, err := h.fetch(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Body.Method != nil {
		measurement.Method = *req.Body.Method
	}
	if req.Body.AssetType != nil {
		measurement.AssetType = *req.Body.AssetType
	}
	if req.Body.VoltageLevelKV != nil {
		measurement.VoltageLevelKV = req.Body.VoltageLevelKV
	}
	if req.Body.FaultResistanceOhm != nil {
		measurement.FaultResistanceOhm = req.Body.FaultResistanceOhm
	}
	if req.Body.Operator != nil {
		measurement.Operator = req.Body.Operator
	}
	if req.Body.Description != nil {
		measurement.Description = req.Body.Description
	}
	measurement.UpdatedAt = time.Now()

	if err := h.repo.Update(ctx, measurement); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, huma.Error404NotFound("Measurement not found", err)
		}
		return nil, huma.Error500InternalServerError("Failed to update measurement", err)
	}
	return &models.UpdateMeasurementResponse{Body: *measurement}, nil
}

// DeleteMeasurement removes a measurement and its items
func (h *MeasurementHandler) DeleteMeasurement(ctx context.Context, req *models.DeleteMeasurementRequest) (*models.DeleteMeasurementResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid measurement ID", err)
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, huma.Error404NotFound("Measurement not found", err)
		}
		return nil, huma.Error500InternalServerError("Failed to delete measurement", err)
	}

	log.Info().Str("measurementID", req.ID).Msg("Measurement deleted")
	resp := &models.DeleteMeasurementResponse{}
	resp.Body.Deleted = true
	return resp, nil
}

// AddItem appends a reading to an existing measurement
func (h *MeasurementHandler) AddItem(ctx context.Context, req *models.AddItemRequest) (*models.AddItemResponse, error) {
	measurement, err := h.fetch(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	item, err := itemFromInput(measurement.ID, req.Body)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error(), err)
	}

	if err := h.repo.AddItem(ctx, item); err != nil {
		return nil, huma.Error500InternalServerError("Failed to add item", err)
	}
	return &models.AddItemResponse{Body: *item}, nil
}

// CreateAttachment returns a pre-signed upload URL for a raw instrument file
// or field photo belonging to a measurement
func (h *MeasurementHandler) CreateAttachment(ctx context.Context, req *models.CreateAttachmentRequest) (*models.CreateAttachmentResponse, error) {
	measurement, err := h.fetch(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("attachments/%s/%s-%s", measurement.ID, uuid.New(), req.Body.FileName)
	uploadURL, err := h.s3.GenerateUploadURL(ctx, key, req.Body.MimeType)
	if err != nil {
		return nil, huma.Error400BadRequest("Failed to prepare upload", err)
	}

	log.Info().Str("measurementID", measurement.ID).Str("key", key).Msg("Attachment upload URL generated")
	resp := &models.CreateAttachmentResponse{}
	resp.Body.Key = key
	resp.Body.UploadURL = uploadURL
	resp.Body.ExpiresIn = int(uploadURLExpiry.Seconds())
	return resp, nil
}

// GetImpedanceOverFrequency projects a measurement's earthing impedance items
// onto a frequency axis
func (h *MeasurementHandler) GetImpedanceOverFrequency(ctx context.Context, req *models.ImpedanceOverFrequencyRequest) (*models.ImpedanceOverFrequencyResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid measurement ID", err)
	}

	items, err := h.repo.GetItems(ctx, id, "earthing_impedance")
	if err != nil {
		return nil, mapComputeError(err)
	}

	series, err := analytics.BuildFrequencySeries(recordsFromItems(items))
	if err != nil {
		return nil, mapComputeError(err)
	}

	resp := &models.ImpedanceOverFrequencyResponse{}
	resp.Body.Points = make([]models.FrequencyValuePoint, 0, len(series))
	for f, z := range series {
		resp.Body.Points = append(resp.Body.Points, models.FrequencyValuePoint{
			FrequencyHz: f,
			Value:       cmplx.Abs(z),
		})
	}
	sort.Slice(resp.Body.Points, func(i, j int) bool {
		return resp.Body.Points[i].FrequencyHz < resp.Body.Points[j].FrequencyHz
	})
	return resp, nil
}

// GetValueOverDistance projects one item type of a measurement onto a probe
// distance axis
func (h *MeasurementHandler) GetValueOverDistance(ctx context.Context, req *models.ValueOverDistanceRequest) (*models.ValueOverDistanceResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid measurement ID", err)
	}
	if !models.ValidMeasurementType(req.Type) {
		return nil, huma.Error400BadRequest(fmt.Sprintf("unknown measurement type %q", req.Type), nil)
	}

	items, err := h.repo.GetItems(ctx, id, req.Type)
	if err != nil {
		return nil, mapComputeError(err)
	}

	series, err := analytics.BuildDistanceSeries(recordsFromItems(items))
	if err != nil {
		return nil, mapComputeError(err)
	}

	resp := &models.ValueOverDistanceResponse{}
	resp.Body.Points = make([]models.DistancePoint, 0, len(series))
	for _, p := range series {
		resp.Body.Points = append(resp.Body.Points, models.DistancePoint{
			DistanceM: p.Distance,
			Value:     p.Value,
		})
	}
	return resp, nil
}

func (h *MeasurementHandler) fetch(ctx context.Context, rawID string) (*models.Measurement, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid measurement ID", err)
	}
	measurement, err := h.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, huma.Error404NotFound("Measurement not found", err)
		}
		return nil, huma.Error500InternalServerError("Failed to load measurement", err)
	}
	return measurement, nil
}

// itemFromInput builds a stored item from an API input, enforcing that at
// least one value form is present.
func itemFromInput(measurementID string, input models.MeasurementItemInput) (*models.MeasurementItem, error) {
	if input.Value == nil && input.Real == nil && input.Imag == nil {
		return nil, fmt.Errorf("reading of type %q needs a value: either value (with optional angle_deg) or real/imag", input.Type)
	}
	return &models.MeasurementItem{
		ID:                 uuid.New().String(),
		MeasurementID:      measurementID,
		Type:               input.Type,
		Value:              input.Value,
		AngleDeg:           input.AngleDeg,
		Real:               input.Real,
		Imag:               input.Imag,
		Unit:               input.Unit,
		FrequencyHz:        input.FrequencyHz,
		DistanceM:          input.DistanceM,
		InjectionDistanceM: input.InjectionDistanceM,
		Description:        input.Description,
	}, nil
}

// recordsFromItems converts stored items into the analytics view.
func recordsFromItems(items []models.MeasurementItem) []analytics.Record {
	records := make([]analytics.Record, 0, len(items))
	for _, item := range items {
		records = append(records, analytics.Record{
			Type:               item.Type,
			Unit:               item.Unit,
			FrequencyHz:        item.FrequencyHz,
			DistanceM:          item.DistanceM,
			InjectionDistanceM: item.InjectionDistanceM,
			Magnitude:          item.Value,
			AngleDeg:           item.AngleDeg,
			Real:               item.Real,
			Imag:               item.Imag,
		})
	}
	return records
}
