package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Ce1ectric/groundmeas/internal/export"
	"github.com/Ce1ectric/groundmeas/pkg/models"
)

// downloadURLExpiry mirrors the storage layer's pre-sign duration so the
// client knows how long the link lives.
const downloadURLExpiry = 24 * time.Hour

// ExportHandler handles measurement export requests
type ExportHandler struct {
	svc export.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc export.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ExportMeasurements renders filtered measurements to a file in object
// storage and returns a pre-signed download URL
func (h *ExportHandler) ExportMeasurements(ctx context.Context, req *models.ExportRequest) (*models.ExportResponse, error) {
	format, err := export.ParseFormat(req.Body.Format)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error(), err)
	}

	result, err := h.svc.Export(ctx, format, models.MeasurementFilter{
		AssetType: req.Body.AssetType,
		Method:    req.Body.Method,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Export failed", err)
	}

	resp := &models.ExportResponse{}
	resp.Body.Key = result.Key
	resp.Body.DownloadURL = result.DownloadURL
	resp.Body.ExpiresIn = int(downloadURLExpiry.Seconds())
	resp.Body.Count = result.Count
	return resp, nil
}
