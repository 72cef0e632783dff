package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/Ce1ectric/groundmeas/internal/analytics"
	"github.com/Ce1ectric/groundmeas/internal/api/handlers"
	"github.com/Ce1ectric/groundmeas/internal/export"
	"github.com/Ce1ectric/groundmeas/internal/repository"
	"github.com/Ce1ectric/groundmeas/internal/storage"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(router *chi.Mux, api huma.API, s3Service storage.S3Service, repo repository.MeasurementRepository, exportSvc export.ExportService) {
	// Initialize handlers
	measurementHandler := handlers.NewMeasurementHandler(repo, s3Service)
	analyticsHandler := handlers.NewAnalyticsHandler(repo, analytics.NewSolver())
	exportHandler := handlers.NewExportHandler(exportSvc)

	// Measurement CRUD
	huma.Register(api, huma.Operation{
		OperationID: "createMeasurement",
		Method:      http.MethodPost,
		Path:        "/api/measurements",
		Summary:     "Record a measurement",
		Description: "Stores a new measurement campaign with optional site and initial readings",
		Tags:        []string{"Measurements"},
	}, measurementHandler.CreateMeasurement)

	huma.Register(api, huma.Operation{
		OperationID: "listMeasurements",
		Method:      http.MethodGet,
		Path:        "/api/measurements",
		Summary:     "List measurements",
		Description: "Returns measurements matching the filter query",
		Tags:        []string{"Measurements"},
	}, measurementHandler.ListMeasurements)

	huma.Register(api, huma.Operation{
		OperationID: "getMeasurement",
		Method:      http.MethodGet,
		Path:        "/api/measurements/{id}",
		Summary:     "Get a measurement",
		Description: "Returns one measurement with its readings",
		Tags:        []string{"Measurements"},
	}, measurementHandler.GetMeasurement)

	huma.Register(api, huma.Operation{
		OperationID: "updateMeasurement",
		Method:      http.MethodPatch,
		Path:        "/api/measurements/{id}",
		Summary:     "Update a measurement",
		Description: "Patches measurement header fields",
		Tags:        []string{"Measurements"},
	}, measurementHandler.UpdateMeasurement)

	huma.Register(api, huma.Operation{
		OperationID: "deleteMeasurement",
		Method:      http.MethodDelete,
		Path:        "/api/measurements/{id}",
		Summary:     "Delete a measurement",
		Description: "Removes a measurement and all its readings",
		Tags:        []string{"Measurements"},
	}, measurementHandler.DeleteMeasurement)

	huma.Register(api, huma.Operation{
		OperationID: "addMeasurementItem",
		Method:      http.MethodPost,
		Path:        "/api/measurements/{id}/items",
		Summary:     "Add a reading",
		Description: "Appends a reading to an existing measurement",
		Tags:        []string{"Measurements"},
	}, measurementHandler.AddItem)

	huma.Register(api, huma.Operation{
		OperationID: "createAttachment",
		Method:      http.MethodPost,
		Path:        "/api/measurements/{id}/attachments",
		Summary:     "Upload an attachment",
		Description: "Returns a pre-signed URL to upload a raw instrument file or field photo",
		Tags:        []string{"Measurements"},
	}, measurementHandler.CreateAttachment)

	// Projections
	huma.Register(api, huma.Operation{
		OperationID: "getImpedanceOverFrequency",
		Method:      http.MethodGet,
		Path:        "/api/measurements/{id}/impedance-over-frequency",
		Summary:     "Impedance over frequency",
		Description: "Projects the measurement's earthing impedance readings onto a frequency axis",
		Tags:        []string{"Projections"},
	}, measurementHandler.GetImpedanceOverFrequency)

	huma.Register(api, huma.Operation{
		OperationID: "getValueOverDistance",
		Method:      http.MethodGet,
		Path:        "/api/measurements/{id}/value-over-distance",
		Summary:     "Value over distance",
		Description: "Projects one reading type of the measurement onto a probe distance axis",
		Tags:        []string{"Projections"},
	}, measurementHandler.GetValueOverDistance)

	// Analytics
	huma.Register(api, huma.Operation{
		OperationID: "reduceDistanceProfile",
		Method:      http.MethodPost,
		Path:        "/api/analytics/distance-profile",
		Summary:     "Reduce a distance profile",
		Description: "Collapses a measurement's distance profile to one characteristic value",
		Tags:        []string{"Analytics"},
	}, analyticsHandler.ReduceDistanceProfile)

	huma.Register(api, huma.Operation{
		OperationID: "fitRhoFModel",
		Method:      http.MethodPost,
		Path:        "/api/analytics/rho-f-model",
		Summary:     "Fit the rho-f impedance model",
		Description: "Fits the five-coefficient impedance model across measurement campaigns",
		Tags:        []string{"Analytics"},
	}, analyticsHandler.FitRhoFModel)

	huma.Register(api, huma.Operation{
		OperationID: "computeEPR",
		Method:      http.MethodPost,
		Path:        "/api/analytics/earth-potential-rise",
		Summary:     "Compute earth potential rise",
		Description: "Derives the earth potential rise curve from an impedance and a current measurement",
		Tags:        []string{"Analytics"},
	}, analyticsHandler.ComputeEPR)

	huma.Register(api, huma.Operation{
		OperationID: "simulateSoilModel",
		Method:      http.MethodPost,
		Path:        "/api/analytics/soil-model/forward",
		Summary:     "Simulate a soil model",
		Description: "Runs the layered-earth forward model over the requested electrode spacings",
		Tags:        []string{"Analytics"},
	}, analyticsHandler.SimulateSoilModel)

	huma.Register(api, huma.Operation{
		OperationID: "invertSoilModel",
		Method:      http.MethodPost,
		Path:        "/api/analytics/soil-model/invert",
		Summary:     "Invert a sounding curve",
		Description: "Fits a layered-earth model to an observed apparent resistivity curve",
		Tags:        []string{"Analytics"},
	}, analyticsHandler.InvertSoilModel)

	// Export
	huma.Register(api, huma.Operation{
		OperationID: "exportMeasurements",
		Method:      http.MethodPost,
		Path:        "/api/exports",
		Summary:     "Export measurements",
		Description: "Renders filtered measurements to a file in object storage and returns a download URL",
		Tags:        []string{"Export"},
	}, exportHandler.ExportMeasurements)
}
