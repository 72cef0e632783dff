package handlers

import (
	"context"
	"math"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Ce1ectric/groundmeas/internal/analytics"
	"github.com/Ce1ectric/groundmeas/internal/repository"
	"github.com/Ce1ectric/groundmeas/pkg/models"
)

// AnalyticsHandler handles the computational endpoints: distance-profile
// reduction, the rho-f impedance model, earth potential rise, and the soil
// model forward and inverse problems.
type AnalyticsHandler struct {
	repo   repository.MeasurementRepository
	solver analytics.Solver
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(repo repository.MeasurementRepository, solver analytics.Solver) *AnalyticsHandler {
	return &AnalyticsHandler{
		repo:   repo,
		solver: solver,
	}
}

// ReduceDistanceProfile collapses a measurement's distance profile to one
// characteristic value
func (h *AnalyticsHandler) ReduceDistanceProfile(ctx context.Context, req *models.DistanceProfileRequest) (*models.DistanceProfileResponse, error) {
	id, err := uuid.Parse(req.Body.MeasurementID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid measurement ID", err)
	}

	algorithm, err := analytics.ParseAlgorithm(req.Body.Algorithm)
	if err != nil {
		return nil, mapComputeError(err)
	}

	measurementType := req.Body.MeasurementType
	if measurementType == "" {
		measurementType = "earthing_impedance"
	}

	items, err := h.repo.GetItems(ctx, id, measurementType)
	if err != nil {
		return nil, mapComputeError(err)
	}
	records := recordsFromItems(items)

	series, err := analytics.BuildDistanceSeries(records)
	if err != nil {
		return nil, mapComputeError(err)
	}

	injection := req.Body.InjectionDistanceM
	if injection == nil {
		injection = recordedInjectionDistance(records)
	}

	reduction, err := analytics.Reduce(series, algorithm, analytics.ReduceOptions{
		InjectionDistanceM: injection,
		Window:             req.Body.Window,
	})
	if err != nil {
		return nil, mapComputeError(err)
	}

	log.Info().
		Str("measurementID", req.Body.MeasurementID).
		Str("algorithm", algorithm.String()).
		Float64("resultValue", reduction.Value).
		Msg("Distance profile reduced")

	resp := &models.DistanceProfileResponse{}
	resp.Body.ResultValue = reduction.Value
	if !math.IsInf(reduction.Distance, 0) {
		d := reduction.Distance
		resp.Body.ResultDistance = &d
	}
	resp.Body.Details = reduction.Details
	return resp, nil
}

// FitRhoFModel fits the five-coefficient rho-f impedance model across
// measurement campaigns
func (h *AnalyticsHandler) FitRhoFModel(ctx context.Context, req *models.RhoFModelRequest) (*models.RhoFModelResponse, error) {
	groups := make([]analytics.RhoFGroup, 0, len(req.Body.MeasurementIDs))
	for _, rawID := range req.Body.MeasurementIDs {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, huma.Error400BadRequest("Invalid measurement ID "+rawID, err)
		}

		impedanceItems, err := h.repo.GetItems(ctx, id, "earthing_impedance")
		if err != nil {
			return nil, mapComputeError(err)
		}
		samples, err := analytics.BuildFrequencySeries(recordsFromItems(impedanceItems))
		if err != nil {
			return nil, mapComputeError(err)
		}

		soilItems, err := h.repo.GetItems(ctx, id, "soil_resistivity")
		if err != nil {
			return nil, mapComputeError(err)
		}

		groups = append(groups, analytics.RhoFGroup{
			RhoOhmM: soilResistivity(soilItems),
			Samples: samples,
		})
	}

	coefficients, err := analytics.FitRhoF(groups, h.solver)
	if err != nil {
		return nil, mapComputeError(err)
	}

	resp := &models.RhoFModelResponse{}
	resp.Body.K1 = coefficients.K1
	resp.Body.K2 = coefficients.K2
	resp.Body.K3 = coefficients.K3
	resp.Body.K4 = coefficients.K4
	resp.Body.K5 = coefficients.K5
	return resp, nil
}

// ComputeEPR derives the earth potential rise curve from an impedance and a
// current measurement
func (h *AnalyticsHandler) ComputeEPR(ctx context.Context, req *models.EPRRequest) (*models.EPRResponse, error) {
	impedance, err := h.frequencySeries(ctx, req.Body.ImpedanceMeasurementID, "earthing_impedance")
	if err != nil {
		return nil, err
	}
	current, err := h.frequencySeries(ctx, req.Body.CurrentMeasurementID, "earthing_current")
	if err != nil {
		return nil, err
	}

	points, err := analytics.EarthPotentialRise(impedance, current)
	if err != nil {
		return nil, mapComputeError(err)
	}

	resp := &models.EPRResponse{}
	resp.Body.Points = make([]models.EPRPointBody, 0, len(points))
	for _, p := range points {
		resp.Body.Points = append(resp.Body.Points, models.EPRPointBody{
			FrequencyHz: p.FrequencyHz,
			VoltageV:    p.VoltageV,
		})
	}
	return resp, nil
}

// SimulateSoilModel runs the layered-earth forward model over the requested
// electrode spacings
func (h *AnalyticsHandler) SimulateSoilModel(ctx context.Context, req *models.SoilForwardRequest) (*models.SoilForwardResponse, error) {
	array, err := analytics.ParseArrayType(req.Body.ArrayType)
	if err != nil {
		return nil, mapComputeError(err)
	}
	mode, err := analytics.ParseSimulationMode(req.Body.Mode)
	if err != nil {
		return nil, mapComputeError(err)
	}

	model := analytics.EarthModel{
		Rho:       req.Body.RhoLayers,
		Thickness: req.Body.Thicknesses,
	}
	resistivities, err := analytics.Simulate(req.Body.Spacings, model, array, analytics.SimulateOptions{
		Mode:      mode,
		MNSpacing: req.Body.MNSpacingM,
	})
	if err != nil {
		return nil, mapComputeError(err)
	}

	resp := &models.SoilForwardResponse{}
	resp.Body.ApparentResistivities = resistivities
	return resp, nil
}

// InvertSoilModel fits a layered-earth model to an observed sounding curve
func (h *AnalyticsHandler) InvertSoilModel(ctx context.Context, req *models.SoilInvertRequest) (*models.SoilInvertResponse, error) {
	array, err := analytics.ParseArrayType(req.Body.ArrayType)
	if err != nil {
		return nil, mapComputeError(err)
	}

	initial := analytics.EarthModel{
		Rho:       req.Body.InitialRho,
		Thickness: req.Body.InitialThick,
	}
	result, err := analytics.Invert(req.Body.Spacings, req.Body.Observed, initial, analytics.InvertOptions{
		Array:         array,
		MaxIterations: req.Body.MaxIterations,
		Damping:       req.Body.Damping,
		Solver:        h.solver,
	})
	if err != nil {
		return nil, mapComputeError(err)
	}

	log.Info().
		Int("iterations", result.Iterations).
		Bool("converged", result.Converged).
		Float64("misfit", result.Misfit).
		Msg("Soil model inversion finished")

	resp := &models.SoilInvertResponse{}
	resp.Body.RhoLayers = result.Model.Rho
	resp.Body.Thicknesses = result.Model.Thickness
	resp.Body.Misfit = result.Misfit
	resp.Body.MisfitTrace = result.MisfitTrace
	resp.Body.Converged = result.Converged
	resp.Body.Stalled = result.Stalled
	resp.Body.Iterations = result.Iterations
	return resp, nil
}

func (h *AnalyticsHandler) frequencySeries(ctx context.Context, rawID, measurementType string) (map[float64]complex128, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid measurement ID "+rawID, err)
	}
	items, err := h.repo.GetItems(ctx, id, measurementType)
	if err != nil {
		return nil, mapComputeError(err)
	}
	series, err := analytics.BuildFrequencySeries(recordsFromItems(items))
	if err != nil {
		return nil, mapComputeError(err)
	}
	return series, nil
}

// recordedInjectionDistance returns the first injection distance the readings
// themselves carry, if any.
func recordedInjectionDistance(records []analytics.Record) *float64 {
	for _, r := range records {
		if r.InjectionDistanceM != nil {
			return r.InjectionDistanceM
		}
	}
	return nil
}

// soilResistivity picks the site resistivity from soil_resistivity readings:
// the first reading that carries a usable magnitude.
func soilResistivity(items []models.MeasurementItem) *float64 {
	for _, item := range items {
		if item.Value != nil {
			return item.Value
		}
		if item.Real != nil {
			return item.Real
		}
	}
	return nil
}
