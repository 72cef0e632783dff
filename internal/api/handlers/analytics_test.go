package handlers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ce1ectric/groundmeas/internal/analytics"
	"github.com/Ce1ectric/groundmeas/pkg/models"
)

func newAnalyticsHandler(repo *MockMeasurementRepository) *AnalyticsHandler {
	return NewAnalyticsHandler(repo, analytics.NewSolver())
}

func impedanceAt(distance, value float64) models.MeasurementItem {
	return models.MeasurementItem{
		Type:      "earthing_impedance",
		Value:     &value,
		Unit:      "Ohm",
		DistanceM: &distance,
	}
}

func TestReduceDistanceProfileMaximum(t *testing.T) {
	id := uuid.New()
	mockRepo := new(MockMeasurementRepository)
	mockRepo.On("GetItems", mock.Anything, id, "earthing_impedance").Return([]models.MeasurementItem{
		impedanceAt(10, 0.8),
		impedanceAt(30, 1.4),
		impedanceAt(50, 1.1),
	}, nil)

	handler := newAnalyticsHandler(mockRepo)
	req := &models.DistanceProfileRequest{}
	req.Body.MeasurementID = id.String()
	req.Body.Algorithm = "maximum"

	resp, err := handler.ReduceDistanceProfile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1.4, resp.Body.ResultValue)
	require.NotNil(t, resp.Body.ResultDistance)
	assert.Equal(t, 30.0, *resp.Body.ResultDistance)
}

func TestReduceDistanceProfileUnknownAlgorithm(t *testing.T) {
	handler := newAnalyticsHandler(new(MockMeasurementRepository))
	req := &models.DistanceProfileRequest{}
	req.Body.MeasurementID = uuid.New().String()
	req.Body.Algorithm = "median"

	_, err := handler.ReduceDistanceProfile(context.Background(), req)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestReduceDistanceProfileInverseInfiniteDistance(t *testing.T) {
	id := uuid.New()
	items := make([]models.MeasurementItem, 0, 5)
	// v = 1/(2/d + 3), asymptote 1/3 at infinite distance
	for _, d := range []float64{1, 2, 4, 8, 16} {
		items = append(items, impedanceAt(d, 1/(2/d+3)))
	}
	mockRepo := new(MockMeasurementRepository)
	mockRepo.On("GetItems", mock.Anything, id, "earthing_impedance").Return(items, nil)

	handler := newAnalyticsHandler(mockRepo)
	req := &models.DistanceProfileRequest{}
	req.Body.MeasurementID = id.String()
	req.Body.Algorithm = "inverse"

	resp, err := handler.ReduceDistanceProfile(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, resp.Body.ResultValue, 1e-9)
	assert.Nil(t, resp.Body.ResultDistance)
}

func TestReduceDistanceProfileUsesRecordedInjectionDistance(t *testing.T) {
	id := uuid.New()
	injection := 100.0
	items := []models.MeasurementItem{
		impedanceAt(50, 0.34),
		impedanceAt(70, 0.33),
	}
	items[0].InjectionDistanceM = &injection
	mockRepo := new(MockMeasurementRepository)
	mockRepo.On("GetItems", mock.Anything, id, "earthing_impedance").Return(items, nil)

	handler := newAnalyticsHandler(mockRepo)
	req := &models.DistanceProfileRequest{}
	req.Body.MeasurementID = id.String()
	req.Body.Algorithm = "62_percent"

	resp, err := handler.ReduceDistanceProfile(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.Body.ResultDistance)
	assert.Equal(t, 62.0, *resp.Body.ResultDistance)
	assert.InDelta(t, 0.334, resp.Body.ResultValue, 1e-9)
}

func TestFitRhoFModel(t *testing.T) {
	// Two campaigns with impedance sampled at f = 0 only: Z = k1*rho exactly.
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	rhos := []float64{100, 200}
	mockRepo := new(MockMeasurementRepository)
	for i, id := range ids {
		rho := rhos[i]
		z := 0.05 * rho
		mockRepo.On("GetItems", mock.Anything, id, "earthing_impedance").Return([]models.MeasurementItem{
			{Type: "earthing_impedance", Value: &z, Unit: "Ohm", FrequencyHz: fp(0)},
		}, nil)
		mockRepo.On("GetItems", mock.Anything, id, "soil_resistivity").Return([]models.MeasurementItem{
			{Type: "soil_resistivity", Value: &rhos[i], Unit: "Ohmm"},
		}, nil)
	}

	handler := newAnalyticsHandler(mockRepo)
	req := &models.RhoFModelRequest{}
	req.Body.MeasurementIDs = []string{ids[0].String(), ids[1].String()}

	resp, err := handler.FitRhoFModel(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, resp.Body.K1, 1e-9)
	assert.InDelta(t, 0, resp.Body.K3, 1e-9)
}

func TestFitRhoFModelMissingSoilResistivity(t *testing.T) {
	id := uuid.New()
	mockRepo := new(MockMeasurementRepository)
	mockRepo.On("GetItems", mock.Anything, id, "earthing_impedance").Return([]models.MeasurementItem{
		{Type: "earthing_impedance", Value: fp(1.2), Unit: "Ohm", FrequencyHz: fp(50)},
	}, nil)
	mockRepo.On("GetItems", mock.Anything, id, "soil_resistivity").Return([]models.MeasurementItem{}, nil)

	handler := newAnalyticsHandler(mockRepo)
	req := &models.RhoFModelRequest{}
	req.Body.MeasurementIDs = []string{id.String()}

	_, err := handler.FitRhoFModel(context.Background(), req)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestComputeEPR(t *testing.T) {
	impedanceID := uuid.New()
	currentID := uuid.New()
	mockRepo := new(MockMeasurementRepository)
	mockRepo.On("GetItems", mock.Anything, impedanceID, "earthing_impedance").Return([]models.MeasurementItem{
		{Type: "earthing_impedance", Real: fp(3), Imag: fp(4), Unit: "Ohm", FrequencyHz: fp(50)},
	}, nil)
	mockRepo.On("GetItems", mock.Anything, currentID, "earthing_current").Return([]models.MeasurementItem{
		{Type: "earthing_current", Value: fp(100), Unit: "A", FrequencyHz: fp(50)},
		{Type: "earthing_current", Value: fp(80), Unit: "A", FrequencyHz: fp(150)}, // no impedance overlap
	}, nil)

	handler := newAnalyticsHandler(mockRepo)
	req := &models.EPRRequest{}
	req.Body.ImpedanceMeasurementID = impedanceID.String()
	req.Body.CurrentMeasurementID = currentID.String()

	resp, err := handler.ComputeEPR(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Body.Points, 1)
	assert.Equal(t, 50.0, resp.Body.Points[0].FrequencyHz)
	assert.InDelta(t, 500.0, resp.Body.Points[0].VoltageV, 1e-9)
}

func TestComputeEPRNoOverlap(t *testing.T) {
	impedanceID := uuid.New()
	currentID := uuid.New()
	mockRepo := new(MockMeasurementRepository)
	mockRepo.On("GetItems", mock.Anything, impedanceID, "earthing_impedance").Return([]models.MeasurementItem{
		{Type: "earthing_impedance", Value: fp(2), Unit: "Ohm", FrequencyHz: fp(50)},
	}, nil)
	mockRepo.On("GetItems", mock.Anything, currentID, "earthing_current").Return([]models.MeasurementItem{
		{Type: "earthing_current", Value: fp(100), Unit: "A", FrequencyHz: fp(150)},
	}, nil)

	handler := newAnalyticsHandler(mockRepo)
	req := &models.EPRRequest{}
	req.Body.ImpedanceMeasurementID = impedanceID.String()
	req.Body.CurrentMeasurementID = currentID.String()

	_, err := handler.ComputeEPR(context.Background(), req)
	assert.Equal(t, 422, statusOf(t, err))
}

func TestSimulateSoilModelHomogeneous(t *testing.T) {
	handler := newAnalyticsHandler(new(MockMeasurementRepository))
	req := &models.SoilForwardRequest{}
	req.Body.Spacings = []float64{1, 10, 100}
	req.Body.RhoLayers = []float64{250}
	req.Body.ArrayType = "wenner"

	resp, err := handler.SimulateSoilModel(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Body.ApparentResistivities, 3)
	for _, rho := range resp.Body.ApparentResistivities {
		assert.InDelta(t, 250.0, rho, 250*1e-6)
	}
}

func TestSimulateSoilModelBadArray(t *testing.T) {
	handler := newAnalyticsHandler(new(MockMeasurementRepository))
	req := &models.SoilForwardRequest{}
	req.Body.Spacings = []float64{1}
	req.Body.RhoLayers = []float64{100}
	req.Body.ArrayType = "dipole-dipole"

	_, err := handler.SimulateSoilModel(context.Background(), req)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestInvertSoilModelValidation(t *testing.T) {
	handler := newAnalyticsHandler(new(MockMeasurementRepository))
	req := &models.SoilInvertRequest{}
	req.Body.Spacings = []float64{1, 2, 3}
	req.Body.Observed = []float64{100, 110} // length mismatch
	req.Body.InitialRho = []float64{100}
	req.Body.ArrayType = "wenner"

	_, err := handler.InvertSoilModel(context.Background(), req)
	assert.Equal(t, 400, statusOf(t, err))
}
