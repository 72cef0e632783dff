package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkSeries(distances, values []float64) []DistanceValuePoint {
	series := make([]DistanceValuePoint, len(distances))
	for i := range distances {
		series[i] = DistanceValuePoint{Distance: distances[i], Value: values[i]}
	}
	return series
}

func TestParseAlgorithm(t *testing.T) {
	for _, token := range []string{"maximum", "62_percent", "minimum_gradient", "minimum_stddev", "inverse"} {
		alg, err := ParseAlgorithm(token)
		require.NoError(t, err, token)
		assert.Equal(t, token, alg.String())
	}
}

func TestParseAlgorithm_UnknownToken(t *testing.T) {
	_, err := ParseAlgorithm("median")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "median")
}

func TestReduce_EmptySeries(t *testing.T) {
	_, err := Reduce(nil, AlgorithmMaximum, ReduceOptions{})
	var ierr *InsufficientDataError
	require.ErrorAs(t, err, &ierr)
}

func TestReduceMaximum(t *testing.T) {
	series := mkSeries([]float64{10, 20, 30, 40}, []float64{0.3, 0.9, 0.5, 0.9})
	got, err := Reduce(series, AlgorithmMaximum, ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.9, got.Value)
	// Value tie resolves to the largest distance.
	assert.Equal(t, 40.0, got.Distance)
}

func TestReduceMaximum_SinglePoint(t *testing.T) {
	got, err := Reduce(mkSeries([]float64{5}, []float64{1.1}), AlgorithmMaximum, ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1.1, got.Value)
	assert.Equal(t, 5.0, got.Distance)
}

func TestReduce62Percent(t *testing.T) {
	series := mkSeries([]float64{10, 30, 50, 70}, []float64{0.40, 0.36, 0.34, 0.33})
	got, err := Reduce(series, Algorithm62Percent, ReduceOptions{InjectionDistanceM: fp(100)})
	require.NoError(t, err)
	assert.Equal(t, 62.0, got.Distance)
	// Interpolated between (50, 0.34) and (70, 0.33).
	expect := 0.34 + (62.0-50.0)/(70.0-50.0)*(0.33-0.34)
	assert.InDelta(t, expect, got.Value, 1e-12)
	assert.Less(t, got.Value, 0.34)
	assert.Greater(t, got.Value, 0.33)
}

func TestReduce62Percent_ExactHit(t *testing.T) {
	series := mkSeries([]float64{31, 62, 93}, []float64{0.5, 0.4, 0.35})
	got, err := Reduce(series, Algorithm62Percent, ReduceOptions{InjectionDistanceM: fp(100)})
	require.NoError(t, err)
	assert.Equal(t, 0.4, got.Value)
}

func TestReduce62Percent_MissingInjectionDistance(t *testing.T) {
	series := mkSeries([]float64{10, 20}, []float64{1, 2})
	_, err := Reduce(series, Algorithm62Percent, ReduceOptions{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestReduce62Percent_NoBracket(t *testing.T) {
	// All points on one side of the 62 m target.
	series := mkSeries([]float64{5, 10, 15}, []float64{1, 2, 3})
	_, err := Reduce(series, Algorithm62Percent, ReduceOptions{InjectionDistanceM: fp(100)})
	var ierr *InsufficientDataError
	require.ErrorAs(t, err, &ierr)
}

func TestReduceMinimumGradient(t *testing.T) {
	// Flattest stretch is around distance 30.
	series := mkSeries([]float64{10, 20, 30, 40, 50}, []float64{1.0, 0.6, 0.55, 0.53, 0.2})
	got, err := Reduce(series, AlgorithmMinimumGradient, ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.Distance)
	assert.Equal(t, 0.55, got.Value)
}

func TestReduceMinimumGradient_SinglePoint(t *testing.T) {
	got, err := Reduce(mkSeries([]float64{7}, []float64{0.5}), AlgorithmMinimumGradient, ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.5, got.Value)
	assert.Equal(t, 7.0, got.Distance)
	assert.Equal(t, 0.0, got.Details["gradient"])
}

func TestReduceMinimumGradient_TieTakesSmallestDistance(t *testing.T) {
	series := mkSeries([]float64{1, 2, 3, 4}, []float64{1, 1, 1, 1})
	got, err := Reduce(series, AlgorithmMinimumGradient, ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Distance)
}

func TestReduceMinimumStddev_FlatRunWins(t *testing.T) {
	series := mkSeries([]float64{1, 2, 3, 4, 5}, []float64{10, 5, 5, 5, 2})
	got, err := Reduce(series, AlgorithmMinimumStddev, ReduceOptions{Window: 3})
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Value)
	// The max of the flat [5,5,5] window ties; the largest distance wins.
	assert.Equal(t, 4.0, got.Distance)
	assert.Equal(t, 0.0, got.Details["window_stddev"])
}

func TestReduceMinimumStddev_DefaultWindow(t *testing.T) {
	series := mkSeries([]float64{1, 2, 3}, []float64{4, 4, 4})
	got, err := Reduce(series, AlgorithmMinimumStddev, ReduceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Details["window"])
}

func TestReduceMinimumStddev_SeriesShorterThanWindow(t *testing.T) {
	_, err := Reduce(mkSeries([]float64{1}, []float64{2}), AlgorithmMinimumStddev, ReduceOptions{Window: 3})
	var ierr *InsufficientDataError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 3, ierr.Required)
	assert.Equal(t, 1, ierr.Got)
}

func TestReduceInverse_RoundTrip(t *testing.T) {
	// Generated from z = 2x + 3 in inverse coordinates, so the value at
	// infinite distance must come back as exactly 1/3.
	distances := []float64{1, 2, 4, 8, 16, 32}
	values := make([]float64, len(distances))
	for i, d := range distances {
		values[i] = 1 / (2/d + 3)
	}
	got, err := Reduce(mkSeries(distances, values), AlgorithmInverse, ReduceOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, got.Value, 1e-9)
	assert.True(t, math.IsInf(got.Distance, 1))
	assert.InDelta(t, 2.0, got.Details["slope"].(float64), 1e-9)
	assert.InDelta(t, 3.0, got.Details["intercept"].(float64), 1e-9)
}

func TestReduceInverse_RequiresPositiveValues(t *testing.T) {
	_, err := Reduce(mkSeries([]float64{1, 2}, []float64{0.5, 0}), AlgorithmInverse, ReduceOptions{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestReduceInverse_TooFewPoints(t *testing.T) {
	_, err := Reduce(mkSeries([]float64{1}, []float64{0.5}), AlgorithmInverse, ReduceOptions{})
	var nerr *NumericalError
	require.ErrorAs(t, err, &nerr)
}

func TestReduceInverse_DegenerateFit(t *testing.T) {
	// Equal distances collapse the design matrix.
	series := []DistanceValuePoint{{Distance: 10, Value: 1}, {Distance: 10, Value: 2}}
	_, err := Reduce(series, AlgorithmInverse, ReduceOptions{})
	var nerr *NumericalError
	require.ErrorAs(t, err, &nerr)
}
