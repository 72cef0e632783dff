package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func synthGroup(k RhoFCoefficients, rho float64, freqs []float64) RhoFGroup {
	samples := make(map[float64]complex128, len(freqs))
	for _, f := range freqs {
		samples[f] = k.Evaluate(rho, f)
	}
	return RhoFGroup{RhoOhmM: fp(rho), Samples: samples}
}

func TestFitRhoF_RecoversKnownCoefficients(t *testing.T) {
	truth := RhoFCoefficients{K1: 0.012, K2: 3.4e-4, K3: 1.1e-3, K4: 2.5e-6, K5: 7.0e-6}
	groups := []RhoFGroup{
		synthGroup(truth, 120, []float64{50, 150, 250, 450}),
		synthGroup(truth, 340, []float64{50, 150, 250, 450}),
		synthGroup(truth, 75, []float64{50, 250, 550}),
	}
	got, err := FitRhoF(groups, nil)
	require.NoError(t, err)
	assert.InDelta(t, truth.K1, got.K1, 1e-8)
	assert.InDelta(t, truth.K2, got.K2, 1e-8)
	assert.InDelta(t, truth.K3, got.K3, 1e-8)
	assert.InDelta(t, truth.K4, got.K4, 1e-10)
	assert.InDelta(t, truth.K5, got.K5, 1e-10)
}

func TestFitRhoF_ZeroFrequencyIsPurelyReal(t *testing.T) {
	truth := RhoFCoefficients{K1: 0.02, K2: 1e-4, K3: 2e-3, K4: 1e-6, K5: 3e-6}
	groups := []RhoFGroup{synthGroup(truth, 200, []float64{0, 50, 150})}
	got, err := FitRhoF(groups, nil)
	require.NoError(t, err)
	for _, rho := range []float64{10, 100, 1000} {
		z := got.Evaluate(rho, 0)
		assert.Equal(t, 0.0, imag(z), "rho=%g", rho)
	}
}

func TestFitRhoF_MissingSoilResistivity(t *testing.T) {
	groups := []RhoFGroup{{Samples: map[float64]complex128{50: complex(1, 1)}}}
	_, err := FitRhoF(groups, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "no soil resistivity for group")
}

func TestFitRhoF_NoOverlappingData(t *testing.T) {
	groups := []RhoFGroup{{RhoOhmM: fp(100)}}
	_, err := FitRhoF(groups, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "no overlapping impedance data")
}

func TestFitRhoF_SingleGroupSingleSample(t *testing.T) {
	// One sample cannot pin down five coefficients; the solve must still
	// succeed with a minimum-norm answer that reproduces the sample.
	truth := RhoFCoefficients{K1: 0.01, K2: 2e-4, K3: 1e-3, K4: 0, K5: 0}
	rho, f := 150.0, 50.0
	groups := []RhoFGroup{{RhoOhmM: fp(rho), Samples: map[float64]complex128{f: truth.Evaluate(rho, f)}}}
	got, err := FitRhoF(groups, nil)
	require.NoError(t, err)
	want := truth.Evaluate(rho, f)
	have := got.Evaluate(rho, f)
	assert.InDelta(t, real(want), real(have), 1e-9)
	assert.InDelta(t, imag(want), imag(have), 1e-9)
}
