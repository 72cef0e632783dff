package analytics

// RhoFGroup is one measurement campaign contributing to the rho-f model fit:
// a single soil resistivity and the complex earthing impedance sampled per
// frequency at that site.
type RhoFGroup struct {
	// RhoOhmM is the soil resistivity at the site, required.
	RhoOhmM *float64
	// Samples maps frequency in Hz to the measured complex impedance.
	Samples map[float64]complex128
}

// RhoFCoefficients are the real coefficients of the impedance model
//
//	Z(rho, f) = k1*rho + (k2 + i*k3)*f + (k4 + i*k5)*rho*f
//
// which reduces to the purely real k1*rho at f = 0.
type RhoFCoefficients struct {
	K1 float64 `json:"k1"`
	K2 float64 `json:"k2"`
	K3 float64 `json:"k3"`
	K4 float64 `json:"k4"`
	K5 float64 `json:"k5"`
}

// Evaluate returns the model impedance for a soil resistivity and frequency.
func (k RhoFCoefficients) Evaluate(rho, f float64) complex128 {
	return complex(k.K1*rho+k.K2*f+k.K4*rho*f, k.K3*f+k.K5*rho*f)
}

// FitRhoF fits the five rho-f model coefficients across measurement groups.
// Because k1 is real the fit splits into two independent real least-squares
// solves with the same row structure: the real parts of Z determine
// (k1, k2, k4), the imaginary parts determine (k3, k5). Every (rho, f) sample
// contributes one row to each system.
func FitRhoF(groups []RhoFGroup, solver Solver) (RhoFCoefficients, error) {
	if solver == nil {
		solver = NewSolver()
	}
	var (
		realA, imagA [][]float64
		realB, imagB []float64
	)
	for i, g := range groups {
		if g.RhoOhmM == nil {
			return RhoFCoefficients{}, validationf("no soil resistivity for group %d", i)
		}
		rho := *g.RhoOhmM
		if rho <= 0 {
			return RhoFCoefficients{}, validationf("non-positive soil resistivity %g for group %d", rho, i)
		}
		for f, z := range g.Samples {
			if f < 0 || !isFinite(real(z)) || !isFinite(imag(z)) {
				continue
			}
			realA = append(realA, []float64{rho, f, rho * f})
			realB = append(realB, real(z))
			imagA = append(imagA, []float64{f, rho * f})
			imagB = append(imagB, imag(z))
		}
	}
	if len(realA) == 0 {
		return RhoFCoefficients{}, validationf("no overlapping impedance data")
	}

	re, err := solver.SolveLeastSquares(realA, realB)
	if err != nil {
		return RhoFCoefficients{}, err
	}
	im, err := solver.SolveLeastSquares(imagA, imagB)
	if err != nil {
		return RhoFCoefficients{}, err
	}
	return RhoFCoefficients{K1: re[0], K2: re[1], K4: re[2], K3: im[0], K5: im[1]}, nil
}
