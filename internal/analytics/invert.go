package analytics

import "math"

// InvertOptions tunes the layered-earth inversion.
type InvertOptions struct {
	// Array is the survey geometry the observations were taken with.
	Array ArrayType
	// MaxIterations bounds the outer loop; zero means DefaultMaxIterations.
	MaxIterations int
	// Damping is the initial Levenberg-Marquardt damping factor; zero means
	// DefaultDamping.
	Damping float64
	// Tolerance is the relative misfit improvement below which the inversion
	// is declared converged; zero means DefaultTolerance.
	Tolerance float64
	// Solver performs the damped normal-equation solves; nil means the
	// reference solver.
	Solver Solver
}

const (
	// DefaultMaxIterations bounds the inversion loop when the caller does
	// not.
	DefaultMaxIterations = 50
	// DefaultDamping is the initial Levenberg-Marquardt damping factor.
	DefaultDamping = 1e-2
	// DefaultTolerance is the relative misfit improvement treated as
	// convergence.
	DefaultTolerance = 1e-6

	// parameterFloor keeps resistivities and thicknesses physical: updates
	// are clamped here instead of being allowed to cross zero.
	parameterFloor = 1e-6
	// dampingCeiling aborts the step search once the damping factor says no
	// useful step exists anymore.
	dampingCeiling = 1e12
)

// InversionResult is the outcome of a layered-earth inversion: the best model
// found, its misfit, the misfit after each accepted iteration, and whether
// the loop stopped on convergence or on the iteration cap.
type InversionResult struct {
	Model       EarthModel `json:"model"`
	Misfit      float64    `json:"misfit"`
	MisfitTrace []float64  `json:"misfit_trace"`
	Converged   bool       `json:"converged"`
	// Stalled is set when the loop stopped because no step at any damping
	// level improved the fit: a dead-ended descent rather than a genuine
	// tolerance convergence. Converged is still true in that case.
	Stalled    bool `json:"stalled"`
	Iterations int  `json:"iterations"`
}

// Invert fits layer resistivities and thicknesses to an observed apparent
// resistivity curve by damped nonlinear least squares around the forward
// model. Each iteration builds a finite-difference Jacobian, solves the
// damped normal equations (JtJ + damping*I) dp = Jt r, clamps the updated
// parameters to a positive floor, and accepts the step only if the RMS
// relative misfit improved, raising the damping otherwise. Hitting the
// iteration cap is not an error: the best model so far is returned with
// Converged false.
func Invert(spacings, observed []float64, initial EarthModel, opts InvertOptions) (InversionResult, error) {
	if len(spacings) == 0 {
		return InversionResult{}, validationf("no electrode spacings given")
	}
	if len(observed) != len(spacings) {
		return InversionResult{}, validationf("%d observed resistivities against %d spacings", len(observed), len(spacings))
	}
	for _, v := range observed {
		if v <= 0 || !isFinite(v) {
			return InversionResult{}, validationf("observed apparent resistivity must be positive, got %g", v)
		}
	}
	if err := initial.Validate(); err != nil {
		return InversionResult{}, err
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	damping := opts.Damping
	if damping <= 0 {
		damping = DefaultDamping
	}
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	solver := opts.Solver
	if solver == nil {
		solver = NewSolver()
	}

	params := packParams(initial)
	layers := len(initial.Rho)
	simOpts := SimulateOptions{Mode: ModeFilter}

	calc, err := Simulate(spacings, unpackParams(params, layers), opts.Array, simOpts)
	if err != nil {
		return InversionResult{}, err
	}
	misfit := rmsRelative(observed, calc)
	trace := []float64{misfit}
	converged := misfit == 0
	stalled := false
	iterations := 0

	for iter := 0; iter < maxIter && !converged; iter++ {
		iterations = iter + 1

		jac, err := jacobian(spacings, params, layers, opts.Array, simOpts, calc, observed)
		if err != nil {
			return InversionResult{}, err
		}
		residual := make([]float64, len(observed))
		for i := range observed {
			residual[i] = (observed[i] - calc[i]) / observed[i]
		}

		accepted := false
		for damping < dampingCeiling {
			step, err := solveDampedStep(jac, residual, damping, solver)
			if err != nil {
				return InversionResult{}, err
			}
			trial := make([]float64, len(params))
			for j := range params {
				trial[j] = math.Max(params[j]+step[j], parameterFloor)
			}
			trialCalc, err := Simulate(spacings, unpackParams(trial, layers), opts.Array, simOpts)
			if err != nil {
				return InversionResult{}, err
			}
			trialMisfit := rmsRelative(observed, trialCalc)
			if trialMisfit < misfit {
				improvement := (misfit - trialMisfit) / misfit
				params, calc, misfit = trial, trialCalc, trialMisfit
				trace = append(trace, misfit)
				damping = math.Max(damping/5, 1e-12)
				accepted = true
				if improvement < tolerance {
					converged = true
				}
				break
			}
			damping *= 10
		}
		if !accepted {
			// No step at any damping improves the fit; the model is at a
			// local optimum within the step search's resolution.
			converged = true
			stalled = true
		}
		if misfit == 0 {
			converged = true
		}
	}

	return InversionResult{
		Model:       unpackParams(params, layers),
		Misfit:      misfit,
		MisfitTrace: trace,
		Converged:   converged,
		Stalled:     stalled,
		Iterations:  iterations,
	}, nil
}

// packParams flattens a model into [rho_1..rho_N, t_1..t_N-1].
func packParams(m EarthModel) []float64 {
	p := make([]float64, 0, len(m.Rho)+len(m.Thickness))
	p = append(p, m.Rho...)
	p = append(p, m.Thickness...)
	return p
}

func unpackParams(p []float64, layers int) EarthModel {
	return EarthModel{
		Rho:       append([]float64(nil), p[:layers]...),
		Thickness: append([]float64(nil), p[layers:]...),
	}
}

// jacobian builds the sensitivity of the relative residual to each parameter
// by forward finite differences on the forward model.
func jacobian(spacings, params []float64, layers int, array ArrayType, simOpts SimulateOptions, calc, observed []float64) ([][]float64, error) {
	jac := make([][]float64, len(spacings))
	for i := range jac {
		jac[i] = make([]float64, len(params))
	}
	for j := range params {
		h := 1e-4 * math.Max(math.Abs(params[j]), parameterFloor)
		bumped := append([]float64(nil), params...)
		bumped[j] += h
		calcH, err := Simulate(spacings, unpackParams(bumped, layers), array, simOpts)
		if err != nil {
			return nil, err
		}
		for i := range spacings {
			jac[i][j] = (calcH[i] - calc[i]) / (h * observed[i])
		}
	}
	return jac, nil
}

// solveDampedStep solves (JtJ + damping*I) dp = Jt r.
func solveDampedStep(jac [][]float64, residual []float64, damping float64, solver Solver) ([]float64, error) {
	n := len(jac[0])
	a := make([][]float64, n)
	b := make([]float64, n)
	for p := 0; p < n; p++ {
		a[p] = make([]float64, n)
		for q := 0; q < n; q++ {
			var sum float64
			for i := range jac {
				sum += jac[i][p] * jac[i][q]
			}
			a[p][q] = sum
		}
		a[p][p] += damping
		var sum float64
		for i := range jac {
			sum += jac[i][p] * residual[i]
		}
		b[p] = sum
	}
	return solver.SolveLeastSquares(a, b)
}

// rmsRelative is the root-mean-square relative residual between observed and
// calculated curves.
func rmsRelative(observed, calc []float64) float64 {
	var ss float64
	for i := range observed {
		r := (observed[i] - calc[i]) / observed[i]
		ss += r * r
	}
	return math.Sqrt(ss / float64(len(observed)))
}
