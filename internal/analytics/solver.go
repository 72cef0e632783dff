package analytics

import "math"

// Solver abstracts the dense least-squares solve underlying the model fits,
// so an accelerated linear-algebra backend can be swapped in without touching
// the fitting code. Implementations return the minimum-norm solution when the
// system is rank-deficient.
type Solver interface {
	// SolveLeastSquares minimizes ||A·x - b|| for an m-by-n row-major matrix
	// a and an m-vector b, returning the n-vector x.
	SolveLeastSquares(a [][]float64, b []float64) ([]float64, error)
}

// NewSolver returns the reference dense solver, a one-sided Jacobi SVD.
// It is exact enough for the small systems this package builds (a handful of
// unknowns) and needs no external dependencies.
func NewSolver() Solver {
	return &svdSolver{maxSweeps: 60, rankTol: 1e-12}
}

type svdSolver struct {
	maxSweeps int
	rankTol   float64
}

func (s *svdSolver) SolveLeastSquares(a [][]float64, b []float64) ([]float64, error) {
	m := len(a)
	if m == 0 || len(b) != m {
		return nil, numericalf("least squares: %d rows against %d right-hand-side entries", m, len(b))
	}
	n := len(a[0])
	if n == 0 {
		return nil, numericalf("least squares: matrix has no columns")
	}

	// Work on a copy: u starts as A and is rotated column-by-column into
	// U·Σ while v accumulates the right singular vectors.
	u := make([][]float64, m)
	for i, row := range a {
		if len(row) != n {
			return nil, numericalf("least squares: ragged matrix row %d", i)
		}
		u[i] = make([]float64, n)
		for j, val := range row {
			if !isFinite(val) {
				return nil, numericalf("least squares: non-finite matrix entry at (%d,%d)", i, j)
			}
			u[i][j] = val
		}
	}
	for i, val := range b {
		if !isFinite(val) {
			return nil, numericalf("least squares: non-finite right-hand-side entry %d", i)
		}
	}
	v := identity(n)

	// One-sided Jacobi: orthogonalize column pairs until every pair is
	// numerically orthogonal.
	const orthTol = 1e-14
	converged := false
	for sweep := 0; sweep < s.maxSweeps && !converged; sweep++ {
		converged = true
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				var alpha, beta, gamma float64
				for i := 0; i < m; i++ {
					alpha += u[i][p] * u[i][p]
					beta += u[i][q] * u[i][q]
					gamma += u[i][p] * u[i][q]
				}
				if math.Abs(gamma) <= orthTol*math.Sqrt(alpha*beta) {
					continue
				}
				converged = false
				zeta := (beta - alpha) / (2 * gamma)
				t := math.Copysign(1, zeta) / (math.Abs(zeta) + math.Sqrt(1+zeta*zeta))
				c := 1 / math.Sqrt(1+t*t)
				sn := c * t
				for i := 0; i < m; i++ {
					up, uq := u[i][p], u[i][q]
					u[i][p] = c*up - sn*uq
					u[i][q] = sn*up + c*uq
				}
				for i := 0; i < n; i++ {
					vp, vq := v[i][p], v[i][q]
					v[i][p] = c*vp - sn*vq
					v[i][q] = sn*vp + c*vq
				}
			}
		}
	}
	if !converged {
		return nil, numericalf("least squares: SVD failed to converge in %d sweeps", s.maxSweeps)
	}

	// Singular values are the column norms of the rotated matrix.
	sigma := make([]float64, n)
	sigmaMax := 0.0
	for j := 0; j < n; j++ {
		var ss float64
		for i := 0; i < m; i++ {
			ss += u[i][j] * u[i][j]
		}
		sigma[j] = math.Sqrt(ss)
		if sigma[j] > sigmaMax {
			sigmaMax = sigma[j]
		}
	}
	if sigmaMax == 0 {
		return make([]float64, n), nil
	}

	// x = V · Σ⁺ · Uᵀ · b, dropping singular values below the rank cutoff.
	cutoff := s.rankTol * sigmaMax * float64(max(m, n))
	coeff := make([]float64, n)
	for j := 0; j < n; j++ {
		if sigma[j] <= cutoff {
			continue
		}
		var utb float64
		for i := 0; i < m; i++ {
			utb += u[i][j] / sigma[j] * b[i]
		}
		coeff[j] = utb / sigma[j]
	}
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x[i] += v[i][j] * coeff[j]
		}
	}
	for _, val := range x {
		if !isFinite(val) {
			return nil, numericalf("least squares: solution is non-finite")
		}
	}
	return x, nil
}

func identity(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	return m
}
