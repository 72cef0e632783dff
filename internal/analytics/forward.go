package analytics

import "math"

// ArrayType identifies the four-electrode survey geometry.
type ArrayType int

const (
	// ArrayWenner is the equally spaced four-electrode array; the spacing is
	// the inter-electrode distance a.
	ArrayWenner ArrayType = iota
	// ArraySchlumberger is the symmetric array; the spacing is the current
	// electrode half-distance AB/2.
	ArraySchlumberger
)

var arrayNames = map[ArrayType]string{
	ArrayWenner:       "wenner",
	ArraySchlumberger: "schlumberger",
}

func (a ArrayType) String() string {
	if s, ok := arrayNames[a]; ok {
		return s
	}
	return "unknown"
}

// ParseArrayType maps an array token to its typed constant. Unknown tokens
// fail with a ValidationError naming the offending value.
func ParseArrayType(token string) (ArrayType, error) {
	for a, s := range arrayNames {
		if s == token {
			return a, nil
		}
	}
	return 0, validationf("unknown array type %q", token)
}

// SimulationMode selects how the Hankel-transform integral behind the
// apparent resistivity is evaluated.
type SimulationMode int

const (
	// ModeFilter evaluates the kernel as a fixed log-spaced convolution.
	// Fast, and accurate as long as the potential-electrode spacing is small
	// against the current-electrode spacing.
	ModeFilter SimulationMode = iota
	// ModeIntegrate computes the electrode potentials directly with the full
	// geometric factor and an adaptively refined quadrature. Slower, but
	// valid for a Schlumberger spread whose MN is not negligible.
	ModeIntegrate
)

// ParseSimulationMode maps a mode token to its typed constant. The empty
// token defaults to ModeFilter.
func ParseSimulationMode(token string) (SimulationMode, error) {
	switch token {
	case "", "filter":
		return ModeFilter, nil
	case "integrate":
		return ModeIntegrate, nil
	default:
		return 0, validationf("unknown simulation mode %q", token)
	}
}

// EarthModel is a horizontally stratified earth: layer resistivities in
// ohm-meters top-down, with a finite thickness in meters for every layer but
// the last, which extends to infinite depth.
type EarthModel struct {
	Rho       []float64 `json:"rho_layers"`
	Thickness []float64 `json:"thicknesses"`
}

// Validate checks the structural invariants of the model.
func (m EarthModel) Validate() error {
	if len(m.Rho) == 0 {
		return validationf("earth model needs at least one layer")
	}
	if len(m.Thickness) != len(m.Rho)-1 {
		return validationf("earth model with %d layers needs %d thicknesses, got %d",
			len(m.Rho), len(m.Rho)-1, len(m.Thickness))
	}
	for i, r := range m.Rho {
		if r <= 0 || !isFinite(r) {
			return validationf("layer %d resistivity must be positive, got %g", i+1, r)
		}
	}
	for i, t := range m.Thickness {
		if t <= 0 || !isFinite(t) {
			return validationf("layer %d thickness must be positive, got %g", i+1, t)
		}
	}
	return nil
}

// transform is the resistivity transform T(lambda), built by the Pekeris
// recursion from the bottom half-space upward.
func (m EarthModel) transform(lambda float64) float64 {
	t := m.Rho[len(m.Rho)-1]
	for i := len(m.Rho) - 2; i >= 0; i-- {
		th := math.Tanh(lambda * m.Thickness[i])
		t = (t + m.Rho[i]*th) / (1 + t*th/m.Rho[i])
	}
	return t
}

// SimulateOptions tunes the forward simulation.
type SimulateOptions struct {
	Mode SimulationMode
	// MNSpacing is the full potential-electrode separation in meters,
	// required for a Schlumberger array in ModeIntegrate.
	MNSpacing float64
}

// Simulate computes the apparent resistivity the given array would read over
// the model at each spacing. Pure and deterministic; all spacings must be
// positive.
func Simulate(spacings []float64, model EarthModel, array ArrayType, opts SimulateOptions) ([]float64, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if _, ok := arrayNames[array]; !ok {
		return nil, validationf("unknown array type %q", array)
	}
	if len(spacings) == 0 {
		return nil, validationf("no electrode spacings given")
	}
	for _, s := range spacings {
		if s <= 0 || !isFinite(s) {
			return nil, validationf("electrode spacing must be positive, got %g m", s)
		}
	}
	if opts.Mode == ModeIntegrate && array == ArraySchlumberger {
		if opts.MNSpacing <= 0 {
			return nil, validationf("integration mode for a schlumberger array requires a positive MN spacing")
		}
	}

	out := make([]float64, len(spacings))
	for i, s := range spacings {
		var rho float64
		switch {
		case opts.Mode == ModeIntegrate:
			rho = integratePotentials(s, model, array, opts.MNSpacing)
		case array == ArrayWenner:
			rho = model.Rho[0] + 2*s*(residualPotential(s, model, 0)-residualPotential(2*s, model, 0))
		default:
			rho = model.Rho[0] + s*s*residualPotential(s, model, 1)
		}
		if !isFinite(rho) {
			return nil, numericalf("apparent resistivity at spacing %g m is non-finite", s)
		}
		if rho <= 0 {
			return nil, numericalf("apparent resistivity at spacing %g m is non-positive (%g ohm-m)", s, rho)
		}
		out[i] = rho
	}
	return out, nil
}

// filterNodes is the minimum number of log-spaced quadrature nodes in
// ModeFilter. Even, so Simpson weights line up. The actual count grows with
// the spacing, see oscillationNodes.
const filterNodes = 480

// oscillationNodes returns an even node count for a log-spaced grid over
// [lmin, lmax] that keeps several quadrature nodes inside every period of
// J0/J1(lambda*r). The grid step in lambda is widest at lmax, so the count
// is set there: lmax*h must stay under a sixth of the Bessel period 2*pi/r.
// Without this the grid aliases once the spacing grows large against the
// thinnest layer, and the integral comes back with the wrong magnitude or
// even the wrong sign.
func oscillationNodes(r, lmin, lmax float64, floor int) int {
	h := math.Pi / (3 * lmax * r)
	n := int(math.Ceil(math.Log(lmax/lmin) / h))
	if n < floor {
		n = floor
	}
	if n%2 == 1 {
		n++
	}
	return n
}

// residualPotential integrates the exponentially decaying residual kernel
// (T(lambda) - rho1) against a Bessel weight on a log-spaced grid.
// For order 0 the integrand is (T-rho1)*J0(lambda*r); for order 1 it is
// (T-rho1)*J1(lambda*r)*lambda, the Schlumberger form. Subtracting the
// top-layer resistivity first makes the tail die off like exp(-2*lambda*t1),
// so a finite grid suffices; a uniform half-space integrates to exactly zero.
func residualPotential(r float64, model EarthModel, order int) float64 {
	if len(model.Rho) == 1 {
		return 0
	}
	tmin := model.Thickness[0]
	for _, t := range model.Thickness[1:] {
		if t < tmin {
			tmin = t
		}
	}
	lmin := 1e-6 / r
	lmax := 30 / tmin
	rho1 := model.Rho[0]
	f := func(lambda float64) float64 {
		res := model.transform(lambda) - rho1
		if order == 0 {
			return res * math.J0(lambda*r)
		}
		return res * math.J1(lambda*r) * lambda
	}
	return integrateLog(f, lmin, lmax, oscillationNodes(r, lmin, lmax, filterNodes))
}

// integrateLog applies composite Simpson in log space: the integral of
// f(lambda) over [a,b] equals the integral of f(lambda)*lambda over
// [ln a, ln b]. n must be even.
func integrateLog(f func(float64) float64, a, b float64, n int) float64 {
	ua, ub := math.Log(a), math.Log(b)
	h := (ub - ua) / float64(n)
	g := func(u float64) float64 {
		lambda := math.Exp(u)
		return f(lambda) * lambda
	}
	sum := g(ua) + g(ub)
	for i := 1; i < n; i++ {
		u := ua + float64(i)*h
		if i%2 == 1 {
			sum += 4 * g(u)
		} else {
			sum += 2 * g(u)
		}
	}
	return sum * h / 3
}

// integratePotentials computes the apparent resistivity from the surface
// potentials of the four electrodes with the exact geometric factor,
// refining the quadrature until the result settles.
func integratePotentials(s float64, model EarthModel, array ArrayType, mn float64) float64 {
	var am, an float64
	switch array {
	case ArrayWenner:
		am, an = s, 2*s
	default:
		half := mn / 2
		if half >= s {
			// Degenerate geometry; non-finite result is caught by Simulate.
			return math.NaN()
		}
		am, an = s-half, s+half
	}
	// Symmetric arrays: U = (I/pi)*(phi(AM) - phi(AN)), K = pi/(1/AM - 1/AN).
	k := math.Pi / (1/am - 1/an)
	u := refinedPotential(am, model) - refinedPotential(an, model)
	return k * u / math.Pi
}

// refinedPotential evaluates phi(r) = rho1/r + integral of the residual
// kernel, doubling the node count until the change is negligible.
func refinedPotential(r float64, model EarthModel) float64 {
	direct := model.Rho[0] / r
	if len(model.Rho) == 1 {
		return direct
	}
	tmin := model.Thickness[0]
	for _, t := range model.Thickness[1:] {
		if t < tmin {
			tmin = t
		}
	}
	lmin := 1e-7 / r
	lmax := 40 / tmin
	rho1 := model.Rho[0]
	f := func(lambda float64) float64 {
		return (model.transform(lambda) - rho1) * math.J0(lambda*r)
	}
	// The starting grid already resolves every Bessel oscillation; the
	// doubling only tightens the Simpson truncation error from there.
	start := oscillationNodes(r, lmin, lmax, 512)
	prev := integrateLog(f, lmin, lmax, start)
	for n := start * 2; n <= start*16; n *= 2 {
		next := integrateLog(f, lmin, lmax, n)
		if math.Abs(next-prev) <= 1e-9*(math.Abs(next)+direct) {
			return direct + next
		}
		prev = next
	}
	return direct + prev
}
