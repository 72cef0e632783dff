package analytics

import (
	"math"
	"sort"
)

// Algorithm selects how a distance-value series is reduced to a single
// characteristic point.
type Algorithm int

const (
	// AlgorithmMaximum picks the point with the largest value.
	AlgorithmMaximum Algorithm = iota
	// Algorithm62Percent interpolates the value at 62% of the injection
	// distance (fall-of-potential rule).
	Algorithm62Percent
	// AlgorithmMinimumGradient picks the point where the curve is flattest.
	AlgorithmMinimumGradient
	// AlgorithmMinimumStddev picks the most stable fixed-size window and
	// reports its largest value.
	AlgorithmMinimumStddev
	// AlgorithmInverse extrapolates the value at infinite distance from a
	// least-squares fit in inverse coordinates.
	AlgorithmInverse
)

var algorithmNames = map[Algorithm]string{
	AlgorithmMaximum:         "maximum",
	Algorithm62Percent:       "62_percent",
	AlgorithmMinimumGradient: "minimum_gradient",
	AlgorithmMinimumStddev:   "minimum_stddev",
	AlgorithmInverse:         "inverse",
}

func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}
	return "unknown"
}

// ParseAlgorithm maps an algorithm token to its typed constant. Unknown
// tokens fail with a ValidationError naming the offending value.
func ParseAlgorithm(token string) (Algorithm, error) {
	for a, s := range algorithmNames {
		if s == token {
			return a, nil
		}
	}
	return 0, validationf("unknown reduction algorithm %q", token)
}

// DefaultWindow is the sliding-window size used by minimum_stddev when the
// caller does not supply one.
const DefaultWindow = 3

// ReduceOptions carries the per-algorithm parameters of Reduce.
type ReduceOptions struct {
	// InjectionDistanceM is the current-injection probe distance, required
	// by 62_percent.
	InjectionDistanceM *float64
	// Window is the sliding-window size for minimum_stddev; zero means
	// DefaultWindow.
	Window int
}

// Reduction is the characteristic point of a series together with an audit
// trail of how it was chosen. Distance is +Inf when the value is an
// extrapolation to infinite distance.
type Reduction struct {
	Value    float64        `json:"result_value"`
	Distance float64        `json:"result_distance"`
	Details  map[string]any `json:"details"`
}

// Reduce collapses an ascending-sorted, deduplicated distance-value series
// into one characteristic (value, distance) pair using the given algorithm.
func Reduce(series []DistanceValuePoint, algorithm Algorithm, opts ReduceOptions) (Reduction, error) {
	if len(series) == 0 {
		return Reduction{}, insufficientf(1, 0, "empty distance-value series")
	}
	switch algorithm {
	case AlgorithmMaximum:
		return reduceMaximum(series), nil
	case Algorithm62Percent:
		return reduce62Percent(series, opts.InjectionDistanceM)
	case AlgorithmMinimumGradient:
		return reduceMinimumGradient(series), nil
	case AlgorithmMinimumStddev:
		window := opts.Window
		if window == 0 {
			window = DefaultWindow
		}
		return reduceMinimumStddev(series, window)
	case AlgorithmInverse:
		return reduceInverse(series)
	default:
		return Reduction{}, validationf("unknown reduction algorithm %q", algorithm)
	}
}

// reduceMaximum selects the largest value; ties go to the largest distance.
func reduceMaximum(series []DistanceValuePoint) Reduction {
	best := series[0]
	for _, p := range series[1:] {
		if p.Value > best.Value || (p.Value == best.Value && p.Distance > best.Distance) {
			best = p
		}
	}
	return Reduction{
		Value:    best.Value,
		Distance: best.Distance,
		Details: map[string]any{
			"points_considered": len(series),
		},
	}
}

// reduce62Percent interpolates the value at 62% of the injection distance
// from the up-to-three points nearest that target.
func reduce62Percent(series []DistanceValuePoint, injection *float64) (Reduction, error) {
	if injection == nil {
		return Reduction{}, validationf("62_percent requires an injection distance")
	}
	if *injection <= 0 {
		return Reduction{}, validationf("62_percent requires a positive injection distance, got %g m", *injection)
	}
	target := 0.62 * *injection

	nearest := make([]DistanceValuePoint, len(series))
	copy(nearest, series)
	sort.SliceStable(nearest, func(i, j int) bool {
		return math.Abs(nearest[i].Distance-target) < math.Abs(nearest[j].Distance-target)
	})
	if len(nearest) > 3 {
		nearest = nearest[:3]
	}

	// Interpolate between the closest points on either side of the target.
	var lower, upper *DistanceValuePoint
	for i := range nearest {
		p := &nearest[i]
		if p.Distance <= target && (lower == nil || p.Distance > lower.Distance) {
			lower = p
		}
		if p.Distance >= target && (upper == nil || p.Distance < upper.Distance) {
			upper = p
		}
	}
	if lower == nil || upper == nil {
		return Reduction{}, insufficientf(2, len(nearest), "no points bracket the 62%% target distance %g m", target)
	}

	var value float64
	if lower.Distance == upper.Distance {
		value = lower.Value
	} else {
		frac := (target - lower.Distance) / (upper.Distance - lower.Distance)
		value = lower.Value + frac*(upper.Value-lower.Value)
	}
	return Reduction{
		Value:    value,
		Distance: target,
		Details: map[string]any{
			"target_distance_m": target,
			"lower_point":       *lower,
			"upper_point":       *upper,
			"candidates":        nearest,
		},
	}, nil
}

// reduceMinimumGradient picks the point with the smallest absolute
// finite-difference gradient; ties go to the smallest distance. A single
// point has gradient zero by definition.
func reduceMinimumGradient(series []DistanceValuePoint) Reduction {
	gradients := make([]float64, len(series))
	for i := range series {
		switch {
		case len(series) == 1:
			gradients[i] = 0
		case i == 0:
			gradients[i] = slope(series[0], series[1])
		case i == len(series)-1:
			gradients[i] = slope(series[i-1], series[i])
		default:
			gradients[i] = slope(series[i-1], series[i+1])
		}
	}
	best := 0
	for i := 1; i < len(series); i++ {
		if math.Abs(gradients[i]) < math.Abs(gradients[best]) {
			best = i
		}
	}
	return Reduction{
		Value:    series[best].Value,
		Distance: series[best].Distance,
		Details: map[string]any{
			"gradient":  gradients[best],
			"gradients": gradients,
		},
	}
}

func slope(a, b DistanceValuePoint) float64 {
	dd := b.Distance - a.Distance
	if dd == 0 {
		return 0
	}
	return (b.Value - a.Value) / dd
}

// reduceMinimumStddev slides a fixed-size window across the series, selects
// the window with the smallest sample standard deviation (ties go to the
// earliest window), and reports the largest value inside it. Taking the
// maximum of the flattest window biases the result conservatively.
func reduceMinimumStddev(series []DistanceValuePoint, window int) (Reduction, error) {
	if window < 1 {
		return Reduction{}, validationf("window must be at least 1, got %d", window)
	}
	if len(series) < window {
		return Reduction{}, insufficientf(window, len(series), "series shorter than window")
	}

	bestStart, bestStddev := 0, math.Inf(1)
	for start := 0; start+window <= len(series); start++ {
		sd := sampleStddev(series[start : start+window])
		if sd < bestStddev {
			bestStart, bestStddev = start, sd
		}
	}

	win := series[bestStart : bestStart+window]
	best := win[0]
	for _, p := range win[1:] {
		if p.Value > best.Value || (p.Value == best.Value && p.Distance > best.Distance) {
			best = p
		}
	}
	return Reduction{
		Value:    best.Value,
		Distance: best.Distance,
		Details: map[string]any{
			"window":        window,
			"window_start":  win[0].Distance,
			"window_end":    win[window-1].Distance,
			"window_stddev": bestStddev,
			"window_points": win,
		},
	}, nil
}

func sampleStddev(points []DistanceValuePoint) float64 {
	if len(points) < 2 {
		return 0
	}
	mean := 0.0
	for _, p := range points {
		mean += p.Value
	}
	mean /= float64(len(points))
	ss := 0.0
	for _, p := range points {
		d := p.Value - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(points)-1))
}

// reduceInverse fits z = a*x + b over x = 1/distance, z = 1/value by ordinary
// least squares and extrapolates to infinite distance, where the value is 1/b.
func reduceInverse(series []DistanceValuePoint) (Reduction, error) {
	for _, p := range series {
		if p.Distance <= 0 {
			return Reduction{}, validationf("inverse requires strictly positive distances, got %g m", p.Distance)
		}
		if p.Value <= 0 {
			return Reduction{}, validationf("inverse requires strictly positive values, got %g", p.Value)
		}
	}
	n := len(series)
	if n < 2 {
		return Reduction{}, numericalf("inverse extrapolation needs at least 2 points, got %d", n)
	}

	var sx, sz, sxx, sxz float64
	for _, p := range series {
		x, z := 1/p.Distance, 1/p.Value
		sx += x
		sz += z
		sxx += x * x
		sxz += x * z
	}
	fn := float64(n)
	denom := fn*sxx - sx*sx
	if math.Abs(denom) <= 1e-12*fn*sxx {
		return Reduction{}, numericalf("degenerate inverse fit: all distances equal")
	}
	a := (fn*sxz - sx*sz) / denom
	b := (sz - a*sx) / fn
	value := 1 / b
	if !isFinite(value) || b <= 0 {
		return Reduction{}, numericalf("inverse fit intercept %g yields no finite positive extrapolation", b)
	}
	return Reduction{
		Value:    value,
		Distance: math.Inf(1),
		Details: map[string]any{
			"slope":     a,
			"intercept": b,
			"points":    n,
		},
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
