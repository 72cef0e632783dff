package analytics

import (
	"math"
	"math/cmplx"
	"sort"
)

// Record is the core-facing view of a single field measurement reading.
// The electrical value may be given in polar form (Magnitude, AngleDeg),
// rectangular form (Real, Imag), or both. At least one form must be present;
// the missing one is derived during normalization.
type Record struct {
	Type               string
	Unit               string
	FrequencyHz        *float64
	DistanceM          *float64
	InjectionDistanceM *float64
	Magnitude          *float64
	AngleDeg           *float64
	Real               *float64
	Imag               *float64
}

// Complex returns the record value as a complex number, deriving the
// rectangular form from polar input when necessary. A missing angle is
// treated as zero degrees, matching instrument exports that report only a
// magnitude.
func (r Record) Complex() (complex128, error) {
	switch {
	case r.Real != nil || r.Imag != nil:
		re, im := 0.0, 0.0
		if r.Real != nil {
			re = *r.Real
		}
		if r.Imag != nil {
			im = *r.Imag
		}
		return complex(re, im), nil
	case r.Magnitude != nil:
		angle := 0.0
		if r.AngleDeg != nil {
			angle = *r.AngleDeg
		}
		rad := angle * math.Pi / 180
		return complex(*r.Magnitude*math.Cos(rad), *r.Magnitude*math.Sin(rad)), nil
	default:
		return 0, validationf("record of type %q has neither polar nor rectangular value", r.Type)
	}
}

// DistanceValuePoint is a single (probe distance, value magnitude) sample.
type DistanceValuePoint struct {
	Distance float64 `json:"distance_m"`
	Value    float64 `json:"value"`
}

// BuildDistanceSeries converts records into a distance-value series sorted by
// ascending distance. Records without a distance are skipped; records with a
// distance but no value representation fail the whole build. Duplicate
// distances are collapsed to the candidate whose value lies closest to the
// linear interpolation of its resolved neighbors, a policy inherited from the
// field workflow this replaces.
func BuildDistanceSeries(records []Record) ([]DistanceValuePoint, error) {
	points := make([]DistanceValuePoint, 0, len(records))
	for _, r := range records {
		if r.DistanceM == nil {
			continue
		}
		z, err := r.Complex()
		if err != nil {
			return nil, err
		}
		if *r.DistanceM < 0 {
			return nil, validationf("negative measurement distance %g m", *r.DistanceM)
		}
		points = append(points, DistanceValuePoint{Distance: *r.DistanceM, Value: cmplx.Abs(z)})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Distance < points[j].Distance })
	return dedupeDistances(points), nil
}

// BuildFrequencySeries converts records into a frequency-keyed complex series.
// Records without a frequency are skipped; when several records share a
// frequency the last one wins.
func BuildFrequencySeries(records []Record) (map[float64]complex128, error) {
	series := make(map[float64]complex128)
	for _, r := range records {
		if r.FrequencyHz == nil {
			continue
		}
		if *r.FrequencyHz < 0 {
			return nil, validationf("negative frequency %g Hz", *r.FrequencyHz)
		}
		z, err := r.Complex()
		if err != nil {
			return nil, err
		}
		series[*r.FrequencyHz] = z
	}
	return series, nil
}

// dedupeDistances collapses runs of equal distance in an ascending-sorted
// series. The representative of a run is the point whose value is closest to
// the straight line through the previous kept point and the first point after
// the run; at either end of the series the single available neighbor's value
// is used as the reference instead.
func dedupeDistances(points []DistanceValuePoint) []DistanceValuePoint {
	if len(points) < 2 {
		return points
	}
	out := make([]DistanceValuePoint, 0, len(points))
	for i := 0; i < len(points); {
		j := i + 1
		for j < len(points) && points[j].Distance == points[i].Distance {
			j++
		}
		if j-i == 1 {
			out = append(out, points[i])
			i = j
			continue
		}
		run := points[i:j]
		ref, hasRef := referenceValue(out, points, j, run[0].Distance)
		best := run[0]
		if hasRef {
			for _, p := range run[1:] {
				if math.Abs(p.Value-ref) < math.Abs(best.Value-ref) {
					best = p
				}
			}
		}
		out = append(out, best)
		i = j
	}
	return out
}

// referenceValue interpolates the expected value at distance d from the
// nearest resolved neighbor before the run and the first raw point after it.
func referenceValue(kept, all []DistanceValuePoint, next int, d float64) (float64, bool) {
	var prev, after *DistanceValuePoint
	if len(kept) > 0 {
		prev = &kept[len(kept)-1]
	}
	if next < len(all) {
		after = &all[next]
	}
	switch {
	case prev != nil && after != nil:
		span := after.Distance - prev.Distance
		if span == 0 {
			return (prev.Value + after.Value) / 2, true
		}
		frac := (d - prev.Distance) / span
		return prev.Value + frac*(after.Value-prev.Value), true
	case prev != nil:
		return prev.Value, true
	case after != nil:
		return after.Value, true
	default:
		return 0, false
	}
}
