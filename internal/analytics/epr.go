package analytics

import (
	"math/cmplx"
	"sort"
)

// EPRPoint is the earth potential rise derived at one frequency.
type EPRPoint struct {
	FrequencyHz float64 `json:"frequency_hz"`
	VoltageV    float64 `json:"voltage_v"`
}

// EarthPotentialRise multiplies earthing impedance by earthing current at
// every frequency present in both series. Frequencies present in only one
// series are skipped; an empty overlap is an error because it means the two
// measurements cannot be combined at all.
func EarthPotentialRise(impedance, current map[float64]complex128) ([]EPRPoint, error) {
	var out []EPRPoint
	for f, z := range impedance {
		i, ok := current[f]
		if !ok {
			continue
		}
		out = append(out, EPRPoint{FrequencyHz: f, VoltageV: cmplx.Abs(z * i)})
	}
	if len(out) == 0 {
		return nil, insufficientf(1, 0, "impedance and current series share no frequency")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FrequencyHz < out[j].FrequencyHz })
	return out, nil
}
