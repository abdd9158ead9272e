package interp

import "math"

// Linear2 interpolates from x0 to x1 at frac in [0, 1].
func Linear2(frac, x0, x1 float64) float64 {
	return x0 + frac*(x1-x0)
}

// LinearInt16 interpolates between two fixed-point samples at frac in [0, 1],
// rounding to the nearest integer. frac outside [0, 1] is clamped, so the
// result always lies between x0 and x1.
func LinearInt16(frac float64, x0, x1 int16) int16 {
	if frac <= 0 {
		return x0
	}
	if frac >= 1 {
		return x1
	}
	d := float64(int32(x1) - int32(x0))
	return int16(int32(x0) + int32(math.Round(d*frac)))
}
