package core

import "math"

const (
	int16Scale = 32768.0
)

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// ClampInt limits value to the inclusive range [lo, hi].
func ClampInt(value, lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}

	if value < lo {
		return lo
	}

	if value > hi {
		return hi
	}

	return value
}

// SaturateInt16 narrows an accumulator to int16, clipping at the rails.
func SaturateInt16(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}

	if v < math.MinInt16 {
		return math.MinInt16
	}

	return int16(v)
}

// QuantizeInt16 rounds a float in [-1, 1) to the nearest int16, saturating.
// NaN maps to 0.
func QuantizeInt16(x float64) int16 {
	if math.IsNaN(x) {
		return 0
	}

	v := math.Round(x * int16Scale)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}

	if v < math.MinInt16 {
		return math.MinInt16
	}

	return int16(v)
}
