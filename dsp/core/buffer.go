package core

// Sample is the set of sample formats handled by the block helpers.
type Sample interface {
	~int16 | ~int32 | ~float32 | ~float64
}

// Zero sets all values in buf to 0.
func Zero[S Sample](buf []S) {
	clear(buf)
}

// Int16ToFloat converts fixed-point samples to floats in [-1, 1).
// dst and src must have the same length.
func Int16ToFloat(dst []float64, src []int16) {
	for i, s := range src {
		dst[i] = float64(s) / int16Scale
	}
}

// FloatToInt16 converts floats to fixed-point samples, saturating values
// outside [-1, 1). dst and src must have the same length.
func FloatToInt16(dst []int16, src []float64) {
	for i, s := range src {
		dst[i] = QuantizeInt16(s)
	}
}
