package interp

import (
	"fmt"

	"github.com/meko-christian/algo-approx"
)

// Curve selects the weighting applied across a crossfade.
type Curve int

const (
	// CurveLinear ramps both weights linearly; gain stays constant for
	// correlated material such as neighbouring regions of one recording.
	CurveLinear Curve = iota
	// CurveEqualPower uses square-root weights so that uncorrelated
	// sources keep constant power through the fade.
	CurveEqualPower
)

// String implements fmt.Stringer.
func (c Curve) String() string {
	switch c {
	case CurveLinear:
		return "linear"
	case CurveEqualPower:
		return "equal-power"
	default:
		return fmt.Sprintf("Curve(%d)", int(c))
	}
}

// ParseCurve returns the curve with the given name.
func ParseCurve(name string) (Curve, error) {
	switch name {
	case "linear", "":
		return CurveLinear, nil
	case "equal-power", "equalpower":
		return CurveEqualPower, nil
	default:
		return CurveLinear, fmt.Errorf("unknown crossfade curve: %q", name)
	}
}

// Weights returns the gain of the outgoing and incoming source at progress t
// in [0, 1]. Both weights are monotonic in t and lie in [0, 1].
func (c Curve) Weights(t float64) (out, in float64) {
	if t <= 0 {
		return 1, 0
	}
	if t >= 1 {
		return 0, 1
	}

	if c == CurveEqualPower {
		return unit(approx.FastSqrt(1 - t)), unit(approx.FastSqrt(t))
	}

	return 1 - t, t
}

// Crossfade blends from into to at progress t in [0, 1].
func (c Curve) Crossfade(t float64, from, to int16) int16 {
	if c == CurveLinear {
		return LinearInt16(t, from, to)
	}

	wOut, wIn := c.Weights(t)
	v := float64(from)*wOut + float64(to)*wIn
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	if v < 0 {
		return int16(v - 0.5)
	}
	return int16(v + 0.5)
}

func unit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
