package dither

import "fmt"

// Preset identifies a predefined FIR noise-shaping coefficient set.
type Preset int

const (
	PresetNone Preset = iota // no shaping
	PresetEFB                // simple error feedback, 1st order
	Preset2SC                // simple 2nd-order highpass
	Preset3FC                // F-weighted, 3rd order
	Preset9FC                // F-weighted, 9th order

	presetCount
)

var presetNames = [presetCount]string{"None", "EFB", "2SC", "3FC", "9FC"}

var presetCoeffs = [presetCount][]float64{
	PresetEFB: {1},
	Preset2SC: {1.0, -0.5},
	Preset3FC: {1.623, -0.982, 0.109},
	Preset9FC: {
		2.412, -3.370, 3.937, -4.174, 3.353,
		-2.205, 1.281, -0.569, 0.0847,
	},
}

func (p Preset) String() string {
	if p.Valid() {
		return presetNames[p]
	}
	return fmt.Sprintf("Preset(%d)", p)
}

// Valid reports whether p is a known preset.
func (p Preset) Valid() bool {
	return p >= 0 && p < presetCount
}

// Coefficients returns a copy of the preset's feedback coefficients, nil for
// PresetNone.
func (p Preset) Coefficients() []float64 {
	if !p.Valid() || len(presetCoeffs[p]) == 0 {
		return nil
	}
	return append([]float64(nil), presetCoeffs[p]...)
}

// shaper is an FIR error-feedback filter over a ring of past quantization
// errors. Per sample: Shape, quantize, then RecordError.
type shaper struct {
	coeffs  []float64
	history []float64
	pos     int
}

func newShaper(coeffs []float64) *shaper {
	return &shaper{
		coeffs:  coeffs,
		history: make([]float64, len(coeffs)),
	}
}

func (s *shaper) Shape(input float64) float64 {
	order := len(s.coeffs)
	if order == 0 {
		return input
	}
	for i, c := range s.coeffs {
		input -= c * s.history[(order+s.pos-i)%order]
	}
	s.pos = (s.pos + 1) % order
	return input
}

func (s *shaper) RecordError(e float64) {
	if len(s.coeffs) == 0 {
		return
	}
	s.history[s.pos] = e
}

func (s *shaper) Reset() {
	clear(s.history)
	s.pos = 0
}
