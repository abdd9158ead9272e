package dither

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-glitch/dsp/core"
)

const int16Scale = 32768

// Option configures a Quantizer.
type Option func(*config) error

type config struct {
	typ       Type
	amplitude float64
	preset    Preset
	seed      uint64
}

// WithType sets the dither PDF (default TypeTriangular).
func WithType(t Type) Option {
	return func(cfg *config) error {
		if !t.Valid() {
			return fmt.Errorf("dither: invalid type: %d", t)
		}
		cfg.typ = t
		return nil
	}
}

// WithAmplitude scales the dither noise in LSB (default 1).
func WithAmplitude(amp float64) Option {
	return func(cfg *config) error {
		if amp < 0 || math.IsNaN(amp) || math.IsInf(amp, 0) {
			return fmt.Errorf("dither: amplitude must be >= 0 and finite: %f", amp)
		}
		cfg.amplitude = amp
		return nil
	}
}

// WithPreset selects the noise shaper (default PresetNone).
func WithPreset(p Preset) Option {
	return func(cfg *config) error {
		if !p.Valid() {
			return fmt.Errorf("dither: invalid preset: %d", p)
		}
		cfg.preset = p
		return nil
	}
}

// WithSeed fixes the noise sequence.
func WithSeed(seed uint64) Option {
	return func(cfg *config) error {
		cfg.seed = seed
		return nil
	}
}

// Quantizer converts float samples in [-1, 1) to int16. It is stateful and
// not safe for concurrent use.
type Quantizer struct {
	typ       Type
	amplitude float64
	shaper    *shaper
	rng       *rand.Rand
}

// NewQuantizer creates a quantizer. The default is triangular dither at one
// LSB with no noise shaping.
func NewQuantizer(opts ...Option) (*Quantizer, error) {
	cfg := config{typ: TypeTriangular, amplitude: 1, seed: 1}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Quantizer{
		typ:       cfg.typ,
		amplitude: cfg.amplitude,
		shaper:    newShaper(cfg.preset.Coefficients()),
		rng:       rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Type returns the dither PDF.
func (q *Quantizer) Type() Type { return q.typ }

// Sample quantizes one sample. NaN maps to silence.
func (q *Quantizer) Sample(x float64) int16 {
	if math.IsNaN(x) {
		x = 0
	}
	shaped := q.shaper.Shape(x * int16Scale)
	v := math.Floor(shaped + q.noise() + 0.5)
	v = core.Clamp(v, math.MinInt16, math.MaxInt16)
	q.shaper.RecordError(v - shaped)
	return int16(v)
}

// Int16 quantizes src into dst. dst and src must have the same length.
func (q *Quantizer) Int16(dst []int16, src []float64) {
	for i, s := range src {
		dst[i] = q.Sample(s)
	}
}

// Reset clears the noise shaper history.
func (q *Quantizer) Reset() {
	q.shaper.Reset()
}

func (q *Quantizer) noise() float64 {
	switch q.typ {
	case TypeRectangular:
		return q.amplitude * (q.rng.Float64() - 0.5)
	case TypeTriangular:
		return q.amplitude * (q.rng.Float64() - q.rng.Float64())
	default:
		return 0
	}
}
