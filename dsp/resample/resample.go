package resample

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-glitch/dsp/core"
)

// ErrInvalidRate indicates a non-positive sample rate.
var ErrInvalidRate = errors.New("resample: invalid sample rate")

// Quality controls the anti-aliasing filter.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityBest
)

type profile struct {
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
}

func (q Quality) profile() profile {
	switch q {
	case QualityFast:
		return profile{tapsPerPhase: 16, cutoffScale: 0.88, kaiserBeta: 5.0}
	case QualityBest:
		return profile{tapsPerPhase: 64, cutoffScale: 0.96, kaiserBeta: 9.0}
	default:
		return profile{tapsPerPhase: 32, cutoffScale: 0.92, kaiserBeta: 7.5}
	}
}

// Option configures a Converter.
type Option func(*config) error

type config struct {
	quality Quality
}

// WithQuality selects the filter profile.
func WithQuality(q Quality) Option {
	return func(cfg *config) error {
		if q < QualityFast || q > QualityBest {
			return fmt.Errorf("resample quality out of range: %d", q)
		}
		cfg.quality = q
		return nil
	}
}

// Converter performs streaming rational sample-rate conversion.
type Converter struct {
	up, down int
	phases   [][]float64
	maxTaps  int
	// delay is the filter group delay in output samples.
	delay int

	phase      int
	inputIndex int
	totalIn    int
	history    []float64
	work       []float64
}

// NewConverter creates a converter from inRate to outRate.
func NewConverter(inRate, outRate int, opts ...Option) (*Converter, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, inRate, outRate)
	}

	cfg := config{quality: QualityBalanced}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	g := gcd(inRate, outRate)
	up, down := outRate/g, inRate/g

	phases, center, err := designPolyphase(up, down, cfg.quality.profile())
	if err != nil {
		return nil, err
	}

	maxTaps := 0
	for _, p := range phases {
		maxTaps = max(maxTaps, len(p))
	}

	return &Converter{
		up:      up,
		down:    down,
		phases:  phases,
		maxTaps: maxTaps,
		delay:   int(center/float64(down) + 0.5),
		history: make([]float64, 0, maxTaps),
	}, nil
}

// Ratio returns the reduced up/down factors.
func (c *Converter) Ratio() (up, down int) { return c.up, c.down }

// Delay returns the filter group delay in output samples.
func (c *Converter) Delay() int { return c.delay }

// Reset clears the filter state.
func (c *Converter) Reset() {
	c.phase = 0
	c.inputIndex = 0
	c.totalIn = 0
	c.history = c.history[:0]
}

// Process converts one block and appends the output to dst. State carries
// over to the next call.
func (c *Converter) Process(dst, input []float64) []float64 {
	if len(input) == 0 {
		return dst
	}

	c.work = append(append(c.work[:0], c.history...), input...)
	base := c.totalIn - len(c.history)
	last := c.totalIn + len(input) - 1

	for c.inputIndex <= last {
		var y float64
		for k, h := range c.phases[c.phase] {
			idx := c.inputIndex - k
			if idx < base {
				break
			}
			y += h * c.work[idx-base]
		}
		dst = append(dst, y)

		c.phase += c.down
		c.inputIndex += c.phase / c.up
		c.phase %= c.up
	}

	c.totalIn += len(input)
	keep := min(c.maxTaps, len(c.work))
	c.history = append(c.history[:0], c.work[len(c.work)-keep:]...)
	return dst
}

// Int16 converts a whole clip between rates. The output is aligned with
// the input (group delay removed) and has round(len*out/in) samples.
func Int16(clip []int16, inRate, outRate int, opts ...Option) ([]int16, error) {
	c, err := NewConverter(inRate, outRate, opts...)
	if err != nil {
		return nil, err
	}
	if inRate == outRate {
		return append([]int16(nil), clip...), nil
	}

	in := make([]float64, len(clip))
	core.Int16ToFloat(in, clip)

	want := int((int64(len(clip))*int64(c.up) + int64(c.down)/2) / int64(c.down))
	out := make([]float64, 0, want+c.delay+1)
	out = c.Process(out, in)

	// Flush the filter tail with silence until the delayed output is complete.
	pad := make([]float64, c.maxTaps)
	for len(out) < want+c.delay {
		out = c.Process(out, pad)
	}

	res := make([]int16, want)
	core.FloatToInt16(res, out[c.delay:c.delay+want])
	return res, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
