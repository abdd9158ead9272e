package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-glitch/dsp/core"
	"github.com/cwbudde/algo-glitch/dsp/glitch"
)

const (
	// MaxGlitchDelayFeedback bounds the recorded share of the wet signal.
	MaxGlitchDelayFeedback = 0.95
	// MaxGlitchDelayHeadGain bounds the output gain of a single head.
	MaxGlitchDelayHeadGain = 2.0
)

const (
	defaultGlitchDelayMix      = 0.5
	defaultGlitchDelayFeedback = 0.0
)

// DefaultGlitchDelayHeadGains weights the normal, octave-up and reverse
// heads.
var DefaultGlitchDelayHeadGains = [glitch.NumPlayHeads]float64{0.5, 0.35, 0.35}

// GlitchDelayOption mutates glitch delay construction parameters.
type GlitchDelayOption func(*glitchDelayConfig) error

type glitchDelayConfig struct {
	mix       float64
	feedback  float64
	headGains [glitch.NumPlayHeads]float64
	engine    []glitch.Option
}

func defaultGlitchDelayConfig() glitchDelayConfig {
	return glitchDelayConfig{
		mix:       defaultGlitchDelayMix,
		feedback:  defaultGlitchDelayFeedback,
		headGains: DefaultGlitchDelayHeadGains,
	}
}

// WithGlitchDelayMix sets the dry/wet mix in [0, 1].
func WithGlitchDelayMix(mix float64) GlitchDelayOption {
	return func(cfg *glitchDelayConfig) error {
		if err := validateGlitchDelayMix(mix); err != nil {
			return err
		}
		cfg.mix = mix
		return nil
	}
}

// WithGlitchDelayFeedback sets how much of the wet signal is recorded again,
// in [0, 0.95].
func WithGlitchDelayFeedback(feedback float64) GlitchDelayOption {
	return func(cfg *glitchDelayConfig) error {
		if err := validateGlitchDelayFeedback(feedback); err != nil {
			return err
		}
		cfg.feedback = feedback
		return nil
	}
}

// WithGlitchDelayHeadGains sets the per-head output gains, each in [0, 2].
func WithGlitchDelayHeadGains(gains [glitch.NumPlayHeads]float64) GlitchDelayOption {
	return func(cfg *glitchDelayConfig) error {
		for i, g := range gains {
			if err := validateGlitchDelayHeadGain(i, g); err != nil {
				return err
			}
		}
		cfg.headGains = gains
		return nil
	}
}

// WithGlitchDelayEngine passes options through to the glitch engine.
func WithGlitchDelayEngine(opts ...glitch.Option) GlitchDelayOption {
	return func(cfg *glitchDelayConfig) error {
		cfg.engine = append(cfg.engine, opts...)
		return nil
	}
}

// GlitchDelay runs a glitch.Effect on float64 audio in [-1, 1]. The wet
// signal is a weighted mix of the engine's heads; part of it can be fed back
// into the recording.
//
// The embedded engine setters stage values for the next Commit. GlitchDelay
// itself is real-time safe (no allocations after construction) and not
// thread-safe: ProcessInPlace, Commit and the mix setters belong to the
// audio goroutine.
type GlitchDelay struct {
	*glitch.Effect

	sampleRate float64
	mix        float64
	feedback   float64
	headGains  [glitch.NumPlayHeads]float64

	record []float64
	wet    []float64
	scale  []float64
	in16   []int16
	heads  [glitch.NumPlayHeads][]int16
}

// NewGlitchDelay creates a glitch delay at sampleRate.
func NewGlitchDelay(sampleRate float64, opts ...GlitchDelayOption) (*GlitchDelay, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("glitch delay sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultGlitchDelayConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	engineOpts := append([]glitch.Option{glitch.WithSampleRate(sampleRate)}, cfg.engine...)
	engine, err := glitch.New(engineOpts...)
	if err != nil {
		return nil, err
	}

	n := engine.Config().BlockSize
	gd := &GlitchDelay{
		Effect:     engine,
		sampleRate: sampleRate,
		mix:        cfg.mix,
		feedback:   cfg.feedback,
		headGains:  cfg.headGains,
		record:     make([]float64, n),
		wet:        make([]float64, n),
		scale:      make([]float64, n),
		in16:       make([]int16, n),
	}
	for i := range gd.heads {
		gd.heads[i] = make([]int16, n)
	}
	return gd, nil
}

// SampleRate returns sample rate in Hz.
func (gd *GlitchDelay) SampleRate() float64 { return gd.sampleRate }

// Mix returns the wet amount in [0, 1].
func (gd *GlitchDelay) Mix() float64 { return gd.mix }

// Feedback returns the feedback amount in [0, 0.95].
func (gd *GlitchDelay) Feedback() float64 { return gd.feedback }

// HeadGain returns the output gain of head i.
func (gd *GlitchDelay) HeadGain(i int) float64 {
	if i < 0 || i >= glitch.NumPlayHeads {
		return 0
	}
	return gd.headGains[i]
}

// SetMix sets the wet amount in [0, 1].
func (gd *GlitchDelay) SetMix(mix float64) error {
	if err := validateGlitchDelayMix(mix); err != nil {
		return err
	}
	gd.mix = mix
	return nil
}

// SetFeedback sets the feedback amount in [0, 0.95].
func (gd *GlitchDelay) SetFeedback(feedback float64) error {
	if err := validateGlitchDelayFeedback(feedback); err != nil {
		return err
	}
	gd.feedback = feedback
	return nil
}

// SetHeadGain sets the output gain of head i in [0, 2].
func (gd *GlitchDelay) SetHeadGain(i int, gain float64) error {
	if i < 0 || i >= glitch.NumPlayHeads {
		return fmt.Errorf("glitch delay head index must be in [0, %d): %d", glitch.NumPlayHeads, i)
	}
	if err := validateGlitchDelayHeadGain(i, gain); err != nil {
		return err
	}
	gd.headGains[i] = gain
	return nil
}

// Reset clears the recording and the feedback path.
func (gd *GlitchDelay) Reset() {
	gd.Effect.Reset()
	clear(gd.wet)
}

// ProcessInPlace records buf, plus feedback from the previous block, and
// replaces it with the dry/wet mix. Blocks longer than the engine block
// size are processed in pieces.
func (gd *GlitchDelay) ProcessInPlace(buf []float64) {
	for len(buf) > 0 {
		n := min(len(buf), len(gd.record))
		gd.processBlock(buf[:n])
		buf = buf[n:]
	}
}

func (gd *GlitchDelay) processBlock(buf []float64) {
	n := len(buf)
	record := gd.record[:n]
	wet := gd.wet[:n]
	scale := gd.scale[:n]

	vecmath.ScaleBlock(record, wet, gd.feedback)
	vecmath.AddBlockInPlace(record, buf)
	core.FloatToInt16(gd.in16[:n], record)
	gd.ProcessInput(0, gd.in16[:n])

	var heads [glitch.NumPlayHeads][]int16
	for i := range heads {
		heads[i] = gd.heads[i][:n]
	}
	gd.ReadHeads(0, &heads)

	clear(wet)
	for i := range heads {
		core.Int16ToFloat(scale, heads[i])
		vecmath.ScaleBlock(scale, scale, gd.headGains[i])
		vecmath.AddBlockInPlace(wet, scale)
	}

	vecmath.ScaleBlock(buf, buf, 1-gd.mix)
	vecmath.ScaleBlock(scale, wet, gd.mix)
	vecmath.AddBlockInPlace(buf, scale)
}

func validateGlitchDelayMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
		return fmt.Errorf("glitch delay mix must be in [0, 1]: %f", mix)
	}
	return nil
}

func validateGlitchDelayFeedback(feedback float64) error {
	if feedback < 0 || feedback > MaxGlitchDelayFeedback || math.IsNaN(feedback) || math.IsInf(feedback, 0) {
		return fmt.Errorf("glitch delay feedback must be in [0, %g]: %f", MaxGlitchDelayFeedback, feedback)
	}
	return nil
}

func validateGlitchDelayHeadGain(i int, gain float64) error {
	if gain < 0 || gain > MaxGlitchDelayHeadGain || math.IsNaN(gain) || math.IsInf(gain, 0) {
		return fmt.Errorf("glitch delay head %d gain must be in [0, %g]: %f", i, MaxGlitchDelayHeadGain, gain)
	}
	return nil
}
