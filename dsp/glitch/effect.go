package glitch

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-glitch/dsp/core"
	"github.com/cwbudde/algo-glitch/dsp/delay"
	"github.com/cwbudde/algo-glitch/dsp/interp"
)

// NumPlayHeads is the number of heads every Effect runs.
const NumPlayHeads = 3

const (
	// DefaultCrossfadeSamples is the seam crossfade, about 5.8 ms at 44.1 kHz.
	DefaultCrossfadeSamples = 256

	// DefaultMaxJitterSamples is the loop start jitter range at jitter ratio 1.
	DefaultMaxJitterSamples = 4410

	// DefaultSeed seeds the per-head jitter generators.
	DefaultSeed = 0x5eed

	// DefaultMinLoopMillis and DefaultMaxLoopMillis bound the loop duration
	// selected by a loop size ratio of 0 and 1.
	DefaultMinLoopMillis = 20.0
	DefaultMaxLoopMillis = 1000.0

	maxCrossfadeSamples = 1 << 14
)

// DefaultHeadSpeeds are the base speeds of the three heads: normal, octave
// up and reverse.
var DefaultHeadSpeeds = [NumPlayHeads]float64{1, 2, -1}

// Config holds the construction parameters of an Effect.
type Config struct {
	core.ProcessorConfig

	CapacityBytes    int
	BitDepth         int
	CrossfadeSamples int
	WriteFadeSamples int
	MaxJitterSamples int
	MinLoopMillis    float64
	MaxLoopMillis    float64
	HeadSpeeds       [NumPlayHeads]float64
	Seed             uint64
	Curve            interp.Curve
}

// DefaultConfig returns the pedal's configuration.
func DefaultConfig() Config {
	return Config{
		ProcessorConfig:  core.DefaultProcessorConfig(),
		CapacityBytes:    delay.DefaultCapacityBytes,
		BitDepth:         delay.DefaultBitDepth,
		CrossfadeSamples: DefaultCrossfadeSamples,
		WriteFadeSamples: delay.DefaultFadeLength,
		MaxJitterSamples: DefaultMaxJitterSamples,
		MinLoopMillis:    DefaultMinLoopMillis,
		MaxLoopMillis:    DefaultMaxLoopMillis,
		HeadSpeeds:       DefaultHeadSpeeds,
		Seed:             DefaultSeed,
		Curve:            interp.CurveLinear,
	}
}

// Option mutates an Effect configuration.
type Option func(*Config) error

// WithSampleRate sets the sample rate used to convert loop durations.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) error {
		if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
			return fmt.Errorf("glitch sample rate must be > 0 and finite: %f", sampleRate)
		}
		core.WithSampleRate(sampleRate)(&cfg.ProcessorConfig)
		return nil
	}
}

// WithBlockSize sets the largest block processed in one pass. Longer
// blocks are split.
func WithBlockSize(blockSize int) Option {
	return func(cfg *Config) error {
		if blockSize < 1 {
			return fmt.Errorf("glitch block size must be >= 1: %d", blockSize)
		}
		core.WithBlockSize(blockSize)(&cfg.ProcessorConfig)
		return nil
	}
}

// WithCapacityBytes sets the sample store size.
func WithCapacityBytes(capacity int) Option {
	return func(cfg *Config) error {
		if capacity < delay.MinCapacityBytes {
			return fmt.Errorf("%w: %d bytes", delay.ErrCapacity, capacity)
		}
		cfg.CapacityBytes = capacity
		return nil
	}
}

// WithBitDepth sets the initial storage width.
func WithBitDepth(bits int) Option {
	return func(cfg *Config) error {
		if delay.NearestBitDepth(bits) != bits {
			return fmt.Errorf("glitch bit depth must be one of %v: %d", delay.SupportedBitDepths(), bits)
		}
		cfg.BitDepth = bits
		return nil
	}
}

// WithCrossfadeSamples sets the seam crossfade length.
func WithCrossfadeSamples(samples int) Option {
	return func(cfg *Config) error {
		if samples < 1 || samples > maxCrossfadeSamples {
			return fmt.Errorf("glitch crossfade samples must be in [1, %d]: %d", maxCrossfadeSamples, samples)
		}
		cfg.CrossfadeSamples = samples
		return nil
	}
}

// WithWriteFadeSamples sets the writer fade armed by bit-depth changes.
func WithWriteFadeSamples(samples int) Option {
	return func(cfg *Config) error {
		if samples < 1 {
			return fmt.Errorf("glitch write fade samples must be >= 1: %d", samples)
		}
		cfg.WriteFadeSamples = samples
		return nil
	}
}

// WithMaxJitterSamples sets the loop start jitter range at jitter ratio 1.
func WithMaxJitterSamples(samples int) Option {
	return func(cfg *Config) error {
		if samples < 0 {
			return fmt.Errorf("glitch max jitter samples must be >= 0: %d", samples)
		}
		cfg.MaxJitterSamples = samples
		return nil
	}
}

// WithLoopRange sets the loop durations selected by loop size 0 and 1.
func WithLoopRange(minMillis, maxMillis float64) Option {
	return func(cfg *Config) error {
		if minMillis <= 0 || maxMillis < minMillis {
			return fmt.Errorf("glitch loop range must satisfy 0 < min <= max: [%f, %f]", minMillis, maxMillis)
		}
		cfg.MinLoopMillis = minMillis
		cfg.MaxLoopMillis = maxMillis
		return nil
	}
}

// WithHeadSpeeds sets the base speed of every head.
func WithHeadSpeeds(speeds [NumPlayHeads]float64) Option {
	return func(cfg *Config) error {
		for i, s := range speeds {
			if s == 0 || math.IsNaN(s) || math.Abs(s) > MaxAbsSpeed {
				return fmt.Errorf("glitch head %d speed must be non-zero with |speed| <= %g: %g", i, MaxAbsSpeed, s)
			}
		}
		cfg.HeadSpeeds = speeds
		return nil
	}
}

// WithSeed seeds the jitter generators.
func WithSeed(seed uint64) Option {
	return func(cfg *Config) error {
		cfg.Seed = seed
		return nil
	}
}

// WithCrossfadeCurve selects the seam crossfade weighting.
func WithCrossfadeCurve(c interp.Curve) Option {
	return func(cfg *Config) error {
		if _, err := interp.ParseCurve(c.String()); err != nil {
			return err
		}
		cfg.Curve = c
		return nil
	}
}

// Effect is the glitch delay engine: a sample store written by the input
// and read by NumPlayHeads heads whose outputs are summed.
//
// ProcessInput, ProcessOutput, ReadHeads and Commit belong to one audio
// goroutine. The Set* methods and TriggerBeat may be called concurrently
// from any goroutine; they only stage values for the next Commit.
type Effect struct {
	cfg Config

	buffer  *delay.Buffer
	heads   [NumPlayHeads]*PlayHead
	scratch [NumPlayHeads][]int16

	live    Params
	mu      sync.Mutex
	pending atomic.Pointer[Params]

	blocks  uint64
	clipped uint64
}

// New builds an Effect. All memory is allocated here.
func New(opts ...Option) (*Effect, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	// The widest samples leave the fewest elements.
	elements := cfg.CapacityBytes * 8 / 16
	if need := 8 * (cfg.CrossfadeSamples*int(MaxAbsSpeed) + 2); elements < need {
		return nil, fmt.Errorf("%w: %d bytes hold %d samples, crossfade of %d needs %d",
			delay.ErrCapacity, cfg.CapacityBytes, elements, cfg.CrossfadeSamples, need)
	}

	buf, err := delay.New(cfg.CapacityBytes,
		delay.WithBitDepth(cfg.BitDepth),
		delay.WithFadeLength(cfg.WriteFadeSamples))
	if err != nil {
		return nil, err
	}

	e := &Effect{cfg: cfg, buffer: buf}
	for i := range e.heads {
		h, err := NewPlayHead(buf, cfg.HeadSpeeds[i],
			WithHeadCrossfade(cfg.CrossfadeSamples),
			WithHeadMaxJitter(cfg.MaxJitterSamples),
			WithHeadSeed(cfg.Seed, uint64(i)),
			WithHeadCurve(cfg.Curve))
		if err != nil {
			return nil, fmt.Errorf("glitch head %d: %w", i, err)
		}
		e.heads[i] = h
		e.scratch[i] = make([]int16, cfg.BlockSize)
	}

	p := DefaultParams()
	p.BitDepth = cfg.BitDepth
	e.pending.Store(&p)
	e.apply(p, true)
	e.live = p
	return e, nil
}

// Config returns the construction parameters.
func (e *Effect) Config() Config { return e.cfg }

// Buffer returns the sample store. It must only be used from the audio
// goroutine.
func (e *Effect) Buffer() *delay.Buffer { return e.buffer }

// Head returns head i, or nil when i is out of range.
func (e *Effect) Head(i int) *PlayHead {
	if i < 0 || i >= NumPlayHeads {
		return nil
	}
	return e.heads[i]
}

// NumInputChannels returns the number of recorded channels.
func (e *Effect) NumInputChannels() int { return 1 }

// NumOutputChannels returns the number of produced channels.
func (e *Effect) NumOutputChannels() int { return 1 }

// ProcessInput records samples. Only channel 0 is recorded; other channels
// are ignored.
func (e *Effect) ProcessInput(channel int, samples []int16) {
	if channel != 0 {
		return
	}
	e.buffer.Write(samples)
}

// ProcessOutput fills out with the saturating sum of all heads. Channels
// other than 0 receive silence.
func (e *Effect) ProcessOutput(channel int, out []int16) {
	if channel != 0 {
		clear(out)
		return
	}

	for len(out) > 0 {
		n := min(len(out), e.cfg.BlockSize)
		for i, h := range e.heads {
			h.Read(e.scratch[i][:n])
		}
		for j := range out[:n] {
			var acc int32
			for i := range e.heads {
				acc += int32(e.scratch[i][j])
			}
			s := core.SaturateInt16(acc)
			if int32(s) != acc {
				e.clipped++
			}
			out[j] = s
		}
		out = out[n:]
	}
	e.blocks++
}

// ReadHeads fills dst[i] with the output of head i. All slices must have
// the same length. Channels other than 0 receive silence.
func (e *Effect) ReadHeads(channel int, dst *[NumPlayHeads][]int16) {
	if channel != 0 {
		for i := range dst {
			clear(dst[i])
		}
		return
	}
	for i, h := range e.heads {
		h.Read(dst[i])
	}
	e.blocks++
}

// Commit applies the staged parameters. It must be called by the audio
// goroutine between blocks.
func (e *Effect) Commit() {
	p := *e.pending.Load()
	if p == e.live {
		return
	}
	e.apply(p, false)
	e.live = p
}

// Reset clears the store and re-anchors every head. Staged parameters are
// kept.
func (e *Effect) Reset() {
	e.buffer.Reset()
	for _, h := range e.heads {
		h.rebase()
	}
	e.blocks = 0
	e.clipped = 0
}

func (e *Effect) apply(p Params, initial bool) {
	prev := e.live

	if p.BitDepth != e.buffer.BitDepth() {
		e.buffer.SetBitDepth(p.BitDepth)
		for _, h := range e.heads {
			h.Rebase()
		}
	}

	loop := e.loopSamples(p.LoopSize)
	for _, h := range e.heads {
		h.SetSpeed(p.SpeedRatio)
		h.SetLoopSize(loop)
		h.SetJitter(p.Jitter)
		h.SetLoopMoving(p.LoopMoving)
	}

	switch {
	case p.Looping && (initial || !prev.Looping):
		for _, h := range e.heads {
			e.startLoop(h, loop)
		}
	case !p.Looping && (initial || prev.Looping):
		for _, h := range e.heads {
			h.DisableLoop()
			h.SetAnchor(loop)
		}
	case !p.Looping && p.LoopSize != prev.LoopSize:
		for _, h := range e.heads {
			h.SetAnchor(loop)
		}
	}

	if !initial && p.Beat != prev.Beat {
		for _, h := range e.heads {
			h.Beat()
		}
	}
}

// startLoop puts h into looping mode with a window of duration output
// samples ending just behind the writer.
func (e *Effect) startLoop(h *PlayHead, duration int) {
	length := int(math.Round(float64(duration) * math.Abs(h.pendingSpeed())))
	length = min(length, e.buffer.Elements()-1)
	start := e.buffer.OffsetFromWrite(length)
	h.EnableLoop(start, e.buffer.Increment(start, length))
}

// loopSamples maps a loop size ratio onto a duration in output samples.
func (e *Effect) loopSamples(ratio float64) int {
	lo := float64(e.cfg.SamplesFromMillis(e.cfg.MinLoopMillis))
	hi := float64(e.cfg.SamplesFromMillis(e.cfg.MaxLoopMillis))
	return max(minLoopLength, int(math.Round(lo+unitRatio(ratio)*(hi-lo))))
}
