package control

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-glitch/dsp/core"
	"github.com/cwbudde/algo-glitch/dsp/delay"
	"github.com/cwbudde/algo-glitch/dsp/effects"
)

const (
	// DefaultHoldTime is how long the mode button must stay down to toggle
	// the reduced bit depth.
	DefaultHoldTime = 2 * time.Second
	// DefaultBeatFlash is how long the beat indicator stays lit.
	DefaultBeatFlash = 60 * time.Millisecond
	// DefaultReducedBitDepth is the storage width used while reduced.
	DefaultReducedBitDepth = 8

	axisEpsilon = 1e-3
)

// Target receives staged engine parameters. glitch.Effect and
// effects.GlitchDelay both satisfy it.
type Target interface {
	SetLoopSize(ratio float64)
	SetSpeed(ratio float64)
	SetJitter(ratio float64)
	SetLoopMoving(moving bool)
	SetLooping(looping bool)
	SetBitDepth(bits int)
	TriggerBeat()
	Commit()
}

// Mixer is implemented by targets that also take dry/wet and feedback
// amounts. Mix and feedback apply immediately, not on Commit.
type Mixer interface {
	SetMix(mix float64) error
	SetFeedback(feedback float64) error
}

// HeadMixer is implemented by targets with a per-head output gain. Gains
// apply immediately, not on Commit.
type HeadMixer interface {
	SetHeadGain(i int, gain float64) error
}

// ControllerOption mutates controller construction parameters.
type ControllerOption func(*controllerConfig) error

type controllerConfig struct {
	holdTime    time.Duration
	beatFlash   time.Duration
	reducedBits int
	fullBits    int
}

// WithHoldTime sets how long the mode button must be held to toggle the
// reduced bit depth.
func WithHoldTime(d time.Duration) ControllerOption {
	return func(cfg *controllerConfig) error {
		if d <= 0 {
			return fmt.Errorf("control hold time must be > 0: %s", d)
		}
		cfg.holdTime = d
		return nil
	}
}

// WithBeatFlash sets how long the beat indicator stays lit after a beat.
func WithBeatFlash(d time.Duration) ControllerOption {
	return func(cfg *controllerConfig) error {
		if d < 0 {
			return fmt.Errorf("control beat flash must be >= 0: %s", d)
		}
		cfg.beatFlash = d
		return nil
	}
}

// WithBitDepths sets the full and reduced storage widths the hold gesture
// switches between.
func WithBitDepths(full, reduced int) ControllerOption {
	return func(cfg *controllerConfig) error {
		if delay.NearestBitDepth(full) != full {
			return fmt.Errorf("control full bit depth unsupported: %d", full)
		}
		if delay.NearestBitDepth(reduced) != reduced {
			return fmt.Errorf("control reduced bit depth unsupported: %d", reduced)
		}
		cfg.fullBits = full
		cfg.reducedBits = reduced
		return nil
	}
}

// Controller maps a Surface onto a Target once per control tick. Tick must
// run on the goroutine that owns the engine, between audio blocks.
type Controller struct {
	surface Surface
	target  Target
	mixer   Mixer
	heads   HeadMixer
	cfg     controllerConfig

	synced bool
	axes   [NumAxes]float64
	down   [NumButtons]bool

	modePressedAt time.Duration
	holdFired     bool

	looping  bool
	moving   bool
	reduced  bool
	lastBeat time.Duration
	beats    uint64
}

// NewController binds a surface to a target. Targets that implement Mixer
// also follow the mix and feedback axes, and targets that implement
// HeadMixer follow the head mix axes.
func NewController(surface Surface, target Target, opts ...ControllerOption) (*Controller, error) {
	if surface == nil {
		return nil, fmt.Errorf("control surface must not be nil")
	}
	if target == nil {
		return nil, fmt.Errorf("control target must not be nil")
	}

	cfg := controllerConfig{
		holdTime:    DefaultHoldTime,
		beatFlash:   DefaultBeatFlash,
		reducedBits: DefaultReducedBitDepth,
		fullBits:    delay.DefaultBitDepth,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	c := &Controller{
		surface: surface,
		target:  target,
		cfg:     cfg,
		looping: true,
		moving:  true,
	}
	if m, ok := target.(Mixer); ok {
		c.mixer = m
	}
	if h, ok := target.(HeadMixer); ok {
		c.heads = h
	}
	return c, nil
}

// Looping reports whether the controller has loop playback selected.
func (c *Controller) Looping() bool { return c.looping }

// LoopMoving reports whether loops follow the writer.
func (c *Controller) LoopMoving() bool { return c.moving }

// ReducedBitDepth reports whether the reduced storage width is selected.
func (c *Controller) ReducedBitDepth() bool { return c.reduced }

// Beats returns how many beats the controller has forwarded.
func (c *Controller) Beats() uint64 { return c.beats }

// Beat forwards a beat that did not come from the surface, such as a clock.
func (c *Controller) Beat(now time.Duration) {
	c.target.TriggerBeat()
	c.lastBeat = now
	c.beats++
}

// Tick reads the surface, stages every changed value, commits and updates
// the indicators. now is the elapsed time of the audio stream.
func (c *Controller) Tick(now time.Duration) error {
	err := c.readAxes()
	c.readButtons(now)

	if !c.synced {
		c.target.SetLooping(c.looping)
		c.target.SetLoopMoving(c.moving)
		c.target.SetBitDepth(c.bitDepth())
		c.synced = true
	}

	c.target.Commit()
	c.drive(now)
	return err
}

func (c *Controller) readAxes() error {
	var err error
	for id := range NumAxes {
		v := c.surface.Axis(id)
		if math.IsNaN(v) {
			continue
		}
		v = core.Clamp(v, 0, 1)
		if c.synced && math.Abs(v-c.axes[id]) < axisEpsilon {
			continue
		}
		c.axes[id] = v

		switch id {
		case AxisLoopSize:
			c.target.SetLoopSize(v)
		case AxisSpeed:
			c.target.SetSpeed(SpeedFromAxis(v))
		case AxisJitter:
			c.target.SetJitter(v)
		case AxisNormalMix, AxisOctaveMix, AxisReverseMix:
			if c.heads != nil {
				if e := c.heads.SetHeadGain(int(id-AxisNormalMix), HeadGainFromAxis(v)); e != nil && err == nil {
					err = e
				}
			}
		case AxisMix:
			if c.mixer != nil {
				if e := c.mixer.SetMix(v); e != nil && err == nil {
					err = e
				}
			}
		case AxisFeedback:
			if c.mixer != nil {
				if e := c.mixer.SetFeedback(v * effects.MaxGlitchDelayFeedback); e != nil && err == nil {
					err = e
				}
			}
		}
	}
	return err
}

func (c *Controller) readButtons(now time.Duration) {
	var state [NumButtons]bool
	for id := range NumButtons {
		state[id] = c.surface.Button(id)
	}

	if state[ButtonBeat] && !c.down[ButtonBeat] {
		c.Beat(now)
	}

	if state[ButtonLoop] && !c.down[ButtonLoop] {
		c.looping = !c.looping
		c.target.SetLooping(c.looping)
	}

	switch mode := state[ButtonMode]; {
	case mode && !c.down[ButtonMode]:
		c.modePressedAt = now
		c.holdFired = false
	case mode && !c.holdFired && now-c.modePressedAt >= c.cfg.holdTime:
		c.holdFired = true
		c.reduced = !c.reduced
		c.target.SetBitDepth(c.bitDepth())
	case !mode && c.down[ButtonMode] && !c.holdFired:
		c.moving = !c.moving
		c.target.SetLoopMoving(c.moving)
	}

	c.down = state
}

func (c *Controller) drive(now time.Duration) {
	beat := 0.0
	if c.beats > 0 && now-c.lastBeat < c.cfg.beatFlash {
		beat = 1
	}
	c.surface.SetIndicator(IndicatorBeat, beat)
	c.surface.SetIndicator(IndicatorMoving, level(c.looping && c.moving))
	c.surface.SetIndicator(IndicatorFrozen, level(c.looping && !c.moving))
	c.surface.SetIndicator(IndicatorReducedBits, level(c.reduced))
}

func (c *Controller) bitDepth() int {
	if c.reduced {
		return c.cfg.reducedBits
	}
	return c.cfg.fullBits
}

// SpeedFromAxis maps [0, 1] onto the speed ratio range exponentially, with
// the centre at unit speed: 0 gives 1/8 and 1 gives 4.
func SpeedFromAxis(v float64) float64 {
	v = core.Clamp(v, 0, 1)
	if v < 0.5 {
		return math.Exp2(-3 * (1 - 2*v))
	}
	return math.Exp2(2 * (2*v - 1))
}

// AxisFromSpeed inverts SpeedFromAxis.
func AxisFromSpeed(ratio float64) float64 {
	if !(ratio > 0) {
		return 0
	}
	e := math.Log2(ratio)
	if e < 0 {
		return core.Clamp(0.5+e/6, 0, 1)
	}
	return core.Clamp(0.5+e/4, 0, 1)
}

// HeadGainFromAxis maps [0, 1] linearly onto the head gain range, so the
// centre gives unit gain.
func HeadGainFromAxis(v float64) float64 {
	return core.Clamp(v, 0, 1) * effects.MaxGlitchDelayHeadGain
}

// AxisFromHeadGain inverts HeadGainFromAxis.
func AxisFromHeadGain(gain float64) float64 {
	if math.IsNaN(gain) {
		return 0
	}
	return core.Clamp(gain/effects.MaxGlitchDelayHeadGain, 0, 1)
}

func level(on bool) float64 {
	if on {
		return 1
	}
	return 0
}
