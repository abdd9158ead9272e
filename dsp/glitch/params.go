package glitch

import (
	"math"

	"github.com/cwbudde/algo-glitch/dsp/core"
	"github.com/cwbudde/algo-glitch/dsp/delay"
)

// Params is one complete set of control values. The engine holds a live
// copy and a pending copy; setters only ever touch the pending one.
type Params struct {
	// BitDepth is the storage width, one of delay.SupportedBitDepths.
	BitDepth int
	// SpeedRatio scales every head's base speed.
	SpeedRatio float64
	// LoopSize in [0, 1] maps onto the configured loop duration range. In
	// free run it sets the delay time instead.
	LoopSize float64
	// Jitter in [0, 1] scales the random loop start offset.
	Jitter float64
	// LoopMoving selects windows that follow the writer.
	LoopMoving bool
	// Looping selects loop playback; false runs the heads as plain delay
	// taps.
	Looping bool
	// Beat counts beat triggers. Any change since the last commit
	// re-evaluates every head once.
	Beat uint64
}

// DefaultParams returns the power-on control values.
func DefaultParams() Params {
	return Params{
		BitDepth:   delay.DefaultBitDepth,
		SpeedRatio: 1,
		LoopSize:   0.5,
		LoopMoving: true,
		Looping:    true,
	}
}

// unitRatio clamps v to [0, 1], mapping NaN to 0.
func unitRatio(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return core.Clamp(v, 0, 1)
}

// SetBitDepth stages a new storage width, clamped to the nearest supported
// value.
func (e *Effect) SetBitDepth(bits int) {
	bits = delay.NearestBitDepth(bits)
	e.update(func(p *Params) { p.BitDepth = bits })
}

// SetSpeed stages a new speed ratio, clamped to [MinSpeedRatio,
// MaxSpeedRatio].
func (e *Effect) SetSpeed(ratio float64) {
	if math.IsNaN(ratio) {
		return
	}
	ratio = core.Clamp(ratio, MinSpeedRatio, MaxSpeedRatio)
	e.update(func(p *Params) { p.SpeedRatio = ratio })
}

// SetLoopSize stages a new loop size ratio in [0, 1].
func (e *Effect) SetLoopSize(ratio float64) {
	ratio = unitRatio(ratio)
	e.update(func(p *Params) { p.LoopSize = ratio })
}

// SetJitter stages a new jitter ratio in [0, 1].
func (e *Effect) SetJitter(ratio float64) {
	ratio = unitRatio(ratio)
	e.update(func(p *Params) { p.Jitter = ratio })
}

// SetLoopMoving stages whether loop windows follow the writer.
func (e *Effect) SetLoopMoving(moving bool) {
	e.update(func(p *Params) { p.LoopMoving = moving })
}

// SetLooping stages loop playback (true) or free-running delay taps.
func (e *Effect) SetLooping(looping bool) {
	e.update(func(p *Params) { p.Looping = looping })
}

// TriggerBeat stages a beat. Several beats before one commit count once.
func (e *Effect) TriggerBeat() {
	e.update(func(p *Params) { p.Beat++ })
}

// Pending returns a copy of the staged parameters.
func (e *Effect) Pending() Params { return *e.pending.Load() }

// Params returns the parameters applied by the last Commit.
func (e *Effect) Params() Params { return e.live }

// update copies the pending snapshot, edits the copy and publishes it.
func (e *Effect) update(fn func(*Params)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := *e.pending.Load()
	fn(&next)
	e.pending.Store(&next)
}
