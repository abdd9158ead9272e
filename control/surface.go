package control

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-glitch/dsp/core"
	"github.com/cwbudde/algo-glitch/dsp/effects"
)

// AxisID names a continuous control in [0, 1].
type AxisID int

const (
	AxisLoopSize AxisID = iota
	AxisSpeed
	AxisJitter
	// AxisNormalMix, AxisOctaveMix and AxisReverseMix set the output gain
	// of the play head with the same index.
	AxisNormalMix
	AxisOctaveMix
	AxisReverseMix
	AxisMix
	AxisFeedback
	NumAxes
)

var axisNames = [NumAxes]string{"loop", "speed", "jitter", "normal", "octave", "reverse", "mix", "feedback"}

func (a AxisID) String() string {
	if a < 0 || a >= NumAxes {
		return "unknown"
	}
	return axisNames[a]
}

// ButtonID names a momentary push button.
type ButtonID int

const (
	// ButtonBeat fires a beat on press.
	ButtonBeat ButtonID = iota
	// ButtonMode switches between moving and frozen loops on a short press
	// and toggles the reduced bit depth when held.
	ButtonMode
	// ButtonLoop switches between loop playback and free-running taps.
	ButtonLoop
	NumButtons
)

var buttonNames = [NumButtons]string{"beat", "mode", "loop"}

func (b ButtonID) String() string {
	if b < 0 || b >= NumButtons {
		return "unknown"
	}
	return buttonNames[b]
}

// IndicatorID names an LED-style output with a level in [0, 1].
type IndicatorID int

const (
	IndicatorBeat IndicatorID = iota
	IndicatorMoving
	IndicatorFrozen
	IndicatorReducedBits
	NumIndicators
)

var indicatorNames = [NumIndicators]string{"beat", "moving", "frozen", "bits"}

func (i IndicatorID) String() string {
	if i < 0 || i >= NumIndicators {
		return "unknown"
	}
	return indicatorNames[i]
}

// Surface is the capability set a physical or virtual front panel offers.
// Unknown IDs read as zero or released and ignore writes.
type Surface interface {
	Axis(id AxisID) float64
	Button(id ButtonID) bool
	SetIndicator(id IndicatorID, level float64)
}

// Panel is an in-memory Surface. Every method is safe for concurrent use, so
// a UI goroutine can move controls while the audio goroutine reads them.
type Panel struct {
	axes       [NumAxes]atomic.Uint64
	held       [NumButtons]atomic.Bool
	taps       [NumButtons]atomic.Int32
	indicators [NumIndicators]atomic.Uint64
}

// NewPanel returns a panel with every axis at its centre, except jitter at
// zero, the head mixes at the default head gains, and mix and feedback
// which follow the given initial values.
func NewPanel(mix, feedback float64) *Panel {
	p := &Panel{}
	for i := range p.axes {
		p.SetAxis(AxisID(i), 0.5)
	}
	p.SetAxis(AxisJitter, 0)
	for i, g := range effects.DefaultGlitchDelayHeadGains {
		p.SetAxis(AxisNormalMix+AxisID(i), AxisFromHeadGain(g))
	}
	p.SetAxis(AxisMix, mix)
	p.SetAxis(AxisFeedback, feedback)
	return p
}

// SetAxis moves a control, clamped to [0, 1].
func (p *Panel) SetAxis(id AxisID, v float64) {
	if id < 0 || id >= NumAxes || math.IsNaN(v) {
		return
	}
	p.axes[id].Store(math.Float64bits(core.Clamp(v, 0, 1)))
}

// Nudge moves a control by delta and returns the new value.
func (p *Panel) Nudge(id AxisID, delta float64) float64 {
	p.SetAxis(id, p.Axis(id)+delta)
	return p.Axis(id)
}

// Axis implements Surface.
func (p *Panel) Axis(id AxisID) float64 {
	if id < 0 || id >= NumAxes {
		return 0
	}
	return math.Float64frombits(p.axes[id].Load())
}

// Press holds a button down until Release.
func (p *Panel) Press(id ButtonID) {
	if id >= 0 && id < NumButtons {
		p.held[id].Store(true)
	}
}

// Release lets go of a held button.
func (p *Panel) Release(id ButtonID) {
	if id >= 0 && id < NumButtons {
		p.held[id].Store(false)
	}
}

// Tap queues a short press: the button reads as down for exactly one read
// per tap.
func (p *Panel) Tap(id ButtonID) {
	if id >= 0 && id < NumButtons {
		p.taps[id].Add(1)
	}
}

// Held reports whether a button is held with Press.
func (p *Panel) Held(id ButtonID) bool {
	if id < 0 || id >= NumButtons {
		return false
	}
	return p.held[id].Load()
}

// Button implements Surface. A queued tap is consumed by the read.
func (p *Panel) Button(id ButtonID) bool {
	if id < 0 || id >= NumButtons {
		return false
	}
	if p.held[id].Load() {
		return true
	}
	for {
		n := p.taps[id].Load()
		if n <= 0 {
			return false
		}
		if p.taps[id].CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// SetIndicator implements Surface.
func (p *Panel) SetIndicator(id IndicatorID, level float64) {
	if id < 0 || id >= NumIndicators || math.IsNaN(level) {
		return
	}
	p.indicators[id].Store(math.Float64bits(core.Clamp(level, 0, 1)))
}

// Indicator returns the last level written to an indicator.
func (p *Panel) Indicator(id IndicatorID) float64 {
	if id < 0 || id >= NumIndicators {
		return 0
	}
	return math.Float64frombits(p.indicators[id].Load())
}
