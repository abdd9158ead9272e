package control

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-glitch/dsp/effects"
	"github.com/cwbudde/algo-glitch/dsp/glitch"
)

type recordingTarget struct {
	loopSize, speed, jitter float64
	moving, looping         bool
	bits                    int
	beats, commits          int
	calls                   int
}

func (r *recordingTarget) SetLoopSize(v float64) { r.loopSize = v; r.calls++ }
func (r *recordingTarget) SetSpeed(v float64)    { r.speed = v; r.calls++ }
func (r *recordingTarget) SetJitter(v float64)   { r.jitter = v; r.calls++ }
func (r *recordingTarget) SetLoopMoving(v bool)  { r.moving = v; r.calls++ }
func (r *recordingTarget) SetLooping(v bool)     { r.looping = v; r.calls++ }
func (r *recordingTarget) SetBitDepth(bits int)  { r.bits = bits; r.calls++ }
func (r *recordingTarget) TriggerBeat()          { r.beats++ }
func (r *recordingTarget) Commit()               { r.commits++ }

type mixingTarget struct {
	recordingTarget
	mix, feedback float64
}

func (m *mixingTarget) SetMix(v float64) error      { m.mix = v; return nil }
func (m *mixingTarget) SetFeedback(v float64) error { m.feedback = v; return nil }

type headMixingTarget struct {
	recordingTarget
	gains [glitch.NumPlayHeads]float64
	sets  int
}

func (h *headMixingTarget) SetHeadGain(i int, gain float64) error {
	if i < 0 || i >= len(h.gains) {
		return fmt.Errorf("head %d out of range", i)
	}
	h.gains[i] = gain
	h.sets++
	return nil
}

const tick = 10 * time.Millisecond

func newTestController(t *testing.T, target Target, opts ...ControllerOption) (*Controller, *Panel) {
	t.Helper()
	p := NewPanel(0.5, 0)
	c, err := NewController(p, target, opts...)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	return c, p
}

func TestNewControllerValidation(t *testing.T) {
	p := NewPanel(0.5, 0)
	if _, err := NewController(nil, &recordingTarget{}); err == nil {
		t.Fatal("expected error for nil surface")
	}
	if _, err := NewController(p, nil); err == nil {
		t.Fatal("expected error for nil target")
	}
	for _, opt := range []ControllerOption{
		WithHoldTime(0),
		WithBeatFlash(-time.Millisecond),
		WithBitDepths(16, 7),
		WithBitDepths(9, 8),
	} {
		if _, err := NewController(p, &recordingTarget{}, opt); err == nil {
			t.Fatal("expected option error")
		}
	}
}

func TestFirstTickSyncsEverything(t *testing.T) {
	target := &recordingTarget{}
	c, p := newTestController(t, target)
	p.SetAxis(AxisLoopSize, 0.25)
	p.SetAxis(AxisJitter, 0.75)

	if err := c.Tick(0); err != nil {
		t.Fatal(err)
	}
	if target.loopSize != 0.25 || target.jitter != 0.75 || target.speed != 1 {
		t.Fatalf("axes not forwarded: %+v", target)
	}
	if !target.looping || !target.moving || target.bits != 16 {
		t.Fatalf("modes not forwarded: %+v", target)
	}
	if target.commits != 1 {
		t.Fatalf("commits=%d, want 1", target.commits)
	}
}

func TestUnchangedAxesAreNotForwarded(t *testing.T) {
	target := &recordingTarget{}
	c, p := newTestController(t, target)
	_ = c.Tick(0)
	before := target.calls

	for i := 1; i <= 10; i++ {
		_ = c.Tick(time.Duration(i) * tick)
	}
	if target.calls != before {
		t.Fatalf("idle ticks staged %d values", target.calls-before)
	}
	if target.commits != 11 {
		t.Fatalf("commits=%d, want 11", target.commits)
	}

	p.SetAxis(AxisSpeed, 1)
	_ = c.Tick(11 * tick)
	if target.calls != before+1 || target.speed != 4 {
		t.Fatalf("speed change: calls=%d speed=%f", target.calls-before, target.speed)
	}
}

func TestSpeedFromAxis(t *testing.T) {
	tests := []struct {
		axis, want float64
	}{
		{0, glitch.MinSpeedRatio},
		{0.5, 1},
		{1, glitch.MaxSpeedRatio},
		{0.75, 2},
		{-1, glitch.MinSpeedRatio},
	}
	for _, tt := range tests {
		if got := SpeedFromAxis(tt.axis); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("SpeedFromAxis(%f)=%f, want %f", tt.axis, got, tt.want)
		}
	}
	prev := 0.0
	for i := 0; i <= 100; i++ {
		got := SpeedFromAxis(float64(i) / 100)
		if got <= prev {
			t.Fatalf("not increasing at %d: %f <= %f", i, got, prev)
		}
		prev = got
	}
}

func TestAxisFromSpeedInverts(t *testing.T) {
	for _, v := range []float64{0, 0.1, 0.3, 0.5, 0.6, 0.9, 1} {
		if got := AxisFromSpeed(SpeedFromAxis(v)); math.Abs(got-v) > 1e-12 {
			t.Fatalf("AxisFromSpeed(SpeedFromAxis(%f))=%f", v, got)
		}
	}
	if AxisFromSpeed(0) != 0 || AxisFromSpeed(100) != 1 {
		t.Fatal("out of range speeds should clamp")
	}
}

func TestBeatButtonFiresOnPress(t *testing.T) {
	target := &recordingTarget{}
	c, p := newTestController(t, target)

	p.Press(ButtonBeat)
	for i := range 10 {
		_ = c.Tick(time.Duration(i) * tick)
	}
	if target.beats != 1 {
		t.Fatalf("held beat fired %d times, want 1", target.beats)
	}
	if p.Indicator(IndicatorBeat) != 0 {
		t.Fatal("beat indicator should be dark after the flash")
	}

	p.Release(ButtonBeat)
	_ = c.Tick(10 * tick)
	p.Tap(ButtonBeat)
	_ = c.Tick(11 * tick)
	if target.beats != 2 || c.Beats() != 2 {
		t.Fatalf("beats=%d, want 2", target.beats)
	}
	if p.Indicator(IndicatorBeat) != 1 {
		t.Fatal("beat indicator should flash")
	}
}

func TestModeShortPressTogglesMoving(t *testing.T) {
	target := &recordingTarget{}
	c, p := newTestController(t, target)
	_ = c.Tick(0)

	p.Tap(ButtonMode)
	_ = c.Tick(tick)
	_ = c.Tick(2 * tick)

	if c.LoopMoving() || target.moving {
		t.Fatal("short press should freeze loops")
	}
	if c.ReducedBitDepth() {
		t.Fatal("short press must not touch the bit depth")
	}
	if p.Indicator(IndicatorFrozen) != 1 || p.Indicator(IndicatorMoving) != 0 {
		t.Fatal("mode indicators not updated")
	}
}

func TestModeHoldTogglesBitDepth(t *testing.T) {
	target := &recordingTarget{}
	c, p := newTestController(t, target)
	_ = c.Tick(0)

	p.Press(ButtonMode)
	now := tick
	for ; now < DefaultHoldTime; now += tick {
		_ = c.Tick(now)
		if c.ReducedBitDepth() {
			t.Fatalf("toggled early at %s", now)
		}
	}
	for ; now < DefaultHoldTime+time.Second; now += tick {
		_ = c.Tick(now)
	}
	if !c.ReducedBitDepth() || target.bits != DefaultReducedBitDepth {
		t.Fatalf("hold did not reduce bit depth: bits=%d", target.bits)
	}
	if p.Indicator(IndicatorReducedBits) != 1 {
		t.Fatal("reduced bit depth indicator not lit")
	}

	p.Release(ButtonMode)
	_ = c.Tick(now)
	if !c.LoopMoving() {
		t.Fatal("release after a hold must not toggle moving")
	}

	p.Press(ButtonMode)
	start := now + tick
	for now = start; now <= start+DefaultHoldTime; now += tick {
		_ = c.Tick(now)
	}
	if c.ReducedBitDepth() || target.bits != 16 {
		t.Fatalf("second hold should restore full depth: bits=%d", target.bits)
	}
}

func TestLoopButtonTogglesLooping(t *testing.T) {
	target := &recordingTarget{}
	c, p := newTestController(t, target)
	_ = c.Tick(0)

	p.Tap(ButtonLoop)
	_ = c.Tick(tick)
	if c.Looping() || target.looping {
		t.Fatal("loop button should switch to free run")
	}
	if p.Indicator(IndicatorMoving) != 0 || p.Indicator(IndicatorFrozen) != 0 {
		t.Fatal("mode indicators should be dark in free run")
	}
}

func TestMixerAxes(t *testing.T) {
	target := &mixingTarget{}
	c, p := newTestController(t, target)
	p.SetAxis(AxisMix, 0.3)
	p.SetAxis(AxisFeedback, 1)
	if err := c.Tick(0); err != nil {
		t.Fatal(err)
	}
	if target.mix != 0.3 {
		t.Fatalf("mix=%f, want 0.3", target.mix)
	}
	if target.feedback != effects.MaxGlitchDelayFeedback {
		t.Fatalf("feedback=%f, want %f", target.feedback, effects.MaxGlitchDelayFeedback)
	}
}

func TestHeadMixAxes(t *testing.T) {
	target := &headMixingTarget{}
	c, p := newTestController(t, target)
	if err := c.Tick(0); err != nil {
		t.Fatal(err)
	}
	if target.gains != effects.DefaultGlitchDelayHeadGains {
		t.Fatalf("initial gains=%v, want %v", target.gains, effects.DefaultGlitchDelayHeadGains)
	}

	p.SetAxis(AxisReverseMix, 0.5)
	p.SetAxis(AxisOctaveMix, 0)
	sets := target.sets
	if err := c.Tick(tick); err != nil {
		t.Fatal(err)
	}
	if target.gains[1] != 0 || target.gains[2] != 1 || target.gains[0] != effects.DefaultGlitchDelayHeadGains[0] {
		t.Fatalf("gains=%v, want [%v 0 1]", target.gains, effects.DefaultGlitchDelayHeadGains[0])
	}
	if target.sets-sets != 2 {
		t.Fatalf("forwarded %d head gains, want only the 2 that moved", target.sets-sets)
	}
}

func TestHeadGainAxisMapping(t *testing.T) {
	if HeadGainFromAxis(0.5) != 1 || HeadGainFromAxis(1) != effects.MaxGlitchDelayHeadGain || HeadGainFromAxis(-1) != 0 {
		t.Fatal("unexpected head gain mapping")
	}
	for _, g := range []float64{0, 0.35, 1, 2} {
		if got := HeadGainFromAxis(AxisFromHeadGain(g)); math.Abs(got-g) > 1e-12 {
			t.Fatalf("HeadGainFromAxis(AxisFromHeadGain(%f))=%f", g, got)
		}
	}
	if AxisFromHeadGain(math.NaN()) != 0 || AxisFromHeadGain(9) != 1 {
		t.Fatal("AxisFromHeadGain should clamp")
	}
}

func TestControllerDrivesGlitchDelay(t *testing.T) {
	gd, err := effects.NewGlitchDelay(44100)
	if err != nil {
		t.Fatal(err)
	}
	c, p := newTestController(t, gd)
	p.SetAxis(AxisLoopSize, 0.1)
	p.SetAxis(AxisSpeed, 0.75)
	p.SetAxis(AxisMix, 0.8)
	if err := c.Tick(0); err != nil {
		t.Fatal(err)
	}

	live := gd.Params()
	if live.LoopSize != 0.1 || math.Abs(live.SpeedRatio-2) > 1e-12 {
		t.Fatalf("params not committed: %+v", live)
	}
	if gd.Mix() != 0.8 {
		t.Fatalf("mix=%f, want 0.8", gd.Mix())
	}
	if gd.HeadGain(2) != effects.DefaultGlitchDelayHeadGains[2] {
		t.Fatalf("reverse gain=%f, want default %f", gd.HeadGain(2), effects.DefaultGlitchDelayHeadGains[2])
	}

	p.SetAxis(AxisReverseMix, 0.75)
	if err := c.Tick(tick); err != nil {
		t.Fatal(err)
	}
	if gd.HeadGain(2) != 1.5 {
		t.Fatalf("reverse gain=%f, want 1.5", gd.HeadGain(2))
	}
}

// --- panel ---

func TestPanelClampsAndIgnoresUnknown(t *testing.T) {
	p := NewPanel(0.25, 0.5)
	if p.Axis(AxisMix) != 0.25 || p.Axis(AxisFeedback) != 0.5 || p.Axis(AxisJitter) != 0 {
		t.Fatal("initial axes wrong")
	}
	p.SetAxis(AxisLoopSize, 2)
	if p.Axis(AxisLoopSize) != 1 {
		t.Fatal("axis not clamped")
	}
	if got := p.Nudge(AxisLoopSize, -0.25); got != 0.75 {
		t.Fatalf("Nudge()=%f, want 0.75", got)
	}
	p.SetAxis(NumAxes, 1)
	if p.Axis(NumAxes) != 0 || p.Button(NumButtons) || p.Indicator(NumIndicators) != 0 {
		t.Fatal("unknown ids should read as zero")
	}
	if AxisSpeed.String() != "speed" || ButtonMode.String() != "mode" || IndicatorReducedBits.String() != "bits" {
		t.Fatal("unexpected names")
	}
}

func TestPanelTapsAreConsumed(t *testing.T) {
	p := NewPanel(0.5, 0)
	p.Tap(ButtonBeat)
	if !p.Button(ButtonBeat) {
		t.Fatal("tap not visible")
	}
	if p.Button(ButtonBeat) {
		t.Fatal("tap read twice")
	}
}

func TestPanelConcurrentAccess(t *testing.T) {
	p := NewPanel(0.5, 0)
	var wg sync.WaitGroup
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				p.SetAxis(AxisID(g%int(NumAxes)), float64(i)/1000)
				p.Tap(ButtonBeat)
				_ = p.Button(ButtonBeat)
				p.SetIndicator(IndicatorBeat, float64(i%2))
			}
		}()
	}
	wg.Wait()
	if l := p.Indicator(IndicatorBeat); l != 0 && l != 1 {
		t.Fatalf("indicator=%f, want 0 or 1", l)
	}
}
