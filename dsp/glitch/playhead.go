package glitch

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-glitch/dsp/core"
	"github.com/cwbudde/algo-glitch/dsp/delay"
	"github.com/cwbudde/algo-glitch/dsp/interp"
)

const (
	// MinSpeedRatio and MaxSpeedRatio bound the speed multiplier applied on
	// top of a head's base speed.
	MinSpeedRatio = 0.125
	MaxSpeedRatio = 4.0

	// MaxAbsSpeed bounds |base speed x speed ratio|.
	MaxAbsSpeed = 8.0

	minLoopLength = 2
)

// Mode is the playback mode of a PlayHead.
type Mode int

const (
	// FreeRun taps the store at a fixed distance behind the write position.
	FreeRun Mode = iota
	// Looping repeats a window of the store.
	Looping
)

func (m Mode) String() string {
	switch m {
	case FreeRun:
		return "free-run"
	case Looping:
		return "looping"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// HeadOption mutates PlayHead construction parameters.
type HeadOption func(*headConfig) error

type headConfig struct {
	crossfade int
	maxJitter int
	seed      uint64
	stream    uint64
	curve     interp.Curve
}

// WithHeadCrossfade sets the crossfade length in output samples, >= 1.
func WithHeadCrossfade(samples int) HeadOption {
	return func(cfg *headConfig) error {
		if samples < 1 {
			return fmt.Errorf("play head crossfade must be >= 1: %d", samples)
		}
		cfg.crossfade = samples
		return nil
	}
}

// WithHeadMaxJitter sets the jitter range in samples at jitter ratio 1.
func WithHeadMaxJitter(samples int) HeadOption {
	return func(cfg *headConfig) error {
		if samples < 0 {
			return fmt.Errorf("play head max jitter must be >= 0: %d", samples)
		}
		cfg.maxJitter = samples
		return nil
	}
}

// WithHeadSeed seeds the jitter generator. Heads sharing a seed should use
// distinct streams.
func WithHeadSeed(seed, stream uint64) HeadOption {
	return func(cfg *headConfig) error {
		cfg.seed = seed
		cfg.stream = stream
		return nil
	}
}

// WithHeadCurve selects the crossfade weighting.
func WithHeadCurve(c interp.Curve) HeadOption {
	return func(cfg *headConfig) error {
		if _, err := interp.ParseCurve(c.String()); err != nil {
			return err
		}
		cfg.curve = c
		return nil
	}
}

// PlayHead is a read cursor into a delay.Buffer.
//
// In free run it follows the writer at a fixed anchor distance. In looping
// mode it repeats a window [LoopStart, LoopEnd) and, each time it crosses the
// end of the window in its playback direction, commits any pending loop
// size, speed and jitter and places the next window relative to the current
// write position. Every jump of the read position is hidden behind a
// crossfade from the old trajectory to the new one.
//
// PlayHead is real-time safe (no allocations after construction) and not
// thread-safe; it belongs to the goroutine that writes the buffer.
type PlayHead struct {
	buf   *delay.Buffer
	curve interp.Curve
	rng   *rand.Rand

	baseSpeed  float64
	speedRatio float64
	speed      float64
	outSpeed   float64

	position    float64
	destination float64

	fadeLength    int
	fadeRemaining int

	// held is the last output before a rebase, faded out over
	// holdRemaining samples.
	last          int16
	held          int16
	holdRemaining int

	mode       Mode
	loopMoving bool
	anchor     int
	jump       bool
	lastBlock  int

	loopStart           int
	loopEnd             int
	loopLength          int
	loopDuration        float64
	unjitteredLoopStart int

	nextLoopDuration float64
	nextSpeedRatio   float64
	jitterRatio      float64
	maxJitter        int

	initialCrossfadeDone bool
	commits              uint64
}

// NewPlayHead returns a free-running head over buf with the given base
// speed, anchored one crossfade tail behind the write position.
func NewPlayHead(buf *delay.Buffer, baseSpeed float64, opts ...HeadOption) (*PlayHead, error) {
	if buf == nil {
		return nil, fmt.Errorf("play head buffer must not be nil")
	}
	if baseSpeed == 0 || math.IsNaN(baseSpeed) || math.Abs(baseSpeed) > MaxAbsSpeed {
		return nil, fmt.Errorf("play head base speed must be non-zero with |speed| <= %g: %g",
			MaxAbsSpeed, baseSpeed)
	}

	cfg := headConfig{
		crossfade: DefaultCrossfadeSamples,
		maxJitter: DefaultMaxJitterSamples,
		seed:      DefaultSeed,
		curve:     interp.CurveLinear,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	h := &PlayHead{
		buf:            buf,
		curve:          cfg.curve,
		rng:            rand.New(rand.NewPCG(cfg.seed, cfg.stream)),
		baseSpeed:      baseSpeed,
		speedRatio:     1,
		nextSpeedRatio: 1,
		speed:          baseSpeed,
		outSpeed:       baseSpeed,
		fadeLength:     cfg.crossfade,
		maxJitter:      cfg.maxJitter,
		loopMoving:     true,
	}
	h.anchor = buf.ClampOffset(h.tail())
	h.position = float64(buf.OffsetFromWrite(h.anchor))
	h.destination = h.position
	h.loopLength = h.clampLoopLength(minLoopLength)
	h.loopDuration = float64(h.loopLength) / math.Abs(h.speed)
	return h, nil
}

// --- accessors ---

// Position returns the current (outgoing, while crossfading) read position.
func (h *PlayHead) Position() float64 { return h.position }

// Destination returns the position of the incoming trajectory while a
// crossfade is active, and Position otherwise.
func (h *PlayHead) Destination() float64 {
	if h.fadeRemaining > 0 {
		return h.destination
	}
	return h.position
}

// Speed returns the signed playback speed in buffer samples per output
// sample.
func (h *PlayHead) Speed() float64 { return h.speed }

// BaseSpeed returns the speed at speed ratio 1.
func (h *PlayHead) BaseSpeed() float64 { return h.baseSpeed }

// Mode returns the playback mode.
func (h *PlayHead) Mode() Mode { return h.mode }

// Looping reports whether the head repeats a loop window.
func (h *PlayHead) Looping() bool { return h.mode == Looping }

// LoopStart returns the first position of the loop window.
func (h *PlayHead) LoopStart() int { return h.loopStart }

// LoopEnd returns the exclusive end of the loop window.
func (h *PlayHead) LoopEnd() int { return h.loopEnd }

// UnjitteredLoopStart returns where the window would start without jitter.
func (h *PlayHead) UnjitteredLoopStart() int { return h.unjitteredLoopStart }

// LoopLength returns the window length in buffer samples.
func (h *PlayHead) LoopLength() int { return h.loopLength }

// CrossfadeLength returns the configured crossfade length.
func (h *PlayHead) CrossfadeLength() int { return h.fadeLength }

// FadeRemaining returns the output samples left in the active crossfade.
func (h *PlayHead) FadeRemaining() int { return h.fadeRemaining }

// Commits returns how many loop commits the head has performed.
func (h *PlayHead) Commits() uint64 { return h.commits }

// Anchor returns the free-run distance behind the write position.
func (h *PlayHead) Anchor() int { return h.anchor }

// --- predicates ---

// CrossfadeActive reports whether two trajectories are currently blended.
func (h *PlayHead) CrossfadeActive() bool { return h.fadeRemaining > 0 }

// InitialCrossfadeDone reports whether the head has completed a crossfade
// since it entered looping mode.
func (h *PlayHead) InitialCrossfadeDone() bool { return h.initialCrossfadeDone }

// InsideSection reports whether pos lies in the ring section [start, end).
// A section with start == end is empty.
func (h *PlayHead) InsideSection(pos float64, start, end int) bool {
	r := h.buf.Ring()
	return r.Ahead(float64(start), pos) < r.Ahead(float64(start), float64(end))
}

// InsideNextRead reports whether pos will be passed by the next n samples of
// playback on the active trajectory.
func (h *PlayHead) InsideNextRead(pos float64, n int) bool {
	r := h.buf.Ring()
	span := math.Abs(h.speed) * float64(n)
	if h.speed > 0 {
		return r.Ahead(h.active(), pos) <= span
	}
	return r.Ahead(pos, h.active()) <= span
}

// WillCrossLoopBoundary reports whether the next n samples of playback
// reach the end of the loop window in the playback direction.
func (h *PlayHead) WillCrossLoopBoundary(n int) bool {
	if h.mode != Looping {
		return false
	}
	phase := h.phase()
	if phase >= float64(h.loopLength) {
		return true
	}
	next := phase + h.speed*float64(n)
	if h.speed > 0 {
		return next >= float64(h.loopLength)
	}
	return next < 0
}

// WillReachWriteHead reports whether free running for n samples, followed
// by a full crossfade, would bring the head closer than the interpolation
// guard to the write position or past the oldest stored sample. It assumes
// the writer advances one sample per output sample after this block.
func (h *PlayHead) WillReachWriteHead(n int) bool {
	fade := float64(h.fadeLength)
	behind := h.buf.Behind(h.active())
	nearest := behind - math.Max(h.speed, 0)*float64(n) - math.Max(h.speed-1, 0)*fade
	farthest := behind + math.Max(1-h.speed, 0)*float64(n+h.fadeLength) + float64(n)
	return nearest < 2 || farthest > float64(h.buf.Elements()-1)
}

// --- control ---

// SetLoopSize stages a new loop duration in output samples. It takes effect
// at the next commit.
func (h *PlayHead) SetLoopSize(samples int) {
	if samples < minLoopLength {
		samples = minLoopLength
	}
	h.nextLoopDuration = float64(samples)
}

// SetSpeed stages a new speed ratio, clamped to [MinSpeedRatio,
// MaxSpeedRatio]. It takes effect at the next commit when looping or at the
// next block in free run.
func (h *PlayHead) SetSpeed(ratio float64) {
	if math.IsNaN(ratio) {
		return
	}
	h.nextSpeedRatio = core.Clamp(ratio, MinSpeedRatio, MaxSpeedRatio)
}

// SetJitter sets the jitter ratio in [0, 1] used by subsequent commits.
func (h *PlayHead) SetJitter(ratio float64) {
	if math.IsNaN(ratio) {
		return
	}
	h.jitterRatio = core.Clamp(ratio, 0, 1)
}

// SetLoopMoving selects whether each committed window follows the writer
// (true) or stays where it is until the writer is about to overrun it.
func (h *PlayHead) SetLoopMoving(moving bool) { h.loopMoving = moving }

// LoopMoving reports whether committed windows follow the writer.
func (h *PlayHead) LoopMoving() bool { return h.loopMoving }

// SetAnchor moves the head to offset samples behind the write position
// through a crossfade. When looping, the window is re-placed to start there
// immediately; in free run the jump happens at the start of the next Read,
// moved closer or farther if the head could not otherwise play a whole
// block and crossfade from there.
func (h *PlayHead) SetAnchor(offset int) {
	h.anchor = h.buf.ClampOffset(offset)
	if h.mode != Looping {
		h.jump = true
		return
	}

	guard := h.tail()
	startBehind := h.anchor
	if lo := guard + h.loopLength; startBehind < lo {
		startBehind = lo
	}
	if hi := h.maxStartBehind(); startBehind > hi {
		startBehind = hi
	}
	h.placeWindow(startBehind, 0)
	h.transitionTo(h.entry(0))
}

// EnableLoop switches to looping over [start, end). A window that reaches
// into the guard zone behind the writer is shifted back. If the head is
// already inside the window playback continues without a jump, otherwise it
// crossfades to the window entry.
func (h *PlayHead) EnableLoop(start, end int) {
	r := h.buf.Ring()
	length := int(r.Ahead(float64(start), float64(end)))
	if length == 0 {
		length = h.loopLength
	}
	out := h.speed
	h.applySpeed()
	h.loopLength = h.clampLoopLength(length)
	h.loopDuration = float64(h.loopLength) / math.Abs(h.speed)
	h.nextLoopDuration = h.loopDuration

	startBehind := int(r.Behind(h.buf.WritePosition(), float64(start)))
	if startBehind == 0 {
		startBehind = h.buf.Elements()
	}
	if lo := h.tail() + h.loopLength; startBehind < lo {
		startBehind = lo
	}
	if hi := h.maxStartBehind(); startBehind > hi {
		startBehind = hi
	}
	h.placeWindow(startBehind, 0)

	wasLooping := h.mode == Looping
	h.mode = Looping
	h.jump = false
	if !wasLooping {
		h.initialCrossfadeDone = false
	}
	if h.InsideSection(h.active(), h.loopStart, h.loopEnd) {
		return
	}
	h.transitionTo(h.entry(0))
	h.outSpeed = out
}

// DisableLoop switches to free run. The head keeps playing from where it is
// and adopts its current distance behind the writer as the anchor.
func (h *PlayHead) DisableLoop() {
	if h.mode == FreeRun {
		return
	}
	h.mode = FreeRun
	h.anchor = h.buf.ClampOffset(int(h.buf.Behind(h.active())))
}

// CommitNextLoop applies the staged loop size and speed, places the next
// window relative to the write position, shifts it by a random jitter and
// starts a crossfade into it.
func (h *PlayHead) CommitNextLoop() {
	h.commitNextLoop(0)
}

// Beat re-evaluates the head: a looping head commits and crossfades to the
// start of its next window at once, a free-running head crossfades back to
// its anchor at the start of the next Read.
func (h *PlayHead) Beat() {
	if h.mode == Looping {
		h.CommitNextLoop()
		return
	}
	h.jump = true
}

// Rebase re-anchors the head after the store geometry changed, for example
// after a bit-depth change. Any crossfade is dropped and positions are
// recomputed from distances behind the writer. The last output sample is
// faded out over one crossfade length so the jump is not audible.
func (h *PlayHead) Rebase() {
	h.rebase()
	h.held = h.last
	h.holdRemaining = h.fadeLength
}

func (h *PlayHead) rebase() {
	h.holdRemaining = 0
	h.last = 0
	h.fadeRemaining = 0
	h.jump = false
	h.anchor = h.buf.ClampOffset(h.anchor)
	if h.mode != Looping {
		n := h.lastBlock
		if n == 0 {
			n = h.fadeLength
		}
		h.position = h.freeRunTarget(h.anchor, n)
		h.destination = h.position
		return
	}
	h.applyPending()
	h.placeWindow(h.tail()+h.loopLength, 0)
	h.position = h.entry(0)
	h.destination = h.position
}

// --- audio ---

// Read fills dst with the next len(dst) output samples.
func (h *PlayHead) Read(dst []int16) {
	if len(dst) == 0 {
		return
	}
	h.lastBlock = len(dst)
	if h.mode == FreeRun {
		// A speed change waits for the running crossfade; the outgoing
		// trajectory of a new one keeps the speed it was played at.
		prev := h.speed
		if h.fadeRemaining == 0 {
			h.applySpeed()
		}
		switch {
		case h.jump:
			h.jump = false
			h.transitionTo(h.freeRunTarget(h.anchor, len(dst)))
			h.outSpeed = prev
		case h.fadeRemaining == 0 && h.WillReachWriteHead(len(dst)):
			h.transitionTo(h.rewindTarget(len(dst)))
			h.outSpeed = prev
		}
	}
	check := h.mode == Looping && (h.fadeRemaining > 0 || h.WillCrossLoopBoundary(len(dst)))

	for i := range dst {
		if h.fadeRemaining > 0 {
			h.fadeRemaining--
			if h.fadeRemaining == 0 {
				h.position = h.destination
				h.initialCrossfadeDone = true
			}
		}

		crossing, over := false, 0.0
		if check {
			crossing, over = h.crossesNext()
		}

		if h.fadeRemaining > 0 {
			h.position = h.buf.Advance(h.position, h.outSpeed)
			h.destination = h.buf.Advance(h.destination, h.speed)
		} else {
			h.position = h.buf.Advance(h.position, h.speed)
		}

		if crossing {
			h.commitNextLoop(over)
			check = true
		}

		s := h.sample()
		if h.holdRemaining > 0 {
			h.holdRemaining--
			t := 1 - float64(h.holdRemaining)/float64(h.fadeLength)
			s = h.curve.Crossfade(t, h.held, s)
		}
		h.last = s
		dst[i] = s
	}
}

func (h *PlayHead) sample() int16 {
	if h.fadeRemaining == 0 {
		return h.buf.ReadInterpolated(h.position)
	}
	t := 1 - float64(h.fadeRemaining)/float64(h.fadeLength)
	return h.curve.Crossfade(t,
		h.buf.ReadInterpolated(h.position),
		h.buf.ReadInterpolated(h.destination))
}

// crossesNext reports whether advancing the active trajectory by one sample
// leaves the loop window, and by how far.
func (h *PlayHead) crossesNext() (bool, float64) {
	l := float64(h.loopLength)
	phase := h.phase()
	if phase >= l {
		return true, 0
	}
	next := phase + h.speed
	if h.speed > 0 {
		if next >= l {
			return true, next - l
		}
		return false, 0
	}
	if next < 0 {
		return true, -next
	}
	return false, 0
}

func (h *PlayHead) commitNextLoop(over float64) {
	// The trajectory that crossed becomes the outgoing one and keeps the
	// speed it was played at.
	if h.fadeRemaining > 0 {
		h.position = h.destination
	}
	h.outSpeed = h.speed
	h.applyPending()

	guard := h.tail()
	hi := h.maxStartBehind()
	startBehind := guard + h.loopLength + h.jitterSpan()
	if !h.loopMoving {
		cur := int(h.buf.Behind(float64(h.unjitteredLoopStart)))
		if cur >= guard+h.loopLength && cur <= hi {
			startBehind = cur
		}
	}
	if startBehind > hi {
		startBehind = hi
	}
	h.placeWindow(startBehind, h.jitterOffset())

	h.destination = h.entry(over)
	h.fadeRemaining = h.fadeLength
	h.commits++
}

// placeWindow sets the unjittered window to start startBehind samples behind
// the writer and the live window jitter samples further back, clamped so the
// whole cycle stays between the guard and the oldest sample.
func (h *PlayHead) placeWindow(startBehind, jitter int) {
	write := h.buf.WritePosition()
	r := h.buf.Ring()
	h.unjitteredLoopStart = r.Back(write, startBehind)

	if hi := h.maxStartBehind(); startBehind+jitter > hi {
		jitter = hi - startBehind
	}
	if lo := h.tail() + h.loopLength; startBehind+jitter < lo {
		jitter = lo - startBehind
	}
	h.loopStart = r.Back(write, startBehind+jitter)
	h.loopEnd = r.Wrap(h.loopStart + h.loopLength)
}

func (h *PlayHead) jitterSpan() int {
	return int(h.jitterRatio * float64(h.maxJitter))
}

func (h *PlayHead) jitterOffset() int {
	span := h.jitterSpan()
	if span <= 0 {
		return 0
	}
	return h.rng.IntN(2*span+1) - span
}

// entry returns the position over samples into the window in the playback
// direction.
func (h *PlayHead) entry(over float64) float64 {
	l := float64(h.loopLength)
	over = math.Mod(over, l)
	if h.speed > 0 {
		return h.buf.Advance(float64(h.loopStart), over)
	}
	if over == 0 {
		over = math.Min(1, l/2)
	}
	return h.buf.Advance(float64(h.loopStart), l-over)
}

// transitionTo starts a crossfade from the current trajectory to pos.
func (h *PlayHead) transitionTo(pos float64) {
	if h.fadeRemaining > 0 {
		h.position = h.destination
	}
	h.outSpeed = h.speed
	h.destination = pos
	h.fadeRemaining = h.fadeLength
}

// rewindTarget picks where a free-running head jumps when it is about to
// reach the writer or the oldest sample: a fast head restarts far behind,
// a slow or reverse head close behind, and a unit-speed head at its anchor.
func (h *PlayHead) rewindTarget(n int) float64 {
	switch {
	case h.speed > 1:
		return h.freeRunTarget(h.buf.Elements(), n)
	case h.speed < 1:
		return h.freeRunTarget(0, n)
	default:
		return h.freeRunTarget(h.anchor, n)
	}
}

// freeRunTarget returns the position behind the writer closest to distance
// from which the head can play n samples and a full crossfade at its
// current speed without reaching the writer or the oldest sample.
func (h *PlayHead) freeRunTarget(distance, n int) float64 {
	horizon := float64(n + h.fadeLength)
	lo := int(math.Ceil(math.Max(h.speed, 0)*horizon)) + 2
	hi := h.buf.Elements() - 1 - int(math.Ceil(math.Max(1-h.speed, 0)*horizon)) - n
	if distance > hi {
		distance = hi
	}
	if distance < lo {
		distance = lo
	}
	return float64(h.buf.OffsetFromWrite(distance))
}

// pendingSpeed is the speed the next commit will apply.
func (h *PlayHead) pendingSpeed() float64 {
	s := h.baseSpeed * h.nextSpeedRatio
	return core.Clamp(s, -MaxAbsSpeed, MaxAbsSpeed)
}

func (h *PlayHead) applySpeed() {
	h.speedRatio = h.nextSpeedRatio
	h.speed = h.pendingSpeed()
}

func (h *PlayHead) applyPending() {
	h.applySpeed()
	if h.nextLoopDuration > 0 {
		h.loopDuration = h.nextLoopDuration
	}
	h.loopLength = h.clampLoopLength(int(math.Round(h.loopDuration * math.Abs(h.speed))))
}

// active returns the trajectory that loop boundaries are evaluated on.
func (h *PlayHead) active() float64 {
	if h.fadeRemaining > 0 {
		return h.destination
	}
	return h.position
}

func (h *PlayHead) phase() float64 {
	return h.buf.Ring().Ahead(float64(h.loopStart), h.active())
}

// tail is the distance an outgoing trajectory travels during a crossfade,
// plus room for the interpolation neighbour.
func (h *PlayHead) tail() int {
	return int(math.Ceil(float64(h.fadeLength)*math.Abs(h.speed))) + 2
}

// cycle is the number of output samples one pass over the window takes.
func (h *PlayHead) cycle(length int) int {
	return int(math.Ceil(float64(length) / math.Abs(h.speed)))
}

// maxStartBehind is the farthest a window start may lie behind the writer
// so that neither the window nor the outgoing tail is overwritten before
// the seam crossfade that follows the next commit ends. The writer keeps
// advancing for fadeLength samples during that crossfade.
func (h *PlayHead) maxStartBehind() int {
	return h.buf.Elements() - 1 - h.cycle(h.loopLength) - h.tail() - h.fadeLength
}

func (h *PlayHead) clampLoopLength(length int) int {
	s := math.Abs(h.speed)
	tail := h.tail()
	hi := int(float64(h.buf.Elements()-1-2*tail-1-h.fadeLength) * s / (s + 1))
	lo := max(minLoopLength, 2*(tail-2))
	if length > hi {
		length = hi
	}
	if length < lo {
		length = lo
	}
	return length
}

// HeadState is a value snapshot of a PlayHead.
type HeadState struct {
	Mode                Mode
	Position            float64
	Destination         float64
	Speed               float64
	LoopStart           int
	LoopEnd             int
	UnjitteredLoopStart int
	LoopLength          int
	FadeRemaining       int
	LoopMoving          bool
	Jitter              float64
	Commits             uint64
}

// State returns a snapshot of the head.
func (h *PlayHead) State() HeadState {
	return HeadState{
		Mode:                h.mode,
		Position:            h.position,
		Destination:         h.Destination(),
		Speed:               h.speed,
		LoopStart:           h.loopStart,
		LoopEnd:             h.loopEnd,
		UnjitteredLoopStart: h.unjitteredLoopStart,
		LoopLength:          h.loopLength,
		FadeRemaining:       h.fadeRemaining,
		LoopMoving:          h.loopMoving,
		Jitter:              h.jitterRatio,
		Commits:             h.commits,
	}
}
