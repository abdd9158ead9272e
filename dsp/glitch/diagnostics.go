package glitch

import (
	"fmt"
	"strings"
)

// Diagnostics is a value snapshot of an Effect.
type Diagnostics struct {
	SampleRate    float64
	CapacityBytes int
	BitDepth      int
	Elements      int
	WritePosition int
	Fading        bool
	Live          Params
	Pending       Params
	Blocks        uint64
	Clipped       uint64
	Heads         [NumPlayHeads]HeadState
}

// Diagnostics captures the current engine state. It must be called from the
// audio goroutine.
func (e *Effect) Diagnostics() Diagnostics {
	d := Diagnostics{
		SampleRate:    e.cfg.SampleRate,
		CapacityBytes: e.buffer.Capacity(),
		BitDepth:      e.buffer.BitDepth(),
		Elements:      e.buffer.Elements(),
		WritePosition: e.buffer.WritePosition(),
		Fading:        e.buffer.Fading(),
		Live:          e.live,
		Pending:       e.Pending(),
		Blocks:        e.blocks,
		Clipped:       e.clipped,
	}
	for i, h := range e.heads {
		d.Heads[i] = h.State()
	}
	return d
}

// String renders the snapshot as a short multi-line report.
func (d Diagnostics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "store: %d bytes, %d-bit, %d samples (%.2f s), write=%d",
		d.CapacityBytes, d.BitDepth, d.Elements, float64(d.Elements)/d.SampleRate, d.WritePosition)
	if d.Fading {
		b.WriteString(" fading")
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "params: speed=%.3f loop=%.3f jitter=%.3f moving=%t looping=%t beat=%d\n",
		d.Live.SpeedRatio, d.Live.LoopSize, d.Live.Jitter, d.Live.LoopMoving, d.Live.Looping, d.Live.Beat)
	if d.Pending != d.Live {
		fmt.Fprintf(&b, "pending: bits=%d speed=%.3f loop=%.3f jitter=%.3f moving=%t looping=%t beat=%d\n",
			d.Pending.BitDepth, d.Pending.SpeedRatio, d.Pending.LoopSize, d.Pending.Jitter,
			d.Pending.LoopMoving, d.Pending.Looping, d.Pending.Beat)
	}
	fmt.Fprintf(&b, "blocks=%d clipped=%d\n", d.Blocks, d.Clipped)
	for i, h := range d.Heads {
		fmt.Fprintf(&b, "head %d: %s speed=%+.3f pos=%.2f", i, h.Mode, h.Speed, h.Position)
		if h.Mode == Looping {
			fmt.Fprintf(&b, " loop=[%d,%d) len=%d jitter=%d",
				h.LoopStart, h.LoopEnd, h.LoopLength, h.LoopStart-h.UnjitteredLoopStart)
		}
		if h.FadeRemaining > 0 {
			fmt.Fprintf(&b, " fade=%d dest=%.2f", h.FadeRemaining, h.Destination)
		}
		fmt.Fprintf(&b, " commits=%d\n", h.Commits)
	}
	return b.String()
}
