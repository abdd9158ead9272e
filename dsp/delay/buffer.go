package delay

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-glitch/dsp/core"
	"github.com/cwbudde/algo-glitch/dsp/interp"
)

const (
	// DefaultCapacityBytes is the pedal's sample memory: 240 KiB.
	DefaultCapacityBytes = 240 * 1024

	// DefaultBitDepth is the storage width a new Buffer starts at.
	DefaultBitDepth = 16

	// DefaultFadeLength is the writer fade armed by a bit-depth change.
	DefaultFadeLength = 512

	// MinCapacityBytes is the smallest store New accepts.
	MinCapacityBytes = 8

	maxFadeLength = 1 << 16
)

// Compile-time check that DefaultCapacityBytes packs every width exactly.
func _() {
	var x [1]struct{}
	_ = x[DefaultCapacityBytes%capacityQuantum]
}

// ErrCapacity reports a byte capacity too small to hold a usable ring.
var ErrCapacity = errors.New("delay: invalid capacity")

// Option mutates Buffer construction parameters.
type Option func(*config) error

type config struct {
	bitDepth   int
	fadeLength int
}

// WithBitDepth sets the initial storage width. bits must be one of
// SupportedBitDepths.
func WithBitDepth(bits int) Option {
	return func(cfg *config) error {
		if !isSupportedBitDepth(bits) {
			return fmt.Errorf("delay bit depth must be one of %v: %d", supportedBitDepths, bits)
		}
		cfg.bitDepth = bits
		return nil
	}
}

// WithFadeLength sets the writer fade window in samples, in [1, 65536].
func WithFadeLength(samples int) Option {
	return func(cfg *config) error {
		if samples < 1 || samples > maxFadeLength {
			return fmt.Errorf("delay fade length must be in [1, %d]: %d", maxFadeLength, samples)
		}
		cfg.fadeLength = samples
		return nil
	}
}

// Buffer is a circular store of bit-packed int16 samples with a single
// monotonically advancing write position.
type Buffer struct {
	data     []byte
	capacity int

	bits int
	pack packer
	ring Ring

	write int

	fadeLength    int
	fadeRemaining int
}

// New returns a zeroed store of capacityBytes bytes, at least
// MinCapacityBytes. When capacityBytes is not a multiple of six some widths
// leave up to a byte of it unused.
func New(capacityBytes int, opts ...Option) (*Buffer, error) {
	if capacityBytes < MinCapacityBytes {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d",
			ErrCapacity, capacityBytes, MinCapacityBytes)
	}

	cfg := config{bitDepth: DefaultBitDepth, fadeLength: DefaultFadeLength}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	b := &Buffer{
		// One spare byte lets every field be accessed as a 16-bit word.
		data:       make([]byte, capacityBytes+1),
		capacity:   capacityBytes,
		fadeLength: cfg.fadeLength,
	}
	b.setGeometry(cfg.bitDepth)
	return b, nil
}

// Capacity returns the fixed byte capacity.
func (b *Buffer) Capacity() int { return b.capacity }

// BitDepth returns the current storage width in bits.
func (b *Buffer) BitDepth() int { return b.bits }

// Elements returns how many samples the store holds at the current width.
func (b *Buffer) Elements() int { return b.ring.Len() }

// Ring returns the indexing geometry for the current width. The value is
// invalidated by SetBitDepth.
func (b *Buffer) Ring() Ring { return b.ring }

// WritePosition returns the index the next written sample will occupy.
func (b *Buffer) WritePosition() int { return b.write }

// FadeLength returns the writer fade window in samples.
func (b *Buffer) FadeLength() int { return b.fadeLength }

// FadeRemaining returns how many more written samples are still faded.
func (b *Buffer) FadeRemaining() int { return b.fadeRemaining }

// Fading reports whether the writer fade armed by a bit-depth change is
// still active.
func (b *Buffer) Fading() bool { return b.fadeRemaining > 0 }

// Write stores samples starting at the write position, wrapping at the end
// of the ring, and advances the write position by len(samples). While the
// writer fade is active incoming samples ramp linearly up from silence.
func (b *Buffer) Write(samples []int16) {
	for _, s := range samples {
		if b.fadeRemaining > 0 {
			gain := float64(b.fadeLength-b.fadeRemaining) / float64(b.fadeLength)
			s = int16(math.Round(float64(s) * gain))
			b.fadeRemaining--
		}
		b.pack.put(b.data, b.write, s)
		b.write++
		if b.write == b.ring.n {
			b.write = 0
		}
	}
}

// Read returns the sample at pos, wrapped into the ring.
func (b *Buffer) Read(pos int) int16 {
	return b.pack.get(b.data, b.ring.Wrap(pos))
}

// ReadInterpolated returns the sample at a fractional position by linear
// interpolation between floor(pos) and the following element. The kernel is
// the same for forward and reverse playback; integral positions are read
// directly.
func (b *Buffer) ReadInterpolated(pos float64) int16 {
	pos = b.ring.WrapFloat(pos)
	i0 := int(pos)
	frac := pos - float64(i0)
	s0 := b.pack.get(b.data, i0)
	if frac == 0 {
		return s0
	}
	i1 := i0 + 1
	if i1 == b.ring.n {
		i1 = 0
	}
	return interp.LinearInt16(frac, s0, b.pack.get(b.data, i1))
}

// Advance moves a fractional position by speed samples, wrapping in both
// directions.
func (b *Buffer) Advance(pos, speed float64) float64 {
	return b.ring.Add(pos, speed)
}

// Increment moves an integer position by n samples, wrapping in both
// directions.
func (b *Buffer) Increment(pos, n int) int {
	return b.ring.Wrap(pos + n)
}

// OffsetFromWrite returns the position n samples behind the write position.
// n is clamped to [1, Elements()-1]: the newest readable sample is the one
// just written and the oldest is the one about to be overwritten next.
func (b *Buffer) OffsetFromWrite(n int) int {
	return b.ring.Back(b.write, b.ClampOffset(n))
}

// ClampOffset limits a distance behind the write position to
// [1, Elements()-1].
func (b *Buffer) ClampOffset(n int) int {
	return core.ClampInt(n, 1, b.ring.n-1)
}

// OffsetFromRatio converts a ratio in [0, 1] of the usable history into a
// distance in samples, clamped like OffsetFromWrite.
func (b *Buffer) OffsetFromRatio(ratio float64) int {
	if math.IsNaN(ratio) {
		ratio = 0
	}
	return b.ClampOffset(int(math.Round(ratio * float64(b.ring.n-1))))
}

// OffsetFromTime converts a delay in milliseconds at sampleRate into a
// distance in samples, clamped like OffsetFromWrite.
func (b *Buffer) OffsetFromTime(ms, sampleRate float64) int {
	n := core.Clamp(ms*sampleRate/1000, 0, float64(b.ring.n))
	if math.IsNaN(n) {
		n = 0
	}
	return b.ClampOffset(int(math.Round(n)))
}

// Behind returns how far pos lies behind the write position, in
// [0, Elements()).
func (b *Buffer) Behind(pos float64) float64 {
	return b.ring.Behind(b.write, pos)
}

// SetBitDepth changes the storage width, clamping bits to the nearest
// supported value, and returns the width in effect. Changing the width
// reinterprets the packed bytes, so the store is cleared to silence, the
// write position is moved to the same byte offset under the new layout and
// the writer fade is armed for FadeLength samples.
func (b *Buffer) SetBitDepth(bits int) int {
	bits = NearestBitDepth(bits)
	if bits == b.bits {
		return bits
	}

	byteOffset := b.write * b.bits / 8
	b.setGeometry(bits)
	b.write = b.ring.Wrap(byteOffset * 8 / bits)
	clear(b.data)
	b.fadeRemaining = b.fadeLength
	return bits
}

// Reset clears the store, rewinds the write position and cancels any fade.
func (b *Buffer) Reset() {
	clear(b.data)
	b.write = 0
	b.fadeRemaining = 0
}

func (b *Buffer) setGeometry(bits int) {
	b.bits = bits
	b.pack = newPacker(bits)
	b.ring = NewRing(b.pack.elements(b.capacity))
}
