package delay

import (
	"errors"
	"math"
	"testing"
)

// newSamples returns a buffer holding exactly n samples at 16 bits.
func newSamples(t *testing.T, n int, opts ...Option) *Buffer {
	t.Helper()
	b, err := New(2*n, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if b.Elements() != n {
		t.Fatalf("Elements: got %d want %d", b.Elements(), n)
	}
	return b
}

func ramp(from, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(from + i)
	}
	return out
}

// --- construction and validation ---

func TestNewValidation(t *testing.T) {
	if _, err := New(0); !errors.Is(err, ErrCapacity) {
		t.Fatalf("New(0): got %v want ErrCapacity", err)
	}
	if _, err := New(MinCapacityBytes - 1); !errors.Is(err, ErrCapacity) {
		t.Fatalf("New(%d): got %v want ErrCapacity", MinCapacityBytes-1, err)
	}
	if _, err := New(64, WithBitDepth(10)); err == nil {
		t.Fatal("expected error for unsupported bit depth")
	}
	if _, err := New(64, WithFadeLength(0)); err == nil {
		t.Fatal("expected error for zero fade length")
	}
}

func TestNewDefaults(t *testing.T) {
	b, err := New(DefaultCapacityBytes)
	if err != nil {
		t.Fatal(err)
	}

	if b.BitDepth() != DefaultBitDepth {
		t.Fatalf("BitDepth: got %d want %d", b.BitDepth(), DefaultBitDepth)
	}
	if b.Elements() != DefaultCapacityBytes/2 {
		t.Fatalf("Elements: got %d want %d", b.Elements(), DefaultCapacityBytes/2)
	}
	if b.Fading() {
		t.Fatal("new buffer must not be fading")
	}
	if b.WritePosition() != 0 {
		t.Fatalf("WritePosition: got %d want 0", b.WritePosition())
	}
}

func TestElementsPerBitDepth(t *testing.T) {
	for _, bits := range supportedBitDepths {
		b, err := New(DefaultCapacityBytes, WithBitDepth(bits))
		if err != nil {
			t.Fatal(err)
		}
		if want := DefaultCapacityBytes * 8 / bits; b.Elements() != want {
			t.Fatalf("bits=%d: Elements got %d want %d", bits, b.Elements(), want)
		}
	}
}

// --- write/read ---

func TestWriteReadScenario(t *testing.T) {
	b := newSamples(t, 100)

	b.Write(ramp(1, 30))

	if got := b.Read(b.OffsetFromWrite(30)); got != 1 {
		t.Fatalf("Read(OffsetFromWrite(30)): got %d want 1", got)
	}
	if b.WritePosition() != 30 {
		t.Fatalf("WritePosition: got %d want 30", b.WritePosition())
	}
}

func TestRoundTripAllDepths(t *testing.T) {
	in := []int16{-32768, -20000, -257, -1, 0, 1, 255, 4097, 12345, 32767}

	for _, bits := range supportedBitDepths {
		b, err := New(120, WithBitDepth(bits))
		if err != nil {
			t.Fatal(err)
		}
		b.Write(in)

		for i, v := range in {
			pos := b.OffsetFromWrite(len(in) - i)
			want := Quantize(v, bits)
			if got := b.Read(pos); got != want {
				t.Fatalf("bits=%d sample %d: got %d want %d", bits, i, got, want)
			}
		}
	}
}

func TestWraparoundOverwritesOldest(t *testing.T) {
	const n, k = 100, 37
	b := newSamples(t, n)

	total := n + k
	b.Write(ramp(1, total))

	if b.WritePosition() != k {
		t.Fatalf("WritePosition: got %d want %d", b.WritePosition(), k)
	}

	for back := 1; back < n; back++ {
		want := int16(total - back + 1)
		if got := b.Read(b.OffsetFromWrite(back)); got != want {
			t.Fatalf("%d behind: got %d want %d", back, got, want)
		}
	}

	// The first k values are gone; the oldest readable one is k+2.
	oldest := b.Read(b.OffsetFromWrite(n * 4))
	if oldest != int16(k+2) {
		t.Fatalf("oldest: got %d want %d", oldest, k+2)
	}
}

func TestWriteSpansEnd(t *testing.T) {
	b := newSamples(t, 10)
	b.Write(ramp(1, 8))
	b.Write(ramp(100, 5))

	want := []int16{102, 103, 104, 4, 5, 6, 7, 8, 100, 101}
	for i, w := range want {
		if got := b.Read(i); got != w {
			t.Fatalf("Read(%d): got %d want %d", i, got, w)
		}
	}
	if got := b.Read(8); got != 100 {
		t.Fatalf("Read(8): got %d want 100", got)
	}
	if got := b.Read(-2); got != 100 {
		t.Fatalf("Read(-2): got %d want 100", got)
	}
}

func TestReadInterpolated(t *testing.T) {
	b := newSamples(t, 10)
	b.Write([]int16{0, 100, 200, 300, 400, 500, 600, 700, 800, 900})

	tests := []struct {
		pos  float64
		want int16
	}{
		{pos: 1, want: 100},
		{pos: 1.5, want: 150},
		{pos: 2.25, want: 225},
		{pos: 9.5, want: 450},
		{pos: -0.5, want: 450},
		{pos: 10.5, want: 50},
	}

	for _, tt := range tests {
		if got := b.ReadInterpolated(tt.pos); got != tt.want {
			t.Fatalf("ReadInterpolated(%v): got %d want %d", tt.pos, got, tt.want)
		}
	}
}

// --- position helpers ---

func TestAdvanceWrapsBothDirections(t *testing.T) {
	b := newSamples(t, 100)

	if got := b.Advance(0, -1); got != 99 {
		t.Fatalf("Advance(0, -1): got %v want 99", got)
	}
	if got := b.Advance(0.5, -1); got != 99.5 {
		t.Fatalf("Advance(0.5, -1): got %v want 99.5", got)
	}
	if got := b.Advance(99, 2); got != 1 {
		t.Fatalf("Advance(99, 2): got %v want 1", got)
	}
	if got := b.Increment(0, -1); got != 99 {
		t.Fatalf("Increment(0, -1): got %d want 99", got)
	}
	if got := b.Increment(98, 3); got != 1 {
		t.Fatalf("Increment(98, 3): got %d want 1", got)
	}
}

func TestOffsetFromWriteClamps(t *testing.T) {
	b := newSamples(t, 100)
	b.Write(ramp(0, 40))

	if got := b.OffsetFromWrite(0); got != 39 {
		t.Fatalf("OffsetFromWrite(0): got %d want 39", got)
	}
	if got := b.OffsetFromWrite(1000); got != 41 {
		t.Fatalf("OffsetFromWrite(1000): got %d want 41", got)
	}
	if got := b.OffsetFromWrite(50); got != 90 {
		t.Fatalf("OffsetFromWrite(50): got %d want 90", got)
	}
}

func TestOffsetFromRatio(t *testing.T) {
	b := newSamples(t, 101)

	tests := []struct {
		ratio float64
		want  int
	}{
		{ratio: 0, want: 1},
		{ratio: 0.5, want: 50},
		{ratio: 1, want: 100},
		{ratio: 3, want: 100},
		{ratio: -1, want: 1},
	}

	for _, tt := range tests {
		if got := b.OffsetFromRatio(tt.ratio); got != tt.want {
			t.Fatalf("OffsetFromRatio(%v): got %d want %d", tt.ratio, got, tt.want)
		}
	}
}

func TestOffsetFromTime(t *testing.T) {
	b := newSamples(t, 44100)

	tests := []struct {
		ms, rate float64
		want     int
	}{
		{ms: 100, rate: 44100, want: 4410},
		{ms: 0.5, rate: 48000, want: 24},
		{ms: 0, rate: 44100, want: 1},
		{ms: -20, rate: 44100, want: 1},
		{ms: 5000, rate: 44100, want: 44099},
		{ms: math.Inf(1), rate: 44100, want: 44099},
		{ms: math.NaN(), rate: 44100, want: 1},
		{ms: 100, rate: 0, want: 1},
	}

	for _, tt := range tests {
		if got := b.OffsetFromTime(tt.ms, tt.rate); got != tt.want {
			t.Fatalf("OffsetFromTime(%v, %v): got %d want %d", tt.ms, tt.rate, got, tt.want)
		}
	}

	b.Write(ramp(0, 4410))
	if got := b.Read(b.OffsetFromWrite(b.OffsetFromTime(10, 44100))); got != 4410-441 {
		t.Fatalf("sample 10 ms back: got %d want %d", got, 4410-441)
	}
}

func TestBehindNeverNegative(t *testing.T) {
	b := newSamples(t, 50)
	b.Write(ramp(0, 73))

	for n := 1; n < 50; n++ {
		pos := b.OffsetFromWrite(n)
		if got := b.Behind(float64(pos)); got != float64(n) {
			t.Fatalf("Behind(OffsetFromWrite(%d)): got %v", n, got)
		}
	}
}

// --- bit depth ---

func TestSetBitDepthScenario(t *testing.T) {
	const fade = 16
	b, err := New(200, WithBitDepth(8), WithFadeLength(fade))
	if err != nil {
		t.Fatal(err)
	}
	if b.Elements() != 200 {
		t.Fatalf("Elements: got %d want 200", b.Elements())
	}

	if got := b.SetBitDepth(16); got != 16 {
		t.Fatalf("SetBitDepth: got %d want 16", got)
	}
	if b.Elements() != 100 {
		t.Fatalf("Elements after widening: got %d want 100", b.Elements())
	}

	for i := 0; i < fade; i++ {
		if !b.Fading() {
			t.Fatalf("fade ended early after %d samples", i)
		}
		b.Write([]int16{1000})
	}
	if b.Fading() {
		t.Fatal("fade still active after the configured window")
	}

	b.SetBitDepth(8)
	if b.Elements() != 200 {
		t.Fatalf("Elements after narrowing: got %d want 200", b.Elements())
	}
	if !b.Fading() || b.FadeRemaining() != fade {
		t.Fatalf("FadeRemaining: got %d want %d", b.FadeRemaining(), fade)
	}
}

func TestSetBitDepthClampsAndKeepsByteOffset(t *testing.T) {
	b := newSamples(t, 100)
	b.Write(ramp(1, 30))

	if got := b.SetBitDepth(7); got != 8 {
		t.Fatalf("SetBitDepth(7): got %d want 8", got)
	}
	if b.WritePosition() != 60 {
		t.Fatalf("WritePosition: got %d want 60", b.WritePosition())
	}
	for n := 1; n < b.Elements(); n++ {
		if got := b.Read(b.OffsetFromWrite(n)); got != 0 {
			t.Fatalf("reinterpreted content not silenced at %d: %d", n, got)
		}
	}
}

func TestSetBitDepthSameIsNoop(t *testing.T) {
	b := newSamples(t, 100)
	b.Write(ramp(1, 10))

	b.SetBitDepth(16)
	if b.Fading() {
		t.Fatal("unchanged bit depth armed a fade")
	}
	if got := b.Read(0); got != 1 {
		t.Fatalf("content lost: got %d want 1", got)
	}
}

func TestWriteFadeRampsFromSilence(t *testing.T) {
	const fade = 8
	b, err := New(400, WithFadeLength(fade))
	if err != nil {
		t.Fatal(err)
	}
	b.SetBitDepth(12)

	in := make([]int16, 2*fade)
	for i := range in {
		in[i] = 16000
	}
	b.Write(in)

	prev := int16(-1)
	for i := range in {
		got := b.Read(b.OffsetFromWrite(len(in) - i))
		if i == 0 && got != 0 {
			t.Fatalf("first faded sample: got %d want 0", got)
		}
		if got < prev {
			t.Fatalf("fade not monotonic at %d: %d < %d", i, got, prev)
		}
		if i >= fade && got != Quantize(16000, 12) {
			t.Fatalf("sample %d after fade: got %d want %d", i, got, Quantize(16000, 12))
		}
		prev = got
	}
}

func TestReset(t *testing.T) {
	b := newSamples(t, 20)
	b.Write(ramp(5, 7))
	b.SetBitDepth(8)
	b.Reset()

	if b.WritePosition() != 0 || b.Fading() {
		t.Fatalf("Reset left write=%d fading=%v", b.WritePosition(), b.Fading())
	}
	for i := 0; i < b.Elements(); i++ {
		if b.Read(i) != 0 {
			t.Fatalf("Read(%d) not zero after Reset", i)
		}
	}
}

// --- benchmarks ---

func BenchmarkWrite128(b *testing.B) {
	for _, bits := range supportedBitDepths {
		buf, err := New(DefaultCapacityBytes, WithBitDepth(bits))
		if err != nil {
			b.Fatal(err)
		}
		block := ramp(0, 128)
		b.Run(bitsName(bits), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				buf.Write(block)
			}
		})
	}
}

func BenchmarkReadInterpolated(b *testing.B) {
	buf, err := New(DefaultCapacityBytes, WithBitDepth(12))
	if err != nil {
		b.Fatal(err)
	}
	pos := 0.0
	var sink int16
	for i := 0; i < b.N; i++ {
		sink += buf.ReadInterpolated(pos)
		pos = buf.Advance(pos, 1.37)
	}
	_ = sink
}

func bitsName(bits int) string {
	switch bits {
	case 4:
		return "4bit"
	case 8:
		return "8bit"
	case 12:
		return "12bit"
	default:
		return "16bit"
	}
}
