package core

import "testing"

func TestZero(t *testing.T) {
	buf := []float64{1, 2, 3}
	Zero(buf)

	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
}

func TestInt16FloatRoundTrip(t *testing.T) {
	src := []int16{-32768, -12345, -1, 0, 1, 777, 32767}
	f := make([]float64, len(src))
	back := make([]int16, len(src))

	Int16ToFloat(f, src)
	FloatToInt16(back, f)

	for i := range src {
		if back[i] != src[i] {
			t.Fatalf("sample %d: got %d, want %d", i, back[i], src[i])
		}
	}

	if f[0] != -1 {
		t.Fatalf("f[0] = %v, want -1", f[0])
	}
}
