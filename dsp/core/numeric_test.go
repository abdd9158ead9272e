package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: -1, min: 0, max: 1, expected: 0},
		{name: "above", value: 2, min: 0, max: 1, expected: 1},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(-3, 0, 10); got != 0 {
		t.Fatalf("ClampInt() = %d, want 0", got)
	}
	if got := ClampInt(30, 10, 0); got != 10 {
		t.Fatalf("ClampInt() = %d, want 10", got)
	}
	if got := ClampInt(5, 0, 10); got != 5 {
		t.Fatalf("ClampInt() = %d, want 5", got)
	}
}

func TestSaturateInt16(t *testing.T) {
	tests := []struct {
		in   int32
		want int16
	}{
		{in: 0, want: 0},
		{in: 40000, want: math.MaxInt16},
		{in: -40000, want: math.MinInt16},
		{in: -32768, want: -32768},
	}

	for _, tt := range tests {
		if got := SaturateInt16(tt.in); got != tt.want {
			t.Fatalf("SaturateInt16(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestQuantizeInt16(t *testing.T) {
	if got := QuantizeInt16(2); got != math.MaxInt16 {
		t.Fatalf("QuantizeInt16(2) = %d, want %d", got, math.MaxInt16)
	}
	if got := QuantizeInt16(-2); got != math.MinInt16 {
		t.Fatalf("QuantizeInt16(-2) = %d, want %d", got, math.MinInt16)
	}
	if got := QuantizeInt16(math.NaN()); got != 0 {
		t.Fatalf("QuantizeInt16(NaN) = %d, want 0", got)
	}
	if got := QuantizeInt16(0.5); got != 16384 {
		t.Fatalf("QuantizeInt16(0.5) = %d, want 16384", got)
	}
}
