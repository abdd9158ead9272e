package testutil

import (
	"math"
	"math/rand/v2"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed uint64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewPCG(seed, 0))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// SineInt16 generates length samples of a sine with the given period in
// samples and peak amplitude, starting at sample index offset. Consecutive
// calls with advancing offsets produce one continuous wave.
func SineInt16(period float64, amplitude int16, offset, length int) []int16 {
	out := make([]int16, length)
	step := 2 * math.Pi / period
	for i := range out {
		out[i] = int16(math.Round(float64(amplitude) * math.Sin(step*float64(offset+i))))
	}
	return out
}

// RampInt16 returns from, from+1, ... wrapping at the int16 range.
func RampInt16(from, length int) []int16 {
	out := make([]int16, length)
	for i := range out {
		out[i] = int16(from + i)
	}
	return out
}

// NoiseInt16 generates white noise in [-amplitude, amplitude] with a fixed
// seed.
func NoiseInt16(seed uint64, amplitude int16, length int) []int16 {
	out := make([]int16, length)
	rng := rand.New(rand.NewPCG(seed, 0))
	span := 2*int(amplitude) + 1
	for i := range out {
		out[i] = int16(rng.IntN(span) - int(amplitude))
	}
	return out
}

// ConstInt16 returns length copies of v.
func ConstInt16(v int16, length int) []int16 {
	out := make([]int16, length)
	for i := range out {
		out[i] = v
	}
	return out
}

// MaxStepInt16 returns the largest absolute difference between
// neighbouring samples.
func MaxStepInt16(s []int16) int {
	m := 0
	for i := 1; i < len(s); i++ {
		d := int(s[i]) - int(s[i-1])
		if d < 0 {
			d = -d
		}
		m = max(m, d)
	}
	return m
}
