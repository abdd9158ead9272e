package spectrum

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

func split(in []complex128, re, im []float64) {
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
}

// Magnitude returns |X[k]| for each complex spectrum bin.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))
	split(in, re, im)
	vecmath.Magnitude(out, re, im)
	putScratch(buf)
	return out
}

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	PowerInto(out, in)
	return out
}

// PowerInto writes |X[k]|^2 for the first len(dst) bins of in. It allocates
// nothing once the scratch pool is warm.
func PowerInto(dst []float64, in []complex128) {
	n := min(len(dst), len(in))
	if n == 0 {
		return
	}

	re, im, buf := getScratch(n)
	split(in[:n], re, im)
	vecmath.Power(dst[:n], re, im)
	putScratch(buf)
}

// BinFrequency returns the centre frequency of bin k for an FFT of fftSize
// points.
func BinFrequency(k, fftSize int, sampleRate float64) float64 {
	if fftSize <= 0 {
		return 0
	}
	return float64(k) * sampleRate / float64(fftSize)
}

// BandEnergy sums one-sided power bins whose centre frequency lies in
// [lowHz, highHz). power holds bins 0..fftSize/2.
func BandEnergy(power []float64, fftSize int, sampleRate, lowHz, highHz float64) (float64, error) {
	if fftSize <= 0 || sampleRate <= 0 {
		return 0, fmt.Errorf("spectrum band requires positive fft size and sample rate: %d, %f", fftSize, sampleRate)
	}
	if lowHz < 0 || highHz < lowHz || math.IsNaN(lowHz) || math.IsNaN(highHz) {
		return 0, fmt.Errorf("spectrum band must satisfy 0 <= low <= high: [%f, %f)", lowHz, highHz)
	}

	binHz := sampleRate / float64(fftSize)
	first := int(math.Ceil(lowHz / binHz))
	last := len(power)
	if !math.IsInf(highHz, 1) {
		last = min(last, int(math.Ceil(highHz/binHz)))
	}

	sum := 0.0
	for k := max(first, 0); k < last; k++ {
		sum += power[k]
	}
	return sum, nil
}
