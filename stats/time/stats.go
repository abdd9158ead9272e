// Package time computes time-domain level statistics of rendered audio.
package time

import "math"

// Stats holds time-domain signal statistics.
//
//nolint:revive
type Stats struct {
	Length         int
	DC             float64 // mean
	RMS            float64
	RMS_dB         float64
	Peak           float64 // max |x|
	PeakPos        int
	Peak_dB        float64
	CrestFactor    float64 // peak / RMS (linear)
	CrestFactor_dB float64
	ZeroCrossings  int
}

// ampTodB converts an amplitude to decibels. Returns -Inf for zero.
func ampTodB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(a)
}

func emptyStats() Stats {
	return Stats{
		RMS_dB:         math.Inf(-1),
		Peak_dB:        math.Inf(-1),
		CrestFactor_dB: math.Inf(-1),
	}
}

// Calculate computes all statistics in a single pass.
func Calculate(signal []float64) Stats {
	n := len(signal)
	if n == 0 {
		return emptyStats()
	}

	var sum, c, sumSq float64
	st := Stats{Length: n}
	for i, x := range signal {
		// Kahan summation keeps the mean of long renders exact.
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t

		sumSq += x * x

		if a := math.Abs(x); a > st.Peak {
			st.Peak = a
			st.PeakPos = i
		}
		if i > 0 && signal[i-1]*x < 0 {
			st.ZeroCrossings++
		}
	}

	st.DC = sum / float64(n)
	st.RMS = math.Sqrt(sumSq / float64(n))
	st.RMS_dB = ampTodB(st.RMS)
	st.Peak_dB = ampTodB(st.Peak)
	st.CrestFactor_dB = math.Inf(-1)
	if st.RMS > 0 {
		st.CrestFactor = st.Peak / st.RMS
		st.CrestFactor_dB = ampTodB(st.CrestFactor)
	}
	return st
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}
	return math.Sqrt(sumSq / float64(len(signal)))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	peak := 0.0
	for _, x := range signal {
		peak = math.Max(peak, math.Abs(x))
	}
	return peak
}
