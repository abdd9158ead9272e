package resample

import (
	"errors"
	"fmt"
	"math"
)

// designPolyphase builds a lowpass prototype at the upsampled rate and
// splits it into up branches. It returns the branches and the prototype
// centre in upsampled samples.
func designPolyphase(up, down int, p profile) ([][]float64, float64, error) {
	n := p.tapsPerPhase * up
	fc := 0.5 / float64(max(up, down)) * p.cutoffScale
	if fc <= 0 || fc >= 0.5 {
		return nil, 0, fmt.Errorf("resample: invalid cutoff %.6f", fc)
	}

	taps := make([]float64, n)
	center := 0.5 * float64(n-1)
	sum := 0.0
	for i := range taps {
		t := float64(i) - center
		taps[i] = 2 * fc * sinc(2*fc*t) * kaiser(i, n, p.kaiserBeta)
		sum += taps[i]
	}
	if sum == 0 {
		return nil, 0, errors.New("resample: designed zero-sum filter")
	}

	// Unity DC gain per output sample after zero stuffing.
	scale := float64(up) / sum
	phases := make([][]float64, up)
	for ph := range up {
		branch := make([]float64, 0, (n-ph+up-1)/up)
		for i := ph; i < n; i += up {
			branch = append(branch, taps[i]*scale)
		}
		phases[ph] = branch
	}
	return phases, center, nil
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}
	pix := math.Pi * x
	return math.Sin(pix) / pix
}

func kaiser(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}
	t := 2*float64(i)/float64(n-1) - 1
	return besselI0(beta*math.Sqrt(math.Max(0, 1-t*t))) / besselI0(beta)
}

// besselI0 evaluates the modified Bessel function of order zero by its
// power series.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	x2 := x * x / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)
		sum += term
		if term < 1e-16*sum {
			break
		}
	}
	return sum
}
