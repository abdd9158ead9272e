package seam

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-glitch/dsp/core"
	"github.com/cwbudde/algo-glitch/dsp/spectrum"
	"github.com/cwbudde/algo-glitch/dsp/window"
	timestats "github.com/cwbudde/algo-glitch/stats/time"
)

const (
	defaultCutoffHz = 8000.0
	defaultFFTSize  = 4096
	maxFFTSize      = 1 << 16
)

// Config holds seam analysis parameters. Zero values select defaults.
type Config struct {
	SampleRate float64
	// CutoffHz splits the spectrum; energy at or above it counts as high
	// band.
	CutoffHz float64
	// FFTSize is the frame length. Longer signals are averaged over
	// half-overlapping frames, the last one aligned to the end.
	FFTSize    int
	WindowType window.Type
}

// Result holds seam analysis results.
type Result struct {
	Samples int
	// MaxStep is the largest absolute difference between neighbouring
	// samples, found at MaxStepIndex (the index of the later sample).
	MaxStep      float64
	MaxStepIndex int
	RMS          float64
	Peak         float64
	DC           float64
	// HighBandRatio is the share of spectral energy at or above CutoffHz.
	HighBandRatio float64
	Frames        int
}

// StepDB returns MaxStep relative to full scale in dB.
func (r Result) StepDB() float64 {
	if r.MaxStep <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(r.MaxStep)
}

// Analyzer reuses its FFT plan and scratch buffers across calls. It is not
// safe for concurrent use.
type Analyzer struct {
	cfg    Config
	plan   *algofft.Plan[complex128]
	coeffs []float64
	frame  []complex128
	bins   []complex128
	power  []float64
	accum  []float64
}

func normalizeConfig(cfg Config) Config {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = core.DefaultProcessorConfig().SampleRate
	}
	if cfg.CutoffHz <= 0 {
		cfg.CutoffHz = defaultCutoffHz
	}
	cfg.CutoffHz = math.Min(cfg.CutoffHz, cfg.SampleRate/2)
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = defaultFFTSize
	}
	cfg.FFTSize = min(nextPowerOf2(cfg.FFTSize), maxFFTSize)
	if cfg.WindowType == window.TypeRectangular {
		cfg.WindowType = window.TypeHann
	}
	return cfg
}

// NewAnalyzer creates an analyzer for cfg.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	cfg = normalizeConfig(cfg)

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, err
	}

	bins := cfg.FFTSize/2 + 1
	return &Analyzer{
		cfg:    cfg,
		plan:   plan,
		coeffs: window.Generate(cfg.WindowType, cfg.FFTSize, window.WithPeriodic()),
		frame:  make([]complex128, cfg.FFTSize),
		bins:   make([]complex128, cfg.FFTSize),
		power:  make([]float64, bins),
		accum:  make([]float64, bins),
	}, nil
}

// Config returns the normalized configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze is a one-shot seam analysis.
func Analyze(samples []float64, cfg Config) Result {
	a, err := NewAnalyzer(cfg)
	if err != nil {
		return timeDomain(samples)
	}
	return a.Analyze(samples)
}

// AnalyzeInt16 converts full-scale int16 samples and analyzes them.
func AnalyzeInt16(samples []int16, cfg Config) Result {
	f := make([]float64, len(samples))
	core.Int16ToFloat(f, samples)
	return Analyze(f, cfg)
}

// Analyze measures samples.
func (a *Analyzer) Analyze(samples []float64) Result {
	res := timeDomain(samples)
	if len(samples) == 0 {
		return res
	}

	n := a.cfg.FFTSize
	core.Zero(a.accum)

	if len(samples) < n {
		coeffs := window.Generate(a.cfg.WindowType, len(samples), window.WithPeriodic())
		if !a.accumulate(samples, coeffs) {
			return res
		}
		res.Frames = 1
	} else {
		for start := 0; ; start += n / 2 {
			start = min(start, len(samples)-n)
			if !a.accumulate(samples[start:start+n], a.coeffs) {
				return res
			}
			res.Frames++
			if start+n == len(samples) {
				break
			}
		}
	}

	total := 0.0
	for _, p := range a.accum {
		total += p
	}
	if total <= 0 {
		return res
	}

	high, err := spectrum.BandEnergy(a.accum, n, a.cfg.SampleRate, a.cfg.CutoffHz, math.Inf(1))
	if err != nil {
		return res
	}
	res.HighBandRatio = high / total
	return res
}

func (a *Analyzer) accumulate(seg, coeffs []float64) bool {
	for i := range a.frame {
		v := 0.0
		if i < len(seg) {
			v = seg[i] * coeffs[i]
		}
		a.frame[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.bins, a.frame); err != nil {
		return false
	}

	spectrum.PowerInto(a.power, a.bins)
	for i, p := range a.power {
		a.accum[i] += p
	}
	return true
}

func timeDomain(samples []float64) Result {
	level := timestats.Calculate(samples)
	res := Result{
		Samples: len(samples),
		RMS:     level.RMS,
		Peak:    level.Peak,
		DC:      level.DC,
	}

	for i := 1; i < len(samples); i++ {
		if step := math.Abs(samples[i] - samples[i-1]); step > res.MaxStep {
			res.MaxStep = step
			res.MaxStepIndex = i
		}
	}
	return res
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
