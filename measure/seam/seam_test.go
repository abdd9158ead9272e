package seam

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-glitch/dsp/interp"
	"github.com/cwbudde/algo-glitch/internal/testutil"
)

const (
	testRate   = 44100.0
	testLength = 8000
	// 441 Hz has a period of exactly 100 samples; the splice lands on a
	// crest.
	testFreq  = 441.0
	spliceAt  = 4025
	fadeWidth = 256
)

func splice(fade int) []float64 {
	a := testutil.DeterministicSine(testFreq, testRate, 0.5, testLength)
	out := make([]float64, testLength)
	for i := range out {
		b := -a[i]
		switch {
		case i < spliceAt:
			out[i] = a[i]
		case i >= spliceAt+fade:
			out[i] = b
		default:
			wOut, wIn := interp.CurveLinear.Weights(float64(i-spliceAt) / float64(fade))
			out[i] = wOut*a[i] + wIn*b
		}
	}
	return out
}

func TestAnalyzeCleanSine(t *testing.T) {
	x := testutil.DeterministicSine(testFreq, testRate, 0.5, testLength)
	res := Analyze(x, Config{SampleRate: testRate})

	wantStep := 0.5 * 2 * math.Pi * testFreq / testRate
	if res.MaxStep > wantStep*1.001 {
		t.Fatalf("MaxStep=%f, want <= %f", res.MaxStep, wantStep)
	}
	if math.Abs(res.RMS-0.5/math.Sqrt2) > 1e-3 {
		t.Fatalf("RMS=%f, want %f", res.RMS, 0.5/math.Sqrt2)
	}
	if math.Abs(res.Peak-0.5) > 1e-3 {
		t.Fatalf("Peak=%f, want 0.5", res.Peak)
	}
	if res.HighBandRatio > 1e-8 {
		t.Fatalf("HighBandRatio=%g, want ~0", res.HighBandRatio)
	}
	// Frames start at 0, 2048 and the end-aligned 3904.
	if res.Frames != 3 {
		t.Fatalf("Frames=%d, want 3", res.Frames)
	}
}

func TestAnalyzeFindsHardSplice(t *testing.T) {
	res := Analyze(splice(0), Config{SampleRate: testRate})
	if res.MaxStepIndex != spliceAt {
		t.Fatalf("MaxStepIndex=%d, want %d", res.MaxStepIndex, spliceAt)
	}
	if math.Abs(res.MaxStep-1) > 5e-3 {
		t.Fatalf("MaxStep=%f, want ~1", res.MaxStep)
	}
	if res.StepDB() > 0.01 || res.StepDB() < -0.1 {
		t.Fatalf("StepDB=%f, want ~0", res.StepDB())
	}
}

func TestCrossfadeSoftensSplice(t *testing.T) {
	cfg := Config{SampleRate: testRate}
	hard := Analyze(splice(0), cfg)
	soft := Analyze(splice(fadeWidth), cfg)

	if soft.MaxStep >= hard.MaxStep/5 {
		t.Fatalf("faded step %f not well below hard step %f", soft.MaxStep, hard.MaxStep)
	}
	if soft.HighBandRatio*10 >= hard.HighBandRatio {
		t.Fatalf("faded high band %g not well below hard %g", soft.HighBandRatio, hard.HighBandRatio)
	}
}

func TestAnalyzeShortAndEmpty(t *testing.T) {
	if res := Analyze(nil, Config{}); res.Samples != 0 || res.Frames != 0 {
		t.Fatalf("empty input: %+v", res)
	}
	if !math.IsInf(Result{}.StepDB(), -1) {
		t.Fatal("silent StepDB should be -Inf")
	}

	x := testutil.DeterministicNoise(7, 0.5, 1000)
	res := Analyze(x, Config{SampleRate: testRate})
	if res.Frames != 1 {
		t.Fatalf("Frames=%d, want 1", res.Frames)
	}
	// White noise spreads evenly, so the band above 8 kHz holds roughly
	// (22050-8000)/22050 of the energy.
	if res.HighBandRatio < 0.5 || res.HighBandRatio > 0.75 {
		t.Fatalf("HighBandRatio=%f, want ~0.64", res.HighBandRatio)
	}
}

func TestNormalizeConfig(t *testing.T) {
	a, err := NewAnalyzer(Config{SampleRate: 8000, CutoffHz: 10000, FFTSize: 1000})
	if err != nil {
		t.Fatal(err)
	}
	cfg := a.Config()
	if cfg.FFTSize != 1024 || cfg.CutoffHz != 4000 {
		t.Fatalf("normalized config = %+v", cfg)
	}
	if cfg.WindowType.String() != "Hann" {
		t.Fatalf("WindowType=%s, want Hann", cfg.WindowType)
	}
}

func TestAnalyzeInt16(t *testing.T) {
	x := testutil.SineInt16(100, 16384, 0, 4096)
	res := AnalyzeInt16(x, Config{SampleRate: testRate})
	if math.Abs(res.Peak-0.5) > 1e-3 {
		t.Fatalf("Peak=%f, want 0.5", res.Peak)
	}
}

func TestAnalyzerReuse(t *testing.T) {
	a, err := NewAnalyzer(Config{SampleRate: testRate, FFTSize: 1024})
	if err != nil {
		t.Fatal(err)
	}
	x := testutil.DeterministicSine(testFreq, testRate, 0.5, 4096)
	first := a.Analyze(x)
	_ = a.Analyze(splice(0))
	if again := a.Analyze(x); again != first {
		t.Fatalf("repeat analysis differs: %+v vs %+v", again, first)
	}
}
