package main

import (
	"cmp"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-glitch/control"
	"github.com/cwbudde/algo-glitch/dsp/delay"
	"github.com/cwbudde/algo-glitch/dsp/dither"
	"github.com/cwbudde/algo-glitch/dsp/effects"
	"github.com/cwbudde/algo-glitch/dsp/glitch"
	"github.com/cwbudde/algo-glitch/dsp/interp"
	"github.com/cwbudde/algo-glitch/dsp/resample"
	"github.com/cwbudde/algo-glitch/internal/audio"
)

// engineFlags are shared by every subcommand.
type engineFlags struct {
	rate     int
	inRate   int
	loop     float64
	speed    float64
	jitter   float64
	bits     int
	mix      float64
	feedback float64
	heads    [glitch.NumPlayHeads]float64
	seed     uint64
	frozen   bool
	freeRun  bool
	curve    string
	dither   string
}

func (f *engineFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.rate, "rate", 44100, "engine sample rate; inputs are converted to it")
	fs.IntVar(&f.inRate, "in-rate", 0, "sample rate of raw input (0 uses -rate)")
	fs.Float64Var(&f.loop, "loop", 0.5, "loop size in [0, 1]")
	fs.Float64Var(&f.speed, "speed", 1, "speed ratio in [0.125, 4]")
	fs.Float64Var(&f.jitter, "jitter", 0, "loop start jitter in [0, 1]")
	fs.IntVar(&f.bits, "bits", delay.DefaultBitDepth, "storage bit depth (4, 8, 12 or 16)")
	fs.Float64Var(&f.mix, "mix", 0.5, "dry/wet mix in [0, 1]")
	fs.Float64Var(&f.feedback, "feedback", 0, "feedback amount in [0, 1]")
	for i, name := range [glitch.NumPlayHeads]string{"normal", "octave", "reverse"} {
		fs.Float64Var(&f.heads[i], name+"-mix", effects.DefaultGlitchDelayHeadGains[i],
			fmt.Sprintf("%s head gain in [0, %g]", name, effects.MaxGlitchDelayHeadGain))
	}
	fs.Uint64Var(&f.seed, "seed", glitch.DefaultSeed, "jitter seed")
	fs.BoolVar(&f.frozen, "frozen", false, "freeze loop windows instead of following the writer")
	fs.BoolVar(&f.freeRun, "free-run", false, "start as plain delay taps instead of loops")
	fs.StringVar(&f.curve, "curve", interp.CurveLinear.String(), "crossfade curve (linear or equal-power)")
	fs.StringVar(&f.dither, "dither", dither.TypeTriangular.String(), "int16 output dither (none, rectangular or triangular)")
}

// quantizer returns the float to int16 output stage.
func (f *engineFlags) quantizer() (*dither.Quantizer, error) {
	typ, err := dither.ParseType(f.dither)
	if err != nil {
		return nil, err
	}
	return dither.NewQuantizer(dither.WithType(typ), dither.WithSeed(f.seed))
}

func (f *engineFlags) build(sampleRate int) (*effects.GlitchDelay, *control.Panel, *control.Controller, error) {
	curve, err := interp.ParseCurve(f.curve)
	if err != nil {
		return nil, nil, nil, err
	}
	bits := delay.NearestBitDepth(f.bits)

	gd, err := effects.NewGlitchDelay(float64(sampleRate),
		effects.WithGlitchDelayEngine(
			glitch.WithBitDepth(bits),
			glitch.WithSeed(f.seed),
			glitch.WithCrossfadeCurve(curve),
		))
	if err != nil {
		return nil, nil, nil, err
	}

	panel := control.NewPanel(f.mix, f.feedback)
	panel.SetAxis(control.AxisLoopSize, f.loop)
	panel.SetAxis(control.AxisSpeed, control.AxisFromSpeed(f.speed))
	panel.SetAxis(control.AxisJitter, f.jitter)
	for i, g := range f.heads {
		panel.SetAxis(control.AxisNormalMix+control.AxisID(i), control.AxisFromHeadGain(g))
	}

	reduced := control.DefaultReducedBitDepth
	if bits <= reduced {
		reduced = delay.SupportedBitDepths()[0]
	}
	ctl, err := control.NewController(panel, gd, control.WithBitDepths(bits, reduced))
	if err != nil {
		return nil, nil, nil, err
	}

	// The controller starts moving and looping; taps before the first tick
	// flip those defaults.
	if f.frozen {
		panel.Tap(control.ButtonMode)
	}
	if f.freeRun {
		panel.Tap(control.ButtonLoop)
	}
	return gd, panel, ctl, nil
}

// loadInput returns the input clip converted to the engine rate. With no
// file it returns nil and the caller falls back to a tone.
func (f *engineFlags) loadInput(path string) ([]int16, error) {
	if path == "" {
		return nil, nil
	}

	clip, rate, err := decodeFile(path, cmp.Or(f.inRate, f.rate))
	if err != nil {
		return nil, err
	}
	if rate == f.rate {
		return clip, nil
	}

	log.Printf("resampling %s from %d Hz to %d Hz", filepath.Base(path), rate, f.rate)
	return resample.Int16(clip, rate, f.rate, resample.WithQuality(resample.QualityBest))
}

func decodeFile(path string, rawRate int) ([]int16, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return audio.DecodeMP3(file)
	case ".raw", ".pcm", ".s16":
		samples, err := audio.ReadPCM(file)
		return samples, rawRate, err
	default:
		return nil, 0, fmt.Errorf("unsupported input %q: want .mp3 or raw s16le (.raw, .pcm, .s16)", path)
	}
}

func newSource(clip []int16, rate int, toneHz float64, loop bool) (audio.Source, error) {
	if clip != nil {
		return audio.NewSamples(clip, loop), nil
	}
	tone, err := audio.NewTone(toneHz, float64(rate), 0.5)
	if err != nil {
		return nil, err
	}
	// Quarter-second bursts make every loop seam and jump audible.
	tone.Gate(rate/8, rate/4)
	return tone, nil
}
