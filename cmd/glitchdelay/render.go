package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cwbudde/algo-glitch/dsp/core"
	"github.com/cwbudde/algo-glitch/internal/audio"
	"github.com/cwbudde/algo-glitch/measure/seam"
)

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	in := fs.String("in", "", "input file (.mp3 or raw s16le); empty renders a tone")
	toneHz := fs.Float64("tone", 220, "tone frequency when no input is given")
	out := fs.String("out", "glitch.raw", "output raw s16le file")
	seconds := fs.Float64("seconds", 10, "render length; 0 uses the input length")
	bpm := fs.Float64("bpm", 0, "fire a beat at this tempo (0 disables)")
	cutoff := fs.Float64("cutoff", 8000, "seam analysis high band cutoff in Hz")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rate := ef.rate
	clip, err := ef.loadInput(*in)
	if err != nil {
		return err
	}
	src, err := newSource(clip, rate, *toneHz, false)
	if err != nil {
		return err
	}

	total := int(*seconds * float64(rate))
	if total <= 0 {
		if clip == nil {
			return fmt.Errorf("render length must be > 0 for tone input")
		}
		total = len(clip)
	}

	gd, _, ctl, err := ef.build(rate)
	if err != nil {
		return err
	}

	var beatEvery time.Duration
	if *bpm > 0 {
		beatEvery = time.Duration(float64(time.Minute) / *bpm)
	}

	quant, err := ef.quantizer()
	if err != nil {
		return err
	}

	block := gd.Config().BlockSize
	in16 := make([]int16, block)
	buf := make([]float64, block)
	rendered := make([]int16, 0, total)
	nextBeat := time.Duration(0)
	start := time.Now()

	for done := 0; done < total; done += block {
		n := min(block, total-done)
		now := time.Duration(float64(done) / float64(rate) * float64(time.Second))

		if beatEvery > 0 && now >= nextBeat {
			ctl.Beat(now)
			nextBeat += beatEvery
		}
		if err := ctl.Tick(now); err != nil {
			return err
		}

		if _, err := audio.ReadFull(src, in16[:n]); err != nil {
			return err
		}
		core.Int16ToFloat(buf[:n], in16[:n])
		gd.ProcessInPlace(buf[:n])
		quant.Int16(in16[:n], buf[:n])
		rendered = append(rendered, in16[:n]...)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := audio.WritePCM(f, rendered); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	log.Printf("rendered %d samples (%.2f s) at %d Hz in %s (%.0fx realtime), %d beats",
		len(rendered), float64(len(rendered))/float64(rate), rate, elapsed.Round(time.Millisecond),
		float64(len(rendered))/float64(rate)/elapsed.Seconds(), ctl.Beats())

	res := seam.AnalyzeInt16(rendered, seam.Config{SampleRate: float64(rate), CutoffHz: *cutoff})
	fmt.Printf("output:     %s\n", *out)
	fmt.Printf("max step:   %.4f (%.1f dBFS) at %.3f s\n",
		res.MaxStep, res.StepDB(), float64(res.MaxStepIndex)/float64(rate))
	fmt.Printf("rms:        %.4f  peak: %.4f\n", res.RMS, res.Peak)
	fmt.Printf("high band:  %.5f of energy above %.0f Hz (%d frames)\n", res.HighBandRatio, *cutoff, res.Frames)
	fmt.Print(gd.Diagnostics().String())
	return nil
}
