package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-glitch/dsp/core"
	"github.com/cwbudde/algo-glitch/dsp/dither"
	"github.com/cwbudde/algo-glitch/dsp/glitch"
	"github.com/cwbudde/algo-glitch/internal/audio"
	"github.com/cwbudde/algo-glitch/internal/tui"
)

// statusEvery is how many blocks pass between snapshots for the UI.
const statusEvery = 32

func runPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	in := fs.String("in", "", "input file (.mp3 or raw s16le); empty plays a tone")
	toneHz := fs.Float64("tone", 220, "tone frequency when no input is given")
	logFile := fs.String("log-file", "glitchdelay.log", "log file while the UI owns the terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return err
	}
	defer f.Close()
	log.SetOutput(f)
	defer log.SetOutput(os.Stderr)

	rate := ef.rate
	clip, err := ef.loadInput(*in)
	if err != nil {
		return err
	}
	src, err := newSource(clip, rate, *toneHz, true)
	if err != nil {
		return err
	}
	gd, panel, ctl, err := ef.build(rate)
	if err != nil {
		return err
	}

	out, err := audio.NewOutput(rate)
	if err != nil {
		return err
	}
	defer out.Close()

	quant, err := ef.quantizer()
	if err != nil {
		return err
	}

	var status atomic.Pointer[glitch.Diagnostics]
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := stream(ctx, gd.Config().BlockSize, rate, src, out, gd, ctl, quant, &status)
		if err != nil && ctx.Err() == nil {
			log.Printf("audio stream stopped: %v", err)
		}
	}()

	err = tui.Run(panel, status.Load)
	cancel()
	// Unblock a Write stuck on the device before waiting.
	out.Close()
	wg.Wait()
	return err
}

type blockProcessor interface {
	ProcessInPlace(buf []float64)
	Diagnostics() glitch.Diagnostics
}

type ticker interface {
	Tick(now time.Duration) error
}

func stream(ctx context.Context, block, rate int, src audio.Source, out *audio.Output,
	proc blockProcessor, ctl ticker, quant *dither.Quantizer, status *atomic.Pointer[glitch.Diagnostics],
) error {
	in16 := make([]int16, block)
	buf := make([]float64, block)

	for n := uint64(0); ; n++ {
		if ctx.Err() != nil {
			return nil
		}

		now := time.Duration(float64(n) * float64(block) / float64(rate) * float64(time.Second))
		if err := ctl.Tick(now); err != nil {
			return err
		}

		if _, err := audio.ReadFull(src, in16); err != nil && err != io.EOF {
			return err
		}
		core.Int16ToFloat(buf, in16)
		proc.ProcessInPlace(buf)
		quant.Int16(in16, buf)

		if err := out.Write(in16); err != nil {
			return err
		}
		if n%statusEvery == 0 {
			d := proc.Diagnostics()
			status.Store(&d)
		}
	}
}
