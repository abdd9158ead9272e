package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-glitch/dsp/delay"
	"github.com/cwbudde/algo-glitch/dsp/glitch"
)

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	var ef engineFlags
	ef.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	gd, _, ctl, err := ef.build(ef.rate)
	if err != nil {
		return err
	}
	quant, err := ef.quantizer()
	if err != nil {
		return err
	}
	if err := ctl.Tick(0); err != nil {
		return err
	}

	cfg := gd.Config()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "sample rate\t%.0f Hz\n", cfg.SampleRate)
	fmt.Fprintf(tw, "block size\t%d\n", cfg.BlockSize)
	fmt.Fprintf(tw, "capacity\t%d bytes\n", cfg.CapacityBytes)
	fmt.Fprintf(tw, "bit depths\t%v\n", delay.SupportedBitDepths())
	for _, bits := range delay.SupportedBitDepths() {
		elements := delay.ElementsFor(cfg.CapacityBytes, bits)
		fmt.Fprintf(tw, "  %d-bit\t%d samples (%.2f s)\n", bits, elements, float64(elements)/cfg.SampleRate)
	}
	fmt.Fprintf(tw, "crossfade\t%d samples (%s)\n", cfg.CrossfadeSamples, cfg.Curve)
	fmt.Fprintf(tw, "write fade\t%d samples\n", cfg.WriteFadeSamples)
	fmt.Fprintf(tw, "max jitter\t%d samples\n", cfg.MaxJitterSamples)
	fmt.Fprintf(tw, "loop range\t%.0f-%.0f ms\n", cfg.MinLoopMillis, cfg.MaxLoopMillis)
	fmt.Fprintf(tw, "head speeds\t%v\n", cfg.HeadSpeeds)
	fmt.Fprintf(tw, "speed ratio\t%g-%g\n", glitch.MinSpeedRatio, glitch.MaxSpeedRatio)
	fmt.Fprintf(tw, "output dither\t%s\n", quant.Type())
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(gd.Diagnostics().String())
	return nil
}
