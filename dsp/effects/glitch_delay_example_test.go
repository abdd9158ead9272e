package effects_test

import (
	"fmt"

	"github.com/cwbudde/algo-glitch/dsp/effects"
)

func ExampleGlitchDelay_ProcessInPlace() {
	gd, err := effects.NewGlitchDelay(44100, effects.WithGlitchDelayMix(0.4))
	if err != nil {
		fmt.Println("error")
		return
	}
	gd.SetLoopSize(0.25)
	gd.SetSpeed(1.5)
	gd.Commit()

	buf := make([]float64, 256)
	buf[0] = 1
	gd.ProcessInPlace(buf)

	fmt.Printf("len=%d dry=%.1f\n", len(buf), buf[0])
	// Output:
	// len=256 dry=0.6
}
