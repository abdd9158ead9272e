package spectrum_test

import (
	"fmt"

	"github.com/cwbudde/algo-glitch/dsp/spectrum"
)

func ExamplePower() {
	bins := []complex128{1 + 0i, 0 + 2i, -3 + 4i}
	pow := spectrum.Power(bins)
	fmt.Printf("%.0f %.0f %.0f\n", pow[0], pow[1], pow[2])
	// Output:
	// 1 4 25
}

func ExampleBandEnergy() {
	power := []float64{1, 2, 3, 4, 5}
	e, _ := spectrum.BandEnergy(power, 8, 8000, 2000, 4000)
	fmt.Printf("%.0f\n", e)
	// Output:
	// 7
}
