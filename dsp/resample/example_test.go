package resample

import "fmt"

func ExampleInt16() {
	clip := make([]int16, 44100)
	out, err := Int16(clip, 44100, 48000, WithQuality(QualityFast))
	if err != nil {
		panic(err)
	}
	fmt.Println(len(out))
	// Output:
	// 48000
}

func ExampleConverter_Ratio() {
	c, _ := NewConverter(48000, 44100)
	up, down := c.Ratio()
	fmt.Printf("%d/%d\n", up, down)
	// Output:
	// 147/160
}
