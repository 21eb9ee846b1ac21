package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-crush/dsp/core"
)

func ExampleApplyProcessorOptions() {
	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(44100),
		core.WithBlockSize(256),
	)

	fmt.Printf("sampleRate=%.0f blockSize=%d channels=%d\n", cfg.SampleRate, cfg.BlockSize, cfg.Channels)

	// Output:
	// sampleRate=44100 blockSize=256 channels=2
}

func ExampleDeinterleave() {
	chans, err := core.Deinterleave(nil, []float64{0.1, -0.1, 0.2, -0.2}, 2)
	if err != nil {
		fmt.Println("error")
		return
	}

	fmt.Println(chans[0], chans[1])

	// Output:
	// [0.1 0.2] [-0.1 -0.2]
}
