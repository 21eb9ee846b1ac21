// Command crushwav renders a WAV file through the interpolated bit crusher.
//
// Usage:
//
//	crushwav -depth 4 input.wav output.wav
//	crushwav -depth 2.5 -smoothing 0.3 -symmetric input.wav output.wav
//	crushwav -depth 6 -auto-gain -mix 0.5 input.wav output.wav
//	crushwav -normalize -parallel=false input.wav output.wav
//
// Every channel is crushed by its own instance. The output keeps the input
// sample rate, channel count and bit depth.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cwbudde/algo-crush/dsp/core"
	"github.com/cwbudde/algo-crush/dsp/effectchain"
)

const minRequiredArgs = 2

type settings struct {
	depth     float64
	gamma     float64
	smoothing float64
	gainDB    float64
	autoGain  bool
	symmetric bool
	mix       float64
	normalize bool
	parallel  bool
	verbose   bool
	blockSize int
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("crushwav", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := core.DefaultProcessorConfig()

	var s settings
	fs.Float64Var(&s.depth, "depth", 4, "bit depth in [1,16]; fractions blend neighbouring depths")
	fs.Float64Var(&s.gamma, "gamma", 0, "gamma control in [-1,1]; the exponent is 10^gamma")
	fs.Float64Var(&s.smoothing, "smoothing", 0, "step smoothing in [0,1]; 0 is a hard staircase")
	fs.Float64Var(&s.gainDB, "gain", 0, "input gain in dB [0,20], undone after crushing")
	fs.BoolVar(&s.autoGain, "auto-gain", false, "follow the input envelope instead of the fixed gain")
	fs.BoolVar(&s.symmetric, "symmetric", false, "quantize the magnitude (grid point at zero)")
	fs.Float64Var(&s.mix, "mix", 1, "dry/wet mix in [0,1]")
	fs.BoolVar(&s.normalize, "normalize", false, "peak-normalize the input before crushing")
	fs.BoolVar(&s.parallel, "parallel", true, "process channels concurrently")
	fs.BoolVar(&s.verbose, "v", false, "verbose output")
	fs.IntVar(&s.blockSize, "block", defaults.BlockSize, "processing block size in frames")

	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) < minRequiredArgs {
		fmt.Fprintf(stderr, "Usage: crushwav [options] input.wav output.wav\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		return fmt.Errorf("insufficient arguments")
	}

	if err := s.validate(); err != nil {
		return err
	}

	inputPath, outputPath := rest[0], rest[1]

	if s.verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Output: %s", outputPath)
		log.Printf("Crusher: depth=%g gamma=%g smoothing=%g gain=%gdB autoGain=%v symmetric=%v mix=%g",
			s.depth, s.gamma, s.smoothing, s.gainDB, s.autoGain, s.symmetric, s.mix)
	}

	start := time.Now()

	stats, err := crushWAV(inputPath, outputPath, s)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	fmt.Fprintf(stdout, "Crushed %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Fprintf(stdout, "  %d Hz, %d channels, %d-bit, %d frames\n",
		stats.sampleRate, stats.channels, stats.bitDepth, stats.frames)
	if s.normalize {
		fmt.Fprintf(stdout, "  Input peak: %.2f dBFS\n", core.LinearToDB(stats.inputPeak))
	}
	fmt.Fprintf(stdout, "  Duration: %.2fs\n", elapsed.Seconds())

	return nil
}

func (s settings) validate() error {
	switch {
	case s.depth < effectchain.CrusherMinBitDepth || s.depth > effectchain.CrusherMaxBitDepth:
		return fmt.Errorf("depth must be in [%g,%g]: %g",
			effectchain.CrusherMinBitDepth, effectchain.CrusherMaxBitDepth, s.depth)
	case s.gamma < effectchain.CrusherMinGamma || s.gamma > effectchain.CrusherMaxGamma:
		return fmt.Errorf("gamma must be in [%g,%g]: %g",
			effectchain.CrusherMinGamma, effectchain.CrusherMaxGamma, s.gamma)
	case s.smoothing < 0 || s.smoothing > 1:
		return fmt.Errorf("smoothing must be in [0,1]: %g", s.smoothing)
	case s.gainDB < 0 || s.gainDB > effectchain.CrusherMaxGainDB:
		return fmt.Errorf("gain must be in [0,%g] dB: %g", effectchain.CrusherMaxGainDB, s.gainDB)
	case s.mix < 0 || s.mix > 1:
		return fmt.Errorf("mix must be in [0,1]: %g", s.mix)
	case s.blockSize <= 0:
		return fmt.Errorf("block size must be > 0: %d", s.blockSize)
	}

	return nil
}

// params converts the command line settings into crusher host controls.
func (s settings) params() effectchain.Params {
	p := effectchain.Params{
		Type: effectchain.EffectTypeCrusher,
		Num: map[string]float64{
			"bitDepth":  s.depth,
			"gamma":     s.gamma,
			"smoothing": s.smoothing,
			"gainDB":    s.gainDB,
			"mix":       s.mix,
		},
	}

	if s.autoGain {
		p.Num["autoGain"] = 1
	}
	if s.symmetric {
		p.Num["symmetric"] = 1
	}

	return p
}
