package main

import (
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-crush/dsp/effectchain"
	"github.com/cwbudde/algo-crush/measure/quantnoise"
	"github.com/cwbudde/algo-crush/measure/thd"
)

// transforms.BitCrush rounds the mantissa in steps of this size times factor.
const mantissaBaseStep = 1e-6

type row struct {
	depth          float64
	symmetric      bool
	freq           float64
	thdPercent     float64
	thdnDB         float64
	oddEvenDB      float64
	snrDB          float64
	dc             float64
	referenceSNRdB float64
}

// binFrequency snaps freq to the centre of the nearest FFT bin.
func binFrequency(freq, sampleRate float64, size int) (float64, int) {
	bin := max(int(math.Round(freq*float64(size)/sampleRate)), 1)
	return float64(bin) * sampleRate / float64(size), bin
}

func testTone(amplitude float64, bin, size int) []float64 {
	out := make([]float64, size)
	step := 2 * math.Pi * float64(bin) / float64(size)

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

func measure(opts options, depth float64, symmetric bool) (row, error) {
	freq, bin := binFrequency(opts.freq, opts.sampleRate, opts.size)
	reference := testTone(opts.amplitude, bin, opts.size)

	processed, err := crushTone(opts, reference, depth, symmetric)
	if err != nil {
		return row{}, err
	}

	res, err := thd.AnalyzeSignal(processed, thd.Config{
		SampleRate:      opts.sampleRate,
		FFTSize:         opts.size,
		FundamentalFreq: freq,
		RangeUpperFreq:  opts.sampleRate / 2,
		WindowType:      opts.window,
	})
	if err != nil {
		return row{}, err
	}

	noise, err := quantnoise.Compare(reference, processed)
	if err != nil {
		return row{}, err
	}

	r := row{
		depth:      depth,
		symmetric:  symmetric,
		freq:       freq,
		thdPercent: res.THD * 100,
		thdnDB:     res.THDN_dB,
		oddEvenDB:  ratioDB(res.OddHD, res.EvenHD),
		snrDB:      noise.SNRdB,
		dc:         stat.Mean(processed, nil),
	}

	if opts.reference {
		if r.referenceSNRdB, err = mantissaReferenceSNR(reference, depth); err != nil {
			return row{}, err
		}
	}

	return r, nil
}

// crushTone runs signal through a one-channel crusher rack with the host
// controls taken from opts.
func crushTone(opts options, signal []float64, depth float64, symmetric bool) ([]float64, error) {
	rack, err := effectchain.NewRack(
		effectchain.Context{SampleRate: opts.sampleRate},
		effectchain.DefaultRegistry(),
		effectchain.EffectTypeCrusher,
		1,
	)
	if err != nil {
		return nil, err
	}

	params := effectchain.Params{
		Num: map[string]float64{
			"bitDepth":  depth,
			"gamma":     opts.gamma,
			"smoothing": opts.smoothing,
		},
	}
	if symmetric {
		params.Num["symmetric"] = 1
	}

	if err := rack.Configure(params); err != nil {
		return nil, err
	}

	out := append([]float64(nil), signal...)
	if err := rack.Process([][]float64{out}); err != nil {
		return nil, err
	}

	return out, nil
}

// mantissaFactor returns the transforms.BitCrush factor that keeps bits of
// mantissa resolution.
func mantissaFactor(bits float64) float64 {
	factor := math.Exp2(-bits) / mantissaBaseStep
	return math.Min(math.Max(factor, transforms.CrusherMinFactor), transforms.CrusherMaxFactor)
}

func mantissaReferenceSNR(reference []float64, bits float64) (float64, error) {
	buf := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 1},
		Data:   append([]float64(nil), reference...),
	}
	transforms.BitCrush(buf, mantissaFactor(bits))

	stats, err := quantnoise.Compare(reference, buf.Data)
	if err != nil {
		return 0, fmt.Errorf("reference crusher: %w", err)
	}

	return stats.SNRdB, nil
}

func ratioDB(num, den float64) float64 {
	switch {
	case num <= 0 && den <= 0:
		return 0
	case den <= 0:
		return math.Inf(1)
	case num <= 0:
		return math.Inf(-1)
	default:
		return 20 * math.Log10(num/den)
	}
}
