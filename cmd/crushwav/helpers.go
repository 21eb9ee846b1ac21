package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-crush/dsp/core"
	"github.com/cwbudde/algo-crush/dsp/effectchain"
)

const (
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	wavFormatPCM = 1
)

type crushStats struct {
	sampleRate int
	channels   int
	bitDepth   int
	frames     int
	inputPeak  float64
}

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file       *os.File
	decoder    *wav.Decoder
	sampleRate int
	channels   int
	bitDepth   int
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string, verbose bool) (*wavInputInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)

	if _, err := maxValueForDepth(bitDepth); err != nil {
		_ = f.Close()
		return nil, err
	}

	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit", format.SampleRate, format.NumChannels, bitDepth)
	}

	return &wavInputInfo{
		file:       f,
		decoder:    decoder,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   bitDepth,
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// maxValueForDepth returns the largest positive PCM value for a signed
// integer sample of the given width.
func maxValueForDepth(bitDepth int) (float64, error) {
	switch bitDepth {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
		return math.Exp2(float64(bitDepth-1)) - 1, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth: %d (want 16, 24 or 32)", bitDepth)
	}
}

// pcmToFloat converts interleaved integer PCM to a float buffer in [-1, 1].
func pcmToFloat(buf *audio.IntBuffer, bitDepth int) (*audio.FloatBuffer, error) {
	maxVal, err := maxValueForDepth(bitDepth)
	if err != nil {
		return nil, err
	}

	inv := 1 / maxVal
	out := &audio.FloatBuffer{Format: buf.Format, Data: make([]float64, len(buf.Data))}

	for i, v := range buf.Data {
		out.Data[i] = float64(v) * inv
	}

	return out, nil
}

// floatToPCM converts interleaved float samples to integer PCM, clipping to
// [-1, 1] and rounding to the nearest code.
func floatToPCM(data []float64, format *audio.Format, bitDepth int) (*audio.IntBuffer, error) {
	maxVal, err := maxValueForDepth(bitDepth)
	if err != nil {
		return nil, err
	}

	out := &audio.IntBuffer{Format: format, Data: make([]int, len(data)), SourceBitDepth: bitDepth}
	for i, v := range data {
		out.Data[i] = int(math.Round(core.Clamp(v, -1, 1) * maxVal))
	}

	return out, nil
}

func peakOf(data []float64) float64 {
	peak := 0.0
	for _, v := range data {
		peak = math.Max(peak, math.Abs(v))
	}

	return peak
}

// processBlocks feeds channels through rack in blocks of blockSize frames.
func processBlocks(rack *effectchain.Rack, channels [][]float64, blockSize int, parallel bool) error {
	if len(channels) == 0 {
		return nil
	}

	frames := len(channels[0])
	blocks := make([][]float64, len(channels))

	for start := 0; start < frames; start += blockSize {
		end := min(start+blockSize, frames)
		for ch := range channels {
			blocks[ch] = channels[ch][start:end]
		}

		var err error
		if parallel {
			err = rack.ProcessParallel(blocks)
		} else {
			err = rack.Process(blocks)
		}
		if err != nil {
			return fmt.Errorf("process frames %d-%d: %w", start, end, err)
		}
	}

	return nil
}

// writeWAV encodes buf as a PCM WAV file at path.
func writeWAV(path string, buf *audio.IntBuffer, bitDepth int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	enc := wav.NewEncoder(f, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}

	return nil
}

// crushWAV decodes inputPath, crushes every channel and writes outputPath.
func crushWAV(inputPath, outputPath string, s settings) (*crushStats, error) {
	input, err := openWAVInput(inputPath, s.verbose)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	pcm, err := input.decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	samples, err := pcmToFloat(pcm, input.bitDepth)
	if err != nil {
		return nil, err
	}

	stats := &crushStats{
		sampleRate: input.sampleRate,
		channels:   input.channels,
		bitDepth:   input.bitDepth,
		frames:     len(samples.Data) / max(input.channels, 1),
		inputPeak:  peakOf(samples.Data),
	}

	if s.normalize {
		transforms.NormalizeMax(samples)
		if s.verbose {
			log.Printf("Normalized input peak %.4f to 1.0", stats.inputPeak)
		}
	}

	channels, err := core.Deinterleave(nil, samples.Data, input.channels)
	if err != nil {
		return nil, err
	}

	rack, err := effectchain.NewRack(
		effectchain.Context{SampleRate: float64(input.sampleRate)},
		effectchain.DefaultRegistry(),
		effectchain.EffectTypeCrusher,
		input.channels,
	)
	if err != nil {
		return nil, err
	}

	if err := rack.Configure(s.params()); err != nil {
		return nil, err
	}

	if err := processBlocks(rack, channels, s.blockSize, s.parallel); err != nil {
		return nil, err
	}

	interleaved, err := core.Interleave(samples.Data, channels)
	if err != nil {
		return nil, err
	}

	out, err := floatToPCM(interleaved, &audio.Format{
		SampleRate:  input.sampleRate,
		NumChannels: input.channels,
	}, input.bitDepth)
	if err != nil {
		return nil, err
	}

	if err := writeWAV(outputPath, out, input.bitDepth); err != nil {
		return nil, err
	}

	if s.verbose {
		log.Printf("Wrote %d frames in blocks of %d", stats.frames, s.blockSize)
	}

	return stats, nil
}
