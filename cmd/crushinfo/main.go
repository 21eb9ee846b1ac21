// Command crushinfo prints distortion and noise figures of the interpolated
// bit crusher for a range of bit depths.
//
// Usage:
//
//	crushinfo [flags]
//
// Each depth is measured in symmetric and asymmetric mode by crushing a sine
// that sits exactly on an FFT bin.
//
// Examples:
//
//	crushinfo
//	crushinfo -depths 2,2.5,3 -smoothing 0.5
//	crushinfo -depths 4,8 -gamma -0.5 -window flattop
//	crushinfo -reference
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-crush/dsp/core"
	"github.com/cwbudde/algo-crush/dsp/window"
)

const defaultDepths = "1,2,3,4,5,6,8,12,16"

type options struct {
	depths     []float64
	freq       float64
	sampleRate float64
	amplitude  float64
	gamma      float64
	smoothing  float64
	window     window.Type
	size       int
	reference  bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	rows := make([]row, 0, 2*len(opts.depths))
	for _, depth := range opts.depths {
		for _, symmetric := range []bool{true, false} {
			r, err := measure(opts, depth, symmetric)
			if err != nil {
				return fmt.Errorf("depth %g: %w", depth, err)
			}
			rows = append(rows, r)
		}
	}

	return printTable(stdout, opts, rows)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	defaults := core.DefaultProcessorConfig()

	fs := flag.NewFlagSet("crushinfo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	depths := fs.String("depths", defaultDepths, "comma-separated bit depths in [1,16], fractions allowed")
	freq := fs.Float64("freq", 997, "test tone frequency in Hz (snapped to the nearest FFT bin)")
	rate := fs.Float64("rate", defaults.SampleRate, "sample rate in Hz")
	amp := fs.Float64("amp", 0.9, "test tone peak amplitude in (0,1]")
	gamma := fs.Float64("gamma", 0, "gamma control in [-1,1]; the exponent is 10^gamma")
	smoothing := fs.Float64("smoothing", 0, "transition smoothing in [0,1]; 0 is a hard staircase")
	windowName := fs.String("window", "hann", "analysis window: rectangular, hann, hamming, blackman, blackmanharris, flattop")
	size := fs.Int("size", 16384, "FFT size in samples (power of two)")
	reference := fs.Bool("reference", false, "add SNR of a mantissa crusher at the same bit count for comparison")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: crushinfo [flags]\n\n")
		fmt.Fprintf(stderr, "Prints THD, THD+N, SNR and DC offset of the interpolated bit crusher.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  crushinfo -depths 2,2.5,3\n")
		fmt.Fprintf(stderr, "  crushinfo -smoothing 0.5 -reference\n")
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{
		freq:      *freq,
		amplitude: *amp,
		gamma:     *gamma,
		smoothing: *smoothing,
		size:      *size,
		reference: *reference,
	}

	var err error
	if opts.depths, err = parseDepths(*depths); err != nil {
		return options{}, err
	}

	if opts.window, err = window.ParseType(*windowName); err != nil {
		return options{}, err
	}

	cfg := core.ApplyProcessorOptions(core.WithSampleRate(*rate), core.WithBlockSize(*size))
	if cfg.SampleRate != *rate {
		return options{}, fmt.Errorf("invalid sample rate: %g", *rate)
	}
	if cfg.BlockSize != *size || *size&(*size-1) != 0 || *size < 64 {
		return options{}, fmt.Errorf("size must be a power of two >= 64: %d", *size)
	}
	opts.sampleRate = cfg.SampleRate

	if opts.amplitude <= 0 || opts.amplitude > 1 {
		return options{}, fmt.Errorf("amplitude must be in (0,1]: %g", opts.amplitude)
	}
	if opts.freq <= 0 || opts.freq >= opts.sampleRate/4 {
		return options{}, fmt.Errorf("frequency must be in (0, %g): %g", opts.sampleRate/4, opts.freq)
	}

	return opts, nil
}

func parseDepths(s string) ([]float64, error) {
	fields := strings.Split(s, ",")

	depths := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}

		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid depth %q: %w", f, err)
		}
		if v < 1 || v > 16 {
			return nil, fmt.Errorf("depth out of range [1,16]: %g", v)
		}

		depths = append(depths, v)
	}

	if len(depths) == 0 {
		return nil, errors.New("no bit depths given")
	}

	return depths, nil
}

func printTable(w io.Writer, opts options, rows []row) error {
	if len(rows) > 0 {
		fmt.Fprintf(w, "tone %.2f Hz @ %g Hz, amplitude %.3f, %s window, %d-point FFT\n\n",
			rows[0].freq, opts.sampleRate, opts.amplitude, opts.window, opts.size)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := "Depth\tMode\tTHD [%]\tTHD+N [dB]\tOdd/Even [dB]\tSNR [dB]\tDC"
	rule := "-----\t----\t-------\t----------\t-------------\t--------\t--"
	if opts.reference {
		header += "\tRef SNR [dB]"
		rule += "\t------------"
	}

	if _, err := fmt.Fprintln(tw, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, rule); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range rows {
		mode := "asym"
		if r.symmetric {
			mode = "sym"
		}

		line := fmt.Sprintf("%g\t%s\t%.4f\t%.2f\t%.2f\t%.2f\t%+.6f",
			r.depth, mode, r.thdPercent, r.thdnDB, r.oddEvenDB, r.snrDB, r.dc)
		if opts.reference {
			line += fmt.Sprintf("\t%.2f", r.referenceSNRdB)
		}

		if _, err := fmt.Fprintln(tw, line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	return tw.Flush()
}
