package main

import (
	"bytes"
	"flag"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-crush/dsp/window"
)

func TestParseDepths(t *testing.T) {
	got, err := parseDepths("1, 2.5,16,")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 16}, got)

	_, err = parseDepths("4,abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid depth")

	_, err = parseDepths("0.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = parseDepths(" , ")
	require.Error(t, err)
}

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Len(t, opts.depths, 9)
	assert.InDelta(t, 48000.0, opts.sampleRate, 0)
	assert.Equal(t, window.TypeHann, opts.window)
	assert.Equal(t, 16384, opts.size)
	assert.False(t, opts.reference)
}

func TestParseFlagsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad window", []string{"-window", "kaiser"}, "unknown type"},
		{"size not power of two", []string{"-size", "1000"}, "power of two"},
		{"size too small", []string{"-size", "32"}, "power of two"},
		{"bad rate", []string{"-rate", "-1"}, "sample rate"},
		{"bad amplitude", []string{"-amp", "1.5"}, "amplitude"},
		{"tone too high", []string{"-freq", "20000"}, "frequency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	var stderr bytes.Buffer

	_, err := parseFlags([]string{"-h"}, &stderr)
	require.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr.String(), "Usage: crushinfo")
}

func TestBinFrequency(t *testing.T) {
	freq, bin := binFrequency(997, 48000, 16384)
	assert.Equal(t, 340, bin)
	assert.InDelta(t, 340*48000.0/16384, freq, 1e-12)

	_, bin = binFrequency(0.1, 48000, 1024)
	assert.Equal(t, 1, bin, "bin must not collapse to DC")
}

func TestMantissaFactor(t *testing.T) {
	assert.InDelta(t, 500000.0, mantissaFactor(1), 1e-6)
	assert.InDelta(t, 15.2587890625, mantissaFactor(16), 1e-9)
	assert.InDelta(t, 1.0, mantissaFactor(30), 0, "factor is clamped to the transform minimum")
}

func testOptions() options {
	return options{
		freq:       997,
		sampleRate: 48000,
		amplitude:  0.9,
		window:     window.TypeHann,
		size:       4096,
		reference:  true,
	}
}

func TestMeasureDepthOrdering(t *testing.T) {
	opts := testOptions()

	low, err := measure(opts, 4, true)
	require.NoError(t, err)
	high, err := measure(opts, 16, true)
	require.NoError(t, err)

	assert.Greater(t, high.snrDB, low.snrDB)
	assert.Greater(t, high.snrDB, 80.0)
	assert.Less(t, high.thdPercent, low.thdPercent)
	assert.Less(t, math.Abs(high.dc), 1e-3)
	assert.False(t, math.IsNaN(high.referenceSNRdB))
}

func TestMeasureCoarseSymmetric(t *testing.T) {
	r, err := measure(testOptions(), 3, true)
	require.NoError(t, err)

	assert.True(t, r.symmetric)
	assert.Less(t, math.Abs(r.dc), 1e-3)
	assert.Greater(t, r.thdPercent, 1.0)
	assert.Less(t, r.snrDB, 30.0)
}

func TestRatioDB(t *testing.T) {
	assert.InDelta(t, 20.0, ratioDB(1, 0.1), 1e-12)
	assert.InDelta(t, 0.0, ratioDB(0, 0), 0)
	assert.True(t, math.IsInf(ratioDB(1, 0), 1))
	assert.True(t, math.IsInf(ratioDB(0, 1), -1))
}

func TestRunPrintsTable(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run([]string{"-depths", "2,4.5", "-size", "1024", "-reference"}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "hann window, 1024-point FFT")
	assert.Contains(t, out, "Ref SNR [dB]")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Summary, blank line, header, rule and four rows.
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[4], "2 "))
	assert.Contains(t, lines[4], "sym")
	assert.Contains(t, lines[5], "asym")
	assert.True(t, strings.HasPrefix(lines[6], "4.5 "))
}

func TestRunRejectsBadFlags(t *testing.T) {
	err := run([]string{"-depths", "17"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
}
