// Package quantnoise measures the error a quantizing processor adds to a
// reference signal.
package quantnoise

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmpty is returned when the reference signal has no samples.
	ErrEmpty = errors.New("quantnoise: empty signal")
	// ErrLengthMismatch is returned when reference and processed lengths differ.
	ErrLengthMismatch = errors.New("quantnoise: length mismatch")
)

// Stats summarises the error e[n] = processed[n] - reference[n].
type Stats struct {
	MeanError   float64 // DC component of the error
	StdDevError float64 // sample standard deviation of the error, NaN for one sample
	RMSError    float64
	MaxAbsError float64
	SignalRMS   float64 // RMS of the reference
	SNRdB       float64 // +Inf when the error is zero, -Inf for a silent reference
}

// Compare computes error statistics between reference and processed.
func Compare(reference, processed []float64) (Stats, error) {
	if len(reference) == 0 {
		return Stats{}, ErrEmpty
	}

	if len(processed) != len(reference) {
		return Stats{}, fmt.Errorf("%w: reference has %d samples, processed has %d",
			ErrLengthMismatch, len(reference), len(processed))
	}

	diff := make([]float64, len(reference))
	floats.SubTo(diff, processed, reference)

	mean, stdDev := stat.MeanStdDev(diff, nil)

	n := math.Sqrt(float64(len(diff)))
	errRMS := floats.Norm(diff, 2) / n
	sigRMS := floats.Norm(reference, 2) / n

	return Stats{
		MeanError:   mean,
		StdDevError: stdDev,
		RMSError:    errRMS,
		MaxAbsError: floats.Distance(processed, reference, math.Inf(1)),
		SignalRMS:   sigRMS,
		SNRdB:       snr(sigRMS, errRMS),
	}, nil
}

func snr(signalRMS, errorRMS float64) float64 {
	switch {
	case errorRMS == 0:
		return math.Inf(1)
	case signalRMS == 0:
		return math.Inf(-1)
	default:
		return 20 * math.Log10(signalRMS/errorRMS)
	}
}
