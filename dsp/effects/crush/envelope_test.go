package crush

import (
	"errors"
	"math"
	"testing"
)

func TestNewEnvelopeFollowerValidation(t *testing.T) {
	for _, sr := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewEnvelopeFollower(sr); !errors.Is(err, ErrInvalidSampleRate) {
			t.Errorf("NewEnvelopeFollower(%g) error = %v, want ErrInvalidSampleRate", sr, err)
		}
	}
}

func TestEnvelopeFollowerCoefficients(t *testing.T) {
	for _, sr := range []float64{8000, 44100, 48000, 192000} {
		e, err := NewEnvelopeFollower(sr)
		if err != nil {
			t.Fatalf("NewEnvelopeFollower(%g) error = %v", sr, err)
		}

		if a := e.AttackCoeff(); a <= 0 || a >= 1 {
			t.Errorf("sr=%g attack coeff %g outside (0, 1)", sr, a)
		}
		if r := e.ReleaseCoeff(); r <= 0 || r >= 1 {
			t.Errorf("sr=%g release coeff %g outside (0, 1)", sr, r)
		}
		if e.ReleaseCoeff() <= e.AttackCoeff() {
			t.Errorf("sr=%g release coeff should exceed attack coeff", sr)
		}
	}

	e, _ := NewEnvelopeFollower(48000)
	if want := math.Exp(-1.0 / 24); math.Abs(e.AttackCoeff()-want) > 1e-15 {
		t.Errorf("AttackCoeff() = %g, want %g", e.AttackCoeff(), want)
	}
	if want := math.Exp(-1.0 / 2400); math.Abs(e.ReleaseCoeff()-want) > 1e-15 {
		t.Errorf("ReleaseCoeff() = %g, want %g", e.ReleaseCoeff(), want)
	}
}

func TestEnvelopeFollowerRisesTowardsUnity(t *testing.T) {
	e, err := NewEnvelopeFollower(48000)
	if err != nil {
		t.Fatalf("NewEnvelopeFollower() error = %v", err)
	}

	prevPeak := e.Peak()
	prevGain := math.Inf(1)
	for i := 0; i < 400; i++ {
		gain := e.GainCompensation(1)
		peak := e.Peak()

		if peak <= prevPeak {
			t.Fatalf("step %d: peak %g did not rise above %g", i, peak, prevPeak)
		}
		if gain > prevGain {
			t.Fatalf("step %d: gain %g rose above %g", i, gain, prevGain)
		}
		if gain < 1 || gain > MaxGainCompensation {
			t.Fatalf("step %d: gain %g outside [1, %g]", i, gain, MaxGainCompensation)
		}

		prevPeak, prevGain = peak, gain
	}

	if prevPeak < 0.999 {
		t.Fatalf("peak after 400 samples = %g, want > 0.999", prevPeak)
	}
	if prevGain > 1.001 {
		t.Fatalf("gain after 400 samples = %g, want < 1.001", prevGain)
	}
}

func TestEnvelopeFollowerDecaysOnSilence(t *testing.T) {
	e, _ := NewEnvelopeFollower(48000)
	for i := 0; i < 1000; i++ {
		e.GainCompensation(0.8)
	}

	prev := e.Peak()
	for i := 0; i < 48000; i++ {
		gain := e.GainCompensation(0)
		peak := e.Peak()
		if peak < 0 {
			t.Fatalf("step %d: negative peak %g", i, peak)
		}
		if peak > prev {
			t.Fatalf("step %d: peak rose during silence (%g > %g)", i, peak, prev)
		}
		if gain > MaxGainCompensation {
			t.Fatalf("step %d: gain %g above bound", i, gain)
		}
		prev = peak
	}

	if prev > 1e-6 {
		t.Fatalf("peak after one second of silence = %g, want ~0", prev)
	}
}

func TestEnvelopeFollowerGate(t *testing.T) {
	e, _ := NewEnvelopeFollower(48000)

	if got := e.GainCompensation(0); got != MaxGainCompensation {
		t.Fatalf("silent gain = %g, want %g", got, MaxGainCompensation)
	}
	if MaxGainCompensation != 200 {
		t.Fatalf("MaxGainCompensation = %g, want 200", MaxGainCompensation)
	}

	// A tiny input keeps the peak under the gate.
	if got := e.GainCompensation(0.001); got != MaxGainCompensation {
		t.Fatalf("gated gain = %g, want %g", got, MaxGainCompensation)
	}
}

func TestEnvelopeFollowerReset(t *testing.T) {
	e, _ := NewEnvelopeFollower(44100)
	for i := 0; i < 100; i++ {
		e.GainCompensation(0.5)
	}
	if e.Peak() == 0 {
		t.Fatal("expected non-zero peak before reset")
	}

	e.Reset()
	if e.Peak() != 0 {
		t.Fatalf("Peak() after Reset = %g, want 0", e.Peak())
	}
}
