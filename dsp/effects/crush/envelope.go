package crush

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-crush/dsp/core"
)

const (
	envelopeAttackMs  = 0.5
	envelopeReleaseMs = 50.0

	// Below the gate the follower reports maximum gain instead of 1/peak.
	envelopeGateThreshold = 0.005
	envelopeTargetLevel   = 1.0

	// MaxGainCompensation is the largest gain an EnvelopeFollower reports.
	MaxGainCompensation = envelopeTargetLevel / envelopeGateThreshold
)

// EnvelopeFollower tracks the exponential peak level of a rectified signal
// and turns it into a gain that normalises the signal towards unity.
//
// The peak rises with a 0.5 ms attack and decays with a 50 ms release. The
// time constants are fixed when the follower is created.
type EnvelopeFollower struct {
	attackCoeff     float64
	attackCoeffComp float64
	releaseCoeff    float64
	peak            float64
}

// NewEnvelopeFollower creates a follower for the given sample rate.
func NewEnvelopeFollower(sampleRate float64) (*EnvelopeFollower, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}

	attack := timeConstantCoeff(envelopeAttackMs, sampleRate)

	return &EnvelopeFollower{
		attackCoeff:     attack,
		attackCoeffComp: 1 - attack,
		releaseCoeff:    timeConstantCoeff(envelopeReleaseMs, sampleRate),
	}, nil
}

// GainCompensation advances the follower by one sample of absInput (which
// must be >= 0) and returns the gain that brings the current peak to unity.
// The result is in (0, MaxGainCompensation].
func (e *EnvelopeFollower) GainCompensation(absInput float64) float64 {
	if absInput > e.peak {
		e.peak = e.attackCoeff*e.peak + e.attackCoeffComp*absInput
	} else {
		e.peak = core.FlushDenormals(e.releaseCoeff * e.peak)
	}

	if e.peak < envelopeGateThreshold {
		return MaxGainCompensation
	}

	return envelopeTargetLevel / e.peak
}

// Peak returns the current peak estimate.
func (e *EnvelopeFollower) Peak() float64 { return e.peak }

// AttackCoeff returns the one-pole attack coefficient.
func (e *EnvelopeFollower) AttackCoeff() float64 { return e.attackCoeff }

// ReleaseCoeff returns the one-pole release coefficient.
func (e *EnvelopeFollower) ReleaseCoeff() float64 { return e.releaseCoeff }

// Reset clears the peak estimate.
func (e *EnvelopeFollower) Reset() {
	e.peak = 0
}

func timeConstantCoeff(timeConstantMs, sampleRate float64) float64 {
	samples := timeConstantMs / 1000 * sampleRate
	return math.Exp(-1 / samples)
}

func validateSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: %f", ErrInvalidSampleRate, sampleRate)
	}
	return nil
}
