package crush

import "math"

const defaultQuantizerLevels = 15

// Quantizer snaps values in [0, 1] onto a grid of Levels() equal steps. The
// transition between two adjacent grid points is shaped by [Soften], so the
// quantizer can range from a plain linear ramp (steepness 0) to a hard
// staircase (steepness 1).
//
// Inputs outside [0, 1] are not clamped; the caller is expected to range them.
type Quantizer struct {
	levels    int
	step      float64
	stepInv   float64
	steepness float64
	power     float64
}

// NewQuantizer returns a quantizer with the given level count, steepness 0
// and power 1. Level counts below 1 are raised to 1.
func NewQuantizer(levels int) *Quantizer {
	q := &Quantizer{power: 1}
	q.SetLevels(levels)
	return q
}

// SetLevels sets the number of quantization steps. Values below 1 are
// raised to 1 so the step size stays finite.
func (q *Quantizer) SetLevels(levels int) {
	levels = max(levels, 1)
	q.levels = levels
	q.step = 1 / float64(levels)
	q.stepInv = float64(levels)
}

// SetSteepness sets the transition steepness. power is stored but does not
// take part in the transition curve.
func (q *Quantizer) SetSteepness(steepness, power float64) {
	q.steepness = steepness
	q.power = power
}

// Levels returns the number of quantization steps.
func (q *Quantizer) Levels() int { return q.levels }

// Steepness returns the transition steepness.
func (q *Quantizer) Steepness() float64 { return q.steepness }

// Power returns the reserved power setting.
func (q *Quantizer) Power() float64 { return q.power }

// Crush quantizes x. Exact grid points are returned unchanged; values between
// two grid points are placed on the softened transition between them.
func (q *Quantizer) Crush(x float64) float64 {
	scaled := x * q.stepInv
	low := math.Floor(scaled)
	high := math.Ceil(scaled)

	quantizedLow := low * q.step
	if low == high {
		return quantizedLow
	}

	t := (x - quantizedLow) * q.stepInv
	return quantizedLow + Soften(t, q.steepness)*q.step
}

// Soften maps the position t in (0, 1) between two grid points onto the
// transition curve selected by steepness:
//
//   - 0: identity, no audible step.
//   - (0, 0.5): identity blended towards smoothstep 3t²-2t³ with weight 2s.
//   - [0.5, 1]: smoothstep blended towards a hard step at t = 0.5 with
//     weight 2(s-0.5).
//
// At steepness 0.5 both halves reduce to the plain smoothstep.
func Soften(t, steepness float64) float64 {
	if steepness == 0 {
		return t
	}

	smooth := t * t * (3 - 2*t)

	if steepness < 0.5 {
		blend := steepness * 2
		return (1-blend)*t + blend*smooth
	}

	hard := 0.0
	if t >= 0.5 {
		hard = 1
	}

	blend := (steepness - 0.5) * 2
	return (1-blend)*smooth + blend*hard
}
