package crush

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-crush/dsp/core"
)

const (
	// MinDepth and MaxDepth bound the bit depth accepted by the crusher.
	MinDepth = 1.0
	MaxDepth = 16.0

	defaultDepth = 4.0

	// Below this warped magnitude the asymmetric path fades back towards the
	// unquantized value to keep zero crossings clean.
	asymmetricThreshold    = 0.05
	asymmetricThresholdInv = 1 / asymmetricThreshold
)

var (
	// ErrInvalidSampleRate is returned for non-positive or non-finite sample rates.
	ErrInvalidSampleRate = errors.New("crush: sample rate must be > 0 and finite")
	// ErrInvalidOption is returned when a construction option is out of range.
	ErrInvalidOption = errors.New("crush: invalid option")
)

// Option mutates crusher construction parameters.
type Option func(*config) error

type config struct {
	depth        float64
	gain         float64
	gainInverse  float64
	gamma        float64
	gammaInverse float64
	steepness    float64
	power        float64
	autoGain     bool
	symmetric    bool
}

func defaultConfig() config {
	return config{
		depth:        defaultDepth,
		gain:         1,
		gainInverse:  1,
		gamma:        1,
		gammaInverse: 1,
		power:        1,
	}
}

// WithDepth sets the initial bit depth. Fractional values blend between the
// two neighbouring integer depths. Range: [1, 16].
func WithDepth(bits float64) Option {
	return func(cfg *config) error {
		if bits < MinDepth || bits > MaxDepth || !core.IsFinite(bits) {
			return fmt.Errorf("%w: bit depth must be in [%g, %g]: %f", ErrInvalidOption, MinDepth, MaxDepth, bits)
		}
		cfg.depth = bits
		return nil
	}
}

// WithGain sets the fixed input gain and its reciprocal.
func WithGain(gain, gainInverse float64) Option {
	return func(cfg *config) error {
		if err := validatePair("gain", gain, gainInverse); err != nil {
			return err
		}
		cfg.gain, cfg.gainInverse = gain, gainInverse
		return nil
	}
}

// WithGamma sets the gamma exponent and its reciprocal.
func WithGamma(gamma, gammaInverse float64) Option {
	return func(cfg *config) error {
		if err := validatePair("gamma", gamma, gammaInverse); err != nil {
			return err
		}
		cfg.gamma, cfg.gammaInverse = gamma, gammaInverse
		return nil
	}
}

// WithSteepness sets the quantizer transition steepness, nominally in [0, 1].
func WithSteepness(steepness, power float64) Option {
	return func(cfg *config) error {
		if !core.IsFinite(steepness) || !core.IsFinite(power) {
			return fmt.Errorf("%w: steepness and power must be finite: %f, %f", ErrInvalidOption, steepness, power)
		}
		cfg.steepness, cfg.power = steepness, power
		return nil
	}
}

// WithAutoGain enables envelope-following gain compensation.
func WithAutoGain(enabled bool) Option {
	return func(cfg *config) error {
		cfg.autoGain = enabled
		return nil
	}
}

// WithSymmetric selects symmetric (true) or asymmetric (false) quantization.
func WithSymmetric(symmetric bool) Option {
	return func(cfg *config) error {
		cfg.symmetric = symmetric
		return nil
	}
}

func validatePair(name string, v, inv float64) error {
	if v <= 0 || inv <= 0 || !core.IsFinite(v) || !core.IsFinite(inv) {
		return fmt.Errorf("%w: %s and its reciprocal must be > 0 and finite: %f, %f",
			ErrInvalidOption, name, v, inv)
	}
	return nil
}

// InterpolatedCrusher is a bit crusher with continuously variable bit depth.
//
// Each sample is rectified, scaled by a fixed gain or by an envelope-following
// auto gain, clipped to unit magnitude and warped by 1/gamma. The warped value
// is quantized by two quantizers at the neighbouring integer depths whose
// outputs are blended by the fractional part of the depth. The result is
// warped back by gamma, the sign restored and the gain undone.
//
// Symmetric mode quantizes the magnitude. Asymmetric mode quantizes the
// signed value on a grid spanning [-1, 1], which puts no grid point at zero;
// it fades to the unquantized value for very small inputs.
//
// Gain and gamma are taken as value/reciprocal pairs exactly as supplied.
// Callers must keep each pair strictly positive and mutually reciprocal; the
// crusher does not recompute or check them on the real-time path.
//
// An InterpolatedCrusher holds per-channel state and is not safe for
// concurrent use. Use one instance per channel.
type InterpolatedCrusher struct {
	sampleRate float64
	depth      float64

	low      Quantizer
	high     Quantizer
	fraction float64

	gamma        float64
	gammaInverse float64
	gain         float64
	gainInverse  float64

	autoGain  bool
	symmetric bool

	envelope EnvelopeFollower
}

// New creates an interpolated crusher for the given sample rate with optional
// configuration overrides. Defaults: 4-bit, gamma 1, gain 1, steepness 0,
// fixed gain, asymmetric mode.
func New(sampleRate float64, opts ...Option) (*InterpolatedCrusher, error) {
	env, err := NewEnvelopeFollower(sampleRate)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	c := &InterpolatedCrusher{
		sampleRate: sampleRate,
		low:        Quantizer{power: 1},
		high:       Quantizer{power: 1},
		envelope:   *env,
	}
	c.SetDepth(cfg.depth)
	c.SetGain(cfg.gain, cfg.gainInverse)
	c.SetGamma(cfg.gamma, cfg.gammaInverse)
	c.SetSteepness(cfg.steepness, cfg.power)
	c.SetAutoGain(cfg.autoGain)
	c.SetCrushMode(cfg.symmetric)

	return c, nil
}

// SetDepth sets the bit depth. The value is clamped to [1, 16]; NaN is
// ignored. Both quantizers and the blend fraction are updated together.
func (c *InterpolatedCrusher) SetDepth(bits float64) {
	if math.IsNaN(bits) {
		return
	}
	bits = core.Clamp(bits, MinDepth, MaxDepth)

	floorBits := math.Floor(bits)
	ceilBits := math.Ceil(bits)

	c.depth = bits
	c.fraction = bits - floorBits
	c.low.SetLevels(levelsForBits(int(floorBits)))
	c.high.SetLevels(levelsForBits(int(ceilBits)))
}

func levelsForBits(bits int) int {
	return 1<<bits - 1
}

// SetGain sets the fixed gain and its reciprocal. Both must be > 0.
func (c *InterpolatedCrusher) SetGain(gain, gainInverse float64) {
	c.gain = gain
	c.gainInverse = gainInverse
}

// SetGamma sets the gamma exponent and its reciprocal. Both must be > 0.
func (c *InterpolatedCrusher) SetGamma(gamma, gammaInverse float64) {
	c.gamma = gamma
	c.gammaInverse = gammaInverse
}

// SetSteepness sets the transition steepness of both quantizers.
func (c *InterpolatedCrusher) SetSteepness(steepness, power float64) {
	c.low.SetSteepness(steepness, power)
	c.high.SetSteepness(steepness, power)
}

// SetAutoGain switches between fixed gain and envelope-following gain.
func (c *InterpolatedCrusher) SetAutoGain(enabled bool) {
	c.autoGain = enabled
}

// SetCrushMode selects symmetric (true) or asymmetric (false) quantization.
func (c *InterpolatedCrusher) SetCrushMode(symmetric bool) {
	c.symmetric = symmetric
}

// Reset clears the envelope follower. Configuration is kept.
func (c *InterpolatedCrusher) Reset() {
	c.envelope.Reset()
}

// Apply processes one sample.
func (c *InterpolatedCrusher) Apply(input float64) float64 {
	if math.IsNaN(input) {
		return 0
	}
	if math.IsInf(input, 0) {
		input = math.Copysign(1, input)
	}

	absInput := math.Abs(input)
	sign := core.Sign(input)

	gain := c.gain
	if c.autoGain {
		gain = c.envelope.GainCompensation(absInput)
	}

	clamped := math.Min(gain*absInput, 1)
	warped := math.Pow(clamped, c.gammaInverse)

	var quantized float64
	if c.symmetric {
		quantized = c.blend(warped)
	} else {
		quantized = c.asymmetric(sign, warped)
	}

	shaped := signedPow(quantized, c.gamma)
	if c.autoGain {
		return sign * shaped / gain
	}

	return sign * c.gainInverse * shaped
}

// ProcessInPlace applies the crusher to buf in place.
func (c *InterpolatedCrusher) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.Apply(buf[i])
	}
}

// blend runs both quantizers and interpolates by the fractional depth.
func (c *InterpolatedCrusher) blend(x float64) float64 {
	lo := c.low.Crush(x)
	hi := c.high.Crush(x)
	return lo + c.fraction*(hi-lo)
}

func (c *InterpolatedCrusher) asymmetric(sign, warped float64) float64 {
	unquantized := (warped*sign + 1) * 0.5

	quantized := c.blend(unquantized)
	if warped < asymmetricThreshold {
		frac := warped * asymmetricThresholdInv
		quantized = quantized*frac + unquantized*(1-frac)
	}

	return sign * (quantized*2 - 1)
}

// signedPow raises |x| to p and keeps the sign of x, so a quantized value
// that lands just below zero stays finite for non-integer exponents.
func signedPow(x, p float64) float64 {
	if x < 0 {
		return -math.Pow(-x, p)
	}
	return math.Pow(x, p)
}

// SampleRate returns the sample rate in Hz.
func (c *InterpolatedCrusher) SampleRate() float64 { return c.sampleRate }

// Depth returns the clamped bit depth.
func (c *InterpolatedCrusher) Depth() float64 { return c.depth }

// Fraction returns the blend weight of the higher-depth quantizer.
func (c *InterpolatedCrusher) Fraction() float64 { return c.fraction }

// Gain returns the fixed gain and its reciprocal.
func (c *InterpolatedCrusher) Gain() (gain, gainInverse float64) { return c.gain, c.gainInverse }

// Gamma returns the gamma exponent and its reciprocal.
func (c *InterpolatedCrusher) Gamma() (gamma, gammaInverse float64) { return c.gamma, c.gammaInverse }

// Steepness returns the quantizer steepness and reserved power setting.
func (c *InterpolatedCrusher) Steepness() (steepness, power float64) {
	return c.low.Steepness(), c.low.Power()
}

// AutoGain reports whether envelope-following gain is enabled.
func (c *InterpolatedCrusher) AutoGain() bool { return c.autoGain }

// Symmetric reports whether symmetric quantization is selected.
func (c *InterpolatedCrusher) Symmetric() bool { return c.symmetric }

// Low returns a copy of the quantizer at the lower integer depth.
func (c *InterpolatedCrusher) Low() Quantizer { return c.low }

// High returns a copy of the quantizer at the higher integer depth.
func (c *InterpolatedCrusher) High() Quantizer { return c.high }

// EnvelopePeak returns the envelope follower's current peak estimate.
func (c *InterpolatedCrusher) EnvelopePeak() float64 { return c.envelope.Peak() }
