package effectchain

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-crush/dsp/core"
	"github.com/cwbudde/algo-crush/dsp/effects/crush"
	"gonum.org/v1/gonum/floats"
)

// Crusher control ranges in host units.
const (
	CrusherMinBitDepth  = crush.MinDepth
	CrusherMaxBitDepth  = crush.MaxDepth
	CrusherMinGamma     = -1.0
	CrusherMaxGamma     = 1.0
	CrusherMaxGainDB    = 20.0
	crusherDefaultDepth = 4.0

	// Controls closer than this to the cached value do not re-derive engine
	// settings.
	crusherControlEpsilon = 1e-6

	// Keeps the reserved power term finite at steepness 1.
	crusherPowerOffset = 0.01
)

// crusherControls holds the host-side control values of a crusher node.
type crusherControls struct {
	bitDepth  float64
	gamma     float64
	smoothing float64
	gainDB    float64
	autoGain  bool
	symmetric bool
	mix       float64
}

func crusherControlsFromParams(p Params) crusherControls {
	return crusherControls{
		bitDepth:  core.Clamp(p.GetNum("bitDepth", crusherDefaultDepth), CrusherMinBitDepth, CrusherMaxBitDepth),
		gamma:     core.Clamp(p.GetNum("gamma", 0), CrusherMinGamma, CrusherMaxGamma),
		smoothing: core.Clamp(p.GetNum("smoothing", 0), 0, 1),
		gainDB:    core.Clamp(p.GetNum("gainDB", 0), 0, CrusherMaxGainDB),
		autoGain:  p.GetBool("autoGain", false),
		symmetric: p.GetBool("symmetric", false),
		mix:       core.Clamp(p.GetNum("mix", 1), 0, 1),
	}
}

// crusherRuntime adapts an InterpolatedCrusher to host controls. It maps
// decibels, the gamma exponent and smoothing into engine units and only
// re-derives a setting when its control moved.
type crusherRuntime struct {
	fx         *crush.InterpolatedCrusher
	cached     crusherControls
	configured bool
	bypassed   bool

	dry []float64
}

func newCrusherRuntime(fx *crush.InterpolatedCrusher) *crusherRuntime {
	return &crusherRuntime{fx: fx}
}

func (r *crusherRuntime) Configure(ctx Context, p Params) error {
	if ctx.SampleRate != r.fx.SampleRate() {
		// Envelope time constants are fixed per instance.
		fx, err := crush.New(ctx.SampleRate)
		if err != nil {
			return wrapConfigureErr(err)
		}

		r.fx = fx
		r.configured = false
	}

	r.bypassed = p.Bypassed
	r.apply(crusherControlsFromParams(p))

	return nil
}

func (r *crusherRuntime) apply(next crusherControls) {
	force := !r.configured
	prev := r.cached

	if force || changed(prev.bitDepth, next.bitDepth) {
		r.fx.SetDepth(next.bitDepth)
	}

	if force || changed(prev.gamma, next.gamma) {
		gamma := math.Pow(10, next.gamma)
		r.fx.SetGamma(gamma, 1/gamma)
	}

	if force || changed(prev.smoothing, next.smoothing) {
		steepness := 1 - next.smoothing
		power := 1 / (1 - steepness + crusherPowerOffset)
		r.fx.SetSteepness(steepness, power)
	}

	if force || changed(prev.gainDB, next.gainDB) {
		gain := core.DBToLinear(next.gainDB)
		r.fx.SetGain(gain, 1/gain)
	}

	if force || prev.autoGain != next.autoGain {
		r.fx.SetAutoGain(next.autoGain)
	}

	if force || prev.symmetric != next.symmetric {
		r.fx.SetCrushMode(next.symmetric)
	}

	r.cached = next
	r.configured = true
}

func changed(prev, next float64) bool {
	return math.Abs(next-prev) > crusherControlEpsilon
}

func (r *crusherRuntime) Process(block []float64) {
	if r.bypassed {
		return
	}

	mix := r.cached.mix
	if mix >= 1 {
		r.fx.ProcessInPlace(block)
		return
	}

	r.dry = core.EnsureLen(r.dry, len(block))
	copy(r.dry, block)

	r.fx.ProcessInPlace(block)

	floats.Scale(mix, block)
	floats.AddScaled(block, 1-mix, r.dry)
}

func (r *crusherRuntime) Reset() {
	r.fx.Reset()
}

func wrapConfigureErr(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("effectchain: configure: %w", err)
}
