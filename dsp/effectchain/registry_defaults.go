package effectchain

import "github.com/cwbudde/algo-crush/dsp/effects/crush"

// EffectTypeCrusher is the registry name of the interpolated bit crusher.
const EffectTypeCrusher = "crusher"

// DefaultRegistry returns a Registry pre-populated with all built-in effect runtimes.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(EffectTypeCrusher, func(ctx Context) (Runtime, error) {
		fx, err := crush.New(ctx.SampleRate)
		if err != nil {
			return nil, err
		}

		return newCrusherRuntime(fx), nil
	})

	return r
}
