package effectchain

import (
	"errors"
	"fmt"
	"sync"
)

// ErrChannelCount is returned when a rack is given more channels than it owns
// or channels of unequal length.
var ErrChannelCount = errors.New("effectchain: channel layout mismatch")

// Rack runs one independent instance of an effect per audio channel. The
// instances share no state, so channels may be processed in any order or
// concurrently.
type Rack struct {
	ctx        Context
	effectType string
	runtimes   []Runtime
}

// NewRack builds channels runtimes of effectType from registry.
func NewRack(ctx Context, registry *Registry, effectType string, channels int) (*Rack, error) {
	if registry == nil {
		return nil, errors.New("effectchain: nil registry")
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: channel count must be > 0: %d", ErrChannelCount, channels)
	}

	runtimes := make([]Runtime, channels)
	for ch := range runtimes {
		rt, err := registry.newRuntime(ctx, effectType)
		if err != nil {
			return nil, fmt.Errorf("effectchain: create %s for channel %d: %w", effectType, ch, err)
		}
		runtimes[ch] = rt
	}

	return &Rack{ctx: ctx, effectType: effectType, runtimes: runtimes}, nil
}

// Channels returns the number of channel instances.
func (r *Rack) Channels() int { return len(r.runtimes) }

// EffectType returns the registry name the rack was built from.
func (r *Rack) EffectType() string { return r.effectType }

// Context returns the rack context.
func (r *Rack) Context() Context { return r.ctx }

// SetContext updates the context used by subsequent Configure calls.
func (r *Rack) SetContext(ctx Context) { r.ctx = ctx }

// Configure applies the same parameters to every channel instance.
func (r *Rack) Configure(params Params) error {
	for ch, rt := range r.runtimes {
		if err := rt.Configure(r.ctx, params); err != nil {
			return fmt.Errorf("effectchain: configure %s channel %d: %w", r.effectType, ch, err)
		}
	}

	return nil
}

// Process runs each channel buffer through its own instance in place.
// Fewer buffers than instances is allowed; the remaining instances are idle.
func (r *Rack) Process(channels [][]float64) error {
	if err := r.checkLayout(channels); err != nil {
		return err
	}

	for ch, block := range channels {
		r.runtimes[ch].Process(block)
	}

	return nil
}

// ProcessParallel is like Process but runs every channel on its own goroutine.
func (r *Rack) ProcessParallel(channels [][]float64) error {
	if err := r.checkLayout(channels); err != nil {
		return err
	}

	if len(channels) < 2 {
		for ch, block := range channels {
			r.runtimes[ch].Process(block)
		}
		return nil
	}

	var wg sync.WaitGroup
	for ch, block := range channels {
		wg.Add(1)
		go func(rt Runtime, block []float64) {
			defer wg.Done()
			rt.Process(block)
		}(r.runtimes[ch], block)
	}
	wg.Wait()

	return nil
}

// Reset clears transient state of every instance that supports it.
func (r *Rack) Reset() {
	for _, rt := range r.runtimes {
		if resetter, ok := rt.(Resetter); ok {
			resetter.Reset()
		}
	}
}

func (r *Rack) checkLayout(channels [][]float64) error {
	if len(channels) > len(r.runtimes) {
		return fmt.Errorf("%w: got %d channels, rack has %d", ErrChannelCount, len(channels), len(r.runtimes))
	}

	for ch := 1; ch < len(channels); ch++ {
		if len(channels[ch]) != len(channels[0]) {
			return fmt.Errorf("%w: channel %d has %d samples, want %d",
				ErrChannelCount, ch, len(channels[ch]), len(channels[0]))
		}
	}

	return nil
}
