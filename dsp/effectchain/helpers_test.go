package effectchain

import (
	"sync/atomic"
)

// stubRuntime is a minimal Runtime implementation for testing.
type stubRuntime struct {
	configureErr   error
	configureCalls int
	processCalls   atomic.Int32
	resetCalls     int
	lastCtx        Context
	lastParams     Params
}

func (s *stubRuntime) Configure(ctx Context, params Params) error {
	s.configureCalls++
	s.lastCtx = ctx
	s.lastParams = params

	return s.configureErr
}

func (s *stubRuntime) Process(_ []float64) {
	s.processCalls.Add(1)
}

func (s *stubRuntime) Reset() {
	s.resetCalls++
}

// gainRuntime multiplies every sample by a fixed gain.
type gainRuntime struct {
	gain float64
}

func (g *gainRuntime) Configure(_ Context, params Params) error {
	g.gain = params.GetNum("gain", 1.0)

	return nil
}

func (g *gainRuntime) Process(block []float64) {
	for i := range block {
		block[i] *= g.gain
	}
}

func dummyFactory(_ Context) (Runtime, error) {
	return &stubRuntime{}, nil
}

// stubRegistry returns a registry whose "stub" factory records every runtime
// it creates into *created.
func stubRegistry(created *[]*stubRuntime) *Registry {
	r := NewRegistry()
	r.MustRegister("stub", func(_ Context) (Runtime, error) {
		rt := &stubRuntime{}
		*created = append(*created, rt)

		return rt, nil
	})
	r.MustRegister("gain", func(_ Context) (Runtime, error) {
		return &gainRuntime{gain: 1}, nil
	})

	return r
}
