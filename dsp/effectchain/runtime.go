package effectchain

// Runtime is the per-node processing and configuration contract.
type Runtime interface {
	Configure(ctx Context, params Params) error
	Process(block []float64)
}

// Resetter is an optional interface for runtimes with transient state that
// can be cleared without reconfiguring.
type Resetter interface {
	Reset()
}
