// Package crush implements an interpolated bit crusher.
//
// The building blocks are:
//   - Quantizer: snaps [0, 1] onto N levels with a tunable transition curve
//     (see Soften) ranging from a linear ramp to a hard staircase.
//   - EnvelopeFollower: 0.5 ms attack / 50 ms release peak tracker that
//     yields a gain normalising the signal towards unity.
//   - InterpolatedCrusher: the per-sample chain. It blends two quantizers at
//     adjacent integer depths for fractional bit depth, applies fixed or
//     automatic gain, warps the signal by gamma before and after quantizing
//     and offers symmetric and asymmetric quantization.
//
// All processing is per sample, allocation free and O(1). Instances hold
// per-channel state; use one InterpolatedCrusher per channel.
package crush
