package core

import "fmt"

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Deinterleave splits frame-interleaved samples into one slice per channel.
// The channel slices are reused when they already have the right length.
func Deinterleave(dst [][]float64, interleaved []float64, channels int) ([][]float64, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("deinterleave: channel count must be > 0: %d", channels)
	}
	if len(interleaved)%channels != 0 {
		return nil, fmt.Errorf("deinterleave: %d samples is not a multiple of %d channels",
			len(interleaved), channels)
	}

	frames := len(interleaved) / channels
	if len(dst) != channels {
		dst = make([][]float64, channels)
	}
	for ch := range dst {
		dst[ch] = EnsureLen(dst[ch], frames)
	}

	for i := range frames {
		base := i * channels
		for ch := range channels {
			dst[ch][i] = interleaved[base+ch]
		}
	}

	return dst, nil
}

// Interleave merges per-channel slices into dst, frame by frame. All channels
// must have the same length.
func Interleave(dst []float64, channels [][]float64) ([]float64, error) {
	if len(channels) == 0 {
		return dst[:0], nil
	}

	frames := len(channels[0])
	for ch, data := range channels {
		if len(data) != frames {
			return nil, fmt.Errorf("interleave: channel %d has %d samples, want %d", ch, len(data), frames)
		}
	}

	n := len(channels)
	dst = EnsureLen(dst, frames*n)
	for i := range frames {
		base := i * n
		for ch := range n {
			dst[base+ch] = channels[ch][i]
		}
	}

	return dst, nil
}
