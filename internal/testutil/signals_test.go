package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	// First sample of a sine at phase 0 should be 0.
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 1.0, 64)
	b := DeterministicNoise(42, 1.0, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at index %d", i)
		}
		if a[i] < -1 || a[i] > 1 {
			t.Fatalf("a[%d] = %v out of range", i, a[i])
		}
	}
}

func TestRamp(t *testing.T) {
	r := Ramp(-1, 1, 5)
	want := []float64{-1, -0.5, 0, 0.5, 1}
	RequireSliceNearlyEqual(t, r, want, 1e-15)

	if got := Ramp(0.3, 1, 1); len(got) != 1 || got[0] != 0.3 {
		t.Fatalf("Ramp single = %v, want [0.3]", got)
	}
}

func TestDC(t *testing.T) {
	d := DC(0.25, 4)
	for i, v := range d {
		if v != 0.25 {
			t.Fatalf("d[%d] = %v, want 0.25", i, v)
		}
	}
}
