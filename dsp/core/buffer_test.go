package core

import "testing"

func TestEnsureLenReusesCapacity(t *testing.T) {
	buf := make([]float64, 2, 8)
	got := EnsureLen(buf, 6)
	if len(got) != 6 || cap(got) != 8 {
		t.Fatalf("len=%d cap=%d, want len=6 cap=8", len(got), cap(got))
	}
	if got := EnsureLen(buf, 0); len(got) != 0 {
		t.Fatalf("EnsureLen(0) len=%d, want 0", len(got))
	}
	if got := EnsureLen(nil, 3); len(got) != 3 {
		t.Fatalf("EnsureLen(nil, 3) len=%d, want 3", len(got))
	}
}

func TestDeinterleaveInterleaveRoundTrip(t *testing.T) {
	in := []float64{1, -1, 2, -2, 3, -3}

	chans, err := Deinterleave(nil, in, 2)
	if err != nil {
		t.Fatalf("Deinterleave() error = %v", err)
	}
	if len(chans) != 2 || len(chans[0]) != 3 {
		t.Fatalf("unexpected shape: %d channels, %d frames", len(chans), len(chans[0]))
	}
	if chans[0][2] != 3 || chans[1][2] != -3 {
		t.Fatalf("unexpected channel data: %v", chans)
	}

	out, err := Interleave(nil, chans)
	if err != nil {
		t.Fatalf("Interleave() error = %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("index %d: got %v, want %v", i, out[i], in[i])
		}
	}
}

func TestDeinterleaveErrors(t *testing.T) {
	if _, err := Deinterleave(nil, []float64{1, 2, 3}, 2); err == nil {
		t.Error("expected error for ragged frame count")
	}
	if _, err := Deinterleave(nil, []float64{1, 2}, 0); err == nil {
		t.Error("expected error for zero channels")
	}
}

func TestInterleaveLengthMismatch(t *testing.T) {
	if _, err := Interleave(nil, [][]float64{{1, 2}, {1}}); err == nil {
		t.Error("expected error for mismatched channel lengths")
	}
	out, err := Interleave(nil, nil)
	if err != nil || len(out) != 0 {
		t.Errorf("Interleave(nil) = %v, %v; want empty, nil", out, err)
	}
}
