package wrap32

import "testing"

func TestWrapUnwrapRoundTrip(t *testing.T) {
	zero := New(0)
	cases := []uint64{0, 1, 7, 1 << 16, 1 << 31, 1<<32 - 1, 1 << 32, 1<<32 + 17}
	for _, n := range cases {
		wrapped := Wrap(n, zero)
		got := wrapped.Unwrap(zero, n)
		if got != n {
			t.Errorf("Unwrap(Wrap(%d, 0), 0, %d) = %d, want %d", n, n, got, n)
		}
	}
}

func TestUnwrapNearCheckpoint(t *testing.T) {
	zero := New(0)
	const base = 10_000_000_000
	for delta := int64(-1000); delta <= 1000; delta += 137 {
		n := uint64(base + delta)
		wrapped := Wrap(n, zero)
		got := wrapped.Unwrap(zero, base)
		if got != n {
			t.Errorf("Unwrap near checkpoint: n=%d delta=%d got=%d", n, delta, got)
		}
	}
}

func TestUnwrapWireBoundary(t *testing.T) {
	// ISN = 2^32 - 2, absolute seqno 3 wraps to wire seqno 1.
	isn := New(uint32(1<<32 - 2))
	wrapped := Wrap(3, isn)
	if wrapped.Raw() != 1 {
		t.Fatalf("Wrap(3, isn) raw = %d, want 1", wrapped.Raw())
	}
	got := wrapped.Unwrap(isn, 0)
	if got != 3 {
		t.Fatalf("Unwrap at wire boundary = %d, want 3", got)
	}
}

func TestUnwrapNeverNegative(t *testing.T) {
	zero := New(0)
	wrapped := Wrap(0, zero)
	got := wrapped.Unwrap(zero, 0)
	if got != 0 {
		t.Fatalf("Unwrap(Wrap(0,0), 0, 0) = %d, want 0", got)
	}
}

func TestAdd(t *testing.T) {
	w := New(1<<32 - 1)
	got := w.Add(1)
	if got.Raw() != 0 {
		t.Fatalf("Add should wrap modulo 2^32, got raw %d", got.Raw())
	}
}
