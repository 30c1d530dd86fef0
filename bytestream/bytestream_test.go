package bytestream

import "testing"

func TestRoundTrip(t *testing.T) {
	s := New(15)
	s.Writer().Push([]byte("hello"))
	if got := s.Reader().BytesBuffered(); got != 5 {
		t.Fatalf("BytesBuffered = %d, want 5", got)
	}
	peeked := s.Reader().Peek()
	if string(peeked) != "hello" {
		t.Fatalf("Peek = %q, want %q", peeked, "hello")
	}
	s.Reader().Pop(5)
	if s.Reader().BytesBuffered() != 0 {
		t.Fatalf("expected empty buffer after pop")
	}
}

func TestCapacityClips(t *testing.T) {
	s := New(2)
	s.Writer().Push([]byte("abcdef"))
	if s.Writer().BytesPushed() != 2 {
		t.Fatalf("BytesPushed = %d, want 2 (excess silently dropped)", s.Writer().BytesPushed())
	}
	if string(s.Reader().Peek()) != "ab" {
		t.Fatalf("Peek = %q, want %q", s.Reader().Peek(), "ab")
	}
}

func TestCloseThenPushErrors(t *testing.T) {
	s := New(10)
	s.Writer().Close()
	s.Writer().Push([]byte("x"))
	if !s.Reader().HasError() {
		t.Fatalf("expected error flag after push following close")
	}
}

func TestCloseThenPushEmptyOK(t *testing.T) {
	s := New(10)
	s.Writer().Close()
	s.Writer().Push(nil)
	if s.Reader().HasError() {
		t.Fatalf("pushing empty data after close should not set error")
	}
}

func TestPopTooMuchErrors(t *testing.T) {
	s := New(10)
	s.Writer().Push([]byte("ab"))
	s.Reader().Pop(5)
	if !s.Reader().HasError() {
		t.Fatalf("expected error flag after over-pop")
	}
}

func TestIsFinished(t *testing.T) {
	s := New(10)
	s.Writer().Push([]byte("ab"))
	s.Writer().Close()
	if s.Reader().IsFinished() {
		t.Fatalf("stream should not be finished while bytes remain buffered")
	}
	s.Reader().Pop(2)
	if !s.Reader().IsFinished() {
		t.Fatalf("stream should be finished once closed and drained")
	}
}

func TestAvailableCapacityTracksPushPop(t *testing.T) {
	s := New(4)
	if got := s.Writer().AvailableCapacity(); got != 4 {
		t.Fatalf("AvailableCapacity = %d, want 4", got)
	}
	s.Writer().Push([]byte("ab"))
	if got := s.Writer().AvailableCapacity(); got != 2 {
		t.Fatalf("AvailableCapacity = %d, want 2", got)
	}
	s.Reader().Pop(1)
	if got := s.Writer().AvailableCapacity(); got != 3 {
		t.Fatalf("AvailableCapacity = %d, want 3", got)
	}
}

func TestRingWrapAround(t *testing.T) {
	s := New(4)
	s.Writer().Push([]byte("ab"))
	s.Reader().Pop(2)
	s.Writer().Push([]byte("cdef"))
	if got := string(appendAll(s.Reader())); got != "cdef" {
		t.Fatalf("ring wraparound produced %q, want %q", got, "cdef")
	}
}

// appendAll drains the reader via repeated Peek/Pop, exercising the case
// where Peek only returns the contiguous prefix up to the wrap point.
func appendAll(r *Reader) []byte {
	var out []byte
	for r.BytesBuffered() > 0 {
		chunk := r.Peek()
		out = append(out, chunk...)
		r.Pop(len(chunk))
	}
	return out
}
