package reassembler

import (
	"testing"

	"github.com/xtaci/rtcp/bytestream"
)

func TestInOrder(t *testing.T) {
	out := bytestream.New(65536)
	re := New(out)
	re.Insert(0, []byte("abcd"), false)
	if got := string(out.Reader().Peek()); got != "abcd" {
		t.Fatalf("got %q, want %q", got, "abcd")
	}
	re.Insert(4, []byte("efgh"), true)
	if got := string(out.Reader().Peek()); got != "abcdefgh" {
		t.Fatalf("got %q, want %q", got, "abcdefgh")
	}
	if !out.Writer().IsClosed() {
		t.Fatalf("expected stream closed after last substring")
	}
}

func TestS2OutOfOrderSmallCapacity(t *testing.T) {
	out := bytestream.New(8)
	re := New(out)
	re.Insert(3, []byte("lo"), false)
	re.Insert(0, []byte("Hel"), false)
	if got := string(out.Reader().Peek()); got != "Hello" {
		t.Fatalf("got %q, want %q", got, "Hello")
	}
	re.Insert(5, []byte(" Wor"), true)
	if got := string(out.Reader().Peek()); got != "Hello Wo" {
		t.Fatalf("got %q, want %q (clipped to capacity)", got, "Hello Wo")
	}
	if out.Writer().IsClosed() {
		t.Fatalf("stream should not be closed until capacity drains to last_index")
	}
}

func TestS2OutOfOrderLargeCapacity(t *testing.T) {
	out := bytestream.New(16)
	re := New(out)
	re.Insert(3, []byte("lo"), false)
	re.Insert(0, []byte("Hel"), false)
	re.Insert(5, []byte(" Wor"), true)
	if got := string(out.Reader().Peek()); got != "Hello Wor" {
		t.Fatalf("got %q, want %q", got, "Hello Wor")
	}
	if !out.Writer().IsClosed() {
		t.Fatalf("expected stream closed once last_index reached")
	}
}

func TestOverlappingFragmentsMerge(t *testing.T) {
	out := bytestream.New(65536)
	re := New(out)
	re.Insert(0, []byte("abc"), false)
	re.Insert(1, []byte("bcdef"), false)
	if got := string(out.Reader().Peek()); got != "abcdef" {
		t.Fatalf("got %q, want %q", got, "abcdef")
	}
}

func TestDuplicateInsertIsIdempotent(t *testing.T) {
	out := bytestream.New(65536)
	re := New(out)
	re.Insert(0, []byte("abc"), false)
	re.Insert(0, []byte("abc"), false)
	if got := string(out.Reader().Peek()); got != "abc" {
		t.Fatalf("got %q, want %q", got, "abc")
	}
	if out.Writer().BytesPushed() != 3 {
		t.Fatalf("duplicate insert should not double-count bytes pushed")
	}
}

func TestArrivalOrderIndependence(t *testing.T) {
	want := "The quick brown fox"
	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}
	chunks := []struct {
		start int
		data  string
	}{
		{0, "The "},
		{4, "quick "},
		{10, "brown "},
		{16, "fox"},
	}

	for _, order := range orders {
		out := bytestream.New(65536)
		re := New(out)
		for i, idx := range order {
			last := idx == len(chunks)-1
			re.Insert(uint64(chunks[idx].start), []byte(chunks[idx].data), last)
			_ = i
		}
		if got := string(out.Reader().Peek()); got != want {
			t.Fatalf("order %v produced %q, want %q", order, got, want)
		}
	}
}

func TestEmptyLastSubstringPastEndClosesStream(t *testing.T) {
	out := bytestream.New(65536)
	re := New(out)
	re.Insert(0, []byte("ab"), false)
	re.Insert(2, nil, true)
	if !out.Writer().IsClosed() {
		t.Fatalf("expected close from empty is_last fragment at end")
	}
}

func TestBeyondCapacityDiscarded(t *testing.T) {
	out := bytestream.New(4)
	re := New(out)
	re.Insert(10, []byte("xyz"), false)
	if out.Reader().BytesBuffered() != 0 {
		t.Fatalf("fragment beyond window should be discarded, not stored")
	}
	if re.CountBytesPending() != 0 {
		t.Fatalf("CountBytesPending should be 0, got %d", re.CountBytesPending())
	}
}

func TestLastIndexMonotonicMinimum(t *testing.T) {
	out := bytestream.New(65536)
	re := New(out)
	// A far-ahead, not-yet-contiguous fragment claims a larger last_index (11).
	re.Insert(10, []byte("X"), true)
	// A smaller, immediately-contiguous claim (2) must win: the reassembler
	// keeps the minimum across FIN-bearing fragments, so the stream closes
	// here even though bytes at [2, 10) were never delivered.
	re.Insert(0, []byte("ab"), true)
	if got := string(out.Reader().Peek()); got != "ab" {
		t.Fatalf("got %q, want %q", got, "ab")
	}
	if !out.Writer().IsClosed() {
		t.Fatalf("expected close once bytes_pushed reaches the minimum claimed last_index")
	}
}
