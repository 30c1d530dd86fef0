package tcp

import (
	"testing"

	"github.com/xtaci/rtcp/wrap32"
)

func TestReceiverBasicHandshakeAndData(t *testing.T) {
	r := NewTCPReceiver(65536)
	isn := wrap32.New(5)

	r.Receive(SenderMessage{Seqno: isn, SYN: true})
	msg := r.Send()
	if !msg.HasAckno || msg.Ackno.Raw() != 6 {
		t.Fatalf("expected ackno=6 after SYN, got %+v", msg)
	}

	r.Receive(SenderMessage{Seqno: isn.Add(1), Payload: []byte("hi")})
	if got := string(r.Reader().Peek()); got != "hi" {
		t.Fatalf("got %q, want %q", got, "hi")
	}
	r.Reader().Pop(2)

	r.Receive(SenderMessage{Seqno: isn.Add(3), FIN: true})
	msg = r.Send()
	if !r.Reader().IsFinished() {
		t.Fatalf("expected inbound stream finished after FIN")
	}
	if msg.Ackno.Raw() != 9 {
		t.Fatalf("expected ackno=9 (one past SYN+2+FIN) after close, got %d", msg.Ackno.Raw())
	}
}

func TestReceiverNoAcknoBeforeSYN(t *testing.T) {
	r := NewTCPReceiver(65536)
	msg := r.Send()
	if msg.HasAckno {
		t.Fatalf("ackno must be absent before first SYN")
	}
}

func TestReceiverDropsSeqnoZeroWithoutSYN(t *testing.T) {
	r := NewTCPReceiver(65536)
	isn := wrap32.New(100)
	r.Receive(SenderMessage{Seqno: isn, SYN: true})
	// A segment whose unwrapped abs_seqno resolves to 0 without SYN is invalid.
	r.Receive(SenderMessage{Seqno: isn, Payload: []byte("x")})
	if r.Reader().BytesBuffered() != 0 {
		t.Fatalf("expected invalid zero-seqno segment to be dropped")
	}
}

func TestReceiverLatchesFirstSYNOnly(t *testing.T) {
	r := NewTCPReceiver(65536)
	first := wrap32.New(10)
	second := wrap32.New(999)
	r.Receive(SenderMessage{Seqno: first, SYN: true})
	r.Receive(SenderMessage{Seqno: second, SYN: true})
	if !r.zeroPoint.Equal(first) {
		t.Fatalf("expected zero_point latched to the first SYN, got raw=%d", r.zeroPoint.Raw())
	}
}

func TestReceiverRSTSetsError(t *testing.T) {
	r := NewTCPReceiver(65536)
	r.Receive(SenderMessage{RST: true})
	if !r.Reader().HasError() {
		t.Fatalf("expected inbound stream to error on RST")
	}
	msg := r.Send()
	if !msg.RST {
		t.Fatalf("expected Send() to report RST after inbound error")
	}
}

func TestReceiverWindowSizeCaps(t *testing.T) {
	r := NewTCPReceiver(1 << 20)
	r.Receive(SenderMessage{Seqno: wrap32.New(0), SYN: true})
	msg := r.Send()
	if msg.WindowSize != 1<<16-1 {
		t.Fatalf("window_size should cap at uint16 max, got %d", msg.WindowSize)
	}
}
