package tcp

import (
	"testing"

	"github.com/xtaci/rtcp/wrap32"
)

func TestSenderSYNThenData(t *testing.T) {
	s := NewTCPSender(10, wrap32.New(0), 100)
	var sent []SenderMessage
	transmit := func(m SenderMessage) { sent = append(sent, m) }

	s.Writer().Push([]byte("hello"))
	s.Writer().Close()
	s.Push(transmit)

	if len(sent) != 1 || !sent[0].SYN {
		t.Fatalf("expected a single SYN-only segment while window=1, got %+v", sent)
	}

	// Peer opens the window; the rest (payload+FIN) now fits.
	s.Receive(ReceiverMessage{HasAckno: true, Ackno: wrap32.New(1), WindowSize: 10})
	sent = nil
	s.Push(transmit)
	if len(sent) != 1 {
		t.Fatalf("expected one more segment, got %d", len(sent))
	}
	msg := sent[0]
	if string(msg.Payload) != "hello" || !msg.FIN {
		t.Fatalf("expected payload=hello FIN=true, got %+v", msg)
	}

	s.Receive(ReceiverMessage{HasAckno: true, Ackno: wrap32.New(7), WindowSize: 10})
	if s.SequenceNumbersInFlight() != 0 {
		t.Fatalf("expected nothing in flight after full ack, got %d", s.SequenceNumbersInFlight())
	}
}

func TestZeroWindowProbing(t *testing.T) {
	s := NewTCPSender(100, wrap32.New(0), 100)
	s.Writer().Push([]byte("abcdefgh"))

	var sent []SenderMessage
	transmit := func(m SenderMessage) { sent = append(sent, m) }

	s.Push(transmit) // SYN, window defaults to 1
	s.Receive(ReceiverMessage{HasAckno: true, Ackno: wrap32.New(1), WindowSize: 0})

	sent = nil
	s.Push(transmit)
	if len(sent) != 1 || len(sent[0].Payload) != 1 {
		t.Fatalf("expected a one-byte probe under a zero window, got %+v", sent)
	}

	rtoBefore := s.rto
	s.Tick(1000, transmit) // 1000ms >= rto=100: the probe is retransmitted
	if s.rto != rtoBefore {
		t.Fatalf("zero-window probe retransmission must not grow the RTO, got %d want %d", s.rto, rtoBefore)
	}
}

func TestRTOBackoffOnSYNLoss(t *testing.T) {
	s := NewTCPSender(10, wrap32.New(0), 100)
	var sent []SenderMessage
	transmit := func(m SenderMessage) { sent = append(sent, m) }

	s.Push(transmit) // sends SYN, starts timer

	s.Tick(99, transmit)
	if len(sent) != 1 {
		t.Fatalf("should not retransmit before RTO elapses")
	}

	s.Tick(1, transmit) // elapsed = 100 >= RTO(100)
	if len(sent) != 2 {
		t.Fatalf("expected retransmission at RTO, got %d sends", len(sent))
	}
	if s.ConsecutiveRetransmissions() != 1 || s.rto != 200 {
		t.Fatalf("expected RTO doubled to 200 and 1 retransmission, got rto=%d retrans=%d", s.rto, s.ConsecutiveRetransmissions())
	}

	s.Tick(200, transmit)
	if len(sent) != 3 || s.rto != 400 || s.ConsecutiveRetransmissions() != 2 {
		t.Fatalf("expected second backoff to 400, got rto=%d retrans=%d sends=%d", s.rto, s.ConsecutiveRetransmissions(), len(sent))
	}

	s.Receive(ReceiverMessage{HasAckno: true, Ackno: wrap32.New(1), WindowSize: 10})
	if s.rto != 100 || s.ConsecutiveRetransmissions() != 0 {
		t.Fatalf("expected RTO and retransmit count reset on new ack, got rto=%d retrans=%d", s.rto, s.ConsecutiveRetransmissions())
	}
}

func TestMakeEmptyMessageCarriesRSTOnError(t *testing.T) {
	s := NewTCPSender(10, wrap32.New(0), 100)
	s.outbound.Reader().SetError()
	msg := s.MakeEmptyMessage()
	if !msg.RST {
		t.Fatalf("expected RST on empty message once outbound stream errored")
	}
	if msg.SequenceLength() != 0 {
		t.Fatalf("empty message must have zero sequence length")
	}
}

func TestPeerRSTSetsOutboundError(t *testing.T) {
	s := NewTCPSender(10, wrap32.New(0), 100)
	s.Receive(ReceiverMessage{RST: true})
	if !s.outbound.Reader().HasError() {
		t.Fatalf("expected outbound stream to error on peer RST")
	}
}

func TestSpuriousAckIgnored(t *testing.T) {
	s := NewTCPSender(10, wrap32.New(0), 100)
	var sent []SenderMessage
	s.Push(func(m SenderMessage) { sent = append(sent, m) })
	s.Receive(ReceiverMessage{HasAckno: true, Ackno: wrap32.New(99), WindowSize: 10})
	if s.lastAckno != 0 {
		t.Fatalf("ack beyond next_abs_seqno must be ignored, got lastAckno=%d", s.lastAckno)
	}
}
