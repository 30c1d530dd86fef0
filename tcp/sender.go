package tcp

import (
	"github.com/xtaci/rtcp/bytestream"
	"github.com/xtaci/rtcp/wrap32"
)

// outstandingSegment is one sent-but-not-yet-cumulatively-acked segment,
// paired with the absolute sequence number it was assigned.
type outstandingSegment struct {
	segment  SenderMessage
	absSeqno uint64
}

// TCPSender owns the outbound byte stream, the retransmission timer, and the
// peer-window/ack bookkeeping for one direction of a connection.
type TCPSender struct {
	outbound *bytestream.ByteStream
	isn      wrap32.Wrap32

	initialRTO      uint64
	rto             uint64
	retransmissions uint64

	timer timer

	windowSize   uint16
	lastAckno    uint64
	nextAbsSeqno uint64
	finSent      bool

	outstanding []outstandingSegment
}

// NewTCPSender constructs a sender with the given outbound byte stream
// capacity, initial sequence number, and initial retransmission timeout in
// milliseconds.
func NewTCPSender(capacity int, isn wrap32.Wrap32, initialRTOms uint64) *TCPSender {
	return &TCPSender{
		outbound:   bytestream.New(capacity),
		isn:        isn,
		initialRTO: initialRTOms,
		rto:        initialRTOms,
		windowSize: 1,
	}
}

// Writer returns the Writer face of the outbound byte stream, for the
// application to push bytes onto.
func (s *TCPSender) Writer() *bytestream.Writer {
	return s.outbound.Writer()
}

// SequenceNumbersInFlight returns the total sequence length of all
// outstanding (sent, unacked) segments.
func (s *TCPSender) SequenceNumbersInFlight() uint64 {
	var total uint64
	for _, os := range s.outstanding {
		total += os.segment.SequenceLength()
	}
	return total
}

// ConsecutiveRetransmissions returns how many retransmissions have happened
// since the last new ack was received.
func (s *TCPSender) ConsecutiveRetransmissions() uint64 {
	return s.retransmissions
}

// Push builds and transmits as many segments as the peer's advertised
// window currently allows.
func (s *TCPSender) Push(transmit func(SenderMessage)) {
	reader := s.outbound.Reader()

	if reader.HasError() {
		msg := s.MakeEmptyMessage()
		msg.RST = true
		transmit(msg)
		return
	}

	effectiveWindow := uint64(s.windowSize)
	if effectiveWindow == 0 {
		effectiveWindow = 1
	}
	flight := s.SequenceNumbersInFlight()
	var available uint64
	if effectiveWindow > flight {
		available = effectiveWindow - flight
	}

	for available > 0 {
		msg := SenderMessage{Seqno: wrap32.Wrap(s.nextAbsSeqno, s.isn)}

		if s.nextAbsSeqno == 0 {
			msg.SYN = true
			available--
		}

		payloadLen := available
		if payloadLen > MaxPayloadSize {
			payloadLen = MaxPayloadSize
		}
		peeked := reader.Peek()
		if uint64(len(peeked)) < payloadLen {
			payloadLen = uint64(len(peeked))
		}
		if payloadLen > 0 {
			msg.Payload = append([]byte(nil), peeked[:payloadLen]...)
			reader.Pop(int(payloadLen))
			available -= payloadLen
		}

		if reader.IsFinished() && available > 0 && !s.finSent {
			msg.FIN = true
			available--
			s.finSent = true
		}

		if msg.SequenceLength() == 0 {
			break
		}

		s.outstanding = append(s.outstanding, outstandingSegment{segment: msg, absSeqno: s.nextAbsSeqno})
		s.nextAbsSeqno += msg.SequenceLength()
		transmit(msg)

		if !s.timer.running {
			s.timer.start()
		}
	}
}

// MakeEmptyMessage returns a segment carrying no payload, SYN, or FIN -- used
// to probe an ack/RST without consuming a sequence number. It is never
// tracked as outstanding.
func (s *TCPSender) MakeEmptyMessage() SenderMessage {
	return SenderMessage{
		Seqno: wrap32.Wrap(s.nextAbsSeqno, s.isn),
		RST:   s.outbound.Reader().HasError(),
	}
}

// Receive processes one ReceiverMessage from the peer, updating window size,
// retiring acked segments, and resetting the retransmission timer/backoff.
func (s *TCPSender) Receive(msg ReceiverMessage) {
	if msg.RST {
		s.outbound.Reader().SetError()
		return
	}

	s.windowSize = msg.WindowSize

	if !msg.HasAckno {
		return
	}

	absAckno := msg.Ackno.Unwrap(s.isn, s.nextAbsSeqno)
	if absAckno > s.nextAbsSeqno {
		return
	}

	if absAckno > s.lastAckno {
		s.lastAckno = absAckno
		s.rto = s.initialRTO
		s.retransmissions = 0

		for len(s.outstanding) > 0 {
			os := s.outstanding[0]
			if os.absSeqno+os.segment.SequenceLength() > absAckno {
				break
			}
			s.outstanding = s.outstanding[1:]
		}

		if len(s.outstanding) > 0 {
			s.timer.reset()
		} else {
			s.timer.stop()
		}
	}

	if len(s.outstanding) == 0 {
		s.timer.stop()
	}
}

// Tick advances the retransmission timer by msElapsed and retransmits the
// earliest outstanding segment with exponential backoff if it has fired.
func (s *TCPSender) Tick(msElapsed uint64, transmit func(SenderMessage)) {
	if !s.timer.running {
		return
	}
	s.timer.passTime(msElapsed)

	if s.timer.elapsed >= s.rto {
		if len(s.outstanding) > 0 {
			transmit(s.outstanding[0].segment)

			if s.windowSize > 0 {
				s.rto *= 2
				s.retransmissions++
			}
			s.timer.reset()
		} else {
			s.timer.stop()
		}
	}
}
