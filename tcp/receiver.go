package tcp

import (
	"github.com/xtaci/rtcp/bytestream"
	"github.com/xtaci/rtcp/reassembler"
	"github.com/xtaci/rtcp/wrap32"
)

const maxWindowSize = 1<<16 - 1

// TCPReceiver is a stateless wrapper around a reassembler.Reassembler plus
// the initial sequence number, once learned from the first SYN.
type TCPReceiver struct {
	reassembler *reassembler.Reassembler
	zeroPoint   wrap32.Wrap32
	hasZero     bool
}

// NewTCPReceiver constructs a receiver whose inbound byte stream has the
// given capacity.
func NewTCPReceiver(capacity int) *TCPReceiver {
	return &TCPReceiver{reassembler: reassembler.New(bytestream.New(capacity))}
}

// Reader returns the Reader face of the inbound byte stream, for the
// application to pop assembled bytes from.
func (r *TCPReceiver) Reader() *bytestream.Reader {
	return r.reassembler.Output().Reader()
}

// Receive processes one SenderMessage, inserting its payload into the
// reassembler at the appropriate absolute stream index.
func (r *TCPReceiver) Receive(msg SenderMessage) {
	if msg.RST {
		r.reassembler.Output().Reader().SetError()
		return
	}

	if msg.SYN && !r.hasZero {
		r.zeroPoint = msg.Seqno
		r.hasZero = true
	}

	if !r.hasZero {
		return
	}

	writer := r.reassembler.Output().Writer()
	checkpoint := writer.BytesPushed() + 1
	absSeqno := msg.Seqno.Unwrap(r.zeroPoint, checkpoint)

	var streamIndex uint64
	if msg.SYN {
		streamIndex = 0
	} else {
		if absSeqno == 0 {
			return
		}
		streamIndex = absSeqno - 1
	}

	r.reassembler.Insert(streamIndex, msg.Payload, msg.FIN)
}

// Send builds the next ack/window-advertisement for the peer.
func (r *TCPReceiver) Send() ReceiverMessage {
	writer := r.reassembler.Output().Writer()

	msg := ReceiverMessage{RST: r.reassembler.Output().Reader().HasError()}

	available := writer.AvailableCapacity()
	if available > maxWindowSize {
		available = maxWindowSize
	}
	msg.WindowSize = uint16(available)

	if r.hasZero {
		next := writer.BytesPushed() + 1
		if writer.IsClosed() {
			next++
		}
		msg.Ackno = wrap32.Wrap(next, r.zeroPoint)
		msg.HasAckno = true
	}

	return msg
}
