// Package tcp implements the two protocol endpoints that turn cumulative
// acknowledgement and sliding-window flow control, layered over a
// reassembler.Reassembler and a bytestream.ByteStream, into a reliable byte
// stream: TCPSender and TCPReceiver.
package tcp

import "github.com/xtaci/rtcp/wrap32"

// MaxPayloadSize bounds how many bytes TCPSender puts in a single outgoing
// segment's payload.
const MaxPayloadSize = 1000

// SenderMessage is one segment sent from a TCPSender to its peer's
// TCPReceiver.
type SenderMessage struct {
	Seqno   wrap32.Wrap32
	SYN     bool
	Payload []byte
	FIN     bool
	RST     bool
}

// SequenceLength is SYN + len(Payload) + FIN; RST contributes nothing.
func (m SenderMessage) SequenceLength() uint64 {
	n := uint64(len(m.Payload))
	if m.SYN {
		n++
	}
	if m.FIN {
		n++
	}
	return n
}

// ReceiverMessage is one acknowledgement/window-advertisement sent from a
// TCPReceiver back to its peer's TCPSender.
type ReceiverMessage struct {
	Ackno      wrap32.Wrap32
	HasAckno   bool
	WindowSize uint16
	RST        bool
}
