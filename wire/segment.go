// Package wire encodes one UDP datagram carrying both directions of a
// connection's protocol traffic: the sender-side segment (seqno/SYN/
// payload/FIN) and the piggybacked receiver-side ack (ackno/window), the way
// a real TCP header combines both in one packet. A conv id in front
// demultiplexes datagrams to the right session on a shared listening socket,
// the same role kcp-go's Segment.conv plays.
package wire

import (
	"encoding/binary"
	"errors"

	"github.com/xtaci/rtcp/tcp"
	"github.com/xtaci/rtcp/wrap32"
)

// Flag bits packed into the single flags byte of an encoded segment.
const (
	flagSYN = 1 << iota
	flagFIN
	flagRST
	flagHasAck
)

// headerSize is the fixed portion of an encoded segment: conv(4) + flags(1)
// + seqno(4) + ackno(4) + window(2) + payload length(2).
const headerSize = 4 + 1 + 4 + 4 + 2 + 2

// ErrShortSegment is returned by Decode when the buffer is too small to hold
// a valid header.
var ErrShortSegment = errors.New("wire: segment shorter than header")

// Segment is the decoded form of one on-the-wire datagram.
type Segment struct {
	Conv     uint32
	Sender   tcp.SenderMessage
	Receiver tcp.ReceiverMessage
}

// Encode appends the wire representation of seg to dst and returns the
// extended slice.
func Encode(dst []byte, seg Segment) []byte {
	var flags byte
	if seg.Sender.SYN {
		flags |= flagSYN
	}
	if seg.Sender.FIN {
		flags |= flagFIN
	}
	if seg.Sender.RST || seg.Receiver.RST {
		flags |= flagRST
	}
	if seg.Receiver.HasAckno {
		flags |= flagHasAck
	}

	header := make([]byte, headerSize)
	p := header
	p = encode32u(p, seg.Conv)
	p = encode8u(p, flags)
	p = encode32u(p, seg.Sender.Seqno.Raw())
	p = encode32u(p, seg.Receiver.Ackno.Raw())
	p = encode16u(p, seg.Receiver.WindowSize)
	encode16u(p, uint16(len(seg.Sender.Payload)))

	dst = append(dst, header...)
	dst = append(dst, seg.Sender.Payload...)
	return dst
}

// Decode parses one datagram's worth of bytes into a Segment.
func Decode(buf []byte) (Segment, error) {
	if len(buf) < headerSize {
		return Segment{}, ErrShortSegment
	}

	var seg Segment
	var flags byte
	var seqno, ackno uint32
	var payloadLen uint16

	p := buf
	p = decode32u(p, &seg.Conv)
	p = decode8u(p, &flags)
	p = decode32u(p, &seqno)
	p = decode32u(p, &ackno)
	p = decode16u(p, &seg.Receiver.WindowSize)
	decode16u(p, &payloadLen)

	rest := buf[headerSize:]
	if int(payloadLen) > len(rest) {
		return Segment{}, ErrShortSegment
	}

	seg.Sender.Seqno = wrap32.New(seqno)
	seg.Sender.SYN = flags&flagSYN != 0
	seg.Sender.FIN = flags&flagFIN != 0
	seg.Sender.RST = flags&flagRST != 0
	if payloadLen > 0 {
		seg.Sender.Payload = append([]byte(nil), rest[:payloadLen]...)
	}

	seg.Receiver.Ackno = wrap32.New(ackno)
	seg.Receiver.HasAckno = flags&flagHasAck != 0
	seg.Receiver.RST = seg.Sender.RST

	return seg, nil
}

func encode8u(p []byte, v byte) []byte {
	p[0] = v
	return p[1:]
}

func decode8u(p []byte, v *byte) []byte {
	*v = p[0]
	return p[1:]
}

func encode16u(p []byte, v uint16) []byte {
	binary.LittleEndian.PutUint16(p, v)
	return p[2:]
}

func decode16u(p []byte, v *uint16) []byte {
	*v = binary.LittleEndian.Uint16(p)
	return p[2:]
}

func encode32u(p []byte, v uint32) []byte {
	binary.LittleEndian.PutUint32(p, v)
	return p[4:]
}

func decode32u(p []byte, v *uint32) []byte {
	*v = binary.LittleEndian.Uint32(p)
	return p[4:]
}
