package wire

import (
	"bytes"
	"testing"

	"github.com/xtaci/rtcp/tcp"
	"github.com/xtaci/rtcp/wrap32"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	seg := Segment{
		Conv: 42,
		Sender: tcp.SenderMessage{
			Seqno:   wrap32.New(1000),
			SYN:     true,
			Payload: []byte("payload bytes"),
			FIN:     false,
		},
		Receiver: tcp.ReceiverMessage{
			Ackno:      wrap32.New(2000),
			HasAckno:   true,
			WindowSize: 4096,
		},
	}

	buf := Encode(nil, seg)
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Conv != seg.Conv {
		t.Fatalf("Conv = %d, want %d", got.Conv, seg.Conv)
	}
	if got.Sender.Seqno.Raw() != seg.Sender.Seqno.Raw() || !got.Sender.SYN || got.Sender.FIN {
		t.Fatalf("sender fields mismatch: %+v", got.Sender)
	}
	if !bytes.Equal(got.Sender.Payload, seg.Sender.Payload) {
		t.Fatalf("payload mismatch: %q vs %q", got.Sender.Payload, seg.Sender.Payload)
	}
	if !got.Receiver.HasAckno || got.Receiver.Ackno.Raw() != 2000 || got.Receiver.WindowSize != 4096 {
		t.Fatalf("receiver fields mismatch: %+v", got.Receiver)
	}
}

func TestDecodeShortBufferErrors(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err != ErrShortSegment {
		t.Fatalf("expected ErrShortSegment, got %v", err)
	}
}

func TestRSTFlagCoversBothDirections(t *testing.T) {
	seg := Segment{Sender: tcp.SenderMessage{RST: true}}
	buf := Encode(nil, seg)
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Sender.RST || !got.Receiver.RST {
		t.Fatalf("RST must be visible on both decoded faces, got %+v", got)
	}
}
