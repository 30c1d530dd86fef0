// Package session adapts the tcp package's reliable-stream engine onto a
// net.PacketConn, playing the role spec.md treats as an external
// collaborator: the datagram carrier and the adapter that serializes
// messages onto the wire. It is modeled on kcp-go's UDPSession/Listener
// (vendor/github.com/xtaci/kcp-go/v5/sess.go): one ticker-driven update
// loop per connection, conv-id demultiplexing on a shared socket, and
// non-blocking event channels for Read/Write wakeups.
package session

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/xtaci/rtcp/cipher"
	"github.com/xtaci/rtcp/snmp"
	"github.com/xtaci/rtcp/tcp"
	"github.com/xtaci/rtcp/wire"
	"github.com/xtaci/rtcp/wrap32"
)

// updateInterval is how often the background loop calls Tick/Push, mirroring
// kcp-go's IKCP_INTERVAL default cadence.
const updateInterval = 30 * time.Millisecond

// streamCapacity sizes both the outbound and inbound byte streams.
const streamCapacity = 1 << 20

var errTimeout = errors.New("session: i/o timeout")

// Conn is a reliable, ordered, bidirectional byte stream over a datagram
// socket, implementing net.Conn.
type Conn struct {
	conv   uint32
	pconn  net.PacketConn
	remote net.Addr
	crypt  cipher.BlockCrypt
	snmp   *snmp.Snmp
	ownsPC bool

	sender   *tcp.TCPSender
	receiver *tcp.TCPReceiver

	mu      sync.Mutex
	rd, wd  time.Time
	closed  bool
	dieOnce sync.Once
	die     chan struct{}

	chReadEvent  chan struct{}
	chWriteEvent chan struct{}
}

func newConn(conv uint32, pconn net.PacketConn, remote net.Addr, crypt cipher.BlockCrypt, isn wrap32.Wrap32, initialRTOms uint64, ownsPC bool) *Conn {
	c := &Conn{
		conv:         conv,
		pconn:        pconn,
		remote:       remote,
		crypt:        crypt,
		snmp:         snmp.DefaultSnmp,
		ownsPC:       ownsPC,
		sender:       tcp.NewTCPSender(streamCapacity, isn, initialRTOms),
		receiver:     tcp.NewTCPReceiver(streamCapacity),
		die:          make(chan struct{}),
		chReadEvent:  make(chan struct{}, 1),
		chWriteEvent: make(chan struct{}, 1),
	}
	go c.updateLoop()
	return c
}

// updateLoop periodically drives the sender's retransmission timer and
// flushes any newly-writable application bytes, exactly as
// UDPSession.update() drives kcp.Update() on a ticker.
func (c *Conn) updateLoop() {
	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-c.die:
			return
		case now := <-ticker.C:
			elapsed := uint64(now.Sub(last) / time.Millisecond)
			last = now
			c.mu.Lock()
			c.sender.Tick(elapsed, c.transmitLocked)
			c.sender.Push(c.transmitLocked)
			c.mu.Unlock()
			c.notifyWriteEvent()
		}
	}
}

// transmitLocked encodes and sends one SenderMessage, piggybacking the
// receiver's current ack/window. Caller must hold c.mu.
func (c *Conn) transmitLocked(msg tcp.SenderMessage) {
	seg := wire.Segment{Conv: c.conv, Sender: msg, Receiver: c.receiver.Send()}
	buf := wire.Encode(nil, seg)

	if c.crypt != nil {
		encrypted, err := c.crypt.Encrypt(nil, buf)
		if err != nil {
			return
		}
		buf = encrypted
	}

	if _, err := c.pconn.WriteTo(buf, c.remote); err == nil {
		c.snmp.AddBytesSent(uint64(len(buf)))
		c.snmp.IncOutPkts()
	}
}

// input processes one decoded datagram addressed to this connection.
func (c *Conn) input(seg wire.Segment) {
	c.mu.Lock()
	c.receiver.Receive(seg.Sender)
	c.sender.Receive(seg.Receiver)

	sentSomething := false
	c.sender.Push(func(m tcp.SenderMessage) {
		sentSomething = true
		c.transmitLocked(m)
	})
	if !sentSomething {
		// Always acknowledge, even when we have nothing new of our own to
		// send, so the peer's outstanding segments can clear.
		c.transmitLocked(c.sender.MakeEmptyMessage())
	}
	c.mu.Unlock()

	c.notifyReadEvent()
	c.notifyWriteEvent()
}

func (c *Conn) notifyReadEvent() {
	select {
	case c.chReadEvent <- struct{}{}:
	default:
	}
}

func (c *Conn) notifyWriteEvent() {
	select {
	case c.chWriteEvent <- struct{}{}:
	default:
	}
}

// Read implements net.Conn.
func (c *Conn) Read(b []byte) (int, error) {
	var timeoutCh <-chan time.Time
	c.mu.Lock()
	if !c.rd.IsZero() {
		timer := time.NewTimer(time.Until(c.rd))
		defer timer.Stop()
		timeoutCh = timer.C
	}
	c.mu.Unlock()

	for {
		c.mu.Lock()
		reader := c.receiver.Reader()
		if reader.BytesBuffered() > 0 {
			chunk := reader.Peek()
			n := copy(b, chunk)
			reader.Pop(n)
			c.mu.Unlock()
			return n, nil
		}
		if reader.HasError() {
			c.mu.Unlock()
			return 0, io.ErrClosedPipe
		}
		if reader.IsFinished() {
			c.mu.Unlock()
			return 0, io.EOF
		}
		c.mu.Unlock()

		select {
		case <-c.chReadEvent:
		case <-timeoutCh:
			return 0, errTimeout
		case <-c.die:
			return 0, io.ErrClosedPipe
		}
	}
}

// Write implements net.Conn.
func (c *Conn) Write(b []byte) (int, error) {
	var timeoutCh <-chan time.Time
	c.mu.Lock()
	if !c.wd.IsZero() {
		timer := time.NewTimer(time.Until(c.wd))
		defer timer.Stop()
		timeoutCh = timer.C
	}
	c.mu.Unlock()

	total := 0
	for total < len(b) {
		c.mu.Lock()
		writer := c.sender.Writer()
		if writer.HasError() {
			c.mu.Unlock()
			return total, io.ErrClosedPipe
		}
		avail := writer.AvailableCapacity()
		if avail > 0 {
			n := avail
			if n > len(b)-total {
				n = len(b) - total
			}
			writer.Push(b[total : total+n])
			total += n
			c.sender.Push(c.transmitLocked)
			c.mu.Unlock()
			continue
		}
		c.mu.Unlock()

		select {
		case <-c.chWriteEvent:
		case <-timeoutCh:
			return total, errTimeout
		case <-c.die:
			return total, io.ErrClosedPipe
		}
	}
	return total, nil
}

// Close half-closes the outbound stream (triggering a FIN) and tears down
// the background update loop.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.sender.Writer().Close()
	c.sender.Push(c.transmitLocked)
	c.mu.Unlock()

	c.dieOnce.Do(func() { close(c.die) })
	if c.ownsPC {
		return c.pconn.Close()
	}
	return nil
}

// LocalAddr implements net.Conn.
func (c *Conn) LocalAddr() net.Addr { return c.pconn.LocalAddr() }

// RemoteAddr implements net.Conn.
func (c *Conn) RemoteAddr() net.Addr { return c.remote }

// SetDeadline implements net.Conn.
func (c *Conn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	c.rd, c.wd = t, t
	c.mu.Unlock()
	return nil
}

// SetReadDeadline implements net.Conn.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.rd = t
	c.mu.Unlock()
	return nil
}

// SetWriteDeadline implements net.Conn.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	c.wd = t
	c.mu.Unlock()
	return nil
}

// Conv returns the connection's demultiplexing id.
func (c *Conn) Conv() uint32 { return c.conv }
