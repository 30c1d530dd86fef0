package session

import (
	"errors"
	"net"
	"sync"

	"github.com/xtaci/rtcp/cipher"
	"github.com/xtaci/rtcp/wire"
	"github.com/xtaci/rtcp/wrap32"
)

// ErrListenerClosed is returned by Accept once the Listener has been closed.
var ErrListenerClosed = errors.New("session: listener closed")

// Listener accepts inbound connections on a single shared socket,
// demultiplexing datagrams by conv id, the same role kcp-go's Listener
// plays over its monitor()/packetInput() pair.
type Listener struct {
	pconn net.PacketConn
	crypt cipher.BlockCrypt

	mu        sync.Mutex
	conns     map[string]map[uint32]*Conn // remote addr -> conv -> Conn
	accept    chan *Conn
	die       chan struct{}
	closeOnce sync.Once
}

// ListenWithOptions binds laddr and returns a Listener ready to Accept
// inbound connections, mirroring kcp-go's ListenWithOptions (minus the FEC
// shard parameters, which this module does not implement).
func ListenWithOptions(laddr string, crypt cipher.BlockCrypt) (*Listener, error) {
	udpaddr, err := net.ResolveUDPAddr("udp", laddr)
	if err != nil {
		return nil, err
	}
	pconn, err := net.ListenUDP("udp", udpaddr)
	if err != nil {
		return nil, err
	}
	return serve(pconn, crypt), nil
}

// ServeConn wraps an already-bound PacketConn (e.g. one handed off by
// xtaci/tcpraw's raw-TCP emulation) into a Listener, mirroring kcp-go's
// ServeConn.
func ServeConn(pconn net.PacketConn, crypt cipher.BlockCrypt) (*Listener, error) {
	return serve(pconn, crypt), nil
}

// serve wraps an already-bound PacketConn into a Listener.
func serve(pconn net.PacketConn, crypt cipher.BlockCrypt) *Listener {
	l := &Listener{
		pconn:  pconn,
		crypt:  crypt,
		conns:  make(map[string]map[uint32]*Conn),
		accept: make(chan *Conn, 16),
		die:    make(chan struct{}),
	}
	go l.readLoop()
	return l
}

func (l *Listener) readLoop() {
	buf := make([]byte, 64*1024)
	for {
		n, addr, err := l.pconn.ReadFrom(buf)
		if err != nil {
			l.Close()
			return
		}
		data := append([]byte(nil), buf[:n]...)
		if l.crypt != nil {
			plain, err := l.crypt.Decrypt(data)
			if err != nil {
				continue
			}
			data = plain
		}
		seg, err := wire.Decode(data)
		if err != nil {
			continue
		}

		conn, isNew := l.lookupOrCreate(addr, seg.Conv)
		if isNew {
			select {
			case l.accept <- conn:
			default:
				// backlog full; drop the new connection's handshake
				// datagram rather than block the read loop.
				l.removeConn(addr, seg.Conv)
				continue
			}
		}
		conn.snmp.IncInPkts()
		conn.snmp.AddBytesReceived(uint64(n))
		conn.input(seg)
	}
}

func (l *Listener) lookupOrCreate(addr net.Addr, conv uint32) (*Conn, bool) {
	key := addr.String()
	l.mu.Lock()
	defer l.mu.Unlock()

	byConv, ok := l.conns[key]
	if !ok {
		byConv = make(map[uint32]*Conn)
		l.conns[key] = byConv
	}
	if c, ok := byConv[conv]; ok {
		return c, false
	}

	isn := wrap32.New(randomConv())
	c := newConn(conv, l.pconn, addr, l.crypt, isn, defaultInitialRTO, false)
	byConv[conv] = c
	return c, true
}

func (l *Listener) removeConn(addr net.Addr, conv uint32) {
	key := addr.String()
	l.mu.Lock()
	defer l.mu.Unlock()
	if byConv, ok := l.conns[key]; ok {
		delete(byConv, conv)
		if len(byConv) == 0 {
			delete(l.conns, key)
		}
	}
}

// Accept waits for and returns the next inbound connection.
func (l *Listener) Accept() (net.Conn, error) {
	select {
	case c := <-l.accept:
		return c, nil
	case <-l.die:
		return nil, ErrListenerClosed
	}
}

// Close stops accepting new connections and releases the underlying socket.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.die)
		err = l.pconn.Close()
	})
	return err
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.pconn.LocalAddr() }
