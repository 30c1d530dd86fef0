package session

import (
	"crypto/rand"
	"encoding/binary"
	"net"

	"github.com/xtaci/rtcp/cipher"
	"github.com/xtaci/rtcp/wire"
	"github.com/xtaci/rtcp/wrap32"
)

// defaultInitialRTO mirrors the original reference implementation's starting
// retransmission timeout.
const defaultInitialRTO = 1000

// Dial opens a socket to raddr and actively establishes a connection over
// it, the client side of kcp-go's DialWithOptions.
func Dial(raddr string, crypt cipher.BlockCrypt) (*Conn, error) {
	udpaddr, err := net.ResolveUDPAddr("udp", raddr)
	if err != nil {
		return nil, err
	}
	pconn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, err
	}
	return newClientConn(pconn, udpaddr, crypt, true)
}

// DialConn establishes a connection over an already-dialed packet socket,
// for callers that need control over socket setup (e.g. Android's VPN
// fd-protection dance in client/utils_android.go) before handshaking.
func DialConn(pconn net.PacketConn, remote net.Addr, crypt cipher.BlockCrypt) (*Conn, error) {
	return newClientConn(pconn, remote, crypt, true)
}

// newClientConn wraps an already-bound PacketConn into a Conn and starts a
// private read loop for it (used by Dial, where the socket belongs to
// exactly one connection).
func newClientConn(pconn net.PacketConn, remote net.Addr, crypt cipher.BlockCrypt, ownsPC bool) (*Conn, error) {
	conv := randomConv()
	isn := wrap32.New(randomConv())
	c := newConn(conv, pconn, remote, crypt, isn, defaultInitialRTO, ownsPC)

	go func() {
		buf := make([]byte, 64*1024)
		for {
			n, addr, err := pconn.ReadFrom(buf)
			if err != nil {
				return
			}
			if !sameAddr(addr, remote) {
				continue
			}
			decodeAndDeliver(c, crypt, buf[:n])
		}
	}()

	// Kick off the handshake: an initial empty Push forces the SYN out
	// immediately rather than waiting for the first update tick.
	c.mu.Lock()
	c.sender.Push(c.transmitLocked)
	c.mu.Unlock()

	return c, nil
}

func decodeAndDeliver(c *Conn, crypt cipher.BlockCrypt, data []byte) {
	if crypt != nil {
		plain, err := crypt.Decrypt(data)
		if err != nil {
			c.snmp.IncInErrs()
			return
		}
		data = plain
	}
	seg, err := wire.Decode(data)
	if err != nil {
		c.snmp.IncInErrs()
		return
	}
	c.snmp.IncInPkts()
	c.snmp.AddBytesReceived(uint64(len(data)))
	c.input(seg)
}

func sameAddr(a, b net.Addr) bool {
	return a.String() == b.String()
}

func randomConv() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}
