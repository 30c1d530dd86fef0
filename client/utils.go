// +build !android

package main

import (
	"github.com/xtaci/rtcp/cipher"
	"github.com/xtaci/rtcp/session"
)

// DialSession is the non-VPN entry point used by mobile/library bindings
// that want a connection without going through the CLI's own dial().
func DialSession(raddr string, block cipher.BlockCrypt) (*session.Conn, error) {
	return session.Dial(raddr, block)
}
