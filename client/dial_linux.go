// +build linux

package main

import (
	"net"

	"github.com/pkg/errors"
	"github.com/xtaci/rtcp/cipher"
	"github.com/xtaci/rtcp/session"
	"github.com/xtaci/tcpraw"
)

func dial(config *Config, block cipher.BlockCrypt) (*session.Conn, error) {
	if config.TCP {
		conn, err := tcpraw.Dial("tcp", config.RemoteAddr)
		if err != nil {
			return nil, errors.Wrap(err, "tcpraw.Dial()")
		}
		raddr, err := net.ResolveTCPAddr("tcp", config.RemoteAddr)
		if err != nil {
			return nil, errors.Wrap(err, "net.ResolveTCPAddr()")
		}
		return session.DialConn(conn, raddr, block)
	}
	return session.Dial(config.RemoteAddr, block)
}
