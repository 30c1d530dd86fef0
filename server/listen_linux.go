// +build linux

package main

import (
	"github.com/pkg/errors"
	"github.com/xtaci/rtcp/cipher"
	"github.com/xtaci/rtcp/session"
	"github.com/xtaci/tcpraw"
)

func listen(config *Config, block cipher.BlockCrypt) (*session.Listener, error) {
	if config.TCP {
		conn, err := tcpraw.Listen("tcp", config.Listen)
		if err != nil {
			return nil, errors.Wrap(err, "tcpraw.Listen()")
		}
		return session.ServeConn(conn, block)
	}
	return session.ListenWithOptions(config.Listen, block)
}
