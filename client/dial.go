// +build !linux

package main

import (
	"github.com/xtaci/rtcp/cipher"
	"github.com/xtaci/rtcp/session"
)

func dial(config *Config, block cipher.BlockCrypt) (*session.Conn, error) {
	return session.Dial(config.RemoteAddr, block)
}
