// +build !linux

package main

import (
	"github.com/xtaci/rtcp/cipher"
	"github.com/xtaci/rtcp/session"
)

func listen(config *Config, block cipher.BlockCrypt) (*session.Listener, error) {
	return session.ListenWithOptions(config.Listen, block)
}
