// Package rpc lets another process control a running emulator.
package rpc

import (
	"net"

	"nescore/emu/log"
)

var modRPC = log.NewModule("rpc")

// serviceName is the name the emulator methods are registered under.
const serviceName = "emu"

// UnusedPort returns a free TCP port on localhost.
func UnusedPort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}
