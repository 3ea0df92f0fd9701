// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package reporter

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// socketControl returns a net.ListenConfig Control function setting
// SO_SNDBUF to size before the socket is bound. It returns nil if size is 0.
func socketControl(size int) func(network, address string, c syscall.RawConn) error {
	if size <= 0 {
		return nil
	}
	return func(_, _ string, c syscall.RawConn) error {
		var opErr error
		err := c.Control(func(fd uintptr) {
			opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, size)
		})
		if err != nil {
			return err
		}
		return opErr
	}
}

// sendBufferSize returns the SO_SNDBUF value of c.
func sendBufferSize(c syscall.RawConn) (int, error) {
	var (
		size  int
		opErr error
	)
	err := c.Control(func(fd uintptr) {
		size, opErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF)
	})
	if err != nil {
		return 0, err
	}
	return size, opErr
}
