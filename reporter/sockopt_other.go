// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package reporter

import (
	"errors"
	"syscall"
)

func socketControl(int) func(network, address string, c syscall.RawConn) error {
	return nil
}

func sendBufferSize(syscall.RawConn) (int, error) {
	return 0, errors.New("SO_SNDBUF not supported")
}
