// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

// Version is the current release version of the Jaeger client in use.
func Version() string {
	return "v0.4.0"
}

// ClientVersion is the value of the "jaeger.version" process tag reported by
// this client.
func ClientVersion() string {
	return "Go-" + Version()
}
