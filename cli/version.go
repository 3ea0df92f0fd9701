// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"runtime"
	"runtime/debug"

	"github.com/tracewire/jaeger"
)

// buildInfo describes the running demo binary.
type buildInfo struct {
	// Client is the jaeger.client-version tag value reported to the agent.
	Client string
	Commit string
	Dirty  bool
	// Platform is the Go toolchain and target, e.g. "go1.22.0 linux/amd64".
	Platform string
}

func readBuildInfo() buildInfo {
	info := buildInfo{
		Client:   jaeger.ClientVersion(),
		Commit:   "none",
		Platform: runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// LogValue groups the build attributes under one log key.
func (b buildInfo) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("client", b.Client),
		slog.String("commit", b.Commit),
		slog.String("platform", b.Platform),
	}
	if b.Dirty {
		attrs = append(attrs, slog.Bool("dirty", true))
	}
	return slog.GroupValue(attrs...)
}
