// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package otelsdk

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// Option configures an [Exporter] via [New].
type Option interface {
	apply(context.Context, config) (config, error)
}

type fnOpt func(context.Context, config) (config, error)

func (o fnOpt) apply(ctx context.Context, c config) (config, error) {
	return o(ctx, c)
}

// WithLogger returns an [Option] that will configure logger used.
//
// If this option is not used, an [slog.Logger] backed by an
// [slog.JSONHandler] outputting to STDERR as a default.
func WithLogger(l *slog.Logger) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		c.logger = l
		return c, nil
	})
}

// WithScopeTags returns an [Option] controlling whether the instrumentation
// scope name and version are added as span tags. They are added by default.
func WithScopeTags(enabled bool) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		c.scopeTags = enabled
		return c, nil
	})
}

var errNilReporter = errors.New("nil span reporter")

type config struct {
	logger    *slog.Logger
	scopeTags bool
}

func newConfig(ctx context.Context, options []Option) (config, error) {
	c := config{scopeTags: true}

	var err error
	for _, opt := range options {
		var e error
		c, e = opt.apply(ctx, c)
		err = errors.Join(err, e)
	}
	return c, err
}

func (c config) Logger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{AddSource: true})
	return slog.New(h)
}
