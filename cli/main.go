// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package main runs jaeger-demo, a program that reports example spans to a
// Jaeger agent over UDP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tracewire/jaeger"
	"github.com/tracewire/jaeger/reporter"
)

const help = `Usage of %s:
  -service string
    	Service name reported with every span (default "jaeger-demo")
  -agent string
    	Jaeger agent address as host:port
  -encoding string
    	Thrift encoding, "compact" or "binary" (default "compact")
  -log-level string
    	Logging level ("debug", "info", "warn", "error")
  -config string
    	YAML file holding any of the settings above
  -metrics string
    	Address to serve Prometheus metrics on (disabled if empty)
  -listen string
    	Address to serve a traced hello handler on (disabled if empty)

Reports two example spans, "main" and its child "sub", to the Jaeger agent and
exits. With -listen set, serves HTTP until interrupted instead, starting a span
for every request as a child of the uber-trace-id header.

Flags take precedence over the -config file, which takes precedence over the
environment:

	- JAEGER_SERVICE_NAME: service name
	- JAEGER_AGENT_HOST, JAEGER_AGENT_PORT: agent address
	- JAEGER_REPORTER_ENCODING: thrift encoding
	- JAEGER_TAGS: comma separated key=value process tags
	- JAEGER_SAMPLER_TYPE, JAEGER_SAMPLER_PARAM: sampler
	- JAEGER_LOG_LEVEL or OTEL_LOG_LEVEL: log level
`

const (
	// envLogLevelKey is the key for the environment variable value containing
	// the log level.
	envLogLevelKey = "JAEGER_LOG_LEVEL"

	defaultService   = "jaeger-demo"
	defaultQueueSize = 1024
)

func usage() {
	program := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, help, program)
}

func newLogger(lvlStr string) *slog.Logger {
	levelVar := new(slog.LevelVar) // Default value of info.
	opts := &slog.HandlerOptions{AddSource: true, Level: levelVar}
	h := slog.NewJSONHandler(os.Stderr, opts)
	logger := slog.New(h)

	if lvlStr == "" {
		lvlStr = os.Getenv(envLogLevelKey)
	}

	if lvlStr == "" {
		return logger
	}

	level, err := jaeger.ParseLogLevel(lvlStr)
	if err != nil {
		logger.Error("failed to parse log level", "error", err, "log-level", lvlStr)
	} else {
		levelVar.Set(level.Level())
	}

	return logger
}

func main() {
	cfg, err := parseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)

	// Trap Ctrl+C and SIGTERM and call cancel on the context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting jaeger-demo", "build", readBuildInfo())

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("jaeger-demo failed", "error", err)
		cancel()
		os.Exit(1)
	}

	logger.Info("shutting down")
}

func run(ctx context.Context, logger *slog.Logger, cfg config) error {
	reg := prometheus.NewRegistry()
	opts, err := cfg.reporterOptions(logger, reg)
	if err != nil {
		return err
	}

	r, err := reporter.New(ctx, defaultService, opts...)
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Error("failed to close reporter", "error", err)
		}
	}()
	logger.Debug("reporter created",
		"service", r.ServiceName(),
		"agent", r.AgentAddr().String(),
		"local", r.LocalAddr().String(),
		"encoding", r.Encoding().String(),
	)

	if cfg.Metrics != "" {
		srv, addr, err := serveMetrics(cfg.Metrics, reg)
		if err != nil {
			return fmt.Errorf("serve metrics: %w", err)
		}
		defer shutdown(logger, srv)
		logger.Info("serving metrics", "addr", addr.String())
	}

	sampler, err := jaeger.SamplerFromEnv()
	if err != nil {
		return fmt.Errorf("configure sampler: %w", err)
	}
	q := jaeger.NewSpanQueue(defaultQueueSize, jaeger.OverflowDropOldest)
	tracer := jaeger.NewTracer(sampler, q)

	if cfg.Listen != "" {
		return serveHello(ctx, logger, cfg.Listen, tracer, r, q)
	}

	if err := emitDemoSpans(tracer, logger); err != nil {
		return err
	}
	q.Close()
	return r.Run(ctx, q)
}

// serveHello serves the hello handler on addr until ctx is done, then
// reports every span queued so far.
func serveHello(ctx context.Context, logger *slog.Logger, addr string, tracer *jaeger.Tracer, r *reporter.Reporter, q *jaeger.SpanQueue) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		// Drain the queue after ctx is done.
		done <- r.Run(context.WithoutCancel(ctx), q)
	}()

	srv := &http.Server{
		Handler:           &helloHandler{tracer: tracer, logger: logger},
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown(logger, srv)
	}()

	logger.Info("serving hello handler", "addr", ln.Addr().String())
	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	q.Close()
	return errors.Join(err, <-done)
}

func shutdown(logger *slog.Logger, srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down server", "error", err)
	}
}

func (c config) reporterOptions(logger *slog.Logger, reg prometheus.Registerer) ([]reporter.Option, error) {
	opts := []reporter.Option{
		reporter.WithEnv(),
		reporter.WithLogger(logger),
		reporter.WithRegisterer(reg),
		reporter.WithServiceName(c.Service),
	}

	if c.Encoding != "" {
		var e reporter.Encoding
		if err := e.UnmarshalText([]byte(c.Encoding)); err != nil {
			return nil, err
		}
		opts = append(opts, reporter.WithEncoding(e))
	}
	if c.Agent != "" {
		addr, err := net.ResolveUDPAddr("udp", c.Agent)
		if err != nil {
			return nil, fmt.Errorf("resolve agent %q: %w", c.Agent, err)
		}
		opts = append(opts, reporter.WithAgentAddr(addr))
	}
	if len(c.Tags) > 0 {
		tags := make([]attribute.KeyValue, 0, len(c.Tags))
		for _, k := range c.tagKeys() {
			tags = append(tags, attribute.String(k, c.Tags[k]))
		}
		opts = append(opts, reporter.WithServiceTags(tags...))
	}
	return opts, nil
}
