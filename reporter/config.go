// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tracewire/jaeger"
	"github.com/tracewire/jaeger/internal/pkg/jaegerthrift"
)

const (
	// envServiceNameKey is the key for the environment variable value
	// containing the service name.
	envServiceNameKey = "JAEGER_SERVICE_NAME"
	// envAgentHostKey is the key for the environment variable value
	// containing the agent host.
	envAgentHostKey = "JAEGER_AGENT_HOST"
	// envAgentPortKey is the key for the environment variable value
	// containing the agent UDP port.
	envAgentPortKey = "JAEGER_AGENT_PORT"
	// envTagsKey is the key for the environment variable value containing
	// comma-separated key=value process tags.
	envTagsKey = "JAEGER_TAGS"
	// envEncodingKey is the key for the environment variable value
	// containing the reporter encoding.
	envEncodingKey = "JAEGER_REPORTER_ENCODING"
	// envLogLevelKey is the key for the environment variable value
	// containing the log level.
	envLogLevelKey = "JAEGER_LOG_LEVEL"
	// envOTelLogLevelKey is used if envLogLevelKey is not set.
	envOTelLogLevelKey = "OTEL_LOG_LEVEL"
)

const (
	// DefaultAgentHost is the host of the agent used if none is configured.
	DefaultAgentHost = "127.0.0.1"
	// DefaultCompactPort is the agent port accepting the compact encoding.
	DefaultCompactPort = 6831
	// DefaultBinaryPort is the agent port accepting the binary encoding.
	DefaultBinaryPort = 6832
	// DefaultMaxBatchSpans is the default number of spans Run puts in one
	// batch.
	DefaultMaxBatchSpans = 100
)

var defaultReporterAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}

// Encoding is the Thrift encoding of the emitBatch datagrams. Each encoding
// is served on its own agent port.
type Encoding uint8

const (
	// EncodingCompact is the Thrift compact protocol.
	EncodingCompact Encoding = iota
	// EncodingBinary is the Thrift binary protocol.
	EncodingBinary
)

var errInvalidEncoding = errors.New("invalid Encoding")

func (e Encoding) String() string {
	switch e {
	case EncodingCompact:
		return "compact"
	case EncodingBinary:
		return "binary"
	default:
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
}

// DefaultPort returns the agent port serving e.
func (e Encoding) DefaultPort() int {
	if e == EncodingBinary {
		return DefaultBinaryPort
	}
	return DefaultCompactPort
}

// UnmarshalText parses "compact" or "binary", case-insensitively.
func (e *Encoding) UnmarshalText(text []byte) error {
	switch string(bytes.ToLower(bytes.TrimSpace(text))) {
	case "compact":
		*e = EncodingCompact
	case "binary":
		*e = EncodingBinary
	default:
		return fmt.Errorf("%w: %q", errInvalidEncoding, text)
	}
	return nil
}

func (e Encoding) protocol() jaegerthrift.Protocol {
	if e == EncodingBinary {
		return jaegerthrift.ProtocolBinary
	}
	return jaegerthrift.ProtocolCompact
}

// Option configures a [Reporter] via [New].
type Option interface {
	apply(context.Context, config) (config, error)
}

type fnOpt func(context.Context, config) (config, error)

func (o fnOpt) apply(ctx context.Context, c config) (config, error) {
	return o(ctx, c)
}

// WithServiceName returns an [Option] replacing the service name passed to
// [New]. An empty name is ignored.
//
// If JAEGER_SERVICE_NAME is defined, this option will conflict with
// [WithEnv]. If both are used, the last one provided will be used.
func WithServiceName(name string) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		if name != "" {
			c.serviceName = name
		}
		return c, nil
	})
}

// WithEncoding returns an [Option] setting the Thrift encoding. The default
// is [EncodingCompact].
//
// Unless an agent port is configured, the agent port follows the encoding.
func WithEncoding(e Encoding) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		if e != EncodingCompact && e != EncodingBinary {
			return c, fmt.Errorf("%w: %s", errInvalidEncoding, e)
		}
		c.encoding = e
		return c, nil
	})
}

// WithAgentAddr returns an [Option] setting the address spans are sent to.
//
// If JAEGER_AGENT_HOST or JAEGER_AGENT_PORT is defined, this option will
// conflict with [WithEnv]. If both are used, the last one provided will be
// used.
func WithAgentAddr(addr *net.UDPAddr) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		c.agentAddr = addr
		c.agentHost, c.agentPort = "", ""
		return c, nil
	})
}

// WithReporterAddr returns an [Option] setting the local address the
// reporter binds. The default is 127.0.0.1 with an ephemeral port.
func WithReporterAddr(addr *net.UDPAddr) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		c.reporterAddr = addr
		return c, nil
	})
}

// WithLogger returns an [Option] that will configure logger used.
//
// If this option and [WithEnv] are used, JAEGER_LOG_LEVEL is ignored. This
// passed logger takes precedence and is used as-is.
//
// If this option is not used, an [slog.Logger] backed by an
// [slog.JSONHandler] outputting to STDERR as a default.
func WithLogger(l *slog.Logger) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		c.logger = l
		return c, nil
	})
}

// WithMetadataProvider returns an [Option] setting the provider of host
// process tags. The default is [HostMetadata].
func WithMetadataProvider(p MetadataProvider) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		c.metadata = p
		return c, nil
	})
}

// WithServiceTags returns an [Option] adding process tags.
func WithServiceTags(tags ...attribute.KeyValue) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		c.tags = append(c.tags, tags...)
		return c, nil
	})
}

// WithRegisterer returns an [Option] registering the reporter metrics with
// reg. By default the metrics are not registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		c.registerer = reg
		return c, nil
	})
}

// WithSendBufferSize returns an [Option] setting the socket send buffer size
// in bytes. It is ignored on platforms without SO_SNDBUF.
func WithSendBufferSize(n int) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		if n < 0 {
			return c, fmt.Errorf("negative send buffer size: %d", n)
		}
		c.sendBufferSize = n
		return c, nil
	})
}

// WithMaxBatchSpans returns an [Option] setting the maximum number of spans
// [Reporter.Run] sends in one datagram. The default is
// [DefaultMaxBatchSpans].
func WithMaxBatchSpans(n int) Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		if n <= 0 {
			return c, fmt.Errorf("non-positive max batch spans: %d", n)
		}
		c.maxBatchSpans = n
		return c, nil
	})
}

var (
	lookupEnv = os.LookupEnv
	getEnv    = os.Getenv
)

// WithEnv returns an [Option] that will apply configuration using the values
// defined by the following environment variables:
//
//   - JAEGER_SERVICE_NAME: sets the service name
//   - JAEGER_AGENT_HOST: sets the agent host
//   - JAEGER_AGENT_PORT: sets the agent port
//   - JAEGER_TAGS: adds comma-separated key=value process tags
//   - JAEGER_REPORTER_ENCODING: sets the encoding, "compact" or "binary"
//   - JAEGER_LOG_LEVEL (or OTEL_LOG_LEVEL): sets the default logger's
//     minimum logging level
//
// If [WithLogger] is used, the log level is not used. Instead, the
// [slog.Logger] passed to that option will be used as-is.
func WithEnv() Option {
	return fnOpt(func(_ context.Context, c config) (config, error) {
		var err error

		if v, ok := lookupEnv(envServiceNameKey); ok && v != "" {
			c.serviceName = v
		}

		if v, ok := lookupEnv(envAgentHostKey); ok {
			c.agentAddr = nil
			c.agentHost = strings.TrimSpace(v)
		}
		if v, ok := lookupEnv(envAgentPortKey); ok {
			v = strings.TrimSpace(v)
			if _, e := strconv.ParseUint(v, 10, 16); e != nil {
				err = errors.Join(err, fmt.Errorf("parse %s %q: %w", envAgentPortKey, v, e))
			} else {
				c.agentAddr = nil
				c.agentPort = v
			}
		}

		c.tags = append(c.tags, lookupTags()...)

		if v, ok := lookupEnv(envEncodingKey); ok {
			var e Encoding
			if e2 := e.UnmarshalText([]byte(v)); e2 != nil {
				err = errors.Join(err, fmt.Errorf("parse %s: %w", envEncodingKey, e2))
			} else {
				c.encoding = e
			}
		}

		val, ok := lookupEnv(envLogLevelKey)
		if !ok {
			val, ok = lookupEnv(envOTelLogLevelKey)
		}
		if c.logger == nil && ok {
			level, e := jaeger.ParseLogLevel(val)
			if e != nil {
				e = fmt.Errorf("parse log level %q: %w", val, e)
				err = errors.Join(err, e)
			} else {
				c.logger = newLogger(level.Level())
			}
		}
		return c, err
	})
}

func lookupTags() []attribute.KeyValue {
	rawVal := getEnv(envTagsKey)
	pairs := strings.Split(strings.TrimSpace(rawVal), ",")

	var attrs []attribute.KeyValue
	for _, pair := range pairs {
		key, val, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if key == "" {
			continue
		}
		attrs = append(attrs, attribute.String(key, val))
	}
	return attrs
}

// newLogger is used for testing.
var newLogger = newLoggerFunc

func newLoggerFunc(level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true, Level: level}
	h := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(h)
}

type config struct {
	serviceName string
	encoding    Encoding

	agentAddr *net.UDPAddr
	// agentHost and agentPort are set from the environment and resolved once
	// all options are applied.
	agentHost string
	agentPort string

	reporterAddr   *net.UDPAddr
	logger         *slog.Logger
	metadata       MetadataProvider
	tags           []attribute.KeyValue
	registerer     prometheus.Registerer
	sendBufferSize int
	maxBatchSpans  int
}

func newConfig(ctx context.Context, serviceName string, options []Option) (config, error) {
	c := config{
		serviceName:   serviceName,
		encoding:      EncodingCompact,
		reporterAddr:  defaultReporterAddr,
		metadata:      HostMetadata(),
		maxBatchSpans: DefaultMaxBatchSpans,
	}

	var err error
	for _, opt := range options {
		var e error
		c, e = opt.apply(ctx, c)
		err = errors.Join(err, e)
	}

	if c.agentAddr == nil {
		var e error
		c.agentAddr, e = c.resolveAgentAddr()
		err = errors.Join(err, e)
	}
	return c, err
}

func (c config) resolveAgentAddr() (*net.UDPAddr, error) {
	host, port := c.agentHost, c.agentPort
	if host == "" {
		host = DefaultAgentHost
	}
	if port == "" {
		port = strconv.Itoa(c.encoding.DefaultPort())
	}
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("resolve agent address: %w", err)
	}
	return addr, nil
}

func (c config) Logger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return newLogger(nil)
}
