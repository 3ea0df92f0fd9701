// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package reporter sends finished spans to a Jaeger agent as emitBatch
// datagrams over UDP.
package reporter

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tracewire/jaeger"
	"github.com/tracewire/jaeger/internal/pkg/jaegerthrift"
)

var errClosed = errors.New("reporter closed")

// Reporter sends batches of finished spans to a Jaeger agent.
//
// Report may be called concurrently. SetAgentAddr and AddServiceTag are not
// synchronized with Report: call them before spans are reported or guard
// them externally.
type Reporter struct {
	serviceName   string
	encoding      Encoding
	agentAddr     *net.UDPAddr
	tags          []attribute.KeyValue
	sendBufSize   int
	maxBatchSpans int

	logger  *slog.Logger
	metrics *metrics

	// mu guards conn. A send is a single write on conn.
	mu   sync.Mutex
	conn *net.UDPConn
}

// New returns a Reporter for serviceName bound to a local UDP address.
//
// The process tags are the client version, the tags returned by the
// configured MetadataProvider and the tags passed with WithServiceTags or
// JAEGER_TAGS. A MetadataProvider error is logged and otherwise ignored.
//
// Invalid options return an error matching jaeger.ErrInvalidInput. A bind
// failure returns an error matching jaeger.ErrOther.
func New(ctx context.Context, serviceName string, options ...Option) (*Reporter, error) {
	c, err := newConfig(ctx, serviceName, options)
	if err != nil {
		return nil, jaeger.InvalidInput("configure reporter", err)
	}

	m := newMetrics()
	if err := m.register(c.registerer); err != nil {
		return nil, jaeger.InvalidInput("register reporter metrics", err)
	}

	conn, err := listen(ctx, c.reporterAddr, c.sendBufferSize)
	if err != nil {
		return nil, jaeger.Other("bind reporter", err)
	}

	r := &Reporter{
		serviceName:   c.serviceName,
		encoding:      c.encoding,
		agentAddr:     c.agentAddr,
		sendBufSize:   c.sendBufferSize,
		maxBatchSpans: c.maxBatchSpans,
		logger:        c.Logger(),
		metrics:       m,
		conn:          conn,
	}

	r.tags = append(r.tags, ClientVersionTagKey.String(jaeger.ClientVersion()))
	if c.metadata != nil {
		md, err := c.metadata.Metadata(ctx)
		if err != nil {
			r.logger.Debug("process metadata lookup failed", "error", err)
		}
		r.tags = append(r.tags, md...)
	}
	r.tags = append(r.tags, c.tags...)

	r.logger.Debug(
		"reporter created",
		"service", r.serviceName,
		"encoding", r.encoding.String(),
		"agent", r.agentAddr.String(),
		"local", conn.LocalAddr().String(),
	)
	return r, nil
}

func listen(ctx context.Context, addr *net.UDPAddr, sendBufSize int) (*net.UDPConn, error) {
	if addr == nil {
		addr = defaultReporterAddr
	}
	lc := net.ListenConfig{Control: socketControl(sendBufSize)}
	pc, err := lc.ListenPacket(ctx, "udp", addr.String())
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// ServiceName returns the service name reported in the process.
func (r *Reporter) ServiceName() string { return r.serviceName }

// Encoding returns the encoding of the datagrams sent by r.
func (r *Reporter) Encoding() Encoding { return r.encoding }

// AgentAddr returns the address spans are sent to.
func (r *Reporter) AgentAddr() *net.UDPAddr { return r.agentAddr }

// SetAgentAddr sets the address spans are sent to. No I/O is done.
func (r *Reporter) SetAgentAddr(addr *net.UDPAddr) { r.agentAddr = addr }

// LocalAddr returns the local address r is bound to, or nil once closed.
func (r *Reporter) LocalAddr() *net.UDPAddr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr().(*net.UDPAddr)
}

// SetReporterAddr binds r to addr and releases the previous socket. On
// failure r keeps its current socket and an error matching jaeger.ErrOther
// is returned.
func (r *Reporter) SetReporterAddr(addr *net.UDPAddr) error {
	conn, err := listen(context.Background(), addr, r.sendBufSize)
	if err != nil {
		return jaeger.Other("bind reporter", err)
	}

	r.mu.Lock()
	old := r.conn
	r.conn = conn
	r.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// ServiceTags returns a copy of the process tags.
func (r *Reporter) ServiceTags() []attribute.KeyValue { return slices.Clone(r.tags) }

// AddServiceTag appends tag to the process tags. Tags are not deduplicated.
func (r *Reporter) AddServiceTag(tag attribute.KeyValue) {
	r.tags = append(r.tags, tag)
}

// Report sends spans to the agent as a single emitBatch datagram.
//
// Nothing is retried and oversized batches are not split. An encoding
// failure returns an error matching jaeger.ErrInvalidInput, a send failure
// one matching jaeger.ErrOther. If ctx has a deadline it bounds the send.
func (r *Reporter) Report(ctx context.Context, spans []jaeger.FinishedSpan) error {
	return r.report(ctx, spans, nil, nil)
}

func (r *Reporter) report(ctx context.Context, spans []jaeger.FinishedSpan, seqNo *int64, stats *jaegerthrift.ClientStats) error {
	process := jaegerthrift.NewProcess(r.serviceName, r.tags)
	batch := jaegerthrift.NewBatch(process, spans)
	batch.SeqNo = seqNo
	batch.Stats = stats

	data, err := jaegerthrift.Encode(ctx, r.encoding.protocol(), batch)
	if err != nil {
		r.metrics.failed(len(spans))
		return jaeger.InvalidInput("encode batch", err)
	}

	if err := r.send(ctx, data); err != nil {
		r.metrics.failed(len(spans))
		return jaeger.Other("send batch", err)
	}
	r.metrics.sent(len(spans), len(data))
	return nil
}

func (r *Reporter) send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return errClosed
	}

	if d, ok := ctx.Deadline(); ok {
		if err := r.conn.SetWriteDeadline(d); err != nil {
			return err
		}
		defer func() { _ = r.conn.SetWriteDeadline(time.Time{}) }()
	}
	_, err := r.conn.WriteToUDP(data, r.agentAddr)
	return err
}

// Close releases the socket of r. Reports made after Close fail.
func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}
