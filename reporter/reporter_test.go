// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tracewire/jaeger"
	"github.com/tracewire/jaeger/internal/pkg/jaegerthrift"
	"github.com/tracewire/jaeger/internal/pkg/jaegerthrift/thrifttest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// agent is a UDP listener standing in for a Jaeger agent.
type agent struct {
	t    *testing.T
	conn *net.UDPConn
}

func newAgent(t *testing.T) *agent {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &agent{t: t, conn: conn}
}

func (a *agent) addr() *net.UDPAddr { return a.conn.LocalAddr().(*net.UDPAddr) }

// batch reads one datagram and returns the decoded Batch struct.
func (a *agent) batch(proto jaegerthrift.Protocol) thrifttest.Fields {
	a.t.Helper()

	require.NoError(a.t, a.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 65536)
	n, _, err := a.conn.ReadFromUDP(buf)
	require.NoError(a.t, err)

	msg, err := thrifttest.Decode(context.Background(), proto, buf[:n])
	require.NoError(a.t, err)
	require.Equal(a.t, jaegerthrift.EmitBatchMethod, msg.Name)
	return msg.Args.Struct(1)
}

func newTestReporter(t *testing.T, opts ...Option) *Reporter {
	t.Helper()
	opts = append([]Option{
		WithLogger(discardLogger()),
		WithMetadataProvider(StaticMetadata(HostnameTagKey.String("test-host"))),
	}, opts...)
	r, err := New(context.Background(), "test-service", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func testSpan(op string, spanID uint64) jaeger.FinishedSpan {
	start := time.UnixMicro(1_700_000_000_000_000)
	return jaeger.FinishedSpan{
		OperationName: op,
		Context: jaeger.NewSpanContextBuilder().
			TraceID(jaeger.TraceID{High: 1, Low: 2}).
			SpanID(spanID).
			Finish(),
		StartTime:  start,
		FinishTime: start.Add(time.Millisecond),
		Tags:       []attribute.KeyValue{attribute.String("k", "v")},
	}
}

func TestNewProcessTags(t *testing.T) {
	r := newTestReporter(t, WithServiceTags(attribute.String("region", "eu")))

	assert.Equal(t, "test-service", r.ServiceName())
	assert.Equal(t, []attribute.KeyValue{
		ClientVersionTagKey.String("Go-" + jaeger.Version()),
		HostnameTagKey.String("test-host"),
		attribute.String("region", "eu"),
	}, r.ServiceTags())

	local := r.LocalAddr()
	require.NotNil(t, local)
	assert.True(t, local.IP.Equal(net.IPv4(127, 0, 0, 1)))
	assert.NotZero(t, local.Port)
}

func TestNewMetadataErrorIgnored(t *testing.T) {
	provider := MetadataProviderFunc(func(context.Context) ([]attribute.KeyValue, error) {
		return []attribute.KeyValue{ClientUUIDTagKey.String("id")}, errors.New("no hostname")
	})
	r := newTestReporter(t, WithMetadataProvider(provider))
	assert.Contains(t, r.ServiceTags(), ClientUUIDTagKey.String("id"))
}

func TestNewInvalidOption(t *testing.T) {
	_, err := New(context.Background(), "svc", WithMaxBatchSpans(0))
	assert.ErrorIs(t, err, jaeger.ErrInvalidInput)
}

func TestNewBindFailure(t *testing.T) {
	a := newAgent(t)
	// The agent already holds this port.
	_, err := New(
		context.Background(), "svc",
		WithLogger(discardLogger()),
		WithReporterAddr(a.addr()),
	)
	assert.ErrorIs(t, err, jaeger.ErrOther)
}

func TestReport(t *testing.T) {
	testCases := []struct {
		encoding Encoding
		proto    jaegerthrift.Protocol
	}{
		{encoding: EncodingCompact, proto: jaegerthrift.ProtocolCompact},
		{encoding: EncodingBinary, proto: jaegerthrift.ProtocolBinary},
	}

	for _, tc := range testCases {
		t.Run(tc.encoding.String(), func(t *testing.T) {
			a := newAgent(t)
			r := newTestReporter(t, WithEncoding(tc.encoding), WithAgentAddr(a.addr()))

			spans := []jaeger.FinishedSpan{testSpan("a", 10), testSpan("b", 11)}
			require.NoError(t, r.Report(context.Background(), spans))

			batch := a.batch(tc.proto)
			process := batch.Struct(1)
			assert.Equal(t, "test-service", process[1])
			assert.Len(t, process.List(2), 2)

			got := batch.List(2)
			require.Len(t, got, 2)
			assert.Equal(t, "a", got[0].(thrifttest.Fields)[5])
			assert.Equal(t, int64(10), got[0].(thrifttest.Fields)[3])
			assert.Equal(t, "b", got[1].(thrifttest.Fields)[5])
			assert.NotContains(t, batch, int16(3))
			assert.NotContains(t, batch, int16(4))
		})
	}
}

func TestReportClosedAgentDoesNotHang(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	closed := conn.LocalAddr().(*net.UDPAddr)
	require.NoError(t, conn.Close())

	r := newTestReporter(t, WithAgentAddr(closed))

	done := make(chan error, 2)
	go func() {
		ctx := context.Background()
		for i := 0; i < 2; i++ {
			done <- r.Report(ctx, []jaeger.FinishedSpan{testSpan("a", 1)})
		}
	}()

	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			if err != nil {
				assert.ErrorIs(t, err, jaeger.ErrOther)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Report blocked on a closed agent port")
		}
	}
}

func TestReportAfterClose(t *testing.T) {
	a := newAgent(t)
	r := newTestReporter(t, WithAgentAddr(a.addr()))
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Nil(t, r.LocalAddr())

	err := r.Report(context.Background(), []jaeger.FinishedSpan{testSpan("a", 1)})
	assert.ErrorIs(t, err, jaeger.ErrOther)
	assert.ErrorIs(t, err, errClosed)
}

func TestReportCanceledContext(t *testing.T) {
	a := newAgent(t)
	r := newTestReporter(t, WithAgentAddr(a.addr()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Report(ctx, nil)
	assert.ErrorIs(t, err, jaeger.ErrOther)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSetAgentAddr(t *testing.T) {
	first, second := newAgent(t), newAgent(t)
	r := newTestReporter(t, WithAgentAddr(first.addr()))

	r.SetAgentAddr(second.addr())
	assert.Equal(t, second.addr(), r.AgentAddr())

	require.NoError(t, r.Report(context.Background(), []jaeger.FinishedSpan{testSpan("a", 1)}))
	assert.Len(t, second.batch(jaegerthrift.ProtocolCompact).List(2), 1)
}

func TestSetReporterAddr(t *testing.T) {
	a := newAgent(t)
	r := newTestReporter(t, WithAgentAddr(a.addr()))
	before := r.LocalAddr()

	require.NoError(t, r.SetReporterAddr(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)}))
	after := r.LocalAddr()
	assert.NotEqual(t, before.Port, after.Port)

	require.NoError(t, r.Report(context.Background(), []jaeger.FinishedSpan{testSpan("a", 1)}))
	a.batch(jaegerthrift.ProtocolCompact)

	// Binding to a port in use keeps the current socket.
	err := r.SetReporterAddr(a.addr())
	assert.ErrorIs(t, err, jaeger.ErrOther)
	assert.Equal(t, after, r.LocalAddr())
}

func TestAddServiceTag(t *testing.T) {
	a := newAgent(t)
	r := newTestReporter(t, WithAgentAddr(a.addr()))

	tag := attribute.String("dup", "x")
	r.AddServiceTag(tag)
	r.AddServiceTag(tag)

	require.NoError(t, r.Report(context.Background(), nil))
	tags := a.batch(jaegerthrift.ProtocolCompact).Struct(1).List(2)

	var n int
	for _, tg := range tags {
		if tg.(thrifttest.Fields)[1] == "dup" {
			n++
		}
	}
	assert.Equal(t, 2, n)
}

func TestReportMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newAgent(t)
	r := newTestReporter(t, WithAgentAddr(a.addr()), WithRegisterer(reg))

	require.NoError(t, r.Report(context.Background(), []jaeger.FinishedSpan{testSpan("a", 1), testSpan("b", 2)}))
	a.batch(jaegerthrift.ProtocolCompact)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.batches.WithLabelValues(resultSent)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.metrics.spans.WithLabelValues(resultSent)))
	assert.Positive(t, testutil.ToFloat64(r.metrics.bytes))

	// A second reporter on the same registry shares the collectors.
	r2 := newTestReporter(t, WithAgentAddr(a.addr()), WithRegisterer(reg))
	require.NoError(t, r2.Close())
	require.Error(t, r2.Report(context.Background(), []jaeger.FinishedSpan{testSpan("c", 3)}))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.spans.WithLabelValues(resultFailed)))

	n, err := testutil.GatherAndCount(reg, "jaeger_reporter_spans_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
