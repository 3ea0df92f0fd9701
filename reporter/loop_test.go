// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracewire/jaeger"
	"github.com/tracewire/jaeger/internal/pkg/jaegerthrift"
)

func TestRunDrainsClosedQueue(t *testing.T) {
	a := newAgent(t)
	r := newTestReporter(t, WithAgentAddr(a.addr()), WithMaxBatchSpans(2))

	q := jaeger.NewSpanQueue(4, jaeger.OverflowBlock)
	for i := uint64(1); i <= 3; i++ {
		require.True(t, q.Push(testSpan("op", i)))
	}
	q.Close()

	require.NoError(t, r.Run(context.Background(), q))

	first := a.batch(jaegerthrift.ProtocolCompact)
	assert.Len(t, first.List(2), 2)
	assert.Equal(t, int64(1), first[3])
	assert.NotNil(t, first.Struct(4))

	second := a.batch(jaegerthrift.ProtocolCompact)
	assert.Len(t, second.List(2), 1)
	assert.Equal(t, int64(2), second[3])
}

func TestRunReportsQueueDrops(t *testing.T) {
	a := newAgent(t)
	r := newTestReporter(t, WithAgentAddr(a.addr()))

	q := jaeger.NewSpanQueue(1, jaeger.OverflowDropOldest)
	q.Push(testSpan("old", 1))
	q.Push(testSpan("new", 2))
	q.Close()

	require.NoError(t, r.Run(context.Background(), q))

	batch := a.batch(jaegerthrift.ProtocolCompact)
	spans := batch.List(2)
	require.Len(t, spans, 1)
	stats := batch.Struct(4)
	assert.Equal(t, int64(1), stats[1])
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.queueDropped))
}

func TestRunStopsOnCancel(t *testing.T) {
	a := newAgent(t)
	r := newTestReporter(t, WithAgentAddr(a.addr()))
	q := jaeger.NewSpanQueue(1, jaeger.OverflowBlock)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx, q) }()

	q.Push(testSpan("op", 1))
	a.batch(jaegerthrift.ProtocolCompact)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunContinuesAfterReportError(t *testing.T) {
	a := newAgent(t)
	r := newTestReporter(t, WithAgentAddr(a.addr()))
	require.NoError(t, r.Close())

	q := jaeger.NewSpanQueue(2, jaeger.OverflowBlock)
	q.Push(testSpan("a", 1))
	q.Close()

	assert.NoError(t, r.Run(context.Background(), q))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.spans.WithLabelValues(resultFailed)))
}
