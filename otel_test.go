// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var (
	otelTraceID = trace.TraceID{0x63, 0x09, 0xab, 0x92, 0xc9, 0x54, 0x68, 0xed, 0xea, 0x0d, 0xc1, 0xa9, 0x77, 0x2a, 0xe2, 0xdc}
	otelSpanID  = trace.SpanID{0x40, 0x94, 0x23, 0xa2, 0x04, 0xbc, 0x17, 0xa8}
)

func TestTraceIDOTel(t *testing.T) {
	id := TraceIDFromOTel(otelTraceID)
	assert.Equal(t, testContext.TraceID(), id)
	assert.Equal(t, otelTraceID, id.OTel())
	assert.Equal(t, otelTraceID.String(), id.String())
}

func TestSpanIDOTel(t *testing.T) {
	id := SpanIDFromOTel(otelSpanID)
	assert.Equal(t, testContext.SpanID(), id)
	assert.Equal(t, otelSpanID, spanIDToOTel(id))
}

func TestSpanContextOTel(t *testing.T) {
	t.Run("FromOTel", func(t *testing.T) {
		osc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    otelTraceID,
			SpanID:     otelSpanID,
			TraceFlags: trace.FlagsSampled,
		})
		assert.Equal(t, testContext, SpanContextFromOTel(osc))

		unsampled := SpanContextFromOTel(osc.WithTraceFlags(0))
		assert.False(t, unsampled.IsSampled())
	})

	t.Run("ToOTel", func(t *testing.T) {
		osc := testContext.OTel()
		assert.True(t, osc.IsValid())
		assert.True(t, osc.IsRemote())
		assert.True(t, osc.IsSampled())
		assert.Equal(t, otelTraceID, osc.TraceID())
		assert.Equal(t, otelSpanID, osc.SpanID())
	})

	t.Run("DebugIsSampled", func(t *testing.T) {
		sc := testContext.withFlags(0).withDebugID("dbg")
		assert.True(t, sc.OTel().IsSampled())
	})

	t.Run("Unsampled", func(t *testing.T) {
		assert.False(t, testContext.withFlags(0).OTel().IsSampled())
	})
}

func TestPropagatorInject(t *testing.T) {
	ctx := trace.ContextWithSpanContext(context.Background(), testContext.OTel())
	carrier := propagation.MapCarrier{}

	Propagator{}.Inject(ctx, carrier)
	assert.Equal(t, propagation.MapCarrier{
		TraceContextHeaderName: "6309ab92c95468edea0dc1a9772ae2dc:409423a204bc17a8:0:1",
	}, carrier)

	empty := propagation.MapCarrier{}
	Propagator{}.Inject(context.Background(), empty)
	assert.Empty(t, empty)
}

func TestPropagatorExtract(t *testing.T) {
	t.Run("HeaderCarrier", func(t *testing.T) {
		h := http.Header{}
		h.Set("Uber-Trace-Id", "6309ab92c95468edea0dc1a9772ae2dc%3A409423a204bc17a8%3A0%3A1")

		ctx := Propagator{}.Extract(context.Background(), propagation.HeaderCarrier(h))
		osc := trace.SpanContextFromContext(ctx)
		require.True(t, osc.IsValid())
		assert.True(t, osc.IsRemote())
		assert.True(t, osc.IsSampled())
		assert.Equal(t, otelTraceID, osc.TraceID())
		assert.Equal(t, otelSpanID, osc.SpanID())
	})

	for name, carrier := range map[string]propagation.MapCarrier{
		"Missing":   {},
		"Malformed": {TraceContextHeaderName: "1:2:3"},
		"DebugOnly": {DebugHeaderName: "dbg"},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.Equal(t, ctx, Propagator{}.Extract(ctx, carrier))
		})
	}
}

func TestPropagatorRoundTrip(t *testing.T) {
	prop := propagation.NewCompositeTextMapPropagator(Propagator{})
	assert.Equal(t, []string{TraceContextHeaderName}, prop.Fields())

	ctx := trace.ContextWithSpanContext(context.Background(), testContext.OTel())
	carrier := propagation.MapCarrier{}
	prop.Inject(ctx, carrier)

	got := trace.SpanContextFromContext(prop.Extract(context.Background(), carrier))
	assert.Equal(t, testContext.OTel(), got)
}
