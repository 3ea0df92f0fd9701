// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"context"
	"encoding/binary"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDFromOTel converts an OpenTelemetry trace ID. The first eight bytes
// are the high half.
func TraceIDFromOTel(id trace.TraceID) TraceID {
	return TraceID{
		High: binary.BigEndian.Uint64(id[:8]),
		Low:  binary.BigEndian.Uint64(id[8:]),
	}
}

// OTel returns t as an OpenTelemetry trace ID.
func (t TraceID) OTel() trace.TraceID {
	var id trace.TraceID
	binary.BigEndian.PutUint64(id[:8], t.High)
	binary.BigEndian.PutUint64(id[8:], t.Low)
	return id
}

// SpanIDFromOTel converts an OpenTelemetry span ID.
func SpanIDFromOTel(id trace.SpanID) uint64 {
	return binary.BigEndian.Uint64(id[:])
}

func spanIDToOTel(id uint64) trace.SpanID {
	var sid trace.SpanID
	binary.BigEndian.PutUint64(sid[:], id)
	return sid
}

// SpanContextFromOTel converts an OpenTelemetry span context. Only the
// sampled flag is carried over.
func SpanContextFromOTel(sc trace.SpanContext) SpanContext {
	var flags Flags
	if sc.IsSampled() {
		flags = FlagSampled
	}
	return SpanContext{
		traceID: TraceIDFromOTel(sc.TraceID()),
		spanID:  SpanIDFromOTel(sc.SpanID()),
		flags:   flags,
	}
}

// OTel returns sc as a remote OpenTelemetry span context. The debug ID has no
// OpenTelemetry equivalent and is dropped.
func (sc SpanContext) OTel() trace.SpanContext {
	var flags trace.TraceFlags
	if sc.IsSampled() || sc.IsDebug() {
		flags = trace.FlagsSampled
	}
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    sc.traceID.OTel(),
		SpanID:     spanIDToOTel(sc.spanID),
		TraceFlags: flags,
		Remote:     true,
	})
}

// Propagator is an OpenTelemetry TextMapPropagator using the uber-trace-id
// format.
type Propagator struct{}

var _ propagation.TextMapPropagator = Propagator{}

// Inject writes the span context found in ctx to carrier.
func (Propagator) Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	carrier.Set(TraceContextHeaderName, formatTraceContext(SpanContextFromOTel(sc)))
}

// Extract returns a copy of ctx holding the remote span context read from
// carrier. ctx is returned unchanged if carrier holds no valid context.
func (Propagator) Extract(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	var fields HeaderFields
	for _, k := range carrier.Keys() {
		fields = append(fields, HeaderField{Name: k, Value: []byte(carrier.Get(k))})
	}
	sc, ok, err := ExtractHTTPHeaders(fields)
	if err != nil || !ok || !sc.IsValid() {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, sc.OTel())
}

// Fields returns the keys written by Inject.
func (Propagator) Fields() []string {
	return []string{TraceContextHeaderName}
}
