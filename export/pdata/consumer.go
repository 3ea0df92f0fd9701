// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package pdata reports OpenTelemetry Collector trace data to a Jaeger
// agent.
package pdata

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tracewire/jaeger"
	"github.com/tracewire/jaeger/internal/pkg/otelmap"
	"github.com/tracewire/jaeger/internal/pkg/pdataconv"
)

var errNilReporter = errors.New("nil span reporter")

// Consumer converts collector trace data and passes it to a
// [jaeger.SpanReporter]. Resource attributes are not reported: the process
// is described by the reporter.
type Consumer struct {
	reporter jaeger.SpanReporter
	logger   *slog.Logger
}

// New returns a Consumer reporting through r. If logger is nil, an
// [slog.Logger] backed by an [slog.JSONHandler] outputting to STDERR is used.
func New(r jaeger.SpanReporter, logger *slog.Logger) (*Consumer, error) {
	if r == nil {
		return nil, errNilReporter
	}
	if logger == nil {
		h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{AddSource: true})
		logger = slog.New(h)
	}
	return &Consumer{reporter: r, logger: logger}, nil
}

// Traces returns c as a collector traces consumer.
func (c *Consumer) Traces() (consumer.Traces, error) {
	return consumer.NewTraces(c.ConsumeTraces)
}

// ConsumeTraces reports the spans of each resource in td as one batch. All
// resources are attempted and their errors are joined.
func (c *Consumer) ConsumeTraces(ctx context.Context, td ptrace.Traces) error {
	var err error
	rss := td.ResourceSpans()
	for i := range rss.Len() {
		var batch []jaeger.FinishedSpan
		sss := rss.At(i).ScopeSpans()
		for j := range sss.Len() {
			ss := sss.At(j)
			spans := ss.Spans()
			for k := range spans.Len() {
				s := spans.At(k)
				if s.TraceID().IsEmpty() || s.SpanID().IsEmpty() {
					c.logger.Debug("dropping invalid span", "name", s.Name())
					continue
				}
				batch = append(batch, Convert(s, ss.Scope()))
			}
		}
		if len(batch) == 0 {
			continue
		}
		err = errors.Join(err, c.reporter.Report(ctx, batch))
	}
	return err
}

// Convert returns the finished span described by s, emitted by scope.
func Convert(s ptrace.Span, scope pcommon.InstrumentationScope) jaeger.FinishedSpan {
	traceID := jaeger.TraceIDFromOTel(trace.TraceID(s.TraceID()))
	fs := jaeger.FinishedSpan{
		OperationName: s.Name(),
		Context: jaeger.NewSpanContextBuilder().
			TraceID(traceID).
			SpanID(jaeger.SpanIDFromOTel(trace.SpanID(s.SpanID()))).
			Finish(),
		StartTime:  s.StartTimestamp().AsTime(),
		FinishTime: s.EndTimestamp().AsTime(),
	}

	if !s.ParentSpanID().IsEmpty() {
		fs.References = append(fs.References, reference(
			jaeger.RefChildOf, traceID, jaeger.SpanIDFromOTel(trace.SpanID(s.ParentSpanID())),
		))
	}
	links := s.Links()
	for i := range links.Len() {
		l := links.At(i)
		if l.TraceID().IsEmpty() || l.SpanID().IsEmpty() {
			continue
		}
		fs.References = append(fs.References, reference(
			jaeger.RefFollowsFrom,
			jaeger.TraceIDFromOTel(trace.TraceID(l.TraceID())),
			jaeger.SpanIDFromOTel(trace.SpanID(l.SpanID())),
		))
	}

	tags := pdataconv.KeyValues(s.Attributes())
	tags = otelmap.AppendKind(tags, spanKind(s.Kind()))
	code, msg := status(s.Status())
	tags = otelmap.AppendStatus(tags, code, msg)
	tags = otelmap.AppendScope(tags, scope.Name(), scope.Version())
	fs.Tags = tags

	events := s.Events()
	if n := events.Len(); n > 0 {
		fs.Logs = make([]jaeger.Log, n)
		for i := range n {
			e := events.At(i)
			fs.Logs[i] = jaeger.Log{
				Time:   e.Timestamp().AsTime(),
				Fields: otelmap.EventFields(e.Name(), pdataconv.KeyValues(e.Attributes())),
			}
		}
	}
	return fs
}

func reference(kind jaeger.ReferenceKind, traceID jaeger.TraceID, spanID uint64) jaeger.SpanReference {
	sc := jaeger.NewSpanContextBuilder().TraceID(traceID).SpanID(spanID).Finish()
	return jaeger.SpanReference{Kind: kind, Context: sc}
}

func spanKind(kind ptrace.SpanKind) trace.SpanKind {
	switch kind {
	case ptrace.SpanKindInternal:
		return trace.SpanKindInternal
	case ptrace.SpanKindServer:
		return trace.SpanKindServer
	case ptrace.SpanKindClient:
		return trace.SpanKindClient
	case ptrace.SpanKindProducer:
		return trace.SpanKindProducer
	case ptrace.SpanKindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindUnspecified
	}
}

func status(stat ptrace.Status) (codes.Code, string) {
	var c codes.Code
	switch stat.Code() {
	case ptrace.StatusCodeUnset:
		c = codes.Unset
	case ptrace.StatusCodeOk:
		c = codes.Ok
	case ptrace.StatusCodeError:
		c = codes.Error
	}
	return c, stat.Message()
}
