// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package otelsdk provides an OpenTelemetry Go SDK span exporter that
// reports spans to a Jaeger agent.
package otelsdk

import (
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	sdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/tracewire/jaeger"
	"github.com/tracewire/jaeger/internal/pkg/otelmap"
)

// Exporter converts spans ended by the OpenTelemetry Go SDK and passes them
// to a [jaeger.SpanReporter].
type Exporter struct {
	reporter  jaeger.SpanReporter
	logger    *slog.Logger
	scopeTags bool

	stopped atomic.Bool
}

var _ sdk.SpanExporter = (*Exporter)(nil)

// New returns a new configured Exporter reporting through r.
func New(ctx context.Context, r jaeger.SpanReporter, options ...Option) (*Exporter, error) {
	if r == nil {
		return nil, errNilReporter
	}
	c, err := newConfig(ctx, options)
	if err != nil {
		return nil, err
	}
	return &Exporter{
		reporter:  r,
		logger:    c.Logger(),
		scopeTags: c.scopeTags,
	}, nil
}

// ExportSpans reports spans as a single batch.
//
// Once shut down, calls to ExportSpans are dropped.
func (e *Exporter) ExportSpans(ctx context.Context, spans []sdk.ReadOnlySpan) error {
	if len(spans) == 0 || e.stopped.Load() {
		return nil
	}

	out := make([]jaeger.FinishedSpan, 0, len(spans))
	for _, s := range spans {
		if !s.SpanContext().IsValid() {
			e.logger.Debug("dropping invalid span", "name", s.Name())
			continue
		}
		out = append(out, e.convert(s))
	}
	if len(out) == 0 {
		return nil
	}
	return e.reporter.Report(ctx, out)
}

// Shutdown shuts down the Exporter. It does not close the reporter.
//
// Once shut down, calls to ExportSpans will be dropped.
func (e *Exporter) Shutdown(context.Context) error {
	e.stopped.Store(true)
	return nil
}

func (e *Exporter) convert(s sdk.ReadOnlySpan) jaeger.FinishedSpan {
	fs := jaeger.FinishedSpan{
		OperationName: s.Name(),
		Context:       jaeger.SpanContextFromOTel(s.SpanContext()),
		StartTime:     s.StartTime(),
		FinishTime:    s.EndTime(),
	}

	if p := s.Parent(); p.IsValid() {
		fs.References = append(fs.References, reference(jaeger.RefChildOf, p))
	}
	for _, l := range s.Links() {
		if l.SpanContext.IsValid() {
			fs.References = append(fs.References, reference(jaeger.RefFollowsFrom, l.SpanContext))
		}
	}

	attrs := s.Attributes()
	tags := make([]attribute.KeyValue, 0, len(attrs)+5)
	tags = append(tags, attrs...)
	tags = otelmap.AppendKind(tags, s.SpanKind())
	st := s.Status()
	tags = otelmap.AppendStatus(tags, st.Code, st.Description)
	if e.scopeTags {
		scope := s.InstrumentationScope()
		tags = otelmap.AppendScope(tags, scope.Name, scope.Version)
	}
	fs.Tags = tags

	events := s.Events()
	if len(events) > 0 {
		fs.Logs = make([]jaeger.Log, len(events))
		for i, ev := range events {
			fs.Logs[i] = jaeger.Log{
				Time:   ev.Time,
				Fields: otelmap.EventFields(ev.Name, ev.Attributes),
			}
		}
	}
	return fs
}

// reference returns a reference to sc. OpenTelemetry parents and links are
// always reported, so the referenced context is marked sampled.
func reference(kind jaeger.ReferenceKind, sc trace.SpanContext) jaeger.SpanReference {
	ctx := jaeger.NewSpanContextBuilder().
		TraceID(jaeger.TraceIDFromOTel(sc.TraceID())).
		SpanID(jaeger.SpanIDFromOTel(sc.SpanID())).
		Finish()
	return jaeger.SpanReference{Kind: kind, Context: ctx}
}
