// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaegerthrift

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/tracewire/jaeger"
)

// ConvertTag converts kv. Slice values are encoded as strings.
func ConvertTag(kv attribute.KeyValue) Tag {
	key := string(kv.Key)
	switch kv.Value.Type() {
	case attribute.BOOL:
		return BoolTag(key, kv.Value.AsBool())
	case attribute.INT64:
		return LongTag(key, kv.Value.AsInt64())
	case attribute.FLOAT64:
		return DoubleTag(key, kv.Value.AsFloat64())
	case attribute.STRING:
		return StringTag(key, kv.Value.AsString())
	default:
		return StringTag(key, kv.Value.Emit())
	}
}

// ConvertTags converts every element of kvs. It returns nil for an empty
// input.
func ConvertTags(kvs []attribute.KeyValue) []Tag {
	if len(kvs) == 0 {
		return nil
	}
	tags := make([]Tag, len(kvs))
	for i, kv := range kvs {
		tags[i] = ConvertTag(kv)
	}
	return tags
}

// ConvertLog converts l. A log without fields has an empty, non-nil field
// list.
func ConvertLog(l jaeger.Log) Log {
	fields := ConvertTags(l.Fields)
	if fields == nil {
		fields = []Tag{}
	}
	return Log{
		Timestamp: l.Time.UnixMicro(),
		Fields:    fields,
	}
}

// ConvertReference converts r.
func ConvertReference(r jaeger.SpanReference) SpanRef {
	refType := SpanRefTypeChildOf
	if r.Kind == jaeger.RefFollowsFrom {
		refType = SpanRefTypeFollowsFrom
	}
	tid := r.Context.TraceID()
	return SpanRef{
		RefType:     refType,
		TraceIDLow:  int64(tid.Low),
		TraceIDHigh: int64(tid.High),
		SpanID:      int64(r.Context.SpanID()),
	}
}

// ConvertSpan converts s.
//
// The parent span ID is the span ID of the first sampled reference, or 0.
// References to unsampled spans are dropped. The duration is the signed
// difference between finish and start time. A debug ID is added as a string
// tag named jaeger.DebugHeaderName.
func ConvertSpan(s jaeger.FinishedSpan) Span {
	var (
		parent uint64
		refs   []SpanRef
	)
	for _, r := range s.References {
		if !r.Context.IsSampled() {
			continue
		}
		if refs == nil {
			parent = r.Context.SpanID()
		}
		refs = append(refs, ConvertReference(r))
	}

	tags := ConvertTags(s.Tags)
	if id, ok := s.Context.DebugID(); ok {
		tags = append(tags, StringTag(jaeger.DebugHeaderName, id))
	}

	var logs []Log
	if len(s.Logs) > 0 {
		logs = make([]Log, len(s.Logs))
		for i, l := range s.Logs {
			logs[i] = ConvertLog(l)
		}
	}

	tid := s.Context.TraceID()
	return Span{
		TraceIDLow:    int64(tid.Low),
		TraceIDHigh:   int64(tid.High),
		SpanID:        int64(s.Context.SpanID()),
		ParentSpanID:  int64(parent),
		OperationName: s.OperationName,
		References:    refs,
		Flags:         int32(s.Context.Flags()),
		StartTime:     s.StartTime.UnixMicro(),
		Duration:      s.FinishTime.Sub(s.StartTime).Microseconds(),
		Tags:          tags,
		Logs:          logs,
	}
}

// NewProcess returns the Process describing serviceName with tags.
func NewProcess(serviceName string, tags []attribute.KeyValue) *Process {
	return &Process{
		ServiceName: serviceName,
		Tags:        ConvertTags(tags),
	}
}

// NewBatch returns a Batch of spans reported by process.
func NewBatch(process *Process, spans []jaeger.FinishedSpan) *Batch {
	b := &Batch{
		Process: process,
		Spans:   make([]*Span, len(spans)),
	}
	for i, s := range spans {
		span := ConvertSpan(s)
		b.Spans[i] = &span
	}
	return b
}
