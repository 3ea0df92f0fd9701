// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaegerthrift

import (
	"context"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
)

// fieldWriter writes struct fields to a protocol and keeps the first error.
// Once an error is recorded every further write is a no-op.
type fieldWriter struct {
	ctx context.Context
	p   thrift.TProtocol
	s   string
	err error
}

func newFieldWriter(ctx context.Context, p thrift.TProtocol, structName string) *fieldWriter {
	w := &fieldWriter{ctx: ctx, p: p, s: structName}
	if err := p.WriteStructBegin(ctx, structName); err != nil {
		w.err = thrift.PrependError(fmt.Sprintf("%s write struct begin error: ", structName), err)
	}
	return w
}

func (w *fieldWriter) field(name string, t thrift.TType, id int16, body func() error) {
	if w.err != nil {
		return
	}
	if err := w.p.WriteFieldBegin(w.ctx, name, t, id); err != nil {
		w.err = thrift.PrependError(fmt.Sprintf("%s write field begin error %d:%s: ", w.s, id, name), err)
		return
	}
	if err := body(); err != nil {
		w.err = thrift.PrependError(fmt.Sprintf("%s.%s (%d) field write error: ", w.s, name, id), err)
		return
	}
	if err := w.p.WriteFieldEnd(w.ctx); err != nil {
		w.err = thrift.PrependError(fmt.Sprintf("%s write field end error %d:%s: ", w.s, id, name), err)
	}
}

func (w *fieldWriter) i32(name string, id int16, v int32) {
	w.field(name, thrift.I32, id, func() error { return w.p.WriteI32(w.ctx, v) })
}

func (w *fieldWriter) i64(name string, id int16, v int64) {
	w.field(name, thrift.I64, id, func() error { return w.p.WriteI64(w.ctx, v) })
}

func (w *fieldWriter) str(name string, id int16, v string) {
	w.field(name, thrift.STRING, id, func() error { return w.p.WriteString(w.ctx, v) })
}

func (w *fieldWriter) double(name string, id int16, v float64) {
	w.field(name, thrift.DOUBLE, id, func() error { return w.p.WriteDouble(w.ctx, v) })
}

func (w *fieldWriter) boolean(name string, id int16, v bool) {
	w.field(name, thrift.BOOL, id, func() error { return w.p.WriteBool(w.ctx, v) })
}

func (w *fieldWriter) binary(name string, id int16, v []byte) {
	w.field(name, thrift.STRING, id, func() error { return w.p.WriteBinary(w.ctx, v) })
}

func (w *fieldWriter) structure(name string, id int16, body func(context.Context, thrift.TProtocol) error) {
	w.field(name, thrift.STRUCT, id, func() error { return body(w.ctx, w.p) })
}

// list writes a list field of n structs, calling elem for each index.
func (w *fieldWriter) list(name string, id int16, n int, elem func(i int) error) {
	w.field(name, thrift.LIST, id, func() error {
		if err := w.p.WriteListBegin(w.ctx, thrift.STRUCT, n); err != nil {
			return thrift.PrependError("error writing list begin: ", err)
		}
		for i := 0; i < n; i++ {
			if err := elem(i); err != nil {
				return err
			}
		}
		if err := w.p.WriteListEnd(w.ctx); err != nil {
			return thrift.PrependError("error writing list end: ", err)
		}
		return nil
	})
}

func (w *fieldWriter) end() error {
	if w.err != nil {
		return w.err
	}
	if err := w.p.WriteFieldStop(w.ctx); err != nil {
		return thrift.PrependError("write field stop error: ", err)
	}
	if err := w.p.WriteStructEnd(w.ctx); err != nil {
		return thrift.PrependError("write struct stop error: ", err)
	}
	return nil
}

// Write encodes t to p.
func (t *Tag) Write(ctx context.Context, p thrift.TProtocol) error {
	w := newFieldWriter(ctx, p, "Tag")
	w.str("key", 1, t.Key)
	w.i32("vType", 2, int32(t.VType))
	switch t.VType {
	case TagTypeString:
		w.str("vStr", 3, t.VStr)
	case TagTypeDouble:
		w.double("vDouble", 4, t.VDouble)
	case TagTypeBool:
		w.boolean("vBool", 5, t.VBool)
	case TagTypeLong:
		w.i64("vLong", 6, t.VLong)
	case TagTypeBinary:
		w.binary("vBinary", 7, t.VBinary)
	}
	return w.end()
}

func writeTags(w *fieldWriter, name string, id int16, tags []Tag) {
	w.list(name, id, len(tags), func(i int) error {
		return tags[i].Write(w.ctx, w.p)
	})
}

// Write encodes l to p. The fields list is always written.
func (l *Log) Write(ctx context.Context, p thrift.TProtocol) error {
	w := newFieldWriter(ctx, p, "Log")
	w.i64("timestamp", 1, l.Timestamp)
	writeTags(w, "fields", 2, l.Fields)
	return w.end()
}

// Write encodes r to p.
func (r *SpanRef) Write(ctx context.Context, p thrift.TProtocol) error {
	w := newFieldWriter(ctx, p, "SpanRef")
	w.i32("refType", 1, int32(r.RefType))
	w.i64("traceIdLow", 2, r.TraceIDLow)
	w.i64("traceIdHigh", 3, r.TraceIDHigh)
	w.i64("spanId", 4, r.SpanID)
	return w.end()
}

// Write encodes s to p. Empty references, tags and logs are omitted.
func (s *Span) Write(ctx context.Context, p thrift.TProtocol) error {
	w := newFieldWriter(ctx, p, "Span")
	w.i64("traceIdLow", 1, s.TraceIDLow)
	w.i64("traceIdHigh", 2, s.TraceIDHigh)
	w.i64("spanId", 3, s.SpanID)
	w.i64("parentSpanId", 4, s.ParentSpanID)
	w.str("operationName", 5, s.OperationName)
	if len(s.References) > 0 {
		w.list("references", 6, len(s.References), func(i int) error {
			return s.References[i].Write(ctx, p)
		})
	}
	w.i32("flags", 7, s.Flags)
	w.i64("startTime", 8, s.StartTime)
	w.i64("duration", 9, s.Duration)
	if len(s.Tags) > 0 {
		writeTags(w, "tags", 10, s.Tags)
	}
	if len(s.Logs) > 0 {
		w.list("logs", 11, len(s.Logs), func(i int) error {
			return s.Logs[i].Write(ctx, p)
		})
	}
	return w.end()
}

// Write encodes pr to p. Empty tags are omitted.
func (pr *Process) Write(ctx context.Context, p thrift.TProtocol) error {
	w := newFieldWriter(ctx, p, "Process")
	w.str("serviceName", 1, pr.ServiceName)
	if len(pr.Tags) > 0 {
		writeTags(w, "tags", 2, pr.Tags)
	}
	return w.end()
}

// Write encodes c to p.
func (c *ClientStats) Write(ctx context.Context, p thrift.TProtocol) error {
	w := newFieldWriter(ctx, p, "ClientStats")
	w.i64("fullQueueDroppedSpans", 1, c.FullQueueDroppedSpans)
	w.i64("tooLargeDroppedSpans", 2, c.TooLargeDroppedSpans)
	w.i64("failedToEmitSpans", 3, c.FailedToEmitSpans)
	return w.end()
}

// Write encodes b to p.
func (b *Batch) Write(ctx context.Context, p thrift.TProtocol) error {
	w := newFieldWriter(ctx, p, "Batch")
	process := b.Process
	if process == nil {
		process = &Process{}
	}
	w.structure("process", 1, process.Write)
	w.list("spans", 2, len(b.Spans), func(i int) error {
		if b.Spans[i] == nil {
			return fmt.Errorf("nil span at index %d", i)
		}
		return b.Spans[i].Write(ctx, p)
	})
	if b.SeqNo != nil {
		w.i64("seqNo", 3, *b.SeqNo)
	}
	if b.Stats != nil {
		w.structure("stats", 4, b.Stats.Write)
	}
	return w.end()
}
