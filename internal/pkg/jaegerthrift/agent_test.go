// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaegerthrift_test

import (
	"context"
	"testing"
	"time"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tracewire/jaeger"
	"github.com/tracewire/jaeger/internal/pkg/jaegerthrift"
	"github.com/tracewire/jaeger/internal/pkg/jaegerthrift/thrifttest"
)

var protocols = []jaegerthrift.Protocol{
	jaegerthrift.ProtocolCompact,
	jaegerthrift.ProtocolBinary,
}

func encodeDecode(t *testing.T, proto jaegerthrift.Protocol, b *jaegerthrift.Batch) thrifttest.Fields {
	t.Helper()

	ctx := context.Background()
	data, err := jaegerthrift.Encode(ctx, proto, b)
	require.NoError(t, err)

	msg, err := thrifttest.Decode(ctx, proto, data)
	require.NoError(t, err)
	assert.Equal(t, jaegerthrift.EmitBatchMethod, msg.Name)
	assert.Equal(t, thrift.ONEWAY, msg.Type)
	assert.Equal(t, int32(0), msg.SeqID)

	require.Len(t, msg.Args, 1)
	batch := msg.Args.Struct(1)
	require.NotNil(t, batch)
	return batch
}

func TestEncodeBatch(t *testing.T) {
	sc := jaeger.NewSpanContextBuilder().
		TraceID(jaeger.TraceID{High: 7, Low: 8}).
		SpanID(9).
		Finish()
	parent := jaeger.NewSpanContextBuilder().
		TraceID(jaeger.TraceID{High: 7, Low: 8}).
		SpanID(5).
		Finish()
	start := time.UnixMicro(1_700_000_000_000_000)

	process := jaegerthrift.NewProcess("svc", []attribute.KeyValue{
		attribute.String("jaeger.version", "Go-v0.0.1"),
	})
	b := jaegerthrift.NewBatch(process, []jaeger.FinishedSpan{{
		OperationName: "op",
		Context:       sc,
		References:    []jaeger.SpanReference{{Kind: jaeger.RefChildOf, Context: parent}},
		StartTime:     start,
		FinishTime:    start.Add(42 * time.Microsecond),
		Tags: []attribute.KeyValue{
			attribute.Bool("b", true),
			attribute.Float64("d", 1.5),
		},
		Logs: []jaeger.Log{{Time: start}},
	}})

	for _, proto := range protocols {
		t.Run(proto.String(), func(t *testing.T) {
			batch := encodeDecode(t, proto, b)
			assert.Len(t, batch, 2, "optional seqNo and stats must be omitted")

			p := batch.Struct(1)
			assert.Equal(t, thrifttest.Fields{
				1: "svc",
				2: []any{thrifttest.Fields{1: "jaeger.version", 2: int32(0), 3: "Go-v0.0.1"}},
			}, p)

			spans := batch.List(2)
			require.Len(t, spans, 1)
			span := spans[0].(thrifttest.Fields)

			assert.Equal(t, int64(8), span[1])
			assert.Equal(t, int64(7), span[2])
			assert.Equal(t, int64(9), span[3])
			assert.Equal(t, int64(5), span[4])
			assert.Equal(t, "op", span[5])
			assert.Equal(t, []any{thrifttest.Fields{
				1: int32(0), 2: int64(8), 3: int64(7), 4: int64(5),
			}}, span[6])
			assert.Equal(t, int32(1), span[7])
			assert.Equal(t, start.UnixMicro(), span[8])
			assert.Equal(t, int64(42), span[9])
			assert.Equal(t, []any{
				thrifttest.Fields{1: "b", 2: int32(2), 5: true},
				thrifttest.Fields{1: "d", 2: int32(1), 4: 1.5},
			}, span[10])
			assert.Equal(t, []any{
				thrifttest.Fields{1: start.UnixMicro(), 2: []any{}},
			}, span[11])
		})
	}
}

func TestEncodeOmitsEmptyOptionalLists(t *testing.T) {
	sc := jaeger.NewSpanContextBuilder().
		TraceID(jaeger.TraceID{Low: 1}).
		SpanID(2).
		Finish()
	b := jaegerthrift.NewBatch(
		jaegerthrift.NewProcess("svc", nil),
		[]jaeger.FinishedSpan{{OperationName: "op", Context: sc}},
	)

	for _, proto := range protocols {
		t.Run(proto.String(), func(t *testing.T) {
			batch := encodeDecode(t, proto, b)

			assert.Equal(t, thrifttest.Fields{1: "svc"}, batch.Struct(1))

			spans := batch.List(2)
			require.Len(t, spans, 1)
			span := spans[0].(thrifttest.Fields)
			for _, id := range []int16{6, 10, 11} {
				assert.NotContains(t, span, id)
			}
			for _, id := range []int16{1, 2, 3, 4, 5, 7, 8, 9} {
				assert.Contains(t, span, id)
			}
		})
	}
}

func TestEncodeClientStats(t *testing.T) {
	seq := int64(12)
	b := &jaegerthrift.Batch{
		Process: &jaegerthrift.Process{ServiceName: "svc"},
		SeqNo:   &seq,
		Stats: &jaegerthrift.ClientStats{
			FullQueueDroppedSpans: 1,
			TooLargeDroppedSpans:  2,
			FailedToEmitSpans:     3,
		},
	}

	for _, proto := range protocols {
		t.Run(proto.String(), func(t *testing.T) {
			batch := encodeDecode(t, proto, b)
			assert.Equal(t, []any{}, batch.List(2))
			assert.Equal(t, int64(12), batch[3])
			assert.Equal(t, thrifttest.Fields{
				1: int64(1), 2: int64(2), 3: int64(3),
			}, batch.Struct(4))
		})
	}
}

func TestEncodeTagTypes(t *testing.T) {
	b := &jaegerthrift.Batch{
		Process: &jaegerthrift.Process{
			ServiceName: "svc",
			Tags: []jaegerthrift.Tag{
				jaegerthrift.StringTag("s", "v"),
				jaegerthrift.DoubleTag("d", 2.5),
				jaegerthrift.BoolTag("b", false),
				jaegerthrift.LongTag("l", -3),
				jaegerthrift.BinaryTag("x", []byte{0xde, 0xad}),
			},
		},
	}

	for _, proto := range protocols {
		t.Run(proto.String(), func(t *testing.T) {
			tags := encodeDecode(t, proto, b).Struct(1).List(2)
			assert.Equal(t, []any{
				thrifttest.Fields{1: "s", 2: int32(0), 3: "v"},
				thrifttest.Fields{1: "d", 2: int32(1), 4: 2.5},
				thrifttest.Fields{1: "b", 2: int32(2), 5: false},
				thrifttest.Fields{1: "l", 2: int32(3), 6: int64(-3)},
				thrifttest.Fields{1: "x", 2: int32(4), 7: "\xde\xad"},
			}, tags)
		})
	}
}

func TestEncodeNilBatch(t *testing.T) {
	_, err := jaegerthrift.Encode(context.Background(), jaegerthrift.ProtocolCompact, nil)
	assert.Error(t, err)
}

func TestEncodeUnknownProtocol(t *testing.T) {
	_, err := jaegerthrift.Encode(context.Background(), jaegerthrift.Protocol(9), &jaegerthrift.Batch{})
	assert.ErrorContains(t, err, "unsupported protocol")
}
