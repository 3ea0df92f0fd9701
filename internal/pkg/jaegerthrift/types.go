// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package jaegerthrift provides the jaeger.thrift and agent.thrift data
// model used to report spans to a Jaeger agent, and its Thrift encoding.
//
// Field IDs are part of the wire contract with the agent and must match
// jaeger.thrift exactly.
package jaegerthrift

import "fmt"

// TagType is the type of the value held by a Tag.
type TagType int32

// Tag value types.
const (
	TagTypeString TagType = 0
	TagTypeDouble TagType = 1
	TagTypeBool   TagType = 2
	TagTypeLong   TagType = 3
	TagTypeBinary TagType = 4
)

func (t TagType) String() string {
	switch t {
	case TagTypeString:
		return "STRING"
	case TagTypeDouble:
		return "DOUBLE"
	case TagTypeBool:
		return "BOOL"
	case TagTypeLong:
		return "LONG"
	case TagTypeBinary:
		return "BINARY"
	default:
		return fmt.Sprintf("TagType(%d)", int32(t))
	}
}

// Tag is a typed key/value pair. Only the value matching VType is encoded.
type Tag struct {
	Key     string
	VType   TagType
	VStr    string
	VDouble float64
	VBool   bool
	VLong   int64
	VBinary []byte
}

// StringTag returns a string Tag.
func StringTag(key, value string) Tag {
	return Tag{Key: key, VType: TagTypeString, VStr: value}
}

// DoubleTag returns a double Tag.
func DoubleTag(key string, value float64) Tag {
	return Tag{Key: key, VType: TagTypeDouble, VDouble: value}
}

// BoolTag returns a bool Tag.
func BoolTag(key string, value bool) Tag {
	return Tag{Key: key, VType: TagTypeBool, VBool: value}
}

// LongTag returns a long Tag.
func LongTag(key string, value int64) Tag {
	return Tag{Key: key, VType: TagTypeLong, VLong: value}
}

// BinaryTag returns a binary Tag.
func BinaryTag(key string, value []byte) Tag {
	return Tag{Key: key, VType: TagTypeBinary, VBinary: value}
}

// Log is a timed event with a list of fields.
type Log struct {
	// Timestamp in microseconds since the Unix epoch.
	Timestamp int64
	Fields    []Tag
}

// SpanRefType is the kind of a SpanRef.
type SpanRefType int32

// Span reference kinds.
const (
	SpanRefTypeChildOf     SpanRefType = 0
	SpanRefTypeFollowsFrom SpanRefType = 1
)

func (t SpanRefType) String() string {
	switch t {
	case SpanRefTypeChildOf:
		return "CHILD_OF"
	case SpanRefTypeFollowsFrom:
		return "FOLLOWS_FROM"
	default:
		return fmt.Sprintf("SpanRefType(%d)", int32(t))
	}
}

// SpanRef is a reference from one span to another.
type SpanRef struct {
	RefType     SpanRefType
	TraceIDLow  int64
	TraceIDHigh int64
	SpanID      int64
}

// Span is a span as stored by Jaeger.
type Span struct {
	TraceIDLow    int64
	TraceIDHigh   int64
	SpanID        int64
	ParentSpanID  int64
	OperationName string
	References    []SpanRef
	Flags         int32
	// StartTime in microseconds since the Unix epoch.
	StartTime int64
	// Duration in microseconds. It may be negative.
	Duration int64
	Tags     []Tag
	Logs     []Log
}

// Process describes the traced process.
type Process struct {
	ServiceName string
	Tags        []Tag
}

// ClientStats are client side counters reported with a Batch.
type ClientStats struct {
	FullQueueDroppedSpans int64
	TooLargeDroppedSpans  int64
	FailedToEmitSpans     int64
}

// Batch is a collection of spans reported out of process.
type Batch struct {
	Process *Process
	Spans   []*Span
	// SeqNo is written only when non-nil.
	SeqNo *int64
	// Stats is written only when non-nil.
	Stats *ClientStats
}
