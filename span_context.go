// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

// Flags is the bit field used to propagate sampling decisions.
type Flags uint8

const (
	// FlagSampled signifies a sampled span.
	FlagSampled Flags = 0x01
	// FlagDebug signifies a span forced to be sampled by a debug ID.
	FlagDebug Flags = 0x02
)

// SpanContext is the Jaeger-specific identity of a span that crosses process
// boundaries.
//
// A SpanContext is an immutable value. A non-empty debug ID always comes with
// FlagDebug set.
type SpanContext struct {
	traceID TraceID
	spanID  uint64
	flags   Flags
	debugID string
}

// TraceID returns the identifier of the trace the span belongs to.
func (sc SpanContext) TraceID() TraceID { return sc.traceID }

// SpanID returns the identifier of the span.
func (sc SpanContext) SpanID() uint64 { return sc.spanID }

// Flags returns the flag bits of the span.
func (sc SpanContext) Flags() Flags { return sc.flags }

// IsSampled reports whether FlagSampled is set.
func (sc SpanContext) IsSampled() bool { return sc.flags&FlagSampled != 0 }

// IsDebug reports whether FlagDebug is set.
func (sc SpanContext) IsDebug() bool { return sc.flags&FlagDebug != 0 }

// DebugID returns the debug identifier of the span, if one exists.
func (sc SpanContext) DebugID() (string, bool) {
	return sc.debugID, sc.debugID != ""
}

// IsValid reports whether sc identifies a span. A context extracted from a
// carrier holding only a debug ID is not valid.
func (sc SpanContext) IsValid() bool {
	return !sc.traceID.IsZero() && sc.spanID != 0
}

// String returns the trace-context line used by the text-map and HTTP-header
// carriers.
func (sc SpanContext) String() string { return formatTraceContext(sc) }

func (sc SpanContext) withDebugID(id string) SpanContext {
	if id != "" {
		sc.flags |= FlagDebug
		sc.debugID = id
	}
	return sc
}

func (sc SpanContext) withFlags(f Flags) SpanContext {
	sc.flags = f
	return sc
}

// SpanContextBuilder builds a SpanContext outside of a [Tracer], for example
// to support a custom carrier format.
//
// The zero value is not usable, use NewSpanContextBuilder.
type SpanContextBuilder struct {
	traceID *TraceID
	spanID  *uint64
	flags   Flags
	debugID string
	ids     IDGenerator
}

// NewSpanContextBuilder returns a builder with FlagSampled set and no IDs.
func NewSpanContextBuilder() SpanContextBuilder {
	return SpanContextBuilder{flags: FlagSampled, ids: RandomIDGenerator()}
}

// TraceID sets the trace ID. A random one is used if it is never set.
func (b SpanContextBuilder) TraceID(id TraceID) SpanContextBuilder {
	b.traceID = &id
	return b
}

// SpanID sets the span ID. A random one is used if it is never set.
func (b SpanContextBuilder) SpanID(id uint64) SpanContextBuilder {
	b.spanID = &id
	return b
}

// Flags replaces the flag bits. FlagDebug is still added by a non-empty
// debug ID.
func (b SpanContextBuilder) Flags(f Flags) SpanContextBuilder {
	b.flags = f
	return b
}

// DebugID sets the debug ID and FlagDebug. An empty id is ignored.
func (b SpanContextBuilder) DebugID(id string) SpanContextBuilder {
	if id != "" {
		b.debugID = id
	}
	return b
}

// WithIDGenerator sets the generator used to fill unset IDs.
func (b SpanContextBuilder) WithIDGenerator(g IDGenerator) SpanContextBuilder {
	if g != nil {
		b.ids = g
	}
	return b
}

// Finish returns the built SpanContext.
func (b SpanContextBuilder) Finish() SpanContext {
	ids := b.ids
	if ids == nil {
		ids = RandomIDGenerator()
	}

	sc := SpanContext{flags: b.flags}
	if b.traceID != nil {
		sc.traceID = *b.traceID
	} else {
		sc.traceID = ids.NewTraceID()
	}
	if b.spanID != nil {
		sc.spanID = *b.spanID
	} else {
		sc.spanID = ids.NewSpanID()
	}
	return sc.withDebugID(b.debugID)
}

// NewSpanContextFromReferences returns the context of a new span given its
// references.
//
// Without references a new root is minted: random trace ID, random span ID,
// FlagSampled. Otherwise the trace ID of the first reference is inherited,
// the span ID is random and FlagSampled is set.
func NewSpanContextFromReferences(refs []SpanReference, ids IDGenerator) SpanContext {
	if ids == nil {
		ids = RandomIDGenerator()
	}

	var traceID TraceID
	if len(refs) > 0 {
		traceID = refs[0].Context.TraceID()
	} else {
		traceID = ids.NewTraceID()
	}
	return SpanContext{
		traceID: traceID,
		spanID:  ids.NewSpanID(),
		flags:   FlagSampled,
	}
}
