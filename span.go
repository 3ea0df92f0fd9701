// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// ReferenceKind is the causal relationship of a span to a referenced span.
type ReferenceKind uint8

const (
	// RefChildOf means the referenced span depends on the result of this
	// span.
	RefChildOf ReferenceKind = iota
	// RefFollowsFrom means the referenced span does not depend on this span.
	RefFollowsFrom
)

func (k ReferenceKind) String() string {
	switch k {
	case RefChildOf:
		return "child_of"
	case RefFollowsFrom:
		return "follows_from"
	default:
		return "unknown"
	}
}

// SpanReference is a reference from a span to another span.
type SpanReference struct {
	Kind    ReferenceKind
	Context SpanContext
}

// Log is a timed event recorded on a span.
type Log struct {
	Time   time.Time
	Fields []attribute.KeyValue
}

// FinishedSpan is the record of a completed span handed to a reporter.
type FinishedSpan struct {
	OperationName string
	Context       SpanContext
	// References in the order they were added. The first one is the primary
	// parent.
	References []SpanReference
	StartTime  time.Time
	FinishTime time.Time
	Tags       []attribute.KeyValue
	Logs       []Log
}

// SpanReporter sends finished spans out of process.
type SpanReporter interface {
	Report(context.Context, []FinishedSpan) error
}
