// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package otelmap maps OpenTelemetry span fields that have no Jaeger
// counterpart to the tags Jaeger uses for them.
package otelmap

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tag keys.
const (
	SpanKindKey          = attribute.Key("span.kind")
	ErrorKey             = attribute.Key("error")
	StatusCodeKey        = attribute.Key("otel.status_code")
	StatusDescriptionKey = attribute.Key("otel.status_description")
	ScopeNameKey         = attribute.Key("otel.scope.name")
	ScopeVersionKey      = attribute.Key("otel.scope.version")
	EventKey             = attribute.Key("event")
)

// AppendKind appends the span.kind tag for kind. Internal and unspecified
// spans have no tag.
func AppendKind(dest []attribute.KeyValue, kind trace.SpanKind) []attribute.KeyValue {
	switch kind {
	case trace.SpanKindServer, trace.SpanKindClient, trace.SpanKindProducer, trace.SpanKindConsumer:
		return append(dest, SpanKindKey.String(kind.String()))
	default:
		return dest
	}
}

// AppendStatus appends the tags describing a span status. An unset status
// has no tags. An error status also sets error=true.
func AppendStatus(dest []attribute.KeyValue, code codes.Code, description string) []attribute.KeyValue {
	switch code {
	case codes.Ok:
		return append(dest, StatusCodeKey.String("OK"))
	case codes.Error:
		dest = append(dest, ErrorKey.Bool(true), StatusCodeKey.String("ERROR"))
		if description != "" {
			dest = append(dest, StatusDescriptionKey.String(description))
		}
		return dest
	default:
		return dest
	}
}

// AppendScope appends the instrumentation scope tags. Empty values are
// skipped.
func AppendScope(dest []attribute.KeyValue, name, version string) []attribute.KeyValue {
	if name != "" {
		dest = append(dest, ScopeNameKey.String(name))
	}
	if version != "" {
		dest = append(dest, ScopeVersionKey.String(version))
	}
	return dest
}

// EventFields returns the fields of a log built from a span event.
func EventFields(name string, attrs []attribute.KeyValue) []attribute.KeyValue {
	fields := make([]attribute.KeyValue, 0, len(attrs)+1)
	fields = append(fields, EventKey.String(name))
	return append(fields, attrs...)
}
