// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/tracewire/jaeger"
)

// emitDemoSpans finishes a "main" span and its child "sub". The child is
// started from a context passed through a text map, the way it would be
// received from another process.
func emitDemoSpans(tracer *jaeger.Tracer, logger *slog.Logger) error {
	root := tracer.StartSpan("main")
	defer root.Finish()

	carrier := jaeger.TextMapCarrier{}
	if err := jaeger.InjectTextMap(root.Context(), carrier); err != nil {
		return fmt.Errorf("inject: %w", err)
	}
	parent, ok, err := jaeger.ExtractTextMap(carrier)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if !ok {
		return fmt.Errorf("extract: no span context in %v", carrier)
	}
	logger.Debug("propagated span context", jaeger.TraceContextHeaderName, parent.String())

	sub := tracer.StartSpan("sub",
		jaeger.ChildOf(parent),
		jaeger.WithTags(attribute.String("foo", "bar")),
	)
	sub.Log(
		attribute.String("event", "error"),
		attribute.String("message", "something wrong"),
	)
	sub.Finish()
	return nil
}

// helloHandler greets every request and traces it as a child of the span
// context found in the request headers.
type helloHandler struct {
	tracer *jaeger.Tracer
	logger *slog.Logger
}

func (h *helloHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	opts := []jaeger.StartSpanOption{
		jaeger.WithTags(
			semconv.HTTPRequestMethodKey.String(req.Method),
			semconv.URLPath(req.URL.Path),
		),
	}
	parent, ok, err := jaeger.ExtractHTTPHeaders(jaeger.HTTPHeaderCarrier(req.Header))
	switch {
	case err != nil:
		h.logger.Debug("ignoring invalid span context", "error", err)
	case ok:
		opts = append(opts, jaeger.ChildOf(parent))
	}

	span := h.tracer.StartSpan("hello.handle_request", opts...)
	defer span.Finish()

	_ = jaeger.InjectHTTPHeaders(span.Context(), jaeger.HTTPHeaderCarrier(w.Header()))
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, "Hello: %s\n", req.URL.Path); err != nil {
		span.SetTags(attribute.Bool("error", true))
		span.Log(attribute.String("event", "error"), attribute.String("message", err.Error()))
	}
	span.SetTags(semconv.HTTPResponseStatusCodeKey.Int(http.StatusOK))
}
