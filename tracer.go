// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Tracer starts spans and hands them to a SpanQueue when they finish.
//
// A Tracer is safe for concurrent use.
type Tracer struct {
	sampler Sampler
	queue   *SpanQueue
	ids     IDGenerator
	now     func() time.Time
}

// TracerOption configures a Tracer.
type TracerOption interface {
	apply(tracerConfig) tracerConfig
}

type tracerConfig struct {
	ids IDGenerator
	now func() time.Time
}

type tracerOptFn func(tracerConfig) tracerConfig

func (o tracerOptFn) apply(c tracerConfig) tracerConfig { return o(c) }

// WithIDGenerator returns a TracerOption that sets the generator of trace
// and span IDs. The default is RandomIDGenerator.
func WithIDGenerator(g IDGenerator) TracerOption {
	return tracerOptFn(func(c tracerConfig) tracerConfig {
		if g != nil {
			c.ids = g
		}
		return c
	})
}

// WithClock returns a TracerOption that sets the function used to read the
// current time. The default is time.Now.
func WithClock(now func() time.Time) TracerOption {
	return tracerOptFn(func(c tracerConfig) tracerConfig {
		if now != nil {
			c.now = now
		}
		return c
	})
}

// NewTracer returns a Tracer that consults sampler for every new span and
// pushes sampled spans to queue when they finish. A nil sampler uses
// DefaultSampler.
func NewTracer(sampler Sampler, queue *SpanQueue, opts ...TracerOption) *Tracer {
	c := tracerConfig{ids: RandomIDGenerator(), now: time.Now}
	for _, opt := range opts {
		c = opt.apply(c)
	}
	if sampler == nil {
		sampler = DefaultSampler()
	}
	return &Tracer{sampler: sampler, queue: queue, ids: c.ids, now: c.now}
}

// StartSpanOption configures a span started by Tracer.StartSpan.
type StartSpanOption interface {
	apply(*startConfig)
}

type startConfig struct {
	refs      []SpanReference
	tags      []attribute.KeyValue
	startTime time.Time
}

type startOptFn func(*startConfig)

func (o startOptFn) apply(c *startConfig) { o(c) }

// ChildOf returns a StartSpanOption adding a ChildOf reference to parent.
func ChildOf(parent SpanContext) StartSpanOption {
	return startOptFn(func(c *startConfig) {
		c.refs = append(c.refs, SpanReference{Kind: RefChildOf, Context: parent})
	})
}

// FollowsFrom returns a StartSpanOption adding a FollowsFrom reference.
func FollowsFrom(sc SpanContext) StartSpanOption {
	return startOptFn(func(c *startConfig) {
		c.refs = append(c.refs, SpanReference{Kind: RefFollowsFrom, Context: sc})
	})
}

// WithTags returns a StartSpanOption setting initial span tags.
func WithTags(tags ...attribute.KeyValue) StartSpanOption {
	return startOptFn(func(c *startConfig) {
		c.tags = append(c.tags, tags...)
	})
}

// WithStartTime returns a StartSpanOption setting the span start time.
func WithStartTime(t time.Time) StartSpanOption {
	return startOptFn(func(c *startConfig) {
		c.startTime = t
	})
}

// StartSpan starts a span named name.
//
// References to contexts that carry only a debug ID (as extracted from a
// carrier holding just DebugHeaderName) are not kept as references; their
// debug ID is attached to the new span instead, which forces it to be
// sampled.
func (t *Tracer) StartSpan(name string, opts ...StartSpanOption) *Span {
	var cfg startConfig
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if cfg.startTime.IsZero() {
		cfg.startTime = t.now()
	}

	var debugID string
	refs := make([]SpanReference, 0, len(cfg.refs))
	for _, r := range cfg.refs {
		if r.Context.IsValid() {
			refs = append(refs, r)
			continue
		}
		if id, ok := r.Context.DebugID(); ok && debugID == "" {
			debugID = id
		}
	}

	sc := NewSpanContextFromReferences(refs, t.ids).withDebugID(debugID)
	sampled := sc.IsDebug() || t.sampler.ShouldSample(CandidateSpan{
		OperationName: name,
		Context:       sc,
		References:    refs,
		Tags:          cfg.tags,
	})
	if !sampled {
		sc = sc.withFlags(sc.Flags() &^ FlagSampled)
	}

	return &Span{
		tracer:  t,
		sampled: sampled,
		record: FinishedSpan{
			OperationName: name,
			Context:       sc,
			References:    refs,
			StartTime:     cfg.startTime,
			Tags:          slices.Clone(cfg.tags),
		},
	}
}

// Span is an active span. It is reported when Finish is called, if it was
// sampled.
//
// A Span is safe for concurrent use.
type Span struct {
	tracer  *Tracer
	sampled bool

	mu       sync.Mutex
	record   FinishedSpan
	finished bool
}

// Context returns the SpanContext of s. The context of a span that was not
// sampled has FlagSampled cleared.
func (s *Span) Context() SpanContext {
	// The context is never modified after the span is started.
	return s.record.Context
}

// IsSampled reports whether s will be reported.
func (s *Span) IsSampled() bool { return s.sampled }

// SetOperationName changes the name of s.
func (s *Span) SetOperationName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.OperationName = name
}

// SetTags adds tags to s.
func (s *Span) SetTags(tags ...attribute.KeyValue) {
	if !s.sampled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.record.Tags = append(s.record.Tags, tags...)
}

// Log records a log event with the current time.
func (s *Span) Log(fields ...attribute.KeyValue) {
	s.LogAt(s.tracer.now(), fields...)
}

// LogAt records a log event at time t.
func (s *Span) LogAt(t time.Time, fields ...attribute.KeyValue) {
	if !s.sampled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.record.Logs = append(s.record.Logs, Log{Time: t, Fields: slices.Clone(fields)})
}

// Finish ends s with the current time.
func (s *Span) Finish() { s.FinishAt(s.tracer.now()) }

// FinishAt ends s at time t. Only the first call has an effect.
func (s *Span) FinishAt(t time.Time) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.record.FinishTime = t
	rec := s.record
	s.mu.Unlock()

	if s.sampled && s.tracer.queue != nil {
		s.tracer.queue.Push(rec)
	}
}
