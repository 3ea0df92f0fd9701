// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// OverflowPolicy is the behavior of a full SpanQueue when a span is pushed.
type OverflowPolicy uint8

const (
	// OverflowBlock makes Push wait until space is available or the queue
	// is closed.
	OverflowBlock OverflowPolicy = iota
	// OverflowDropOldest makes Push evict the oldest queued span to make
	// room. Evicted spans are counted by Dropped.
	OverflowDropOldest
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowBlock:
		return "block"
	case OverflowDropOldest:
		return "drop_oldest"
	default:
		return "unknown"
	}
}

// DefaultQueueCapacity is the capacity used when NewSpanQueue is given a
// non-positive capacity.
const DefaultQueueCapacity = 1024

// ErrQueueClosed is returned by Pop once the queue is closed and empty.
var ErrQueueClosed = errors.New("span queue closed")

// SpanQueue is a bounded first-in-first-out queue of finished spans. It
// hands spans from the goroutines running them to a reporting goroutine.
//
// A SpanQueue is safe for concurrent use.
type SpanQueue struct {
	spans  chan FinishedSpan
	policy OverflowPolicy

	done      chan struct{}
	closeOnce sync.Once

	dropped atomic.Uint64
}

// NewSpanQueue returns a SpanQueue holding at most capacity spans.
func NewSpanQueue(capacity int, policy OverflowPolicy) *SpanQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &SpanQueue{
		spans:  make(chan FinishedSpan, capacity),
		policy: policy,
		done:   make(chan struct{}),
	}
}

// Capacity returns the maximum number of queued spans.
func (q *SpanQueue) Capacity() int { return cap(q.spans) }

// Len returns the number of queued spans.
func (q *SpanQueue) Len() int { return len(q.spans) }

// Dropped returns the number of spans dropped because the queue was full or
// closed.
func (q *SpanQueue) Dropped() uint64 { return q.dropped.Load() }

// Push adds s to the queue and reports whether it was queued. Spans pushed
// after Close are dropped.
func (q *SpanQueue) Push(s FinishedSpan) bool {
	select {
	case <-q.done:
		q.dropped.Add(1)
		return false
	default:
	}

	if q.policy == OverflowDropOldest {
		for {
			select {
			case q.spans <- s:
				return true
			default:
			}
			select {
			case <-q.spans:
				q.dropped.Add(1)
			default:
			}
		}
	}

	select {
	case q.spans <- s:
		return true
	case <-q.done:
		q.dropped.Add(1)
		return false
	}
}

// Pop removes and returns the oldest span, waiting until one is available.
// It returns ctx.Err() if ctx is done first, and ErrQueueClosed once the
// queue is closed and drained.
func (q *SpanQueue) Pop(ctx context.Context) (FinishedSpan, error) {
	select {
	case s := <-q.spans:
		return s, nil
	default:
	}

	select {
	case s := <-q.spans:
		return s, nil
	case <-ctx.Done():
		return FinishedSpan{}, ctx.Err()
	case <-q.done:
		// Drain what was queued before Close.
		if s, ok := q.TryPop(); ok {
			return s, nil
		}
		return FinishedSpan{}, ErrQueueClosed
	}
}

// TryPop removes and returns the oldest span if one is queued.
func (q *SpanQueue) TryPop() (FinishedSpan, bool) {
	select {
	case s := <-q.spans:
		return s, true
	default:
		return FinishedSpan{}, false
	}
}

// Close stops the queue from accepting spans. Spans already queued can
// still be popped. Blocked producers return.
func (q *SpanQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
