// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"context"
	"errors"

	"github.com/tracewire/jaeger"
	"github.com/tracewire/jaeger/internal/pkg/jaegerthrift"
)

// Run reports the spans pushed to q until ctx is done or q is closed and
// drained.
//
// Each batch holds one span waited for and up to WithMaxBatchSpans-1 more
// spans already queued. Batches carry a sequence number and client stats.
// Report errors are logged and do not stop Run.
//
// Run returns ctx.Err() if ctx is done, and nil once q is closed and empty.
func (r *Reporter) Run(ctx context.Context, q *jaeger.SpanQueue) error {
	var (
		seqNo       int64
		failed      int64
		lastDropped uint64
		batch       = make([]jaeger.FinishedSpan, 0, r.maxBatchSpans)
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s, err := q.Pop(ctx)
		if err != nil {
			if errors.Is(err, jaeger.ErrQueueClosed) {
				r.logger.Debug("span queue closed, reporter stopping")
				return nil
			}
			return err
		}

		batch = append(batch[:0], s)
		for len(batch) < r.maxBatchSpans {
			s, ok := q.TryPop()
			if !ok {
				break
			}
			batch = append(batch, s)
		}

		dropped := q.Dropped()
		r.metrics.queueDropped.Add(float64(dropped - lastDropped))
		r.metrics.queueLength.Set(float64(q.Len()))
		lastDropped = dropped

		seqNo++
		seq := seqNo
		stats := &jaegerthrift.ClientStats{
			FullQueueDroppedSpans: int64(dropped),
			FailedToEmitSpans:     failed,
		}
		if err := r.report(ctx, batch, &seq, stats); err != nil {
			failed += int64(len(batch))
			r.logger.Error("failed to report spans", "error", err, "spans", len(batch))
			continue
		}
		r.logger.Debug("reported spans", "spans", len(batch), "seq", seq)
	}
}
