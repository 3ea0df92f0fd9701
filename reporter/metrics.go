// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "jaeger"
	metricsSubsystem = "reporter"

	resultSent   = "sent"
	resultFailed = "failed"
)

type metrics struct {
	batches      *prometheus.CounterVec
	spans        *prometheus.CounterVec
	bytes        prometheus.Counter
	queueDropped prometheus.Counter
	queueLength  prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "batches_total",
			Help:      "The number of emitBatch datagrams the reporter tried to send, by result",
		}, []string{"result"}),
		spans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "spans_total",
			Help:      "The number of spans the reporter tried to send, by result",
		}, []string{"result"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sent_bytes_total",
			Help:      "The number of payload bytes sent to the agent",
		}),
		queueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "queue_dropped_spans_total",
			Help:      "The number of spans dropped by the span queue drained by the reporter",
		}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "queue_length",
			Help:      "The number of spans waiting in the span queue drained by the reporter",
		}),
	}
	for _, result := range []string{resultSent, resultFailed} {
		m.batches.WithLabelValues(result).Add(0)
		m.spans.WithLabelValues(result).Add(0)
	}
	return m
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.batches, m.spans, m.bytes, m.queueDropped, m.queueLength}
}

// register registers m with reg. Collectors already registered by another
// reporter are shared.
func (m *metrics) register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	var err error
	for _, c := range m.collectors() {
		if e := reg.Register(c); e != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(e, &are) {
				m.adopt(c, are.ExistingCollector)
				continue
			}
			err = errors.Join(err, e)
		}
	}
	return err
}

func (m *metrics) adopt(mine, existing prometheus.Collector) {
	switch mine {
	case m.batches:
		m.batches = existing.(*prometheus.CounterVec)
	case m.spans:
		m.spans = existing.(*prometheus.CounterVec)
	case m.bytes:
		m.bytes = existing.(prometheus.Counter)
	case m.queueDropped:
		m.queueDropped = existing.(prometheus.Counter)
	case m.queueLength:
		m.queueLength = existing.(prometheus.Gauge)
	}
}

func (m *metrics) sent(spans, size int) {
	m.batches.WithLabelValues(resultSent).Inc()
	m.spans.WithLabelValues(resultSent).Add(float64(spans))
	m.bytes.Add(float64(size))
}

func (m *metrics) failed(spans int) {
	m.batches.WithLabelValues(resultFailed).Inc()
	m.spans.WithLabelValues(resultFailed).Add(float64(spans))
}
