// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of the admissions counter besides the reject kinds.
const (
	outcomeAccepted  = "accepted"
	outcomeThrottled = "throttled"
	outcomeError     = "error"
)

// Metrics holds the Prometheus collectors of a pool.  A nil *Metrics
// records nothing.
type Metrics struct {
	Admissions       *prometheus.CounterVec
	Removals         *prometheus.CounterVec
	PoolTxs          prometheus.Gauge
	PoolBytes        prometheus.Gauge
	ToleratedSpends  prometheus.Gauge
	AdmissionLatency prometheus.Histogram
}

// NewMetrics creates the pool collectors under namespace and registers them
// with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Admissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mempool",
			Name:      "admissions_total",
			Help:      "Admission attempts by outcome",
		}, []string{"outcome"}),
		Removals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mempool",
			Name:      "removals_total",
			Help:      "Transactions removed from the pool by reason",
		}, []string{"reason"}),
		PoolTxs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mempool",
			Name:      "transactions",
			Help:      "Number of transactions in the pool",
		}),
		PoolBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mempool",
			Name:      "vbytes",
			Help:      "Total virtual size of the pool",
		}),
		ToleratedSpends: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mempool",
			Name:      "tolerated_double_spends",
			Help:      "Asset allocation double spends currently tolerated",
		}),
		AdmissionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mempool",
			Name:      "admission_latency_seconds",
			Help:      "Time spent on admission attempts",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
	}
}

// recordAdmission records the outcome and latency of an attempt.
func (m *Metrics) recordAdmission(err error, duration time.Duration) {
	if m == nil {
		return
	}

	outcome := outcomeAccepted
	if err != nil {
		outcome = outcomeError
		if terr, ok := extractTxRuleError(err); ok {
			outcome = terr.Kind.String()
		} else if errors.Is(err, ErrAdmissionThrottled) {
			outcome = outcomeThrottled
		}
	}
	m.Admissions.WithLabelValues(outcome).Inc()
	m.AdmissionLatency.Observe(duration.Seconds())
}

// recordRemovals counts n removals for reason.
func (m *Metrics) recordRemovals(reason RemovalReason, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Removals.WithLabelValues(reason.String()).Add(float64(n))
}

// updatePool sets the pool gauges.
func (m *Metrics) updatePool(count int, vbytes int64, tolerated int) {
	if m == nil {
		return
	}
	m.PoolTxs.Set(float64(count))
	m.PoolBytes.Set(float64(vbytes))
	m.ToleratedSpends.Set(float64(tolerated))
}
