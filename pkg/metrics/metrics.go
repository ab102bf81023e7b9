// Package metrics exposes Prometheus instrumentation for the coordinator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records entry-point outcomes and custody state.
type Metrics struct {
	calls     *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	transfers *prometheus.CounterVec
	escrowed  *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil registerer
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trade_sphere_entry_point_calls_total",
			Help: "Count of entry-point invocations by outcome code.",
		}, []string{"entry_point", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trade_sphere_entry_point_duration_seconds",
			Help:    "Entry-point latency including the time spent waiting for the coordinator lock.",
			Buckets: prometheus.DefBuckets,
		}, []string{"entry_point"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trade_sphere_escrow_transfers_total",
			Help: "Sum of asset units moved into or out of custody.",
		}, []string{"asset", "direction"}),
		escrowed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trade_sphere_custody_escrowed",
			Help: "Escrow owed per asset as of the last custody audit.",
		}, []string{"asset"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.latency, m.transfers, m.escrowed)
	}
	return m
}

// ObserveCall records one entry-point invocation. An empty outcome means
// success.
func (m *Metrics) ObserveCall(entryPoint, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "ok"
	}
	m.calls.WithLabelValues(entryPoint, outcome).Inc()
	m.latency.WithLabelValues(entryPoint).Observe(took.Seconds())
}

// ObserveTransfer records custody inflow ("in") or outflow ("out").
func (m *Metrics) ObserveTransfer(asset, direction string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.transfers.WithLabelValues(asset, direction).Add(float64(amount))
}

// SetEscrowed publishes the audited escrow total of an asset.
func (m *Metrics) SetEscrowed(asset string, amount uint64) {
	if m == nil {
		return
	}
	m.escrowed.WithLabelValues(asset).Set(float64(amount))
}

// Calls returns the outcome counter of one entry point.
func (m *Metrics) Calls(entryPoint, outcome string) prometheus.Counter {
	return m.calls.WithLabelValues(entryPoint, outcome)
}

// Transfers returns the custody flow counter of one asset.
func (m *Metrics) Transfers(asset, direction string) prometheus.Counter {
	return m.transfers.WithLabelValues(asset, direction)
}
