// Package metrics exposes Prometheus collectors for the POS core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "restoran_pos"

// Metrics groups the collectors on a private registry. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	sales           *prometheus.CounterVec
	revenue         *prometheus.CounterVec
	adjustments     prometheus.Counter
	missingStock    prometheus.Counter
	persistFailures *prometheus.CounterVec
	occupiedTables  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sales: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Completed checkouts by payment method.",
		}, []string{"method"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Receipt totals by payment method.",
		}, []string{"method"}),
		adjustments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_adjustments_total",
			Help:      "Manual stock adjustments applied.",
		}),
		missingStock: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_stock_total",
			Help:      "Recipe consumptions skipped because the stock item no longer exists.",
		}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed background writes by collection key.",
		}, []string{"key"}),
		occupiedTables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "occupied_tables",
			Help:      "Tables with a saved, non-empty order.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sales,
		m.revenue,
		m.adjustments,
		m.missingStock,
		m.persistFailures,
		m.occupiedTables,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCheckout(method string, total float64, missing int) {
	if m == nil {
		return
	}
	m.sales.WithLabelValues(method).Inc()
	m.revenue.WithLabelValues(method).Add(total)
	if missing > 0 {
		m.missingStock.Add(float64(missing))
	}
}

func (m *Metrics) ObserveAdjustment() {
	if m == nil {
		return
	}
	m.adjustments.Inc()
}

func (m *Metrics) ObservePersistFailure(key string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(key).Inc()
}

func (m *Metrics) SetOccupiedTables(n int) {
	if m == nil {
		return
	}
	m.occupiedTables.Set(float64(n))
}
