package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects and exposes the operational metrics of the order
// ingestion path.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	ordersTotal   prometheus.Counter
	orderAmount   prometheus.Histogram
	stepsPerOrder prometheus.Histogram
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	cacheHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache hits by namespace",
		},
		[]string{"namespace"},
	)

	cacheMisses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache misses by namespace",
		},
		[]string{"namespace"},
	)

	ordersTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders successfully created",
		},
	)

	orderAmount := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_total_amount",
			Help:    "Computed order totals",
			Buckets: prometheus.LinearBuckets(0, 10, 20),
		},
	)

	stepsPerOrder := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "workflow_steps_per_order",
			Help:    "Workflow steps derived per order",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		},
	)

	collectors := []prometheus.Collector{
		cacheHits,
		cacheMisses,
		ordersTotal,
		orderAmount,
		stepsPerOrder,
	}
	for _, collector := range collectors {
		registry.MustRegister(collector)
	}

	return &Metrics{
		registry:      registry,
		cacheHits:     cacheHits,
		cacheMisses:   cacheMisses,
		ordersTotal:   ordersTotal,
		orderAmount:   orderAmount,
		stepsPerOrder: stepsPerOrder,
	}
}

// RecordCacheHit counts a cache hit for the namespace
func (m *Metrics) RecordCacheHit(namespace string) {
	m.cacheHits.WithLabelValues(namespace).Inc()
}

// RecordCacheMiss counts a cache miss for the namespace
func (m *Metrics) RecordCacheMiss(namespace string) {
	m.cacheMisses.WithLabelValues(namespace).Inc()
}

// RecordOrderCreated records a committed order and its derived steps
func (m *Metrics) RecordOrderCreated(totalAmount float64, steps int) {
	m.ordersTotal.Inc()
	m.orderAmount.Observe(totalAmount)
	m.stepsPerOrder.Observe(float64(steps))
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
