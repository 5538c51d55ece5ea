package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wallet_ledger"

// PrometheusMetrics implements core.Metrics and records HTTP traffic on its own registry
type PrometheusMetrics struct {
	registry     *prometheus.Registry
	transactions *prometheus.CounterVec
	retries      *prometheus.CounterVec
	provisions   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates and registers all collectors, including Go runtime and process metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Balance-affecting operations by kind and outcome",
		}, []string{"kind", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_retries_total",
			Help:      "Atomic units retried after a write conflict",
		}, []string{"operation"}),
		provisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provisions_total",
			Help:      "Provisioning calls by result",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request latency",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.transactions,
		m.retries,
		m.provisions,
		m.httpRequests,
		m.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RegisterDBStats exposes the connection pool statistics of db
func (m *PrometheusMetrics) RegisterDBStats(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// ObserveTransaction counts a balance-affecting operation
func (m *PrometheusMetrics) ObserveTransaction(kind, outcome string) {
	m.transactions.WithLabelValues(kind, outcome).Inc()
}

// ObserveRetry counts one conflict retry
func (m *PrometheusMetrics) ObserveRetry(operation string) {
	m.retries.WithLabelValues(operation).Inc()
}

// ObserveProvision counts a provisioning call
func (m *PrometheusMetrics) ObserveProvision(created bool) {
	result := "existing"
	if created {
		result = "created"
	}
	m.provisions.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records one served request. route is the matched route pattern.
func (m *PrometheusMetrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
