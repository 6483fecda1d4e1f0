// Package metrics exposes Prometheus metrics for the balance services.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the service metrics and the registry they live in.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	reportsComputed *prometheus.CounterVec
	reportDuration  *prometheus.HistogramVec
	reportErrors    *prometheus.CounterVec
	messages        *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for latency histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRuntimeCollectors registers the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Manager) {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// NewManager creates a Manager on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "fichaje",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.reportsComputed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reports",
		Name:      "computed_total",
		Help:      "Reports computed, by kind.",
	}, []string{"kind"})

	m.reportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "reports",
		Name:      "duration_seconds",
		Help:      "Time to fetch and reconcile a report, by kind.",
		Buckets:   m.buckets,
	}, []string{"kind"})

	m.reportErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reports",
		Name:      "errors_total",
		Help:      "Reports that failed, by kind.",
	}, []string{"kind"})

	m.messages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "messages_total",
		Help:      "Queue messages handled, by queue and outcome.",
	}, []string{"queue", "outcome"})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, by route and status code.",
	}, []string{"route", "code"})

	m.registry.MustRegister(m.reportsComputed, m.reportDuration, m.reportErrors, m.messages, m.httpRequests)
	return m
}

// ObserveReport records a computed report and its latency.
func (m *Manager) ObserveReport(kind string, started time.Time, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reportErrors.WithLabelValues(kind).Inc()
		return
	}
	m.reportsComputed.WithLabelValues(kind).Inc()
	m.reportDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// ObserveMessage records the outcome of a queue message: processed, retried or failed.
func (m *Manager) ObserveMessage(queue, outcome string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(queue, outcome).Inc()
}

// ObserveRequest records an HTTP request.
func (m *Manager) ObserveRequest(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
