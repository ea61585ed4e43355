// Package metrics exposes Prometheus instruments for the edge server and the
// API client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ecole"

// Result label values.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
	ResultHit      = "hit"
	ResultMiss     = "miss"
)

// Edge decision label values.
const (
	DecisionPublic   = "public"
	DecisionPass     = "pass"
	DecisionRedirect = "redirect"
)

// Metrics holds every instrument on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	edgeDecisions   *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	refreshWaiters  prometheus.Histogram
	refreshDuration prometheus.Histogram
	statsLookups    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	proxyErrors     *prometheus.CounterVec
}

// New registers the instruments plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		edgeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "edge", Name: "decisions_total",
			Help: "Edge gate decisions by outcome.",
		}, []string{"decision"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "refreshes_total",
			Help: "Session refresh attempts by result.",
		}, []string{"result"}),
		refreshWaiters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "session", Name: "refresh_waiters",
			Help:    "Requests released by one refresh besides its leader.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "session", Name: "refresh_duration_seconds",
			Help:    "Time spent in the refresh call.",
			Buckets: prometheus.DefBuckets,
		}),
		statsLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "stats", Name: "cache_lookups_total",
			Help: "Statistics cache lookups by endpoint and result.",
		}, []string{"endpoint", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests served by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		proxyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "proxy", Name: "errors_total",
			Help: "Backend proxy failures by error class.",
		}, []string{"class"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.edgeDecisions,
		m.refreshes,
		m.refreshWaiters,
		m.refreshDuration,
		m.statsLookups,
		m.httpRequests,
		m.httpDuration,
		m.proxyErrors,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// EdgeDecision records one edge gate evaluation.
func (m *Metrics) EdgeDecision(protected, redirected bool) {
	decision := DecisionPublic
	switch {
	case redirected:
		decision = DecisionRedirect
	case protected:
		decision = DecisionPass
	}
	m.edgeDecisions.WithLabelValues(decision).Inc()
}

// RefreshSettled records a completed refresh and the waiters it released.
func (m *Metrics) RefreshSettled(success bool, waiters int, elapsed time.Duration) {
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.refreshWaiters.Observe(float64(waiters))
	m.refreshDuration.Observe(elapsed.Seconds())
}

// RefreshRejected records a caller turned away because the waiter queue was full.
func (m *Metrics) RefreshRejected() {
	m.refreshes.WithLabelValues(ResultRejected).Inc()
}

// RecordStatsLookup records a statistics cache lookup.
func (m *Metrics) RecordStatsLookup(endpoint string, hit bool) {
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	m.statsLookups.WithLabelValues(endpoint, result).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ProxyError records a failed proxied request.
func (m *Metrics) ProxyError(class string) {
	if class == "" {
		class = "unknown"
	}
	m.proxyErrors.WithLabelValues(class).Inc()
}
