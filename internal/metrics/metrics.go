// Package metrics holds the backend's prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors updated by handlers and middleware.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	logins     *prometheus.CounterVec
	tenantDeny prometheus.Counter
	duration   *prometheus.HistogramVec
}

// New builds a dedicated registry with process, runtime and backoffice collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "graphql_operations_total",
			Help:      "GraphQL operations handled, by operation name and result code.",
		}, []string{"operation", "code"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		tenantDeny: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "tenant_mismatch_total",
			Help:      "Scoped operations refused because companyId did not match the token tenant.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "backoffice",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by path and status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "status"}),
	}
	reg.MustRegister(m.operations, m.logins, m.tenantDeny, m.duration)
	return m
}

// Operation counts one handled GraphQL operation. code is "OK" on success.
func (m *Metrics) Operation(name, code string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(name, code).Inc()
}

// Login counts a login attempt with result "success", "invalid" or "error".
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// TenantMismatch counts a refused cross-tenant operation.
func (m *Metrics) TenantMismatch() {
	if m == nil {
		return
	}
	m.tenantDeny.Inc()
}

// ObserveRequest records request latency.
func (m *Metrics) ObserveRequest(path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(path, statusClass(status)).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Register attaches GET /metrics to the mux.
func (m *Metrics) Register(mux *http.ServeMux) {
	mux.Handle("GET /metrics", m.Handler())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
