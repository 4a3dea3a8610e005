package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the proxy.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	interceptTotal   *prometheus.CounterVec
	registrations    *prometheus.CounterVec
	forwardingErrors *prometheus.CounterVec
	hookErrors       *prometheus.CounterVec
	circuitBreaker   *prometheus.GaugeVec
	buildInfo        *prometheus.GaugeVec
	registry         *prometheus.Registry
}

// NewMetrics creates a new Metrics instance backed by its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "managedproxy"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of proxied HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Proxied HTTP request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "route"},
	)

	m.interceptTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intercept_total",
			Help:      "Upstream responses by interception branch",
		},
		[]string{"branch"},
	)

	m.registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Route registrations by result",
		},
		[]string{"result"},
	)

	m.forwardingErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forwarding_errors_total",
			Help:      "Requests that could not be forwarded upstream",
		},
		[]string{"server"},
	)

	m.hookErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_errors_total",
			Help:      "Response and redirect hooks that returned an error",
		},
		[]string{"hook"},
	)

	m.circuitBreaker = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information for the proxy",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.interceptTotal,
		m.registrations,
		m.forwardingErrors,
		m.hookErrors,
		m.circuitBreaker,
		m.buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Record methods are no-ops on a nil *Metrics so components can run
// without a metrics registry.

// RecordRequest records a completed request. route must be the resolved
// context, never the raw path, to keep cardinality bounded.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordIntercept counts one upstream response handled by branch.
func (m *Metrics) RecordIntercept(branch string) {
	if m == nil {
		return
	}
	m.interceptTotal.WithLabelValues(branch).Inc()
}

// RecordRegistration counts a registration attempt.
func (m *Metrics) RecordRegistration(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.registrations.WithLabelValues(result).Inc()
}

// RecordForwardingError counts a request that never reached the upstream.
func (m *Metrics) RecordForwardingError(server int) {
	if m == nil {
		return
	}
	m.forwardingErrors.WithLabelValues(strconv.Itoa(server)).Inc()
}

// RecordHookError counts a failed response or redirect hook.
func (m *Metrics) RecordHookError(hook string) {
	if m == nil {
		return
	}
	m.hookErrors.WithLabelValues(hook).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state.
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.circuitBreaker.WithLabelValues(name).Set(float64(state))
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(version, commit, buildTime string) {
	m.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
