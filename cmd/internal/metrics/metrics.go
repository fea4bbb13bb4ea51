// Package metrics owns sampleapp's Prometheus collectors.
//
// All methods are safe on a nil *Metrics, so components take an optional
// metrics handle without branching at every call site.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sampleapp"

// Sign-in results.
const (
	SignInSuccess     = "success"
	SignInFailed      = "failed"
	SignInRateLimited = "rate_limited"
)

// Metrics groups the application collectors under a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	signIns      *prometheus.CounterVec
	microposts   *prometheus.CounterVec
	feedClients  prometheus.Gauge
	feedDropped  prometheus.Counter
}

// New builds the collectors and registers them, with the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "signins_total",
			Help:      "Password sign-in attempts by result.",
		}, []string{"result"}),
		microposts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "microposts",
			Name:      "operations_total",
			Help:      "Micropost writes by operation.",
		}, []string{"op"}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "clients",
			Help:      "Connected live feed clients.",
		}),
		feedDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_dropped_total",
			Help:      "Live feed events dropped because a client queue was full.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.signIns,
		m.microposts,
		m.feedClients,
		m.feedDropped,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one finished request. route should be the mux pattern,
// never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// SignIn counts a sign-in attempt.
func (m *Metrics) SignIn(result string) {
	if m == nil {
		return
	}
	m.signIns.WithLabelValues(result).Inc()
}

// Micropost counts a micropost write ("created", "deleted").
func (m *Metrics) Micropost(op string) {
	if m == nil {
		return
	}
	m.microposts.WithLabelValues(op).Inc()
}

// FeedClientConnected increments the live client gauge.
func (m *Metrics) FeedClientConnected() {
	if m == nil {
		return
	}
	m.feedClients.Inc()
}

// FeedClientDisconnected decrements the live client gauge.
func (m *Metrics) FeedClientDisconnected() {
	if m == nil {
		return
	}
	m.feedClients.Dec()
}

// FeedEventDropped counts an event dropped under backpressure.
func (m *Metrics) FeedEventDropped() {
	if m == nil {
		return
	}
	m.feedDropped.Inc()
}
