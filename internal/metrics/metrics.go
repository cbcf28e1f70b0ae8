// Package metrics exposes client-side Prometheus collectors for outbound
// requests, silent token refreshes and the realtime event stream.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "amestris_client"

// Metrics holds the client collectors on a private registry.
// It satisfies adapter.Recorder and realtime.Observer.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec

	events      *prometheus.CounterVec
	connections prometheus.Counter
	connected   prometheus.Gauge
}

// New registers the client collectors together with the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Outbound API requests by method and status. Status 0 means no response.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Outbound API request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refresh_total",
			Help:      "Silent token refresh attempts by outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_total",
			Help:      "Realtime events received by type.",
		}, []string{"type"}),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_connections_total",
			Help:      "Realtime stream connections opened.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_connected",
			Help:      "1 while the realtime stream is open.",
		}),
	}

	m.registry.MustRegister(
		m.requests, m.requestDuration, m.refreshes,
		m.events, m.connections, m.connected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one API round trip.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveRefresh records one silent refresh attempt.
func (m *Metrics) ObserveRefresh(outcome string) {
	m.refreshes.WithLabelValues(outcome).Inc()
}

// ObserveEvent counts one realtime event of the given type.
func (m *Metrics) ObserveEvent(eventType string) {
	m.events.WithLabelValues(eventType).Inc()
}

// ObserveConnection tracks the realtime stream opening and closing.
func (m *Metrics) ObserveConnection(open bool) {
	if open {
		m.connections.Inc()
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
