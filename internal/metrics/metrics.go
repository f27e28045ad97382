// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors recorded by the HTTP layer and the
// external-call boundaries.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	externalCalls *prometheus.CounterVec
	smsDispatched *prometheus.CounterVec
	ordersFlagged prometheus.Counter
}

// New creates and registers the service collectors on a private registry.
func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "storefront_http_requests_total",
			Help:        "HTTP requests by method, path and status.",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "storefront_http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "storefront_http_in_flight_requests",
			Help:        "Requests currently being served.",
			ConstLabels: labels,
		}),
		externalCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "storefront_external_calls_total",
			Help:        "External boundary calls by boundary and outcome.",
			ConstLabels: labels,
		}, []string{"boundary", "outcome"}),
		smsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "storefront_sms_dispatched_total",
			Help:        "Outbound SMS dispatches by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		ordersFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "storefront_orders_flagged_total",
			Help:        "Customer utterances classified as orders.",
			ConstLabels: labels,
		}),
	}

	registry.MustRegister(
		m.httpRequests, m.httpDuration, m.inFlight,
		m.externalCalls, m.smsDispatched, m.ordersFlagged,
	)
	return m
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementInFlight marks a request as started.
func (m *Metrics) IncrementInFlight() { m.inFlight.Inc() }

// DecrementInFlight marks a request as finished.
func (m *Metrics) DecrementInFlight() { m.inFlight.Dec() }

// RecordExternalCall records one external boundary round trip.
func (m *Metrics) RecordExternalCall(boundary string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.externalCalls.WithLabelValues(boundary, outcome).Inc()
}

// RecordSMS records one SMS dispatch outcome.
func (m *Metrics) RecordSMS(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.smsDispatched.WithLabelValues(outcome).Inc()
}

// RecordOrderFlagged records a positive intent classification.
func (m *Metrics) RecordOrderFlagged() { m.ordersFlagged.Inc() }

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
