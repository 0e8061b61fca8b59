// Package metrics provides Prometheus metrics for the CAPIO dashboard shell.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the shell.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// API gateway
	gatewayRequests        *prometheus.CounterVec
	gatewayRequestDuration *prometheus.HistogramVec
	gatewayErrors          *prometheus.CounterVec

	// Route table
	navigations *prometheus.CounterVec
	viewLoads   *prometheus.CounterVec

	// Shell HTTP server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// GetRegistry returns the registry the global manager publishes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// defaultLatencyBuckets spans 1ms to ~8s; every latency is observed in milliseconds.
var defaultLatencyBuckets = prometheus.ExponentialBuckets(1, 2, 14)

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "capio",
		subsystem:        "shell",
		histogramBuckets: defaultLatencyBuckets,
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.gatewayRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "gateway_requests_total",
		Help:        "Backend requests issued by the API gateway",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.gatewayRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "gateway_request_duration_milliseconds",
		Help:        "Round trip time of backend requests in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method"})

	m.gatewayErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "gateway_errors_total",
		Help:        "Failed backend requests by failure kind",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "kind"})

	m.navigations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "navigations_total",
		Help:        "Resolved navigations by route name",
		ConstLabels: m.constLabels,
	}, []string{"route"})

	m.viewLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "view_loads_total",
		Help:        "Lazy view constructions by route and result",
		ConstLabels: m.constLabels,
	}, []string{"route", "result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Requests served by the shell by handler and method",
		ConstLabels: m.constLabels,
	}, []string{"handler", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "Shell request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"handler", "method", "status_code"})
}

// RecordGatewayRequest counts one backend round trip and its latency.
func (m *Manager) RecordGatewayRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.gatewayRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.gatewayRequestDuration.WithLabelValues(endpoint, method).Observe(durationMs)
}

// RecordGatewayError counts a failed backend request.
func (m *Manager) RecordGatewayError(endpoint, kind string) {
	if !m.enabled {
		return
	}
	m.gatewayErrors.WithLabelValues(endpoint, kind).Inc()
}

// RecordNavigation counts a resolved navigation.
func (m *Manager) RecordNavigation(route string) {
	if !m.enabled {
		return
	}
	m.navigations.WithLabelValues(route).Inc()
}

// RecordViewLoad counts a lazy view construction attempt.
func (m *Manager) RecordViewLoad(route string, ok bool) {
	if !m.enabled {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.viewLoads.WithLabelValues(route, result).Inc()
}

// RecordHTTPRequest counts a shell request and its latency.
func (m *Manager) RecordHTTPRequest(handler, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(handler, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(handler, method, statusCode).Observe(durationMs)
}

// Global helpers delegate to the package manager.

func RecordGatewayRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordGatewayRequest(endpoint, method, statusCode, durationMs)
}

func RecordGatewayError(endpoint, kind string) {
	globalManager.RecordGatewayError(endpoint, kind)
}

func RecordNavigation(route string) {
	globalManager.RecordNavigation(route)
}

func RecordViewLoad(route string, ok bool) {
	globalManager.RecordViewLoad(route, ok)
}

func RecordHTTPRequest(handler, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(handler, method, statusCode, durationMs)
}

// Count returns the summed value of a counter family in the global registry,
// restricted to series whose labels include every pair in match.
func Count(name string, match map[string]string) (float64, error) {
	families, err := customRegistry.Gather()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrGather, err)
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if !labelsMatch(metric.GetLabel(), match) {
				continue
			}
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
		}
	}
	return total, nil
}

type labelPair interface {
	GetName() string
	GetValue() string
}

func labelsMatch[L labelPair](labels []L, match map[string]string) bool {
	for k, v := range match {
		found := false
		for _, l := range labels {
			if l.GetName() == k && l.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
