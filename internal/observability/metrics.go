package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for outbound requests.
type Metrics struct {
	requestsBuilt   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
	buildInfo       *prometheus.GaugeVec
	registry        *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "relay"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsBuilt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_built_total",
			Help:      "Total number of outbound requests built",
		},
		[]string{"method", "mode"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Outbound request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "mode", "status"},
	)

	m.requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Total number of outbound request dispatch errors",
		},
		[]string{"method", "mode"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version"},
	)

	m.registry.MustRegister(
		m.requestsBuilt,
		m.requestDuration,
		m.requestErrors,
		m.buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordRequestBuilt increments the built-request counter.
func (m *Metrics) RecordRequestBuilt(method, mode string) {
	m.requestsBuilt.WithLabelValues(method, mode).Inc()
}

// RecordRequestDuration observes the duration of a dispatched request.
func (m *Metrics) RecordRequestDuration(method, mode string, status int, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, mode, strconv.Itoa(status)).
		Observe(duration.Seconds())
}

// RecordRequestError increments the dispatch error counter.
func (m *Metrics) RecordRequestError(method, mode string) {
	m.requestErrors.WithLabelValues(method, mode).Inc()
}

// SetBuildInfo sets the build information gauge.
func (m *Metrics) SetBuildInfo(version string) {
	m.buildInfo.WithLabelValues(version).Set(1)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
