package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one state layer and the registry they are
// registered with.
type Metrics struct {
	registry *prometheus.Registry

	// State store
	mutationsTotal *prometheus.CounterVec

	// Subscriber hierarchy
	subscribersActive *prometheus.GaugeVec
	subscribersTotal  *prometheus.CounterVec

	// Render orchestration
	renderersActive        prometheus.Gauge
	renderersCreatedTotal  prometheus.Counter
	renderersDisposedTotal prometheus.Counter

	// Inspector
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	websocketConnections prometheus.Gauge
	snapshotsSentTotal   prometheus.Counter
}

// New creates the collectors on a fresh registry. Go runtime and process
// collectors are registered alongside them.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		mutationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_mutations_total",
				Help:      "Total number of published state mutations",
			},
			[]string{"op"},
		),

		subscribersActive: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "subscribers_active",
				Help:      "Number of live SDK subscribers",
			},
			[]string{"kind"},
		),
		subscribersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscribers_attached_total",
				Help:      "Total number of SDK subscribers attached",
			},
			[]string{"kind"},
		),

		renderersActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "renderers_active",
				Help:      "Number of video renderers not yet disposed",
			},
		),
		renderersCreatedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renderers_created_total",
				Help:      "Total number of video renderers created",
			},
		),
		renderersDisposedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renderers_disposed_total",
				Help:      "Total number of video renderers disposed",
			},
		),

		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		websocketConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_connections",
				Help:      "Number of open inspector websocket connections",
			},
		),
		snapshotsSentTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "websocket_snapshots_sent_total",
				Help:      "Total number of snapshots written to websocket clients",
			},
		),
	}
}

// Registry returns the registry to expose on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveMutation counts a published store mutation.
func (m *Metrics) ObserveMutation(op string) {
	m.mutationsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) SubscriberAttached(kind string) {
	m.subscribersActive.WithLabelValues(kind).Inc()
	m.subscribersTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) SubscriberDetached(kind string) {
	m.subscribersActive.WithLabelValues(kind).Dec()
}

func (m *Metrics) RendererCreated() {
	m.renderersActive.Inc()
	m.renderersCreatedTotal.Inc()
}

func (m *Metrics) RendererDisposed() {
	m.renderersActive.Dec()
	m.renderersDisposedTotal.Inc()
}

// RecordHTTPRequest records one inspector request.
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *Metrics) WebSocketConnected() {
	m.websocketConnections.Inc()
}

func (m *Metrics) WebSocketDisconnected() {
	m.websocketConnections.Dec()
}

func (m *Metrics) SnapshotSent() {
	m.snapshotsSentTotal.Inc()
}
