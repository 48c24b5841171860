package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Detector round trips are tens of milliseconds; HTTP handlers are faster.
var defaultLatencyBuckets = []float64{1, 2, 5, 10, 20, 35, 50, 75, 100, 150, 250, 500, 1000}

// Manager owns the airtrail collectors and the registry they live in.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	registry       *prometheus.Registry

	// Pipeline
	framesProcessed prometheus.Counter
	framesStale     prometheus.Counter
	framesMalformed prometheus.Counter
	readErrors      prometheus.Counter
	detectErrors    prometheus.Counter
	detectLatency   prometheus.Histogram
	handsTracked    prometheus.Gauge

	// Gestures and drawing
	gestureEvents    *prometheus.CounterVec
	strokesCompleted prometheus.Counter
	trailPoints      prometheus.Gauge
	hookRuns         *prometheus.CounterVec

	// Clients
	wsClients           prometheus.Gauge
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry behind /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// collectors go into a fresh private registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "airtrail",
		subsystem:      "pipeline",
		latencyBuckets: defaultLatencyBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesProcessed = m.counter("frames_processed_total", "Frames that went through detection and classification")
	m.framesStale = m.counter("frames_stale_total", "Frames skipped because their timestamp was not new")
	m.framesMalformed = m.counter("frames_malformed_total", "Frames dropped for bad landmark counts or handedness")
	m.readErrors = m.counter("camera_read_errors_total", "Camera reads that failed")
	m.detectErrors = m.counter("detect_errors_total", "Detector calls that failed")
	m.detectLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detect_latency_milliseconds",
		Help:      "Hand landmark detection latency in milliseconds",
		Buckets:   m.latencyBuckets,
	})
	m.handsTracked = m.gauge("hands_tracked", "Hands present in the latest processed frame")

	m.gestureEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gesture_events_total",
		Help:      "Gesture transitions by hand side and kind",
	}, []string{"side", "kind"})
	m.strokesCompleted = m.counter("strokes_completed_total", "Strokes finished by releasing a pinch")
	m.trailPoints = m.gauge("trail_points", "Points in the live trail")
	m.hookRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "hooks",
		Name:      "runs_total",
		Help:      "Hook runs by hook name and result (ok, failed, error, dropped)",
	}, []string{"hook", "result"})

	m.wsClients = m.gauge("ws_clients", "Connected WebSocket subscribers")
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Registry returns the registry holding this manager's collectors.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the manager's registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Recorders.
func (m *Manager) RecordFrameProcessed()          { m.framesProcessed.Inc() }
func (m *Manager) RecordFrameStale()              { m.framesStale.Inc() }
func (m *Manager) RecordFrameMalformed()          { m.framesMalformed.Inc() }
func (m *Manager) RecordReadError()               { m.readErrors.Inc() }
func (m *Manager) RecordDetectError()             { m.detectErrors.Inc() }
func (m *Manager) RecordDetectLatency(ms float64) { m.detectLatency.Observe(ms) }
func (m *Manager) UpdateHandsTracked(n int)       { m.handsTracked.Set(float64(n)) }
func (m *Manager) RecordStrokeCompleted()         { m.strokesCompleted.Inc() }
func (m *Manager) UpdateTrailPoints(n int)        { m.trailPoints.Set(float64(n)) }
func (m *Manager) UpdateWSClients(n int)          { m.wsClients.Set(float64(n)) }
func (m *Manager) RecordGestureEvent(side, kind string) {
	m.gestureEvents.WithLabelValues(side, kind).Inc()
}

// RecordHookRun counts one hook run outcome.
func (m *Manager) RecordHookRun(hook, result string) {
	m.hookRuns.WithLabelValues(hook, result).Inc()
}

// RecordHTTPRequest records one finished HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Default returns the process-wide manager.
func Default() *Manager { return globalManager }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the process-wide registry.
func Handler() http.Handler {
	return globalManager.Handler()
}
