// Package metrics provides Prometheus metrics for the claimscore service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the claimscore service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Prediction Metrics - What really matters for a scoring service
	predictions          *prometheus.CounterVec
	predictionErrors     *prometheus.CounterVec
	predictionLatency    prometheus.Histogram
	batchSize            prometheus.Histogram
	encodeFallbacks      *prometheus.CounterVec
	calibratedOutOfRange prometheus.Counter

	// Model Cache Metrics - Reload and eviction lifecycle
	modelReloads      prometheus.Counter
	modelReloadErrors prometheus.Counter
	modelEvictions    prometheus.Counter
	modelLoaded       prometheus.Gauge
	modelAgeSeconds   prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "claimscore",
		subsystem:        "inference",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Prediction Metrics
	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Total number of items scored, labeled by mode (model or dummy)",
	}, []string{"mode"})

	m.predictionErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_errors_total",
		Help:      "Total number of failed prediction requests by error kind",
	}, []string{"kind"})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_latency_milliseconds",
		Help:      "Histogram of end-to-end batch prediction latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_batch_size",
		Help:      "Histogram of items per prediction batch",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})

	m.encodeFallbacks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "encode_fallbacks_total",
		Help:      "Total number of categorical values encoded via the UNKNOWN fallback, by feature",
	}, []string{"feature"})

	m.calibratedOutOfRange = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibrated_out_of_range_total",
		Help:      "Total number of calibrated probabilities outside [0,1] (identity calibration only)",
	})

	// Model Cache Metrics
	m.modelReloads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_reloads_total",
		Help:      "Total number of model handle loads, initial load included",
	})

	m.modelReloadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_reload_errors_total",
		Help:      "Total number of failed model loads",
	})

	m.modelEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_evictions_total",
		Help:      "Total number of model handles evicted and disposed",
	})

	m.modelLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_loaded",
		Help:      "Whether a live model handle is currently cached (1) or not (0)",
	})

	m.modelAgeSeconds = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_age_seconds",
		Help:      "Age of the cached model handle in seconds",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Package-level helpers record against the global manager.

// RecordPrediction increments the per-item prediction counter for a mode
// ("model" or "dummy").
func RecordPrediction(mode string, items int) {
	globalManager.predictions.WithLabelValues(mode).Add(float64(items))
}

// RecordPredictionError increments the prediction error counter for a kind.
func RecordPredictionError(kind string) {
	globalManager.predictionErrors.WithLabelValues(kind).Inc()
}

// RecordPredictionLatency observes end-to-end batch latency.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordBatchSize observes the number of items in a batch.
func RecordBatchSize(size int) {
	globalManager.batchSize.Observe(float64(size))
}

// RecordEncodeFallback increments the UNKNOWN-fallback counter for a feature.
func RecordEncodeFallback(feature string) {
	globalManager.encodeFallbacks.WithLabelValues(feature).Inc()
}

// RecordCalibratedOutOfRange increments the out-of-range probability counter.
func RecordCalibratedOutOfRange() {
	globalManager.calibratedOutOfRange.Inc()
}

// RecordModelReload increments the model load counter.
func RecordModelReload() {
	globalManager.modelReloads.Inc()
}

// RecordModelReloadError increments the failed model load counter.
func RecordModelReloadError() {
	globalManager.modelReloadErrors.Inc()
}

// RecordModelEviction increments the eviction counter.
func RecordModelEviction() {
	globalManager.modelEvictions.Inc()
}

// UpdateModelLoaded sets the model-loaded gauge.
func UpdateModelLoaded(loaded bool) {
	if loaded {
		globalManager.modelLoaded.Set(1)
		return
	}
	globalManager.modelLoaded.Set(0)
}

// UpdateModelAge sets the cached model handle age gauge.
func UpdateModelAge(age time.Duration) {
	globalManager.modelAgeSeconds.Set(age.Seconds())
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom registry used for metrics collection.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
