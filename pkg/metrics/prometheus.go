package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scoring service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	modelLoadBuckets []float64
	registry         prometheus.Registerer

	// Scoring requests
	scoreRequests  *prometheus.CounterVec
	scoringLatency prometheus.Histogram
	cardsScored    prometheus.Counter
	cardsMissing   prometheus.Counter

	// Feature extraction
	extractionFailures *prometheus.CounterVec
	unseenCategories   *prometheus.CounterVec
	extractionLatency  prometheus.Histogram
	predictFailures    prometheus.Counter

	// Commander model registry
	modelLoads       *prometheus.CounterVec
	modelLoadLatency prometheus.Histogram
	modelCacheHits   prometheus.Counter
	modelCacheMisses prometheus.Counter
	modelCacheSize   prometheus.Gauge

	// Embedding service
	embeddingLatency *prometheus.HistogramVec
	embeddingErrors  *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec

	// Card store
	storeQueryLatency *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Worker Metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	errorRateByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: defaultLatencyBuckets(),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.modelLoadBuckets == nil {
		m.modelLoadBuckets = m.histogramBuckets
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.scoreRequests = m.counterVec("score_requests_total",
		"Total number of scoring requests by outcome", "outcome")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds",
		"End-to-end latency of a scoring request in milliseconds", m.histogramBuckets)
	m.cardsScored = m.counter("cards_scored_total",
		"Total number of cards that received a model score")
	m.cardsMissing = m.counter("cards_missing_total",
		"Total number of requested card names not present in the catalog")

	m.extractionFailures = m.counterVec("extraction_failures_total",
		"Total number of per-card feature extraction failures by reason", "reason")
	m.unseenCategories = m.counterVec("unseen_categories_total",
		"Total number of type-line categories absent from the taxonomy", "kind")
	m.extractionLatency = m.histogram("extraction_latency_milliseconds",
		"Per-card feature extraction latency in milliseconds", m.histogramBuckets)
	m.predictFailures = m.counter("predict_failures_total",
		"Total number of per-card model prediction failures")

	m.modelLoads = m.counterVec("model_loads_total",
		"Total number of commander model loads by result", "result")
	m.modelLoadLatency = m.histogram("model_load_latency_milliseconds",
		"Commander model artifact load latency in milliseconds", m.modelLoadBuckets)
	m.modelCacheHits = m.counter("model_cache_hits_total",
		"Total number of commander model cache hits")
	m.modelCacheMisses = m.counter("model_cache_misses_total",
		"Total number of commander model cache misses")
	m.modelCacheSize = m.gauge("model_cache_size",
		"Current number of cached commander models")

	m.embeddingLatency = m.histogramVec("embedding_latency_milliseconds",
		"Text embedding call latency in milliseconds", "provider")
	m.embeddingErrors = m.counterVec("embedding_errors_total",
		"Total number of text embedding failures", "provider")
	m.breakerState = m.gaugeVec("circuit_breaker_state",
		"Circuit breaker state (0=closed, 1=half-open, 2=open)", "name")

	m.storeQueryLatency = m.histogramVec("store_query_latency_milliseconds",
		"Card store query latency in milliseconds", "op")
	m.storeErrors = m.counterVec("store_errors_total",
		"Total number of card store query errors", "op")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.workerCount = m.gauge("worker_count", "Configured number of extraction workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of workers currently extracting")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Worker job latency in milliseconds", m.histogramBuckets)

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

// RecordScoreRequest counts a finished scoring request; outcome is "ok" or an error kind.
func RecordScoreRequest(outcome string) {
	globalManager.scoreRequests.WithLabelValues(outcome).Inc()
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordCardsScored adds n to the scored cards counter.
func RecordCardsScored(n int) {
	globalManager.cardsScored.Add(float64(n))
}

// RecordCardsMissing adds n to the missing cards counter.
func RecordCardsMissing(n int) {
	globalManager.cardsMissing.Add(float64(n))
}

// RecordExtractionFailure increments the extraction failure counter for reason.
func RecordExtractionFailure(reason string) {
	globalManager.extractionFailures.WithLabelValues(reason).Inc()
}

// RecordUnseenCategory increments the unseen category counter; kind is "card_type" or "sub_type".
func RecordUnseenCategory(kind string) {
	globalManager.unseenCategories.WithLabelValues(kind).Inc()
}

// RecordExtractionLatency records per-card extraction latency.
func RecordExtractionLatency(latencyMs float64) {
	globalManager.extractionLatency.Observe(latencyMs)
}

// RecordPredictFailure increments the prediction failure counter.
func RecordPredictFailure() {
	globalManager.predictFailures.Inc()
}

// RecordModelLoad counts a model artifact load by result.
func RecordModelLoad(result string, latencyMs float64) {
	globalManager.modelLoads.WithLabelValues(result).Inc()
	globalManager.modelLoadLatency.Observe(latencyMs)
}

// RecordModelCacheHit increments the model cache hit counter.
func RecordModelCacheHit() {
	globalManager.modelCacheHits.Inc()
}

// RecordModelCacheMiss increments the model cache miss counter.
func RecordModelCacheMiss() {
	globalManager.modelCacheMisses.Inc()
}

// UpdateModelCacheSize sets the number of cached models.
func UpdateModelCacheSize(size int) {
	globalManager.modelCacheSize.Set(float64(size))
}

// RecordEmbedding records one embedding call for provider.
func RecordEmbedding(provider string, latencyMs float64, err error) {
	globalManager.embeddingLatency.WithLabelValues(provider).Observe(latencyMs)
	if err != nil {
		globalManager.embeddingErrors.WithLabelValues(provider).Inc()
	}
}

// UpdateBreakerState sets the gauge for the named circuit breaker.
// state is one of "closed", "half-open", "open".
func UpdateBreakerState(name, state string) error {
	var v float64
	switch state {
	case "closed":
		v = 0
	case "half-open":
		v = 1
	case "open":
		v = 2
	default:
		return fmt.Errorf("%w: %s", ErrUnknownBreakerState, state)
	}
	globalManager.breakerState.WithLabelValues(name).Set(v)
	return nil
}

// RecordStoreQuery records a card store query.
func RecordStoreQuery(op string, latencyMs float64, err error) {
	globalManager.storeQueryLatency.WithLabelValues(op).Observe(latencyMs)
	if err != nil {
		globalManager.storeErrors.WithLabelValues(op).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
