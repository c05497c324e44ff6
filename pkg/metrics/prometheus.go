// Package metrics provides Prometheus metrics for the fanpulse service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion
	eventsIngested  prometheus.Counter
	eventsRejected  prometheus.Counter
	eventsDuplicate prometheus.Counter
	sourceLoads     *prometheus.CounterVec
	storeSize       prometheus.Gauge

	// Engine
	resolutions      *prometheus.CounterVec
	lifecycleStates  *prometheus.CounterVec
	engineLatency    *prometheus.HistogramVec
	congestionLevels *prometheus.CounterVec
	riskFinalScore   prometheus.Histogram

	// Queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fanpulse",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
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

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsIngested = m.counter("events_ingested_total", "Feed records accepted for ingestion")
	m.eventsRejected = m.counter("events_rejected_total", "Feed records rejected as invalid")
	m.eventsDuplicate = m.counter("events_duplicate_total", "Unchanged feed records skipped on re-delivery")
	m.sourceLoads = m.counterVec("source_loads_total", "Event source loads by source and outcome", "source", "outcome")
	m.storeSize = m.gauge("store_events", "Events currently held in the catalogue")

	m.resolutions = m.counterVec("resolutions_total", "Temporal model resolutions by model kind", "kind")
	m.lifecycleStates = m.counterVec("lifecycle_states_total", "Lifecycle states served", "state")
	m.engineLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "computation_duration_milliseconds",
		Help:      "Engine computation latency by component",
		Buckets:   m.histogramBuckets,
	}, []string{"component"})
	m.congestionLevels = m.counterVec("congestion_levels_total", "Congestion summaries by level", "level")
	m.riskFinalScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "risk_final_score",
		Help:      "Distribution of computed risk scores",
		Buckets:   []float64{0, 35, 50, 65, 80, 100},
	})

	m.queueSize = m.gauge("queue_size", "Current size of the ingestion queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the ingestion queue")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Records enqueued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Records refused by a full or closed queue")
	m.workerCount = m.gauge("worker_count", "Running ingestion workers")
	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Time to process one record in a worker",
		Buckets:   m.histogramBuckets,
	})
	m.workerErrors = m.counter("worker_errors_total", "Records a worker failed to process")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
}

// RecordEventIngested increments the accepted records counter.
func RecordEventIngested() {
	globalManager.eventsIngested.Inc()
}

// RecordEventRejected increments the rejected records counter.
func RecordEventRejected() {
	globalManager.eventsRejected.Inc()
}

// RecordEventDuplicate increments the duplicate records counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordSourceLoad counts a source load with its outcome.
func RecordSourceLoad(source, outcome string) {
	globalManager.sourceLoads.WithLabelValues(source, outcome).Inc()
}

// UpdateStoreSize sets the catalogue size.
func UpdateStoreSize(count int) {
	globalManager.storeSize.Set(float64(count))
}

// RecordResolution counts a resolution by temporal kind. Use "unresolved"
// for records without a model.
func RecordResolution(kind string) {
	globalManager.resolutions.WithLabelValues(kind).Inc()
}

// RecordLifecycleState counts a served lifecycle state.
func RecordLifecycleState(state string) {
	globalManager.lifecycleStates.WithLabelValues(state).Inc()
}

// RecordEngineLatency records a component computation in milliseconds.
func RecordEngineLatency(component string, latencyMs float64) {
	globalManager.engineLatency.WithLabelValues(component).Observe(latencyMs)
}

// RecordCongestionLevel counts a congestion summary by level.
func RecordCongestionLevel(level string) {
	globalManager.congestionLevels.WithLabelValues(level).Inc()
}

// RecordRiskScore observes a final risk score.
func RecordRiskScore(score int) {
	globalManager.riskFinalScore.Observe(float64(score))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueued counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueEnqueueError increments the refused enqueue counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the running worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records per-record worker latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint counts an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent counts an error by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
