// Package metrics provides Prometheus metrics for the lead scoring service.
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

// Manager manages all Prometheus metrics for the lead scoring service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Core Business Metrics - scoring pipeline
	predictionsTotal    prometheus.Counter
	predictionErrors    prometheus.Counter
	predictionLatency   prometheus.Histogram
	predictionsByLabel  *prometheus.CounterVec
	columnsDropped      prometheus.Counter
	columnsZeroFilled   prometheus.Counter

	// Webhook Metrics - one counter per processing outcome
	webhookEvents *prometheus.CounterVec

	// Write-back Metrics - outbound CRM updates
	writebackTotal   prometheus.Counter
	writebackErrors  prometheus.Counter
	writebackLatency prometheus.Histogram

	// Queue Metrics - write-back job queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueDequeueTotal  prometheus.Counter

	// Worker Metrics - write-back workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "leadscore",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // metric initialization is one long registration list
	auto := promauto.With(m.registry)

	m.predictionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Total number of lead score predictions computed",
	})

	m.predictionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_errors_total",
		Help:      "Total number of predictions that failed before producing a probability",
	})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_latency_milliseconds",
		Help:      "Histogram of encode-align-score latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.predictionsByLabel = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_by_label_total",
		Help:      "Predictions partitioned by classification label",
	}, []string{"label"})

	m.columnsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_columns_dropped_total",
		Help:      "Encoded columns discarded because the model does not know them",
	})

	m.columnsZeroFilled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_columns_zero_filled_total",
		Help:      "Model columns zero-filled because the record did not produce them",
	})

	m.webhookEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "webhook_events_total",
		Help:      "Webhook deliveries partitioned by processing outcome",
	}, []string{"outcome"})

	m.writebackTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crm_writeback_total",
		Help:      "Total number of CRM score write-back attempts",
	})

	m.writebackErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crm_writeback_errors_total",
		Help:      "CRM write-back attempts that failed (logged, not retried)",
	})

	m.writebackLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crm_writeback_latency_milliseconds",
		Help:      "Histogram of CRM write-back round-trip latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_queue_size",
		Help:      "Current number of queued write-back jobs",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_queue_capacity",
		Help:      "Maximum number of write-back jobs the queue can hold",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_queue_utilization",
		Help:      "Write-back queue utilization ratio (0.0 to 1.0)",
	})

	m.queueEnqueueTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_queue_enqueue_total",
		Help:      "Total number of write-back jobs enqueued",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_queue_enqueue_errors_total",
		Help:      "Write-back jobs rejected by the queue (full or closed)",
	})

	m.queueDequeueTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_queue_dequeue_total",
		Help:      "Total number of write-back jobs handed to workers",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_worker_count",
		Help:      "Number of write-back workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_worker_processing_latency_milliseconds",
		Help:      "Histogram of worker job processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writeback_worker_errors_total",
		Help:      "Write-back jobs that ended in an error",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Current allocated heap bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_milliseconds",
		Help:      "Histogram of average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers operating on the global manager.

// RecordPrediction increments the prediction counter and the per-label counter.
func RecordPrediction(label string) {
	globalManager.predictionsTotal.Inc()
	globalManager.predictionsByLabel.WithLabelValues(label).Inc()
}

// RecordPredictionError increments the prediction error counter.
func RecordPredictionError() {
	globalManager.predictionErrors.Inc()
}

// RecordPredictionLatency records the latency of one scoring pipeline run.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordColumnsDropped adds to the dropped-column counter.
func RecordColumnsDropped(n int) {
	if n > 0 {
		globalManager.columnsDropped.Add(float64(n))
	}
}

// RecordColumnsZeroFilled adds to the zero-filled-column counter.
func RecordColumnsZeroFilled(n int) {
	if n > 0 {
		globalManager.columnsZeroFilled.Add(float64(n))
	}
}

// RecordWebhookEvent counts one webhook delivery by outcome.
func RecordWebhookEvent(outcome string) {
	globalManager.webhookEvents.WithLabelValues(outcome).Inc()
}

// RecordWriteback counts one CRM write-back attempt.
func RecordWriteback() {
	globalManager.writebackTotal.Inc()
}

// RecordWritebackError counts one failed CRM write-back.
func RecordWritebackError() {
	globalManager.writebackErrors.Inc()
}

// RecordWritebackLatency records one CRM write-back round-trip.
func RecordWritebackLatency(latencyMs float64) {
	globalManager.writebackLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current write-back queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the write-back queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the write-back queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts one accepted enqueue.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueEnqueueError counts one rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueDequeue counts one dequeued job.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// UpdateWorkerCount sets the number of write-back workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records one worker job duration.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts one failed worker job.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the current allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause observation.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used for exposition.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
