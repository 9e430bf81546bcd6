package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice codec service
type Metrics struct {
	// Container metrics
	ContainersLoaded prometheus.Counter
	ContainerErrors  prometheus.Counter
	PayloadSize      prometheus.Histogram

	// Codec metrics
	PackOperations   prometheus.Counter
	UnpackOperations prometheus.Counter
	ShapeErrors      prometheus.Counter
	AudioDuration    prometheus.Histogram
	EncodeDuration   prometheus.Histogram
	DecodeDuration   prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Container metrics
		ContainersLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vox_containers_loaded_total",
			Help: "Total number of containers read",
		}),
		ContainerErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vox_container_errors_total",
			Help: "Total number of malformed containers encountered",
		}),
		PayloadSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vox_payload_size_bytes",
			Help:    "Size of packed container payloads in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 2, 12), // 64B to ~128KB
		}),

		// Codec metrics
		PackOperations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vox_pack_operations_total",
			Help: "Total number of code packing operations",
		}),
		UnpackOperations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vox_unpack_operations_total",
			Help: "Total number of code unpacking operations",
		}),
		ShapeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vox_shape_errors_total",
			Help: "Total number of code shape errors",
		}),
		AudioDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vox_audio_duration_seconds",
			Help:    "Duration of encoded voice messages",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~2 minutes
		}),
		EncodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vox_encode_duration_seconds",
			Help:    "Duration of encode operations",
			Buckets: prometheus.DefBuckets,
		}),
		DecodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vox_decode_duration_seconds",
			Help:    "Duration of decode operations",
			Buckets: prometheus.DefBuckets,
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vox_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vox_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vox_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordContainerLoaded increments the containers loaded counter and records
// the payload size
func (m *Metrics) RecordContainerLoaded(payloadBytes int) {
	m.ContainersLoaded.Inc()
	m.PayloadSize.Observe(float64(payloadBytes))
}

// RecordContainerError increments the malformed container counter
func (m *Metrics) RecordContainerError() {
	m.ContainerErrors.Inc()
}

// RecordPack increments the pack counter
func (m *Metrics) RecordPack() {
	m.PackOperations.Inc()
}

// RecordUnpack increments the unpack counter
func (m *Metrics) RecordUnpack() {
	m.UnpackOperations.Inc()
}

// RecordShapeError increments the shape error counter
func (m *Metrics) RecordShapeError() {
	m.ShapeErrors.Inc()
}

// RecordEncode records one encode operation's wall time and audio duration
func (m *Metrics) RecordEncode(durationSeconds, audioSeconds float64) {
	m.EncodeDuration.Observe(durationSeconds)
	m.AudioDuration.Observe(audioSeconds)
}

// RecordDecode records one decode operation's wall time
func (m *Metrics) RecordDecode(durationSeconds float64) {
	m.DecodeDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an HTTP request with its duration
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
