package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/allisonChilton/meshtastic-vox/internal/bitpack"
	"github.com/allisonChilton/meshtastic-vox/internal/codec"
	"github.com/allisonChilton/meshtastic-vox/internal/config"
	"github.com/allisonChilton/meshtastic-vox/internal/container"
	"github.com/allisonChilton/meshtastic-vox/internal/metrics"
)

// maxContainerBody caps uploaded container sizes at 16MB.
const maxContainerBody = 16 << 20

// HTTPServer provides HTTP API endpoints for inspecting and verifying voice
// message containers and for monitoring the service
type HTTPServer struct {
	server  *http.Server
	logger  *slog.Logger
	config  *config.Config
	metrics *metrics.Metrics

	// Server state
	startTime           time.Time
	containersInspected atomic.Uint64
	containersVerified  atomic.Uint64
	containersRejected  atomic.Uint64
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger, appConfig *config.Config, m *metrics.Metrics) *HTTPServer {
	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		metrics:   m,
		startTime: time.Now(),
	}

	// Create HTTP server with routes
	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Container endpoints
	mux.HandleFunc("/inspect", h.withMetrics("/inspect", h.handleInspect))
	mux.HandleFunc("/verify", h.withMetrics("/verify", h.handleVerify))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Statistics endpoint
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		// Call the original handler
		handler(ww, r)

		// Record metrics
		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		// Record error if status code indicates an error
		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// readContainerBody reads a posted container, bounded by maxContainerBody.
func (h *HTTPServer) readContainerBody(w http.ResponseWriter, r *http.Request) ([]byte, container.Metadata, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContainerBody))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return nil, container.Metadata{}, false
	}

	packed, meta, err := container.Load(bytes.NewReader(body))
	if err != nil {
		h.metrics.RecordContainerError()
		h.containersRejected.Add(1)
		if errors.Is(err, container.ErrFormat) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, container.Metadata{}, false
	}

	h.metrics.RecordContainerLoaded(len(packed))
	return packed, meta, true
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    "meshtastic-vox",
			"version": "1.0.0",
		},
		"containers": map[string]interface{}{
			"inspected": h.containersInspected.Load(),
			"verified":  h.containersVerified.Load(),
			"rejected":  h.containersRejected.Load(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleInspect implements the /inspect endpoint: POST a container, get its
// metadata and compression statistics back
func (h *HTTPServer) handleInspect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	packed, meta, ok := h.readContainerBody(w, r)
	if !ok {
		return
	}
	h.containersInspected.Add(1)

	response := map[string]interface{}{
		"metadata":      meta,
		"stats":         codec.Stats(meta),
		"payload_bytes": len(packed),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleVerify implements the /verify endpoint: POST a container and check
// that its payload unpacks to the shape the metadata declares and repacks to
// the same bytes
func (h *HTTPServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	packed, meta, ok := h.readContainerBody(w, r)
	if !ok {
		return
	}

	codes, err := bitpack.Unpack(packed, meta.NBits, meta.NumValid, meta.Batches)
	if err != nil {
		h.metrics.RecordShapeError()
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.metrics.RecordUnpack()

	repacked, err := bitpack.Pack(codes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.metrics.RecordPack()
	h.containersVerified.Add(1)

	expected := meta.Batches * repacked.RowBytes()
	response := map[string]interface{}{
		"valid":          bytes.Equal(repacked.Data, packed[:expected]),
		"batches":        meta.Batches,
		"num_valid":      meta.NumValid,
		"n_bits":         meta.NBits,
		"payload_bytes":  len(packed),
		"expected_bytes": expected,
		"decoded_codes":  len(codes) * meta.NumValid,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sanitizedConfig := map[string]interface{}{
		"codec": map[string]interface{}{
			"preset":             h.config.Codec.Preset,
			"model_path":         codec.ModelPath(h.config.Codec.Preset),
			"target_sample_rate": h.config.Codec.TargetSampleRate,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)

	stats := map[string]interface{}{
		"uptime":    uptime.String(),
		"timestamp": time.Now().UTC(),
		"containers": map[string]interface{}{
			"inspected": h.containersInspected.Load(),
			"verified":  h.containersVerified.Load(),
			"rejected":  h.containersRejected.Load(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Meshtastic Voice Codec Service",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":         "API documentation",
			"GET /health":   "Service health check",
			"POST /inspect": "Inspect a container: metadata and compression stats",
			"POST /verify":  "Verify a container's payload against its metadata",
			"GET /config":   "Get service configuration",
			"GET /stats":    "Get service statistics",
			"GET /metrics":  "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
