package server

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/allisonChilton/meshtastic-vox/internal/bitpack"
	"github.com/allisonChilton/meshtastic-vox/internal/config"
	"github.com/allisonChilton/meshtastic-vox/internal/container"
	"github.com/allisonChilton/meshtastic-vox/internal/metrics"
)

// Prometheus collectors register globally, so the test server shares one set.
var testMetrics = metrics.NewMetrics()

func newTestServer() *HTTPServer {
	cfg := &config.Config{
		Codec: config.CodecConfig{
			Preset:           "25hz",
			TargetSampleRate: 24000,
		},
		HTTP: config.HTTPConfig{
			Port:    8080,
			Address: "127.0.0.1",
			Enabled: true,
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHTTPServer(cfg.HTTP, logger, cfg, testMetrics)
}

// makeTestContainer packs a small code array into a complete container.
func makeTestContainer(t *testing.T) []byte {
	t.Helper()

	codes := [][][]float32{{
		{0.5, -0.2, 3, -1},
		{-5, 2, 0, 0.1},
	}}
	packed, err := bitpack.Pack(codes)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	meta := container.Metadata{
		NBits:              packed.NBits,
		NumValid:           packed.NumValid,
		Batches:            packed.Batches,
		OriginalSampleRate: 8000,
		CodecSampleRate:    24000,
		ConfigName:         "25hz",
		AudioDuration:      0.08,
	}

	var buf bytes.Buffer
	if err := container.Save(&buf, packed.Data, meta); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return buf.Bytes()
}

func doRequest(t *testing.T, h *HTTPServer, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	return decoded
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer()

	rec := doRequest(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	health := decodeJSON(t, rec)
	if health["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", health["status"])
	}
}

func TestHandleInspect(t *testing.T) {
	h := newTestServer()
	raw := makeTestContainer(t)

	rec := doRequest(t, h, http.MethodPost, "/inspect", raw)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	response := decodeJSON(t, rec)
	if response["payload_bytes"] != float64(1) {
		t.Errorf("Expected payload_bytes 1, got %v", response["payload_bytes"])
	}
	meta, ok := response["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("Expected metadata object, got %v", response["metadata"])
	}
	if meta["config_name"] != "25hz" {
		t.Errorf("Expected config_name 25hz, got %v", meta["config_name"])
	}
}

func TestHandleInspectRejectsGarbage(t *testing.T) {
	h := newTestServer()

	rec := doRequest(t, h, http.MethodPost, "/inspect", []byte{0x01, 0x02})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rec.Code)
	}
}

func TestHandleInspectMethodNotAllowed(t *testing.T) {
	h := newTestServer()

	rec := doRequest(t, h, http.MethodGet, "/inspect", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestHandleVerify(t *testing.T) {
	h := newTestServer()
	raw := makeTestContainer(t)

	rec := doRequest(t, h, http.MethodPost, "/verify", raw)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	response := decodeJSON(t, rec)
	if response["valid"] != true {
		t.Errorf("Expected valid true, got %v", response["valid"])
	}
}

func TestHandleVerifyShapeMismatch(t *testing.T) {
	h := newTestServer()

	// Metadata declares more codes than the one-byte payload holds.
	meta := container.Metadata{
		NBits:              8,
		NumValid:           100,
		Batches:            1,
		OriginalSampleRate: 8000,
		CodecSampleRate:    24000,
		ConfigName:         "25hz",
		AudioDuration:      1,
	}
	var buf bytes.Buffer
	if err := container.Save(&buf, []byte{0xFF}, meta); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec := doRequest(t, h, http.MethodPost, "/verify", buf.Bytes())
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rec.Code)
	}
}

func TestHandleVerifyRejectsOverflowShape(t *testing.T) {
	h := newTestServer()

	// A shape whose bit count wraps around must be rejected as malformed,
	// not let through to the unpacker.
	blob := `{"n_bits":4611686018427387904,"num_valid":4,"batches":1,` +
		`"original_sample_rate":8000,"codec_sample_rate":24000,` +
		`"config_name":"25hz","audio_duration":1.5}`
	raw := make([]byte, 4, 4+len(blob))
	binary.LittleEndian.PutUint32(raw, uint32(len(blob)))
	raw = append(raw, blob...)

	rec := doRequest(t, h, http.MethodPost, "/verify", raw)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rec.Code)
	}
}

func TestHandleConfig(t *testing.T) {
	h := newTestServer()

	rec := doRequest(t, h, http.MethodGet, "/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	response := decodeJSON(t, rec)
	codecSection, ok := response["codec"].(map[string]any)
	if !ok {
		t.Fatalf("Expected codec section, got %v", response["codec"])
	}
	if codecSection["preset"] != "25hz" {
		t.Errorf("Expected preset 25hz, got %v", codecSection["preset"])
	}
}

func TestHandleRootUnknownPath(t *testing.T) {
	h := newTestServer()

	rec := doRequest(t, h, http.MethodGet, "/nonsense", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}
