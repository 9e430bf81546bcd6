package container

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"
)

// Metadata describes one encoded voice message. NBits, NumValid and Batches
// reconstruct the packed code shape; the remaining fields are descriptive
// passthrough for the player side. Metadata is written once at encode time
// and never modified afterwards.
type Metadata struct {
	NBits              int     `json:"n_bits"`
	NumValid           int     `json:"num_valid"`
	Batches            int     `json:"batches"`
	OriginalSampleRate int     `json:"original_sample_rate"`
	CodecSampleRate    int     `json:"codec_sample_rate"`
	ConfigName         string  `json:"config_name"`
	AudioDuration      float64 `json:"audio_duration"`
}

// Validate checks that the shape fields can describe a packed payload.
func (m *Metadata) Validate() error {
	if m.NBits <= 0 {
		return fmt.Errorf("n_bits must be positive, got %d", m.NBits)
	}
	if m.NumValid <= 0 {
		return fmt.Errorf("num_valid must be positive, got %d", m.NumValid)
	}
	if m.Batches <= 0 {
		return fmt.Errorf("batches must be positive, got %d", m.Batches)
	}
	if m.NumValid > (math.MaxInt-7)/m.NBits {
		return fmt.Errorf("shape (%d, %d, %d) overflows the addressable bit count",
			m.Batches, m.NumValid, m.NBits)
	}
	if rowBytes := (m.NumValid*m.NBits + 7) / 8; m.Batches > math.MaxInt/rowBytes {
		return fmt.Errorf("shape (%d, %d, %d) overflows the addressable bit count",
			m.Batches, m.NumValid, m.NBits)
	}
	if m.OriginalSampleRate <= 0 {
		return fmt.Errorf("original_sample_rate must be positive, got %d", m.OriginalSampleRate)
	}
	if m.CodecSampleRate <= 0 {
		return fmt.Errorf("codec_sample_rate must be positive, got %d", m.CodecSampleRate)
	}
	if m.ConfigName == "" {
		return fmt.Errorf("config_name must not be empty")
	}
	if m.AudioDuration < 0 {
		return fmt.Errorf("audio_duration must not be negative, got %f", m.AudioDuration)
	}
	return nil
}

// metadataWire mirrors Metadata with pointer fields so that missing JSON
// keys are detectable after unmarshaling. Unknown extra keys are ignored.
type metadataWire struct {
	NBits              *int     `json:"n_bits"`
	NumValid           *int     `json:"num_valid"`
	Batches            *int     `json:"batches"`
	OriginalSampleRate *int     `json:"original_sample_rate"`
	CodecSampleRate    *int     `json:"codec_sample_rate"`
	ConfigName         *string  `json:"config_name"`
	AudioDuration      *float64 `json:"audio_duration"`
}

// parseMetadata decodes a metadata JSON blob, requiring all seven keys to be
// present with the right types.
func parseMetadata(blob []byte) (Metadata, error) {
	var wire metadataWire
	if err := json.Unmarshal(blob, &wire); err != nil {
		return Metadata{}, fmt.Errorf("%w: invalid metadata JSON: %v", ErrFormat, err)
	}

	required := []struct {
		key string
		ok  bool
	}{
		{"n_bits", wire.NBits != nil},
		{"num_valid", wire.NumValid != nil},
		{"batches", wire.Batches != nil},
		{"original_sample_rate", wire.OriginalSampleRate != nil},
		{"codec_sample_rate", wire.CodecSampleRate != nil},
		{"config_name", wire.ConfigName != nil},
		{"audio_duration", wire.AudioDuration != nil},
	}
	for _, field := range required {
		if !field.ok {
			return Metadata{}, fmt.Errorf("%w: metadata missing required key %q", ErrFormat, field.key)
		}
	}

	meta := Metadata{
		NBits:              *wire.NBits,
		NumValid:           *wire.NumValid,
		Batches:            *wire.Batches,
		OriginalSampleRate: *wire.OriginalSampleRate,
		CodecSampleRate:    *wire.CodecSampleRate,
		ConfigName:         *wire.ConfigName,
		AudioDuration:      *wire.AudioDuration,
	}
	if err := meta.Validate(); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return meta, nil
}
