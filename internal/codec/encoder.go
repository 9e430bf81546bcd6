package codec

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/allisonChilton/meshtastic-vox/internal/audio"
	"github.com/allisonChilton/meshtastic-vox/internal/bitpack"
	"github.com/allisonChilton/meshtastic-vox/internal/container"
	"github.com/allisonChilton/meshtastic-vox/internal/metrics"
)

// ErrEmptySignal indicates an encode request with no samples.
var ErrEmptySignal = errors.New("codec: signal has no samples")

// Encoder drives a Codec through the bit packer, producing container-ready
// payloads with their metadata. It holds no mutable state beyond its
// dependencies and may be shared across goroutines.
type Encoder struct {
	codec   Codec
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEncoder creates an encoder around an injected codec model. A nil
// metrics value disables recording.
func NewEncoder(c Codec, logger *slog.Logger, m *metrics.Metrics) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{codec: c, logger: logger, metrics: m}
}

// Encode compresses a signal to a packed payload plus the metadata needed to
// invert it. The signal is resampled to the codec's rate if necessary.
func (e *Encoder) Encode(signal [][]float32, sampleRate int) ([]byte, container.Metadata, error) {
	if len(signal) == 0 || len(signal[0]) == 0 {
		return nil, container.Metadata{}, ErrEmptySignal
	}
	if sampleRate <= 0 {
		return nil, container.Metadata{}, fmt.Errorf("codec: sample rate must be positive, got %d", sampleRate)
	}
	start := time.Now()

	codecRate := e.codec.SampleRate()
	sig := audio.ResampleSignal(signal, sampleRate, codecRate)

	codes, err := e.codec.SignalToCodes(sig)
	if err != nil {
		return nil, container.Metadata{}, fmt.Errorf("codec: signal encoding failed: %w", err)
	}

	packed, err := bitpack.Pack(codes)
	if err != nil {
		return nil, container.Metadata{}, err
	}

	meta := container.Metadata{
		NBits:              packed.NBits,
		NumValid:           packed.NumValid,
		Batches:            packed.Batches,
		OriginalSampleRate: sampleRate,
		CodecSampleRate:    codecRate,
		ConfigName:         e.codec.ConfigName(),
		AudioDuration:      float64(len(sig[0])) / float64(codecRate),
	}

	if e.metrics != nil {
		e.metrics.RecordEncode(time.Since(start).Seconds(), meta.AudioDuration)
	}
	e.logger.Info("Encoded audio",
		slog.Float64("duration_seconds", meta.AudioDuration),
		slog.Int("packed_bytes", len(packed.Data)),
		slog.Int("batches", meta.Batches),
		slog.String("config_name", meta.ConfigName),
	)
	return packed.Data, meta, nil
}

// Decode reconstructs a signal from a packed payload and its metadata. If
// targetRate is positive the output is resampled from the codec rate;
// otherwise the signal is returned at the codec rate.
func (e *Encoder) Decode(packed []byte, meta container.Metadata, targetRate int) ([][]float32, error) {
	start := time.Now()
	codes, err := bitpack.Unpack(packed, meta.NBits, meta.NumValid, meta.Batches)
	if err != nil {
		return nil, err
	}

	signal, err := e.codec.CodesToSignal(codes)
	if err != nil {
		return nil, fmt.Errorf("codec: signal decoding failed: %w", err)
	}

	if targetRate > 0 && targetRate != meta.CodecSampleRate {
		signal = audio.ResampleSignal(signal, meta.CodecSampleRate, targetRate)
	}

	if e.metrics != nil {
		e.metrics.RecordDecode(time.Since(start).Seconds())
	}
	e.logger.Info("Decoded audio",
		slog.Int("packed_bytes", len(packed)),
		slog.Float64("duration_seconds", meta.AudioDuration),
	)
	return signal, nil
}

// VerifyRoundTrip encodes and decodes a signal and reports whether the
// reconstruction stays within tolerance of the input, measured as mean
// absolute difference at the codec sample rate.
func (e *Encoder) VerifyRoundTrip(signal [][]float32, sampleRate int, tolerance float64) (bool, error) {
	packed, meta, err := e.Encode(signal, sampleRate)
	if err != nil {
		return false, err
	}

	decoded, err := e.Decode(packed, meta, 0)
	if err != nil {
		return false, err
	}

	reference := audio.ResampleSignal(signal, sampleRate, meta.CodecSampleRate)
	if len(decoded) != len(reference) {
		return false, nil
	}

	var sum float64
	var count int
	for ch := range reference {
		if len(decoded[ch]) != len(reference[ch]) {
			return false, nil
		}
		for i := range reference[ch] {
			sum += math.Abs(float64(reference[ch][i]) - float64(decoded[ch][i]))
			count++
		}
	}
	if count == 0 {
		return false, nil
	}

	diff := sum / float64(count)
	e.logger.Debug("Round-trip verification",
		slog.Float64("mean_abs_diff", diff),
		slog.Float64("tolerance", tolerance),
	)
	return diff < tolerance, nil
}
