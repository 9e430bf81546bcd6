package codec

import (
	"fmt"

	"github.com/allisonChilton/meshtastic-vox/internal/container"
)

// pcmReferenceByteRate is the byte rate of 16-bit PCM at 8 kHz, the
// uncompressed baseline compression ratios are reported against.
const pcmReferenceByteRate = 16000.0

// CompressionStats summarizes how small an encoded message is relative to
// its duration.
type CompressionStats struct {
	DurationSeconds  float64 `json:"duration_seconds"`
	CompressedBytes  float64 `json:"compressed_bytes"`
	BytesPerSecond   float64 `json:"bytes_per_second"`
	BitsPerSecond    float64 `json:"bits_per_second"`
	CompressionRatio string  `json:"compression_ratio"`
}

// Stats derives compression statistics from container metadata.
func Stats(meta container.Metadata) CompressionStats {
	compressedBytes := float64(meta.NumValid) * float64(meta.NBits) / 8

	var bytesPerSecond float64
	if meta.AudioDuration > 0 {
		bytesPerSecond = compressedBytes / meta.AudioDuration
	}

	ratio := "1:0"
	if bytesPerSecond > 0 {
		ratio = fmt.Sprintf("1:%d", int(pcmReferenceByteRate/bytesPerSecond))
	}

	return CompressionStats{
		DurationSeconds:  meta.AudioDuration,
		CompressedBytes:  compressedBytes,
		BytesPerSecond:   bytesPerSecond,
		BitsPerSecond:    bytesPerSecond * 8,
		CompressionRatio: ratio,
	}
}
