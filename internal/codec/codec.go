package codec

import "sort"

// Codec is the boundary to the neural audio model. Implementations map a
// multi-channel float32 signal at SampleRate() to a (batch, time, nBits)
// code array and back. The model is expected to be deterministic and safe
// for concurrent use by independent callers.
type Codec interface {
	// SignalToCodes encodes a signal sampled at SampleRate() into one code
	// batch per channel.
	SignalToCodes(signal [][]float32) ([][][]float32, error)

	// CodesToSignal decodes a code array back into a signal at SampleRate().
	CodesToSignal(codes [][][]float32) ([][]float32, error)

	// SampleRate reports the fixed sample rate the model operates at.
	SampleRate() int

	// ConfigName reports the preset this model was built from.
	ConfigName() string
}

// DefaultPreset is the preset used when a name is unknown or unset.
const DefaultPreset = "25hz"

// presets maps preset names to pretrained model identifiers.
var presets = map[string]string{
	"12_5hz": "lucadellalib/focalcodec_12_5hz",
	"25hz":   "lucadellalib/focalcodec_25hz",
	"50hz":   "lucadellalib/focalcodec_50hz",
}

// ModelPath resolves a preset name to its pretrained model identifier,
// falling back to the default preset for unknown names.
func ModelPath(name string) string {
	if path, ok := presets[name]; ok {
		return path
	}
	return presets[DefaultPreset]
}

// IsPreset reports whether name is a known preset.
func IsPreset(name string) bool {
	_, ok := presets[name]
	return ok
}

// Presets returns the known preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
