package audio

import "math"

// SamplesToFloat32 converts PCM-16 samples to the [-1, 1) float32 domain.
func SamplesToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return out
}

// Float32ToSamples converts float32 signal values back to PCM-16, clamping
// anything outside [-1, 1).
func Float32ToSamples(signal []float32) []int16 {
	out := make([]int16, len(signal))
	for i, v := range signal {
		scaled := float64(v) * 32768
		switch {
		case scaled > 32767:
			out[i] = 32767
		case scaled < -32768:
			out[i] = -32768
		default:
			out[i] = int16(math.Round(scaled))
		}
	}
	return out
}

// Resample converts a signal between sample rates by linear interpolation.
// Equal rates return the input unchanged.
func Resample(signal []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(signal) == 0 {
		return signal
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(math.Round(float64(len(signal)) * float64(toRate) / float64(fromRate)))
	if outLen == 0 {
		outLen = 1
	}

	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(signal)-1 {
			out[i] = signal[len(signal)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = signal[idx]*(1-frac) + signal[idx+1]*frac
	}
	return out
}

// ResampleSignal resamples every channel of a multi-channel signal.
func ResampleSignal(signal [][]float32, fromRate, toRate int) [][]float32 {
	if fromRate == toRate {
		return signal
	}
	out := make([][]float32, len(signal))
	for ch := range signal {
		out[ch] = Resample(signal[ch], fromRate, toRate)
	}
	return out
}
