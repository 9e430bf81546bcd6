// Package audio handles the PCM side of the voice codec: WAV encode/decode
// for 16-bit mono audio, conversion between PCM-16 samples and the float32
// signal domain the neural codec consumes, and sample-rate conversion.
package audio
