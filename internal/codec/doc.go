// Package codec glues the neural audio codec boundary to the bit packer and
// the container metadata. The neural model itself is an injected capability:
// anything that maps a signal to per-step code vectors and back can drive
// the encoder. Only the signs of the code values survive a round trip.
package codec
