// Package bitpack converts batches of sign-valued codec codes to and from
// a dense bit-packed byte representation. Only the sign of each code survives
// the transform: packing stores one bit per code symbol, and unpacking maps
// each bit back to +-1/sqrt(nBits) so every reconstructed code vector has
// unit L2 norm.
package bitpack
