// Package container serializes packed voice codes together with the
// metadata needed to reconstruct them. The wire format is a 4-byte
// little-endian length prefix, a UTF-8 JSON metadata object of that length,
// and the packed payload as the remainder of the stream.
package container
