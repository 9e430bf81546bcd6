package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
)

// ErrFormat indicates a malformed container: a truncated length prefix,
// fewer metadata bytes than the prefix declares, or metadata JSON that is
// missing required keys or carries the wrong types.
var ErrFormat = errors.New("container: malformed container")

// prefixSize is the size of the little-endian metadata length prefix.
const prefixSize = 4

// maxMetadataSize caps the declared metadata length before any allocation.
// Real metadata is a few hundred bytes of JSON, so 64 KiB leaves generous
// headroom without letting a corrupt prefix drive a multi-gigabyte read.
const maxMetadataSize = 64 << 10

// Save writes a complete container to w: the metadata length prefix, the
// metadata JSON and the packed payload, in that order. Writing starts at
// w's current position and no partial-write recovery is attempted; any
// write failure propagates wrapped.
func Save(w io.Writer, packed []byte, meta Metadata) error {
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("container: invalid metadata: %w", err)
	}

	blob, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("container: failed to encode metadata: %w", err)
	}

	var prefix [prefixSize]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(blob)))

	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("container: failed to write metadata length: %w", err)
	}
	if _, err := w.Write(blob); err != nil {
		return fmt.Errorf("container: failed to write metadata: %w", err)
	}
	if _, err := w.Write(packed); err != nil {
		return fmt.Errorf("container: failed to write payload: %w", err)
	}
	return nil
}

// Load reads one container from r. The payload is everything after the
// metadata, so r must end where the container ends; containers cannot be
// multiplexed with trailing data. Truncated headers return an error
// wrapping ErrFormat; other read failures propagate wrapped.
func Load(r io.Reader) ([]byte, Metadata, error) {
	var prefix [prefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, Metadata{}, fmt.Errorf("%w: need %d bytes for metadata length prefix", ErrFormat, prefixSize)
		}
		return nil, Metadata{}, fmt.Errorf("container: failed to read metadata length: %w", err)
	}

	metaLen := binary.LittleEndian.Uint32(prefix[:])
	if metaLen > maxMetadataSize {
		return nil, Metadata{}, fmt.Errorf("%w: metadata length %d exceeds maximum %d", ErrFormat, metaLen, maxMetadataSize)
	}
	blob := make([]byte, metaLen)
	if _, err := io.ReadFull(r, blob); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, Metadata{}, fmt.Errorf("%w: metadata truncated, declared %d bytes", ErrFormat, metaLen)
		}
		return nil, Metadata{}, fmt.Errorf("container: failed to read metadata: %w", err)
	}

	meta, err := parseMetadata(blob)
	if err != nil {
		return nil, Metadata{}, err
	}

	packed, err := io.ReadAll(r)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("container: failed to read payload: %w", err)
	}
	return packed, meta, nil
}

// SaveFile writes a container to the named file, creating or truncating it.
func SaveFile(path string, packed []byte, meta Metadata) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("container: failed to create %s: %w", path, err)
	}

	if err := Save(f, packed, meta); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("container: failed to close %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a single container from the named file.
func LoadFile(path string) ([]byte, Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("container: failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}
