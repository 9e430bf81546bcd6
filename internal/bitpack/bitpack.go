package bitpack

import (
	"errors"
	"fmt"
	"math"
)

// ErrShape indicates that a code array or a requested unpack shape is
// invalid: wrong axis count, ragged or empty input, or a shape that does
// not fit the available packed bytes.
var ErrShape = errors.New("bitpack: invalid code shape")

// Packed holds the result of packing a code array, along with the shape
// information needed to invert the transform.
type Packed struct {
	NBits    int    // bits per code vector (innermost axis length)
	NumValid int    // time steps per batch (middle axis length)
	Batches  int    // batch count (outermost axis length)
	Data     []byte // packed bits, Batches rows of RowBytes() each
}

// RowBytes returns the number of packed bytes occupied by a single batch row.
// Each row is padded to a whole byte independently.
func (p Packed) RowBytes() int {
	return rowBytes(p.NumValid, p.NBits)
}

func rowBytes(numValid, nBits int) int {
	return (numValid*nBits + 7) / 8
}

// Pack binarizes a (batches, time, nBits) code array by sign and packs the
// resulting bits into bytes, most significant bit first. Values strictly
// greater than zero become 1 bits; zero and negative values become 0 bits.
// Within a batch the time steps' bit vectors are concatenated in order, and
// each batch row is padded with zero bits to a byte boundary before the next
// row begins.
//
// The input must be rectangular and non-empty on every axis; anything else
// returns an error wrapping ErrShape.
func Pack(codes [][][]float32) (Packed, error) {
	if len(codes) == 0 {
		return Packed{}, fmt.Errorf("%w: need at least one batch", ErrShape)
	}

	numValid := len(codes[0])
	if numValid == 0 {
		return Packed{}, fmt.Errorf("%w: batch 0 has no time steps", ErrShape)
	}

	nBits := len(codes[0][0])
	if nBits == 0 {
		return Packed{}, fmt.Errorf("%w: code vectors are empty", ErrShape)
	}

	for b, batch := range codes {
		if len(batch) != numValid {
			return Packed{}, fmt.Errorf("%w: batch %d has %d time steps, expected %d",
				ErrShape, b, len(batch), numValid)
		}
		for t, code := range batch {
			if len(code) != nBits {
				return Packed{}, fmt.Errorf("%w: batch %d step %d has %d bits, expected %d",
					ErrShape, b, t, len(code), nBits)
			}
		}
	}

	rb := rowBytes(numValid, nBits)
	data := make([]byte, len(codes)*rb)

	for b, batch := range codes {
		row := data[b*rb:]
		bit := 0
		for _, code := range batch {
			for _, v := range code {
				if v > 0 {
					row[bit>>3] |= 1 << (7 - bit&7)
				}
				bit++
			}
		}
	}

	return Packed{
		NBits:    nBits,
		NumValid: numValid,
		Batches:  len(codes),
		Data:     data,
	}, nil
}

// Unpack expands packed bytes back into a (batches, numValid, nBits) code
// array. Each batch row occupies ceil(numValid*nBits/8) bytes of data; the
// padding bits at the end of a row are discarded rather than leaking into
// the next row, so Unpack inverts Pack for every shape, byte-aligned or not.
//
// Each bit v maps to (2v-1)/sqrt(nBits): set bits become +1/sqrt(nBits) and
// clear bits become -1/sqrt(nBits). Original magnitudes are not recoverable.
//
// Returns an error wrapping ErrShape if any dimension is non-positive or if
// data holds fewer bytes than the requested shape requires. Trailing bytes
// beyond batches*rowBytes are ignored.
func Unpack(data []byte, nBits, numValid, batches int) ([][][]float32, error) {
	if nBits <= 0 || numValid <= 0 || batches <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got (%d, %d, %d)",
			ErrShape, batches, numValid, nBits)
	}

	// Guard the size arithmetic itself: a wrapped product would defeat the
	// length check below.
	if numValid > (math.MaxInt-7)/nBits {
		return nil, fmt.Errorf("%w: shape (%d, %d, %d) overflows the addressable bit count",
			ErrShape, batches, numValid, nBits)
	}
	rb := rowBytes(numValid, nBits)
	if batches > math.MaxInt/rb {
		return nil, fmt.Errorf("%w: shape (%d, %d, %d) overflows the addressable bit count",
			ErrShape, batches, numValid, nBits)
	}

	if need := batches * rb; len(data) < need {
		return nil, fmt.Errorf("%w: need %d bytes for %d batches of %dx%d codes, got %d",
			ErrShape, need, batches, numValid, nBits, len(data))
	}

	scale := float32(1 / math.Sqrt(float64(nBits)))

	out := make([][][]float32, batches)
	for b := 0; b < batches; b++ {
		row := data[b*rb:]
		batch := make([][]float32, numValid)
		bit := 0
		for t := 0; t < numValid; t++ {
			code := make([]float32, nBits)
			for i := range code {
				if row[bit>>3]&(1<<(7-bit&7)) != 0 {
					code[i] = scale
				} else {
					code[i] = -scale
				}
				bit++
			}
			batch[t] = code
		}
		out[b] = batch
	}

	return out, nil
}
