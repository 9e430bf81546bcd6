package bitpack

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestPack(t *testing.T) {
	tests := []struct {
		name         string
		codes        [][][]float32
		expectedData []byte
		wantNBits    int
		wantNumValid int
		wantBatches  int
		expectError  bool
		errorMsg     string
	}{
		{
			name: "single batch one bit per step",
			codes: [][][]float32{{
				{1}, {-1}, {1}, {1}, {-1}, {-1}, {1}, {-1},
			}},
			expectedData: []byte{0xB2},
			wantNBits:    1,
			wantNumValid: 8,
			wantBatches:  1,
		},
		{
			name: "four bit codes",
			codes: [][][]float32{{
				{0.5, -0.2, 3, -1},
				{-5, 2, 0, 0.1},
			}},
			expectedData: []byte{0xA5},
			wantNBits:    4,
			wantNumValid: 2,
			wantBatches:  1,
		},
		{
			name: "zero is a clear bit",
			codes: [][][]float32{{
				{0, 0, 0, 0, 1, 1, 1, 1},
			}},
			expectedData: []byte{0x0F},
			wantNBits:    8,
			wantNumValid: 1,
			wantBatches:  1,
		},
		{
			name: "row padding on the low end",
			codes: [][][]float32{{
				{1}, {1}, {1}, {1}, {1}, {1}, {1}, {1}, {1}, {1},
			}},
			expectedData: []byte{0xFF, 0xC0},
			wantNBits:    1,
			wantNumValid: 10,
			wantBatches:  1,
		},
		{
			name: "two batches padded independently",
			codes: [][][]float32{
				{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}},
				{{-1, -1, -1}, {-1, -1, -1}, {-1, -1, -1}},
			},
			// 9 bits per row, each padded to 2 bytes
			expectedData: []byte{0xFF, 0x80, 0x00, 0x00},
			wantNBits:    3,
			wantNumValid: 3,
			wantBatches:  2,
		},
		{
			name:        "no batches",
			codes:       [][][]float32{},
			expectError: true,
			errorMsg:    "at least one batch",
		},
		{
			name:        "empty batch",
			codes:       [][][]float32{{}},
			expectError: true,
			errorMsg:    "no time steps",
		},
		{
			name:        "empty code vector",
			codes:       [][][]float32{{{}}},
			expectError: true,
			errorMsg:    "code vectors are empty",
		},
		{
			name: "ragged time axis",
			codes: [][][]float32{
				{{1, 1}, {1, 1}},
				{{1, 1}},
			},
			expectError: true,
			errorMsg:    "batch 1 has 1 time steps",
		},
		{
			name: "ragged bit axis",
			codes: [][][]float32{
				{{1, 1}, {1, 1, 1}},
			},
			expectError: true,
			errorMsg:    "batch 0 step 1 has 3 bits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed, err := Pack(tt.codes)

			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error but got none")
				}
				if !errors.Is(err, ErrShape) {
					t.Errorf("Expected ErrShape, got %v", err)
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if !bytes.Equal(packed.Data, tt.expectedData) {
				t.Errorf("Expected packed data %x, got %x", tt.expectedData, packed.Data)
			}
			if packed.NBits != tt.wantNBits {
				t.Errorf("Expected NBits %d, got %d", tt.wantNBits, packed.NBits)
			}
			if packed.NumValid != tt.wantNumValid {
				t.Errorf("Expected NumValid %d, got %d", tt.wantNumValid, packed.NumValid)
			}
			if packed.Batches != tt.wantBatches {
				t.Errorf("Expected Batches %d, got %d", tt.wantBatches, packed.Batches)
			}
		})
	}
}

func TestPackedSize(t *testing.T) {
	codes := make([][][]float32, 1)
	codes[0] = make([][]float32, 10)
	for i := range codes[0] {
		codes[0][i] = []float32{1}
	}

	packed, err := Pack(codes)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	// 10 bits round up to 2 bytes
	if len(packed.Data) != 2 {
		t.Errorf("Expected 2 packed bytes, got %d", len(packed.Data))
	}
	if packed.RowBytes() != 2 {
		t.Errorf("Expected RowBytes 2, got %d", packed.RowBytes())
	}
}

func TestUnpack(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		nBits       int
		numValid    int
		batches     int
		expected    [][][]float32
		expectError bool
		errorMsg    string
	}{
		{
			name:     "single batch one bit per step",
			data:     []byte{0xB2},
			nBits:    1,
			numValid: 8,
			batches:  1,
			expected: [][][]float32{{
				{1}, {-1}, {1}, {1}, {-1}, {-1}, {1}, {-1},
			}},
		},
		{
			name:     "four bit codes scaled by half",
			data:     []byte{0xA5},
			nBits:    4,
			numValid: 2,
			batches:  1,
			expected: [][][]float32{{
				{0.5, -0.5, 0.5, -0.5},
				{-0.5, 0.5, -0.5, 0.5},
			}},
		},
		{
			name:     "trailing bytes ignored",
			data:     []byte{0xFF, 0xAB, 0xCD},
			nBits:    4,
			numValid: 2,
			batches:  1,
			expected: [][][]float32{{
				{0.5, 0.5, 0.5, 0.5},
				{0.5, 0.5, 0.5, 0.5},
			}},
		},
		{
			name:        "not enough data",
			data:        []byte{0xFF},
			nBits:       4,
			numValid:    4,
			batches:     1,
			expectError: true,
			errorMsg:    "need 2 bytes",
		},
		{
			name:        "empty data",
			data:        nil,
			nBits:       1,
			numValid:    1,
			batches:     1,
			expectError: true,
			errorMsg:    "need 1 bytes",
		},
		{
			name:        "non-positive dimension",
			data:        []byte{0xFF},
			nBits:       0,
			numValid:    8,
			batches:     1,
			expectError: true,
			errorMsg:    "must be positive",
		},
		{
			// numValid*nBits wraps around, which must not slip past the
			// length check as a tiny row size.
			name:        "row bit count overflows",
			data:        nil,
			nBits:       1 << 62,
			numValid:    4,
			batches:     1,
			expectError: true,
			errorMsg:    "overflows",
		},
		{
			name:        "row bit count wraps negative",
			data:        []byte{0xFF},
			nBits:       1 << 32,
			numValid:    1 << 31,
			batches:     1,
			expectError: true,
			errorMsg:    "overflows",
		},
		{
			name:        "batch count times row size overflows",
			data:        []byte{0xFF},
			nBits:       8,
			numValid:    1 << 40,
			batches:     1 << 30,
			expectError: true,
			errorMsg:    "overflows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes, err := Unpack(tt.data, tt.nBits, tt.numValid, tt.batches)

			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error but got none")
				}
				if !errors.Is(err, ErrShape) {
					t.Errorf("Expected ErrShape, got %v", err)
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			assertCodesEqual(t, tt.expected, codes, 1e-6)
		})
	}
}

func TestRoundTripByteAligned(t *testing.T) {
	// 16 steps x 2 bits = 32 bits per row, byte aligned
	codes := [][][]float32{
		makeBatch(16, 2, 1),
		makeBatch(16, 2, 7),
	}

	packed, err := Pack(codes)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	got, err := Unpack(packed.Data, packed.NBits, packed.NumValid, packed.Batches)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	assertSignsMatch(t, codes, got, 1e-6)
}

func TestRoundTripUnalignedRows(t *testing.T) {
	// 5 steps x 3 bits = 15 bits per row: each row is padded to 2 bytes,
	// and the padding must not shift the second batch's decoded bits.
	codes := [][][]float32{
		makeBatch(5, 3, 3),
		makeBatch(5, 3, 11),
		makeBatch(5, 3, 29),
	}

	packed, err := Pack(codes)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if len(packed.Data) != 6 {
		t.Fatalf("Expected 3 rows x 2 bytes = 6 packed bytes, got %d", len(packed.Data))
	}

	got, err := Unpack(packed.Data, packed.NBits, packed.NumValid, packed.Batches)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	assertSignsMatch(t, codes, got, 1e-6)
}

// makeBatch builds numValid code vectors of nBits pseudo-random signed values
// from a small deterministic generator.
func makeBatch(numValid, nBits int, seed uint32) [][]float32 {
	state := seed
	batch := make([][]float32, numValid)
	for t := range batch {
		code := make([]float32, nBits)
		for i := range code {
			state = state*1664525 + 1013904223
			// Spread magnitudes around zero, including exact zeros.
			switch state % 5 {
			case 0:
				code[i] = 0
			case 1:
				code[i] = float32(state%100) / 25
			case 2:
				code[i] = -float32(state%100) / 25
			case 3:
				code[i] = 0.001
			default:
				code[i] = -3.5
			}
		}
		batch[t] = code
	}
	return batch
}

func assertCodesEqual(t *testing.T, expected, got [][][]float32, tol float64) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("Expected %d batches, got %d", len(expected), len(got))
	}
	for b := range expected {
		if len(got[b]) != len(expected[b]) {
			t.Fatalf("Batch %d: expected %d steps, got %d", b, len(expected[b]), len(got[b]))
		}
		for s := range expected[b] {
			if len(got[b][s]) != len(expected[b][s]) {
				t.Fatalf("Batch %d step %d: expected %d bits, got %d",
					b, s, len(expected[b][s]), len(got[b][s]))
			}
			for i := range expected[b][s] {
				diff := math.Abs(float64(expected[b][s][i]) - float64(got[b][s][i]))
				if diff > tol {
					t.Errorf("Batch %d step %d bit %d: expected %v, got %v",
						b, s, i, expected[b][s][i], got[b][s][i])
				}
			}
		}
	}
}

// assertSignsMatch checks that every unpacked value carries the sign of the
// original and the magnitude 1/sqrt(nBits).
func assertSignsMatch(t *testing.T, original, got [][][]float32, tol float64) {
	t.Helper()
	for b := range original {
		for s := range original[b] {
			nBits := len(original[b][s])
			scale := 1 / math.Sqrt(float64(nBits))
			for i, v := range original[b][s] {
				want := -scale
				if v > 0 {
					want = scale
				}
				diff := math.Abs(want - float64(got[b][s][i]))
				if diff > tol {
					t.Errorf("Batch %d step %d bit %d: source %v, expected %v, got %v",
						b, s, i, v, want, got[b][s][i])
				}
			}
		}
	}
}
