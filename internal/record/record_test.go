package record

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/kampersanda/hmsearch/hmerrors"
)

func TestWriteRecordThenNextRoundTrip(t *testing.T) {
	keys := [][]uint32{
		{1, 2, 3, 4},
		{0, 0, 0, 0},
		{255, 254, 253, 1},
	}
	var buf bytes.Buffer
	for _, k := range keys {
		if err := WriteRecord(&buf, k); err != nil {
			t.Fatalf("WriteRecord: %v", err)
		}
	}

	got, err := ReadAll(&buf, 4, 256)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(keys) {
		t.Fatalf("got %d keys, want %d", len(got), len(keys))
	}
	for i, k := range keys {
		for j := range k {
			if got[i][j] != k[j] {
				t.Fatalf("key %d symbol %d: got %d, want %d", i, j, got[i][j], k[j])
			}
		}
	}
}

func TestNextTruncatesToLength(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecord(&buf, []uint32{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	r := NewReader(&buf, 3, 256)
	key, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(key) != 3 {
		t.Fatalf("got length %d, want 3", len(key))
	}
	if key[0] != 1 || key[1] != 2 || key[2] != 3 {
		t.Fatalf("got %v, want [1 2 3]", key)
	}
}

func TestNextReducesModuloAlphabet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecord(&buf, []uint32{10, 11, 12}); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	r := NewReader(&buf, 3, 5)
	key, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := []uint32{0, 1, 2}
	for i := range want {
		if key[i] != want[i] {
			t.Fatalf("got %v, want %v", key, want)
		}
	}
}

func TestNextRejectsDimShorterThanLength(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecord(&buf, []uint32{1, 2}); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	r := NewReader(&buf, 5, 256)
	if _, err := r.Next(); !errors.Is(err, hmerrors.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}

func TestNextReturnsEOFAtBoundary(t *testing.T) {
	r := NewReader(&bytes.Buffer{}, 4, 256)
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("got %v, want io.EOF", err)
	}
}

func TestNextRejectsPartialDimHeader(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2}), 4, 256)
	if _, err := r.Next(); !errors.Is(err, hmerrors.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}

func TestWriteRecordRejectsOutOfByteRangeSymbol(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecord(&buf, []uint32{256}); err == nil {
		t.Error("expected error writing a symbol that does not fit in a byte")
	}
}

func TestReadAllMultipleRecords(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 5; i++ {
		if err := WriteRecord(&buf, []uint32{uint32(i), uint32(i + 1)}); err != nil {
			t.Fatalf("WriteRecord %d: %v", i, err)
		}
	}
	keys, err := ReadAll(&buf, 2, 256)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(keys) != 5 {
		t.Fatalf("got %d keys, want 5", len(keys))
	}
}
