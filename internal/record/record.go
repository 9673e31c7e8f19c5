// Package record implements the external key/query file format accepted by
// cmd/hmsearch and emitted by cmd/hmsearch-bench: a sequence of
//
//	u32 dim (little-endian) ; dim bytes of symbols
//
// records, repeated until EOF. This mirrors the teacher's decode style in
// its old header.go (field-at-a-time binary.LittleEndian reads over a
// buffered reader) adapted to a streaming record format instead of a single
// fixed header.
package record

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kampersanda/hmsearch/hmerrors"
)

// Reader yields one key per record from an underlying byte stream.
type Reader struct {
	br       *bufio.Reader
	length   int
	alphabet uint32
	index    int
}

// NewReader wraps r, truncating each record to the first `length` symbols
// and reducing each symbol modulo alphabet before it is returned from Next.
func NewReader(r io.Reader, length int, alphabet uint32) *Reader {
	return &Reader{br: bufio.NewReader(r), length: length, alphabet: alphabet}
}

// Next reads the next record and returns its key, truncated/reduced as
// described on Reader. Returns io.EOF once the stream is exhausted cleanly
// (at a record boundary). A record with dim < length fails with
// hmerrors.ErrInvalidInput, wrapped with the record's ordinal index.
func (r *Reader) Next() ([]uint32, error) {
	var dimBuf [4]byte
	if _, err := io.ReadFull(r.br, dimBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("record %d: read dim: %w", r.index, hmerrors.ErrInvalidInput)
	}
	dim := int(binary.LittleEndian.Uint32(dimBuf[:]))

	buf := make([]byte, dim)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, fmt.Errorf("record %d: read %d symbol bytes: %w", r.index, dim, hmerrors.ErrInvalidInput)
	}

	if dim < r.length {
		return nil, fmt.Errorf("record %d: dim %d < length %d: %w", r.index, dim, r.length, hmerrors.ErrInvalidInput)
	}

	key := make([]uint32, r.length)
	for i := 0; i < r.length; i++ {
		key[i] = uint32(buf[i]) % r.alphabet
	}
	r.index++
	return key, nil
}

// ReadAll drains r to EOF, returning every key in order.
func ReadAll(r io.Reader, length int, alphabet uint32) ([][]uint32, error) {
	reader := NewReader(r, length, alphabet)
	var keys [][]uint32
	for {
		key, err := reader.Next()
		if err == io.EOF {
			return keys, nil
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
}

// WriteRecord writes one record for key (length = len(key)) to w, the
// inverse of Next/ReadAll, in the symbol-per-byte encoding cmd/hmsearch-bench
// uses for fixture generation. Symbols must fit in a byte (< 256); larger
// alphabets are not representable in this wire format.
func WriteRecord(w io.Writer, key []uint32) error {
	var dimBuf [4]byte
	binary.LittleEndian.PutUint32(dimBuf[:], uint32(len(key)))
	if _, err := w.Write(dimBuf[:]); err != nil {
		return err
	}
	buf := make([]byte, len(key))
	for i, sym := range key {
		if sym > 255 {
			return fmt.Errorf("record: symbol %d does not fit in a byte", sym)
		}
		buf[i] = byte(sym)
	}
	_, err := w.Write(buf)
	return err
}
