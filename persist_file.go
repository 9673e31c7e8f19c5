package hmsearch

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/kampersanda/hmsearch/hmerrors"
)

// SaveFile serializes idx to path, creating it if necessary and truncating
// any existing content. The file is pre-sized with fallocateFile before any
// bytes are written, so a full disk fails before corrupting a partial file.
func SaveFile(idx *Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hmsearch: create index file: %w", err)
	}
	if err := fallocateFile(f, idx.SerializedSize()); err != nil {
		f.Close()
		return fmt.Errorf("hmsearch: reserve disk space: %w", err)
	}
	if _, err := idx.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("hmsearch: write index file: %w", err)
	}
	return f.Close()
}

// OpenFile memory-maps path read-only and parses an Index directly against
// the mapping, avoiding a full read() of the file into a fresh buffer. The
// returned Index owns the mapping; callers must call Close once done, and
// must not call Close while a Search is in flight.
func OpenFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hmsearch: open index file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("hmsearch: stat index file: %w", err)
	}
	if stat.Size() < int64(headerSize+footerSize) {
		return nil, hmerrors.ErrTruncatedData
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("hmsearch: mmap index file: %w", err)
	}
	fadviseRandom(int(f.Fd()), 0, stat.Size())

	idx, err := parseIndex([]byte(mm))
	if err != nil {
		mm.Unmap()
		return nil, err
	}
	idx.mm = mm
	return idx, nil
}

// OpenBytes parses an Index from a caller-owned byte slice (e.g. one read
// from an embedded asset, or already resident in memory for another
// reason). No file is opened or memory-mapped; Close is a no-op. The caller
// must not modify data while the returned Index is in use.
func OpenBytes(data []byte) (*Index, error) {
	return parseIndex(data)
}
