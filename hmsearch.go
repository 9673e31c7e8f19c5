// Package hmsearch implements the HmSearch index: an in-memory index for
// approximate-match lookup over short fixed-length strings drawn from a
// small integer alphabet, returning every key within a given Hamming radius
// of a query.
//
// # Basic usage
//
// Building an index:
//
//	idx, err := hmsearch.Build(keys, length, alphabet, hmsearch.ProperBuckets(radius))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Searching it:
//
//	count, err := idx.Search(query, radius, func(id uint32) {
//	    fmt.Println("match:", id)
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Package structure
//
//   - Core index: hmsearch.go (Build, Search, ProperBuckets)
//   - Serialization: serialize.go (WriteTo, ReadFrom)
//   - File-backed mode: persist_file.go (SaveFile, OpenFile, OpenBytes)
//   - Record format reader: internal/record (PreHash-free; used by cmd/hmsearch)
//   - Algorithm internals: internal/bucket, internal/odv, internal/vertical,
//     internal/verify, internal/search, internal/bitpack
package hmsearch

import (
	"fmt"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"

	"github.com/kampersanda/hmsearch/hmerrors"
	"github.com/kampersanda/hmsearch/internal/bucket"
	"github.com/kampersanda/hmsearch/internal/odv"
	"github.com/kampersanda/hmsearch/internal/search"
	"github.com/kampersanda/hmsearch/internal/verify"
)

const maxLength = 64

// Index is a read-only HmSearch index over N keys of length L, built once
// and safe for any number of concurrent searches thereafter (§5). An Index
// returned by Build or ReadFrom owns no file resources and Close is a no-op;
// one returned by OpenFile owns a memory mapping that Close unmaps.
type Index struct {
	length    int
	alphabet  uint32
	buckets   int
	bucketBeg []int
	tables    []*odv.Table
	store     *verify.Store
	numKeys   int

	mm     mmap.MMap // non-nil only for an Index returned by OpenFile
	closed atomic.Bool
}

// Close unmaps the underlying file for an Index returned by OpenFile; for
// any other Index it is a safe no-op. Calling it more than once is safe,
// and only the first call has an effect. Close must not be called while a
// Search is in flight against this Index (§5, mirroring the teacher's
// closed atomic.Bool pattern in index.go).
func (idx *Index) Close() error {
	if idx.mm == nil {
		return nil
	}
	if !idx.closed.CompareAndSwap(false, true) {
		return nil
	}
	return idx.mm.Unmap()
}

// Scratch holds the per-search transient state (match map, candidate map)
// that Search would otherwise allocate fresh on every call. Reusing a
// Scratch across queries — one per goroutine, never shared — avoids that
// allocation; it is not part of the search contract (§9).
type Scratch struct {
	matchMap map[uint32]int
	candMap  search.CandidateMap
}

// NewScratch returns a Scratch ready for reuse across calls to Search.
func NewScratch() *Scratch {
	return &Scratch{
		matchMap: make(map[uint32]int),
		candMap:  make(search.CandidateMap),
	}
}

func (s *Scratch) reset() {
	for k := range s.matchMap {
		delete(s.matchMap, k)
	}
	for k := range s.candMap {
		delete(s.candMap, k)
	}
}

// ProperBuckets returns the minimum bucket count for which the enhanced
// filter is sound at Hamming radius r (§4.4): floor((r+3)/2).
func ProperBuckets(r int) int {
	return bucket.ProperBuckets(r)
}

// Build constructs an Index over keys (each a length-L slice with symbols in
// [0, alphabet)), partitioned into `buckets` contiguous ODV tables (§4.4,
// §4.5). Pass buckets = ProperBuckets(r) for the radius you intend to search
// at; a mismatched bucket count fails later at Search time with
// ErrRadiusMismatch, not here.
func Build(keys [][]uint32, length int, alphabet uint32, buckets int) (*Index, error) {
	return BuildMode(keys, length, alphabet, buckets, verify.ModeVertical)
}

// BuildMode is Build with an explicit verification mode (§9); Build uses
// ModeVertical, the default and fast path. Both modes produce identical
// search results.
func BuildMode(keys [][]uint32, length int, alphabet uint32, buckets int, mode verify.Mode) (*Index, error) {
	if length > maxLength {
		return nil, hmerrors.ErrUnsupportedLength
	}
	if alphabet <= 1 || alphabet == (1<<32-1) {
		return nil, hmerrors.ErrAlphabetTooLarge
	}
	if buckets < 1 || buckets > length {
		return nil, hmerrors.ErrInvalidBuckets
	}
	if len(keys) == 0 {
		return nil, hmerrors.ErrEmptyKeys
	}
	for i, k := range keys {
		if len(k) != length {
			return nil, fmt.Errorf("hmsearch: key %d has length %d, want %d", i, len(k), length)
		}
	}

	begs := bucket.Begins(length, buckets)

	tables := make([]*odv.Table, buckets)
	for b := 0; b < buckets; b++ {
		bucketLen := begs[b+1] - begs[b]
		slices := make([][]uint32, len(keys))
		for i, k := range keys {
			slices[i] = bucket.Slice(k, begs, b)
		}
		t, err := odv.Build(slices, bucketLen, alphabet)
		if err != nil {
			return nil, err
		}
		tables[b] = t
	}

	store := verify.Build(keys, length, alphabet, mode)

	return &Index{
		length:    length,
		alphabet:  alphabet,
		buckets:   buckets,
		bucketBeg: begs,
		tables:    tables,
		store:     store,
		numKeys:   len(keys),
	}, nil
}

// Length returns L.
func (idx *Index) Length() int { return idx.length }

// Alphabet returns sigma.
func (idx *Index) Alphabet() uint32 { return idx.alphabet }

// Buckets returns B.
func (idx *Index) Buckets() int { return idx.buckets }

// NumKeys returns N, the number of keys the index was built from.
func (idx *Index) NumKeys() int { return idx.numKeys }

// Mode returns the verification strategy in effect (§9).
func (idx *Index) Mode() verify.Mode { return idx.store.Mode() }

// Search returns every id whose key is within Hamming distance r of query,
// delivered through sink, and the number of candidates that reached
// verification (a performance counter, not part of the result set). scratch
// may be nil (a fresh Scratch is allocated for the call) or a *Scratch
// reused across queries from the same goroutine (§9); it must never be
// shared across concurrent Search calls.
//
// Fails with ErrRadiusMismatch if ProperBuckets(r) != idx.Buckets().
func (idx *Index) Search(query []uint32, r int, sink func(id uint32), scratch *Scratch) (int, error) {
	if len(query) != idx.length {
		return 0, fmt.Errorf("hmsearch: query length %d, want %d", len(query), idx.length)
	}
	if ProperBuckets(r) != idx.buckets {
		return 0, hmerrors.ErrRadiusMismatch
	}

	if scratch == nil {
		scratch = NewScratch()
	} else {
		scratch.reset()
	}

	for b := 0; b < idx.buckets; b++ {
		qSlice := bucket.Slice(query, idx.bucketBeg, b)
		for k := range scratch.matchMap {
			delete(scratch.matchMap, k)
		}
		err := idx.tables[b].Probe(qSlice, func(id uint32) {
			scratch.matchMap[id]++
		})
		if err != nil {
			return 0, err
		}
		scratch.candMap.Fold(scratch.matchMap)
	}

	verified := 0
	for id, counters := range scratch.candMap {
		if !search.EnhancedFilter(*counters, r) {
			continue
		}
		verified++
		if idx.store.WithinRadius(query, id, r) {
			sink(id)
		}
	}
	return verified, nil
}

// SearchUnfiltered behaves like Search but skips the enhanced filter (§8,
// "enhanced-filter equivalence" and "pigeonhole coverage" properties): every
// candidate produced by any ODV probe is verified, regardless of its
// strong/weak tally. It exists for testing the filter's soundness, not for
// production use — it always verifies at least as many candidates as
// Search, usually far more.
func (idx *Index) SearchUnfiltered(query []uint32, r int, sink func(id uint32), scratch *Scratch) (int, error) {
	if len(query) != idx.length {
		return 0, fmt.Errorf("hmsearch: query length %d, want %d", len(query), idx.length)
	}
	if ProperBuckets(r) != idx.buckets {
		return 0, hmerrors.ErrRadiusMismatch
	}

	if scratch == nil {
		scratch = NewScratch()
	} else {
		scratch.reset()
	}

	for b := 0; b < idx.buckets; b++ {
		qSlice := bucket.Slice(query, idx.bucketBeg, b)
		err := idx.tables[b].Probe(qSlice, func(id uint32) {
			scratch.matchMap[id]++
		})
		if err != nil {
			return 0, err
		}
	}

	verified := 0
	for id := range scratch.matchMap {
		verified++
		if idx.store.WithinRadius(query, id, r) {
			sink(id)
		}
	}
	return verified, nil
}

// BytesUsed accounts for all storage owned by the index (§6).
func (idx *Index) BytesUsed() int64 {
	var total int64
	for _, t := range idx.tables {
		total += t.BytesUsed()
	}
	total += idx.store.BytesUsed()
	total += int64(len(idx.bucketBeg)) * 8
	return total
}
