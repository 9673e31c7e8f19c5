// Package verify implements the two interchangeable candidate-verification
// strategies of §4.5 step 4 / §9 "vertical mode selection": a vertical
// bit-plane store that verifies Hamming distance via cumulative-OR popcount
// (§4.2), and a plain store that compares symbols directly. Both must
// produce identical search results for every input; only verification cost
// differs. The mode in effect is recorded on the owning Store value and is
// carried through serialization so a loaded index verifies exactly as the
// one that built it did.
//
// This mirrors the teacher library's BlockAlgorithmID dispatch
// (algorithm.go): a small enum identifying which of several
// interface-compatible implementations is in play, selected once at build
// time and persisted in the header so Open doesn't need to guess.
package verify

import (
	"github.com/kampersanda/hmsearch/internal/bitpack"
	"github.com/kampersanda/hmsearch/internal/vertical"
)

// Mode identifies which verification strategy a Store uses. Stored in the
// serialized header (§10.3) so a loaded index uses the same strategy as the
// one that built it.
type Mode uint8

const (
	// ModeVertical verifies via cumulative-OR bit-plane popcount (§4.2).
	// This is the default and the fast path for large alphabets.
	ModeVertical Mode = 0

	// ModePlain stores keys verbatim and compares symbols directly. Simpler,
	// and sometimes faster for very small alphabets where plane overhead
	// dominates, but asymptotically no better than O(L) per candidate.
	ModePlain Mode = 1
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeVertical:
		return "vertical"
	case ModePlain:
		return "plain"
	default:
		return "unknown"
	}
}

// Store holds the full-key data needed to verify Hamming distance for any
// candidate id against a query, in whichever representation Mode selects.
// A Store is read-only after Build and safe for concurrent WithinRadius calls
// (§5).
type Store struct {
	mode     Mode
	length   int
	levels   int // plane count; only meaningful in ModeVertical
	width    int // symbol width; only meaningful in ModePlain
	numKeys  int
	vertical *bitpack.Vector // numKeys * levels words, width=length bits, ModeVertical only
	plain    *bitpack.Vector // numKeys * length symbols, width=width bits, ModePlain only
}

// Build constructs a Store over keys (each of length `length`, symbols in
// [0, sigma)) using the given mode.
func Build(keys [][]uint32, length int, sigma uint32, mode Mode) *Store {
	s := &Store{mode: mode, length: length, numKeys: len(keys)}
	switch mode {
	case ModePlain:
		s.width = bitpack.WidthForAlphabet(sigma)
		s.plain = bitpack.New(len(keys)*length, s.width)
		for i, k := range keys {
			s.plain.CopyFrom(i*length, k)
		}
	default:
		s.mode = ModeVertical
		s.levels = vertical.Levels(sigma)
		s.vertical = bitpack.New(len(keys)*s.levels, length)
		for i, k := range keys {
			for j := 0; j < s.levels; j++ {
				s.vertical.Write(i*s.levels+j, vertical.Encode(k, j))
			}
		}
	}
	return s
}

// Mode reports which verification strategy this store uses.
func (s *Store) Mode() Mode { return s.mode }

// Length returns L, the key length.
func (s *Store) Length() int { return s.length }

// Levels returns the plane count (ModeVertical only; 0 otherwise).
func (s *Store) Levels() int { return s.levels }

// Width returns the per-symbol bit width (ModePlain only; 0 otherwise).
func (s *Store) Width() int { return s.width }

// NumKeys returns the number of keys stored.
func (s *Store) NumKeys() int { return s.numKeys }

// VerticalVector exposes the raw plane storage, for serialization only.
func (s *Store) VerticalVector() *bitpack.Vector { return s.vertical }

// PlainVector exposes the raw key storage, for serialization only.
func (s *Store) PlainVector() *bitpack.Vector { return s.plain }

// FromVertical reconstructs a vertical-mode Store from deserialized parts.
func FromVertical(v *bitpack.Vector, length, levels, numKeys int) *Store {
	return &Store{mode: ModeVertical, length: length, levels: levels, numKeys: numKeys, vertical: v}
}

// FromPlain reconstructs a plain-mode Store from deserialized parts.
func FromPlain(v *bitpack.Vector, length, width, numKeys int) *Store {
	return &Store{mode: ModePlain, length: length, width: width, numKeys: numKeys, plain: v}
}

// WithinRadius reports whether candidate id's stored key is within Hamming
// distance r of query (a length-L symbol slice), short-circuiting as soon
// as the running distance is provably > r.
func (s *Store) WithinRadius(query []uint32, id uint32, r int) bool {
	switch s.mode {
	case ModePlain:
		return s.withinRadiusPlain(query, id, r)
	default:
		return s.withinRadiusVertical(query, id, r)
	}
}

func (s *Store) withinRadiusVertical(query []uint32, id uint32, r int) bool {
	base := int(id) * s.levels
	candidate := make([]uint64, s.levels)
	for j := 0; j < s.levels; j++ {
		candidate[j] = s.vertical.Read(base + j)
	}
	qPlanes := make([]uint64, s.levels)
	for j := 0; j < s.levels; j++ {
		qPlanes[j] = vertical.Encode(query, j)
	}
	return vertical.HammingWithinRadius(qPlanes, candidate, s.levels, r)
}

func (s *Store) withinRadiusPlain(query []uint32, id uint32, r int) bool {
	base := int(id) * s.length
	dist := 0
	for p, want := range query {
		if uint32(s.plain.Read(base+p)) != want {
			dist++
			if dist > r {
				return false
			}
		}
	}
	return dist <= r
}

// BytesUsed accounts for all storage owned by the store.
func (s *Store) BytesUsed() int64 {
	if s.vertical != nil {
		return int64(s.vertical.ByteLen())
	}
	if s.plain != nil {
		return int64(s.plain.ByteLen())
	}
	return 0
}
