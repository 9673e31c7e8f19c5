// Package odv implements the one-deletion-variant signature table of §4.3:
// an open-addressed hash table mapping "one position replaced by a deletion
// marker" signatures to the ids of every (key, position) pair that produced
// that signature.
//
// # Lifecycle
//
// A Table is built once via Build from a bucket's key slices, then queried
// any number of times via Probe. It holds no mutable state after Build
// returns, so a *Table may be shared across any number of concurrent Probe
// calls (§5).
package odv

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kampersanda/hmsearch/hmerrors"
	"github.com/kampersanda/hmsearch/internal/bitpack"
)

const (
	// loadFactor is the ratio of slots to distinct signatures (T = ceil(U * loadFactor)).
	loadFactor = 1.5

	// fnvOffset64 and fnvPrime64 are the FNV-1a init/multiplier constants (§4.3).
	fnvOffset64 = 0xcbf29ce484222325
	fnvPrime64  = 0x100000001b3

	emptySlot = ^uint32(0)
)

// slot is one entry of the open-addressed table: either empty (sigOffset ==
// emptySlot) or a pointer into the signature store plus a range into the id
// store.
type slot struct {
	sigOffset uint32
	idBegin   uint32
	idEnd     uint32
}

// Table is one bucket's ODV signature table.
type Table struct {
	slots      []slot
	signatures *bitpack.Vector // U * bucketLen symbols, width bits each
	ids        []uint32
	width      int // symbol width in bits: ceil(log2(sigma+1))
	bucketLen  int // L_b, the slice length this table was built over
	delMarker  uint32
}

// fnv1a hashes a signature (interpreted as a sequence of 32-bit words,
// per §4.3) using 64-bit FNV-1a.
func fnv1a(sig []uint32) uint64 {
	h := uint64(fnvOffset64)
	for _, word := range sig {
		h ^= uint64(word)
		h *= fnvPrime64
	}
	return h
}

// Build constructs a Table from bucketKeys, a slice of N key-slices each of
// length bucketLen, over alphabet [0, sigma). sigma itself is reserved as
// the deletion marker.
func Build(bucketKeys [][]uint32, bucketLen int, sigma uint32) (*Table, error) {
	width := bitpack.WidthForAlphabet(sigma)

	// Group (key id, position) pairs by signature. The signature buffer is
	// reused across positions: fill it from the slice, overwrite position i
	// with the deletion marker, hash/compare, then restore for the next i.
	type bucketEntry struct {
		sig []uint32
		ids []uint32
	}
	sigIndex := make(map[string]int)
	var entries []bucketEntry

	buf := make([]uint32, bucketLen)
	for id, slice := range bucketKeys {
		if len(slice) != bucketLen {
			return nil, fmt.Errorf("odv: key %d has slice length %d, want %d", id, len(slice), bucketLen)
		}
		copy(buf, slice)
		for i := 0; i < bucketLen; i++ {
			if slice[i] >= sigma {
				return nil, hmerrors.ErrInvalidAlphabet
			}
			original := buf[i]
			buf[i] = sigma
			key := sigKey(buf)
			if idx, ok := sigIndex[key]; ok {
				entries[idx].ids = append(entries[idx].ids, uint32(id))
			} else {
				sig := append([]uint32(nil), buf...)
				sigIndex[key] = len(entries)
				entries = append(entries, bucketEntry{sig: sig, ids: []uint32{uint32(id)}})
			}
			buf[i] = original
		}
	}

	numSigs := len(entries)
	tableSize := int(math.Ceil(float64(numSigs) * loadFactor))
	if tableSize < 1 {
		tableSize = 1
	}

	t := &Table{
		slots:      make([]slot, tableSize),
		signatures: bitpack.New(numSigs*bucketLen, width),
		ids:        make([]uint32, 0, len(bucketKeys)*bucketLen),
		width:      width,
		bucketLen:  bucketLen,
		delMarker:  sigma,
	}
	for i := range t.slots {
		t.slots[i] = slot{sigOffset: emptySlot}
	}

	sigCursor := 0
	for _, e := range entries {
		pos := int(fnv1a(e.sig) % uint64(tableSize))
		for t.slots[pos].sigOffset != emptySlot {
			pos++
			if pos == tableSize {
				pos = 0
			}
		}
		t.signatures.CopyFrom(sigCursor*bucketLen, e.sig)
		idBegin := len(t.ids)
		t.ids = append(t.ids, e.ids...)
		t.slots[pos] = slot{
			sigOffset: uint32(sigCursor),
			idBegin:   uint32(idBegin),
			idEnd:     uint32(len(t.ids)),
		}
		sigCursor++
	}

	return t, nil
}

// sigKey turns a signature into a map key without hashing collisions from
// encoding ambiguity: each uint32 is written as 4 bytes, so no separator is
// needed (fixed element count per table).
func sigKey(sig []uint32) string {
	buf := make([]byte, len(sig)*4)
	for i, v := range sig {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return string(buf)
}

// Probe forms sig(slice, i) for every position i in the bucket's slice and,
// for each one that matches a stored signature, invokes sink once per id in
// that signature's range. sink is called synchronously and must not block
// or retain slice beyond the call.
//
// Returns ErrIndexCorrupt if a probe traverses the entire table without
// finding an empty slot, which is only reachable via storage corruption.
func (t *Table) Probe(slice []uint32, sink func(id uint32)) error {
	if len(slice) != t.bucketLen {
		panic("odv: probe slice length mismatch")
	}
	buf := make([]uint32, t.bucketLen)
	copy(buf, slice)

	tableSize := len(t.slots)
	for i := 0; i < t.bucketLen; i++ {
		original := buf[i]
		buf[i] = t.delMarker
		sig := buf

		pos := int(fnv1a(sig) % uint64(tableSize))
		steps := 0
		for {
			s := t.slots[pos]
			if s.sigOffset == emptySlot {
				break
			}
			if t.signatures.EqualSlice(int(s.sigOffset)*t.bucketLen, sig) {
				for id := s.idBegin; id < s.idEnd; id++ {
					sink(t.ids[id])
				}
				break
			}
			pos++
			if pos == tableSize {
				pos = 0
			}
			steps++
			if steps >= tableSize {
				return hmerrors.ErrIndexCorrupt
			}
		}
		buf[i] = original
	}
	return nil
}

// BucketLen returns L_b, the slice length this table was built over.
func (t *Table) BucketLen() int { return t.bucketLen }

// BytesUsed accounts for all storage owned by the table.
func (t *Table) BytesUsed() int64 {
	return int64(len(t.slots))*12 + int64(t.signatures.ByteLen()) + int64(len(t.ids))*4
}

// Slot is the exported, flat form of a table slot, used by serialize.go to
// round-trip a Table without reaching into its unexported fields.
type Slot struct {
	SigOffset uint32 // emptySlot (0xFFFFFFFF) marks an empty slot
	IDBegin   uint32
	IDEnd     uint32
}

// Empty reports whether this slot is unoccupied.
func (s Slot) Empty() bool { return s.SigOffset == emptySlot }

// EmptySigOffset is the sentinel value stored in an empty slot's SigOffset.
const EmptySigOffset = emptySlot

// NumSlots returns the table's slot count (T).
func (t *Table) NumSlots() int { return len(t.slots) }

// Slots returns the table's slot array in its exported flat form.
func (t *Table) Slots() []Slot {
	out := make([]Slot, len(t.slots))
	for i, s := range t.slots {
		out[i] = Slot{SigOffset: s.sigOffset, IDBegin: s.idBegin, IDEnd: s.idEnd}
	}
	return out
}

// Signatures returns the bit-packed signature store.
func (t *Table) Signatures() *bitpack.Vector { return t.signatures }

// Width returns the per-symbol bit width used by the signature store.
func (t *Table) Width() int { return t.width }

// DelMarker returns the deletion marker value (sigma) used by this table.
func (t *Table) DelMarker() uint32 { return t.delMarker }

// IDs returns the id store backing every slot's [IDBegin, IDEnd) range.
func (t *Table) IDs() []uint32 { return t.ids }

// FromParts reconstructs a Table from its serialized components, for use by
// the deserialization path in serialize.go. No validation beyond basic shape
// is performed here; structural corruption surfaces as ErrIndexCorrupt at
// Probe time (an unbounded probe) rather than at load time, matching the
// failure semantics of §7.
func FromParts(slots []Slot, signatures *bitpack.Vector, ids []uint32, bucketLen int, delMarker uint32) *Table {
	rawSlots := make([]slot, len(slots))
	for i, s := range slots {
		rawSlots[i] = slot{sigOffset: s.SigOffset, idBegin: s.IDBegin, idEnd: s.IDEnd}
	}
	return &Table{
		slots:      rawSlots,
		signatures: signatures,
		ids:        ids,
		width:      signatures.Width(),
		bucketLen:  bucketLen,
		delMarker:  delMarker,
	}
}
