// Package vertical implements the bit-plane codec used to accelerate Hamming
// distance verification (§4.2).
//
// For a key of length L over an alphabet needing Levels bits per symbol, the
// vertical encoding stores Levels "planes": plane j is an L-bit word whose
// bit p equals bit j of key[p]. Two keys differ at position p in plane j iff
// plane_j(a) XOR plane_j(b) has bit p set; ORing the XOR across planes
// 0..j and popcounting gives the number of positions that differ in *any*
// bit seen so far, which only grows monotonically as j increases — exactly
// the property that makes an early popcount-exceeds-r exit sound.
package vertical

import "math/bits"

// Levels returns the number of bit-planes needed for an alphabet of size
// sigma (values 0..sigma inclusive, since sigma itself is a valid plane
// input as the ODV deletion marker): ceil(log2(sigma+1)).
func Levels(sigma uint32) int {
	levels := 0
	for v := uint64(sigma); v > 0; v >>= 1 {
		levels++
	}
	if levels == 0 {
		levels = 1
	}
	return levels
}

// Encode returns the L-bit word whose bit p (0 <= p < len(key)) equals bit j
// of key[p]. Bits at positions >= len(key) are zero. len(key) must be <= 64.
func Encode(key []uint32, level int) uint64 {
	var code uint64
	for p, symbol := range key {
		bit := (uint64(symbol) >> uint(level)) & 1
		code |= bit << uint(p)
	}
	return code
}

// Decode reconstructs the symbol at position p in a length-L key from its
// `levels` plane words — the conceptual inverse of Encode, required only for
// tests (§8, vertical round-trip).
func Decode(planes []uint64, levels, p int) uint32 {
	var symbol uint32
	for j := 0; j < levels; j++ {
		bit := (planes[j] >> uint(p)) & 1
		symbol |= uint32(bit) << uint(j)
	}
	return symbol
}

// HammingWithinRadius reports whether the Hamming distance between two keys'
// plane sets is <= r, short-circuiting as soon as the cumulative popcount
// exceeds r. planesA and planesB must each have `levels` entries.
func HammingWithinRadius(planesA, planesB []uint64, levels, r int) bool {
	var cumdiff uint64
	for j := 0; j < levels; j++ {
		cumdiff |= planesA[j] ^ planesB[j]
		if bits.OnesCount64(cumdiff) > r {
			return false
		}
	}
	return true
}

// Distance computes the exact Hamming distance between two plane sets when
// it is <= cap. Once the running count exceeds cap it returns that count
// (some value > cap, not necessarily the full distance) without scanning
// further planes.
func Distance(planesA, planesB []uint64, levels, cap int) int {
	var cumdiff uint64
	for j := 0; j < levels; j++ {
		cumdiff |= planesA[j] ^ planesB[j]
		if d := bits.OnesCount64(cumdiff); d > cap {
			return d
		}
	}
	return bits.OnesCount64(cumdiff)
}
