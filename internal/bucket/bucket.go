// Package bucket implements the bucket planner of §4.4: splitting the L
// positions of a key into B contiguous buckets of near-equal width.
package bucket

// Begins computes bucket_begs[0..B], the cumulative starting offsets of B
// buckets partitioning [0, L). Width of bucket b is floor((L+b)/B), so the
// later buckets absorb the remainder when L is not a multiple of B (L=8,
// B=3 gives widths 2, 3, 3).
//
// Requires 1 <= B <= L; callers (the hmsearch.Build precondition check) are
// responsible for that range check — Begins panics if B is out of range,
// since it is only ever called after validation.
func Begins(length, buckets int) []int {
	if buckets < 1 || buckets > length {
		panic("bucket: buckets must be in [1, length]")
	}
	begs := make([]int, buckets+1)
	pos := 0
	for b := 0; b < buckets; b++ {
		begs[b] = pos
		pos += (length + b) / buckets
	}
	begs[buckets] = pos
	return begs
}

// ProperBuckets returns the minimum number of buckets for which the
// pigeonhole argument underlying the enhanced filter (§4.6) is sound for
// Hamming radius r: floor((r+3)/2).
func ProperBuckets(r int) int {
	return (r + 3) / 2
}

// Slice extracts bucket b's symbols from a full-length key using the begins
// array produced by Begins.
func Slice(key []uint32, begs []int, b int) []uint32 {
	return key[begs[b]:begs[b+1]]
}
