// Package fastrange provides a low-level bit manipulation primitive used by
// the fixture generation tooling.
package fastrange

import "math/bits"

// Uint32 maps a 64-bit hash uniformly to [0, n) returning uint32. Uses the
// "fastrange" technique: multiply and take the high bits. Used by
// cmd/hmsearch-bench to reduce random bytes to symbols of an alphabet
// without modulo bias.
func Uint32(hash uint64, n uint32) uint32 {
	if n == 0 {
		return 0
	}
	hi, _ := bits.Mul64(hash, uint64(n))
	return uint32(hi)
}
