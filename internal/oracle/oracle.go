// Package oracle provides a brute-force reference implementation of Hamming
// radius search, used only by tests to check hmsearch.Index against ground
// truth over small synthetic datasets.
package oracle

// Distance returns the Hamming distance between a and b, which must have
// equal length.
func Distance(a, b []uint32) int {
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

// WithinRadius returns the ids of every key in keys within Hamming distance
// r of query, computed by brute force.
func WithinRadius(keys [][]uint32, query []uint32, r int) []uint32 {
	var ids []uint32
	for id, k := range keys {
		if Distance(k, query) <= r {
			ids = append(ids, uint32(id))
		}
	}
	return ids
}
