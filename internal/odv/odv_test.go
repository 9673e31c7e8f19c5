package odv

import (
	"math/rand"
	"testing"
)

// bruteProbe returns every id that would match slice under a one-substitution
// rule: an id matches if its stored bucket slice is within edit distance 1 of
// slice in exactly the deletion-variant sense the ODV table implements (i.e.
// the two slices become equal after the same position is replaced with the
// deletion marker in both).
func bruteProbe(bucketKeys [][]uint32, sigma uint32, slice []uint32) map[uint32]bool {
	got := make(map[uint32]bool)
	buf := make([]uint32, len(slice))
	for id, k := range bucketKeys {
		for i := range slice {
			copy(buf, slice)
			buf[i] = sigma
			kbuf := make([]uint32, len(k))
			copy(kbuf, k)
			kbuf[i] = sigma
			equal := true
			for j := range buf {
				if buf[j] != kbuf[j] {
					equal = false
					break
				}
			}
			if equal {
				got[uint32(id)] = true
				break
			}
		}
	}
	return got
}

func TestBuildAndProbeAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(int64(11) ^ int64(22)))
	const bucketLen = 6
	sigma := uint32(5)

	bucketKeys := make([][]uint32, 50)
	for i := range bucketKeys {
		k := make([]uint32, bucketLen)
		for j := range k {
			k[j] = uint32(rng.Intn(int(sigma)))
		}
		bucketKeys[i] = k
	}

	table, err := Build(bucketKeys, bucketLen, sigma)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for trial := 0; trial < 30; trial++ {
		q := make([]uint32, bucketLen)
		for j := range q {
			q[j] = uint32(rng.Intn(int(sigma)))
		}

		got := make(map[uint32]bool)
		if err := table.Probe(q, func(id uint32) { got[id] = true }); err != nil {
			t.Fatalf("Probe: %v", err)
		}
		want := bruteProbe(bucketKeys, sigma, q)

		if len(got) != len(want) {
			t.Fatalf("trial %d: got %d matches, want %d", trial, len(got), len(want))
		}
		for id := range want {
			if !got[id] {
				t.Fatalf("trial %d: missing expected match id=%d", trial, id)
			}
		}
	}
}

func TestSelfProbeAlwaysMatches(t *testing.T) {
	bucketKeys := [][]uint32{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 1, 1, 1},
	}
	table, err := Build(bucketKeys, 4, 4)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for id, k := range bucketKeys {
		found := false
		if err := table.Probe(k, func(gotID uint32) {
			if gotID == uint32(id) {
				found = true
			}
		}); err != nil {
			t.Fatalf("Probe: %v", err)
		}
		if !found {
			t.Fatalf("key %d should self-match via its own signatures", id)
		}
	}
}

func TestFromPartsRoundTrip(t *testing.T) {
	bucketKeys := [][]uint32{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
	}
	table, err := Build(bucketKeys, 4, 4)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rebuilt := FromParts(table.Slots(), table.Signatures(), table.IDs(), table.BucketLen(), table.DelMarker())

	for _, k := range bucketKeys {
		var want, got []uint32
		table.Probe(k, func(id uint32) { want = append(want, id) })
		rebuilt.Probe(k, func(id uint32) { got = append(got, id) })
		if len(want) != len(got) {
			t.Fatalf("rebuilt table produced %d matches, want %d", len(got), len(want))
		}
	}
}
