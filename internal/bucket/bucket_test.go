package bucket

import "testing"

func TestProperBuckets(t *testing.T) {
	cases := map[int]int{0: 1, 1: 2, 2: 2, 3: 3, 4: 3, 5: 4, 10: 6}
	for r, want := range cases {
		if got := ProperBuckets(r); got != want {
			t.Errorf("ProperBuckets(%d) = %d, want %d", r, got, want)
		}
	}
}

func TestBeginsPartition(t *testing.T) {
	for _, length := range []int{1, 4, 8, 17, 64} {
		for buckets := 1; buckets <= length; buckets++ {
			begs := Begins(length, buckets)
			if len(begs) != buckets+1 {
				t.Fatalf("length=%d buckets=%d: len(begs) = %d, want %d", length, buckets, len(begs), buckets+1)
			}
			if begs[0] != 0 {
				t.Fatalf("length=%d buckets=%d: begs[0] = %d, want 0", length, buckets, begs[0])
			}
			if begs[buckets] != length {
				t.Fatalf("length=%d buckets=%d: begs[B] = %d, want %d", length, buckets, begs[buckets], length)
			}
			minW, maxW := length, 0
			for b := 0; b < buckets; b++ {
				w := begs[b+1] - begs[b]
				if w < minW {
					minW = w
				}
				if w > maxW {
					maxW = w
				}
			}
			if maxW-minW > 1 {
				t.Fatalf("length=%d buckets=%d: bucket widths differ by %d, want <= 1", length, buckets, maxW-minW)
			}
		}
	}
}

func TestBeginsPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for buckets=0")
		}
	}()
	Begins(4, 0)
}

func TestSlice(t *testing.T) {
	key := []uint32{1, 2, 3, 4, 5, 6, 7, 8}
	begs := Begins(8, 3)
	var reconstructed []uint32
	for b := 0; b < 3; b++ {
		reconstructed = append(reconstructed, Slice(key, begs, b)...)
	}
	if len(reconstructed) != len(key) {
		t.Fatalf("reconstructed length %d, want %d", len(reconstructed), len(key))
	}
	for i := range key {
		if reconstructed[i] != key[i] {
			t.Fatalf("index %d: got %d, want %d", i, reconstructed[i], key[i])
		}
	}
}
