package vertical

import (
	"math/rand"
	"testing"
)

func TestLevels(t *testing.T) {
	cases := []struct {
		sigma uint32
		want  int
	}{
		{1, 1}, {2, 2}, {3, 2}, {4, 3}, {255, 8}, {256, 9},
	}
	for _, c := range cases {
		if got := Levels(c.sigma); got != c.want {
			t.Errorf("Levels(%d) = %d, want %d", c.sigma, got, c.want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(int64(1) ^ int64(2)))
	const length = 64
	sigma := uint32(200)
	levels := Levels(sigma)

	key := make([]uint32, length)
	for i := range key {
		key[i] = uint32(rng.Intn(int(sigma)))
	}

	planes := make([]uint64, levels)
	for j := 0; j < levels; j++ {
		planes[j] = Encode(key, j)
	}
	for p := range key {
		got := Decode(planes, levels, p)
		if got != key[p] {
			t.Fatalf("position %d: Decode = %d, want %d", p, got, key[p])
		}
	}
}

func TestEncodeBitMeaning(t *testing.T) {
	key := []uint32{0b101, 0b010, 0b111, 0b000}
	for j := 0; j < 3; j++ {
		code := Encode(key, j)
		for p, symbol := range key {
			want := (symbol >> uint(j)) & 1
			got := (code >> uint(p)) & 1
			if uint32(got) != want {
				t.Errorf("plane %d position %d: bit = %d, want %d", j, p, got, want)
			}
		}
	}
}

func TestHammingWithinRadiusMatchesDistance(t *testing.T) {
	rng := rand.New(rand.NewSource(int64(7) ^ int64(9)))
	const length = 32
	sigma := uint32(16)
	levels := Levels(sigma)

	for trial := 0; trial < 200; trial++ {
		a := make([]uint32, length)
		b := make([]uint32, length)
		for i := range a {
			a[i] = uint32(rng.Intn(int(sigma)))
			b[i] = uint32(rng.Intn(int(sigma)))
		}
		planesA := make([]uint64, levels)
		planesB := make([]uint64, levels)
		for j := 0; j < levels; j++ {
			planesA[j] = Encode(a, j)
			planesB[j] = Encode(b, j)
		}

		dist := 0
		for i := range a {
			if a[i] != b[i] {
				dist++
			}
		}

		for r := 0; r <= length; r++ {
			want := dist <= r
			got := HammingWithinRadius(planesA, planesB, levels, r)
			if got != want {
				t.Fatalf("trial %d r=%d: HammingWithinRadius = %v, want %v (dist=%d)", trial, r, got, want, dist)
			}
		}

		if got := Distance(planesA, planesB, levels, length); got != dist {
			t.Fatalf("trial %d: Distance = %d, want %d", trial, got, dist)
		}
	}
}
