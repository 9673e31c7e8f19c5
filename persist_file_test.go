package hmsearch

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveFileOpenFileRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(int64(4) ^ int64(8)))
	const length = 32
	sigma := uint32(10)
	keys := randomKeys(rng, 120, length, sigma)
	idx, err := Build(keys, length, sigma, ProperBuckets(2))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "index.hms")
	if err := SaveFile(idx, path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	loaded, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer loaded.Close()

	q := make([]uint32, length)
	for i := 0; i < 20; i++ {
		for j := range q {
			q[j] = uint32(rng.Intn(int(sigma)))
		}
		want, err := collectSorted(idx, q, 2)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		got, err := collectSorted(loaded, q, 2)
		if err != nil {
			t.Fatalf("loaded Search: %v", err)
		}
		assertIDs(t, got, want)
	}

	if err := loaded.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestOpenFileRejectsMissingFile(t *testing.T) {
	if _, err := OpenFile(filepath.Join(t.TempDir(), "does-not-exist.hms")); err == nil {
		t.Error("expected error opening a nonexistent file")
	}
}

func TestOpenFileRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.hms")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Error("expected error opening a truncated file")
	}
}

func TestOpenBytesMatchesOpenFile(t *testing.T) {
	rng := rand.New(rand.NewSource(int64(6) ^ int64(2)))
	const length = 16
	sigma := uint32(4)
	keys := randomKeys(rng, 40, length, sigma)
	idx, err := Build(keys, length, sigma, ProperBuckets(1))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "index.hms")
	if err := SaveFile(idx, path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile: %v", err)
	}

	loaded, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if err := loaded.Close(); err != nil {
		t.Errorf("Close on OpenBytes index should be a no-op: %v", err)
	}

	q := make([]uint32, length)
	for j := range q {
		q[j] = uint32(rng.Intn(int(sigma)))
	}
	want, err := collectSorted(idx, q, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got, err := collectSorted(loaded, q, 1)
	if err != nil {
		t.Fatalf("OpenBytes Search: %v", err)
	}
	assertIDs(t, got, want)
}
