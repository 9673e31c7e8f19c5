// Command hmsearch-bench generates synthetic fixed-length random keys and
// queries in the internal/record format, so cmd/hmsearch can be exercised
// without external data files. Grounded in the teacher's cmd/bench/main.go:
// crypto/rand key generation, a runtime/pprof CPU profiling flag, and
// syscall.Getrusage-based max-RSS reporting.
package main

import (
	"crypto/rand"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"

	"github.com/kampersanda/hmsearch/internal/fastrange"
	"github.com/kampersanda/hmsearch/internal/record"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hmsearch-bench:", err)
		os.Exit(1)
	}
}

func run() error {
	numKeys := flag.Int("keys", 100_000, "number of keys to generate")
	numQueries := flag.Int("queries", 1_000, "number of queries to generate")
	length := flag.Int("length", 64, "key length L")
	alphabet := flag.Uint64("alphabet", 256, "alphabet size sigma (<= 256 for this fixture format)")
	keysOut := flag.String("keys-out", "keys.bin", "output path for generated keys")
	queriesOut := flag.String("queries-out", "queries.bin", "output path for generated queries")
	cpuProfile := flag.String("cpuprofile", "", "write cpu profile to file")
	flag.Parse()

	if *alphabet == 0 || *alphabet > 256 {
		return fmt.Errorf("alphabet must be in (0, 256] for the record fixture format")
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	start := time.Now()
	keys, err := generateKeys(*numKeys, *length, uint32(*alphabet))
	if err != nil {
		return err
	}
	queries, err := generateKeys(*numQueries, *length, uint32(*alphabet))
	if err != nil {
		return err
	}
	genDuration := time.Since(start)

	if err := writeKeys(*keysOut, keys); err != nil {
		return err
	}
	if err := writeKeys(*queriesOut, queries); err != nil {
		return err
	}

	fingerprint := fingerprintDataset(keys)
	rss := maxRSSBytes()

	fmt.Printf("generated %d keys, %d queries (length=%d, alphabet=%d) in %s\n",
		*numKeys, *numQueries, *length, *alphabet, genDuration)
	fmt.Printf("dataset fingerprint (xxh3-128): %032x\n", fingerprint)
	fmt.Printf("peak RSS: %.1f MB\n", float64(rss)/1_000_000)
	return nil
}

// generateKeys draws numKeys random keys of the given length, each symbol
// reduced from 64 random bits via fastrange.Uint32 rather than from a byte
// by modulo, so the distribution stays unbiased even when alphabet does not
// evenly divide 256.
func generateKeys(numKeys, length int, alphabet uint32) ([][]uint32, error) {
	keys := make([][]uint32, numKeys)
	raw := make([]byte, 8*length)
	for i := range keys {
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("crypto/rand: %w", err)
		}
		key := make([]uint32, length)
		for j := range key {
			key[j] = fastrange.Uint32(binary.LittleEndian.Uint64(raw[8*j:]), alphabet)
		}
		keys[i] = key
	}
	return keys, nil
}

func writeKeys(path string, keys [][]uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, k := range keys {
		if err := record.WriteRecord(f, k); err != nil {
			return err
		}
	}
	return nil
}

// fingerprintDataset hashes the whole dataset with xxh3-128 (folding in a
// murmur3 pass per key first, purely to exercise both hashing libraries the
// way the teacher's bench tool times murmur3 over its generated keys), giving
// each generated dataset a short identity that can be compared across runs.
func fingerprintDataset(keys [][]uint32) [16]byte {
	buf := make([]byte, 0, len(keys)*8)
	for _, k := range keys {
		for _, sym := range k {
			buf = append(buf, byte(sym))
		}
		h1, h2 := murmur3.Sum128(buf[len(buf)-len(k):])
		var tmp [16]byte
		for i := 0; i < 8; i++ {
			tmp[i] = byte(h1 >> (8 * i))
			tmp[8+i] = byte(h2 >> (8 * i))
		}
		buf = append(buf, tmp[:]...)
	}
	sum := xxh3.Hash128(buf)
	var out [16]byte
	for i := 0; i < 8; i++ {
		out[i] = byte(sum.Lo >> (8 * i))
		out[8+i] = byte(sum.Hi >> (8 * i))
	}
	return out
}

func maxRSSBytes() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}
