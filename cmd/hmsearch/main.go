// Command hmsearch drives an HmSearch index from flat key/query files in the
// internal/record format, reporting per-radius query statistics. Grounded in
// the teacher's cmd/bench/main.go (flag parsing, time.Now()-based latency
// measurement, per-query mean reporting) and in original_source/search.cpp's
// parse_range for the min:max:step radius range syntax.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kampersanda/hmsearch"
	"github.com/kampersanda/hmsearch/internal/record"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	keysPath := flag.String("keys", "", "path to the keys file (record format)")
	queriesPath := flag.String("queries", "", "path to the queries file (record format)")
	length := flag.Int("length", 64, "key length L")
	alphabet := flag.Uint64("alphabet", 256, "alphabet size sigma")
	radiusRange := flag.String("radius", "0:10:2", "hamming radius range, min:max:step")
	flag.Parse()

	if *keysPath == "" || *queriesPath == "" {
		return fmt.Errorf("hmsearch: -keys and -queries are required")
	}

	keys, err := readKeys(*keysPath, *length, uint32(*alphabet))
	if err != nil {
		return err
	}
	queries, err := readKeys(*queriesPath, *length, uint32(*alphabet))
	if err != nil {
		return err
	}

	minR, maxR, step, err := parseRange(*radiusRange)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "radius\tbuckets\tmean_latency\tmean_solutions\tmean_candidates")

	var idx *hmsearch.Index
	var buckets int
	for r := minR; r <= maxR; r += step {
		b := hmsearch.ProperBuckets(int(r))
		if idx == nil || b != buckets {
			idx, err = hmsearch.Build(keys, *length, uint32(*alphabet), b)
			if err != nil {
				return fmt.Errorf("hmsearch: build at radius %d: %w", r, err)
			}
			buckets = b
		}

		stats, err := runQueries(idx, queries, int(r))
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.3f\t%.3f\n", r, buckets, stats.meanLatency, stats.meanSolutions, stats.meanCandidates)
	}
	return tw.Flush()
}

type queryStats struct {
	meanLatency    time.Duration
	meanSolutions  float64
	meanCandidates float64
}

// runQueries fans queries out across runtime.NumCPU() worker goroutines,
// each owning its own *hmsearch.Scratch so no search state is shared,
// exploiting the read-only-concurrent-search property of the index.
func runQueries(idx *hmsearch.Index, queries [][]uint32, r int) (queryStats, error) {
	workers := runtime.NumCPU()
	if workers > len(queries) {
		workers = len(queries)
	}
	if workers < 1 {
		workers = 1
	}

	var totalLatency time.Duration
	var totalSolutions, totalCandidates int64

	g, _ := errgroup.WithContext(context.Background())
	results := make([]struct {
		latency    time.Duration
		solutions  int64
		candidates int64
	}, len(queries))

	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			scratch := hmsearch.NewScratch()
			for i := w; i < len(queries); i += workers {
				start := time.Now()
				solutions := 0
				candidates, err := idx.Search(queries[i], r, func(id uint32) { solutions++ }, scratch)
				if err != nil {
					return fmt.Errorf("query %d: %w", i, err)
				}
				results[i].latency = time.Since(start)
				results[i].solutions = int64(solutions)
				results[i].candidates = int64(candidates)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return queryStats{}, err
	}

	for _, res := range results {
		totalLatency += res.latency
		totalSolutions += res.solutions
		totalCandidates += res.candidates
	}
	n := float64(len(queries))
	return queryStats{
		meanLatency:    time.Duration(float64(totalLatency) / n),
		meanSolutions:  float64(totalSolutions) / n,
		meanCandidates: float64(totalCandidates) / n,
	}, nil
}

func readKeys(path string, length int, alphabet uint32) ([][]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hmsearch: open %s: %w", path, err)
	}
	defer f.Close()
	return record.ReadAll(f, length, alphabet)
}

// parseRange parses a "min:max:step" string as used by original_source's
// parse_range, e.g. "0:10:2".
func parseRange(s string) (min, max, step uint64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("hmsearch: invalid radius range %q, want min:max:step", s)
	}
	vals := make([]uint64, 3)
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("hmsearch: invalid radius range %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[2] == 0 {
		return 0, 0, 0, fmt.Errorf("hmsearch: radius step must be positive")
	}
	return vals[0], vals[1], vals[2], nil
}
