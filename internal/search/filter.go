// Package search implements the candidate aggregation and enhanced filter of
// §4.6 and §10.1: folding per-bucket ODV hit counts into a strong/weak tally
// per candidate id, then deciding which candidates are worth verifying.
package search

// Counters accumulates, across all buckets probed for one query, how many
// buckets contributed a "strong" hit (more than one match within the bucket,
// proving Hamming distance 0 within that bucket) versus a "weak" hit (a
// single match, permitting at most one error within the bucket). An exact
// match on a bucket of width L_b yields one match per position (L_b matches)
// and a one-symbol difference yields exactly one, so more than one match
// occurs only on an exact match. This is the
// tighter counter representation of §10.1, equivalent in observable
// behavior to the source's id -> list<0|1> representation.
type Counters struct {
	Strong uint16
	Weak   uint16
}

// Fold records one bucket's contribution for a candidate: hitCount is the
// number of ODV matches this bucket produced for the candidate's id.
func (c *Counters) Fold(hitCount int) {
	if hitCount > 1 {
		c.Strong++
	} else {
		c.Weak++
	}
}

// CandidateMap accumulates Counters per candidate id across all buckets of
// one search. It is per-search scratch state (§4.6, §9) and must not be
// shared across concurrent searches.
type CandidateMap map[uint32]*Counters

// Fold merges one bucket's match_map (id -> hit count within that bucket)
// into the running candidate map.
func (cm CandidateMap) Fold(matchMap map[uint32]int) {
	for id, hits := range matchMap {
		c, ok := cm[id]
		if !ok {
			c = &Counters{}
			cm[id] = c
		}
		c.Fold(hits)
	}
}

// EnhancedFilter reports whether a candidate with the given strong/weak
// tally should survive to verification against radius r. Equivalent to the
// list-based rule of §4.6 step 3 (verified against it directly in
// filter_test.go over randomized (Strong, Weak) pairs):
//   - even r: drop iff exactly one weak hit and nothing else.
//   - odd r: drop iff exactly one hit total, or exactly two weak hits.
func EnhancedFilter(c Counters, r int) bool {
	total := int(c.Strong) + int(c.Weak)
	if total == 0 {
		return false
	}
	if r%2 == 0 {
		return c.Strong >= 1 || c.Weak >= 2
	}
	if total == 1 {
		return false
	}
	if c.Strong == 0 && c.Weak == 2 {
		return false
	}
	return true
}
