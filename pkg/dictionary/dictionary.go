// Package dictionary implements C3, the local-coverage dictionary builder:
// given a byte budget, it samples fixed-size blocks of T so their union
// covers the most frequency-weighted distinct w-grams, using a Count-Min
// Sketch for frequency estimates and a lazy-greedy weighted max-coverage
// selection over a binary max-heap.
package dictionary

import (
	"container/heap"
	"sort"

	"github.com/rlzstore/rlzstore/pkg/cms"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
	"github.com/rlzstore/rlzstore/pkg/sketch"
)

// Options configure a dictionary build.
type Options struct {
	BudgetBytes uint64     // S: maximum dictionary size
	BlockSize   uint64     // B: sampling block size
	Window      int        // w: w-gram width
	Threshold   uint64     // tau: heavy-gram frequency threshold
	NumWorkers  int        // sketch build parallelism
	CMS         cms.Params // Count-Min Sketch sizing
}

// Result is the outcome of a successful build: the assembled dictionary
// bytes (including the terminator) and the sketch built in Phase A, which
// callers may persist and reuse.
type Result struct {
	Dict   []byte
	Sketch *cms.Sketch
	// Picked holds the ascending, Phase-D-ordered sampling block offsets
	// selected into D, for diagnostics (the builder logs their count).
	Picked []uint64
}

// terminator is appended to D as the sentinel byte (spec.md §3, Data Model).
const terminator = 0x00

// Build runs phases A-D of C3 over text.
func Build(text []byte, opts Options) (Result, error) {
	if opts.BlockSize == 0 {
		return Result{}, rlzerr.New(rlzerr.Config, "dictionary: block size (B) must be > 0", rlzerr.WithStage("C3"))
	}

	if opts.Threshold == 0 {
		return Result{}, rlzerr.New(rlzerr.Config, "dictionary: heavy threshold (tau) must be > 0", rlzerr.WithStage("C3"))
	}

	n := uint64(len(text))

	maxBlocks := opts.BudgetBytes / opts.BlockSize // N = floor(S/B); budget < B picks zero blocks

	// Phase A: sketching.
	s, err := sketch.Build(text, sketch.Options{Window: opts.Window, NumWorkers: opts.NumWorkers, Params: opts.CMS})
	if err != nil {
		return Result{}, rlzerr.Wrap(rlzerr.Build, err, rlzerr.WithStage("C3"))
	}

	if maxBlocks == 0 {
		return Result{Dict: []byte{terminator}, Sketch: s, Picked: nil}, nil
	}

	// Phase B: candidate heap + heavy-gram table.
	q, heavyCount := buildCandidates(text, n, opts.BlockSize, opts.Window, opts.Threshold, s)

	if heavyCount == 0 {
		return Result{}, rlzerr.New(rlzerr.Build, "dictionary: heavy-gram table is empty (tau too high for this corpus)",
			rlzerr.WithStage("C3"))
	}

	// Phase C: lazy-greedy maximum coverage.
	picked := lazyGreedy(q, s, heavyCount, maxBlocks)

	// Phase D: emit D.
	sort.Slice(picked, func(i, j int) bool { return picked[i] < picked[j] })

	dict := make([]byte, 0, uint64(len(picked))*opts.BlockSize+1)

	for _, off := range picked {
		end := off + opts.BlockSize
		if end > n {
			end = n
		}

		dict = append(dict, text[off:end]...)
	}

	dict = append(dict, terminator)

	return Result{Dict: dict, Sketch: s, Picked: picked}, nil
}

// blockRecord is one candidate sampling block: the heavy, distinct w-grams
// it contains and the sum of their estimated frequencies.
type blockRecord struct {
	id       uint64
	val      uint64
	contents map[uint64]struct{}
}

// buildCandidates runs Phase B: walks T by non-overlapping B-byte sampling
// blocks, and for every w-gram inside a block with estimated frequency >=
// threshold, records it in the block's local set and in the global
// heavy-gram set; only that set's size is returned (as heavyCount), since
// the bitmap V is keyed directly by fingerprint.
func buildCandidates(text []byte, n, blockSize uint64, window int, threshold uint64, s *cms.Sketch) (*blockHeap, int) {
	q := &blockHeap{}
	heap.Init(q)

	heavy := make(map[uint64]struct{})

	// spec.md §4.3 Phase B walks i = 0, ..., floor(n/B)-1 only: a trailing
	// partial block shorter than B is never a dictionary candidate.
	numBlocks := n / blockSize

	for i := uint64(0); i < numBlocks; i++ {
		start := i * blockSize
		end := start + blockSize

		rec := blockRecord{id: start, contents: make(map[uint64]struct{})}

		if blockSize >= uint64(window) {
			roller := sketch.NewRollingHasher(text[start : start+uint64(window)])

			considerWGram(roller.Hash(), threshold, s, &rec, heavy)

			for pos := start + 1; pos+uint64(window) <= end; pos++ {
				h := roller.Advance(text[pos-1], text[pos+uint64(window)-1])
				considerWGram(h, threshold, s, &rec, heavy)
			}
		}

		if len(rec.contents) > 0 {
			heap.Push(q, &rec)
		}
	}

	return q, len(heavy)
}

func considerWGram(h, threshold uint64, s *cms.Sketch, rec *blockRecord, heavy map[uint64]struct{}) {
	f := s.Estimate(h)
	if f < threshold {
		return
	}

	heavy[h] = struct{}{}

	if _, already := rec.contents[h]; already {
		return
	}

	rec.contents[h] = struct{}{}
	rec.val += f
}

// lazyGreedy runs Phase C: repeatedly pops the candidate with the largest
// residual value, lazily dropping grams already covered by previously
// picked blocks, until the budget is exhausted, the heap empties, or every
// heavy gram is covered.
func lazyGreedy(q *blockHeap, s *cms.Sketch, heavyCount int, maxBlocks uint64) []uint64 {
	covered := make(map[uint64]struct{}, heavyCount)

	var picked []uint64

	need := heavyCount

	for need > 0 && q.Len() > 0 && uint64(len(picked)) < maxBlocks {
		c := heap.Pop(q).(*blockRecord)

		stale := false

		for h := range c.contents {
			if _, done := covered[h]; done {
				delete(c.contents, h)
				c.val -= s.Estimate(h)

				stale = true
			}
		}

		if stale && c.val > 0 {
			heap.Push(q, c)

			continue
		}

		if c.val == 0 {
			continue
		}

		picked = append(picked, c.id)

		for h := range c.contents {
			covered[h] = struct{}{}
		}

		need -= len(c.contents)
	}

	return picked
}
