// Package sketch builds a [cms.Sketch] over the w-grams of a corpus (C2):
// given a stride-w rolling hash over T, it inserts every w-gram exactly once,
// splitting the work across worker goroutines with overlapping partitions so
// no w-gram is missed or double-counted at a partition boundary.
package sketch

import (
	"math/bits"
	"runtime"
	"sync"

	"github.com/rlzstore/rlzstore/pkg/cms"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
)

// rollingBase and rollingMod define the polynomial rolling hash used to
// fingerprint each w-gram in O(1) per position. The modulus is a large prime
// just below 2^61; a product of two operands below it can reach ~2^122, well
// past uint64, so every multiply mod rollingMod must go through mulMod
// rather than Go's native '*' (which wraps silently at 2^64 and breaks the
// one property a rolling hash needs: identical window contents must hash
// identically regardless of path).
const (
	rollingBase uint64 = 1000003
	rollingMod  uint64 = 2305843009213693951 // 2^61 - 1 (Mersenne prime)
)

// mulMod computes (a*b) % m exactly via a 128-bit intermediate product,
// avoiding the uint64 overflow that plain '*' would hit for a, b close to
// rollingMod. Safe whenever a, b < m <= 2^61-1: the high word of a*b is then
// always < m, so the Div64 quotient fits in 64 bits.
func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi, lo, m)

	return rem
}

// Options configure a sketch build.
type Options struct {
	Window     int // w: w-gram width in bytes
	NumWorkers int // parallel build partitions; <=1 means single-threaded
	Params     cms.Params
}

// Build runs C2 over text, producing a sketch in which every w-gram ending at
// position p in [w-1, len(text)) has been inserted exactly once.
//
// Build partitions text into up to opts.NumWorkers contiguous ranges, each
// extended backward by w-1 bytes so the w-grams straddling a partition
// boundary are still computed correctly by exactly one worker, then combines
// the partial sketches cell-wise (cms.Sketch.Combine), which is valid because
// every partial sketch shares the same dimensions and seeds.
func Build(text []byte, opts Options) (*cms.Sketch, error) {
	w := opts.Window
	if w <= 0 {
		return nil, rlzerr.New(rlzerr.Config, "sketch: window width must be > 0", rlzerr.WithStage("C2"))
	}

	if len(text) < w {
		return cms.New(opts.Params), nil
	}

	workers := opts.NumWorkers
	if workers <= 0 {
		workers = 1
	}

	if workers > runtime.NumCPU() {
		workers = runtime.NumCPU()
	}

	n := len(text)
	positions := n - w + 1 // number of w-gram end-exclusive start positions

	if workers > positions {
		workers = positions
	}

	if workers <= 1 {
		return buildRange(text, 0, positions, w, opts.Params), nil
	}

	chunk := (positions + workers - 1) / workers

	partials := make([]*cms.Sketch, workers)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		start := i * chunk
		end := start + chunk

		if end > positions {
			end = positions
		}

		if start >= end {
			partials[i] = cms.New(opts.Params)

			continue
		}

		wg.Add(1)

		go func(idx, start, end int) {
			defer wg.Done()

			partials[idx] = buildRange(text, start, end, w, opts.Params)
		}(i, start, end)
	}

	wg.Wait()

	combined := cms.New(opts.Params)

	for _, p := range partials {
		if p == nil {
			continue
		}

		if err := combined.Combine(p); err != nil {
			return nil, rlzerr.Wrap(rlzerr.Build, err, rlzerr.WithStage("C2"))
		}
	}

	return combined, nil
}

// buildRange inserts every w-gram whose start position lies in [start, end)
// into a fresh sketch, computing hashes via a rolling polynomial hash seeded
// from scratch at `start` (so each worker is independent of its neighbors).
func buildRange(text []byte, start, end, w int, params cms.Params) *cms.Sketch {
	s := cms.New(params)

	if start >= end {
		return s
	}

	roller := NewRollingHasher(text[start : start+w])

	s.Update(roller.Hash())

	for pos := start + 1; pos < end; pos++ {
		h := roller.Advance(text[pos-1], text[pos+w-1])
		s.Update(h)
	}

	return s
}

// Fingerprint hashes a single window in isolation. Used where there is no
// benefit to rolling (e.g. hashing one known w-gram to look up its sketch
// estimate).
func Fingerprint(window []byte) uint64 {
	h, _ := initialHash(window)
	return h
}

// RollingHasher advances a polynomial rolling hash one byte at a time over a
// fixed-width window, used by both the sketch builder and the dictionary
// builder's Phase B so the two agree on every w-gram's fingerprint.
type RollingHasher struct {
	h   uint64
	pow uint64
}

// NewRollingHasher seeds a hasher from the initial window contents.
func NewRollingHasher(window []byte) *RollingHasher {
	h, pow := initialHash(window)
	return &RollingHasher{h: h, pow: pow}
}

// Hash returns the fingerprint of the current window.
func (r *RollingHasher) Hash() uint64 { return r.h }

// Advance drops outgoing (the byte leaving the window at its low end) and
// appends incoming (the new byte entering at the high end), returning the
// new window's fingerprint.
func (r *RollingHasher) Advance(outgoing, incoming byte) uint64 {
	r.h = rollHash(r.h, uint64(outgoing), uint64(incoming), r.pow)
	return r.h
}

// initialHash computes the rolling hash of the first window and returns
// base^(w-1) mod p for use by rollHash.
func initialHash(window []byte) (hash, pow uint64) {
	hash = 0
	pow = 1

	for i, b := range window {
		hash = (mulMod(hash, rollingBase, rollingMod) + uint64(b) + 1) % rollingMod

		if i < len(window)-1 {
			pow = mulMod(pow, rollingBase, rollingMod)
		}
	}

	return hash, pow
}

// rollHash advances a rolling hash by one byte: drop the outgoing byte from
// the high end, append the incoming byte at the low end.
func rollHash(h, outgoing, incoming, highPow uint64) uint64 {
	// Remove the contribution of the outgoing byte (it held position 0,
	// weighted by highPow), then shift and add the incoming byte.
	h = (h + rollingMod - mulMod(outgoing+1, highPow, rollingMod)) % rollingMod
	h = mulMod(h, rollingBase, rollingMod)
	h = (h + incoming + 1) % rollingMod

	return h
}
