// Package selfindex implements C4, the dictionary self-index: given D, it
// answers greedy longest-match factorization queries over arbitrary text
// ranges. Per spec.md §4.4 this component is "interface only" — a generic
// self-index is assumed available — so this is a concrete, minimal backing
// implementation built on the standard library's suffix array rather than a
// hand-rolled FM-index.
package selfindex

import (
	"index/suffixarray"
	"iter"
	"math/rand/v2"
	"sort"

	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
)

// Index answers factorization queries over one dictionary.
//
// Immutable after construction; safe for concurrent read-only use by every
// C5 worker goroutine (spec.md §5: "Self-index (C4): immutable after
// construction; readable by all C5 workers concurrently").
type Index struct {
	dict []byte
	sa   *suffixarray.Index
}

// New builds a self-index over dict. dict must not be modified afterward.
func New(dict []byte) *Index {
	return &Index{dict: dict, sa: suffixarray.New(dict)}
}

// Len returns |D|.
func (idx *Index) Len() int { return len(idx.dict) }

// Factor is one step of a greedy factorization: either a literal byte
// (Len == 0) or a reference of Len bytes at Offset into D, already resolved
// from the self-index's matching interval via policy. Folding policy
// resolution into Factorize (rather than returning the raw [sp, ep]
// interval to the caller) is a deliberate simplification: spec.md leaves the
// exact split between C4 and C5 responsibilities to the implementation, and
// doing it here keeps C5's workers free of any self-index-internal state.
type Factor struct {
	Literal bool
	Byte    byte
	Offset  uint64
	Len     int
}

// Factorize greedily factors text against D: at each position it finds the
// longest prefix of the remaining input that occurs anywhere in D, resolves
// a concrete offset among the matching occurrences via policy, and advances
// past it. A prefix of length 0 (no single byte of D equals the next input
// byte) emits a literal and advances by one.
//
// rng is consulted only by [rlzconfig.SelectRandom]; pass nil to use the
// package default source (non-deterministic — callers needing reproducible
// output should pass their own *rand.Rand via [rand.New]).
func (idx *Index) Factorize(text []byte, policy rlzconfig.SelectionPolicy, rng *rand.Rand) iter.Seq[Factor] {
	return func(yield func(Factor) bool) {
		i := 0

		for i < len(text) {
			matchLen, offsets := idx.longestMatch(text[i:])

			if matchLen == 0 {
				if !yield(Factor{Literal: true, Byte: text[i]}) {
					return
				}

				i++

				continue
			}

			offset := selectOffset(offsets, policy, rng)

			if !yield(Factor{Offset: offset, Len: matchLen}) {
				return
			}

			i += matchLen
		}
	}
}

// longestMatch finds the longest prefix of text that occurs in D, via
// binary search over suffixarray.Index.Lookup (which answers exact-substring
// existence queries). It returns the match length and every occurrence
// offset of that longest prefix.
func (idx *Index) longestMatch(text []byte) (length int, offsets []int) {
	maxLen := len(text)
	if maxLen > len(idx.dict) {
		maxLen = len(idx.dict)
	}

	if maxLen == 0 {
		return 0, nil
	}

	// Binary search the largest L in [0, maxLen] such that text[:L] occurs
	// in D. occurs(0) is vacuously true (empty string always "occurs"), so
	// the search range is effectively [1, maxLen] once we've confirmed at
	// least one byte matches.
	if len(idx.sa.Lookup(text[:1], 1)) == 0 {
		return 0, nil
	}

	lo, hi := 1, maxLen

	for lo < hi {
		mid := (lo + hi + 1) / 2

		if len(idx.sa.Lookup(text[:mid], 1)) > 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	return lo, idx.sa.Lookup(text[:lo], -1)
}

// selectOffset converts a set of matching occurrence offsets to one concrete
// offset, per spec.md §4.4's selection-policy contract.
func selectOffset(offsets []int, policy rlzconfig.SelectionPolicy, rng *rand.Rand) uint64 {
	switch policy {
	case rlzconfig.SelectRandom:
		if rng == nil {
			return uint64(offsets[rand.IntN(len(offsets))])
		}

		return uint64(offsets[rng.IntN(len(offsets))])
	case rlzconfig.SelectSample:
		// A cheap stand-in for true suffix-array-interval sampling: pick the
		// occurrence at the middle offset. suffixarray.Lookup returns offsets
		// unsorted, so sort first - otherwise the "middle" index is really an
		// arbitrary pick and the policy isn't reproducible across Go versions.
		sorted := append([]int(nil), offsets...)
		sort.Ints(sorted)

		return uint64(sorted[len(sorted)/2])
	case rlzconfig.SelectFirst:
		fallthrough
	default:
		min := offsets[0]

		for _, o := range offsets[1:] {
			if o < min {
				min = o
			}
		}

		return uint64(min)
	}
}
