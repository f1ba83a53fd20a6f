// Package cms implements a Count-Min Sketch: a fixed-size, additive counter
// table giving one-sided upper-bound frequency estimates. The row/column
// layout and per-row seeded hash mixing follow the counting bloom filter in
// dgraph-io/ristretto's admission sketch, generalized from 4-bit saturating
// counters to uint32 counters (this sketch counts w-gram occurrences across
// an entire corpus, not bounded cache-admission frequencies). Update and
// Combine clamp a counter at math.MaxUint32 instead of wrapping around.
package cms

import (
	"math"
)

// Sketch is a d x w table of uint32 counters plus one mixing seed per row.
//
// update inserts one occurrence of a fingerprint by incrementing one counter
// per row; estimate returns the minimum of those d counters, which is always
// >= the true count (never under-estimates, may over-estimate on collision).
type Sketch struct {
	depth uint64
	width uint64
	seeds []uint64
	table []uint32 // row-major, depth*width counters
}

// Params sizes a sketch from a relative error ratio epsilon and a failure
// probability delta, the standard Count-Min construction: width = ceil(e /
// epsilon), depth = ceil(ln(1 / delta)).
type Params struct {
	Epsilon float64
	Delta   float64
}

// Dimensions returns the (depth, width) a sketch built with these params will have.
func (p Params) Dimensions() (depth, width uint64) {
	width = uint64(math.Ceil(math.E / p.Epsilon))
	depth = uint64(math.Ceil(math.Log(1 / p.Delta)))

	if width == 0 {
		width = 1
	}

	if depth == 0 {
		depth = 1
	}

	return depth, width
}

// defaultSeeds are fixed, not random: two sketches built from different
// partitions of the same corpus must mix fingerprints identically so their
// tables can be summed cell-wise (spec's additive-combine requirement).
var defaultSeeds = [...]uint64{
	0x9e3779b97f4a7c15, 0xbf58476d1ce4e5b9, 0x94d049bb133111eb, 0xd6e8feb86659fd93,
	0xff51afd7ed558ccd, 0xc4ceb9fe1a85ec53, 0x2545f4914f6cdd1d, 0x27d4eb2f165667c5,
}

// New builds an empty sketch sized by p.
func New(p Params) *Sketch {
	depth, width := p.Dimensions()
	return newSized(depth, width)
}

func newSized(depth, width uint64) *Sketch {
	seeds := make([]uint64, depth)
	for i := range seeds {
		seeds[i] = defaultSeeds[i%len(defaultSeeds)] ^ (uint64(i) * 0x9e3779b97f4a7c15)
	}

	return &Sketch{
		depth: depth,
		width: width,
		seeds: seeds,
		table: make([]uint32, depth*width),
	}
}

// Depth and Width expose the table dimensions, needed to validate that two
// sketches are combinable and for serialization headers.
func (s *Sketch) Depth() uint64 { return s.depth }
func (s *Sketch) Width() uint64 { return s.width }

// Update inserts one occurrence of the fingerprint h.
func (s *Sketch) Update(h uint64) {
	for row := uint64(0); row < s.depth; row++ {
		idx := s.cellIndex(row, h)
		if s.table[idx] != math.MaxUint32 {
			s.table[idx]++
		}
	}
}

// Estimate returns the minimum counter across all rows for fingerprint h, an
// upper bound on the true occurrence count.
func (s *Sketch) Estimate(h uint64) uint64 {
	min := uint64(math.MaxUint64)

	for row := uint64(0); row < s.depth; row++ {
		c := uint64(s.table[s.cellIndex(row, h)])
		if c < min {
			min = c
		}
	}

	return min
}

func (s *Sketch) cellIndex(row, h uint64) uint64 {
	mixed := h ^ s.seeds[row]
	col := mixed % s.width

	return row*s.width + col
}

// Combine adds other's counters into s cell-wise. Both sketches must share
// identical dimensions and seeds (i.e. both built via [New] with the same
// [Params], or [newSized] with the same depth/width) — this is how the
// parallel builder in package sketch merges per-worker partial sketches.
func (s *Sketch) Combine(other *Sketch) error {
	if s.depth != other.depth || s.width != other.width {
		return errMismatch{want: [2]uint64{s.depth, s.width}, got: [2]uint64{other.depth, other.width}}
	}

	for i, c := range other.table {
		sum := uint64(s.table[i]) + uint64(c)
		if sum > math.MaxUint32 {
			sum = math.MaxUint32
		}

		s.table[i] = uint32(sum)
	}

	return nil
}

type errMismatch struct {
	want, got [2]uint64
}

func (e errMismatch) Error() string {
	return "cms: dimension mismatch combining sketches"
}

// Cells returns the raw counter table for serialization. Callers must treat
// the returned slice as read-only.
func (s *Sketch) Cells() []uint32 { return s.table }

// Seeds returns the per-row mixing seeds for serialization.
func (s *Sketch) Seeds() []uint64 { return s.seeds }

// FromParts reconstructs a sketch from previously serialized dimensions,
// seeds, and cells, used when reloading a cached sketch artifact.
func FromParts(depth, width uint64, seeds []uint64, cells []uint32) (*Sketch, error) {
	if uint64(len(seeds)) != depth {
		return nil, errMismatch{want: [2]uint64{depth, width}, got: [2]uint64{uint64(len(seeds)), width}}
	}

	if uint64(len(cells)) != depth*width {
		return nil, errMismatch{want: [2]uint64{depth, width}, got: [2]uint64{depth, uint64(len(cells)) / max64(depth, 1)}}
	}

	s := &Sketch{depth: depth, width: width, seeds: append([]uint64(nil), seeds...), table: append([]uint32(nil), cells...)}

	return s, nil
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}

	return b
}
