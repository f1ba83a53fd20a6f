package blockmap

import (
	"iter"

	"github.com/rlzstore/rlzstore/pkg/coder"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
	"github.com/rlzstore/rlzstore/pkg/selfindex"
)

// Reader combines a Map, its FACTORIZED_TEXT bitstream, and the dictionary
// into random-access and sequential decoding over the whole factorized
// text, the capability spec.md §1 names ("fast random access, factor
// iteration, and sequential decoding are supported").
type Reader struct {
	m           *Map
	stream      []byte
	dict        []byte
	offsetCoder coder.Coder
	lenCoder    coder.Coder
	blockSize   int
}

// NewReader builds a Reader. blockSize is BF, the factorization block size
// used when the stream was encoded.
func NewReader(m *Map, stream, dict []byte, offsetCoder, lenCoder coder.Coder, blockSize int) *Reader {
	return &Reader{m: m, stream: stream, dict: dict, offsetCoder: offsetCoder, lenCoder: lenCoder, blockSize: blockSize}
}

// Factors lazily decodes one factorization block's factors in order.
func (r *Reader) Factors(blockID int) iter.Seq[selfindex.Factor] {
	return func(yield func(selfindex.Factor) bool) {
		factors, err := r.m.DecodeBlock(r.stream, blockID, r.offsetCoder, r.lenCoder)
		if err != nil {
			return
		}

		for _, f := range factors {
			if !yield(f) {
				return
			}
		}
	}
}

// AllFactors sequentially decodes every factorization block in order,
// yielding (blockID, factor) pairs — the whole-text sequential decoding
// path, as opposed to a single-block [Reader.Factors] call.
func (r *Reader) AllFactors() iter.Seq2[int, selfindex.Factor] {
	return func(yield func(int, selfindex.Factor) bool) {
		for i := 0; i < r.m.NumBlocks(); i++ {
			for f := range r.Factors(i) {
				if !yield(i, f) {
					return
				}
			}
		}
	}
}

// ExtractRange decodes exactly the factorization blocks covering
// [offset, offset+length) and returns those bytes, exercising the block
// map's O(1)-random-access contract: only the blocks overlapping the
// requested range are decoded.
func (r *Reader) ExtractRange(offset, length int) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}

	if offset < 0 || length < 0 {
		return nil, rlzerr.Newf(rlzerr.Config, "blockmap: invalid range offset=%d length=%d", offset, length)
	}

	firstBlock := offset / r.blockSize
	lastBlock := (offset + length - 1) / r.blockSize

	out := make([]byte, 0, length)

	for i := firstBlock; i <= lastBlock; i++ {
		block, err := r.m.ExpandBlock(r.stream, i, r.dict, r.offsetCoder, r.lenCoder)
		if err != nil {
			return nil, err
		}

		blockStart := i * r.blockSize

		lo := offset - blockStart
		if lo < 0 {
			lo = 0
		}

		hi := offset + length - blockStart
		if hi > len(block) {
			hi = len(block)
		}

		out = append(out, block[lo:hi]...)
	}

	return out, nil
}
