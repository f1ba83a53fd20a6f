package blockmap

import (
	"github.com/rlzstore/rlzstore/pkg/bitio"
	"github.com/rlzstore/rlzstore/pkg/coder"
	"github.com/rlzstore/rlzstore/pkg/factorize"
)

// EncodeFactorStream entropy-codes every factorization block's factors into
// one continuous bitstream (spec.md §4.6's FACTORIZED_TEXT artifact),
// recording each block's bit offset and factor count into the returned
// Map. Blocks must already be in ascending ID order (as returned by
// [factorize.Run]); the stream preserves that order, which is what lets a
// caller seek directly to block i via m.BO[i].
//
// Each block writes its offsets array then its lens array, in that order,
// using offsetCoder/lenCoder respectively — matching spec.md §4.6's
// "encode_block(out, offsets, lens, k)" contract, split into two
// self-delimited coder calls since each Coder only knows one field.
func EncodeFactorStream(blocks []factorize.Block, offsetCoder, lenCoder coder.Coder) ([]byte, *Map) {
	w := bitio.NewWriter()

	bitLens := make([]uint64, len(blocks))
	counts := make([]uint32, len(blocks))

	for i, b := range blocks {
		start := w.BitLen()

		offsets := make([]uint64, len(b.Factors))
		lens := make([]uint64, len(b.Factors))

		for j, f := range b.Factors {
			if f.Literal {
				offsets[j] = uint64(f.Byte)
				lens[j] = 0

				continue
			}

			offsets[j] = f.Offset
			lens[j] = uint64(f.Len)
		}

		offsetCoder.EncodeBlock(w, offsets)
		lenCoder.EncodeBlock(w, lens)

		bitLens[i] = w.BitLen() - start
		counts[i] = uint32(len(b.Factors))
	}

	return w.Bytes(), Build(bitLens, counts)
}
