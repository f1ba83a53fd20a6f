package blockmap

import (
	"github.com/rlzstore/rlzstore/pkg/bitio"
	"github.com/rlzstore/rlzstore/pkg/coder"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
	"github.com/rlzstore/rlzstore/pkg/selfindex"
)

// DecodeBlock seeks to block i's bit offset and decodes its factors, the
// block map's core contract (spec.md §4.6: "seek to bit BO[i], decode BC[i]
// factors"). stream is the full FACTORIZED_TEXT bitstream.
func (m *Map) DecodeBlock(stream []byte, i int, offsetCoder, lenCoder coder.Coder) ([]selfindex.Factor, error) {
	if i < 0 || i >= m.NumBlocks() {
		return nil, rlzerr.Newf(rlzerr.Config, "blockmap: block %d out of range [0,%d)", i, m.NumBlocks())
	}

	k := int(m.BC[i])

	r := bitio.NewReader(stream, m.BO[i])

	offsets := offsetCoder.DecodeBlock(r, k)
	lens := lenCoder.DecodeBlock(r, k)

	if r.BitPos() != m.BO[i+1] {
		return nil, rlzerr.Wrap(rlzerr.Coder,
			rlzerr.Newf(rlzerr.Coder, "block %d decoded %d bits, want %d", i, r.BitPos()-m.BO[i], m.BO[i+1]-m.BO[i]),
			rlzerr.WithStage("C6"), rlzerr.WithBlock(i))
	}

	factors := make([]selfindex.Factor, k)

	for j := 0; j < k; j++ {
		if lens[j] == 0 {
			factors[j] = selfindex.Factor{Literal: true, Byte: byte(offsets[j])}

			continue
		}

		factors[j] = selfindex.Factor{Offset: offsets[j], Len: int(lens[j])}
	}

	return factors, nil
}

// ExpandBlock decodes block i and expands its factors against dict,
// reproducing the original text bytes for that factorization block
// (spec.md §8 round-trip property: "decoding F_i and concatenating
// expansions produces exactly T[i*BF : ...)").
func (m *Map) ExpandBlock(stream []byte, i int, dict []byte, offsetCoder, lenCoder coder.Coder) ([]byte, error) {
	factors, err := m.DecodeBlock(stream, i, offsetCoder, lenCoder)
	if err != nil {
		return nil, err
	}

	return Expand(factors, dict), nil
}

// Expand concatenates the byte expansions of factors against dict: a
// literal factor contributes its byte, a reference factor contributes
// dict[Offset : Offset+Len].
func Expand(factors []selfindex.Factor, dict []byte) []byte {
	out := make([]byte, 0, len(factors))

	for _, f := range factors {
		if f.Literal {
			out = append(out, f.Byte)

			continue
		}

		out = append(out, dict[f.Offset:f.Offset+uint64(f.Len)]...)
	}

	return out
}
