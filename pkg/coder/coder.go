// Package coder implements the blocked factor-field coders of C6: given a
// block's k values (either the offsets or the lengths of its factors), each
// coder writes a self-delimited bit sequence that can be decoded back given
// only the block's bit position and k (from the block map) — no cross-block
// state is ever read or written, which is what lets C5's per-worker
// bitstreams be merged by simple concatenation.
package coder

import (
	"github.com/rlzstore/rlzstore/pkg/bitio"
	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
)

// Coder encodes/decodes one field (offsets or lengths) of a factor block.
type Coder interface {
	// EncodeBlock writes all of values to w.
	EncodeBlock(w *bitio.Writer, values []uint64)
	// DecodeBlock reads exactly k values previously written by EncodeBlock.
	DecodeBlock(r *bitio.Reader, k int) []uint64
}

// For selects the concrete coder for kind.
func For(kind rlzconfig.CoderKind) (Coder, error) {
	switch kind {
	case rlzconfig.CoderRaw32:
		return raw32Coder{}, nil
	case rlzconfig.CoderVarbyte:
		return varbyteCoder{}, nil
	case rlzconfig.CoderInterpolative:
		return interpolativeCoder{}, nil
	default:
		return nil, rlzerr.Newf(rlzerr.Config, "coder: unknown kind %q", kind)
	}
}

// raw32Coder writes every value as a fixed 32-bit field. Simplest possible
// coder; used as the correctness baseline and for fields whose values may
// exceed what the other coders assume is the common case.
type raw32Coder struct{}

func (raw32Coder) EncodeBlock(w *bitio.Writer, values []uint64) {
	for _, v := range values {
		w.WriteBits(v, 32)
	}
}

func (raw32Coder) DecodeBlock(r *bitio.Reader, k int) []uint64 {
	out := make([]uint64, k)

	for i := range out {
		out[i] = r.ReadBits(32)
	}

	return out
}

// varbyteCoder writes each value as a sequence of 8-bit groups, 7 payload
// bits plus a continuation bit (set on every group but the last), the
// classic byte-aligned variable-length integer encoding.
type varbyteCoder struct{}

func (varbyteCoder) EncodeBlock(w *bitio.Writer, values []uint64) {
	for _, v := range values {
		for {
			group := v & 0x7f
			v >>= 7

			if v != 0 {
				w.WriteBits(group|0x80, 8)

				continue
			}

			w.WriteBits(group, 8)

			break
		}
	}
}

func (varbyteCoder) DecodeBlock(r *bitio.Reader, k int) []uint64 {
	out := make([]uint64, k)

	for i := range out {
		var v uint64

		shift := uint(0)

		for {
			group := r.ReadBits(8)
			v |= (group & 0x7f) << shift
			shift += 7

			if group&0x80 == 0 {
				break
			}
		}

		out[i] = v
	}

	return out
}

// interpolativeCoder Elias-gamma-codes each value independently. True binary
// interpolative coding (Moffat & Stuiver) exploits a sorted, monotonically
// increasing sequence to narrow the representable range recursively; factor
// offsets and lengths within one block carry no such ordering guarantee, so
// this is a simplified stand-in offering the same "small values cost fewer
// bits" property without assuming sortedness, documented as such in
// DESIGN.md.
type interpolativeCoder struct{}

func (interpolativeCoder) EncodeBlock(w *bitio.Writer, values []uint64) {
	for _, v := range values {
		w.WriteGamma(v)
	}
}

func (interpolativeCoder) DecodeBlock(r *bitio.Reader, k int) []uint64 {
	out := make([]uint64, k)

	for i := range out {
		out[i] = r.ReadGamma()
	}

	return out
}
