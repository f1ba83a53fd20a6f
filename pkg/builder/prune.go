package builder

import (
	"context"

	"github.com/rlzstore/rlzstore/pkg/rlzlog"
)

// Prune is the supplemented dictionary-pruning pass (SPEC_FULL.md §3,
// grounded on original_source/rlz_store_static_builder.hpp's mention of the
// dict hash being "recomputed after (optional) dictionary pruning"): it
// factorizes once, drops every B-byte dictionary block that no factor ever
// referenced, rewrites D without them, and returns a freshly built Index —
// the new dict hash differs from the old one, so every dependent artifact
// (factor stream, block map) is naturally invalidated and rebuilt on the
// next BuildOrLoad rather than reused under a stale name.
func (b *Builder) Prune(ctx context.Context) (*Index, error) {
	idx, err := b.BuildOrLoad(ctx)
	if err != nil {
		return nil, err
	}

	blockSize := int(b.params.B)

	numBlocks := (len(idx.Dict) - 1) / blockSize // exclude the terminator byte
	if numBlocks <= 0 {
		return idx, nil
	}

	used := make([]bool, numBlocks)

	for _, f := range idx.Reader.AllFactors() {
		if f.Literal {
			continue
		}

		blockIdx := int(f.Offset) / blockSize
		if blockIdx < numBlocks {
			used[blockIdx] = true
		}
	}

	anyUnused := false

	for _, u := range used {
		if !u {
			anyUnused = true

			break
		}
	}

	if !anyUnused {
		b.log.Info("prune: no unused dictionary blocks", "stage", "C7")

		return idx, nil
	}

	done := rlzlog.Stage(ctx, b.log, "C7", "prune dictionary")

	newDict := make([]byte, 0, len(idx.Dict))

	kept := 0

	for i := 0; i < numBlocks; i++ {
		if !used[i] {
			continue
		}

		start := i * blockSize
		newDict = append(newDict, idx.Dict[start:start+blockSize]...)
		kept++
	}

	newDict = append(newDict, idx.Dict[len(idx.Dict)-1]) // terminator

	if err := writeAtomic(b.store.PathFor(b.dictKey()), newDict); err != nil {
		return nil, err
	}

	done("blocks_kept", kept, "blocks_dropped", numBlocks-kept)

	return b.BuildOrLoad(ctx)
}
