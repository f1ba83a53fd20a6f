// Package builder implements C7, the orchestrator: it wires C1 through C6,
// names every artifact by its strategy parameters and the current
// dictionary hash, and skips rebuilding a stage whose artifact already
// exists unless Rebuild is set (spec.md §4.7).
package builder

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/rlzstore/rlzstore/pkg/blockmap"
	"github.com/rlzstore/rlzstore/pkg/cms"
	"github.com/rlzstore/rlzstore/pkg/coder"
	"github.com/rlzstore/rlzstore/pkg/collection"
	"github.com/rlzstore/rlzstore/pkg/dictionary"
	"github.com/rlzstore/rlzstore/pkg/factorize"
	"github.com/rlzstore/rlzstore/pkg/fs"
	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
	"github.com/rlzstore/rlzstore/pkg/rlzlog"
	"github.com/rlzstore/rlzstore/pkg/selfindex"
	"github.com/rlzstore/rlzstore/pkg/sketch"
)

// Builder runs build_or_load over one corpus (spec.md §2 "Control flow").
type Builder struct {
	store  *collection.Store
	params rlzconfig.Params
	log    rlzlog.Logger
}

// New constructs a Builder. log may be [rlzlog.Nop]{} if no logging is
// wanted.
func New(store *collection.Store, params rlzconfig.Params, log rlzlog.Logger) (*Builder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = rlzlog.Nop{}
	}

	return &Builder{store: store, params: params, log: log}, nil
}

// Index is the built-or-loaded index, ready for random access and
// sequential decoding via its Reader.
type Index struct {
	DictHash string
	Dict     []byte
	Reader   *blockmap.Reader
	Map      *blockmap.Map
}

// BuildOrLoad runs every stage, reusing existing artifacts when
// b.params.Rebuild is false (spec.md §2, §4.7).
func (b *Builder) BuildOrLoad(ctx context.Context) (*Index, error) {
	textMapping, err := b.store.MapText()
	if err != nil {
		return nil, err
	}
	defer textMapping.Close()

	text := textMapping.Bytes()

	dictBytes, err := b.ensureDictionary(ctx, text)
	if err != nil {
		return nil, err
	}

	dictHash, err := b.store.ComputeDictHash(b.dictKey())
	if err != nil {
		return nil, err
	}

	idx := selfindex.New(dictBytes)

	offsetCoder, err := coder.For(b.params.OffsetCoder)
	if err != nil {
		return nil, err
	}

	lenCoder, err := coder.For(b.params.LenCoder)
	if err != nil {
		return nil, err
	}

	bm, stream, err := b.ensureFactorStream(ctx, text, idx, dictHash, offsetCoder, lenCoder)
	if err != nil {
		return nil, err
	}

	reader := blockmap.NewReader(bm, stream, dictBytes, offsetCoder, lenCoder, int(b.params.BF))

	return &Index{DictHash: dictHash, Dict: dictBytes, Reader: reader, Map: bm}, nil
}

// ensureDictionary returns D's bytes, building it (C2+C3) only if its
// artifact is missing or b.params.Rebuild is set.
func (b *Builder) ensureDictionary(ctx context.Context, text []byte) ([]byte, error) {
	key := b.dictKey()

	if !b.params.Rebuild && b.store.FileExists(key) {
		b.log.Info("loaded", "artifact", key, "stage", "C3")

		dict, err := os.ReadFile(b.store.PathFor(key))
		if err != nil {
			return nil, rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C3"), rlzerr.WithArtifact(key))
		}

		return dict, nil
	}

	done := rlzlog.Stage(ctx, b.log, "C3", "build dictionary")

	result, err := dictionary.Build(text, dictionary.Options{
		BudgetBytes: b.params.BudgetBytes,
		BlockSize:   b.params.B,
		Window:      int(b.params.W),
		Threshold:   b.params.Tau,
		NumWorkers:  b.params.NumThreads,
		CMS:         cms.Params{Epsilon: b.params.CMSEpsilon, Delta: b.params.CMSDelta},
	})
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(b.store.PathFor(key), result.Dict); err != nil {
		return nil, err
	}

	sketchKey := sketch.CacheName(int(b.params.W), cms.Params{Epsilon: b.params.CMSEpsilon, Delta: b.params.CMSDelta})
	if err := sketch.Save(b.store.PathFor(sketchKey), int(b.params.W), result.Sketch); err != nil {
		return nil, err
	}

	done("picked_blocks", len(result.Picked), "dict_bytes", len(result.Dict))
	b.log.Info("built", "artifact", key, "stage", "C3")

	return result.Dict, nil
}

// ensureFactorStream returns the block map and its bitstream, running C5+C6
// only if their artifacts are missing or b.params.Rebuild is set.
func (b *Builder) ensureFactorStream(ctx context.Context, text []byte, idx *selfindex.Index, dictHash string, offsetCoder, lenCoder coder.Coder) (*blockmap.Map, []byte, error) {
	streamKey := b.factorStreamKey(dictHash)
	blockOffsetsKey := b.blockOffsetsKey(dictHash)
	blockFactorsKey := b.blockFactorsKey(dictHash)
	blockMapKey := b.blockMapKey(dictHash)

	if !b.params.Rebuild && b.store.FileExists(streamKey) && b.store.FileExists(blockMapKey) {
		b.log.Info("loaded", "artifact", streamKey, "stage", "C5/C6")

		stream, err := os.ReadFile(b.store.PathFor(streamKey))
		if err != nil {
			return nil, nil, rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C6"), rlzerr.WithArtifact(streamKey))
		}

		bm, err := blockmap.Load(b.store.PathFor(blockMapKey))
		if err != nil {
			return nil, nil, err
		}

		return bm, stream, nil
	}

	done := rlzlog.Stage(ctx, b.log, "C5", "factorize text")

	blocks, err := factorize.Run(text, idx, factorize.Options{
		BlockSize:  int(b.params.BF),
		NumWorkers: b.params.NumThreads,
		Policy:     b.params.Selection,
	})
	if err != nil {
		return nil, nil, err
	}

	done("blocks", len(blocks))

	done = rlzlog.Stage(ctx, b.log, "C6", "code factor stream")

	stream, bm := blockmap.EncodeFactorStream(blocks, offsetCoder, lenCoder)

	if err := writeAtomic(b.store.PathFor(streamKey), stream); err != nil {
		return nil, nil, err
	}

	if err := blockmap.Save(b.store.PathFor(blockMapKey), bm); err != nil {
		return nil, nil, err
	}

	if err := writeU64Array(b.store.PathFor(blockOffsetsKey), bm.BO); err != nil {
		return nil, nil, err
	}

	if err := writeU32Array(b.store.PathFor(blockFactorsKey), bm.BC); err != nil {
		return nil, nil, err
	}

	done("bit_length", bm.BO[len(bm.BO)-1])
	b.log.Info("built", "artifact", streamKey, "stage", "C5/C6")

	return bm, stream, nil
}

func writeAtomic(path string, data []byte) error {
	w := fs.NewAtomicWriter(fs.NewReal())
	opts := fs.AtomicWriteOptions{SyncDir: true, Perm: 0o644}

	if err := w.Write(path, bytes.NewReader(data), opts); err != nil {
		return rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithArtifact(path))
	}

	return nil
}

// dictKey names D per spec.md §6: dict_local_coverage_nobias-<B>-<w>-<budgetMB>.bin
func (b *Builder) dictKey() string {
	budgetMB := b.params.BudgetBytes / (1 << 20)

	return fmt.Sprintf("dict_local_coverage_nobias-%d-%d-%dMB.bin", b.params.B, b.params.W, budgetMB)
}

// factorStreamKey names FACTORIZED_TEXT: factorizor-<BF>-<selection>-dhash=<H>.bin
func (b *Builder) factorStreamKey(dictHash string) string {
	return fmt.Sprintf("factorizor-%d-%s-dhash=%s.bin", b.params.BF, b.params.Selection, dictHash)
}

// blockOffsetsKey names BLOCKOFFSETS: blockoffsets-dhash=<H>.bin
func (b *Builder) blockOffsetsKey(dictHash string) string {
	return fmt.Sprintf("blockoffsets-dhash=%s.bin", dictHash)
}

// blockFactorsKey names BLOCKFACTORS: blockfactors-dhash=<H>.bin
func (b *Builder) blockFactorsKey(dictHash string) string {
	return fmt.Sprintf("blockfactors-dhash=%s.bin", dictHash)
}

// blockMapKey names BLOCKMAP: blockmap-<type>-<factorizor_type>-<H>.bin
func (b *Builder) blockMapKey(dictHash string) string {
	return fmt.Sprintf("blockmap-%s-%s-%s.bin", b.params.BlockMap, b.params.Selection, dictHash)
}
