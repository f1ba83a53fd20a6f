// Package factorize implements C5, parallel block factorization: T is split
// into fixed-size factorization blocks, partitioned into disjoint contiguous
// ranges across worker goroutines, each walked independently against the
// shared self-index, then the per-worker outputs are merged preserving
// block order.
package factorize

import (
	"sync"

	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
	"github.com/rlzstore/rlzstore/pkg/selfindex"
)

// Block is one factorization block's factor sequence (spec.md §3
// "Factorization block F_i").
type Block struct {
	ID      int
	Factors []selfindex.Factor
}

// Options configure a factorization run.
type Options struct {
	BlockSize  int // BF: factorization block size in bytes
	NumWorkers int
	Policy     rlzconfig.SelectionPolicy
}

// Run factors text into ceil(len(text)/BlockSize) blocks, using idx for
// every match query. Blocks are independent: no factor crosses a block
// boundary, matching spec.md §3's block invariant.
//
// Work is split into up to opts.NumWorkers contiguous block ranges of
// ceil(M/NumWorkers) blocks each, one per worker; the last non-empty range
// takes whatever is left, so the ranges partition [0, M) exactly. If any worker fails, Run discards all partial output and
// returns the first error observed (spec.md §4.5: "any worker exception
// aborts the whole build; partial outputs are discarded").
func Run(text []byte, idx *selfindex.Index, opts Options) ([]Block, error) {
	if opts.BlockSize <= 0 {
		return nil, rlzerr.New(rlzerr.Config, "factorize: block size (BF) must be > 0", rlzerr.WithStage("C5"))
	}

	n := len(text)
	if n == 0 {
		return nil, nil
	}

	numBlocks := (n + opts.BlockSize - 1) / opts.BlockSize

	workers := opts.NumWorkers
	if workers <= 0 {
		workers = 1
	}

	if workers > numBlocks {
		workers = numBlocks
	}

	perWorker := (numBlocks + workers - 1) / workers

	results := make([][]Block, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		startBlock := w * perWorker
		endBlock := startBlock + perWorker

		if endBlock > numBlocks {
			endBlock = numBlocks
		}

		if startBlock >= endBlock {
			continue
		}

		wg.Add(1)

		go func(w, startBlock, endBlock int) {
			defer wg.Done()

			out, err := factorRange(text, idx, opts, startBlock, endBlock)
			if err != nil {
				errs[w] = err

				return
			}

			results[w] = out
		}(w, startBlock, endBlock)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, rlzerr.Wrap(rlzerr.Build, err, rlzerr.WithStage("C5"))
		}
	}

	merged := make([]Block, 0, numBlocks)
	for _, blocks := range results {
		merged = append(merged, blocks...)
	}

	return merged, nil
}

// factorRange factors every block in [startBlock, endBlock) independently;
// each block is handed to idx.Factorize fresh, so there is no state shared
// across blocks or across workers.
func factorRange(text []byte, idx *selfindex.Index, opts Options, startBlock, endBlock int) ([]Block, error) {
	out := make([]Block, 0, endBlock-startBlock)

	for i := startBlock; i < endBlock; i++ {
		start := i * opts.BlockSize
		end := start + opts.BlockSize

		if end > len(text) {
			end = len(text)
		}

		var factors []selfindex.Factor

		for f := range idx.Factorize(text[start:end], opts.Policy, nil) {
			factors = append(factors, f)
		}

		out = append(out, Block{ID: i, Factors: factors})
	}

	return out, nil
}
