package factorize_test

import (
	"strings"
	"testing"

	"github.com/rlzstore/rlzstore/pkg/factorize"
	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
	"github.com/rlzstore/rlzstore/pkg/selfindex"
)

func expand(dict []byte, factors []selfindex.Factor) []byte {
	var out []byte

	for _, f := range factors {
		if f.Literal {
			out = append(out, f.Byte)

			continue
		}

		out = append(out, dict[f.Offset:f.Offset+uint64(f.Len)]...)
	}

	return out
}

func TestRun_TinySyntheticScenario(t *testing.T) {
	t.Parallel()

	text := []byte(strings.Repeat("abc", 6)) // 18 bytes, spec.md §8 scenario 1
	dict := []byte("abc\x00")
	idx := selfindex.New(dict)

	blocks, err := factorize.Run(text, idx, factorize.Options{BlockSize: 6, NumWorkers: 1, Policy: rlzconfig.SelectFirst})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3 (18 bytes / BF=6)", len(blocks))
	}

	for _, b := range blocks {
		if len(b.Factors) != 2 {
			t.Fatalf("block %d has %d factors, want 2 (abcabc -> abc,abc)", b.ID, len(b.Factors))
		}

		for _, f := range b.Factors {
			if f.Literal || f.Offset != 0 || f.Len != 3 {
				t.Fatalf("block %d factor = %+v, want {Offset:0 Len:3}", b.ID, f)
			}
		}
	}
}

func TestRun_BlocksExpandToOriginalText(t *testing.T) {
	t.Parallel()

	text := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 37))
	dict := []byte("the quick brown fox jumps over the lazy dog\x00")
	idx := selfindex.New(dict)

	const bf = 17 // deliberately does not divide len(text) evenly

	blocks, err := factorize.Run(text, idx, factorize.Options{BlockSize: bf, NumWorkers: 4, Policy: rlzconfig.SelectFirst})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var rebuilt []byte

	for _, b := range blocks {
		rebuilt = append(rebuilt, expand(dict, b.Factors)...)
	}

	if string(rebuilt) != string(text) {
		t.Fatalf("rebuilt text does not match original (len %d vs %d)", len(rebuilt), len(text))
	}

	last := blocks[len(blocks)-1]
	wantLastLen := len(text) % bf

	if wantLastLen != 0 {
		if got := len(expand(dict, last.Factors)); got != wantLastLen {
			t.Fatalf("last block expands to %d bytes, want %d (n mod BF)", got, wantLastLen)
		}
	}
}

func TestRun_BlockOrderPreservedAcrossWorkers(t *testing.T) {
	t.Parallel()

	text := []byte(strings.Repeat("mississippi river ", 200))
	dict := []byte("mississippi river\x00")
	idx := selfindex.New(dict)

	blocks, err := factorize.Run(text, idx, factorize.Options{BlockSize: 9, NumWorkers: 6, Policy: rlzconfig.SelectFirst})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i, b := range blocks {
		if b.ID != i {
			t.Fatalf("blocks[%d].ID = %d, want %d — block order must be preserved across worker merge", i, b.ID, i)
		}
	}
}

func TestRun_EmptyTextYieldsNoBlocks(t *testing.T) {
	t.Parallel()

	idx := selfindex.New([]byte("x\x00"))

	blocks, err := factorize.Run(nil, idx, factorize.Options{BlockSize: 4, NumWorkers: 2, Policy: rlzconfig.SelectFirst})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(blocks) != 0 {
		t.Fatalf("got %d blocks, want 0", len(blocks))
	}
}
