package selfindex_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
	"github.com/rlzstore/rlzstore/pkg/selfindex"
)

func collect(idx *selfindex.Index, text string) []selfindex.Factor {
	var out []selfindex.Factor

	for f := range idx.Factorize([]byte(text), rlzconfig.SelectFirst, nil) {
		out = append(out, f)
	}

	return out
}

func TestFactorize_TinySyntheticScenario(t *testing.T) {
	t.Parallel()

	dict := []byte("abc\x00")
	idx := selfindex.New(dict)

	// spec.md §8 scenario 1: BF = 6, so each 6-byte block is "abcabc".
	block := "abcabc"

	factors := collect(idx, block)

	if len(factors) != 2 {
		t.Fatalf("got %d factors, want 2 (abcabc -> abc,abc)", len(factors))
	}

	for _, f := range factors {
		if f.Literal || f.Len != 3 || f.Offset != 0 {
			t.Fatalf("factor = %+v, want {Offset:0 Len:3}", f)
		}
	}
}

func TestFactorize_ExpansionReproducesInput(t *testing.T) {
	t.Parallel()

	dict := []byte("the quick brown fox\x00")
	idx := selfindex.New(dict)

	text := "the fox jumps, quick as a brown fox"

	var rebuilt strings.Builder

	for f := range idx.Factorize([]byte(text), rlzconfig.SelectFirst, nil) {
		if f.Literal {
			rebuilt.WriteByte(f.Byte)

			continue
		}

		rebuilt.Write(dict[f.Offset : f.Offset+uint64(f.Len)])
	}

	if rebuilt.String() != text {
		t.Fatalf("expansion = %q, want %q", rebuilt.String(), text)
	}
}

func TestFactorize_NoMatchIsAllLiterals(t *testing.T) {
	t.Parallel()

	dict := []byte("abc\x00")
	idx := selfindex.New(dict)

	factors := collect(idx, "xyz")

	if len(factors) != 3 {
		t.Fatalf("got %d factors, want 3 literals", len(factors))
	}

	for i, f := range factors {
		if !f.Literal || f.Byte != "xyz"[i] {
			t.Fatalf("factor[%d] = %+v, want literal %q", i, f, "xyz"[i])
		}
	}
}

func TestFactorize_SelectFirstPicksSmallestOffset(t *testing.T) {
	t.Parallel()

	dict := []byte("ababab\x00")
	idx := selfindex.New(dict)

	var got []selfindex.Factor
	for f := range idx.Factorize([]byte("ab"), rlzconfig.SelectFirst, nil) {
		got = append(got, f)
	}

	if len(got) != 1 || got[0].Offset != 0 || got[0].Len != 2 {
		t.Fatalf("factors = %+v, want single {Offset:0 Len:2}", got)
	}
}

func TestFactorize_StopsEarlyWhenYieldReturnsFalse(t *testing.T) {
	t.Parallel()

	dict := []byte("abc\x00")
	idx := selfindex.New(dict)

	var seen []selfindex.Factor

	idx.Factorize([]byte("abcabc"), rlzconfig.SelectFirst, nil)(func(f selfindex.Factor) bool {
		seen = append(seen, f)
		return false
	})

	if len(seen) != 1 {
		t.Fatalf("expected iteration to stop after 1 factor, got %d", len(seen))
	}
}

func TestFactorize_RandomPolicyAlwaysPicksARealOccurrence(t *testing.T) {
	t.Parallel()

	dict := []byte("abXabXabX\x00")
	idx := selfindex.New(dict)

	valid := []uint64{0, 3, 6}

	for i := 0; i < 20; i++ {
		for f := range idx.Factorize([]byte("ab"), rlzconfig.SelectRandom, nil) {
			if f.Literal {
				continue
			}

			if !slices.Contains(valid, f.Offset) {
				t.Fatalf("random selection returned offset %d, not among real occurrences %v", f.Offset, valid)
			}
		}
	}
}
