package coder_test

import (
	"slices"
	"testing"

	"github.com/rlzstore/rlzstore/pkg/bitio"
	"github.com/rlzstore/rlzstore/pkg/coder"
	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
)

func TestAllKinds_RoundTrip(t *testing.T) {
	t.Parallel()

	values := []uint64{0, 1, 2, 127, 128, 300, 65535, 1 << 20}

	for _, kind := range []rlzconfig.CoderKind{rlzconfig.CoderRaw32, rlzconfig.CoderVarbyte, rlzconfig.CoderInterpolative} {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			c, err := coder.For(kind)
			if err != nil {
				t.Fatalf("For(%s): %v", kind, err)
			}

			w := bitio.NewWriter()
			c.EncodeBlock(w, values)

			r := bitio.NewReader(w.Bytes(), 0)
			got := c.DecodeBlock(r, len(values))

			if !slices.Equal(got, values) {
				t.Fatalf("%s round-trip = %v, want %v", kind, got, values)
			}
		})
	}
}

func TestFor_RejectsUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := coder.For("bogus")
	if err == nil {
		t.Fatal("expected error for unknown coder kind")
	}
}

func TestVarbyte_BackToBackBlocksDoNotLeakState(t *testing.T) {
	t.Parallel()

	c, _ := coder.For(rlzconfig.CoderVarbyte)

	w := bitio.NewWriter()
	c.EncodeBlock(w, []uint64{1, 2, 3})
	boundary := w.BitLen()
	c.EncodeBlock(w, []uint64{4, 5})

	r1 := bitio.NewReader(w.Bytes(), 0)
	if got := c.DecodeBlock(r1, 3); !slices.Equal(got, []uint64{1, 2, 3}) {
		t.Fatalf("first block = %v, want [1 2 3]", got)
	}

	r2 := bitio.NewReader(w.Bytes(), boundary)
	if got := c.DecodeBlock(r2, 2); !slices.Equal(got, []uint64{4, 5}) {
		t.Fatalf("second block = %v, want [4 5]", got)
	}
}
