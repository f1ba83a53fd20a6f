package blockmap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rlzstore/rlzstore/pkg/blockmap"
)

func TestBuild_FirstOffsetIsZeroAndMonotone(t *testing.T) {
	t.Parallel()

	m := blockmap.Build([]uint64{10, 0, 37, 4}, []uint32{3, 0, 9, 1})

	if m.BO[0] != 0 {
		t.Fatalf("BO[0] = %d, want 0", m.BO[0])
	}

	for i := 1; i < len(m.BO); i++ {
		if m.BO[i] < m.BO[i-1] {
			t.Fatalf("BO not monotone at %d: %d < %d", i, m.BO[i], m.BO[i-1])
		}
	}

	if want := uint64(10 + 0 + 37 + 4); m.BO[len(m.BO)-1] != want {
		t.Fatalf("BO[M] = %d, want %d", m.BO[len(m.BO)-1], want)
	}

	if m.NumBlocks() != 4 {
		t.Fatalf("NumBlocks() = %d, want 4", m.NumBlocks())
	}

	if m.BlockBits(2) != 37 {
		t.Fatalf("BlockBits(2) = %d, want 37", m.BlockBits(2))
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	m := blockmap.Build([]uint64{64, 128, 32}, []uint32{5, 11, 2})
	path := filepath.Join(t.TempDir(), "blockmap.bin")

	if err := blockmap.Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := blockmap.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(got.BO) != len(m.BO) {
		t.Fatalf("BO length = %d, want %d", len(got.BO), len(m.BO))
	}

	for i := range m.BO {
		if got.BO[i] != m.BO[i] {
			t.Fatalf("BO[%d] = %d, want %d", i, got.BO[i], m.BO[i])
		}
	}

	for i := range m.BC {
		if got.BC[i] != m.BC[i] {
			t.Fatalf("BC[%d] = %d, want %d", i, got.BC[i], m.BC[i])
		}
	}
}

func TestLoad_RejectsCorruptedTrailer(t *testing.T) {
	t.Parallel()

	m := blockmap.Build([]uint64{8, 8}, []uint32{1, 1})
	path := filepath.Join(t.TempDir(), "blockmap.bin")

	if err := blockmap.Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	corruptLastByte(t, path)

	if _, err := blockmap.Load(path); err == nil {
		t.Fatal("expected error loading a corrupted block map")
	}
}

func TestLoad_AcceptsEmptyBlockMap(t *testing.T) {
	t.Parallel()

	m := blockmap.Build(nil, nil)
	path := filepath.Join(t.TempDir(), "blockmap.bin")

	if err := blockmap.Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := blockmap.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.NumBlocks() != 0 {
		t.Fatalf("NumBlocks() = %d, want 0", got.NumBlocks())
	}

	if len(got.BO) != 1 || got.BO[0] != 0 {
		t.Fatalf("BO = %v, want [0]", got.BO)
	}
}

func corruptLastByte(t *testing.T, path string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	data[len(data)-1] ^= 0xff

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
