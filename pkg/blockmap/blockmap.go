// Package blockmap implements C6's block map: the BO/BC arrays giving O(1)
// random access into the factor stream. BO[i] is the bit offset at which
// block i's encoded factors begin (BO[0] = 0, nondecreasing, BO[M] is
// the total factor-stream bit length); BC[i] is block i's factor count, read
// by the field coders (pkg/coder) to know how many self-delimited values to
// decode starting at BO[i].
package blockmap

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/rlzstore/rlzstore/pkg/fs"
	"github.com/rlzstore/rlzstore/pkg/mmap"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
)

const (
	magic       uint32 = 0x524c5a4d // "RLZM"
	version     uint32 = 1
	headerBytes        = 4 + 4 + 8 // magic, version, block count
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// Map holds the decoded BO/BC arrays.
type Map struct {
	BO []uint64
	BC []uint32
}

// NumBlocks returns M, the number of factorization blocks.
func (m *Map) NumBlocks() int { return len(m.BC) }

// BlockBits returns the bit length of block i's encoded factors.
func (m *Map) BlockBits(i int) uint64 { return m.BO[i+1] - m.BO[i] }

// Build derives a Map from per-block bit lengths (one entry per block, in
// block order) and factor counts.
func Build(bitLens []uint64, counts []uint32) *Map {
	bo := make([]uint64, len(bitLens)+1)

	for i, l := range bitLens {
		bo[i+1] = bo[i] + l
	}

	bc := make([]uint32, len(counts))
	copy(bc, counts)

	return &Map{BO: bo, BC: bc}
}

// Save encodes m as header + BO array + BC array + CRC32-C trailer, written
// atomically to path.
func Save(path string, m *Map) error {
	mCount := uint64(len(m.BC))

	body := make([]byte, headerBytes+8*len(m.BO)+4*len(m.BC)+4)

	binary.LittleEndian.PutUint32(body[0:], magic)
	binary.LittleEndian.PutUint32(body[4:], version)
	binary.LittleEndian.PutUint64(body[8:], mCount)

	off := headerBytes
	for _, v := range m.BO {
		binary.LittleEndian.PutUint64(body[off:], v)
		off += 8
	}

	for _, v := range m.BC {
		binary.LittleEndian.PutUint32(body[off:], v)
		off += 4
	}

	crc := crc32.Checksum(body[:off], crcTable)
	binary.LittleEndian.PutUint32(body[off:], crc)

	w := fs.NewAtomicWriter(fs.NewReal())

	opts := fs.AtomicWriteOptions{SyncDir: true, Perm: 0o644}
	if err := w.Write(path, bytes.NewReader(body), opts); err != nil {
		return rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C6"), rlzerr.WithArtifact(path))
	}

	return nil
}

// Load maps path read-only, validates its header and CRC trailer, and
// decodes BO/BC. The returned Map does not retain the mapping.
func Load(path string) (*Map, error) {
	region, err := mmap.Open(path)
	if err != nil {
		return nil, rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C6"), rlzerr.WithArtifact(path))
	}
	defer region.Close()

	data := region.Bytes()

	if len(data) < headerBytes+4 {
		return nil, rlzerr.Newf(rlzerr.Corruption, "block map %s: truncated header", path)
	}

	if got := binary.LittleEndian.Uint32(data[0:]); got != magic {
		return nil, rlzerr.Wrap(rlzerr.Corruption,
			rlzerr.Newf(rlzerr.Corruption, "bad magic %#x", got),
			rlzerr.WithStage("C6"), rlzerr.WithArtifact(path))
	}

	if got := binary.LittleEndian.Uint32(data[4:]); got != version {
		return nil, rlzerr.Wrap(rlzerr.Corruption,
			rlzerr.Newf(rlzerr.Corruption, "unsupported version %d", got),
			rlzerr.WithStage("C6"), rlzerr.WithArtifact(path))
	}

	mCount := binary.LittleEndian.Uint64(data[8:])

	want := headerBytes + 8*(int(mCount)+1) + 4*int(mCount) + 4
	if len(data) != want {
		return nil, rlzerr.Newf(rlzerr.Corruption,
			"block map %s: size mismatch, have %d bytes, want %d for %d blocks", path, len(data), want, mCount)
	}

	body, trailer := data[:want-4], data[want-4:]

	gotCRC := binary.LittleEndian.Uint32(trailer)
	wantCRC := crc32.Checksum(body, crcTable)

	if gotCRC != wantCRC {
		return nil, rlzerr.Newf(rlzerr.Corruption, "block map %s: CRC mismatch", path)
	}

	off := headerBytes

	bo := make([]uint64, mCount+1)
	for i := range bo {
		bo[i] = binary.LittleEndian.Uint64(data[off:])
		off += 8
	}

	bc := make([]uint32, mCount)
	for i := range bc {
		bc[i] = binary.LittleEndian.Uint32(data[off:])
		off += 4
	}

	return &Map{BO: bo, BC: bc}, nil
}
