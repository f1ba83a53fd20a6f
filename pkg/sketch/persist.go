package sketch

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	natomic "github.com/natefinch/atomic"

	"github.com/rlzstore/rlzstore/pkg/cms"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
)

// fileMagic identifies a serialized sketch artifact; version bumps whenever
// the on-disk layout changes incompatibly.
const (
	fileMagic   uint32 = 0x524c5a53 // "RLZS"
	fileVersion uint32 = 1
)

// CacheName returns the versioned sketch artifact filename, keyed by the
// window width and the (epsilon, delta) ratios that determine its
// dimensions — any change to either invalidates the cache.
func CacheName(window int, params cms.Params) string {
	return fmt.Sprintf("sketch-w%d-eps%g-delta%g.bin", window, params.Epsilon, params.Delta)
}

// Save serializes s to path atomically: header (magic, version, depth,
// width, window) followed by the seed array and the cell table, all
// little-endian. A partially written file is never visible to readers
// because natefinch/atomic.WriteFile writes to a temp file and renames into
// place.
func Save(path string, window int, s *cms.Sketch) error {
	var buf bytes.Buffer

	header := [5]uint32{fileMagic, fileVersion, uint32(s.Depth()), uint32(s.Width()), uint32(window)}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	if err := binary.Write(&buf, binary.LittleEndian, s.Seeds()); err != nil {
		return rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	if err := binary.Write(&buf, binary.LittleEndian, s.Cells()); err != nil {
		return rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	if err := natomic.WriteFile(path, bytes.NewReader(buf.Bytes())); err != nil {
		return rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	return nil
}

// Load reconstructs a sketch previously written by [Save]. It returns
// (nil, 0, nil) if the file does not exist, so callers can treat a missing
// cache as "needs rebuild" rather than an error.
func Load(path string) (s *cms.Sketch, window int, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}

		return nil, 0, rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	const headerBytes = 5 * 4
	if len(raw) < headerBytes {
		return nil, 0, rlzerr.New(rlzerr.Corruption, "sketch cache: truncated header",
			rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	var header [5]uint32
	if err := binary.Read(bytes.NewReader(raw[:headerBytes]), binary.LittleEndian, &header); err != nil {
		return nil, 0, rlzerr.Wrap(rlzerr.Corruption, err, rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	magic, version, depth, width, window32 := header[0], header[1], header[2], header[3], header[4]

	if magic != fileMagic {
		return nil, 0, rlzerr.Wrap(rlzerr.Corruption, fmt.Errorf("sketch cache: bad magic %#x", magic),
			rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	if version != fileVersion {
		return nil, 0, rlzerr.Wrap(rlzerr.Corruption, fmt.Errorf("sketch cache: unsupported version %d", version),
			rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	body := raw[headerBytes:]

	seedsLen := int(depth) * 8
	if len(body) < seedsLen {
		return nil, 0, rlzerr.New(rlzerr.Corruption, "sketch cache: truncated seed table",
			rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	seeds := make([]uint64, depth)
	if err := binary.Read(bytes.NewReader(body[:seedsLen]), binary.LittleEndian, seeds); err != nil {
		return nil, 0, rlzerr.Wrap(rlzerr.Corruption, err, rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	cellBytes := body[seedsLen:]

	wantCells := int(depth) * int(width)
	if len(cellBytes) != wantCells*4 {
		return nil, 0, rlzerr.New(rlzerr.Corruption, "sketch cache: cell table size mismatch",
			rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	cells := make([]uint32, wantCells)
	if err := binary.Read(bytes.NewReader(cellBytes), binary.LittleEndian, cells); err != nil {
		return nil, 0, rlzerr.Wrap(rlzerr.Corruption, err, rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	reloaded, err := cms.FromParts(uint64(depth), uint64(width), seeds, cells)
	if err != nil {
		return nil, 0, rlzerr.Wrap(rlzerr.Corruption, err, rlzerr.WithStage("C2"), rlzerr.WithArtifact(path))
	}

	return reloaded, int(window32), nil
}
