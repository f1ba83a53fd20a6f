package builder

import (
	"bytes"
	"encoding/binary"
)

// writeU64Array writes the plain BLOCKOFFSETS artifact (u64[M+1]),
// spec.md §6, separately from the combined BLOCKMAP artifact that
// pkg/blockmap.Save writes for its own mmap-backed reload path.
func writeU64Array(path string, values []uint64) error {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, values); err != nil {
		return err
	}

	return writeAtomic(path, buf.Bytes())
}

// writeU32Array writes the plain BLOCKFACTORS artifact (u32[M]).
func writeU32Array(path string, values []uint32) error {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, values); err != nil {
		return err
	}

	return writeAtomic(path, buf.Bytes())
}
