// Package mmap maps read-only files into memory for O(1) random access to
// large, immutable artifacts (the corpus text, the dictionary, the block
// map) without reading them fully into the Go heap.
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mapping is a read-only memory-mapped file.
type Mapping struct {
	data []byte
}

// Open maps the whole of the file at path read-only. The file must not be
// empty. Callers must call Close when done to release the mapping.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := info.Size()
	if size == 0 {
		return nil, fmt.Errorf("mmap: %s: empty file", path)
	}

	if int64(int(size)) != size {
		return nil, fmt.Errorf("mmap: %s: file too large for a single mapping (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %s: %w", path, err)
	}

	return &Mapping{data: data}, nil
}

// Bytes returns the mapped region. The slice is valid until Close.
func (m *Mapping) Bytes() []byte { return m.data }

// Close unmaps the region.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}

	err := unix.Munmap(m.data)
	m.data = nil

	return err
}
