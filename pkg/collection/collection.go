// Package collection implements C1, the collection store: the on-disk
// layout of one corpus (its immutable text T, and the index/ directory
// holding every downstream artifact the builder produces), a key→filename
// map, and the dictionary content hash that names every artifact
// downstream of D.
package collection

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/rlzstore/rlzstore/pkg/fs"
	"github.com/rlzstore/rlzstore/pkg/mmap"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
)

// textFileName is the corpus's immutable text file, relative to the
// collection directory.
const textFileName = "text"

// indexDirName holds every artifact derived from the text.
const indexDirName = "index"

// Store owns one corpus's directory layout.
type Store struct {
	dir      string
	indexDir string
	textPath string
	fs       fs.FS
}

// Open validates that dir/text exists (missing text is fatal, per spec.md
// §4.1) and ensures dir/index exists, creating it if necessary.
func Open(dir string) (*Store, error) {
	dir = filepath.Clean(dir)
	textPath := filepath.Join(dir, textFileName)
	indexDir := filepath.Join(dir, indexDirName)

	realFS := fs.NewReal()

	if _, err := os.Stat(textPath); err != nil {
		return nil, rlzerr.Wrap(rlzerr.Config, err, rlzerr.WithStage("C1"), rlzerr.WithArtifact(textPath))
	}

	if err := realFS.MkdirAll(indexDir, 0o755); err != nil {
		return nil, rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C1"), rlzerr.WithArtifact(indexDir))
	}

	return &Store{dir: dir, indexDir: indexDir, textPath: textPath, fs: realFS}, nil
}

// TextPath returns the path to the corpus's text file T.
func (s *Store) TextPath() string { return s.textPath }

// PathFor resolves an artifact key to its path under index/.
func (s *Store) PathFor(key string) string { return filepath.Join(s.indexDir, key) }

// FileExists reports whether the artifact named by key is present.
func (s *Store) FileExists(key string) bool {
	_, err := os.Stat(s.PathFor(key))

	return err == nil
}

// MapText memory-maps T read-only.
func (s *Store) MapText() (*mmap.Mapping, error) {
	m, err := mmap.Open(s.textPath)
	if err != nil {
		return nil, rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C1"), rlzerr.WithArtifact(s.textPath))
	}

	return m, nil
}

// MapArtifact memory-maps the artifact named by key read-only.
func (s *Store) MapArtifact(key string) (*mmap.Mapping, error) {
	path := s.PathFor(key)

	m, err := mmap.Open(path)
	if err != nil {
		return nil, rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C1"), rlzerr.WithArtifact(path))
	}

	return m, nil
}

// ComputeDictHash reads the dictionary artifact named by dictKey and
// returns a stable, short hex digest used to name every artifact
// downstream of D (the `dhash=<H>` suffix in spec.md §6). Changing D's
// bytes changes the hash, which is how the orchestrator (C7) detects that
// dependent artifacts must be rebuilt.
func (s *Store) ComputeDictHash(dictKey string) (string, error) {
	path := s.PathFor(dictKey)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithStage("C1"), rlzerr.WithArtifact(path))
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])[:16], nil
}
