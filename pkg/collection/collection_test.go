package collection_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rlzstore/rlzstore/pkg/collection"
)

func newCorpus(t *testing.T, text string) string {
	t.Helper()

	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "text"), []byte(text), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	return dir
}

func TestOpen_RejectsMissingText(t *testing.T) {
	t.Parallel()

	if _, err := collection.Open(t.TempDir()); err == nil {
		t.Fatal("expected error opening a corpus with no text file")
	}
}

func TestOpen_CreatesIndexDir(t *testing.T) {
	t.Parallel()

	dir := newCorpus(t, "abcabcabcabc")

	if _, err := collection.Open(dir); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if info, err := os.Stat(filepath.Join(dir, "index")); err != nil || !info.IsDir() {
		t.Fatalf("index directory not created: %v", err)
	}
}

func TestPathFor_JoinsUnderIndexDir(t *testing.T) {
	t.Parallel()

	dir := newCorpus(t, "abc")

	s, err := collection.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := filepath.Join(dir, "index", "dict.bin")
	if got := s.PathFor("dict.bin"); got != want {
		t.Fatalf("PathFor = %q, want %q", got, want)
	}
}

func TestFileExists_ReflectsIndexDirContents(t *testing.T) {
	t.Parallel()

	dir := newCorpus(t, "abc")

	s, err := collection.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if s.FileExists("dict.bin") {
		t.Fatal("FileExists true before artifact written")
	}

	if err := os.WriteFile(s.PathFor("dict.bin"), []byte("D"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if !s.FileExists("dict.bin") {
		t.Fatal("FileExists false after artifact written")
	}
}

func TestMapText_ReturnsTextContents(t *testing.T) {
	t.Parallel()

	dir := newCorpus(t, "abcabcabcabc")

	s, err := collection.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	m, err := s.MapText()
	if err != nil {
		t.Fatalf("MapText: %v", err)
	}
	defer m.Close()

	if string(m.Bytes()) != "abcabcabcabc" {
		t.Fatalf("MapText bytes = %q", m.Bytes())
	}
}

func TestComputeDictHash_ChangesWithContent(t *testing.T) {
	t.Parallel()

	dir := newCorpus(t, "abc")

	s, err := collection.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := os.WriteFile(s.PathFor("dict.bin"), []byte("abc\x00"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	h1, err := s.ComputeDictHash("dict.bin")
	if err != nil {
		t.Fatalf("ComputeDictHash: %v", err)
	}

	if err := os.WriteFile(s.PathFor("dict.bin"), []byte("xyz\x00"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	h2, err := s.ComputeDictHash("dict.bin")
	if err != nil {
		t.Fatalf("ComputeDictHash: %v", err)
	}

	if h1 == h2 {
		t.Fatal("dict hash did not change when dictionary contents changed")
	}

	if len(h1) != 16 || len(h2) != 16 {
		t.Fatalf("hash lengths = %d, %d, want 16", len(h1), len(h2))
	}
}
