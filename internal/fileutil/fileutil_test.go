package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the final file, found %d entries", len(entries))
	}
}

func TestWriteJSONAtomicKeepsHebrewAndIndents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	payload := []map[string]any{{"word": "בְּרֵאשִׁית", "start": 0.5}}

	if err := WriteJSONAtomic(path, payload); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(got)
	if !strings.Contains(text, "בְּרֵאשִׁית") {
		t.Fatalf("expected raw Hebrew text, got %s", text)
	}
	if !strings.Contains(text, "\n        \"start\"") {
		t.Fatalf("expected four-space indentation, got %s", text)
	}
}

func TestHashTextAndFilesFramesFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	if err := os.WriteFile(a, []byte("ab"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("c"), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := HashTextAndFiles("", a, b)
	if err != nil {
		t.Fatal(err)
	}
	again, err := HashTextAndFiles("", a, b)
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Fatal("hash should be deterministic")
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}

	// Same concatenated bytes, different split.
	if err := os.WriteFile(a, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("bc"), 0o644); err != nil {
		t.Fatal(err)
	}
	shifted, err := HashTextAndFiles("", a, b)
	if err != nil {
		t.Fatal(err)
	}
	if shifted == first {
		t.Fatal("length prefix should distinguish file boundaries")
	}

	if _, err := HashTextAndFiles("", filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHashTextAndFilesFramesText(t *testing.T) {
	x, err := HashTextAndFiles("x")
	if err != nil {
		t.Fatal(err)
	}
	y, err := HashTextAndFiles("y")
	if err != nil {
		t.Fatal(err)
	}
	if x == y {
		t.Fatal("different input should hash differently")
	}
}
