package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hebrewtutor/internal/audiofile"
	"hebrewtutor/internal/config"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = byte(i % 251)
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteBook writes a UXLC-style XML file for book into the content
// directory. chapters[c][v] lists the words of verse v+1 in chapter c+1.
func WriteBook(t testing.TB, cfg *config.Config, book string, chapters [][][]string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<Tanach>\n")
	fmt.Fprintf(&b, "  <book name=%q>\n", book)
	for ci, verses := range chapters {
		fmt.Fprintf(&b, "    <chapter n=\"%d\">\n", ci+1)
		for vi, words := range verses {
			fmt.Fprintf(&b, "      <verse n=\"%d\">", vi+1)
			for _, w := range words {
				fmt.Fprintf(&b, "<w>%s</w>", w)
			}
			b.WriteString("</verse>\n")
		}
		b.WriteString("    </chapter>\n")
	}
	b.WriteString("  </book>\n</Tanach>\n")

	path := filepath.Join(cfg.Paths.ContentDir, strings.ReplaceAll(book, " ", "_")+".xml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write book %s: %v", book, err)
	}
	return path
}

// WriteAudio places a placeholder recording where the resolver expects the
// chapter's audio and returns its path.
func WriteAudio(t testing.TB, cfg *config.Config, book string, chapter int) string {
	t.Helper()

	resolver := audiofile.NewResolver(audiofile.Options{
		Dir:          cfg.Paths.AudioDir,
		Prefix:       cfg.Audio.Prefix,
		Extension:    cfg.Audio.Extension,
		ChapterWidth: cfg.Audio.ChapterWidth,
	})
	name, err := resolver.FileName(book, chapter)
	if err != nil {
		t.Fatalf("audio file name for %s %d: %v", book, chapter, err)
	}
	path := filepath.Join(cfg.Paths.AudioDir, name)
	WriteFile(t, path, 1024)
	return path
}
