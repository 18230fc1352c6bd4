package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"

	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/services"
)

const genesisXML = `<?xml version="1.0" encoding="UTF-8"?>
<Tanach>
  <book name="Genesis" namehebrew="בראשית">
    <chapter n="1">
      <verse n="1"><w>בְּ/רֵאשִׁ֖ית</w><w>בָּרָ֣א</w><w>אֱלֹהִ֑ים</w></verse>
      <verse n="2"><w>וְ/הָ/אָ֗רֶץ</w><w> </w><w>הָיְתָ֥ה<x>c</x></w></verse>
    </chapter>
    <chapter n="2">
      <verse n="1"><w>וַ/יְכֻלּ֛וּ</w></verse>
    </chapter>
  </book>
</Tanach>`

const uxlcXML = `<?xml version="1.0" encoding="UTF-8"?>
<Tanach xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader><fileDesc><titleStmt><title level="a" type="main">Obadiah</title></titleStmt></fileDesc></teiHeader>
  <tanach>
    <book>
      <c n="1">
        <v n="1"><w>חֲז֖וֹן</w><q><w>עֹֽבַדְיָ֑ה</w></q></v>
      </c>
    </book>
  </tanach>
</Tanach>`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeXZ(t *testing.T, path, body string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := xz.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Genesis.xml"), genesisXML)
	writeXZ(t, filepath.Join(dir, "Obadiah.xml.xz"), uxlcXML)
	writeFile(t, filepath.Join(dir, "Tanach.xml"), `<Tanach><book name="Index"/></Tanach>`)
	writeFile(t, filepath.Join(dir, "broken.xml"), `<Tanach><book name="Broken"></Tanach>`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	return NewLibrary(dir, logging.NewNop())
}

func TestChapterWords(t *testing.T) {
	lib := newTestLibrary(t)

	ch, err := lib.ChapterWords("genesis", 1)
	if err != nil {
		t.Fatalf("ChapterWords: %v", err)
	}
	if ch.Book != "Genesis" || ch.Number != 1 {
		t.Fatalf("unexpected chapter identity: %+v", ch)
	}
	if len(ch.Verses) != 2 {
		t.Fatalf("expected 2 verses, got %d", len(ch.Verses))
	}
	if got := ch.Verses[0].Words; len(got) != 3 || got[0] != "בְּרֵאשִׁ֖ית" || got[1] != "בָּרָ֣א" {
		t.Fatalf("unexpected verse 1 words: %v", got)
	}
	// Whitespace-only words are skipped and nested notes are not part of the word.
	if got := ch.Verses[1].Words; len(got) != 2 || got[1] != "הָיְתָ֥ה" {
		t.Fatalf("unexpected verse 2 words: %q", got)
	}
}

func TestChapterWordsReturnsCopy(t *testing.T) {
	lib := newTestLibrary(t)
	ch, err := lib.ChapterWords("Genesis", 2)
	if err != nil {
		t.Fatal(err)
	}
	ch.Verses[0].Words[0] = "changed"
	again, err := lib.ChapterWords("Genesis", 2)
	if err != nil {
		t.Fatal(err)
	}
	if again.Verses[0].Words[0] == "changed" {
		t.Fatal("library state should not be mutable through returned chapters")
	}
}

func TestCompressedUXLCBook(t *testing.T) {
	lib := newTestLibrary(t)

	ch, err := lib.ChapterWords("Obadiah", 1)
	if err != nil {
		t.Fatalf("ChapterWords: %v", err)
	}
	if len(ch.Verses) != 1 || len(ch.Verses[0].Words) != 2 {
		t.Fatalf("unexpected Obadiah content: %+v", ch.Verses)
	}
	text, err := lib.VerseText("OBADIAH", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if text != "חֲז֖וֹן עֹֽבַדְיָ֑ה" {
		t.Fatalf("VerseText = %q", text)
	}
}

func TestBooksSkipsMetadataAndBrokenFiles(t *testing.T) {
	lib := newTestLibrary(t)
	books, err := lib.Books()
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %+v", books)
	}
	if books[0].Name != "Genesis" || books[0].HebrewName != "בראשית" || books[0].Chapters != 2 {
		t.Fatalf("unexpected Genesis info: %+v", books[0])
	}
	if books[1].Name != "Obadiah" || books[1].Source != "Obadiah.xml.xz" {
		t.Fatalf("unexpected Obadiah info: %+v", books[1])
	}

	chapters, err := lib.Chapters("Genesis")
	if err != nil {
		t.Fatal(err)
	}
	if len(chapters) != 2 || chapters[0] != 1 || chapters[1] != 2 {
		t.Fatalf("Chapters = %v", chapters)
	}
}

func TestNotFound(t *testing.T) {
	lib := newTestLibrary(t)
	tests := []struct {
		name    string
		book    string
		chapter int
	}{
		{"unknown book", "Leviticus", 1},
		{"unknown chapter", "Genesis", 50},
		{"metadata file", "Index", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lib.ChapterWords(tt.book, tt.chapter)
			if !errors.Is(err, services.ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
	if _, err := lib.VerseText("Genesis", 1, 9); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found verse, got %v", err)
	}
}

func TestMissingDirectoryIsEmpty(t *testing.T) {
	lib := NewLibrary(filepath.Join(t.TempDir(), "absent"), nil)
	books, err := lib.Books()
	if err != nil {
		t.Fatalf("missing directory should not error: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("expected no books, got %v", books)
	}
}
