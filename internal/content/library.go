package content

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"
	"github.com/ulikunitz/xz"

	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/services"
)

type book struct {
	info     BookInfo
	chapters map[int][]Verse
}

// Library provides chapter text from the content directory.
type Library struct {
	dir    string
	logger *slog.Logger

	once  sync.Once
	err   error
	books map[string]*book
	order []string
}

// NewLibrary returns a library over dir. Nothing is read until first use.
func NewLibrary(dir string, logger *slog.Logger) *Library {
	return &Library{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "content"),
	}
}

// Load parses the content directory if it has not been parsed yet.
func (l *Library) Load() error {
	l.once.Do(func() {
		l.err = l.load()
	})
	return l.err
}

// Books lists loaded books in file order.
func (l *Library) Books() ([]BookInfo, error) {
	if err := l.Load(); err != nil {
		return nil, err
	}
	out := make([]BookInfo, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.books[key].info)
	}
	return out, nil
}

// Chapters returns the sorted chapter numbers of a book.
func (l *Library) Chapters(name string) ([]int, error) {
	b, err := l.book(name)
	if err != nil {
		return nil, err
	}
	numbers := make([]int, 0, len(b.chapters))
	for n := range b.chapters {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// ChapterWords returns the verse-structured words of one chapter. Unknown
// books and chapters return an error marked services.ErrNotFound.
func (l *Library) ChapterWords(name string, chapter int) (Chapter, error) {
	b, err := l.book(name)
	if err != nil {
		return Chapter{}, err
	}
	verses, ok := b.chapters[chapter]
	if !ok {
		return Chapter{}, services.Wrap(services.ErrNotFound, "content", "chapter words",
			fmt.Sprintf("%s has no chapter %d", b.info.Name, chapter), nil)
	}
	copied := make([]Verse, len(verses))
	for i, v := range verses {
		copied[i] = Verse{Number: v.Number, Words: append([]string(nil), v.Words...)}
	}
	return Chapter{Book: b.info.Name, Number: chapter, Verses: copied}, nil
}

// VerseText returns one verse joined with single spaces.
func (l *Library) VerseText(name string, chapter, verse int) (string, error) {
	ch, err := l.ChapterWords(name, chapter)
	if err != nil {
		return "", err
	}
	for _, v := range ch.Verses {
		if v.Number == verse {
			return strings.Join(v.Words, " "), nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "content", "verse text",
		fmt.Sprintf("%s %d has no verse %d", ch.Book, chapter, verse), nil)
}

func (l *Library) book(name string) (*book, error) {
	if err := l.Load(); err != nil {
		return nil, err
	}
	b, ok := l.books[bookKey(name)]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "content", "lookup book",
			fmt.Sprintf("book %q is not in the content library", name), nil)
	}
	return b, nil
}

func bookKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (l *Library) load() error {
	l.books = make(map[string]*book)
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.WarnWithContext(l.logger, "content directory missing; no books available", "content_dir_missing",
				logging.String("dir", l.dir),
				logging.String(logging.FieldErrorHint, "place UXLC XML files in paths.content_dir"),
				logging.String(logging.FieldImpact, "every chapter request returns not found"),
			)
			return nil
		}
		return services.Wrap(services.ErrConfiguration, "content", "read dir", "Failed to list content directory", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isContentFile(entry.Name()) {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		books, err := parseFile(path)
		if err != nil {
			logging.WarnWithContext(l.logger, "content file skipped", "content_parse_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the file is well-formed UXLC XML"),
				logging.String(logging.FieldImpact, "books in this file are unavailable"),
			)
			continue
		}
		for _, b := range books {
			key := bookKey(b.info.Name)
			if _, dup := l.books[key]; dup {
				logging.WarnWithContext(l.logger, "duplicate book ignored", "content_duplicate_book",
					logging.String(logging.FieldBook, b.info.Name),
					logging.String("path", path),
					logging.String(logging.FieldImpact, "the first file defining the book wins"),
				)
				continue
			}
			l.books[key] = b
			l.order = append(l.order, key)
		}
	}

	l.logger.Info("content library loaded",
		logging.String(logging.FieldEventType, "content_loaded"),
		logging.Int("books", len(l.order)),
		logging.String("dir", l.dir),
	)
	return nil
}

// isContentFile accepts *.xml and *.xml.xz, skipping the tanach.xml index and
// its schema, which hold metadata rather than text.
func isContentFile(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "tanach.xml") || strings.Contains(lower, "tanach.xsd") {
		return false
	}
	return strings.HasSuffix(lower, ".xml") || strings.HasSuffix(lower, ".xml.xz")
}

func openContent(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xz") {
		return f, nil
	}
	r, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open xz stream: %w", err)
	}
	return struct {
		io.Reader
		io.Closer
	}{r, f}, nil
}

func parseFile(path string) ([]*book, error) {
	rc, err := openContent(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	doc, err := xmlquery.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	bookNodes := xmlquery.Find(doc, "//*[local-name()='book']")
	if len(bookNodes) == 0 {
		return nil, fmt.Errorf("no <book> element")
	}

	fallback := titleFromHeader(doc)
	if fallback == "" {
		fallback = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ".xz"), ".xml")
	}

	books := make([]*book, 0, len(bookNodes))
	for _, node := range bookNodes {
		b := &book{
			info: BookInfo{
				Name:       bookName(node, fallback),
				HebrewName: hebrewName(node),
				Source:     filepath.Base(path),
			},
			chapters: make(map[int][]Verse),
		}
		for _, chapterNode := range xmlquery.Find(node, "./*[local-name()='chapter' or local-name()='c']") {
			n, ok := numberAttr(chapterNode)
			if !ok {
				continue
			}
			var verses []Verse
			for _, verseNode := range xmlquery.Find(chapterNode, "./*[local-name()='verse' or local-name()='v']") {
				vn, ok := numberAttr(verseNode)
				if !ok {
					continue
				}
				verses = append(verses, Verse{Number: vn, Words: verseWords(verseNode)})
			}
			b.chapters[n] = verses
		}
		b.info.Chapters = len(b.chapters)
		books = append(books, b)
	}
	return books, nil
}

func titleFromHeader(doc *xmlquery.Node) string {
	node := xmlquery.FindOne(doc, "//*[local-name()='teiHeader']//*[local-name()='titleStmt']/*[local-name()='title'][@level='a' and @type='main']")
	if node == nil {
		return ""
	}
	return strings.TrimSpace(node.InnerText())
}

func bookName(node *xmlquery.Node, fallback string) string {
	if name := strings.TrimSpace(node.SelectAttr("name")); name != "" {
		return name
	}
	if child := xmlquery.FindOne(node, "./*[local-name()='names']/*[local-name()='name']"); child != nil {
		if name := strings.TrimSpace(child.InnerText()); name != "" {
			return name
		}
	}
	return fallback
}

func hebrewName(node *xmlquery.Node) string {
	if name := strings.TrimSpace(node.SelectAttr("namehebrew")); name != "" {
		return name
	}
	if child := xmlquery.FindOne(node, "./*[local-name()='names']/*[local-name()='hebrewname']"); child != nil {
		return strings.TrimSpace(child.InnerText())
	}
	return ""
}

func numberAttr(node *xmlquery.Node) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(node.SelectAttr("n")))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// verseWords collects <w> descendants. Only a word's own text nodes count, so
// editorial notes nested inside a word are not glued onto it. Morpheme
// separators ("/") are removed.
func verseWords(verse *xmlquery.Node) []string {
	nodes := xmlquery.Find(verse, ".//*[local-name()='w']")
	words := make([]string, 0, len(nodes))
	for _, w := range nodes {
		var b strings.Builder
		for child := w.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.TextNode || child.Type == xmlquery.CharDataNode {
				b.WriteString(child.Data)
			}
		}
		if text := strings.TrimSpace(strings.ReplaceAll(b.String(), "/", "")); text != "" {
			words = append(words, text)
		}
	}
	return words
}
