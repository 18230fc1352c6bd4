package audiofile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hebrewtutor/internal/services"
)

// Resolver maps (book, chapter) onto a chapter recording in a directory.
//
// Files follow <prefix><code><chapter>.<ext>, for example t0101.mp3 for
// Genesis 1 and t26023.mp3 for Psalm 23. One-chapter books omit the chapter
// digits (t16.mp3 for Obadiah).
type Resolver struct {
	dir       string
	prefix    string
	extension string
	widths    map[string]int
}

// Options configures a Resolver.
type Options struct {
	Dir       string
	Prefix    string
	Extension string
	// ChapterWidth overrides the chapter digit count per book name.
	ChapterWidth map[string]int
}

// NewResolver builds a resolver from opts.
func NewResolver(opts Options) *Resolver {
	widths := make(map[string]int, len(opts.ChapterWidth))
	for book, width := range opts.ChapterWidth {
		widths[canonicalBook(book)] = width
	}
	ext := strings.TrimPrefix(strings.TrimSpace(opts.Extension), ".")
	if ext == "" {
		ext = "mp3"
	}
	return &Resolver{
		dir:       opts.Dir,
		prefix:    opts.Prefix,
		extension: ext,
		widths:    widths,
	}
}

// FileName returns the expected recording name without checking the disk.
func (r *Resolver) FileName(book string, chapter int) (string, error) {
	if chapter <= 0 {
		return "", services.Wrap(services.ErrValidation, "audio", "file name",
			fmt.Sprintf("chapter must be positive, got %d", chapter), nil)
	}
	key := canonicalBook(book)
	entry, ok := tanakh[key]
	if !ok {
		return "", services.Wrap(services.ErrNotFound, "audio", "file name",
			fmt.Sprintf("no recording naming rule for book %q", book), nil)
	}
	width := entry.width
	if override, ok := r.widths[key]; ok {
		width = override
	}
	if width == 0 {
		if chapter != 1 {
			return "", services.Wrap(services.ErrNotFound, "audio", "file name",
				fmt.Sprintf("%s has a single chapter", book), nil)
		}
		return fmt.Sprintf("%s%s.%s", r.prefix, entry.code, r.extension), nil
	}
	return fmt.Sprintf("%s%s%0*d.%s", r.prefix, entry.code, width, chapter, r.extension), nil
}

// Resolve returns the absolute path of an existing chapter recording. A
// missing file or unknown book yields an error marked services.ErrNotFound.
func (r *Resolver) Resolve(book string, chapter int) (string, error) {
	name, err := r.FileName(book, chapter)
	if err != nil {
		return "", err
	}
	path, err := filepath.Abs(filepath.Join(r.dir, name))
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "audio", "resolve", "Failed to resolve audio directory", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", services.Wrap(services.ErrNotFound, "audio", "resolve",
				fmt.Sprintf("no recording for %s %d (expected %s)", book, chapter, name), nil)
		}
		return "", services.Wrap(services.ErrTransient, "audio", "resolve", "Failed to stat recording", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return "", services.Wrap(services.ErrNotFound, "audio", "resolve",
			fmt.Sprintf("recording %s is empty", name), nil)
	}
	return path, nil
}
