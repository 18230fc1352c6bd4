package alignment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"hebrewtutor/internal/fileutil"
	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/services"
	"hebrewtutor/internal/textutil"
)

var cacheFilePattern = regexp.MustCompile(`^(.*)_ch(\d+)\.json$`)

// CacheKey returns the file stem for a chapter: the sanitized book name and
// the chapter number, e.g. Song_of_Songs_ch2.
func CacheKey(book string, chapter int) string {
	return fmt.Sprintf("%s_ch%d", textutil.SanitizeKey(book), chapter)
}

// CacheEntry describes a stored timing map.
type CacheEntry struct {
	Key       string    `json:"key"`
	Book      string    `json:"book"`
	Chapter   int       `json:"chapter"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cache stores timing maps as one JSON file per chapter.
type Cache struct {
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewCache returns a cache rooted at dir. The directory is created on first write.
func NewCache(dir string, logger *slog.Logger) *Cache {
	return &Cache{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "alignment_cache"),
	}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the artifact location for a chapter.
func (c *Cache) Path(book string, chapter int) string {
	return filepath.Join(c.dir, CacheKey(book, chapter)+".json")
}

// Lookup returns the stored map for a chapter. Missing, unreadable, or
// malformed files are reported as a miss; the latter two are logged.
func (c *Cache) Lookup(book string, chapter int) ([]TimedWord, bool) {
	path := c.Path(book, chapter)

	c.mu.RLock()
	data, err := os.ReadFile(path)
	c.mu.RUnlock()
	if err != nil {
		if !os.IsNotExist(err) {
			c.warnCorrupt(path, err)
		}
		return nil, false
	}

	var words []TimedWord
	if err := json.Unmarshal(data, &words); err != nil {
		c.warnCorrupt(path, err)
		return nil, false
	}
	if words == nil {
		c.warnCorrupt(path, fmt.Errorf("artifact holds null"))
		return nil, false
	}
	return words, true
}

// Store replaces the chapter's map. The file is written to a temporary
// sibling and renamed into place.
func (c *Cache) Store(book string, chapter int, words []TimedWord) error {
	if words == nil {
		words = []TimedWord{}
	}
	path := c.Path(book, chapter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := fileutil.WriteJSONAtomic(path, words); err != nil {
		return services.Wrap(services.ErrTransient, "alignment", "cache store", "Failed to persist timing map", err)
	}
	return nil
}

// Remove deletes a chapter's map. Removing a missing map is not an error.
func (c *Cache) Remove(book string, chapter int) (bool, error) {
	path := c.Path(book, chapter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, services.Wrap(services.ErrTransient, "alignment", "cache remove", "Failed to remove timing map", err)
	}
	return true, nil
}

// List returns stored maps ordered by book, then chapter.
func (c *Cache) List() ([]CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrTransient, "alignment", "cache list", "Failed to read sync maps directory", err)
	}

	var out []CacheEntry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		m := cacheFilePattern.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		chapter, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, CacheEntry{
			Key:       strings.TrimSuffix(de.Name(), ".json"),
			Book:      strings.ReplaceAll(m[1], "_", " "),
			Chapter:   chapter,
			Path:      filepath.Join(c.dir, de.Name()),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Book != out[j].Book {
			return out[i].Book < out[j].Book
		}
		return out[i].Chapter < out[j].Chapter
	})
	return out, nil
}

// Clear removes every stored map and returns how many were deleted.
func (c *Cache) Clear() (int, error) {
	entries, err := c.List()
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, entry := range entries {
		if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
			return removed, services.Wrap(services.ErrTransient, "alignment", "cache clear", "Failed to remove timing map", err)
		}
		removed++
	}
	c.removeIdleLocks()
	return removed, nil
}

// removeIdleLocks deletes generation lock files that no process holds. A lock
// held by a running generation is left in place.
func (c *Cache) removeIdleLocks() {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json"+lockFileSuffix) {
			continue
		}
		path := filepath.Join(c.dir, name)
		lock := flock.New(path)
		locked, err := lock.TryLock()
		if err != nil || !locked {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.WarnWithContext(c.logger, "generation lock file not removed", "cache_lock_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on sync_maps_dir"),
				logging.String(logging.FieldImpact, "stale lock file left in sync_maps_dir"),
			)
		}
		_ = lock.Unlock()
	}
}

func (c *Cache) warnCorrupt(path string, err error) {
	logging.WarnWithContext(c.logger, "cached timing map unreadable; regenerating", "cache_corruption",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the map will be rebuilt; remove the file if this repeats"),
		logging.String(logging.FieldImpact, "chapter alignment runs again"),
	)
}
