package alignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"hebrewtutor/internal/audiofile"
	"hebrewtutor/internal/content"
	"hebrewtutor/internal/fileutil"
	"hebrewtutor/internal/history"
	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/services"
)

const (
	defaultTimeout   = 15 * time.Minute
	lockRetryDelay   = 250 * time.Millisecond
	lockFileSuffix   = ".lock"
	transcriptPrefix = "transcript-*.txt"
	syncMapPrefix    = "syncmap-*.json"
)

// ContentSource supplies verse-structured chapter text.
type ContentSource interface {
	ChapterWords(book string, chapter int) (content.Chapter, error)
}

// AudioSource resolves a chapter recording to an absolute path.
type AudioSource interface {
	Resolve(book string, chapter int) (string, error)
}

// History records generation runs. Latest returns the newest successful run.
type History interface {
	Record(ctx context.Context, run history.Run) (history.Run, error)
	Latest(ctx context.Context, key string) (history.Run, bool, error)
}

// Options configures a Service.
type Options struct {
	Language string
	// Timeout bounds one generation, independent of the requesting caller.
	Timeout       time.Duration
	MaxConcurrent int
	Reconcile     ReconcileOptions
	// VerifyContent regenerates cached maps whose chapter text or recording
	// changed since the last successful run.
	VerifyContent bool
	// TempDir holds transcripts and raw engine output. Empty uses os.TempDir.
	TempDir string
}

// Result is the outcome of a Generate call.
type Result struct {
	Words    []TimedWord `json:"words"`
	Report   Report      `json:"report"`
	CacheHit bool        `json:"cache_hit"`
	Path     string      `json:"path"`
	Elapsed  time.Duration
}

// Service orchestrates cache lookup, alignment, reconciliation, and persistence.
type Service struct {
	cache   *Cache
	content ContentSource
	audio   AudioSource
	aligner Aligner
	history History
	opts    Options
	logger  *slog.Logger

	group singleflight.Group
	slots *semaphore.Weighted
}

// NewService wires the collaborators. history may be nil.
func NewService(cache *Cache, src ContentSource, audio AudioSource, aligner Aligner, hist History, opts Options, logger *slog.Logger) *Service {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Service{
		cache:   cache,
		content: src,
		audio:   audio,
		aligner: aligner,
		history: hist,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "alignment"),
		slots:   semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}
}

// Cache exposes the underlying artifact store.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Timestamps returns the word timings for a chapter, generating and caching
// them on a miss. Missing text or audio yields services.ErrNotFound; an
// engine failure yields services.ErrExternalTool.
//
// Timestamps is the entry point for library callers that only need the words.
// The HTTP server and CLI call Generate to also report cache status and the
// reconciliation counts.
func (s *Service) Timestamps(ctx context.Context, book string, chapter int) ([]TimedWord, error) {
	result, err := s.Generate(ctx, book, chapter, false)
	if err != nil {
		return nil, err
	}
	return result.Words, nil
}

// Generate returns the chapter map, regenerating it when force is set or the
// cache has no usable entry. Concurrent calls for one chapter share a single
// generation. A caller whose ctx ends stops waiting; the generation itself
// keeps running until Options.Timeout.
func (s *Service) Generate(ctx context.Context, book string, chapter int, force bool) (Result, error) {
	book = strings.TrimSpace(book)
	if book == "" {
		return Result{}, services.Wrap(services.ErrValidation, "alignment", "timestamps", "book is required", nil)
	}
	if chapter <= 0 {
		return Result{}, services.Wrap(services.ErrValidation, "alignment", "timestamps",
			fmt.Sprintf("chapter must be positive, got %d", chapter), nil)
	}
	ctx = services.WithChapter(ctx, book, chapter)
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldCacheKey, CacheKey(book, chapter)))

	if !force {
		if words, ok := s.cache.Lookup(book, chapter); ok {
			if s.fresh(ctx, logger, book, chapter) {
				logger.Debug("alignment cache decision", logging.Args(logging.DecisionAttrs("alignment_cache", "hit", "cached_map_present")...)...)
				return Result{Words: words, CacheHit: true, Path: s.cache.Path(book, chapter)}, nil
			}
			force = true
		}
	}

	key := CacheKey(book, chapter)
	if force {
		key += "#force"
	}
	ch := s.group.DoChan(key, func() (any, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout)
		defer cancel()
		return s.generate(genCtx, logger, book, chapter, force)
	})

	select {
	case <-ctx.Done():
		return Result{}, services.Wrap(services.ErrTimeout, "alignment", "timestamps", "request abandoned while alignment continues", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		shared := res.Val.(Result)
		shared.Words = append([]TimedWord(nil), shared.Words...)
		if res.Shared {
			logger.Debug("alignment shared with concurrent request")
		}
		return shared, nil
	}
}

// Invalidate removes a chapter's cached map.
func (s *Service) Invalidate(book string, chapter int) (bool, error) {
	return s.cache.Remove(book, chapter)
}

// fresh reports whether a cached map still matches its inputs. It is always
// true unless content verification is enabled and history shows a different
// hash for the current text and recording.
func (s *Service) fresh(ctx context.Context, logger *slog.Logger, book string, chapter int) bool {
	if !s.opts.VerifyContent || s.history == nil {
		return true
	}
	last, ok, err := s.history.Latest(ctx, CacheKey(book, chapter))
	if err != nil || !ok || last.ContentHash == "" {
		return true
	}
	ch, err := s.content.ChapterWords(book, chapter)
	if err != nil {
		return true
	}
	audioPath, err := s.audio.Resolve(book, chapter)
	if err != nil {
		return true
	}
	hash, err := fileutil.HashTextAndFiles(Transcript(Flatten(ch.Verses)), audioPath)
	if err != nil || hash == last.ContentHash {
		return true
	}
	logger.Info("alignment cache decision", logging.Args(logging.DecisionAttrs("alignment_cache", "stale", "content_hash_changed")...)...)
	return false
}

func (s *Service) generate(ctx context.Context, logger *slog.Logger, book string, chapter int, force bool) (Result, error) {
	started := time.Now()
	path := s.cache.Path(book, chapter)

	if err := os.MkdirAll(s.cache.Dir(), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "alignment", "prepare", "Failed to create sync maps directory", err)
	}
	lock := flock.New(path + lockFileSuffix)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return Result{}, services.Wrap(services.ErrTimeout, "alignment", "lock", "Timed out waiting for another alignment of this chapter", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if !force {
		if words, ok := s.cache.Lookup(book, chapter); ok {
			logger.Info("alignment cache decision", logging.Args(logging.DecisionAttrs("alignment_cache", "hit", "generated_by_other_process")...)...)
			return Result{Words: words, CacheHit: true, Path: path}, nil
		}
	}

	run := history.Run{Key: CacheKey(book, chapter), Book: book, Chapter: chapter}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		run.RequestID = rid
	}

	result, err := s.align(ctx, logger, book, chapter, &run)
	run.Elapsed = time.Since(started)
	if err != nil {
		run.Status = history.StatusFailed
		run.Error = err.Error()
		s.record(ctx, logger, run)
		if !services.IsClientError(err) {
			logging.ErrorWithContext(logger, "alignment failed", "alignment_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the tool log under log_dir/tool and that aeneas is installed"),
			)
		}
		return Result{}, err
	}

	run.Status = history.StatusSucceeded
	s.record(ctx, logger, run)
	result.Path = path
	result.Elapsed = run.Elapsed
	logger.Info("alignment generated",
		logging.String(logging.FieldEventType, "alignment_generated"),
		logging.Int("words", result.Report.Words),
		logging.Int("fragments", result.Report.Fragments),
		logging.Float64("audio_seconds", run.AudioSeconds),
		logging.Duration("elapsed", run.Elapsed),
	)
	return result, nil
}

func (s *Service) align(ctx context.Context, logger *slog.Logger, book string, chapter int, run *history.Run) (Result, error) {
	ch, err := s.content.ChapterWords(book, chapter)
	if err != nil {
		return Result{}, err
	}
	audioPath, err := s.audio.Resolve(book, chapter)
	if err != nil {
		return Result{}, err
	}
	if info, perr := audiofile.Probe(audioPath); perr == nil {
		run.AudioSeconds = info.Duration.Seconds()
	}

	words := Flatten(ch.Verses)
	transcript := Transcript(words)
	run.Words = len(words)
	if hash, herr := fileutil.HashTextAndFiles(transcript, audioPath); herr == nil {
		run.ContentHash = hash
	}

	var fragments []Fragment
	if len(words) > 0 {
		fragments, err = s.invoke(ctx, logger, transcript, audioPath)
		if err != nil {
			return Result{}, err
		}
	}

	timed, report := Reconcile(words, fragments, s.opts.Reconcile)
	run.Fragments = report.Fragments
	run.Overrun = report.Overrun
	run.Underrun = report.Underrun
	run.Mismatched = report.Mismatched
	run.Clamped = report.Clamped
	s.logReport(logger, report)

	if err := s.cache.Store(book, chapter, timed); err != nil {
		return Result{}, err
	}
	return Result{Words: timed, Report: report}, nil
}

// invoke runs the aligner inside a worker slot. The transcript and raw
// engine output live in temporary files that are removed on every path.
func (s *Service) invoke(ctx context.Context, logger *slog.Logger, transcript, audioPath string) ([]Fragment, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, services.Wrap(services.ErrTimeout, "alignment", "queue", "Timed out waiting for an aligner slot", err)
	}
	defer s.slots.Release(1)

	textPath, err := s.tempFile(transcriptPrefix, transcript)
	if err != nil {
		return nil, err
	}
	defer s.removeTemp(logger, textPath)

	outputPath, err := s.tempFile(syncMapPrefix, "")
	if err != nil {
		return nil, err
	}
	defer s.removeTemp(logger, outputPath)

	fragments, err := s.aligner.Align(ctx, Request{
		Language:   s.opts.Language,
		TextPath:   textPath,
		AudioPath:  audioPath,
		OutputPath: outputPath,
	})
	if err != nil {
		if errors.Is(err, services.ErrExternalTool) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrExternalTool, "alignment", "align", "Forced aligner failed", err)
	}
	for i, f := range fragments {
		if !finite(f.Begin) || !finite(f.End) {
			return nil, services.Wrap(services.ErrExternalTool, "alignment", "align",
				fmt.Sprintf("Forced aligner returned a non-finite offset in fragment %d", i), nil)
		}
	}
	return fragments, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *Service) tempFile(pattern, body string) (string, error) {
	f, err := os.CreateTemp(s.opts.TempDir, pattern)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "alignment", "temp file", "Failed to create temporary file", err)
	}
	name := f.Name()
	if _, err := f.WriteString(body); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", services.Wrap(services.ErrTransient, "alignment", "temp file", "Failed to write temporary file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", services.Wrap(services.ErrTransient, "alignment", "temp file", "Failed to close temporary file", err)
	}
	return name, nil
}

func (s *Service) removeTemp(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.WarnWithContext(logger, "temporary alignment file not removed", "temp_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the temp directory"),
			logging.String(logging.FieldImpact, "stray file left in the temp directory"),
		)
	}
}

func (s *Service) logReport(logger *slog.Logger, report Report) {
	if report.Overrun > 0 {
		logging.WarnWithContext(logger, "aligner returned more fragments than words; extra fragments dropped", "reconcile_overrun",
			logging.Int("words", report.Words),
			logging.Int("fragments", report.Fragments),
			logging.Int("dropped", report.Overrun),
			logging.String(logging.FieldErrorHint, "check the chapter text matches the recording"),
			logging.String(logging.FieldImpact, "trailing audio is not highlighted"),
		)
	}
	if report.Underrun > 0 {
		logging.WarnWithContext(logger, "aligner returned fewer fragments than words; placeholder timing used", "reconcile_underrun",
			logging.Int("words", report.Words),
			logging.Int("fragments", report.Fragments),
			logging.Int("filled", report.Underrun),
			logging.String(logging.FieldErrorHint, "check the chapter text matches the recording"),
			logging.String(logging.FieldImpact, "trailing words get short placeholder highlights"),
		)
	}
	if report.Clamped > 0 {
		logger.Debug("fragments with end before begin clamped", logging.Int("clamped", report.Clamped))
	}
	if report.Suspect() {
		logging.WarnWithContext(logger, "most fragments do not match their words; alignment is suspect", "reconcile_suspect",
			logging.Int("mismatched", report.Mismatched),
			logging.Int("bound", report.Bound),
			logging.Alert("alignment_suspect"),
			logging.String(logging.FieldErrorHint, "a merged or skipped word early in the chapter shifts every later binding"),
			logging.String(logging.FieldImpact, "highlighting may drift from the narration"),
		)
	}
}

func (s *Service) record(ctx context.Context, logger *slog.Logger, run history.Run) {
	if s.history == nil {
		return
	}
	if _, err := s.history.Record(ctx, run); err != nil {
		logging.WarnWithContext(logger, "alignment run not recorded", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check data_dir permissions and disk space"),
			logging.String(logging.FieldImpact, "history and stale-cache checks miss this run"),
		)
	}
}
