package alignment

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hebrewtutor/internal/content"
	"hebrewtutor/internal/history"
	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/services"
)

type stubContent struct {
	chapters map[string]content.Chapter
}

func (s stubContent) ChapterWords(book string, chapter int) (content.Chapter, error) {
	ch, ok := s.chapters[CacheKey(book, chapter)]
	if !ok {
		return content.Chapter{}, services.Wrap(services.ErrNotFound, "content", "chapter", "no text", nil)
	}
	return ch, nil
}

type stubAudio struct {
	path string
}

func (s stubAudio) Resolve(string, int) (string, error) {
	if s.path == "" {
		return "", services.Wrap(services.ErrNotFound, "audio", "resolve", "no recording", nil)
	}
	return s.path, nil
}

type stubAligner struct {
	calls     atomic.Int32
	fragments []Fragment
	err       error
	started   chan struct{}
	release   chan struct{}
	seen      []Request
	mu        sync.Mutex
}

func (s *stubAligner) Align(ctx context.Context, req Request) ([]Fragment, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.seen = append(s.seen, req)
	s.mu.Unlock()
	if _, err := os.Stat(req.TextPath); err != nil {
		return nil, err
	}
	if s.started != nil {
		select {
		case s.started <- struct{}{}:
		default:
		}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.fragments, nil
}

type stubHistory struct {
	mu     sync.Mutex
	runs   []history.Run
	latest map[string]history.Run
}

func (s *stubHistory) Record(_ context.Context, run history.Run) (history.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return run, nil
}

func (s *stubHistory) Latest(_ context.Context, key string) (history.Run, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.latest[key]
	return run, ok, nil
}

func amosChapter() content.Chapter {
	return content.Chapter{
		Book:   "Amos",
		Number: 1,
		Verses: []content.Verse{
			{Number: 1, Words: []string{"א", "ב"}},
			{Number: 2, Words: []string{"ג"}},
		},
	}
}

type fixture struct {
	service *Service
	aligner *stubAligner
	history *stubHistory
	tempDir string
	audio   string
}

func newFixture(t *testing.T, aligner *stubAligner, audio bool) fixture {
	t.Helper()
	base := t.TempDir()
	tempDir := filepath.Join(base, "tmp")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	audioPath := ""
	if audio {
		audioPath = filepath.Join(base, "t1501.mp3")
		if err := os.WriteFile(audioPath, []byte("not really mp3"), 0o644); err != nil {
			t.Fatalf("write audio: %v", err)
		}
	}
	src := stubContent{chapters: map[string]content.Chapter{CacheKey("Amos", 1): amosChapter()}}
	hist := &stubHistory{latest: map[string]history.Run{}}
	cache := NewCache(filepath.Join(base, "sync_maps"), logging.NewNop())
	svc := NewService(cache, src, stubAudio{path: audioPath}, aligner, hist, Options{
		Language: "he",
		Timeout:  5 * time.Second,
		TempDir:  tempDir,
	}, logging.NewNop())
	return fixture{service: svc, aligner: aligner, history: hist, tempDir: tempDir, audio: audioPath}
}

func threeFragments() []Fragment {
	return []Fragment{
		{Text: "א", Begin: 0, End: 0.5},
		{Text: "ב", Begin: 0.5, End: 1.0},
		{Text: "ג", Begin: 1.0, End: 1.5},
	}
}

func assertTempEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp dir empty, found %d entries", len(entries))
	}
}

func TestTimestampsGeneratesAndCaches(t *testing.T) {
	f := newFixture(t, &stubAligner{fragments: threeFragments()}, true)
	ctx := context.Background()

	words, err := f.service.Timestamps(ctx, "Amos", 1)
	if err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	want := []TimedWord{
		{Word: "א", Start: 0, End: 0.5, VerseIndex: 0, WordIndex: 0},
		{Word: "ב", Start: 0.5, End: 1.0, VerseIndex: 0, WordIndex: 1},
		{Word: "ג", Start: 1.0, End: 1.5, VerseIndex: 1, WordIndex: 0},
	}
	if len(words) != len(want) {
		t.Fatalf("expected %d words, got %d", len(want), len(words))
	}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("word %d = %+v, want %+v", i, words[i], want[i])
		}
	}

	if _, err := os.Stat(f.service.Cache().Path("Amos", 1)); err != nil {
		t.Fatalf("expected cached artifact: %v", err)
	}
	assertTempEmpty(t, f.tempDir)

	req := f.aligner.seen[0]
	if req.OutputPath == f.service.Cache().Path("Amos", 1) {
		t.Fatalf("aligner wrote directly to the cache path")
	}
	if req.AudioPath != f.audio {
		t.Fatalf("audio path = %q, want %q", req.AudioPath, f.audio)
	}

	if len(f.history.runs) != 1 || f.history.runs[0].Status != history.StatusSucceeded {
		t.Fatalf("expected one succeeded run, got %+v", f.history.runs)
	}
	if f.history.runs[0].ContentHash == "" || f.history.runs[0].Words != 3 {
		t.Fatalf("unexpected run record %+v", f.history.runs[0])
	}

	again, err := f.service.Timestamps(ctx, "Amos", 1)
	if err != nil {
		t.Fatalf("second Timestamps: %v", err)
	}
	if len(again) != 3 {
		t.Fatalf("expected cached words, got %d", len(again))
	}
	if got := f.aligner.calls.Load(); got != 1 {
		t.Fatalf("expected aligner called once, got %d", got)
	}
}

func TestTimestampsUnderrunUsesPlaceholder(t *testing.T) {
	f := newFixture(t, &stubAligner{fragments: threeFragments()[:2]}, true)

	words, err := f.service.Timestamps(context.Background(), "Amos", 1)
	if err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}
	last := words[2]
	if last.Start != 1.0 || !approx(last.End, 1.1) {
		t.Fatalf("placeholder = [%v,%v], want [1.0,1.1]", last.Start, last.End)
	}
	if f.history.runs[0].Underrun != 1 {
		t.Fatalf("expected underrun recorded, got %+v", f.history.runs[0])
	}
}

func TestTimestampsOverrunDropsExtras(t *testing.T) {
	frags := append(threeFragments(), Fragment{Text: "ד", Begin: 1.5, End: 2.0})
	f := newFixture(t, &stubAligner{fragments: frags}, true)

	words, err := f.service.Timestamps(context.Background(), "Amos", 1)
	if err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("expected exactly 3 words, got %d", len(words))
	}
	if words[2].End != 1.5 {
		t.Fatalf("last word end = %v, want 1.5", words[2].End)
	}
}

func TestTimestampsCacheHitSkipsAligner(t *testing.T) {
	aligner := &stubAligner{err: errors.New("must not be called")}
	f := newFixture(t, aligner, true)
	stored := []TimedWord{{Word: "א", Start: 0, End: 0.4}}
	if err := f.service.Cache().Store("Amos", 1, stored); err != nil {
		t.Fatalf("Store: %v", err)
	}

	result, err := f.service.Generate(context.Background(), "Amos", 1, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !result.CacheHit || len(result.Words) != 1 || result.Words[0] != stored[0] {
		t.Fatalf("expected cached result, got %+v", result)
	}
	if aligner.calls.Load() != 0 {
		t.Fatalf("aligner should not run on a cache hit")
	}
}

func TestTimestampsMissingAudioIsNotFound(t *testing.T) {
	aligner := &stubAligner{fragments: threeFragments()}
	f := newFixture(t, aligner, false)

	_, err := f.service.Timestamps(context.Background(), "Amos", 1)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, statErr := os.Stat(f.service.Cache().Path("Amos", 1)); !os.IsNotExist(statErr) {
		t.Fatalf("expected no artifact, stat err=%v", statErr)
	}
	if aligner.calls.Load() != 0 {
		t.Fatalf("aligner should not run without audio")
	}
	if len(f.history.runs) != 1 || f.history.runs[0].Status != history.StatusFailed {
		t.Fatalf("expected failed run recorded, got %+v", f.history.runs)
	}
}

func TestTimestampsMissingTextIsNotFound(t *testing.T) {
	f := newFixture(t, &stubAligner{}, true)
	_, err := f.service.Timestamps(context.Background(), "Amos", 9)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTimestampsValidation(t *testing.T) {
	f := newFixture(t, &stubAligner{}, true)
	tests := []struct {
		name    string
		book    string
		chapter int
	}{
		{name: "empty book", book: "  ", chapter: 1},
		{name: "zero chapter", book: "Amos", chapter: 0},
		{name: "negative chapter", book: "Amos", chapter: -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Timestamps(context.Background(), tt.book, tt.chapter)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestTimestampsEngineFailure(t *testing.T) {
	f := newFixture(t, &stubAligner{err: errors.New("aeneas crashed")}, true)

	_, err := f.service.Timestamps(context.Background(), "Amos", 1)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if services.HTTPStatus(err) != 500 {
		t.Fatalf("expected 500, got %d", services.HTTPStatus(err))
	}
	if _, statErr := os.Stat(f.service.Cache().Path("Amos", 1)); !os.IsNotExist(statErr) {
		t.Fatalf("failed run must not write an artifact")
	}
	assertTempEmpty(t, f.tempDir)
}

func TestTimestampsNonFiniteOffsetIsEngineFailure(t *testing.T) {
	fragments := threeFragments()
	fragments[0].End = math.NaN()
	f := newFixture(t, &stubAligner{fragments: fragments}, true)

	_, err := f.service.Timestamps(context.Background(), "Amos", 1)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if _, statErr := os.Stat(f.service.Cache().Path("Amos", 1)); !os.IsNotExist(statErr) {
		t.Fatalf("non-finite offsets must not reach the cache")
	}
	assertTempEmpty(t, f.tempDir)
}

func TestTimestampsConcurrentRequestsShareOneRun(t *testing.T) {
	aligner := &stubAligner{
		fragments: threeFragments(),
		started:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
	f := newFixture(t, aligner, true)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			words, err := f.service.Timestamps(context.Background(), "Amos", 1)
			if err == nil && len(words) != 3 {
				err = errors.New("short result")
			}
			errs <- err
		}()
	}

	select {
	case <-aligner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("aligner never started")
	}
	time.Sleep(50 * time.Millisecond)
	close(aligner.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("caller failed: %v", err)
		}
	}
	if got := aligner.calls.Load(); got != 1 {
		t.Fatalf("expected a single aligner run, got %d", got)
	}
}

func TestTimestampsCallerCancelDoesNotAbortGeneration(t *testing.T) {
	aligner := &stubAligner{
		fragments: threeFragments(),
		started:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
	f := newFixture(t, aligner, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.service.Timestamps(ctx, "Amos", 1)
		done <- err
	}()
	<-aligner.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, services.ErrTimeout) {
			t.Fatalf("expected ErrTimeout for abandoned caller, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("caller did not return after cancel")
	}

	close(aligner.release)
	path := f.service.Cache().Path("Amos", 1)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("generation did not complete after caller left")
		}
		time.Sleep(10 * time.Millisecond)
	}
	for {
		f.history.mu.Lock()
		n := len(f.history.runs)
		f.history.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("generation was not recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGenerateForceRegenerates(t *testing.T) {
	aligner := &stubAligner{fragments: threeFragments()}
	f := newFixture(t, aligner, true)
	if err := f.service.Cache().Store("Amos", 1, []TimedWord{{Word: "x"}}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	result, err := f.service.Generate(context.Background(), "Amos", 1, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.CacheHit || len(result.Words) != 3 {
		t.Fatalf("expected fresh result, got %+v", result)
	}
	if aligner.calls.Load() != 1 {
		t.Fatalf("expected aligner to run once")
	}
}

func TestTimestampsCorruptCacheRegenerates(t *testing.T) {
	aligner := &stubAligner{fragments: threeFragments()}
	f := newFixture(t, aligner, true)
	path := f.service.Cache().Path("Amos", 1)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}

	words, err := f.service.Timestamps(context.Background(), "Amos", 1)
	if err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	if len(words) != 3 || aligner.calls.Load() != 1 {
		t.Fatalf("expected regeneration, got %d words and %d calls", len(words), aligner.calls.Load())
	}
}

func TestTimestampsVerifyContentDetectsStaleMap(t *testing.T) {
	aligner := &stubAligner{fragments: threeFragments()}
	f := newFixture(t, aligner, true)
	f.service.opts.VerifyContent = true
	if err := f.service.Cache().Store("Amos", 1, []TimedWord{{Word: "old"}}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	f.history.latest[CacheKey("Amos", 1)] = history.Run{Status: history.StatusSucceeded, ContentHash: "outdated"}

	words, err := f.service.Timestamps(context.Background(), "Amos", 1)
	if err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	if len(words) != 3 || aligner.calls.Load() != 1 {
		t.Fatalf("expected stale map regenerated, got %d words", len(words))
	}
}

func TestTimestampsEmptyChapterSkipsAligner(t *testing.T) {
	aligner := &stubAligner{err: errors.New("must not be called")}
	f := newFixture(t, aligner, true)
	f.service.content = stubContent{chapters: map[string]content.Chapter{
		CacheKey("Amos", 1): {Book: "Amos", Number: 1},
	}}

	words, err := f.service.Timestamps(context.Background(), "Amos", 1)
	if err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	if len(words) != 0 || aligner.calls.Load() != 0 {
		t.Fatalf("expected empty map without aligner, got %d words", len(words))
	}
	cached, ok := f.service.Cache().Lookup("Amos", 1)
	if !ok || len(cached) != 0 {
		t.Fatalf("expected empty cached map, ok=%v len=%d", ok, len(cached))
	}
}

func TestInvalidate(t *testing.T) {
	f := newFixture(t, &stubAligner{fragments: threeFragments()}, true)
	if _, err := f.service.Timestamps(context.Background(), "Amos", 1); err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	removed, err := f.service.Invalidate("Amos", 1)
	if err != nil || !removed {
		t.Fatalf("Invalidate = %v, %v", removed, err)
	}
	removed, err = f.service.Invalidate("Amos", 1)
	if err != nil || removed {
		t.Fatalf("second Invalidate = %v, %v", removed, err)
	}
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
