package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"hebrewtutor/internal/alignment"
	"hebrewtutor/internal/content"
	"hebrewtutor/internal/history"
	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/preflight"
	"hebrewtutor/internal/transcription"
)

// maxUploadBytes bounds POST /api/transcribe bodies.
const maxUploadBytes = 200 << 20

// Timings produces and invalidates chapter word timings.
type Timings interface {
	Generate(ctx context.Context, book string, chapter int, force bool) (alignment.Result, error)
	Invalidate(book string, chapter int) (bool, error)
}

// Library lists and returns chapter text.
type Library interface {
	Books() ([]content.BookInfo, error)
	ChapterWords(book string, chapter int) (content.Chapter, error)
	VerseText(book string, chapter, verse int) (string, error)
}

// Runs lists recorded alignment runs.
type Runs interface {
	Recent(ctx context.Context, limit int) ([]history.Run, error)
}

// Transcriber turns an uploaded recording into text.
type Transcriber interface {
	TranscribeUpload(ctx context.Context, r io.Reader, filename string) (transcription.Result, error)
}

// Deps bundles the collaborators the handlers call. Runs and Transcriber may
// be nil; the matching routes then report the feature as unavailable.
type Deps struct {
	Timings     Timings
	Library     Library
	Runs        Runs
	Transcriber Transcriber
	// Checks reports readiness for /api/status. Nil skips the checks.
	Checks func(ctx context.Context) []preflight.Result
}

// Options configures the listener and instance lock.
type Options struct {
	Bind     string
	LockPath string
	// Language is the alignment language code reported by /api/status.
	Language string
}

// Server serves the JSON API.
type Server struct {
	opts    Options
	deps    Deps
	logger  *slog.Logger
	started time.Time

	lock     *flock.Flock
	listener net.Listener
	server   *http.Server
	running  atomic.Bool
}

// New builds a server. Call Start to listen.
func New(opts Options, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Timings == nil || deps.Library == nil {
		return nil, errors.New("server requires timings and library")
	}
	if strings.TrimSpace(opts.Bind) == "" {
		return nil, errors.New("server requires a bind address")
	}
	s := &Server{
		opts:   opts,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "api-server"),
	}
	if opts.LockPath != "" {
		s.lock = flock.New(opts.LockPath)
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed API with request-ID middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/books", s.handleBooks)
	mux.HandleFunc("GET /api/chapters/{book}/{chapter}", s.handleChapter)
	mux.HandleFunc("GET /api/chapters/{book}/{chapter}/{verse}", s.handleVerse)
	mux.HandleFunc("GET /api/timestamps/{book}/{chapter}", s.handleTimestamps)
	mux.HandleFunc("DELETE /api/timestamps/{book}/{chapter}", s.handleInvalidate)
	mux.HandleFunc("GET /api/alignments", s.handleAlignments)
	mux.HandleFunc("POST /api/transcribe", s.handleTranscribe)
	return s.withRequestID(mux)
}

// Start takes the instance lock and begins serving. The server shuts down
// when ctx ends or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}
	if s.lock != nil {
		ok, err := s.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another hebrewtutor server is already running (lock %s)", s.opts.LockPath)
		}
	}

	listener, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		s.unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.started = time.Now()
	s.running.Store(true)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "server_started"),
		logging.String("address", listener.Addr().String()),
	)
	return nil
}

// Addr reports the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and releases the instance lock.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
	s.unlock()
	s.logger.Info("api server stopped", logging.String(logging.FieldEventType, "server_stopped"))
}

func (s *Server) unlock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release server lock", logging.Error(err))
	}
}
