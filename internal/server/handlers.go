package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hebrewtutor/internal/alignment"
	"hebrewtutor/internal/content"
	"hebrewtutor/internal/history"
	"hebrewtutor/internal/language"
	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/preflight"
	"hebrewtutor/internal/services"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Ready         bool               `json:"ready"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	Transcription bool               `json:"transcription"`
	Language      string             `json:"language,omitempty"`
	RTL           bool               `json:"rtl"`
	Checks        []preflight.Result `json:"checks,omitempty"`
}

// BooksResponse is the body of GET /api/books.
type BooksResponse struct {
	Books []content.BookInfo `json:"books"`
}

// AlignmentsResponse is the body of GET /api/alignments.
type AlignmentsResponse struct {
	Runs []history.Run `json:"runs"`
}

// VerseResponse is the body of GET /api/chapters/{book}/{chapter}/{verse}.
type VerseResponse struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
}

// InvalidateResponse is the body of DELETE /api/timestamps/{book}/{chapter}.
type InvalidateResponse struct {
	Removed bool `json:"removed"`
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)

		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		level := slog.LevelDebug
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logging.WithContext(ctx, s.logger).Log(ctx, level, "api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(started)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Ready:         true,
		Transcription: s.deps.Transcriber != nil,
		Language:      language.DisplayName(s.opts.Language),
		RTL:           language.IsRTL(s.opts.Language),
	}
	if !s.started.IsZero() {
		resp.UptimeSeconds = time.Since(s.started).Seconds()
	}
	if s.deps.Checks != nil {
		resp.Checks = s.deps.Checks(r.Context())
		resp.Ready = len(preflight.Failed(resp.Checks)) == 0
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBooks(w http.ResponseWriter, _ *http.Request) {
	books, err := s.deps.Library.Books()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if books == nil {
		books = []content.BookInfo{}
	}
	s.writeJSON(w, http.StatusOK, BooksResponse{Books: books})
}

func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	book, chapter, ok := s.chapterParams(w, r)
	if !ok {
		return
	}
	ch, err := s.deps.Library.ChapterWords(book, chapter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleVerse(w http.ResponseWriter, r *http.Request) {
	book, chapter, ok := s.chapterParams(w, r)
	if !ok {
		return
	}
	verse, err := strconv.Atoi(r.PathValue("verse"))
	if err != nil || verse <= 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid verse %q", r.PathValue("verse")))
		return
	}
	text, err := s.deps.Library.VerseText(book, chapter, verse)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, VerseResponse{Book: book, Chapter: chapter, Verse: verse, Text: text})
}

func (s *Server) handleTimestamps(w http.ResponseWriter, r *http.Request) {
	book, chapter, ok := s.chapterParams(w, r)
	if !ok {
		return
	}
	force := parseBool(r.URL.Query().Get("force"))
	result, err := s.deps.Timings.Generate(r.Context(), book, chapter, force)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	words := result.Words
	if words == nil {
		words = []alignment.TimedWord{}
	}
	if result.CacheHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	s.writeJSON(w, http.StatusOK, words)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	book, chapter, ok := s.chapterParams(w, r)
	if !ok {
		return
	}
	removed, err := s.deps.Timings.Invalidate(book, chapter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, InvalidateResponse{Removed: removed})
}

func (s *Server) handleAlignments(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		s.writeJSON(w, http.StatusOK, AlignmentsResponse{Runs: []history.Run{}})
		return
	}
	limit := history.DefaultLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	runs, err := s.deps.Runs.Recent(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	s.writeJSON(w, http.StatusOK, AlignmentsResponse{Runs: runs})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.deps.Transcriber == nil {
		s.writeError(w, http.StatusServiceUnavailable, "transcription is disabled")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	result, err := s.deps.Transcriber.TranscribeUpload(r.Context(), file, header.Filename)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) chapterParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	book := strings.TrimSpace(r.PathValue("book"))
	if book == "" {
		s.writeError(w, http.StatusBadRequest, "book is required")
		return "", 0, false
	}
	chapter, err := strconv.Atoi(r.PathValue("chapter"))
	if err != nil || chapter <= 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid chapter %q", r.PathValue("chapter")))
		return "", 0, false
	}
	return book, chapter, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := services.HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError && !errors.Is(err, services.ErrExternalTool) {
		message = http.StatusText(status)
	}
	s.writeError(w, status, message)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
