package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	bookKey      contextKey = "book"
	chapterKey   contextKey = "chapter"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithChapter annotates context with the book and chapter being processed.
func WithChapter(ctx context.Context, book string, chapter int) context.Context {
	if book != "" {
		ctx = context.WithValue(ctx, bookKey, book)
	}
	if chapter > 0 {
		ctx = context.WithValue(ctx, chapterKey, chapter)
	}
	return ctx
}

// BookFromContext returns the book name if present.
func BookFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(bookKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// ChapterFromContext returns the chapter number if present.
func ChapterFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(chapterKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}
