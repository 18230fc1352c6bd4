package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"hebrewtutor/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "alignment", "aeneas", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"alignment", "aeneas", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", services.Wrap(services.ErrNotFound, "content", "chapter", "missing", nil), http.StatusNotFound},
		{"validation", services.Wrap(services.ErrValidation, "api", "parse", "bad chapter", nil), http.StatusBadRequest},
		{"engine", services.Wrap(services.ErrExternalTool, "alignment", "aeneas", "crashed", errors.New("exit 1")), http.StatusInternalServerError},
		{"timeout", services.Wrap(services.ErrTimeout, "transcription", "whisperx", "slow", nil), http.StatusGatewayTimeout},
		{"engine timeout", services.Wrap(services.ErrExternalTool, "alignment", "aeneas", "failed", services.Wrap(services.ErrTimeout, "", "", "slow", nil)), http.StatusInternalServerError},
		{"unclassified", errors.New("plain"), http.StatusInternalServerError},
		{"rewrapped", fmt.Errorf("outer: %w", services.Wrap(services.ErrNotFound, "", "", "audio", nil)), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsClientError(t *testing.T) {
	if !services.IsClientError(services.Wrap(services.ErrNotFound, "", "", "x", nil)) {
		t.Fatal("expected not found to be a client error")
	}
	if services.IsClientError(services.Wrap(services.ErrExternalTool, "", "", "x", nil)) {
		t.Fatal("expected external tool failure to be a server error")
	}
}
