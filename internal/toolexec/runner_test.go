package toolexec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/services"
)

func TestRunnerWritesToolLogOnFailure(t *testing.T) {
	logDir := t.TempDir()
	run := New(Options{LogDir: logDir, Stage: "alignment"})

	err := run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected stderr tail in error, got %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(logDir, "tool"))
	if err != nil {
		t.Fatalf("read tool dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), "-sh.log") {
		t.Fatalf("unexpected tool logs: %v", entries)
	}
	data, err := os.ReadFile(filepath.Join(logDir, "tool", entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "command: sh -c") || !strings.Contains(string(data), "boom") {
		t.Fatalf("unexpected tool log: %s", data)
	}
}

func TestRunnerSuccess(t *testing.T) {
	run := New(Options{Env: []string{"HEBREWTUTOR_TEST=1"}})
	if err := run(context.Background(), "sh", "-c", `test "$HEBREWTUTOR_TEST" = 1`); err != nil {
		t.Fatalf("expected success with extra env, got %v", err)
	}
}

func TestRunnerTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := New(Options{})(ctx, "sleep", "5")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestWriteToolLogNamesFileAfterTool(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"/usr/bin/python3": "-python3.log",
		"UVX":              "-uvx.log",
		"":                 "-unknown.log",
	}
	for name, suffix := range tests {
		path := WriteToolLog(logging.NewNop(), dir, name, []string{"-c", "pass"}, "boom")
		if !strings.HasSuffix(path, suffix) {
			t.Errorf("WriteToolLog(%q) = %q, want suffix %q", name, path, suffix)
		}
	}
}
