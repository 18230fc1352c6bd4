// Package toolexec runs the external Python tools (aeneas, WhisperX) and
// captures their stderr into per-invocation tool logs when they fail.
package toolexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/services"
	"hebrewtutor/internal/textutil"
)

// Runner executes name with args and returns an error tagged with a
// services marker on failure.
type Runner func(ctx context.Context, name string, args ...string) error

// Options configures the default runner.
type Options struct {
	// LogDir receives tool/<timestamp>-<tool>.log files for failed commands.
	LogDir string
	// Env is appended to the inherited environment.
	Env    []string
	Logger *slog.Logger
	// Stage names the caller in wrapped errors.
	Stage string
}

// New returns a Runner that discards stdout and keeps stderr for diagnostics.
func New(opts Options) Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	stage := opts.Stage
	if stage == "" {
		stage = "toolexec"
	}
	return func(ctx context.Context, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
		var stderr strings.Builder
		cmd.Stdout = io.Discard
		cmd.Stderr = &stderr
		if len(opts.Env) > 0 {
			cmd.Env = append(os.Environ(), opts.Env...)
		}

		started := time.Now()
		err := cmd.Run()
		if err == nil {
			logger.Debug("external command finished",
				logging.String("command", filepath.Base(name)),
				logging.Duration("elapsed", time.Since(started)),
			)
			return nil
		}

		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, stage, "command", fmt.Sprintf("%s exceeded its time limit", filepath.Base(name)), ctxErr)
		}
		raw := strings.TrimSpace(stderr.String())
		detailPath := WriteToolLog(logger, opts.LogDir, name, args, raw)
		message := "External command failed"
		if detailPath != "" {
			message = fmt.Sprintf("External command failed (details: %s)", detailPath)
		}
		cause := fmt.Errorf("%s %s: %w%s", name, strings.Join(args, " "), err, lastLine(raw))
		return services.Wrap(services.ErrExternalTool, stage, "command", message, cause)
	}
}

// WriteToolLog stores the command line and stderr of a failed tool run under
// <logDir>/tool and returns the file path, or "" when nothing was written.
func WriteToolLog(logger *slog.Logger, logDir, name string, args []string, stderr string) string {
	logDir = strings.TrimSpace(logDir)
	if logDir == "" {
		return ""
	}
	toolDir := filepath.Join(logDir, "tool")
	if err := os.MkdirAll(toolDir, 0o755); err != nil {
		logging.WarnWithContext(logger, "failed to create tool log directory; tool stderr not captured", "tool_log_dir_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
		)
		return ""
	}
	timestamp := time.Now().UTC().Format("20060102T150405.000Z")
	toolName := textutil.SanitizeToken(filepath.Base(name))
	path := filepath.Join(toolDir, fmt.Sprintf("%s-%s.log", timestamp, toolName))

	command := strings.TrimSpace(strings.Join(append([]string{name}, args...), " "))
	var payload strings.Builder
	payload.Grow(len(command) + len(stderr) + 64)
	payload.WriteString("command: ")
	payload.WriteString(command)
	payload.WriteString("\nstderr:\n")
	payload.WriteString(stderr)
	payload.WriteByte('\n')

	if err := os.WriteFile(path, []byte(payload.String()), 0o644); err != nil {
		logging.WarnWithContext(logger, "failed to write tool log; stderr detail lost", "tool_log_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
		)
		return ""
	}
	return path
}

func lastLine(stderr string) string {
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	return ": " + strings.TrimSpace(lines[len(lines)-1])
}
