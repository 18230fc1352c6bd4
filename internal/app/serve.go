package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"hebrewtutor/internal/config"
	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/preflight"
	"hebrewtutor/internal/server"
)

// ServeOptions configures the server process.
type ServeOptions struct {
	LogLevel    string
	Development bool
	// Bind overrides paths.api_bind when set.
	Bind string
}

// Serve runs the API server until ctx ends or the process is signalled.
func Serve(cmdCtx context.Context, cfg *config.Config, opts ServeOptions) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("hebrewtutor-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "hebrewtutor-*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "tool"), Pattern: "*.log"},
	)
	pidPath := filepath.Join(cfg.Paths.DataDir, "hebrewtutor.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logDependencySnapshot(logger, cfg)
	for _, failed := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "run hebrewtutor status for the full report"),
			logging.String(logging.FieldImpact, "chapter requests depending on this check will fail"),
		)
	}

	a, err := New(cfg, logger)
	if err != nil {
		logger.Error("initialize components", logging.Error(err))
		return err
	}
	defer a.Close()

	if err := a.Library.Load(); err != nil {
		logging.WarnWithContext(logger, "content library failed to load", "content_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.content_dir holds readable Tanakh XML"),
			logging.String(logging.FieldImpact, "chapter and timestamp requests return not found"),
		)
	}

	bind := strings.TrimSpace(opts.Bind)
	if bind == "" {
		bind = cfg.Paths.APIBind
	}
	deps := server.Deps{
		Timings: a.Alignment,
		Library: a.Library,
		Runs:    a.History,
		Checks: func(ctx context.Context) []preflight.Result {
			return preflight.RunAll(ctx, cfg)
		},
	}
	if a.Transcriber != nil {
		deps.Transcriber = a.Transcriber
	}
	srv, err := server.New(server.Options{
		Bind:     bind,
		LockPath: cfg.LockPath(),
		Language: cfg.Alignment.Language,
	}, deps, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	if err := srv.Start(signalCtx); err != nil {
		return err
	}
	defer srv.Stop()

	<-signalCtx.Done()
	logger.Info("hebrewtutor server shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	python := cfg.PythonBinary()
	uvx := cfg.UVXBinary()
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("python_binary", python),
		logging.Bool("python_available", binaryAvailable(python)),
		logging.Bool("transcription_enabled", cfg.Transcription.Enabled),
		logging.Bool("uvx_available", binaryAvailable(uvx)),
		logging.Bool("whisperx_cuda", cfg.Transcription.CUDAEnabled),
		logging.String("content_dir", cfg.Paths.ContentDir),
		logging.String("audio_dir", cfg.Paths.AudioDir),
		logging.Int("max_concurrent", cfg.Alignment.MaxConcurrent),
		logging.Bool("verify_text", cfg.Alignment.VerifyText),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
