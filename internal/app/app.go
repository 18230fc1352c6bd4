package app

import (
	"errors"
	"fmt"
	"log/slog"

	"hebrewtutor/internal/alignment"
	"hebrewtutor/internal/audiofile"
	"hebrewtutor/internal/config"
	"hebrewtutor/internal/content"
	"hebrewtutor/internal/history"
	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/toolexec"
	"hebrewtutor/internal/transcription"
)

// App holds the wired components for one process.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Library     *content.Library
	Audio       *audiofile.Resolver
	Cache       *alignment.Cache
	History     *history.Store
	Aligner     *alignment.AeneasAligner
	Alignment   *alignment.Service
	Transcriber *transcription.Service
}

// New wires every component from cfg. Close releases the history database.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open alignment history: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Library: content.NewLibrary(cfg.Paths.ContentDir, logger),
		Audio: audiofile.NewResolver(audiofile.Options{
			Dir:          cfg.Paths.AudioDir,
			Prefix:       cfg.Audio.Prefix,
			Extension:    cfg.Audio.Extension,
			ChapterWidth: cfg.Audio.ChapterWidth,
		}),
		Cache:   alignment.NewCache(cfg.Paths.SyncMapsDir, logger),
		History: store,
	}

	a.Aligner = alignment.NewAeneasAligner(cfg.PythonBinary(), toolexec.New(toolexec.Options{
		LogDir: cfg.Paths.LogDir,
		Logger: logger,
		Stage:  "alignment",
	}), logger)

	a.Alignment = alignment.NewService(a.Cache, a.Library, a.Audio, a.Aligner, store, alignment.Options{
		Language:      cfg.Alignment.Language,
		Timeout:       cfg.AlignmentTimeout(),
		MaxConcurrent: cfg.Alignment.MaxConcurrent,
		Reconcile: alignment.ReconcileOptions{
			PlaceholderSeconds:  cfg.Alignment.PlaceholderSeconds,
			VerifyText:          cfg.Alignment.VerifyText,
			SimilarityThreshold: cfg.Alignment.SimilarityThreshold,
		},
		VerifyContent: cfg.Alignment.VerifyContent,
	}, logger)

	if cfg.Transcription.Enabled {
		a.Transcriber = transcription.NewService(transcription.Config{
			Model:       cfg.Transcription.Model,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
			Language:    cfg.Transcription.Language,
			UploadDir:   cfg.Paths.UploadDir,
		}, cfg.UVXBinary(), toolexec.New(toolexec.Options{
			LogDir: cfg.Paths.LogDir,
			Logger: logger,
			Stage:  "transcription",
			Env:    []string{transcription.TorchWeightsEnv},
		}), logger)
	}
	return a, nil
}

// Close releases resources held by the app.
func (a *App) Close() error {
	if a == nil || a.History == nil {
		return nil
	}
	return a.History.Close()
}
