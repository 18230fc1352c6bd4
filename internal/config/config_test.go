package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hebrewtutor/internal/config"
)

func TestLoadDefaultConfigDerivesDirectoriesFromDataDir(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_DATA_HOME", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "hebrewtutor")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	checks := map[string]string{
		cfg.Paths.ContentDir:  "content",
		cfg.Paths.AudioDir:    "audio",
		cfg.Paths.SyncMapsDir: "sync_maps",
		cfg.Paths.UploadDir:   "uploads",
		cfg.Paths.LogDir:      "logs",
	}
	for got, sub := range checks {
		if got != filepath.Join(wantData, sub) {
			t.Fatalf("expected %s under data dir, got %q", sub, got)
		}
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Alignment.Language != "heb" {
		t.Fatalf("unexpected alignment language: %q", cfg.Alignment.Language)
	}
	if cfg.Alignment.MaxConcurrent != 1 {
		t.Fatalf("expected single aligner worker, got %d", cfg.Alignment.MaxConcurrent)
	}
	if cfg.Alignment.PlaceholderSeconds != 0.1 {
		t.Fatalf("unexpected placeholder seconds: %v", cfg.Alignment.PlaceholderSeconds)
	}
	if cfg.Alignment.VerifyText || cfg.Alignment.VerifyContent {
		t.Fatal("expected verification disabled by default")
	}
	if cfg.Transcription.Enabled {
		t.Fatal("expected transcription disabled by default")
	}
	if cfg.HistoryPath() != filepath.Join(wantData, "alignment.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.SyncMapsDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.UploadDir); !os.IsNotExist(err) {
		t.Fatalf("upload dir should not be created while transcription is disabled: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "hebrewtutor.toml")

	type payload struct {
		Paths struct {
			DataDir     string `toml:"data_dir"`
			SyncMapsDir string `toml:"sync_maps_dir"`
		} `toml:"paths"`
		Alignment struct {
			TimeoutSeconds int  `toml:"timeout_seconds"`
			MaxConcurrent  int  `toml:"max_concurrent"`
			VerifyText     bool `toml:"verify_text"`
		} `toml:"alignment"`
		Audio struct {
			Extension    string         `toml:"extension"`
			ChapterWidth map[string]int `toml:"chapter_width"`
		} `toml:"audio"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Paths.SyncMapsDir = filepath.Join(tempDir, "maps")
	custom.Alignment.TimeoutSeconds = 60
	custom.Alignment.MaxConcurrent = 2
	custom.Alignment.VerifyText = true
	custom.Audio.Extension = ".MP3"
	custom.Audio.ChapterWidth = map[string]int{"Psalms": 3}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.SyncMapsDir != filepath.Join(tempDir, "maps") {
		t.Fatalf("expected sync maps override, got %q", cfg.Paths.SyncMapsDir)
	}
	if cfg.Paths.ContentDir != filepath.Join(tempDir, "data", "content") {
		t.Fatalf("expected derived content dir, got %q", cfg.Paths.ContentDir)
	}
	if cfg.AlignmentTimeout().Seconds() != 60 {
		t.Fatalf("unexpected timeout: %v", cfg.AlignmentTimeout())
	}
	if cfg.Alignment.MaxConcurrent != 2 || !cfg.Alignment.VerifyText {
		t.Fatalf("alignment overrides not applied: %+v", cfg.Alignment)
	}
	if cfg.Audio.Extension != "mp3" {
		t.Fatalf("expected normalized extension, got %q", cfg.Audio.Extension)
	}
	if cfg.Audio.ChapterWidth["psalms"] != 3 {
		t.Fatalf("expected lowercased chapter width key, got %v", cfg.Audio.ChapterWidth)
	}
}

func TestDataDirFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "hebrewtutor.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\ndata_dir = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HEBREWTUTOR_DATA_DIR", filepath.Join(dir, "env-data"))

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != filepath.Join(dir, "env-data") {
		t.Fatalf("expected data dir from env, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hebrewtutor.toml")
	if err := os.WriteFile(configPath, []byte("[alignment]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[alignment]") {
		t.Fatalf("sample config missing alignment section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "hebrewtutor") {
		t.Fatalf("expected data dir to contain hebrewtutor, got %q", cfg.Paths.DataDir)
	}
	if cfg.Alignment.PlaceholderSeconds != 0.1 {
		t.Fatalf("unexpected sample placeholder: %v", cfg.Alignment.PlaceholderSeconds)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"timeout", func(c *config.Config) { c.Alignment.TimeoutSeconds = 0 }},
		{"concurrency", func(c *config.Config) { c.Alignment.MaxConcurrent = 0 }},
		{"placeholder", func(c *config.Config) { c.Alignment.PlaceholderSeconds = -1 }},
		{"threshold", func(c *config.Config) { c.Alignment.SimilarityThreshold = 1.5 }},
		{"bind", func(c *config.Config) { c.Paths.APIBind = "localhost" }},
		{"width", func(c *config.Config) { c.Audio.ChapterWidth = map[string]int{"psalms": 9} }},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"retention", func(c *config.Config) { c.Logging.RetentionDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tt.name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
