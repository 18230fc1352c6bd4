package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	ContentDir  string `toml:"content_dir"`
	AudioDir    string `toml:"audio_dir"`
	SyncMapsDir string `toml:"sync_maps_dir"`
	UploadDir   string `toml:"upload_dir"`
	LogDir      string `toml:"log_dir"`
	APIBind     string `toml:"api_bind"`
}

// Alignment contains configuration for word-level forced alignment.
type Alignment struct {
	PythonBinary   string `toml:"python_binary"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxConcurrent  int    `toml:"max_concurrent"`
	// PlaceholderSeconds is the duration given to words the aligner produced
	// no fragment for.
	PlaceholderSeconds float64 `toml:"placeholder_seconds"`
	// VerifyText compares each fragment's text against the word it binds to.
	VerifyText          bool    `toml:"verify_text"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	// VerifyContent treats a cached map as stale when the chapter text or
	// audio changed since it was generated.
	VerifyContent bool `toml:"verify_content"`
}

// Transcription contains configuration for speech recognition of uploads.
type Transcription struct {
	Enabled     bool   `toml:"enabled"`
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	Language    string `toml:"language"`
}

// Audio contains the chapter recording naming convention.
type Audio struct {
	Extension string `toml:"extension"`
	Prefix    string `toml:"prefix"`
	// ChapterWidth overrides the zero-padded chapter width per book.
	ChapterWidth map[string]int `toml:"chapter_width"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for hebrewtutor.
//
// Configuration sections by subsystem:
//   - Paths: content, audio, cache and log directories plus the API bind address
//   - Alignment: forced-alignment engine and reconciliation policy
//   - Transcription: WhisperX speech recognition for uploaded recordings
//   - Audio: chapter recording file naming
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Alignment     Alignment     `toml:"alignment"`
	Transcription Transcription `toml:"transcription"`
	Audio         Audio         `toml:"audio"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the server and CLI write into.
// The content and audio directories are only read, so they are left alone.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.SyncMapsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Transcription.Enabled {
		if err := os.MkdirAll(c.Paths.UploadDir, 0o755); err != nil {
			return fmt.Errorf("create upload directory %q: %w", c.Paths.UploadDir, err)
		}
	}
	return nil
}

// HistoryPath returns the location of the alignment run ledger.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, historyFileName)
}

// LockPath returns the single-instance lock used by the API server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "hebrewtutor.lock")
}

// AlignmentTimeout converts the configured timeout into a duration.
func (c *Config) AlignmentTimeout() time.Duration {
	return time.Duration(c.Alignment.TimeoutSeconds) * time.Second
}

// PythonBinary returns the interpreter used to drive the aligner.
func (c *Config) PythonBinary() string {
	if bin := strings.TrimSpace(c.Alignment.PythonBinary); bin != "" {
		return bin
	}
	return defaultPythonBinary
}

// UVXBinary returns the uv tool runner used to launch WhisperX.
func (c *Config) UVXBinary() string {
	return "uvx"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "hebrewtutor")
	}
	return "~/.local/share/hebrewtutor"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
