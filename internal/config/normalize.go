package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAlignment()
	c.normalizeTranscription()
	c.normalizeAudio()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		if value, ok := os.LookupEnv("HEBREWTUTOR_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
			c.Paths.DataDir = value
		} else {
			c.Paths.DataDir = defaultDataDir()
		}
	}
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	derived := []struct {
		name  string
		value *string
		sub   string
	}{
		{"paths.content_dir", &c.Paths.ContentDir, "content"},
		{"paths.audio_dir", &c.Paths.AudioDir, "audio"},
		{"paths.sync_maps_dir", &c.Paths.SyncMapsDir, "sync_maps"},
		{"paths.upload_dir", &c.Paths.UploadDir, "uploads"},
		{"paths.log_dir", &c.Paths.LogDir, "logs"},
	}
	for _, entry := range derived {
		if strings.TrimSpace(*entry.value) == "" {
			*entry.value = filepath.Join(c.Paths.DataDir, entry.sub)
		}
		if *entry.value, err = expandPath(strings.TrimSpace(*entry.value)); err != nil {
			return fmt.Errorf("%s: %w", entry.name, err)
		}
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeAlignment() {
	c.Alignment.PythonBinary = strings.TrimSpace(c.Alignment.PythonBinary)
	if c.Alignment.PythonBinary == "" {
		c.Alignment.PythonBinary = defaultPythonBinary
	}
	c.Alignment.Language = strings.ToLower(strings.TrimSpace(c.Alignment.Language))
	if c.Alignment.Language == "" {
		c.Alignment.Language = defaultAlignmentLanguage
	}
	if c.Alignment.MaxConcurrent == 0 {
		c.Alignment.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Alignment.PlaceholderSeconds == 0 {
		c.Alignment.PlaceholderSeconds = defaultPlaceholderSeconds
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultTranscriptionLang
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.Extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Audio.Extension), "."))
	if c.Audio.Extension == "" {
		c.Audio.Extension = defaultAudioExtension
	}
	c.Audio.Prefix = strings.TrimSpace(c.Audio.Prefix)
	if len(c.Audio.ChapterWidth) > 0 {
		widths := make(map[string]int, len(c.Audio.ChapterWidth))
		for book, width := range c.Audio.ChapterWidth {
			widths[strings.ToLower(strings.TrimSpace(book))] = width
		}
		c.Audio.ChapterWidth = widths
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
