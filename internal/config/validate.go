package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if c.Alignment.TimeoutSeconds <= 0 {
		return errors.New("alignment.timeout_seconds must be positive")
	}
	if c.Alignment.MaxConcurrent < 1 {
		return errors.New("alignment.max_concurrent must be at least 1")
	}
	if c.Alignment.PlaceholderSeconds <= 0 {
		return errors.New("alignment.placeholder_seconds must be positive")
	}
	if c.Alignment.SimilarityThreshold < 0 || c.Alignment.SimilarityThreshold > 1 {
		return errors.New("alignment.similarity_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateAudio() error {
	for book, width := range c.Audio.ChapterWidth {
		if width < 1 || width > 4 {
			return fmt.Errorf("audio.chapter_width for %q must be between 1 and 4", book)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
