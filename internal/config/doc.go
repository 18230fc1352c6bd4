// Package config loads, normalizes, and validates hebrewtutor configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HEBREWTUTOR_DATA_DIR. Directories left unset are derived from the data
// directory so a single setting relocates the whole installation.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
