// Package services defines shared utilities consumed by the alignment,
// transcription, and HTTP layers.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation IDs and the book/chapter
//     being processed for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent API statuses (404 for missing text or audio, 500 for
//     engine failures).
//
// Use these helpers when wiring new handlers so error handling and
// observability stay uniform across the service.
package services
