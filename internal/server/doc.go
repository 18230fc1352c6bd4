// Package server exposes chapter text, word timings, alignment history, and
// upload transcription over a small JSON HTTP API.
//
// A single server instance owns the data directory; Start takes an advisory
// file lock and fails when another instance holds it. Every request carries
// an X-Request-ID (taken from the client or generated) that is stamped into
// the request context and therefore into log lines and history rows.
package server
