// Package app assembles the configured components (content library, audio
// resolver, timing cache, run history, aligner, transcriber) and runs the
// HTTP server process.
package app
