// Package main hosts the hebrewtutor CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the API server, aligns chapters on
// demand, inspects and prunes the timing cache, lists alignment history, and
// scaffolds configuration. Commands that touch the data directory build the
// same component graph the server uses, so a chapter aligned here is served
// from cache afterwards.
package main
