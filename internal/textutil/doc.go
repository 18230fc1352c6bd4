// Package textutil provides text processing utilities for Hebrew normalization,
// similarity scoring, and cache key sanitization.
//
// The primary use cases are:
//   - Normalizing pointed Hebrew so vocalized and consonantal spellings compare equal
//   - Building character-bigram fingerprints and comparing them by cosine similarity
//   - Sanitizing book names into stable file name keys
//
// Fingerprints are term-frequency vectors over adjacent character pairs.
// Words are short, so bigrams give a usable signal where whole-token vectors
// would be all-or-nothing.
package textutil
