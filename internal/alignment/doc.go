// Package alignment produces and caches word-level timing maps for chapter
// recordings.
//
// A chapter's verses are flattened into one ordered word list, handed to an
// external forced aligner together with the recording, and the returned
// fragments are bound back onto the words by position. The result is a
// TimedWord per source word, persisted under the sync maps directory as
// <Sanitized_Book>_ch<N>.json so later requests are served from disk.
//
// Service coordinates the steps. Concurrent requests for the same chapter
// share a single generation, a file lock extends that guarantee across
// processes, and a weighted semaphore bounds how many aligner processes run
// at once.
package alignment
