// Package history keeps a SQLite ledger of alignment runs.
//
// Each generation attempt, successful or not, is recorded with its
// reconciliation counts, elapsed time, and the content hash of the inputs it
// was built from. The ledger backs the CLI history view, the HTTP
// /api/alignments listing, and stale-cache detection.
package history
