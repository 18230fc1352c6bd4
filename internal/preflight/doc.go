// Package preflight provides readiness checks for the external tools and
// filesystem paths hebrewtutor depends on.
//
// These checks run in two contexts:
//   - The server calls RunAll at start-up and logs every failed check so a
//     missing aligner surfaces before the first chapter request.
//   - The CLI "hebrewtutor status" command renders the same results as a table.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
