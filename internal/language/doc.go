// Package language maps language codes between the forms used by the
// external tools: 3-letter codes for the forced aligner and 2-letter codes
// for WhisperX.
package language
