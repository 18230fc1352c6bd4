// Package audiofile locates chapter recordings on disk and reads their
// duration.
package audiofile
