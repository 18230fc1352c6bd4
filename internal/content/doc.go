// Package content loads the Hebrew Bible text the tutor serves.
//
// Books are read from UXLC-style XML files (plain or xz-compressed) in the
// configured content directory. Each file holds one or more <book> elements
// with chapter, verse, and word (<w>) children; the short UXLC element names
// <c> and <v> are accepted as well. The library is parsed once, on first use,
// and is read-only afterwards.
package content
