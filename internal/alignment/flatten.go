package alignment

import (
	"strings"

	"hebrewtutor/internal/content"
)

// FlatWord is a word tagged with its position in the verse structure.
type FlatWord struct {
	Word        string
	VerseIndex  int
	WordIndex   int
	VerseNumber int
}

// Flatten lists every word in verse order then word order. Empty verses
// contribute nothing; nothing is filtered or rewritten.
func Flatten(verses []content.Verse) []FlatWord {
	total := 0
	for _, v := range verses {
		total += len(v.Words)
	}
	out := make([]FlatWord, 0, total)
	for vi, v := range verses {
		for wi, word := range v.Words {
			out = append(out, FlatWord{
				Word:        word,
				VerseIndex:  vi,
				WordIndex:   wi,
				VerseNumber: v.Number,
			})
		}
	}
	return out
}

// Transcript renders the aligner input text: the words joined by single
// spaces with nothing added.
func Transcript(words []FlatWord) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Word
	}
	return strings.Join(parts, " ")
}
