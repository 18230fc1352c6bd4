package textutil

import (
	"math"
	"strings"
)

// Fingerprint represents a term-frequency vector for text similarity comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a character-bigram fingerprint from the normalized
// form of text. Returns nil if the text produces no bigrams.
func NewFingerprint(text string) *Fingerprint {
	grams := Bigrams(text)
	if len(grams) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(grams))
	for _, gram := range grams {
		counts[gram]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// Bigrams returns the adjacent character pairs of each normalized word. Each
// word is padded with a boundary marker so single letters still produce a
// term and word edges weigh in.
func Bigrams(text string) []string {
	words := strings.Fields(NormalizeHebrew(text))
	var grams []string
	for _, word := range words {
		letters := []rune("^" + word + "$")
		for i := 0; i+1 < len(letters); i++ {
			grams = append(grams, string(letters[i:i+2]))
		}
	}
	return grams
}
