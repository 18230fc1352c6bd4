package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// finalForms maps Hebrew final letters onto their regular forms.
var finalForms = strings.NewReplacer(
	"ך", "כ",
	"ם", "מ",
	"ן", "נ",
	"ף", "פ",
	"ץ", "צ",
)

// hebrewPunctuation lists marks that separate or terminate words in pointed
// text but carry no letter content.
var hebrewPunctuation = map[rune]bool{
	'־': true, // maqaf
	'׀': true, // paseq
	'׃': true, // sof pasuq
	'׆': true, // nun hafukha
	'׳': true, // geresh
	'״': true, // gershayim
}

// NormalizeHebrew strips vowel points and cantillation marks, removes Hebrew
// punctuation, folds final letters, and lowercases any Latin content.
func NormalizeHebrew(text string) string {
	if text == "" {
		return ""
	}
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(chain, text)
	if err != nil {
		stripped = text
	}
	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case hebrewPunctuation[r]:
			b.WriteRune(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(finalForms.Replace(b.String())), " ")
}
