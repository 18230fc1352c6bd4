package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 / 639-3 (3-letter)
	legacy  string   // retired code still emitted by older tools (e.g. "iw")
	display string   // Human-readable name
	rtl     bool     // written right to left
	words   []string // Full word forms, including native names
}

// The aligner takes 3-letter codes and WhisperX takes 2-letter codes, so the
// table only needs the languages a Tanakh study corpus and its learners use.
var languages = []entry{
	{"he", "heb", "iw", "Hebrew", true, []string{"hebrew", "עברית"}},
	{"", "arc", "", "Aramaic", true, []string{"aramaic"}},
	{"yi", "yid", "ji", "Yiddish", true, []string{"yiddish", "ייִדיש"}},
	{"ar", "ara", "", "Arabic", true, []string{"arabic"}},
	{"en", "eng", "", "English", false, []string{"english"}},
	{"ru", "rus", "", "Russian", false, []string{"russian"}},
	{"fr", "fra", "fre", "French", false, []string{"french"}},
	{"es", "spa", "", "Spanish", false, []string{"spanish"}},
}

var (
	byCode map[string]*entry
	byWord map[string]*entry
)

func init() {
	byCode = make(map[string]*entry, len(languages)*3)
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		for _, code := range []string{e.code2, e.code3, e.legacy} {
			if code != "" {
				byCode[code] = e
			}
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
	// Aeneas uses "fre" rather than "fra".
	byCode["fre"] = byCode["fra"]
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts a recognized language code or name to ISO 639-1, as
// WhisperX expects. Unknown 2-letter input passes through; anything else
// returns "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// ToISO3 converts a recognized language code or name to the 3-letter form the
// forced aligner expects. Unknown 3-letter input passes through; anything
// else returns "und".
func ToISO3(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "und"
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	if len(code) == 3 {
		return code
	}
	return "und"
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsRTL reports whether the language is written right to left.
func IsRTL(code string) bool {
	if e := lookup(code); e != nil {
		return e.rtl
	}
	return false
}
