package audiofile

import "strings"

// bookCode is the recording code of a Tanakh book. Books split in two share a
// number and differ by suffix (Samuel 08a/08b).
type bookCode struct {
	code  string
	width int // chapter digits; 0 means the book has one chapter and no suffix
}

var tanakh = map[string]bookCode{
	"genesis":       {"01", 2},
	"exodus":        {"02", 2},
	"leviticus":     {"03", 2},
	"numbers":       {"04", 2},
	"deuteronomy":   {"05", 2},
	"joshua":        {"06", 2},
	"judges":        {"07", 2},
	"1 samuel":      {"08a", 2},
	"2 samuel":      {"08b", 2},
	"1 kings":       {"09a", 2},
	"2 kings":       {"09b", 2},
	"isaiah":        {"10", 2},
	"jeremiah":      {"11", 2},
	"ezekiel":       {"12", 2},
	"hosea":         {"13", 2},
	"joel":          {"14", 2},
	"amos":          {"15", 2},
	"obadiah":       {"16", 0},
	"jonah":         {"17", 2},
	"micah":         {"18", 2},
	"nahum":         {"19", 2},
	"habakkuk":      {"20", 2},
	"zephaniah":     {"21", 2},
	"haggai":        {"22", 2},
	"zechariah":     {"23", 2},
	"malachi":       {"24", 2},
	"1 chronicles":  {"25a", 2},
	"2 chronicles":  {"25b", 2},
	"psalms":        {"26", 3},
	"job":           {"27", 2},
	"proverbs":      {"28", 2},
	"ruth":          {"29", 2},
	"song of songs": {"30", 2},
	"ecclesiastes":  {"31", 2},
	"lamentations":  {"32", 2},
	"esther":        {"33", 2},
	"daniel":        {"34", 2},
	"ezra":          {"35a", 2},
	"nehemiah":      {"35b", 2},
}

var aliases = map[string]string{
	"samuel 1":         "1 samuel",
	"samuel 2":         "2 samuel",
	"i samuel":         "1 samuel",
	"ii samuel":        "2 samuel",
	"kings 1":          "1 kings",
	"kings 2":          "2 kings",
	"i kings":          "1 kings",
	"ii kings":         "2 kings",
	"chronicles 1":     "1 chronicles",
	"chronicles 2":     "2 chronicles",
	"i chronicles":     "1 chronicles",
	"ii chronicles":    "2 chronicles",
	"psalm":            "psalms",
	"song of solomon":  "song of songs",
	"canticles":        "song of songs",
	"qohelet":          "ecclesiastes",
	"בראשית":           "genesis",
	"שמות":             "exodus",
	"ויקרא":            "leviticus",
	"במדבר":            "numbers",
	"דברים":            "deuteronomy",
	"תהלים":            "psalms",
}

// canonicalBook folds case, underscores, and spacing, then resolves aliases.
func canonicalBook(name string) string {
	key := strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " "))
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// Known reports whether name maps to a Tanakh book in the naming table.
func Known(name string) bool {
	_, ok := tanakh[canonicalBook(name)]
	return ok
}
