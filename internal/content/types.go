package content

// Verse is one numbered verse and its words in reading order.
type Verse struct {
	Number int      `json:"verse"`
	Words  []string `json:"words"`
}

// Chapter is the verse-structured word list of a single chapter.
type Chapter struct {
	Book   string  `json:"book"`
	Number int     `json:"chapter"`
	Verses []Verse `json:"verses"`
}

// BookInfo summarizes a loaded book.
type BookInfo struct {
	Name       string `json:"name"`
	HebrewName string `json:"hebrew_name,omitempty"`
	Chapters   int    `json:"chapters"`
	Source     string `json:"source"`
}
