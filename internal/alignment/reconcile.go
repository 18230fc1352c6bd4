package alignment

import (
	"hebrewtutor/internal/textutil"
)

// DefaultPlaceholderSeconds is the duration given to words the aligner
// produced no fragment for.
const DefaultPlaceholderSeconds = 0.1

// suspectRatio is the share of mismatched bindings above which a run is
// reported as suspect.
const suspectRatio = 0.5

// Fragment is one time-stamped span returned by the aligner.
type Fragment struct {
	Text  string
	Begin float64
	End   float64
}

// TimedWord is a source word with its start and end offsets in seconds.
type TimedWord struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	VerseIndex int     `json:"verseIndex"`
	WordIndex  int     `json:"wordIndex"`
}

// ReconcileOptions tunes how fragments are bound onto words.
type ReconcileOptions struct {
	PlaceholderSeconds float64
	// VerifyText scores each binding by text similarity. Bindings below
	// SimilarityThreshold keep their timing but are counted as mismatched.
	VerifyText          bool
	SimilarityThreshold float64
}

// Report summarizes a reconciliation.
type Report struct {
	Words     int `json:"words"`
	Fragments int `json:"fragments"`
	Bound     int `json:"bound"`
	// Overrun counts fragments left over after every word was bound.
	Overrun int `json:"overrun"`
	// Underrun counts words that received placeholder timing.
	Underrun   int `json:"underrun"`
	Mismatched int `json:"mismatched"`
	// Clamped counts fragments whose end preceded their begin.
	Clamped int `json:"clamped"`
}

// Suspect reports whether more than half of the verified bindings failed the
// similarity check.
func (r Report) Suspect() bool {
	if r.Bound == 0 {
		return false
	}
	return float64(r.Mismatched) > suspectRatio*float64(r.Bound)
}

// Reconcile binds fragment k to word k. Extra fragments are dropped; words
// without a fragment start where the previous word ended (0 for the first)
// and last PlaceholderSeconds. The result always has len(words) entries in
// word order, and every entry has Start <= End.
func Reconcile(words []FlatWord, fragments []Fragment, opts ReconcileOptions) ([]TimedWord, Report) {
	placeholder := opts.PlaceholderSeconds
	if placeholder <= 0 {
		placeholder = DefaultPlaceholderSeconds
	}
	report := Report{Words: len(words), Fragments: len(fragments)}
	out := make([]TimedWord, 0, len(words))

	bound := min(len(words), len(fragments))
	for i := 0; i < bound; i++ {
		w, f := words[i], fragments[i]
		start, end := f.Begin, f.End
		if end < start {
			end = start
			report.Clamped++
		}
		if opts.VerifyText && textutil.Similarity(f.Text, w.Word) < opts.SimilarityThreshold {
			report.Mismatched++
		}
		out = append(out, TimedWord{
			Word:       w.Word,
			Start:      start,
			End:        end,
			VerseIndex: w.VerseIndex,
			WordIndex:  w.WordIndex,
		})
	}
	report.Bound = bound
	report.Overrun = len(fragments) - bound

	for i := bound; i < len(words); i++ {
		start := 0.0
		if len(out) > 0 {
			start = out[len(out)-1].End
		}
		w := words[i]
		out = append(out, TimedWord{
			Word:       w.Word,
			Start:      start,
			End:        start + placeholder,
			VerseIndex: w.VerseIndex,
			WordIndex:  w.WordIndex,
		})
		report.Underrun++
	}
	return out, report
}
