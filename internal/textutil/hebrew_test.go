package textutil

import "testing"

func TestNormalizeHebrew(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"vowels and accents", "בְּרֵאשִׁ֖ית", "בראשית"},
		{"final letters", "הָאָרֶץ", "הארצ"},
		{"maqaf splits", "עַל־פְּנֵי", "על פני"},
		{"sof pasuq removed", "וְהָאָרֶץ׃", "והארצ"},
		{"latin lowercased", "Genesis 1", "genesis 1"},
		{"collapses space", "  א   ב  ", "א ב"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeHebrew(tt.input); got != tt.want {
				t.Errorf("NormalizeHebrew(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
