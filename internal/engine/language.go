package engine

import "strings"

// Supported emotional languages.
const (
	LangEnglish  = "en"
	LangHindi    = "hi"
	LangHinglish = "hinglish"
)

var hinglishMarkers = []string{
	"hai", "nahi", "nahin", "kya", "mujhe", "bahut", "yaar",
	"matlab", "samjhao", "batao", "karna", "hoga", "raha", "rahi",
}

// DetectLanguage classifies text as en, hi, or hinglish. Devanagari content
// means hi; Latin-script text with enough Hindi function words means
// hinglish; everything else is en.
func DetectLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return LangHindi
		}
	}

	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return LangEnglish
	}
	hits := 0
	for _, word := range words {
		trimmed := strings.Trim(word, ".,!?;:'\"")
		for _, marker := range hinglishMarkers {
			if trimmed == marker {
				hits++
				break
			}
		}
	}
	if hits >= 2 || (hits == 1 && len(words) <= 4) {
		return LangHinglish
	}
	return LangEnglish
}
