package engine

import "strings"

// Intent categories produced by the heuristic detector. The detector is a
// boundary collaborator: the decision pipeline treats it as an opaque
// function returning a category.
const (
	IntentEmotional      = "emotional"
	IntentFactual        = "factual"
	IntentExplanatory    = "explanatory"
	IntentConversational = "conversational"
)

var emotionalMarkers = []string{
	"i feel", "i'm feeling", "im feeling", "feeling",
	"overwhelmed", "exhausted", "burnout", "burned out", "burnt out",
	"stressed", "anxious", "lonely", "hopeless", "pointless",
	"give up", "tired of", "can't take", "cant take",
	"sad", "depressed", "guilty", "want to die", "kill myself",
	"मन", "थक", "अकेला", "उदास",
}

var explanatoryMarkers = []string{
	"explain", "how does", "how do", "why does", "why do",
	"what is the difference", "samjhao", "samjha", "batao kaise",
	"समझाओ", "समझाइए",
}

var factualMarkers = []string{
	"what is", "who is", "when is", "when did", "where is",
	"stand for", "stands for", "full form", "capital of", "currency",
	"kya hai", "kab", "kaun", "क्या है", "कब", "कौन",
}

// DetectIntent maps user text to one intent category. Emotional markers win
// over knowledge markers: a despairing question is an emotional turn first.
func DetectIntent(text string) string {
	lower := strings.ToLower(text)
	for _, marker := range emotionalMarkers {
		if strings.Contains(lower, marker) {
			return IntentEmotional
		}
	}
	for _, marker := range explanatoryMarkers {
		if strings.Contains(lower, marker) {
			return IntentExplanatory
		}
	}
	for _, marker := range factualMarkers {
		if strings.Contains(lower, marker) {
			return IntentFactual
		}
	}
	return IntentConversational
}
