// Package guardrail implements the risk classification, strategy, and
// skeleton escalation stages of the response-shaping pipeline. All three
// stages are pure functions over their inputs: identical input produces an
// identical result on every call, with no shared state and no I/O.
package guardrail

import "strings"

// SchemaVersion is stamped into every GuardrailResult and recorded in the
// decision trace as classifier_version.
const SchemaVersion = "14.1"

// RiskCategory is the closed set of guardrail risk categories.
type RiskCategory string

const (
	CategorySafe           RiskCategory = "SAFE"
	CategorySelfHarm       RiskCategory = "SELF_HARM_RISK"
	CategoryAbuse          RiskCategory = "ABUSE_HARASSMENT"
	CategorySexualContent  RiskCategory = "SEXUAL_CONTENT"
	CategoryExtremism      RiskCategory = "EXTREMISM"
	CategoryManipulation   RiskCategory = "MANIPULATION_ATTEMPT"
	CategoryJailbreak      RiskCategory = "JAILBREAK_ATTEMPT"
	CategorySystemProbe    RiskCategory = "SYSTEM_PROBE"
	CategoryDataExtraction RiskCategory = "DATA_EXTRACTION_ATTEMPT"
)

// Severity is the closed set of guardrail severities.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Result is the immutable output of classification. It is produced fresh per
// call and never mutated.
type Result struct {
	SchemaVersion     string
	RiskCategory      RiskCategory
	Severity          Severity
	RequiresGuardrail bool
}

var selfHarmExplicitPhrases = []string{
	"kill myself",
	"suicide",
	"end my life",
	"want to die",
	"don't want to live",
	"dont want to live",
}

var selfHarmPassiveDespairPhrases = []string{
	"life is pointless",
	"life feels pointless",
	"nothing matters",
	"no point in living",
	"no point living",
}

// Benign idioms containing "die" that must not trip the self-harm rules.
var benignDiePhrases = []string{
	"die laughing",
	"die of laughter",
}

var jailbreakPhrases = []string{
	"ignore previous instructions",
	"act as system prompt",
	"disregard rules",
	"you are now in developer mode",
	"bypass your safety",
}

var systemProbePhrases = []string{
	"internal architecture",
	"system prompt",
	"hidden instructions",
	"how are you implemented",
	"your internal rules",
}

var dataExtractionPhrases = []string{
	"show your training data",
	"what data were you trained on",
	"export your memory",
	"dump your database",
}

var extremismAdvocacyPhrases = []string{
	"join isis",
	"join al-qaeda",
	"join al qaeda",
	"support violent jihad",
	"support isis",
}

var extremismOperationalPhrases = []string{
	"how to join isis",
	"how to join al-qaeda",
	"how to join al qaeda",
	"plan a jihad attack",
	"carry out jihad attack",
	"how to make bomb for jihad",
}

var sexualExplicitPhrases = []string{
	"sexual act",
	"explicit sex",
	"describe sex",
	"pornographic",
}

var sexualGraphicPhrases = []string{
	"graphic sexual",
	"graphic porn",
	"explicitly graphic sex",
}

var abuseThreatPhrases = []string{
	"i will kill you",
	"i will hurt you",
	"i'll kill you",
}

var abuseHostilityPhrases = []string{
	"you are an idiot",
	"you are stupid",
	"you are worthless",
}

var manipulationPhrases = []string{
	"pretend you're allowed",
	"pretend you are allowed",
	"hypothetically ignore rules",
	"just between us",
	"this is just a test",
}

// Zero-width and invisible code points stripped before matching so that
// classification is invariant under zero-width injection.
var invisibleReplacer = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\u2060", "",
	"\ufeff", "",
)

// NormalizeText lowercases the input, strips zero-width noise, and collapses
// all runs of whitespace to single spaces.
func NormalizeText(text string) string {
	cleaned := invisibleReplacer.Replace(strings.ToLower(text))
	return strings.Join(strings.Fields(cleaned), " ")
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func result(category RiskCategory, severity Severity, requires bool) Result {
	return Result{
		SchemaVersion:     SchemaVersion,
		RiskCategory:      category,
		Severity:          severity,
		RequiresGuardrail: requires,
	}
}

// Classify maps raw user text to a risk category and severity. Rules are
// evaluated in a fixed priority order; the first matching category wins even
// when markers for several categories are present.
func Classify(text string) Result {
	normalized := NormalizeText(text)

	// 1) SELF_HARM_RISK
	explicitSelfHarm := containsAny(normalized, selfHarmExplicitPhrases)
	benignDie := containsAny(normalized, benignDiePhrases)
	if explicitSelfHarm && !benignDie {
		return result(CategorySelfHarm, SeverityCritical, true)
	}
	if containsAny(normalized, selfHarmPassiveDespairPhrases) {
		return result(CategorySelfHarm, SeverityHigh, true)
	}

	// 2) JAILBREAK_ATTEMPT
	if containsAny(normalized, jailbreakPhrases) {
		return result(CategoryJailbreak, SeverityHigh, true)
	}

	// 3) SYSTEM_PROBE
	if containsAny(normalized, systemProbePhrases) {
		return result(CategorySystemProbe, SeverityMedium, true)
	}

	// 4) DATA_EXTRACTION_ATTEMPT
	if containsAny(normalized, dataExtractionPhrases) {
		return result(CategoryDataExtraction, SeverityHigh, true)
	}

	// 5) EXTREMISM
	if containsAny(normalized, extremismOperationalPhrases) {
		return result(CategoryExtremism, SeverityCritical, true)
	}
	if containsAny(normalized, extremismAdvocacyPhrases) {
		return result(CategoryExtremism, SeverityHigh, true)
	}

	// 6) SEXUAL_CONTENT
	if containsAny(normalized, sexualGraphicPhrases) {
		return result(CategorySexualContent, SeverityCritical, true)
	}
	if containsAny(normalized, sexualExplicitPhrases) {
		return result(CategorySexualContent, SeverityHigh, true)
	}

	// 7) ABUSE_HARASSMENT
	if containsAny(normalized, abuseThreatPhrases) {
		return result(CategoryAbuse, SeverityHigh, true)
	}
	if containsAny(normalized, abuseHostilityPhrases) {
		return result(CategoryAbuse, SeverityMedium, true)
	}

	// 8) MANIPULATION_ATTEMPT
	if containsAny(normalized, manipulationPhrases) {
		return result(CategoryManipulation, SeverityMedium, true)
	}

	// 9) SAFE default
	return result(CategorySafe, SeverityLow, false)
}
