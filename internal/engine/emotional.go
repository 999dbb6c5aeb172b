package engine

import (
	"strings"

	"voicegate/internal/trace"
	"voicegate/internal/voice"
)

// EmotionalSignals are the per-turn heuristic markers that drive skeleton
// resolution and the cultural trace flags.
type EmotionalSignals struct {
	LangMode       string
	WantsAction    bool
	HasOverwhelm   bool
	HasGuilt       bool
	HasResignation bool
	Theme          string
	FamilyTheme    bool
}

// EmotionalResolution is the derived skeleton decision for an emotional
// turn.
type EmotionalResolution struct {
	Skeleton        string
	EmotionalLang   string
	EscalationState string
	LatchedTheme    string
}

var wantsActionMarkers = []string{
	"what should i do", "what can i do", "tell me what to do",
	"help me plan", "one small step", "kya karu", "kya karoon",
	"क्या करूं", "क्या करूँ",
}

var overwhelmMarkers = []string{
	"overwhelmed", "too much", "can't handle", "cant handle",
	"drowning", "burnout", "burned out", "burnt out", "exhausted",
	"बहुत ज्यादा", "थक गया", "थक गई",
}

var guiltMarkers = []string{
	"my fault", "i failed", "let everyone down", "let them down",
	"guilty", "ashamed", "i'm sorry for being", "im sorry for being",
	"गलती मेरी",
}

var resignationMarkers = []string{
	"what's the point", "whats the point", "no use", "nothing will change",
	"why bother", "give up", "कोई फायदा नहीं",
}

var familyMarkers = []string{
	"family", "parents", "mother", "father", "maa", "papa",
	"ghar wale", "gharwale", "परिवार", "माता", "पिता", "माँ",
}

var pressureMarkers = []string{
	"pressure", "expectations", "expect me", "force me", "forcing me",
	"दबाव",
}

// BuildEmotionalSignals extracts the heuristic signals for a turn.
func BuildEmotionalSignals(prompt, lang string) EmotionalSignals {
	lower := strings.ToLower(prompt)

	signals := EmotionalSignals{
		LangMode:       lang,
		WantsAction:    containsAnyMarker(lower, wantsActionMarkers),
		HasOverwhelm:   containsAnyMarker(lower, overwhelmMarkers),
		HasGuilt:       containsAnyMarker(lower, guiltMarkers),
		HasResignation: containsAnyMarker(lower, resignationMarkers),
		FamilyTheme:    containsAnyMarker(lower, familyMarkers),
	}
	switch {
	case signals.FamilyTheme:
		signals.Theme = "family"
	case signals.HasResignation:
		signals.Theme = "resignation"
	}
	return signals
}

func containsAnyMarker(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// ResolveEmotionalSkeleton maps signals to a skeleton: time-boxed action
// turns take D, overwhelm takes B, guilt takes C, everything else A.
func ResolveEmotionalSkeleton(state *voice.SessionState, signals EmotionalSignals) EmotionalResolution {
	resolution := EmotionalResolution{
		EmotionalLang:   signals.LangMode,
		EscalationState: state.EscalationState,
		LatchedTheme:    state.LatchedTheme,
	}
	switch {
	case signals.WantsAction:
		resolution.Skeleton = "D"
	case signals.HasOverwhelm:
		resolution.Skeleton = "B"
	case signals.HasGuilt:
		resolution.Skeleton = "C"
	default:
		resolution.Skeleton = "A"
	}

	if signals.Theme != "" {
		switch state.EscalationState {
		case voice.EscalationNone:
			resolution.EscalationState = voice.EscalationEscalating
		case voice.EscalationEscalating, voice.EscalationLatched:
			resolution.EscalationState = voice.EscalationLatched
			resolution.LatchedTheme = signals.Theme
		}
	}
	return resolution
}

// UpdateSessionState applies a turn's resolution to the owned session
// state. Every emotional turn advances the emotional turn index.
func UpdateSessionState(state *voice.SessionState, intent string, resolution EmotionalResolution) {
	state.EmotionalTurnIndex++
	state.LastIntent = intent
	state.LastSkeleton = resolution.Skeleton
	state.LastEmotionalLang = resolution.EmotionalLang
	state.EscalationState = resolution.EscalationState
	state.LatchedTheme = resolution.LatchedTheme
}

// TraceSignals converts signals into the fixed trace flag set.
func (s EmotionalSignals) TraceSignals() trace.Signals {
	return trace.Signals{
		Overwhelm:   s.HasOverwhelm,
		Resignation: s.HasResignation,
		Guilt:       s.HasGuilt,
		WantsAction: s.WantsAction,
	}
}

// CulturalFlags derives the cultural trace block from signals and the
// latched theme.
func (s EmotionalSignals) CulturalFlags(latchedTheme string, lower string) trace.CulturalBlock {
	pressure := containsAnyMarker(lower, pressureMarkers)
	return trace.CulturalBlock{
		FamilyThemeActive:         s.FamilyTheme || latchedTheme == "family",
		PressureContextDetected:   s.FamilyTheme && pressure,
		CollectivistReferenceUsed: false,
		DirectAdviceSuppressed:    s.FamilyTheme && !s.WantsAction,
	}
}
