// Package trace builds the canonical, hashable decision trace emitted every
// turn. The trace is an audit artifact, not a content log: it never carries
// the raw prompt, the response text, or any free text under the guardrail
// block. Field order is part of the contract and safe to diff across
// releases as a regression oracle.
package trace

import (
	"fmt"

	"voicegate/internal/digest"
)

// Version is recorded as decision_trace_version.
const Version = "14.4"

// legalTransitions is the fixed skeleton transition table.
var legalTransitions = map[string]map[string]bool{
	"A": {"A": true, "B": true, "C": true},
	"B": {"B": true, "C": true},
	"C": {"C": true, "A": true},
	"D": {"D": true},
}

// TransitionLegal reports whether previous→resolved is a legal skeleton
// transition.
func TransitionLegal(previous, resolved string) bool {
	return legalTransitions[previous][resolved]
}

// Signals are the per-turn emotional signal flags.
type Signals struct {
	Overwhelm   bool `json:"overwhelm"`
	Resignation bool `json:"resignation"`
	Guilt       bool `json:"guilt"`
	WantsAction bool `json:"wants_action"`
}

// TurnBlock describes the turn-level voice decisions.
type TurnBlock struct {
	EmotionalTurnIndex int     `json:"emotional_turn_index"`
	Intent             string  `json:"intent"`
	EmotionalLang      string  `json:"emotional_lang"`
	PreviousSkeleton   string  `json:"previous_skeleton"`
	ResolvedSkeleton   string  `json:"resolved_skeleton"`
	SkeletonTransition string  `json:"skeleton_transition"`
	TransitionLegal    bool    `json:"transition_legal"`
	EscalationState    string  `json:"escalation_state"`
	LatchedTheme       *string `json:"latched_theme"`
	Signals            Signals `json:"signals"`
}

// GuardrailBlock records the guardrail outcome. Only enum facts appear
// here, never free text.
type GuardrailBlock struct {
	ClassifierVersion string `json:"classifier_version"`
	StrategyVersion   string `json:"strategy_version"`
	RiskCategory      string `json:"risk_category"`
	Severity          string `json:"severity"`
	Override          bool   `json:"override"`
}

// SkeletonBlock records the skeleton before and after guardrail escalation.
type SkeletonBlock struct {
	Base           string `json:"base"`
	AfterGuardrail string `json:"after_guardrail"`
}

// SelectionBlock records what the selector chose.
type SelectionBlock struct {
	EligibleCount          int            `json:"eligible_count"`
	SelectedVariantIndices OrderedIndices `json:"selected_variant_indices"`
}

// RotationBlock records window statistics for the turn.
type RotationBlock struct {
	WindowSize             int  `json:"window_size"`
	WindowFill             int  `json:"window_fill"`
	ImmediateRepeatBlocked bool `json:"immediate_repeat_blocked"`
}

// FallbackBlock records which fallback tier fired, if any.
type FallbackBlock struct {
	Level         int    `json:"level"`
	Reason        string `json:"reason"`
	Absolute      bool   `json:"absolute"`
	StateRestored bool   `json:"state_restored"`
}

// CulturalBlock records cultural adaptation flags.
type CulturalBlock struct {
	FamilyThemeActive         bool `json:"family_theme_active"`
	PressureContextDetected   bool `json:"pressure_context_detected"`
	CollectivistReferenceUsed bool `json:"collectivist_reference_used"`
	DirectAdviceSuppressed    bool `json:"direct_advice_suppressed"`
}

// InvariantsBlock records runtime invariant checks for the turn.
type InvariantsBlock struct {
	SelectorCalledOnce    bool `json:"selector_called_once"`
	RotationBounded       bool `json:"rotation_bounded"`
	DeterministicSelector bool `json:"deterministic_selector"`
}

// Trace is the immutable per-turn decision record. tone_profile is present
// only on non-override turns; it is deliberately excluded from the replay
// hash so two traces with the same guardrail outcome but different tone
// profiles hash identically.
type Trace struct {
	DecisionTraceVersion string          `json:"decision_trace_version"`
	ContractVersion      string          `json:"contract_version"`
	ContractFingerprint  string          `json:"contract_fingerprint"`
	Turn                 TurnBlock       `json:"turn"`
	Guardrail            GuardrailBlock  `json:"guardrail"`
	Skeleton             SkeletonBlock   `json:"skeleton"`
	ToneProfile          *string         `json:"tone_profile,omitempty"`
	Selection            SelectionBlock  `json:"selection"`
	Rotation             RotationBlock   `json:"rotation"`
	Fallback             *FallbackBlock  `json:"fallback"`
	Cultural             CulturalBlock   `json:"cultural"`
	Invariants           InvariantsBlock `json:"invariants"`
	ReplayHash           string          `json:"replay_hash"`
}

// Input carries every decision fact needed to build a trace. The raw user
// prompt and response text are intentionally not part of it.
type Input struct {
	ContractVersion     string
	ContractFingerprint string

	EmotionalTurnIndex int
	Intent             string
	EmotionalLang      string
	PreviousSkeleton   string
	// BaseSkeleton is the skeleton before guardrail escalation. Empty means
	// no escalation happened and the resolved skeleton is also the base.
	BaseSkeleton     string
	ResolvedSkeleton string
	EscalationState    string
	LatchedTheme       string
	Signals            Signals

	ClassifierVersion string
	StrategyVersion   string
	RiskCategory      string
	Severity          string
	Override          bool

	// ToneProfile is only consulted when Override is false.
	ToneProfile string

	EligibleCount          int
	SelectedVariantIndices map[string]int
	WindowSize             int
	WindowFill             int
	ImmediateRepeatBlocked bool

	Fallback   *FallbackBlock
	Cultural   CulturalBlock
	Invariants InvariantsBlock
}

// Build assembles the trace and seals it with the replay hash.
func Build(in Input) Trace {
	previous := in.PreviousSkeleton
	if previous == "" {
		previous = "A"
	}
	resolved := in.ResolvedSkeleton
	if resolved == "" {
		resolved = "A"
	}
	base := in.BaseSkeleton
	if base == "" {
		base = resolved
	}
	escalation := in.EscalationState
	if escalation == "" {
		escalation = "none"
	}

	var latched *string
	if in.LatchedTheme != "" {
		theme := in.LatchedTheme
		latched = &theme
	}

	t := Trace{
		DecisionTraceVersion: Version,
		ContractVersion:      in.ContractVersion,
		ContractFingerprint:  in.ContractFingerprint,
		Turn: TurnBlock{
			EmotionalTurnIndex: in.EmotionalTurnIndex,
			Intent:             in.Intent,
			EmotionalLang:      in.EmotionalLang,
			PreviousSkeleton:   previous,
			ResolvedSkeleton:   resolved,
			SkeletonTransition: fmt.Sprintf("%s->%s", previous, resolved),
			TransitionLegal:    TransitionLegal(previous, resolved),
			EscalationState:    escalation,
			LatchedTheme:       latched,
			Signals:            in.Signals,
		},
		Guardrail: GuardrailBlock{
			ClassifierVersion: in.ClassifierVersion,
			StrategyVersion:   in.StrategyVersion,
			RiskCategory:      in.RiskCategory,
			Severity:          in.Severity,
			Override:          in.Override,
		},
		Skeleton: SkeletonBlock{
			Base:           base,
			AfterGuardrail: resolved,
		},
		Selection: SelectionBlock{
			EligibleCount:          in.EligibleCount,
			SelectedVariantIndices: NewOrderedIndices(in.SelectedVariantIndices),
		},
		Rotation: RotationBlock{
			WindowSize:             in.WindowSize,
			WindowFill:             in.WindowFill,
			ImmediateRepeatBlocked: in.ImmediateRepeatBlocked,
		},
		Fallback:   in.Fallback,
		Cultural:   in.Cultural,
		Invariants: in.Invariants,
	}

	// Tone is never computed on the override fast path, so overridden
	// traces omit the field entirely rather than carrying a null.
	if !in.Override && in.ToneProfile != "" {
		profile := in.ToneProfile
		t.ToneProfile = &profile
	}

	t.ReplayHash = computeReplayHash(t)
	return t
}

// computeReplayHash digests the canonical subset of the trace. The subset
// excludes tone_profile and all free text.
func computeReplayHash(t Trace) string {
	var latched any
	if t.Turn.LatchedTheme != nil {
		latched = *t.Turn.LatchedTheme
	}

	var fallback any
	if t.Fallback != nil {
		fallback = map[string]any{
			"level":    t.Fallback.Level,
			"absolute": t.Fallback.Absolute,
		}
	}

	indices := make(map[string]any, len(t.Selection.SelectedVariantIndices.indices))
	for section, index := range t.Selection.SelectedVariantIndices.indices {
		indices[section] = index
	}

	subset := map[string]any{
		"contract_fingerprint":     t.ContractFingerprint,
		"emotional_turn_index":     t.Turn.EmotionalTurnIndex,
		"intent":                   t.Turn.Intent,
		"skeleton_after_guardrail": t.Skeleton.AfterGuardrail,
		"emotional_lang":           t.Turn.EmotionalLang,
		"escalation_state":         t.Turn.EscalationState,
		"latched_theme":            latched,
		"guardrail": map[string]any{
			"classifier_version": t.Guardrail.ClassifierVersion,
			"strategy_version":   t.Guardrail.StrategyVersion,
			"risk_category":      t.Guardrail.RiskCategory,
			"severity":           t.Guardrail.Severity,
			"override":           t.Guardrail.Override,
		},
		"fallback":                 fallback,
		"selected_variant_indices": indices,
	}

	payload, err := digest.CanonicalJSON(subset)
	if err != nil {
		// The subset is built from scalars and maps only; this cannot
		// fail for well-formed traces.
		panic(fmt.Sprintf("replay hash canonicalization: %v", err))
	}
	return digest.Sha256Prefix + digest.SHA256Hex(payload)
}
