// Package engine sequences the per-turn decision pipeline: guardrail
// classification, strategy, skeleton escalation, tone calibration, variant
// selection, assembly, and decision-trace construction. Override turns
// short-circuit before the model, the escalation table, and the selector
// are ever consulted.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"voicegate/internal/contract"
	"voicegate/internal/guardrail"
	"voicegate/internal/tone"
	"voicegate/internal/trace"
	"voicegate/internal/voice"
)

// Engine orchestrates one conversation turn at a time. The contract
// document is process-wide read-only state; all mutable state lives in the
// caller-owned SessionState.
type Engine struct {
	contract  *contract.Document
	generator Generator
	logger    *zap.Logger
}

// TurnResult is what a turn produces: the response text and its sealed
// decision trace.
type TurnResult struct {
	ResponseText string
	Trace        trace.Trace
}

// New constructs an engine around a validated contract document.
func New(doc *contract.Document, generator Generator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if generator == nil {
		generator = StubGenerator{}
	}
	return &Engine{contract: doc, generator: generator, logger: logger}
}

// Contract exposes the loaded contract document.
func (e *Engine) Contract() *contract.Document {
	return e.contract
}

// Generate runs one turn against the given session state. langOverride, when
// non-empty, pins the emotional language instead of the detected one. The
// caller must serialize turns per session.
func (e *Engine) Generate(ctx context.Context, state *voice.SessionState, prompt, langOverride string) (*TurnResult, error) {
	snapshot := state.Clone()

	result := guardrail.Classify(prompt)
	action := guardrail.ApplyStrategy(result)

	intent := DetectIntent(prompt)
	detectedLang := DetectLanguage(prompt)
	emotionalLang := detectedLang
	if langOverride != "" {
		emotionalLang = langOverride
	}

	if action.Override {
		return e.generateOverride(state, result, action, intent, emotionalLang)
	}

	if intent == IntentEmotional {
		return e.generateEmotional(state, snapshot, result, action, prompt, emotionalLang)
	}
	return e.generateNonEmotional(ctx, state, result, action, prompt, intent, emotionalLang)
}

// generateEmotional runs the full shaping pipeline for an emotional turn.
func (e *Engine) generateEmotional(
	state *voice.SessionState,
	snapshot *voice.SessionState,
	result guardrail.Result,
	action guardrail.Action,
	prompt, emotionalLang string,
) (*TurnResult, error) {
	previousSkeleton := state.LastSkeleton
	if previousSkeleton == "" {
		previousSkeleton = "A"
	}

	signals := BuildEmotionalSignals(prompt, emotionalLang)
	resolution := ResolveEmotionalSkeleton(state, signals)
	UpdateSessionState(state, IntentEmotional, resolution)

	afterGuardrail := guardrail.ComputeEscalation(result, resolution.Skeleton)

	toneProfile := ""
	if afterGuardrail != "D" {
		profile, err := tone.Calibrate(afterGuardrail, result.Severity, result.RiskCategory)
		if err != nil {
			return nil, fmt.Errorf("tone calibration: %w", err)
		}
		toneProfile = string(profile)
	}

	base := traceBase{
		result:           result,
		action:           action,
		intent:           IntentEmotional,
		emotionalLang:    emotionalLang,
		previousSkeleton: previousSkeleton,
		baseSkeleton:     resolution.Skeleton,
		resolvedSkeleton: afterGuardrail,
		escalationState:  state.EscalationState,
		latchedTheme:     state.LatchedTheme,
		turnIndex:        state.EmotionalTurnIndex,
		signals:          signals.TraceSignals(),
		cultural:         signals.CulturalFlags(state.LatchedTheme, strings.ToLower(prompt)),
		toneProfile:      toneProfile,
	}

	invocationsBefore := state.SelectorInvocationCount

	pools, err := e.resolvePools(afterGuardrail, emotionalLang, tone.Profile(toneProfile))
	if err != nil {
		return e.runFallbackTiers(state, snapshot, base, afterGuardrail, emotionalLang, err, "contract")
	}

	selection, err := voice.SelectVariants(state, afterGuardrail, emotionalLang, pools)
	if err != nil {
		return e.runFallbackTiers(state, snapshot, base, afterGuardrail, emotionalLang, err, "selection")
	}

	responseText, err := voice.Assemble(afterGuardrail, selection.Texts)
	if err != nil {
		return e.runFallbackTiers(state, snapshot, base, afterGuardrail, emotionalLang, err, "assembly")
	}

	base.selection = selection
	base.invariants = trace.InvariantsBlock{
		SelectorCalledOnce:    state.SelectorInvocationCount-invocationsBefore == 1,
		RotationBounded:       selection.WindowFill <= selection.WindowSize,
		DeterministicSelector: true,
	}

	return &TurnResult{
		ResponseText: responseText,
		Trace:        e.buildTrace(base),
	}, nil
}

// generateNonEmotional calls the model for factual, explanatory, and
// conversational turns. The voice selector is not involved; the trace still
// records the guardrail outcome and tone for the turn.
func (e *Engine) generateNonEmotional(
	ctx context.Context,
	state *voice.SessionState,
	result guardrail.Result,
	action guardrail.Action,
	prompt, intent, emotionalLang string,
) (*TurnResult, error) {
	previousSkeleton := state.LastSkeleton
	if previousSkeleton == "" {
		previousSkeleton = "A"
	}

	responseText, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model generation: %w", err)
	}

	afterGuardrail := guardrail.ComputeEscalation(result, previousSkeleton)
	toneProfile := ""
	if afterGuardrail != "D" {
		profile, calErr := tone.Calibrate(afterGuardrail, result.Severity, result.RiskCategory)
		if calErr != nil {
			return nil, fmt.Errorf("tone calibration: %w", calErr)
		}
		toneProfile = string(profile)
	}

	base := traceBase{
		result:           result,
		action:           action,
		intent:           intent,
		emotionalLang:    emotionalLang,
		previousSkeleton: previousSkeleton,
		baseSkeleton:     previousSkeleton,
		resolvedSkeleton: afterGuardrail,
		escalationState:  state.EscalationState,
		latchedTheme:     state.LatchedTheme,
		turnIndex:        state.EmotionalTurnIndex,
		toneProfile:      toneProfile,
		invariants: trace.InvariantsBlock{
			SelectorCalledOnce:    false,
			RotationBounded:       true,
			DeterministicSelector: true,
		},
	}

	return &TurnResult{
		ResponseText: responseText,
		Trace:        e.buildTrace(base),
	}, nil
}

// resolvePools loads and tone-filters the variant pool for every section of
// the skeleton.
func (e *Engine) resolvePools(skeleton, language string, profile tone.Profile) (map[string][]contract.Variant, error) {
	pools := make(map[string][]contract.Variant)
	for _, section := range voice.SectionsFor(skeleton) {
		variants, err := e.contract.VariantEntries(skeleton, language, section)
		if err != nil {
			return nil, err
		}
		if profile != "" {
			variants = voice.FilterVariantsByTone(variants, profile)
		}
		pools[section] = variants
	}
	return pools, nil
}

// traceBase accumulates the per-turn facts the trace builder needs.
type traceBase struct {
	result           guardrail.Result
	action           guardrail.Action
	intent           string
	emotionalLang    string
	previousSkeleton string
	baseSkeleton     string
	resolvedSkeleton string
	escalationState  string
	latchedTheme     string
	turnIndex        int
	signals          trace.Signals
	cultural         trace.CulturalBlock
	toneProfile      string
	selection        *voice.Selection
	fallback         *trace.FallbackBlock
	invariants       trace.InvariantsBlock
}

func (e *Engine) buildTrace(base traceBase) trace.Trace {
	in := trace.Input{
		ContractVersion:     e.contract.Version(),
		ContractFingerprint: e.contract.Fingerprint(),
		EmotionalTurnIndex:  base.turnIndex,
		Intent:              base.intent,
		EmotionalLang:       base.emotionalLang,
		PreviousSkeleton:    base.previousSkeleton,
		BaseSkeleton:        base.baseSkeleton,
		ResolvedSkeleton:    base.resolvedSkeleton,
		EscalationState:     base.escalationState,
		LatchedTheme:        base.latchedTheme,
		Signals:             base.signals,
		ClassifierVersion:   base.result.SchemaVersion,
		StrategyVersion:     base.action.StrategyVersion,
		RiskCategory:        string(base.result.RiskCategory),
		Severity:            string(base.result.Severity),
		Override:            base.action.Override,
		ToneProfile:         base.toneProfile,
		Fallback:            base.fallback,
		Cultural:            base.cultural,
		Invariants:          base.invariants,
	}
	if base.selection != nil {
		in.EligibleCount = base.selection.EligibleCount
		in.SelectedVariantIndices = base.selection.Indices
		in.WindowSize = base.selection.WindowSize
		in.WindowFill = base.selection.WindowFill
		in.ImmediateRepeatBlocked = base.selection.ImmediateRepeatBlocked
	}
	return trace.Build(in)
}

// runFallbackTiers maps a pipeline failure to the tiered fallback
// hierarchy. Contract failures on normal-flow paths go straight to the
// absolute tier; selection and assembly failures start at tier 1; state
// failures start at tier 2.
func (e *Engine) runFallbackTiers(
	state *voice.SessionState,
	snapshot *voice.SessionState,
	base traceBase,
	skeleton, language string,
	cause error,
	stage string,
) (*TurnResult, error) {
	startLevel := 1
	var contractErr *contract.Error
	var stateErr *voice.StateError
	switch {
	case errors.As(cause, &contractErr):
		startLevel = 3
	case errors.As(cause, &stateErr):
		startLevel = 2
	}

	e.logger.Warn("voice pipeline fallback",
		zap.String("stage", stage),
		zap.Int("start_level", startLevel),
		zap.String("error_class", voice.ErrorClass(cause)),
		zap.Error(cause))

	reason := voice.ErrorClass(cause) + "@" + stage

	if startLevel <= 1 {
		text := voice.BuildSkeletonLocalFallback(skeleton, language)
		e.recordFallbackUsage(state, skeleton, language)
		base.fallback = &trace.FallbackBlock{Level: 1, Reason: reason}
		base.invariants = fallbackInvariants()
		return &TurnResult{ResponseText: text, Trace: e.buildTrace(base)}, nil
	}

	if startLevel <= 2 {
		fallbackSkeleton := skeleton
		if _, ok := voice.SkeletonSafeEnFallback[fallbackSkeleton]; !ok {
			fallbackSkeleton = "A"
		}
		text := voice.SkeletonSafeEnFallback[fallbackSkeleton]
		base.fallback = &trace.FallbackBlock{Level: 2, Reason: reason}
		base.invariants = fallbackInvariants()
		return &TurnResult{ResponseText: text, Trace: e.buildTrace(base)}, nil
	}

	fallbackSkeleton := skeleton
	if _, ok := voice.AbsoluteFallback[fallbackSkeleton]; !ok {
		fallbackSkeleton = "A"
	}
	state.RestoreFrom(snapshot)
	base.emotionalLang = "en"
	base.fallback = &trace.FallbackBlock{Level: 3, Reason: reason, Absolute: true, StateRestored: true}
	base.invariants = fallbackInvariants()
	return &TurnResult{ResponseText: voice.AbsoluteFallback[fallbackSkeleton], Trace: e.buildTrace(base)}, nil
}

// recordFallbackUsage writes a synthetic rotation usage for tier-1
// fallbacks so session state stays consistent with a served turn.
func (e *Engine) recordFallbackUsage(state *voice.SessionState, skeleton, language string) {
	for _, section := range voice.SectionsFor(skeleton) {
		state.Rotation.RecordUsage(voice.PoolKey(skeleton, language, section), 0, state.EmotionalTurnIndex)
	}
}

func fallbackInvariants() trace.InvariantsBlock {
	return trace.InvariantsBlock{
		SelectorCalledOnce:    false,
		RotationBounded:       true,
		DeterministicSelector: true,
	}
}
