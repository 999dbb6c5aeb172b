package engine

import (
	"fmt"

	"voicegate/internal/contract"
	"voicegate/internal/guardrail"
	"voicegate/internal/tone"
	"voicegate/internal/trace"
	"voicegate/internal/voice"
)

// legacyOverrideMessage is the fixed response used when an override category
// has neither a contract entry nor canned strategy text.
const legacyOverrideMessage = "I can't continue with that request."

// generateOverride resolves an override turn entirely from the contract and
// the strategy's canned text. The model, the escalation table, and the
// selector are never invoked here; override wording must resolve without
// paying model-inference cost.
func (e *Engine) generateOverride(
	state *voice.SessionState,
	result guardrail.Result,
	action guardrail.Action,
	intent, emotionalLang string,
) (*TurnResult, error) {
	previousSkeleton := state.LastSkeleton
	if previousSkeleton == "" {
		previousSkeleton = "A"
	}

	var responseText string
	var effectiveSkeleton string
	var err error

	if result.RiskCategory == guardrail.CategorySelfHarm {
		effectiveSkeleton = "C"
		responseText, err = e.resolveSelfHarmOverride(result.Severity, emotionalLang, previousSkeleton)
		if err != nil {
			// Contract completeness for the self-harm path is a
			// load-time guaranteed invariant; missing data here is
			// fatal, never patched around.
			return nil, fmt.Errorf("self-harm override resolution: %w", err)
		}
	} else {
		effectiveSkeleton = "A"
		responseText = e.resolveCategoryOverride(result, action, emotionalLang)
	}

	base := traceBase{
		result:           result,
		action:           action,
		intent:           intent,
		emotionalLang:    emotionalLang,
		previousSkeleton: previousSkeleton,
		baseSkeleton:     previousSkeleton,
		resolvedSkeleton: effectiveSkeleton,
		escalationState:  state.EscalationState,
		latchedTheme:     state.LatchedTheme,
		turnIndex:        state.EmotionalTurnIndex,
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

// resolveSelfHarmOverride resolves self-harm override wording. The
// effective skeleton is clamped to C before any contract lookup, regardless
// of the upstream hint: the escalation table alone is not trusted to keep
// this invariant across future edits, so the lock lives here too.
func (e *Engine) resolveSelfHarmOverride(severity guardrail.Severity, language, effectiveSkeletonHint string) (string, error) {
	_ = effectiveSkeletonHint
	const lockedSkeleton = "C"

	variants, err := e.contract.GuardrailVariants(lockedSkeleton, language, "self_harm")
	if err != nil {
		return "", err
	}
	if len(variants) == 0 {
		return "", fmt.Errorf("%s.%s.guardrail.self_harm resolved to an empty pool", lockedSkeleton, language)
	}

	profile, err := tone.Calibrate(lockedSkeleton, severity, guardrail.CategorySelfHarm)
	if err != nil {
		return "", err
	}

	filtered := voice.FilterVariantsByTone(variants, profile)
	return selectOverrideVariant(filtered)
}

// resolveCategoryOverride resolves wording for non-self-harm overrides:
// contract guardrail text filtered by the tone profile for the severity,
// else the strategy's canned text, else the legacy fixed string.
func (e *Engine) resolveCategoryOverride(result guardrail.Result, action guardrail.Action, language string) string {
	key, ok := contract.CategoryKey(result.RiskCategory)
	if ok {
		variants, err := e.contract.GuardrailVariants("A", language, key)
		if err == nil && len(variants) > 0 {
			if profile, calErr := tone.Calibrate("A", result.Severity, result.RiskCategory); calErr == nil {
				variants = voice.FilterVariantsByTone(variants, profile)
			}
			if text, selErr := selectOverrideVariant(variants); selErr == nil {
				return text
			}
		}
	}
	if action.HasResponseText {
		return action.ResponseText
	}
	return legacyOverrideMessage
}

// selectOverrideVariant deterministically picks the override wording: the
// first element of the pool wins.
func selectOverrideVariant(variants []contract.Variant) (string, error) {
	if len(variants) == 0 {
		return "", fmt.Errorf("guardrail override selection received an empty variant pool")
	}
	return variants[0].Text, nil
}
