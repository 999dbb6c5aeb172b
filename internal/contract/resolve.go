package contract

import (
	"fmt"

	"voicegate/internal/guardrail"
)

// categoryKeys maps risk categories to their contract guardrail block keys.
// SAFE and SEXUAL_CONTENT have no contract entry: SAFE never overrides and
// sexual-content overrides always carry canned strategy text.
var categoryKeys = map[guardrail.RiskCategory]string{
	guardrail.CategorySelfHarm:       "self_harm",
	guardrail.CategoryAbuse:          "abuse",
	guardrail.CategoryJailbreak:      "jailbreak",
	guardrail.CategoryExtremism:      "extremism",
	guardrail.CategorySystemProbe:    "system_probe",
	guardrail.CategoryDataExtraction: "data_extraction",
	guardrail.CategoryManipulation:   "manipulation",
}

// CategoryKey returns the contract guardrail key for a risk category.
func CategoryKey(category guardrail.RiskCategory) (string, bool) {
	key, ok := categoryKeys[category]
	return key, ok
}

// GuardrailVariants resolves the override variant pool for a category under
// a skeleton. Language fallback is to en within the same skeleton, never
// cross-skeleton. A missing en block for a required path is a hard error,
// never a silent default.
func (d *Document) GuardrailVariants(skeleton, language, category string) ([]Variant, error) {
	block, ok := d.skeletonBlock(skeleton)
	if !ok {
		return nil, fmt.Errorf("guardrail resolution: skeleton %q not present in contract", skeleton)
	}
	return resolveGuardrailLanguageBlock(block, skeleton, language, category)
}

// resolveGuardrailLanguageBlock picks the requested language's guardrail
// variants when present and falls back to en otherwise.
func resolveGuardrailLanguageBlock(skeletonBlock map[string]any, skeleton, language, category string) ([]Variant, error) {
	if variants, ok := guardrailVariantsIn(skeletonBlock, language, category); ok {
		return normalizeVariantList(variants, skeleton+"."+language+".guardrail."+category)
	}

	variants, ok := guardrailVariantsIn(skeletonBlock, "en", category)
	if !ok {
		return nil, fmt.Errorf("guardrail resolution: %s.en.guardrail.%s missing or malformed", skeleton, category)
	}
	return normalizeVariantList(variants, skeleton+".en.guardrail."+category)
}

func guardrailVariantsIn(skeletonBlock map[string]any, language, category string) ([]any, bool) {
	langBlock, ok := skeletonBlock[language].(map[string]any)
	if !ok {
		return nil, false
	}
	guardrailBlock, ok := langBlock["guardrail"].(map[string]any)
	if !ok {
		return nil, false
	}
	variants, ok := guardrailBlock[category].([]any)
	if !ok {
		return nil, false
	}
	return variants, true
}
