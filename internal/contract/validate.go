package contract

import (
	"fmt"

	"voicegate/internal/tone"
)

// validateStructure enforces the contract shape before any request is
// served. Violations name the offending skeleton.lang.category path.
func validateStructure(raw map[string]any) error {
	skeletons, ok := raw["skeletons"].(map[string]any)
	if !ok {
		return fmt.Errorf("missing or invalid 'skeletons' block")
	}

	for key := range skeletons {
		if !AllowedSkeletons[key] {
			return fmt.Errorf("invalid skeleton key: %q", key)
		}
	}
	if _, ok := skeletons["C"]; !ok {
		return fmt.Errorf("skeleton C must exist")
	}
	if _, ok := skeletons["A"]; !ok {
		return fmt.Errorf("skeleton A must exist")
	}

	if err := validateRequiredGuardrails(skeletons); err != nil {
		return err
	}

	for skeletonKey, rawSkeleton := range skeletons {
		skeletonBlock, ok := rawSkeleton.(map[string]any)
		if !ok {
			return fmt.Errorf("skeleton %q must be an object", skeletonKey)
		}
		for langKey, rawLang := range skeletonBlock {
			langBlock, ok := rawLang.(map[string]any)
			if !ok {
				return fmt.Errorf("language block %q under skeleton %q must be an object", langKey, skeletonKey)
			}
			rawGuardrail, present := langBlock["guardrail"]
			if !present {
				continue
			}
			guardrailBlock, ok := rawGuardrail.(map[string]any)
			if !ok {
				return fmt.Errorf("'guardrail' under %s.%s must be an object", skeletonKey, langKey)
			}
			for categoryKey, rawVariants := range guardrailBlock {
				if !ValidGuardrailCategories[categoryKey] {
					return fmt.Errorf("invalid guardrail category: %q", categoryKey)
				}
				path := skeletonKey + "." + langKey + "." + categoryKey
				if err := validateVariantList(path, rawVariants); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateRequiredGuardrails(skeletons map[string]any) error {
	if !hasGuardrailEntry(skeletons, "C", "en", "self_harm") {
		return fmt.Errorf("Skeleton C must contain en.guardrail.self_harm")
	}
	if !hasGuardrailEntry(skeletons, "A", "en", "jailbreak") || !hasGuardrailEntry(skeletons, "A", "en", "abuse") {
		return fmt.Errorf("Skeleton A must contain en.guardrail.jailbreak and en.guardrail.abuse")
	}
	return nil
}

func hasGuardrailEntry(skeletons map[string]any, skeleton, language, category string) bool {
	skeletonBlock, ok := skeletons[skeleton].(map[string]any)
	if !ok {
		return false
	}
	langBlock, ok := skeletonBlock[language].(map[string]any)
	if !ok {
		return false
	}
	guardrailBlock, ok := langBlock["guardrail"].(map[string]any)
	if !ok {
		return false
	}
	_, present := guardrailBlock[category]
	return present
}

func validateVariantList(path string, rawVariants any) error {
	variants, ok := rawVariants.([]any)
	if !ok || len(variants) == 0 {
		return fmt.Errorf("%s must be a non-empty list", path)
	}
	for _, entry := range variants {
		switch v := entry.(type) {
		case string:
			continue
		case map[string]any:
			if _, ok := v["text"].(string); !ok {
				return fmt.Errorf("variant entry missing valid 'text' in %s", path)
			}
			rawTags, present := v["tone_tags"]
			if !present || rawTags == nil {
				continue
			}
			tags, ok := rawTags.([]any)
			if !ok {
				return fmt.Errorf("'tone_tags' must be a list in %s", path)
			}
			for _, rawTag := range tags {
				tag, ok := rawTag.(string)
				if !ok {
					return fmt.Errorf("invalid tone tag type in %s", path)
				}
				if !tone.IsProfile(tag) {
					return fmt.Errorf("unknown tone profile %q in %s", tag, path)
				}
			}
		default:
			return fmt.Errorf("invalid variant entry in %s", path)
		}
	}
	return nil
}
