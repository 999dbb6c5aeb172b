package voice

import (
	"voicegate/internal/contract"
	"voicegate/internal/tone"
)

// FilterVariantsByTone narrows a variant pool to variants matching the
// active tone profile. Variants without tone tags are universal and always
// match. If filtering would empty the pool, the original pool is returned
// unchanged: a guardrail override must always have something to say. The
// input is never mutated.
func FilterVariantsByTone(variants []contract.Variant, profile tone.Profile) []contract.Variant {
	filtered := make([]contract.Variant, 0, len(variants))
	for _, variant := range variants {
		if variantMatchesTone(variant, profile) {
			filtered = append(filtered, variant)
		}
	}
	if len(filtered) == 0 {
		return variants
	}
	return filtered
}

func variantMatchesTone(variant contract.Variant, profile tone.Profile) bool {
	if len(variant.ToneTags) == 0 {
		return true
	}
	for _, tag := range variant.ToneTags {
		if tag == string(profile) {
			return true
		}
	}
	return false
}
