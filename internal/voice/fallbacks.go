package voice

// AbsoluteFallback is the tier-3 hardcoded minimal response per skeleton,
// language forced to a known-safe string.
var AbsoluteFallback = map[string]string{
	"A": "I hear you.",
	"B": "I hear you.",
	"C": "I hear you.",
	"D": "I hear you.",
}

// SkeletonSafeEnFallback is the tier-2 English-only fallback per skeleton.
var SkeletonSafeEnFallback = map[string]string{
	"A": "I hear you.",
	"B": "I hear you.",
	"C": "I hear you.",
	"D": "I hear you.",
}

// BuildSkeletonLocalFallback is the tier-1 deterministic fallback. It still
// receives the language so localized variants can be added per skeleton.
func BuildSkeletonLocalFallback(skeleton, language string) string {
	return "I hear you."
}
