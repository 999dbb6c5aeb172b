package guardrail

// Categories that always force the skeleton to A.
var forceACategories = map[RiskCategory]bool{
	CategoryAbuse:          true,
	CategoryExtremism:      true,
	CategorySystemProbe:    true,
	CategoryDataExtraction: true,
	CategoryJailbreak:      true,
}

// ComputeEscalation maps a classification and the current skeleton to the
// skeleton the turn must use. The current skeleton is deliberately not
// validated or normalized: this function only special-cases categories, and
// out-of-band skeleton strings pass through untouched on the unchanged paths.
func ComputeEscalation(result Result, currentSkeleton string) string {
	switch {
	case result.RiskCategory == CategorySafe:
		return currentSkeleton
	case result.RiskCategory == CategorySelfHarm:
		return "C"
	case forceACategories[result.RiskCategory]:
		return "A"
	case result.RiskCategory == CategoryManipulation:
		if result.Severity == SeverityHigh || result.Severity == SeverityCritical {
			return "A"
		}
		return currentSkeleton
	}
	return currentSkeleton
}
