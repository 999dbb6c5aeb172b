package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeEscalation(t *testing.T) {
	cases := []struct {
		name     string
		result   Result
		current  string
		expected string
	}{
		{"safe keeps current", result(CategorySafe, SeverityLow, false), "B", "B"},
		{"self harm forces C", result(CategorySelfHarm, SeverityHigh, true), "A", "C"},
		{"self harm forces C from D", result(CategorySelfHarm, SeverityCritical, true), "D", "C"},
		{"jailbreak forces A", result(CategoryJailbreak, SeverityHigh, true), "C", "A"},
		{"abuse forces A", result(CategoryAbuse, SeverityMedium, true), "B", "A"},
		{"extremism forces A", result(CategoryExtremism, SeverityCritical, true), "D", "A"},
		{"system probe forces A", result(CategorySystemProbe, SeverityMedium, true), "B", "A"},
		{"data extraction forces A", result(CategoryDataExtraction, SeverityHigh, true), "C", "A"},
		{"manipulation low keeps current", result(CategoryManipulation, SeverityMedium, true), "B", "B"},
		{"manipulation high forces A", result(CategoryManipulation, SeverityHigh, true), "B", "A"},
		{"sexual content keeps current", result(CategorySexualContent, SeverityHigh, true), "B", "B"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ComputeEscalation(tc.result, tc.current))
		})
	}
}

func TestComputeEscalationDoesNotValidateCurrentSkeleton(t *testing.T) {
	// Out-of-band skeleton strings pass through untouched on unchanged paths.
	got := ComputeEscalation(result(CategorySafe, SeverityLow, false), "Z")
	assert.Equal(t, "Z", got)

	got = ComputeEscalation(result(CategorySelfHarm, SeverityCritical, true), "Z")
	assert.Equal(t, "C", got)
}
