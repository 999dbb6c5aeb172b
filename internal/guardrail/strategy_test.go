package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyStrategySafeNeverOverrides(t *testing.T) {
	act := ApplyStrategy(result(CategorySafe, SeverityLow, false))
	assert.False(t, act.Override)
	assert.False(t, act.HasResponseText)
	assert.Equal(t, StrategyVersion, act.StrategyVersion)
}

func TestApplyStrategySelfHarmSeverityFloor(t *testing.T) {
	low := ApplyStrategy(result(CategorySelfHarm, SeverityLow, true))
	assert.False(t, low.Override)

	high := ApplyStrategy(result(CategorySelfHarm, SeverityHigh, true))
	assert.True(t, high.Override)
	assert.Equal(t, SelfHarmSupportiveMessage, high.ResponseText)
	assert.True(t, high.HasResponseText)

	critical := ApplyStrategy(result(CategorySelfHarm, SeverityCritical, true))
	assert.True(t, critical.Override)
}

func TestApplyStrategyJailbreakAlwaysOverrides(t *testing.T) {
	for _, severity := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		act := ApplyStrategy(result(CategoryJailbreak, severity, true))
		assert.True(t, act.Override, "severity %s", severity)
		assert.False(t, act.HasResponseText)
	}
}

func TestApplyStrategyCannedTexts(t *testing.T) {
	cases := []struct {
		category RiskCategory
		severity Severity
		text     string
	}{
		{CategorySexualContent, SeverityHigh, SexualBoundaryMessage},
		{CategoryManipulation, SeverityHigh, ManipulationRefusalMessage},
		{CategorySystemProbe, SeverityMedium, SystemProbeGenericMessage},
		{CategoryDataExtraction, SeverityHigh, DataExtractionPrivacyMessage},
	}
	for _, tc := range cases {
		act := ApplyStrategy(result(tc.category, tc.severity, true))
		assert.True(t, act.Override, "%s", tc.category)
		assert.Equal(t, tc.text, act.ResponseText)
		assert.True(t, act.HasResponseText)
	}
}

func TestApplyStrategyAbuseOverridesWithoutText(t *testing.T) {
	act := ApplyStrategy(result(CategoryAbuse, SeverityMedium, true))
	assert.True(t, act.Override)
	assert.False(t, act.HasResponseText)

	low := ApplyStrategy(result(CategoryAbuse, SeverityLow, true))
	assert.False(t, low.Override)
}

func TestApplyStrategyNeverBlocksInference(t *testing.T) {
	for _, category := range []RiskCategory{
		CategorySafe, CategorySelfHarm, CategoryAbuse, CategorySexualContent,
		CategoryExtremism, CategoryManipulation, CategoryJailbreak,
		CategorySystemProbe, CategoryDataExtraction,
	} {
		act := ApplyStrategy(result(category, SeverityCritical, true))
		assert.False(t, act.BlockInference, "%s", category)
	}
}
