package guardrail

// StrategyVersion is recorded in the decision trace as strategy_version.
const StrategyVersion = "14.2"

// Action is the immutable output of the strategy stage. Override means the
// orchestrator must resolve response text without consulting the model, the
// escalation table, or the selector. BlockInference is reserved for future
// hard-stop semantics and is always false today; it is threaded through but
// never gates anything beyond Override.
type Action struct {
	StrategyVersion string
	Override        bool
	ResponseText    string
	HasResponseText bool
	BlockInference  bool
}

const (
	SelfHarmSupportiveMessage = "I'm really sorry you're feeling this way. You don't have to handle this alone. " +
		"If you're in immediate danger, please contact local emergency services or a trusted person near you."

	SexualBoundaryMessage = "I can't help with explicit sexual content. I can help with safer, non-explicit information instead."

	ManipulationRefusalMessage = "I can't bypass my safety boundaries, even hypothetically or as a test."

	SystemProbeGenericMessage = "I can provide high-level information about how I work, but I don't expose internal system details."

	DataExtractionPrivacyMessage = "I can't provide private training records, memory dumps, or internal data exports."
)

func action(override bool, responseText string, hasText bool) Action {
	return Action{
		StrategyVersion: StrategyVersion,
		Override:        override,
		ResponseText:    responseText,
		HasResponseText: hasText,
		BlockInference:  false,
	}
}

func severityAtLeast(severity Severity, floor Severity) bool {
	rank := map[Severity]int{
		SeverityLow:      0,
		SeverityMedium:   1,
		SeverityHigh:     2,
		SeverityCritical: 3,
	}
	return rank[severity] >= rank[floor]
}

// ApplyStrategy maps a classification to an action via a fixed table.
// Unknown categories never override: override-without-text for an unhandled
// category would leave the runtime with nothing to say.
func ApplyStrategy(result Result) Action {
	switch result.RiskCategory {
	case CategorySafe:
		return action(false, "", false)
	case CategorySelfHarm:
		if severityAtLeast(result.Severity, SeverityHigh) {
			return action(true, SelfHarmSupportiveMessage, true)
		}
	case CategoryAbuse:
		if severityAtLeast(result.Severity, SeverityMedium) {
			return action(true, "", false)
		}
	case CategorySexualContent:
		if severityAtLeast(result.Severity, SeverityMedium) {
			return action(true, SexualBoundaryMessage, true)
		}
	case CategoryExtremism:
		if severityAtLeast(result.Severity, SeverityHigh) {
			return action(true, "", false)
		}
	case CategoryManipulation:
		if severityAtLeast(result.Severity, SeverityHigh) {
			return action(true, ManipulationRefusalMessage, true)
		}
	case CategoryJailbreak:
		return action(true, "", false)
	case CategorySystemProbe:
		if severityAtLeast(result.Severity, SeverityMedium) {
			return action(true, SystemProbeGenericMessage, true)
		}
	case CategoryDataExtraction:
		if severityAtLeast(result.Severity, SeverityHigh) {
			return action(true, DataExtractionPrivacyMessage, true)
		}
	}
	return action(false, "", false)
}
