// Package tone maps (skeleton, severity, risk category) to one tone profile
// from a closed set. The mapping is a total lookup table: every well-formed
// input resolves to exactly one profile, and out-of-domain inputs are
// programmer errors reported loudly rather than silently defaulted.
package tone

import (
	"fmt"

	"voicegate/internal/guardrail"
)

// Profile is one name from the closed tone-profile set.
type Profile string

const (
	NeutralFormal           Profile = "neutral_formal"
	WarmEngaged             Profile = "warm_engaged"
	EmpatheticSoft          Profile = "empathetic_soft"
	EmpatheticHighIntensity Profile = "empathetic_high_intensity"
	EmpatheticCrisisSupport Profile = "empathetic_crisis_support"
	GroundedCalm            Profile = "grounded_calm"
	GroundedCalmStrong      Profile = "grounded_calm_strong"
	FirmBoundary            Profile = "firm_boundary"
	FirmBoundaryStrict      Profile = "firm_boundary_strict"
	MeasuredNeutral         Profile = "measured_neutral"
	SupportiveLowIntensity  Profile = "supportive_low_intensity"
)

// Profiles is the closed set of valid tone profiles, used by contract
// validation to reject unknown tone tags.
var Profiles = map[Profile]bool{
	NeutralFormal:           true,
	WarmEngaged:             true,
	EmpatheticSoft:          true,
	EmpatheticHighIntensity: true,
	EmpatheticCrisisSupport: true,
	GroundedCalm:            true,
	GroundedCalmStrong:      true,
	FirmBoundary:            true,
	FirmBoundaryStrict:      true,
	MeasuredNeutral:         true,
	SupportiveLowIntensity:  true,
}

// IsProfile reports whether name is a member of the closed tone-profile set.
func IsProfile(name string) bool {
	return Profiles[Profile(name)]
}

type skeletonSeverity struct {
	skeleton string
	severity guardrail.Severity
}

var safeSkeletonSeverityToTone = map[skeletonSeverity]Profile{
	{"A", guardrail.SeverityLow}:      NeutralFormal,
	{"A", guardrail.SeverityMedium}:   WarmEngaged,
	{"B", guardrail.SeverityLow}:      WarmEngaged,
	{"B", guardrail.SeverityMedium}:   WarmEngaged,
	{"B", guardrail.SeverityHigh}:     WarmEngaged,
	{"B", guardrail.SeverityCritical}: WarmEngaged,
	{"C", guardrail.SeverityLow}:      EmpatheticSoft,
	{"C", guardrail.SeverityMedium}:   EmpatheticSoft,
	{"C", guardrail.SeverityHigh}:     EmpatheticSoft,
	{"C", guardrail.SeverityCritical}: EmpatheticSoft,
}

var selfHarmSeverityToTone = map[guardrail.Severity]Profile{
	guardrail.SeverityLow:      EmpatheticSoft,
	guardrail.SeverityMedium:   EmpatheticSoft,
	guardrail.SeverityHigh:     EmpatheticHighIntensity,
	guardrail.SeverityCritical: EmpatheticCrisisSupport,
}

var abuseSeverityToTone = map[guardrail.Severity]Profile{
	guardrail.SeverityLow:      GroundedCalm,
	guardrail.SeverityMedium:   GroundedCalm,
	guardrail.SeverityHigh:     GroundedCalmStrong,
	guardrail.SeverityCritical: GroundedCalmStrong,
}

var extremismSeverityToTone = map[guardrail.Severity]Profile{
	guardrail.SeverityLow:      MeasuredNeutral,
	guardrail.SeverityMedium:   MeasuredNeutral,
	guardrail.SeverityHigh:     FirmBoundaryStrict,
	guardrail.SeverityCritical: FirmBoundaryStrict,
}

var boundarySeverityToTone = map[guardrail.Severity]Profile{
	guardrail.SeverityLow:      FirmBoundary,
	guardrail.SeverityMedium:   FirmBoundary,
	guardrail.SeverityHigh:     FirmBoundaryStrict,
	guardrail.SeverityCritical: FirmBoundaryStrict,
}

var manipulationSeverityToTone = map[guardrail.Severity]Profile{
	guardrail.SeverityLow:      GroundedCalm,
	guardrail.SeverityMedium:   GroundedCalm,
	guardrail.SeverityHigh:     GroundedCalmStrong,
	guardrail.SeverityCritical: GroundedCalmStrong,
}

var validSeverities = map[guardrail.Severity]bool{
	guardrail.SeverityLow:      true,
	guardrail.SeverityMedium:   true,
	guardrail.SeverityHigh:     true,
	guardrail.SeverityCritical: true,
}

// Calibrate resolves the tone profile for a turn. Skeleton D is never a valid
// input here: D turns are action-shaped and bypass tone calibration entirely.
func Calibrate(skeleton string, severity guardrail.Severity, category guardrail.RiskCategory) (Profile, error) {
	if skeleton != "A" && skeleton != "B" && skeleton != "C" {
		return "", fmt.Errorf("unknown skeleton: %q", skeleton)
	}
	if !validSeverities[severity] {
		return "", fmt.Errorf("unknown severity: %q", severity)
	}

	switch category {
	case guardrail.CategorySafe:
		profile, ok := safeSkeletonSeverityToTone[skeletonSeverity{skeleton, severity}]
		if !ok {
			return "", fmt.Errorf("no tone mapping for skeleton %q at severity %q", skeleton, severity)
		}
		return profile, nil
	case guardrail.CategorySelfHarm:
		return selfHarmSeverityToTone[severity], nil
	case guardrail.CategoryAbuse:
		return abuseSeverityToTone[severity], nil
	case guardrail.CategoryExtremism:
		return extremismSeverityToTone[severity], nil
	case guardrail.CategoryJailbreak:
		return boundarySeverityToTone[severity], nil
	case guardrail.CategorySystemProbe:
		return MeasuredNeutral, nil
	case guardrail.CategoryDataExtraction:
		return boundarySeverityToTone[severity], nil
	case guardrail.CategoryManipulation:
		return manipulationSeverityToTone[severity], nil
	}
	return "", fmt.Errorf("unknown guardrail category: %q", category)
}
