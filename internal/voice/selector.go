package voice

import (
	"fmt"

	"voicegate/internal/contract"
)

// Per-skeleton rotation window sizes.
var WindowSizes = map[string]int{
	"A": 6,
	"B": 8,
	"C": 3,
	"D": 4,
}

const defaultWindowSize = 6

// SectionsFor returns the ordered section names for a skeleton shape.
func SectionsFor(skeleton string) []string {
	if skeleton == "D" {
		return []string{"opener", "action", "closure"}
	}
	return []string{"opener", "validation", "closure"}
}

// Selection is the result of one selector invocation, carrying everything
// the decision trace needs about how the choice was made.
type Selection struct {
	Texts                  map[string]string
	Indices                map[string]int
	EligibleCount          int
	WindowSize             int
	WindowFill             int
	ImmediateRepeatBlocked bool
}

// SelectVariants deterministically picks one variant per section from the
// given pools, biased against recent and over-used choices, then records
// each choice into rotation memory. Recording happens only after the final
// selection for a section, so selection is never influenced by its own side
// effect. Each call increments SelectorInvocationCount exactly once.
func SelectVariants(state *SessionState, skeleton, language string, pools map[string][]contract.Variant) (*Selection, error) {
	if err := validateStateForSelection(state); err != nil {
		return nil, err
	}

	state.SelectorInvocationCount++
	currentTurn := state.EmotionalTurnIndex
	windowSize, ok := WindowSizes[skeleton]
	if !ok {
		windowSize = defaultWindowSize
	}

	selection := &Selection{
		Texts:      make(map[string]string),
		Indices:    make(map[string]int),
		WindowSize: windowSize,
	}

	for i, section := range SectionsFor(skeleton) {
		variants := pools[section]
		if len(variants) == 0 {
			return nil, &SelectionError{Reason: fmt.Sprintf("no variants found for %s/%s/%s", skeleton, language, section)}
		}

		poolKey := PoolKey(skeleton, language, section)
		window := state.Rotation.ReadWindow(poolKey, windowSize, currentTurn)

		candidates := make([]int, len(variants))
		for id := range variants {
			candidates[id] = id
		}

		eligible, repeatBlocked := eligibleCandidates(skeleton, candidates, window)
		if len(eligible) == 0 {
			return nil, &SelectionError{Reason: fmt.Sprintf("no eligible variants for %s/%s/%s", skeleton, language, section)}
		}
		if repeatBlocked {
			selection.ImmediateRepeatBlocked = true
		}
		if i == 0 {
			selection.EligibleCount = len(eligible)
			selection.WindowFill = len(window)
		}

		bestScore := scoreCandidate(skeleton, eligible[0], window, windowSize, currentTurn)
		top := []int{eligible[0]}
		for _, id := range eligible[1:] {
			score := scoreCandidate(skeleton, id, window, windowSize, currentTurn)
			switch {
			case score > bestScore:
				bestScore = score
				top = []int{id}
			case score == bestScore:
				top = append(top, id)
			}
		}

		variantID := tieBreak(top, window)
		selection.Texts[section] = variants[variantID].Text
		selection.Indices[section] = variantID

		state.Rotation.RecordUsage(poolKey, variantID, currentTurn)
	}

	return selection, nil
}

func validateStateForSelection(state *SessionState) error {
	if state == nil {
		return &StateError{Reason: "missing session state"}
	}
	if state.Rotation == nil {
		return &StateError{Reason: "missing rotation memory"}
	}
	if state.EmotionalTurnIndex < 0 {
		return &StateError{Reason: "negative emotional turn index"}
	}
	return nil
}

// eligibleCandidates applies immediate-repeat exclusion. Skeleton C is the
// only shape allowed to repeat when exclusion would empty the pool: shared
// stillness tolerates repetition when there is no alternative.
func eligibleCandidates(skeleton string, candidates []int, window []UsageRecord) ([]int, bool) {
	if len(window) == 0 {
		return candidates, false
	}
	lastID := window[len(window)-1].VariantID
	lastPresent := false
	for _, id := range candidates {
		if id == lastID {
			lastPresent = true
			break
		}
	}
	if !lastPresent || len(candidates) <= 1 {
		return candidates, false
	}

	filtered := make([]int, 0, len(candidates)-1)
	for _, id := range candidates {
		if id != lastID {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) > 0 {
		return filtered, true
	}
	if skeleton == "C" {
		return candidates, false
	}
	return filtered, true
}

func usageCount(window []UsageRecord, variantID int) int {
	count := 0
	for _, record := range window {
		if record.VariantID == variantID {
			count++
		}
	}
	return count
}

// lastSeenTurn returns the most recent turn index for variantID in the
// window, or -1 when never seen.
func lastSeenTurn(window []UsageRecord, variantID int) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].VariantID == variantID {
			return window[i].TurnIndex
		}
	}
	return -1
}

// scoreCandidate computes the rotation score; higher wins. Recent use costs
// more than old use, and over-used variants take a flat penalty. Skeleton A
// skips penalties on the first emotional turn (no meaningful history yet);
// skeleton C only penalizes total saturation of the window.
func scoreCandidate(skeleton string, variantID int, window []UsageRecord, windowSize, currentTurn int) int {
	if skeleton == "A" && currentTurn <= 1 {
		return 0
	}

	score := 0
	for _, record := range window {
		if record.VariantID != variantID {
			continue
		}
		distance := currentTurn - record.TurnIndex
		if distance < 0 {
			distance = 0
		}
		score -= windowSize - distance
	}

	usage := usageCount(window, variantID)
	windowLen := len(window)
	if windowLen > 0 {
		if skeleton == "C" {
			if usage == windowLen {
				score -= windowSize * 2
			}
		} else if float64(usage)/float64(windowLen) > 0.5 {
			score -= windowSize * 2
		}
	}
	return score
}

// tieBreak picks among max-scoring candidates: least recently used first
// (never-seen ranks before any use), then lowest usage count, then lowest
// variant index. Fully deterministic.
func tieBreak(candidates []int, window []UsageRecord) int {
	best := candidates[0]
	bestSeen := lastSeenTurn(window, best)
	bestUsage := usageCount(window, best)
	for _, id := range candidates[1:] {
		seen := lastSeenTurn(window, id)
		usage := usageCount(window, id)
		if seen < bestSeen ||
			(seen == bestSeen && usage < bestUsage) ||
			(seen == bestSeen && usage == bestUsage && id < best) {
			best = id
			bestSeen = seen
			bestUsage = usage
		}
	}
	return best
}
