package voice

import "strings"

// UsageRecord is one rotation-memory entry: which variant was used on which
// emotional turn.
type UsageRecord struct {
	VariantID int `json:"variant_id"`
	TurnIndex int `json:"turn_index"`
}

// RotationMemory is the session-scoped anti-repetition log. Usage history is
// append-only within a session; reads are bounded trailing windows. It is
// owned exclusively by one SessionState and is not safe for concurrent use.
type RotationMemory struct {
	pools map[string][]UsageRecord
}

// NewRotationMemory returns an empty rotation memory.
func NewRotationMemory() *RotationMemory {
	return &RotationMemory{pools: make(map[string][]UsageRecord)}
}

// PoolKey builds the canonical rotation key for a variant pool.
func PoolKey(skeleton, language, section string) string {
	return strings.Join([]string{skeleton, language, section}, "|")
}

// ReadWindow returns the last windowSize usage records for key whose turn
// index does not exceed currentTurnIndex. The returned slice is a copy.
func (m *RotationMemory) ReadWindow(key string, windowSize, currentTurnIndex int) []UsageRecord {
	history := m.pools[key]
	filtered := make([]UsageRecord, 0, len(history))
	for _, record := range history {
		if record.TurnIndex <= currentTurnIndex {
			filtered = append(filtered, record)
		}
	}
	if windowSize > 0 && len(filtered) > windowSize {
		filtered = filtered[len(filtered)-windowSize:]
	}
	return filtered
}

// RecordUsage appends a usage record. History is never rewritten.
func (m *RotationMemory) RecordUsage(key string, variantID, turnIndex int) {
	m.pools[key] = append(m.pools[key], UsageRecord{VariantID: variantID, TurnIndex: turnIndex})
}

// Reset clears all usage history.
func (m *RotationMemory) Reset() {
	m.pools = make(map[string][]UsageRecord)
}

// Snapshot returns a deep copy of the usage pools for persistence or
// pre-turn state capture.
func (m *RotationMemory) Snapshot() map[string][]UsageRecord {
	snapshot := make(map[string][]UsageRecord, len(m.pools))
	for key, records := range m.pools {
		copied := make([]UsageRecord, len(records))
		copy(copied, records)
		snapshot[key] = copied
	}
	return snapshot
}

// Restore replaces the usage pools from a snapshot.
func (m *RotationMemory) Restore(snapshot map[string][]UsageRecord) {
	m.pools = make(map[string][]UsageRecord, len(snapshot))
	for key, records := range snapshot {
		copied := make([]UsageRecord, len(records))
		copy(copied, records)
		m.pools[key] = copied
	}
}
