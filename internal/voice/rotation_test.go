package voice

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotationMemoryWindowIsBounded(t *testing.T) {
	m := NewRotationMemory()
	key := PoolKey("B", "en", "opener")
	for turn := 0; turn < 20; turn++ {
		m.RecordUsage(key, turn%3, turn)
	}

	window := m.ReadWindow(key, 8, 19)
	require.Len(t, window, 8)
	assert.Equal(t, 12, window[0].TurnIndex)
	assert.Equal(t, 19, window[len(window)-1].TurnIndex)
}

func TestRotationMemoryWindowFiltersFutureTurns(t *testing.T) {
	m := NewRotationMemory()
	key := PoolKey("A", "en", "opener")
	m.RecordUsage(key, 0, 1)
	m.RecordUsage(key, 1, 5)
	m.RecordUsage(key, 2, 9)

	window := m.ReadWindow(key, 6, 5)
	require.Len(t, window, 2)
	assert.Equal(t, 1, window[len(window)-1].VariantID)
}

func TestRotationMemoryReadReturnsCopy(t *testing.T) {
	m := NewRotationMemory()
	key := PoolKey("A", "en", "opener")
	m.RecordUsage(key, 0, 0)

	window := m.ReadWindow(key, 6, 0)
	window[0].VariantID = 99

	again := m.ReadWindow(key, 6, 0)
	assert.Equal(t, 0, again[0].VariantID)
}

func TestRotationMemoryUnknownKeyIsEmpty(t *testing.T) {
	m := NewRotationMemory()
	assert.Empty(t, m.ReadWindow("no|such|pool", 6, 10))
}

func TestRotationMemorySnapshotRestoreRoundTrip(t *testing.T) {
	m := NewRotationMemory()
	keyA := PoolKey("A", "en", "opener")
	keyB := PoolKey("B", "hi", "closure")
	m.RecordUsage(keyA, 0, 0)
	m.RecordUsage(keyA, 1, 1)
	m.RecordUsage(keyB, 2, 3)

	snapshot := m.Snapshot()

	restored := NewRotationMemory()
	restored.Restore(snapshot)
	if diff := cmp.Diff(m.Snapshot(), restored.Snapshot()); diff != "" {
		t.Fatalf("restored memory differs (-want +got):\n%s", diff)
	}

	// Snapshot must be detached from the live pools.
	m.RecordUsage(keyA, 5, 9)
	assert.Len(t, snapshot[keyA], 2)
}

func TestSessionStateCloneIsDeep(t *testing.T) {
	state := NewSessionState()
	key := PoolKey("C", "en", "opener")
	state.Rotation.RecordUsage(key, 0, 0)
	state.EscalationState = EscalationEscalating
	state.LatchedTheme = "family"
	state.EmotionalTurnIndex = 4

	clone := state.Clone()
	state.Rotation.RecordUsage(key, 1, 1)
	state.EscalationState = EscalationLatched

	assert.Len(t, clone.Rotation.ReadWindow(key, 6, 10), 1)
	assert.Equal(t, EscalationEscalating, clone.EscalationState)
	assert.Equal(t, "family", clone.LatchedTheme)
}

func TestSessionStateRestoreFrom(t *testing.T) {
	state := NewSessionState()
	key := PoolKey("A", "en", "opener")
	state.Rotation.RecordUsage(key, 0, 0)
	state.EmotionalTurnIndex = 2
	snapshot := state.Clone()

	state.Rotation.RecordUsage(key, 1, 3)
	state.EmotionalTurnIndex = 3
	state.LatchedTheme = "resignation"

	state.RestoreFrom(snapshot)
	assert.Len(t, state.Rotation.ReadWindow(key, 6, 10), 1)
	assert.Equal(t, 2, state.EmotionalTurnIndex)
	assert.Empty(t, state.LatchedTheme)
}
