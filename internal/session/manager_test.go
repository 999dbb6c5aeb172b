package session

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicegate/internal/voice"
)

func TestWithSessionDefaultsEmptyID(t *testing.T) {
	manager := NewManager(nil, nil)

	require.NoError(t, manager.WithSession("", func(state *voice.SessionState) error {
		state.EmotionalTurnIndex = 7
		return nil
	}))

	require.NoError(t, manager.WithSession(DefaultSessionID, func(state *voice.SessionState) error {
		assert.Equal(t, 7, state.EmotionalTurnIndex)
		return nil
	}))
}

func TestWithSessionKeepsSessionsSeparate(t *testing.T) {
	manager := NewManager(nil, nil)

	require.NoError(t, manager.WithSession("a", func(state *voice.SessionState) error {
		state.EmotionalTurnIndex = 3
		return nil
	}))
	require.NoError(t, manager.WithSession("b", func(state *voice.SessionState) error {
		assert.Zero(t, state.EmotionalTurnIndex)
		return nil
	}))
}

func TestWithSessionReturnsCallbackError(t *testing.T) {
	manager := NewManager(nil, nil)

	wantErr := fmt.Errorf("turn exploded")
	err := manager.WithSession("a", func(*voice.SessionState) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestWithSessionSerializesTurns(t *testing.T) {
	manager := NewManager(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = manager.WithSession("shared", func(state *voice.SessionState) error {
				state.EmotionalTurnIndex++
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, manager.WithSession("shared", func(state *voice.SessionState) error {
		assert.Equal(t, 50, state.EmotionalTurnIndex)
		return nil
	}))
}

func TestWithSessionPersistsAndHydrates(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sessions.db")

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	manager := NewManager(store, nil)

	require.NoError(t, manager.WithSession("a", func(state *voice.SessionState) error {
		state.EmotionalTurnIndex = 2
		state.LastSkeleton = "C"
		state.Rotation.RecordUsage(voice.PoolKey("C", "en", "opener"), 1, 2)
		return nil
	}))
	require.NoError(t, store.Close())

	// Fresh store and manager simulate a process restart.
	store, err = NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()
	manager = NewManager(store, nil)

	require.NoError(t, manager.WithSession("a", func(state *voice.SessionState) error {
		assert.Equal(t, 2, state.EmotionalTurnIndex)
		assert.Equal(t, "C", state.LastSkeleton)
		window := state.Rotation.ReadWindow(voice.PoolKey("C", "en", "opener"), 6, 10)
		require.Len(t, window, 1)
		assert.Equal(t, 1, window[0].VariantID)
		return nil
	}))
}

func TestResetSessionClearsState(t *testing.T) {
	manager := NewManager(nil, nil)

	require.NoError(t, manager.WithSession("a", func(state *voice.SessionState) error {
		state.EmotionalTurnIndex = 5
		state.LatchedTheme = "family"
		return nil
	}))
	require.NoError(t, manager.ResetSession("a"))

	require.NoError(t, manager.WithSession("a", func(state *voice.SessionState) error {
		assert.Zero(t, state.EmotionalTurnIndex)
		assert.Empty(t, state.LatchedTheme)
		assert.Equal(t, voice.EscalationNone, state.EscalationState)
		return nil
	}))
}
