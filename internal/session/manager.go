package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"voicegate/internal/voice"
)

// DefaultSessionID is used when a request carries no session identifier.
const DefaultSessionID = "default"

// entry pairs a session's state with the mutex that serializes its turns.
type entry struct {
	mu    sync.Mutex
	state *voice.SessionState
}

// Manager hands out exclusively-owned session state. Each session's turns run
// one at a time under that session's lock; distinct sessions proceed in
// parallel. State is hydrated from the store on first touch and written back
// after every turn.
type Manager struct {
	store  *Store
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// NewManager wires a manager over the given store. The store may be nil, in
// which case sessions live only in memory.
func NewManager(store *Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:   store,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// WithSession runs fn while holding the session's turn lock. The state passed
// to fn is the live session state; mutations made by fn are persisted when fn
// returns nil or a non-fatal error.
func (m *Manager) WithSession(id string, fn func(state *voice.SessionState) error) error {
	if id == "" {
		id = DefaultSessionID
	}

	e, err := m.acquire(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	fnErr := fn(e.state)

	if m.store != nil {
		if saveErr := m.store.Save(id, e.state); saveErr != nil {
			m.logger.Warn("session persistence failed",
				zap.String("session_id", id),
				zap.Error(saveErr))
		}
	}
	return fnErr
}

// acquire returns the session entry, hydrating it from the store on first use.
func (m *Manager) acquire(id string) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[id]; ok {
		return e, nil
	}

	state := voice.NewSessionState()
	if m.store != nil {
		loaded, err := m.store.Load(id)
		if err != nil {
			return nil, fmt.Errorf("hydrate session %s: %w", id, err)
		}
		if loaded != nil {
			state = loaded
		}
	}

	e := &entry{state: state}
	m.entries[id] = e
	return e, nil
}

// ResetSession clears a session's state in memory and in the store.
func (m *Manager) ResetSession(id string) error {
	if id == "" {
		id = DefaultSessionID
	}

	e, err := m.acquire(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Reset()
	if m.store != nil {
		return m.store.Save(id, e.state)
	}
	return nil
}
