// Package session owns per-conversation voice state: exclusive in-memory
// ownership with per-session serialization, plus a SQLite-backed store that
// persists session state and rotation memory across restarts.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"voicegate/internal/voice"
)

// Store persists session voice state in SQLite.
type Store struct {
	db      *sql.DB
	entropy *rand.Rand
}

// persistedState is the JSON shape written to the sessions table.
type persistedState struct {
	Rotation                map[string][]voice.UsageRecord `json:"rotation"`
	EscalationState         string                         `json:"escalation_state"`
	LatchedTheme            string                         `json:"latched_theme"`
	EmotionalTurnIndex      int                            `json:"emotional_turn_index"`
	SelectorInvocationCount int                            `json:"selector_invocation_count"`
	LastSkeleton            string                         `json:"last_skeleton"`
	LastIntent              string                         `json:"last_intent"`
	LastEmotionalLang       string                         `json:"last_emotional_lang"`
}

// NewStore opens or creates the session database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	s := &Store{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		state      TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// NewID mints a new session identifier.
func (s *Store) NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Save upserts the session's voice state.
func (s *Store) Save(id string, state *voice.SessionState) error {
	payload, err := json.Marshal(persistedState{
		Rotation:                state.Rotation.Snapshot(),
		EscalationState:         state.EscalationState,
		LatchedTheme:            state.LatchedTheme,
		EmotionalTurnIndex:      state.EmotionalTurnIndex,
		SelectorInvocationCount: state.SelectorInvocationCount,
		LastSkeleton:            state.LastSkeleton,
		LastIntent:              state.LastIntent,
		LastEmotionalLang:       state.LastEmotionalLang,
	})
	if err != nil {
		return fmt.Errorf("serialize session state: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, state, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		id, string(payload), now, now)
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

// Load restores a session's voice state, or returns (nil, nil) when the
// session is unknown.
func (s *Store) Load(id string) (*voice.SessionState, error) {
	var payload string
	err := s.db.QueryRow(`SELECT state FROM sessions WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var persisted persistedState
	if err := json.Unmarshal([]byte(payload), &persisted); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	state := voice.NewSessionState()
	state.Rotation.Restore(persisted.Rotation)
	state.EscalationState = persisted.EscalationState
	if state.EscalationState == "" {
		state.EscalationState = voice.EscalationNone
	}
	state.LatchedTheme = persisted.LatchedTheme
	state.EmotionalTurnIndex = persisted.EmotionalTurnIndex
	state.SelectorInvocationCount = persisted.SelectorInvocationCount
	state.LastSkeleton = persisted.LastSkeleton
	state.LastIntent = persisted.LastIntent
	state.LastEmotionalLang = persisted.LastEmotionalLang
	return state, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
