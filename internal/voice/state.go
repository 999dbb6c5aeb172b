package voice

// EscalationState values for a session.
const (
	EscalationNone       = "none"
	EscalationEscalating = "escalating"
	EscalationLatched    = "latched"
)

// SessionState is the mutable, session-lifetime voice state. One instance is
// exclusively owned by one conversation; the surrounding server must
// serialize turns against it.
type SessionState struct {
	Rotation                *RotationMemory
	EscalationState         string
	LatchedTheme            string
	EmotionalTurnIndex      int
	SelectorInvocationCount int
	LastSkeleton            string
	LastIntent              string
	LastEmotionalLang       string
}

// NewSessionState returns a fresh session state with empty rotation memory.
func NewSessionState() *SessionState {
	return &SessionState{
		Rotation:        NewRotationMemory(),
		EscalationState: EscalationNone,
	}
}

// Reset clears all fields, including rotation memory.
func (s *SessionState) Reset() {
	s.Rotation.Reset()
	s.EscalationState = EscalationNone
	s.LatchedTheme = ""
	s.EmotionalTurnIndex = 0
	s.SelectorInvocationCount = 0
	s.LastSkeleton = ""
	s.LastIntent = ""
	s.LastEmotionalLang = ""
}

// Clone returns a deep copy, used as the pre-turn snapshot that absolute
// fallback restores from.
func (s *SessionState) Clone() *SessionState {
	clone := *s
	if s.Rotation != nil {
		clone.Rotation = NewRotationMemory()
		clone.Rotation.Restore(s.Rotation.Snapshot())
	}
	return &clone
}

// RestoreFrom replaces this state's contents with the snapshot's.
func (s *SessionState) RestoreFrom(snapshot *SessionState) {
	s.Rotation.Restore(snapshot.Rotation.Snapshot())
	s.EscalationState = snapshot.EscalationState
	s.LatchedTheme = snapshot.LatchedTheme
	s.EmotionalTurnIndex = snapshot.EmotionalTurnIndex
	s.SelectorInvocationCount = snapshot.SelectorInvocationCount
	s.LastSkeleton = snapshot.LastSkeleton
	s.LastIntent = snapshot.LastIntent
	s.LastEmotionalLang = snapshot.LastEmotionalLang
}
