package contract

import "fmt"

// Error reports a contract violation with the path that triggered it
// (skeleton.lang.category form).
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return "voice contract: " + e.Reason
	}
	return fmt.Sprintf("voice contract %s: %s", e.Path, e.Reason)
}
