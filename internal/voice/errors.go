// Package voice implements the stateful half of the response-shaping
// pipeline: session voice state, the rotation memory and anti-repetition
// selector, tone filtering of variant pools, and response assembly.
package voice

import "fmt"

// SelectionError means the selector found no eligible variants. It is an
// expected recoverable condition that feeds fallback tier 1.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return "voice selection: " + e.Reason
}

// StateError means a session state invariant was violated (malformed window,
// negative turn index). It feeds fallback tier 2.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return "voice state: " + e.Reason
}

// AssemblyError means response assembly failed. It feeds fallback tier 1.
type AssemblyError struct {
	Reason string
}

func (e *AssemblyError) Error() string {
	return "voice assembly: " + e.Reason
}

// ErrorClass names the error family for fallback meta tagging.
func ErrorClass(err error) string {
	switch err.(type) {
	case *SelectionError:
		return "SelectionError"
	case *StateError:
		return "StateError"
	case *AssemblyError:
		return "AssemblyError"
	default:
		return fmt.Sprintf("%T", err)
	}
}
