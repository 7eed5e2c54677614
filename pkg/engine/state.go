// Package engine drives the deterministic conversation loop: per-turn
// state selection, persona template rendering and reply validation. Given
// the same transcript the engine always produces the same states and the
// same replies.
package engine

import "fmt"

// State is an engagement tactic. The set is closed; every turn resolves
// to exactly one of these.
type State string

const (
	StateClarify State = "CLARIFY" // ask for repetition, feign confusion
	StateConfuse State = "CONFUSE" // derail with unrelated concerns
	StateStall   State = "STALL"   // buy time with small interruptions
	StateExtract State = "EXTRACT" // probe for identifying information
	StateDeflect State = "DEFLECT" // change the subject
)

// AllStates lists every state in rotation order.
var AllStates = []State{StateClarify, StateConfuse, StateStall, StateDeflect, StateExtract}

// ParseState converts a stored string back into a State.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateClarify, StateConfuse, StateStall, StateExtract, StateDeflect:
		return State(s), nil
	}
	return "", fmt.Errorf("engine: unknown state %q", s)
}

func (s State) String() string { return string(s) }
