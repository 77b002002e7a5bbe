package orchestrator

import "fmt"

// State is the lifecycle position of a job.
type State string

const (
	StateCreated    State = "created"
	StateValidating State = "validating"
	StateRendering  State = "rendering"
	StateSaved      State = "saved"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

var transitions = map[State][]State{
	StateCreated:    {StateValidating, StateFailed},
	StateValidating: {StateRendering, StateFailed, StateCancelled},
	StateRendering:  {StateSaved, StateFailed, StateCancelled},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether from → to is a legal step.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition is wrapped by illegal state changes.
type ErrInvalidTransition struct {
	From State
	To   State
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("orchestrator: invalid job transition %s -> %s", e.From, e.To)
}
