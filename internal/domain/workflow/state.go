package workflow

import "fmt"

// State represents a workflow state. The integer code is the durable representation.
type State int

const (
	StateUnknown State = iota

	// Generic execution lifecycle
	StateNotStarted
	StateExecuting
	StateHibernated
	StateFinished

	// Purchase-order lifecycle
	StateCreated
	StatePendingApproval
	StateApproved
	StateRejected
	StateOrdered
	StateReceived
	StateCompleted
	StateCancelled
)

var stateLabels = map[State]string{
	StateNotStarted:      "NotStarted",
	StateExecuting:       "Executing",
	StateHibernated:      "Hibernated",
	StateFinished:        "Finished",
	StateCreated:         "Created",
	StatePendingApproval: "PendingApproval",
	StateApproved:        "Approved",
	StateRejected:        "Rejected",
	StateOrdered:         "Ordered",
	StateReceived:        "Received",
	StateCompleted:       "Completed",
	StateCancelled:       "Cancelled",
}

var statesByLabel = func() map[string]State {
	m := make(map[string]State, len(stateLabels))
	for s, label := range stateLabels {
		m[label] = s
	}
	return m
}()

var terminalStates = map[State]bool{
	StateFinished:  true,
	StateCompleted: true,
	StateCancelled: true,
}

// ParseState returns the state with the given label
func ParseState(label string) (State, error) {
	s, ok := statesByLabel[label]
	if !ok {
		return StateUnknown, fmt.Errorf("%w: %q", ErrInvalidState, label)
	}
	return s, nil
}

// IsTerminal returns true if the state is a terminal state (no further transitions expected)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a known workflow state
func (s State) IsValid() bool {
	_, ok := stateLabels[s]
	return ok
}

// String returns the label of the state
func (s State) String() string {
	if label, ok := stateLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("State(%d)", int(s))
}
