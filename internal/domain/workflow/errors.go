package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrUndefinedTransition is returned when no transition is registered for the current state and trigger
	ErrUndefinedTransition = errors.New("undefined transition")

	// ErrActionFailed is returned when a transition's action fails; the state is left unchanged
	ErrActionFailed = errors.New("transition action failed")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound is returned when no state machine exists for an id
	ErrNotFound = errors.New("state machine not found")

	// ErrTransitionPersistenceFailed is returned when the audited save was rolled back
	ErrTransitionPersistenceFailed = errors.New("transition persistence failed")

	// ErrStaleState is returned when the stored state no longer matches the expected previous state
	ErrStaleState = errors.New("stored state does not match previous state")
)

// UndefinedTransitionError identifies the state and trigger that had no registered transition
type UndefinedTransitionError struct {
	State   State
	Trigger Trigger
}

func (e *UndefinedTransitionError) Error() string {
	return fmt.Sprintf("%s: trigger %s from state %s", ErrUndefinedTransition, e.Trigger, e.State)
}

// Is reports whether target is ErrUndefinedTransition
func (e *UndefinedTransitionError) Is(target error) bool {
	return target == ErrUndefinedTransition
}
