package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// transitionKey identifies a transition by its source state and trigger
type transitionKey struct {
	from    State
	trigger Trigger
}

// transition represents a registered transition with optional action
type transition struct {
	toState State
	action  Action
}

// StateMachine tracks the current state of one workflow instance.
//
// The transition table lives only in memory: it is never persisted, so a machine
// restored from the store must have its transitions configured again before Fire.
// A StateMachine is not safe for concurrent use; one owner drives it at a time.
type StateMachine struct {
	id           string
	currentState State
	transitions  map[transitionKey]transition
}

// New creates a state machine with a fresh identity and an empty transition table
func New(initialState State) *StateMachine {
	return Restore(uuid.NewString(), initialState)
}

// Restore creates a state machine with the given identity and state and an empty transition table
func Restore(id string, state State) *StateMachine {
	return &StateMachine{
		id:           id,
		currentState: state,
		transitions:  make(map[transitionKey]transition),
	}
}

// ID returns the identity of the machine
func (m *StateMachine) ID() string {
	return m.id
}

// CurrentState returns the state reached by the last successful transition
func (m *StateMachine) CurrentState() State {
	return m.currentState
}

// ConfigureTransition registers the transition from source to destination on trigger.
// A transition already registered for (source, trigger) is replaced.
func (m *StateMachine) ConfigureTransition(source, destination State, trigger Trigger, action Action) *StateMachine {
	m.transitions[transitionKey{from: source, trigger: trigger}] = transition{
		toState: destination,
		action:  action,
	}
	return m
}

// Destination returns the state trigger would lead to from the current state
func (m *StateMachine) Destination(trigger Trigger) (State, bool) {
	t, ok := m.transitions[transitionKey{from: m.currentState, trigger: trigger}]
	if !ok {
		return StateUnknown, false
	}
	return t.toState, true
}

// CanFire returns true if a transition is registered for trigger in the current state
func (m *StateMachine) CanFire(trigger Trigger) bool {
	_, ok := m.Destination(trigger)
	return ok
}

// Fire executes the transition registered for the current state and trigger.
// The action runs before the state changes; if it fails the state is left as is.
func (m *StateMachine) Fire(ctx context.Context, trigger Trigger) error {
	key := transitionKey{from: m.currentState, trigger: trigger}
	t, ok := m.transitions[key]
	if !ok {
		return &UndefinedTransitionError{State: m.currentState, Trigger: trigger}
	}

	if t.action != nil {
		tc := TransitionContext{
			MachineID: m.id,
			From:      m.currentState,
			To:        t.toState,
			Trigger:   trigger,
		}
		if err := t.action.Execute(ctx, tc); err != nil {
			return fmt.Errorf("%w: trigger %s from state %s: %v", ErrActionFailed, trigger, m.currentState, err)
		}
	}

	m.currentState = t.toState
	return nil
}

// PermittedTriggers returns the triggers registered for the current state, sorted by name
func (m *StateMachine) PermittedTriggers() []Trigger {
	triggers := make([]Trigger, 0)
	for key := range m.transitions {
		if key.from == m.currentState {
			triggers = append(triggers, key.trigger)
		}
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
