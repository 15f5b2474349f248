package workflow

import "fmt"

// TransitionSpec is one row of a workflow definition
type TransitionSpec struct {
	From    State
	To      State
	Trigger Trigger
}

// Definition is the versioned transition table of a workflow type.
// Machines never persist their transitions, so a definition is applied to every
// machine after it is created or loaded.
type Definition struct {
	Name        string
	Version     int
	Initial     State
	Transitions []TransitionSpec
}

// Apply registers every transition of the definition on m.
// actions binds an optional side effect to each trigger.
func (d *Definition) Apply(m *StateMachine, actions map[Trigger]Action) *StateMachine {
	for _, t := range d.Transitions {
		m.ConfigureTransition(t.From, t.To, t.Trigger, actions[t.Trigger])
	}
	return m
}

// Validate checks that every state referenced by the definition is known
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("definition name is required")
	}
	if !d.Initial.IsValid() {
		return fmt.Errorf("%w: initial state %s of %s", ErrInvalidState, d.Initial, d.Name)
	}
	for _, t := range d.Transitions {
		if !t.From.IsValid() || !t.To.IsValid() {
			return fmt.Errorf("%w: %s -%s-> %s in %s", ErrInvalidState, t.From, t.Trigger, t.To, d.Name)
		}
		if t.Trigger == "" {
			return fmt.Errorf("empty trigger from %s in %s", t.From, d.Name)
		}
	}
	return nil
}
