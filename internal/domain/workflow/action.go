package workflow

import "context"

// TransitionContext describes the transition an action is invoked for
type TransitionContext struct {
	MachineID string
	From      State
	To        State
	Trigger   Trigger
}

// Action is a side effect bound to a transition. It runs synchronously inside Fire.
type Action interface {
	Execute(ctx context.Context, tc TransitionContext) error
}

// ActionFunc adapts a function to the Action interface
type ActionFunc func(ctx context.Context, tc TransitionContext) error

// Execute calls f(ctx, tc)
func (f ActionFunc) Execute(ctx context.Context, tc TransitionContext) error {
	return f(ctx, tc)
}
