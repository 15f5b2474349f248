package workflow

import (
	"context"

	"go.uber.org/zap"

	domainwf "github.com/garyjia/po-workflow/internal/domain/workflow"
)

// LoggingAction logs every transition it is bound to
type LoggingAction struct {
	logger *zap.Logger
}

// NewLoggingAction creates a new logging action
func NewLoggingAction(logger *zap.Logger) *LoggingAction {
	return &LoggingAction{logger: logger}
}

// Execute implements domainwf.Action
func (a *LoggingAction) Execute(ctx context.Context, tc domainwf.TransitionContext) error {
	a.logger.Info("Transition firing",
		zap.String("id", tc.MachineID),
		zap.Stringer("from", tc.From),
		zap.Stringer("to", tc.To),
		zap.String("trigger", tc.Trigger.String()))
	return nil
}

// ActionsFor binds one action to every trigger of a definition
func ActionsFor(def *domainwf.Definition, action domainwf.Action) map[domainwf.Trigger]domainwf.Action {
	actions := make(map[domainwf.Trigger]domainwf.Action, len(def.Transitions))
	for _, t := range def.Transitions {
		actions[t.Trigger] = action
	}
	return actions
}

var _ domainwf.Action = (*LoggingAction)(nil)
