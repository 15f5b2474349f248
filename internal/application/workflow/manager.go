package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/po-workflow/internal/application/dispatcher"
	"github.com/garyjia/po-workflow/internal/application/port"
	"github.com/garyjia/po-workflow/internal/domain/authz"
	"github.com/garyjia/po-workflow/internal/domain/event"
	domainwf "github.com/garyjia/po-workflow/internal/domain/workflow"
)

// ErrUnknownWorkflow is returned for a workflow type that was never registered
var ErrUnknownWorkflow = errors.New("unknown workflow type")

// registration binds a definition to the actions of its transitions
type registration struct {
	definition *domainwf.Definition
	actions    map[domainwf.Trigger]domainwf.Action
}

// AdvanceRequest asks to move a stored workflow forward on behalf of an actor
type AdvanceRequest struct {
	Role       authz.Role
	EntityType string
	Trigger    domainwf.Trigger
}

// Manager is the single entry point through which higher layers obtain and persist state machines
type Manager struct {
	store      port.MachineStore
	authorizer *authz.Authorizer
	dispatcher *dispatcher.Dispatcher
	logger     *zap.Logger

	workflows map[string]registration
}

// ManagerOption configures the manager
type ManagerOption func(*Manager)

// WithDispatcher sets the dispatcher that receives workflow events
func WithDispatcher(d *dispatcher.Dispatcher) ManagerOption {
	return func(m *Manager) {
		m.dispatcher = d
	}
}

// NewManager creates a new workflow manager
func NewManager(store port.MachineStore, authorizer *authz.Authorizer, logger *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		authorizer: authorizer,
		logger:     logger,
		workflows:  make(map[string]registration),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Register makes a workflow type available. Registering a name again replaces it.
func (m *Manager) Register(def *domainwf.Definition, actions map[domainwf.Trigger]domainwf.Action) error {
	if err := def.Validate(); err != nil {
		return err
	}
	m.workflows[def.Name] = registration{definition: def, actions: actions}
	m.logger.Info("Workflow registered",
		zap.String("workflow", def.Name),
		zap.Int("version", def.Version),
		zap.Int("transitions", len(def.Transitions)))
	return nil
}

// Definition returns the registered definition of a workflow type
func (m *Manager) Definition(workflowType string) (*domainwf.Definition, error) {
	reg, ok := m.workflows[workflowType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, workflowType)
	}
	return reg.definition, nil
}

// Create returns a new in-memory machine with a fresh identity and no transitions
func (m *Manager) Create(initial domainwf.State) *domainwf.StateMachine {
	return domainwf.New(initial)
}

// Load restores a stored machine; its transition table is empty
func (m *Manager) Load(ctx context.Context, id string) (*domainwf.StateMachine, error) {
	return m.store.Load(ctx, id)
}

// Get returns the stored snapshot of a machine
func (m *Manager) Get(ctx context.Context, id string) (*domainwf.Snapshot, error) {
	return m.store.Get(ctx, id)
}

// Save stores the current state of sm without an audit record
func (m *Manager) Save(ctx context.Context, sm *domainwf.StateMachine) error {
	return m.store.Save(ctx, sm)
}

// SaveTransition stores the current state of sm and its audit record atomically
func (m *Manager) SaveTransition(ctx context.Context, sm *domainwf.StateMachine, previous domainwf.State, trigger domainwf.Trigger) (*domainwf.AuditRecord, error) {
	return m.store.SaveTransition(ctx, sm, previous, trigger)
}

// History returns the audit trail of a machine
func (m *Manager) History(ctx context.Context, id string) ([]*domainwf.AuditRecord, error) {
	return m.store.History(ctx, id)
}

// Start creates a machine of a registered workflow type in its initial state,
// configures its transitions and stores it.
func (m *Manager) Start(ctx context.Context, workflowType string) (*domainwf.StateMachine, error) {
	reg, ok := m.workflows[workflowType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, workflowType)
	}

	sm := reg.definition.Apply(m.Create(reg.definition.Initial), reg.actions)
	if err := m.store.Save(ctx, sm); err != nil {
		return nil, err
	}

	m.logger.Info("Workflow started",
		zap.String("workflow", workflowType),
		zap.String("id", sm.ID()),
		zap.Stringer("state", sm.CurrentState()))
	m.publish(ctx, event.NewEvent(event.TypeMachineCreated, sm.ID()))

	return sm, nil
}

// Open loads a stored machine and configures the transitions of its workflow type
func (m *Manager) Open(ctx context.Context, workflowType, id string) (*domainwf.StateMachine, error) {
	reg, ok := m.workflows[workflowType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, workflowType)
	}

	sm, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	return reg.definition.Apply(sm, reg.actions), nil
}

// Advance fires a trigger on a stored machine on behalf of an actor.
// Checks run in a fixed order: the transition must exist for the current state,
// then the role must be authorized for it. Only then is the trigger fired and the
// new state persisted together with its audit record.
func (m *Manager) Advance(ctx context.Context, workflowType, id string, req AdvanceRequest) (*domainwf.StateMachine, *domainwf.AuditRecord, error) {
	sm, err := m.Open(ctx, workflowType, id)
	if err != nil {
		return nil, nil, err
	}

	previous := sm.CurrentState()
	next, ok := sm.Destination(req.Trigger)
	if !ok {
		return nil, nil, &domainwf.UndefinedTransitionError{State: previous, Trigger: req.Trigger}
	}

	if !m.authorizer.CanTransition(req.Role, previous.String(), next.String(), req.EntityType) {
		m.logger.Warn("Transition not authorized",
			zap.String("id", id),
			zap.String("role", string(req.Role)),
			zap.Stringer("from", previous),
			zap.Stringer("to", next),
			zap.String("entity_type", req.EntityType))
		rejected := event.NewEvent(event.TypeTransitionRejected, id).
			WithActor(string(req.Role)).
			WithTransition(event.Transition{From: previous.String(), To: next.String(), Trigger: req.Trigger.String()})
		rejected.Reason = authz.ErrUnauthorized.Error()
		m.publish(ctx, rejected)
		return nil, nil, fmt.Errorf("%w: %s cannot move %s from %s to %s",
			authz.ErrUnauthorized, req.Role, req.EntityType, previous, next)
	}

	if err := sm.Fire(ctx, req.Trigger); err != nil {
		return nil, nil, err
	}

	record, err := m.store.SaveTransition(ctx, sm, previous, req.Trigger)
	if err != nil {
		return nil, nil, err
	}

	changed := event.NewEvent(event.TypeStateChanged, id).
		WithActor(string(req.Role)).
		WithTransition(event.Transition{
			From:     previous.String(),
			To:       sm.CurrentState().String(),
			Trigger:  req.Trigger.String(),
			Sequence: record.Sequence,
		})
	m.publish(ctx, changed)

	return sm, record, nil
}

func (m *Manager) publish(ctx context.Context, evt *event.Event) {
	if m.dispatcher != nil {
		m.dispatcher.DispatchAsync(ctx, evt)
	}
}
