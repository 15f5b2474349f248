package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/po-workflow/internal/application/port"
	"github.com/garyjia/po-workflow/internal/domain/workflow"
)

// MachineStore persists state machines and their audit trail.
// Only the current state is durable; transition tables are never stored.
type MachineStore struct {
	states    port.StateRepository
	history   port.HistoryRepository
	txManager port.TransactionManager
	logger    *zap.Logger
	now       func() time.Time
}

// MachineStoreOption configures the machine store
type MachineStoreOption func(*MachineStore)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) MachineStoreOption {
	return func(s *MachineStore) {
		s.now = now
	}
}

// NewMachineStore creates a new machine store
func NewMachineStore(
	states port.StateRepository,
	history port.HistoryRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
	opts ...MachineStoreOption,
) *MachineStore {
	s := &MachineStore{
		states:    states,
		history:   history,
		txManager: txManager,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load restores the machine stored under id. The returned machine has an empty
// transition table; callers apply the workflow definition before firing triggers.
func (s *MachineStore) Load(ctx context.Context, id string) (*workflow.StateMachine, error) {
	snapshot, err := s.states.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return workflow.Restore(snapshot.ID, snapshot.State), nil
}

// Get returns the stored snapshot of a machine
func (s *MachineStore) Get(ctx context.Context, id string) (*workflow.Snapshot, error) {
	return s.states.Get(ctx, id)
}

// Save stores the current state of m, creating the row on first save
func (s *MachineStore) Save(ctx context.Context, m *workflow.StateMachine) error {
	if err := s.states.Upsert(ctx, m.ID(), m.CurrentState(), s.now()); err != nil {
		return err
	}

	s.logger.Debug("State machine saved",
		zap.String("id", m.ID()),
		zap.Stringer("state", m.CurrentState()))
	return nil
}

// SaveTransition stores the current state of m together with one audit record.
// The state update only applies if the stored state is still previous; a machine
// that was never saved is created. Both writes commit or neither does.
func (s *MachineStore) SaveTransition(
	ctx context.Context,
	m *workflow.StateMachine,
	previous workflow.State,
	trigger workflow.Trigger,
) (*workflow.AuditRecord, error) {
	now := s.now()
	record := &workflow.AuditRecord{
		ID:             uuid.NewString(),
		MachineID:      m.ID(),
		FromState:      previous,
		ToState:        m.CurrentState(),
		Trigger:        trigger,
		TransitionTime: now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		swapped, err := s.states.CompareAndSwap(txCtx, m.ID(), previous, m.CurrentState(), now)
		if err != nil {
			return err
		}

		if !swapped {
			stored, err := s.states.Get(txCtx, m.ID())
			switch {
			case errors.Is(err, workflow.ErrNotFound):
				if err := s.states.Insert(txCtx, m.ID(), m.CurrentState(), now); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				return fmt.Errorf("%w: stored %s, previous %s", workflow.ErrStaleState, stored.State, previous)
			}
		}

		return s.history.Append(txCtx, record)
	})
	if err != nil {
		s.logger.Error("Failed to persist transition",
			zap.String("id", m.ID()),
			zap.Stringer("from", previous),
			zap.Stringer("to", m.CurrentState()),
			zap.String("trigger", trigger.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: machine %s: %w", workflow.ErrTransitionPersistenceFailed, m.ID(), err)
	}

	s.logger.Info("Transition persisted",
		zap.String("id", m.ID()),
		zap.Stringer("from", previous),
		zap.Stringer("to", m.CurrentState()),
		zap.String("trigger", trigger.String()),
		zap.Int64("sequence", record.Sequence))

	return record, nil
}

// History returns the audit trail of a machine in sequence order
func (s *MachineStore) History(ctx context.Context, id string) ([]*workflow.AuditRecord, error) {
	return s.history.ListByMachineID(ctx, id)
}

// Verify interface compliance
var _ port.MachineStore = (*MachineStore)(nil)
