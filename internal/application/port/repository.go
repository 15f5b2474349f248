package port

import (
	"context"
	"time"

	"github.com/garyjia/po-workflow/internal/domain/workflow"
)

// StateRepository defines persistence operations for the current state of state machines
type StateRepository interface {
	// Get returns the snapshot for id, or workflow.ErrNotFound
	Get(ctx context.Context, id string) (*workflow.Snapshot, error)

	// Upsert stores state for id in a single statement, creating the row if needed
	Upsert(ctx context.Context, id string, state workflow.State, at time.Time) error

	// Insert creates the row for id, recording at as its last transition
	Insert(ctx context.Context, id string, state workflow.State, at time.Time) error

	// CompareAndSwap moves id from expected to next and reports whether a row was updated
	CompareAndSwap(ctx context.Context, id string, expected, next workflow.State, at time.Time) (bool, error)
}

// HistoryRepository defines persistence operations for the transition audit trail
type HistoryRepository interface {
	// Append inserts record and assigns its per-machine Sequence
	Append(ctx context.Context, record *workflow.AuditRecord) error

	// ListByMachineID returns the records of a machine ordered by Sequence
	ListByMachineID(ctx context.Context, machineID string) ([]*workflow.AuditRecord, error)
}

// TransactionManager runs a function within a single atomic transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MachineStore is the durable store of state machines and their audit trail
type MachineStore interface {
	// Load restores a machine with its stored state and an empty transition table
	Load(ctx context.Context, id string) (*workflow.StateMachine, error)

	// Get returns the stored snapshot of a machine
	Get(ctx context.Context, id string) (*workflow.Snapshot, error)

	// Save stores the current state of m
	Save(ctx context.Context, m *workflow.StateMachine) error

	// SaveTransition stores the current state of m and one audit record atomically
	SaveTransition(ctx context.Context, m *workflow.StateMachine, previous workflow.State, trigger workflow.Trigger) (*workflow.AuditRecord, error)

	// History returns the audit trail of a machine in replay order
	History(ctx context.Context, id string) ([]*workflow.AuditRecord, error)
}
