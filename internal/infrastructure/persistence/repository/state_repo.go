package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/po-workflow/internal/application/port"
	"github.com/garyjia/po-workflow/internal/domain/workflow"
	"github.com/garyjia/po-workflow/internal/infrastructure/persistence/sqlite"
)

// StateRepository implements port.StateRepository over the state_machines table
type StateRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewStateRepository creates a new state repository
func NewStateRepository(db *sqlite.DB, logger *zap.Logger) *StateRepository {
	return &StateRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the stored snapshot of a state machine
func (r *StateRepository) Get(ctx context.Context, id string) (*workflow.Snapshot, error) {
	query := `
		SELECT id, state, version, last_transition, created_at, updated_at
		FROM state_machines
		WHERE id = ?
	`

	var snapshot workflow.Snapshot
	var lastTransition sql.NullTime

	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&snapshot.ID,
		&snapshot.State,
		&snapshot.Version,
		&lastTransition,
		&snapshot.CreatedAt,
		&snapshot.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get state machine", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get state machine: %w", err)
	}

	if lastTransition.Valid {
		snapshot.LastTransition = &lastTransition.Time
	}

	return &snapshot, nil
}

// Upsert stores the state of a machine in a single atomic statement
func (r *StateRepository) Upsert(ctx context.Context, id string, state workflow.State, at time.Time) error {
	query := `
		INSERT INTO state_machines (id, state, version, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			version = state_machines.version + 1,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, id, state, at, at)
	if err != nil {
		r.logger.Error("Failed to upsert state", zap.String("id", id), zap.Stringer("state", state), zap.Error(err))
		return fmt.Errorf("failed to upsert state: %w", err)
	}

	return nil
}

// Insert creates the row of a machine whose first durable write is a transition
func (r *StateRepository) Insert(ctx context.Context, id string, state workflow.State, at time.Time) error {
	query := `
		INSERT INTO state_machines (id, state, version, last_transition, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, id, state, at, at, at)
	if err != nil {
		r.logger.Error("Failed to insert state", zap.String("id", id), zap.Stringer("state", state), zap.Error(err))
		return fmt.Errorf("failed to insert state: %w", err)
	}

	return nil
}

// CompareAndSwap updates the state only if the stored state equals expected
func (r *StateRepository) CompareAndSwap(ctx context.Context, id string, expected, next workflow.State, at time.Time) (bool, error) {
	query := `
		UPDATE state_machines
		SET state = ?, version = version + 1, last_transition = ?, updated_at = ?
		WHERE id = ? AND state = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, next, at, at, id, expected)
	if err != nil {
		r.logger.Error("Failed to update state",
			zap.String("id", id),
			zap.Stringer("expected", expected),
			zap.Stringer("next", next),
			zap.Error(err))
		return false, fmt.Errorf("failed to update state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

// Verify interface compliance
var _ port.StateRepository = (*StateRepository)(nil)
