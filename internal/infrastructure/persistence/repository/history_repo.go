package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/po-workflow/internal/application/port"
	"github.com/garyjia/po-workflow/internal/domain/workflow"
	"github.com/garyjia/po-workflow/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository over the state_machine_history table
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts a history record. The sequence is the next value for the machine,
// so callers must run Append inside the transaction that changes the state.
func (r *HistoryRepository) Append(ctx context.Context, record *workflow.AuditRecord) error {
	query := `
		INSERT INTO state_machine_history (
			id, machine_id, sequence, from_state, to_state, "trigger", transition_time
		)
		SELECT ?, ?, COALESCE(MAX(sequence), 0) + 1, ?, ?, ?, ?
		FROM state_machine_history
		WHERE machine_id = ?
		RETURNING sequence
	`

	err := r.db.Executor(ctx).QueryRowContext(ctx, query,
		record.ID,
		record.MachineID,
		record.FromState,
		record.ToState,
		record.Trigger,
		record.TransitionTime,
		record.MachineID,
	).Scan(&record.Sequence)
	if err != nil {
		r.logger.Error("Failed to append history record",
			zap.String("machine_id", record.MachineID),
			zap.String("trigger", record.Trigger.String()),
			zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}

	return nil
}

// ListByMachineID retrieves all history records of a machine in sequence order
func (r *HistoryRepository) ListByMachineID(ctx context.Context, machineID string) ([]*workflow.AuditRecord, error) {
	query := `
		SELECT id, machine_id, sequence, from_state, to_state, "trigger", transition_time
		FROM state_machine_history
		WHERE machine_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, machineID)
	if err != nil {
		r.logger.Error("Failed to list history", zap.String("machine_id", machineID), zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []*workflow.AuditRecord
	for rows.Next() {
		var record workflow.AuditRecord
		err := rows.Scan(
			&record.ID,
			&record.MachineID,
			&record.Sequence,
			&record.FromState,
			&record.ToState,
			&record.Trigger,
			&record.TransitionTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
