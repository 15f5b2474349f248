package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/po-workflow/internal/domain/workflow"
)

type fakeStateRepo struct {
	rows map[string]*workflow.Snapshot
}

func (f *fakeStateRepo) Get(ctx context.Context, id string) (*workflow.Snapshot, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
	}
	cp := *row
	return &cp, nil
}

func (f *fakeStateRepo) Upsert(ctx context.Context, id string, state workflow.State, at time.Time) error {
	if row, ok := f.rows[id]; ok {
		row.State = state
		row.Version++
		row.UpdatedAt = at
		return nil
	}
	f.rows[id] = &workflow.Snapshot{ID: id, State: state, Version: 1, CreatedAt: at, UpdatedAt: at}
	return nil
}

func (f *fakeStateRepo) Insert(ctx context.Context, id string, state workflow.State, at time.Time) error {
	if _, ok := f.rows[id]; ok {
		return fmt.Errorf("duplicate id %s", id)
	}
	f.rows[id] = &workflow.Snapshot{ID: id, State: state, Version: 1, LastTransition: &at, CreatedAt: at, UpdatedAt: at}
	return nil
}

func (f *fakeStateRepo) CompareAndSwap(ctx context.Context, id string, expected, next workflow.State, at time.Time) (bool, error) {
	row, ok := f.rows[id]
	if !ok || row.State != expected {
		return false, nil
	}
	row.State = next
	row.Version++
	row.LastTransition = &at
	row.UpdatedAt = at
	return true, nil
}

type fakeHistoryRepo struct {
	records []*workflow.AuditRecord
}

func (f *fakeHistoryRepo) Append(ctx context.Context, record *workflow.AuditRecord) error {
	var seq int64
	for _, r := range f.records {
		if r.MachineID == record.MachineID && r.Sequence > seq {
			seq = r.Sequence
		}
	}
	record.Sequence = seq + 1
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistoryRepo) ListByMachineID(ctx context.Context, machineID string) ([]*workflow.AuditRecord, error) {
	var result []*workflow.AuditRecord
	for _, r := range f.records {
		if r.MachineID == machineID {
			result = append(result, r)
		}
	}
	return result, nil
}

// fakeTxManager runs fn directly and then reports commitErr
type fakeTxManager struct {
	commitErr error
}

func (f *fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return f.commitErr
}
