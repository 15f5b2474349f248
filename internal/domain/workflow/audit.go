package workflow

import "time"

// AuditRecord is one append-only row of the transition audit trail.
// Sequence is assigned per machine at write time and defines replay order.
type AuditRecord struct {
	ID             string    `json:"id"`
	Sequence       int64     `json:"sequence"`
	MachineID      string    `json:"machine_id"`
	FromState      State     `json:"from_state"`
	ToState        State     `json:"to_state"`
	Trigger        Trigger   `json:"trigger"`
	TransitionTime time.Time `json:"transition_time"`
}

// Snapshot is the durable view of a state machine
type Snapshot struct {
	ID             string     `json:"id"`
	State          State      `json:"state"`
	Version        int64      `json:"version"`
	LastTransition *time.Time `json:"last_transition,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
