package event

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies the type of workflow event
type Type string

const (
	TypeMachineCreated     Type = "machine.created"
	TypeStateChanged       Type = "machine.state_changed"
	TypeTransitionRejected Type = "machine.transition_rejected"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeMachineCreated, TypeStateChanged, TypeTransitionRejected:
		return true
	default:
		return false
	}
}

// Transition carries the state labels of a transition event
type Transition struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Trigger  string `json:"trigger"`
	Sequence int64  `json:"sequence,omitempty"`
}

// Event is a notification about a state machine
type Event struct {
	ID            string      `json:"id"`
	Type          Type        `json:"type"`
	MachineID     string      `json:"machine_id"`
	Actor         string      `json:"actor,omitempty"`
	Transition    *Transition `json:"transition,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id"`
}

// NewEvent creates an event with a generated ID, timestamp and correlation ID
func NewEvent(eventType Type, machineID string) *Event {
	id := uuid.NewString()
	return &Event{
		ID:            id,
		Type:          eventType,
		MachineID:     machineID,
		Timestamp:     time.Now().UTC(),
		CorrelationID: id,
	}
}

// WithTransition returns a copy of the event carrying the transition
func (e *Event) WithTransition(t Transition) *Event {
	cp := *e
	cp.Transition = &t
	return &cp
}

// WithActor returns a copy of the event attributed to actor
func (e *Event) WithActor(actor string) *Event {
	cp := *e
	cp.Actor = actor
	return &cp
}

// WithCorrelation returns a copy of the event linked to an existing correlation chain
func (e *Event) WithCorrelation(correlationID string) *Event {
	cp := *e
	cp.CorrelationID = correlationID
	return &cp
}
