package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	assert.True(t, TypeMachineCreated.IsValid())
	assert.True(t, TypeStateChanged.IsValid())
	assert.True(t, TypeTransitionRejected.IsValid())
	assert.False(t, Type("instance.approved").IsValid())
	assert.Equal(t, "machine.state_changed", TypeStateChanged.String())
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeStateChanged, "machine-1")

	require.NotNil(t, evt)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, evt.ID, evt.CorrelationID)
	assert.Equal(t, TypeStateChanged, evt.Type)
	assert.Equal(t, "machine-1", evt.MachineID)
	assert.False(t, evt.Timestamp.IsZero())
	assert.Nil(t, evt.Transition)
}

func TestEvent_CopiesAreIndependent(t *testing.T) {
	base := NewEvent(TypeStateChanged, "machine-1")

	withTransition := base.WithTransition(Transition{From: "Created", To: "PendingApproval", Trigger: "Submit", Sequence: 1})
	withActor := withTransition.WithActor("Requester").WithCorrelation("chain-9")

	assert.Nil(t, base.Transition)
	assert.Empty(t, base.Actor)
	require.NotNil(t, withActor.Transition)
	assert.Equal(t, "PendingApproval", withActor.Transition.To)
	assert.Equal(t, "Requester", withActor.Actor)
	assert.Equal(t, "chain-9", withActor.CorrelationID)
	assert.Equal(t, base.ID, withActor.ID)
	assert.NotEqual(t, "chain-9", withTransition.CorrelationID)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewEvent(TypeMachineCreated, "m").ID
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
