package workflow

import (
	domainwf "github.com/garyjia/po-workflow/internal/domain/workflow"
)

// Workflow type names
const (
	TypePurchaseOrder = "purchase_order"
	TypeExecution     = "execution"
)

// PurchaseOrderDefinition returns the transition table of the purchase-order approval lifecycle
func PurchaseOrderDefinition() *domainwf.Definition {
	return &domainwf.Definition{
		Name:    TypePurchaseOrder,
		Version: 1,
		Initial: domainwf.StateCreated,
		Transitions: []domainwf.TransitionSpec{
			// CREATED
			{From: domainwf.StateCreated, To: domainwf.StatePendingApproval, Trigger: domainwf.TriggerSubmit},
			{From: domainwf.StateCreated, To: domainwf.StateCancelled, Trigger: domainwf.TriggerCancel},

			// PENDING APPROVAL
			{From: domainwf.StatePendingApproval, To: domainwf.StateApproved, Trigger: domainwf.TriggerApprove},
			{From: domainwf.StatePendingApproval, To: domainwf.StateRejected, Trigger: domainwf.TriggerReject},
			{From: domainwf.StatePendingApproval, To: domainwf.StateCancelled, Trigger: domainwf.TriggerCancel},

			// REJECTED goes back to the requester for revision
			{From: domainwf.StateRejected, To: domainwf.StateCreated, Trigger: domainwf.TriggerRevise},
			{From: domainwf.StateRejected, To: domainwf.StateCancelled, Trigger: domainwf.TriggerCancel},

			// APPROVED
			{From: domainwf.StateApproved, To: domainwf.StateOrdered, Trigger: domainwf.TriggerPlaceOrder},
			{From: domainwf.StateApproved, To: domainwf.StateCancelled, Trigger: domainwf.TriggerCancel},

			// ORDERED
			{From: domainwf.StateOrdered, To: domainwf.StateReceived, Trigger: domainwf.TriggerReceiveGoods},

			// RECEIVED
			{From: domainwf.StateReceived, To: domainwf.StateCompleted, Trigger: domainwf.TriggerClose},

			// COMPLETED and CANCELLED are terminal
		},
	}
}

// ExecutionDefinition returns the generic NotStarted/Executing/Hibernated/Finished lifecycle
func ExecutionDefinition() *domainwf.Definition {
	return &domainwf.Definition{
		Name:    TypeExecution,
		Version: 1,
		Initial: domainwf.StateNotStarted,
		Transitions: []domainwf.TransitionSpec{
			{From: domainwf.StateNotStarted, To: domainwf.StateExecuting, Trigger: domainwf.TriggerStart},
			{From: domainwf.StateExecuting, To: domainwf.StateHibernated, Trigger: domainwf.TriggerHibernate},
			{From: domainwf.StateHibernated, To: domainwf.StateExecuting, Trigger: domainwf.TriggerResume},
			{From: domainwf.StateExecuting, To: domainwf.StateFinished, Trigger: domainwf.TriggerFinish},
		},
	}
}
