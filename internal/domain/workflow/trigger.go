package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerStart     Trigger = "Start"
	TriggerHibernate Trigger = "Hibernate"
	TriggerResume    Trigger = "Resume"
	TriggerFinish    Trigger = "Finish"

	TriggerSubmit       Trigger = "Submit"
	TriggerApprove      Trigger = "Approve"
	TriggerReject       Trigger = "Reject"
	TriggerRevise       Trigger = "Revise"
	TriggerPlaceOrder   Trigger = "PlaceOrder"
	TriggerReceiveGoods Trigger = "ReceiveGoods"
	TriggerClose        Trigger = "Close"
	TriggerCancel       Trigger = "Cancel"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
