package authz

const (
	RoleAdministrator Role = "Administrator"
	RoleRequester     Role = "Requester"
	RoleApprover      Role = "Approver"
	RolePurchaser     Role = "Purchaser"
	RoleReceiver      Role = "Receiver"
)

const (
	EntityPurchaseOrder   = "PurchaseOrder"
	EntityPurchaseRequest = "PurchaseRequest"
)

const (
	ActionViewOrders    Action = "orders.view"
	ActionEditOrders    Action = "orders.edit"
	ActionApproveOrders Action = "orders.approve"
	ActionPlaceOrders   Action = "orders.place"
	ActionReceiveGoods  Action = "goods.receive"
	ActionManageUsers   Action = "users.manage"
)

// DefaultConfig returns the purchase-order authorization table
func DefaultConfig() Config {
	return Config{
		AdminRole: RoleAdministrator,
		Roles: map[Role][]Action{
			RoleAdministrator: {Wildcard},
			RoleRequester:     {ActionViewOrders, ActionEditOrders},
			RoleApprover:      {ActionViewOrders, ActionApproveOrders},
			RolePurchaser:     {ActionViewOrders, ActionPlaceOrders},
			RoleReceiver:      {ActionViewOrders, ActionReceiveGoods},
		},
		Transitions: []TransitionRule{
			{RoleRequester, "Created", "PendingApproval", EntityPurchaseRequest},
			{RoleRequester, "Created", "PendingApproval", EntityPurchaseOrder},
			{RoleRequester, "Created", "Cancelled", EntityPurchaseRequest},
			{RoleRequester, "Created", "Cancelled", EntityPurchaseOrder},
			{RoleRequester, "Rejected", "Created", EntityPurchaseRequest},
			{RoleRequester, "Rejected", "Created", EntityPurchaseOrder},
			{RoleApprover, "PendingApproval", "Approved", EntityPurchaseRequest},
			{RoleApprover, "PendingApproval", "Approved", EntityPurchaseOrder},
			{RoleApprover, "PendingApproval", "Rejected", EntityPurchaseRequest},
			{RoleApprover, "PendingApproval", "Rejected", EntityPurchaseOrder},
			{RoleApprover, "PendingApproval", "Cancelled", EntityPurchaseOrder},
			{RolePurchaser, "Approved", "Ordered", EntityPurchaseOrder},
			{RolePurchaser, "Approved", "Cancelled", EntityPurchaseOrder},
			{RoleReceiver, "Ordered", "Received", EntityPurchaseOrder},
			{RolePurchaser, "Received", "Completed", EntityPurchaseOrder},
		},
	}
}
