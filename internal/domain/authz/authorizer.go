// Package authz answers whether an actor's role may perform an action or
// request a workflow transition. It is advisory: the state machine never
// consults it, callers check it before firing a trigger.
package authz

import "errors"

// ErrUnauthorized is returned by callers that refuse a transition after CanTransition returned false
var ErrUnauthorized = errors.New("transition not authorized for role")

// Role classifies an actor
type Role string

// Action is a named permission
type Action string

// Wildcard grants every action to a role that holds it
const Wildcard Action = "*"

// TransitionRule permits one role to move one entity type from one state label to another
type TransitionRule struct {
	Role       Role
	From       string
	To         string
	EntityType string
}

// Config is the authorization table built at startup
type Config struct {
	AdminRole   Role
	Roles       map[Role][]Action
	Transitions []TransitionRule
}

// Authorizer answers permission and transition queries from an immutable table.
// It is safe for concurrent use.
type Authorizer struct {
	adminRole   Role
	permissions map[Role]map[Action]struct{}
	transitions map[TransitionRule]struct{}
}

// New builds an Authorizer. The configuration is copied; later changes to cfg have no effect.
func New(cfg Config) *Authorizer {
	a := &Authorizer{
		adminRole:   cfg.AdminRole,
		permissions: make(map[Role]map[Action]struct{}, len(cfg.Roles)),
		transitions: make(map[TransitionRule]struct{}, len(cfg.Transitions)),
	}

	for role, actions := range cfg.Roles {
		set := make(map[Action]struct{}, len(actions))
		for _, action := range actions {
			set[action] = struct{}{}
		}
		a.permissions[role] = set
	}

	for _, rule := range cfg.Transitions {
		a.transitions[rule] = struct{}{}
	}

	return a
}

// AdminRole returns the role that is authorized for every transition
func (a *Authorizer) AdminRole() Role {
	return a.adminRole
}

// HasPermission reports whether role may perform action.
// Unknown roles hold no permissions.
func (a *Authorizer) HasPermission(role Role, action Action) bool {
	set, ok := a.permissions[role]
	if !ok {
		return false
	}
	if _, ok := set[Wildcard]; ok {
		return true
	}
	_, ok = set[action]
	return ok
}

// CanTransition reports whether role may move an entity of entityType from one state label to another.
// The administrator role is always authorized; every other role needs an exact rule.
func (a *Authorizer) CanTransition(role Role, from, to, entityType string) bool {
	if a.adminRole != "" && role == a.adminRole {
		return true
	}
	_, ok := a.transitions[TransitionRule{Role: role, From: from, To: to, EntityType: entityType}]
	return ok
}
