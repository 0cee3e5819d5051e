package auth

// policy is one row of the role → permission table.
type policy struct {
	// actions the role may perform; nil grants every action.
	actions map[Action]struct{}
	// scoped confines the role to its own facility scope.
	scoped bool
}

var policies = map[Role]policy{
	RoleAdmin:    {actions: nil},
	RoleReporter: {actions: map[Action]struct{}{ActionRead: {}, ActionWrite: {}}, scoped: true},
	RoleMonitor:  {actions: map[Action]struct{}{ActionRead: {}}},
}

// Authorize decides whether the principal may perform action on the resource
// scope. Pure and deterministic; any role/action pair not granted by the
// table is denied.
func Authorize(p Principal, action Action, resourceScope string) bool {
	pol, ok := policies[p.Role]
	if !ok {
		return false
	}
	if pol.actions != nil {
		if _, ok := pol.actions[action]; !ok {
			return false
		}
	}
	if pol.scoped {
		return p.FacilityID != "" && p.FacilityID == resourceScope
	}
	return true
}
