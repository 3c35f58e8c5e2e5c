package auth

// Guard is a declarative access-control checkpoint consulted before
// rendering a view or executing an action. Zero requirements means "any
// authenticated user".
type Guard struct {
	RequiredRoles       []Role
	RequiredPermissions []Permission
	// RequireAll demands every listed role and permission; otherwise any
	// single match passes.
	RequireAll bool
}

// Allows evaluates the guard against a session snapshot. Absence of an
// active session always denies, independent of what roles or permissions
// were requested.
func (g Guard) Allows(state SessionState, user *User) bool {
	if user == nil || !state.Active() {
		return false
	}

	if len(g.RequiredRoles) == 0 && len(g.RequiredPermissions) == 0 {
		return true
	}

	if g.RequireAll {
		if len(g.RequiredRoles) > 0 && !HasAllRoles(user, g.RequiredRoles...) {
			return false
		}
		for _, p := range g.RequiredPermissions {
			if !HasPermission(user, p) {
				return false
			}
		}
		return true
	}

	if len(g.RequiredRoles) > 0 && HasAnyRole(user, g.RequiredRoles...) {
		return true
	}
	for _, p := range g.RequiredPermissions {
		if HasPermission(user, p) {
			return true
		}
	}
	return false
}

// AllowsSnapshot is a convenience over Allows for observer callbacks.
func (g Guard) AllowsSnapshot(snap SessionSnapshot) bool {
	return g.Allows(snap.State, snap.User)
}
