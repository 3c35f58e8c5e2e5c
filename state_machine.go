package auth

// SessionState enumerates the session lifecycle states.
type SessionState string

const (
	// StateAnonymous means no session exists
	StateAnonymous SessionState = "anonymous"
	// StateAuthenticating means a login or register exchange is in flight
	StateAuthenticating SessionState = "authenticating"
	// StateAuthenticated means a user is logged in
	StateAuthenticated SessionState = "authenticated"
	// StateRefreshing is a silent token refresh; the user stays visible so
	// observers do not re-prompt for login
	StateRefreshing SessionState = "refreshing"
	// StateError is a recoverable failure; retry moves back through
	// authenticating
	StateError SessionState = "error"
)

// IsValid checks if the state is one of the predefined session states
func (s SessionState) IsValid() bool {
	switch s {
	case StateAnonymous, StateAuthenticating, StateAuthenticated, StateRefreshing, StateError:
		return true
	default:
		return false
	}
}

// Active reports whether a user is visible in this state. Refreshing keeps
// the previous user visible on purpose.
func (s SessionState) Active() bool {
	return s == StateAuthenticated || s == StateRefreshing
}

// sessionTransitions is the allowed transition graph. Anonymous is reachable
// from every state (logout and unauthorized teardown pre-empt everything),
// so it is not listed as a target here.
var sessionTransitions = map[SessionState]map[SessionState]struct{}{
	StateAnonymous: {
		StateAuthenticating: {},
	},
	StateAuthenticating: {
		StateAuthenticated: {},
		StateError:         {},
	},
	StateAuthenticated: {
		StateRefreshing:     {},
		StateAuthenticating: {},
		StateError:          {},
	},
	StateRefreshing: {
		StateAuthenticated: {},
	},
	StateError: {
		StateAuthenticating: {},
	},
}

// CanTransition reports whether the session may move from one state to
// another. Transitions into anonymous are always allowed.
func CanTransition(from, to SessionState) bool {
	if to == StateAnonymous {
		return true
	}
	if allowed, ok := sessionTransitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}
