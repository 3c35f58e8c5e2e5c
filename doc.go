// Package auth owns the client session lifecycle and the authorization
// policy for the TaskDeck dashboard.
//
// Session lifecycle:
//   - SessionController is the single owner of "who is logged in right now".
//     It drives a small state machine (anonymous, authenticating,
//     authenticated, refreshing, error) and serializes login, register and
//     refresh through a single-flight guard so concurrent callers never race
//     a refresh-token rotation.
//   - TokenStore holds the current token pair. MemoryTokenStore covers tests
//     and short-lived processes; BunTokenStore persists the pair through Bun
//     on SQLite so a restarted client resumes its session.
//   - AuthErrorBus decouples transport failures from session teardown: any
//     request that comes back 401/403 publishes an UnauthorizedEvent, and the
//     controller reacts exactly as if the user logged out.
//
// Authorization:
//   - Role and Permission form a static policy: a RolePermissionTable maps
//     each role to its permission set, with admin treated as a wildcard.
//     HasPermission, HasRole, CanEditTask and friends are pure functions and
//     safe to call at render time.
//   - Guard is a declarative checkpoint combining session state with the
//     policy functions. middleware/guardware adapts it to Fiber handlers
//     with a caller-supplied fallback on deny.
package auth
