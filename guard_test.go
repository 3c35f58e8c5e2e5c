package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskdeck/go-auth"
)

func TestGuardDeniesWithoutActiveSession(t *testing.T) {
	admin := testUser(auth.RoleAdmin)
	guard := auth.Guard{}

	// no session always denies, independent of requirements
	assert.False(t, guard.Allows(auth.StateAnonymous, nil))
	assert.False(t, guard.Allows(auth.StateAnonymous, admin))
	assert.False(t, guard.Allows(auth.StateAuthenticating, admin))
	assert.False(t, guard.Allows(auth.StateError, admin))
	assert.False(t, guard.Allows(auth.StateAuthenticated, nil))
}

func TestGuardZeroValueAdmitsAnyAuthenticatedUser(t *testing.T) {
	guard := auth.Guard{}

	assert.True(t, guard.Allows(auth.StateAuthenticated, testUser(auth.RoleQA)))
	// a silent refresh must not bounce the user
	assert.True(t, guard.Allows(auth.StateRefreshing, testUser(auth.RoleQA)))
}

func TestGuardAnyMatch(t *testing.T) {
	guard := auth.Guard{
		RequiredRoles:       []auth.Role{auth.RoleAdmin},
		RequiredPermissions: []auth.Permission{auth.PermReportsView},
	}

	// qa lacks the role but holds the permission
	assert.True(t, guard.Allows(auth.StateAuthenticated, testUser(auth.RoleQA)))
	// developer has neither
	assert.False(t, guard.Allows(auth.StateAuthenticated, testUser(auth.RoleDeveloper)))
}

func TestGuardRequireAll(t *testing.T) {
	guard := auth.Guard{
		RequiredRoles:       []auth.Role{auth.RoleManager},
		RequiredPermissions: []auth.Permission{auth.PermTimeLogsApprove, auth.PermReportsView},
		RequireAll:          true,
	}

	assert.True(t, guard.Allows(auth.StateAuthenticated, testUser(auth.RoleManager)))
	assert.False(t, guard.Allows(auth.StateAuthenticated, testUser(auth.RoleQA)))

	// admin holds every permission but not the manager role
	assert.False(t, guard.Allows(auth.StateAuthenticated, testUser(auth.RoleAdmin)))
}

func TestGuardAllowsSnapshot(t *testing.T) {
	guard := auth.Guard{RequiredPermissions: []auth.Permission{auth.PermProjectsCreate}}

	assert.True(t, guard.AllowsSnapshot(auth.SessionSnapshot{
		State: auth.StateAuthenticated,
		User:  testUser(auth.RoleManager),
	}))
	assert.False(t, guard.AllowsSnapshot(auth.SessionSnapshot{State: auth.StateAnonymous}))
}
