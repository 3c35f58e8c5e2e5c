package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskdeck/go-auth"
)

func TestSessionStateValidity(t *testing.T) {
	for _, state := range []auth.SessionState{
		auth.StateAnonymous,
		auth.StateAuthenticating,
		auth.StateAuthenticated,
		auth.StateRefreshing,
		auth.StateError,
	} {
		assert.True(t, state.IsValid(), "state %s should be valid", state)
	}
	assert.False(t, auth.SessionState("suspended").IsValid())
}

func TestSessionStateActive(t *testing.T) {
	assert.True(t, auth.StateAuthenticated.Active())
	assert.True(t, auth.StateRefreshing.Active())
	assert.False(t, auth.StateAnonymous.Active())
	assert.False(t, auth.StateAuthenticating.Active())
	assert.False(t, auth.StateError.Active())
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to auth.SessionState
		want     bool
	}{
		{auth.StateAnonymous, auth.StateAuthenticating, true},
		{auth.StateAuthenticating, auth.StateAuthenticated, true},
		{auth.StateAuthenticating, auth.StateError, true},
		{auth.StateAuthenticated, auth.StateRefreshing, true},
		{auth.StateRefreshing, auth.StateAuthenticated, true},
		{auth.StateError, auth.StateAuthenticating, true},
		{auth.StateAuthenticated, auth.StateAuthenticating, true},

		{auth.StateAnonymous, auth.StateAuthenticated, false},
		{auth.StateAnonymous, auth.StateRefreshing, false},
		{auth.StateRefreshing, auth.StateError, false},
		{auth.StateError, auth.StateAuthenticated, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, auth.CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestAnonymousReachableFromEverywhere(t *testing.T) {
	// logout and unauthorized teardown pre-empt everything
	for _, from := range []auth.SessionState{
		auth.StateAnonymous,
		auth.StateAuthenticating,
		auth.StateAuthenticated,
		auth.StateRefreshing,
		auth.StateError,
	} {
		assert.True(t, auth.CanTransition(from, auth.StateAnonymous), "from %s", from)
	}
}
