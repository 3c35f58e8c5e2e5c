package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskdeck/go-auth"
)

func TestCredentialsValidate(t *testing.T) {
	valid := auth.Credentials{Email: "dev@taskdeck.io", Password: "secret"}
	assert.NoError(t, valid.Validate())

	missing := auth.Credentials{Email: "dev@taskdeck.io"}
	assert.Error(t, missing.Validate())

	malformed := auth.Credentials{Email: "nope", Password: "secret"}
	assert.Error(t, malformed.Validate())
}

func TestRegisterProfileValidate(t *testing.T) {
	profile := auth.RegisterProfile{
		Name:     "Devon Carter",
		Email:    "dev@taskdeck.io",
		Password: "correct horse battery staple",
	}
	assert.NoError(t, profile.Validate())

	profile.Password = "short"
	assert.Error(t, profile.Validate())

	profile.Password = "correct horse battery staple"
	profile.Phone = "555"
	assert.Error(t, profile.Validate())

	profile.Phone = "+1 212 555 0123"
	assert.NoError(t, profile.Validate())
}

func TestTokenPairEmpty(t *testing.T) {
	assert.True(t, auth.TokenPair{}.Empty())
	assert.False(t, auth.TokenPair{AccessToken: "a"}.Empty())
	assert.False(t, auth.TokenPair{RefreshToken: "r"}.Empty())
}
