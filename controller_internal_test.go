package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	raw, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return raw
}

func TestRefreshDelayFromExpClaim(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	access := signedToken(t, now.Add(15*time.Minute))

	delay, ok := refreshDelay(access, 30*time.Second, now)
	assert.True(t, ok)
	assert.Equal(t, 15*time.Minute-30*time.Second, delay)
}

func TestRefreshDelayExpiredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	access := signedToken(t, now.Add(-time.Minute))

	_, ok := refreshDelay(access, 30*time.Second, now)
	assert.False(t, ok)
}

func TestRefreshDelayLeewayConsumesRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	access := signedToken(t, now.Add(20*time.Second))

	_, ok := refreshDelay(access, 30*time.Second, now)
	assert.False(t, ok)
}

func TestRefreshDelayOpaqueToken(t *testing.T) {
	// non-JWT bearer tokens simply never refresh proactively
	_, ok := refreshDelay("opaque-bearer-credential", 30*time.Second, time.Now())
	assert.False(t, ok)

	_, ok = refreshDelay("", 30*time.Second, time.Now())
	assert.False(t, ok)
}

func TestRefreshDelayTokenWithoutExp(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"})
	raw, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, ok := refreshDelay(raw, 30*time.Second, time.Now())
	assert.False(t, ok)
}
