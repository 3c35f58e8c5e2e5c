package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore is durable storage for the current token pair. Set overwrites
// both values as one unit, Clear is idempotent, and readers return the empty
// string when no token is stored. Implementations must never interleave a
// half-written pair.
type TokenStore interface {
	Set(ctx context.Context, access, refresh string) error
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	IssuedAt(ctx context.Context) (time.Time, error)
	Clear(ctx context.Context) error
}

// CredentialClient exchanges credentials with the remote authority. Every
// successful exchange persists the returned token pair through the TokenStore
// before the result is returned to the caller.
type CredentialClient interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, profile RegisterProfile) (*AuthResult, error)
	Refresh(ctx context.Context) (*TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context) (*User, error)
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetHTTPTimeout() time.Duration
	GetRefreshLeeway() time.Duration
	GetUserAgent() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
