package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeNetworkUnavailable = "auth_network_unavailable"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeNoRefreshToken     = "auth_no_refresh_token"
	TextCodeUnauthorized       = "auth_unauthorized"
	TextCodeServerError        = "auth_server_error"
	TextCodeInvalidTransition  = "auth_invalid_session_transition"
)

// ErrInvalidCredentials is returned when the remote authority rejects the
// supplied email/password pair. Retryable with corrected input.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNetworkUnavailable is returned when the remote authority cannot be
// reached. Transient; the session state is left unchanged.
var ErrNetworkUnavailable = errors.New("network unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeNetworkUnavailable)

// ErrTokenExpired is returned when the stored refresh token is no longer
// accepted by the remote authority. Fatal to the session.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrNoRefreshToken is returned when a refresh is requested but the store
// holds no refresh token. Fatal to the session; no network call is made.
var ErrNoRefreshToken = errors.New("no refresh token", errors.CategoryAuth).
	WithTextCode(TextCodeNoRefreshToken).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthorized is surfaced to a caller whose request came back 401/403.
// The same condition is broadcast on the AuthErrorBus, so callers may handle
// it locally without preventing session teardown.
var ErrUnauthorized = errors.New("unauthorized", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidTransition is returned when a requested session state change is
// not allowed by the transition table.
var ErrInvalidTransition = errors.New("invalid session state transition", errors.CategoryConflict).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(errors.CodeConflict)

// ServerError wraps an upstream 5xx (or otherwise unexpected) response into
// the taxonomy, keeping the status code in metadata.
func ServerError(status int) *errors.Error {
	return errors.New("server error", errors.CategoryInternal).
		WithTextCode(TextCodeServerError).
		WithCode(errors.CodeInternal).
		WithMetadata(map[string]any{"status": status})
}

// IsSessionFatal reports whether err forces the session back to anonymous.
func IsSessionFatal(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrNoRefreshToken)
}

// IsRetryable reports whether the caller may retry the operation without any
// session state having changed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetworkUnavailable)
}
