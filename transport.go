package auth

import (
	"net/http"
	"time"
)

var _ http.RoundTripper = (*Transport)(nil)

// Transport decorates an http.RoundTripper with the session's bearer token
// and relays 401/403 responses onto the AuthErrorBus. The response is still
// returned to the caller: broadcast and re-throw, never one or the other.
type Transport struct {
	Base   http.RoundTripper
	Tokens TokenStore
	Bus    *AuthErrorBus
}

// NewTransport builds a Transport over http.DefaultTransport.
func NewTransport(tokens TokenStore, bus *AuthErrorBus) *Transport {
	return &Transport{Tokens: tokens, Bus: bus}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if t.Tokens != nil {
		if access, err := t.Tokens.AccessToken(req.Context()); err == nil && access != "" {
			// clone before mutating: RoundTrippers must not modify the
			// caller's request
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	res, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if t.Bus != nil && (res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden) {
		t.Bus.Publish(req.Context(), UnauthorizedEvent{
			StatusCode: res.StatusCode,
			Path:       req.URL.Path,
			OccurredAt: time.Now(),
		})
	}

	return res, nil
}
