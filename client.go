package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
)

var _ CredentialClient = (*HTTPCredentialClient)(nil)

// HTTPCredentialClient talks JSON to the remote credential authority.
//
// Exchange endpoints (login, register, refresh) go through a bare client:
// a rejected password must surface as InvalidCredentials to the caller, not
// as a session-wide unauthorized broadcast. Bearer endpoints (me, logout)
// go through the Transport, so any 401/403 reaches the AuthErrorBus and the
// caller at the same time.
type HTTPCredentialClient struct {
	baseURL   string
	userAgent string
	tokens    TokenStore
	logger    Logger
	bare      *http.Client
	authed    *http.Client
}

// NewHTTPCredentialClient builds a client against cfg.GetBaseURL. Successful
// exchanges persist the token pair through tokens before returning.
func NewHTTPCredentialClient(cfg Config, tokens TokenStore, bus *AuthErrorBus) *HTTPCredentialClient {
	timeout := cfg.GetHTTPTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPCredentialClient{
		baseURL:   cfg.GetBaseURL(),
		userAgent: cfg.GetUserAgent(),
		tokens:    tokens,
		logger:    defLogger{},
		bare:      &http.Client{Timeout: timeout},
		authed: &http.Client{
			Timeout:   timeout,
			Transport: NewTransport(tokens, bus),
		},
	}
}

func (c *HTTPCredentialClient) WithLogger(logger Logger) *HTTPCredentialClient {
	if logger != nil {
		c.logger = logger
	}
	return c
}

type authResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a user and token pair. The pair is durable
// before the result is returned: no state exists in which the client knows a
// token pair the store does not.
func (c *HTTPCredentialClient) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid login payload")
	}

	var out authResponse
	if err := c.do(ctx, c.bare, http.MethodPost, "/auth/login", creds, &out); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := c.tokens.Set(ctx, out.AccessToken, out.RefreshToken); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         out.User,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}, nil
}

// Register creates an account and logs it in, with the same persistence
// guarantee as Login.
func (c *HTTPCredentialClient) Register(ctx context.Context, profile RegisterProfile) (*AuthResult, error) {
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload")
	}

	var out authResponse
	if err := c.do(ctx, c.bare, http.MethodPost, "/auth/register", profile, &out); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := c.tokens.Set(ctx, out.AccessToken, out.RefreshToken); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         out.User,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}, nil
}

// Refresh rotates the token pair. It fails fast with ErrNoRefreshToken, and
// no network call, when the store holds no refresh token.
func (c *HTTPCredentialClient) Refresh(ctx context.Context) (*TokenPair, error) {
	refresh, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}
	if refresh == "" {
		return nil, ErrNoRefreshToken
	}

	var out refreshResponse
	if err := c.do(ctx, c.bare, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refresh}, &out); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	if err := c.tokens.Set(ctx, out.AccessToken, out.RefreshToken); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}, nil
}

// Logout asks the authority to invalidate the session. The token travels as
// an explicit argument because callers tear down their local store first.
// Best effort: callers tear down locally whatever this returns.
func (c *HTTPCredentialClient) Logout(ctx context.Context, accessToken string) error {
	return c.doWithBearer(ctx, accessToken, http.MethodPost, "/auth/logout")
}

// CurrentUser re-validates the session against the authority.
func (c *HTTPCredentialClient) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, c.authed, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPCredentialClient) doWithBearer(ctx context.Context, accessToken, method, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.bare.Do(req)
	if err != nil {
		c.logger.Warn("credential exchange transport error on %s: %v", path, err)
		return ErrNetworkUnavailable
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return ServerError(res.StatusCode)
	}
	return nil
}

func (c *HTTPCredentialClient) do(ctx context.Context, client *http.Client, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to encode request payload")
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := client.Do(req)
	if err != nil {
		c.logger.Warn("credential exchange transport error on %s: %v", path, err)
		return ErrNetworkUnavailable
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			c.logger.Error("credential exchange malformed response on %s: %v", path, err)
			return errors.Wrap(err, errors.CategoryInternal, "malformed response from authority")
		}
		return nil
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusUnprocessableEntity:
		return ErrInvalidCredentials
	default:
		c.logger.Error("credential exchange server error on %s: status %d", path, res.StatusCode)
		return ServerError(res.StatusCode)
	}
}
