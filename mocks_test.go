package auth_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/go-auth"
)

// Mock implementations shared across tests

type mockConfig struct {
	baseURL string
}

func (m mockConfig) GetBaseURL() string { return m.baseURL }

func (m mockConfig) GetHTTPTimeout() time.Duration { return 5 * time.Second }

func (m mockConfig) GetRefreshLeeway() time.Duration { return 30 * time.Second }

func (m mockConfig) GetUserAgent() string { return "go-auth-test/1.0" }

func testUser(role auth.Role) *auth.User {
	return &auth.User{
		ID:       uuid.New(),
		Email:    "dev@taskdeck.io",
		Name:     "Devon Carter",
		Role:     role,
		IsActive: true,
	}
}

// mockCredentialClient mimics the exchange contract: successful results are
// persisted to the token store before they are returned.
type mockCredentialClient struct {
	tokens auth.TokenStore

	loginCalls    int32
	registerCalls int32
	refreshCalls  int32
	logoutCalls   int32
	userCalls     int32

	loginResult *auth.AuthResult
	loginErr    error
	refreshPair *auth.TokenPair
	refreshErr  error
	user        *auth.User
	userErr     error
	logoutErr   error

	// refreshGate, when non-nil, blocks Refresh until the channel closes
	refreshGate chan struct{}
}

var _ auth.CredentialClient = (*mockCredentialClient)(nil)

func (m *mockCredentialClient) Login(ctx context.Context, _ auth.Credentials) (*auth.AuthResult, error) {
	atomic.AddInt32(&m.loginCalls, 1)
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	if m.tokens != nil {
		_ = m.tokens.Set(ctx, m.loginResult.AccessToken, m.loginResult.RefreshToken)
	}
	return m.loginResult, nil
}

func (m *mockCredentialClient) Register(ctx context.Context, _ auth.RegisterProfile) (*auth.AuthResult, error) {
	atomic.AddInt32(&m.registerCalls, 1)
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	if m.tokens != nil {
		_ = m.tokens.Set(ctx, m.loginResult.AccessToken, m.loginResult.RefreshToken)
	}
	return m.loginResult, nil
}

func (m *mockCredentialClient) Refresh(ctx context.Context) (*auth.TokenPair, error) {
	atomic.AddInt32(&m.refreshCalls, 1)
	if m.refreshGate != nil {
		<-m.refreshGate
	}
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	if m.tokens != nil {
		_ = m.tokens.Set(ctx, m.refreshPair.AccessToken, m.refreshPair.RefreshToken)
	}
	return m.refreshPair, nil
}

func (m *mockCredentialClient) Logout(context.Context, string) error {
	atomic.AddInt32(&m.logoutCalls, 1)
	return m.logoutErr
}

func (m *mockCredentialClient) CurrentUser(context.Context) (*auth.User, error) {
	atomic.AddInt32(&m.userCalls, 1)
	if m.userErr != nil {
		return nil, m.userErr
	}
	return m.user, nil
}

func (m *mockCredentialClient) refreshCallCount() int32 {
	return atomic.LoadInt32(&m.refreshCalls)
}
