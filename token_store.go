package auth

import (
	"context"
	"sync"
	"time"
)

var _ TokenStore = (*MemoryTokenStore)(nil)

// MemoryTokenStore keeps the token pair in process memory. It is the default
// store and the fake used throughout the tests; tokens do not survive a
// restart.
type MemoryTokenStore struct {
	mu   sync.RWMutex
	pair TokenPair
	now  func() time.Time
}

// NewMemoryTokenStore returns an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{now: time.Now}
}

// Set overwrites both tokens as one unit and records the issue time.
func (s *MemoryTokenStore) Set(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		IssuedAt:     s.now(),
	}
	return nil
}

func (s *MemoryTokenStore) AccessToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.AccessToken, nil
}

func (s *MemoryTokenStore) RefreshToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.RefreshToken, nil
}

func (s *MemoryTokenStore) IssuedAt(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.IssuedAt, nil
}

// Clear removes both tokens. Idempotent.
func (s *MemoryTokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = TokenPair{}
	return nil
}
