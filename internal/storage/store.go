// Package storage provides abstractions for the client's persisted state.
//
// The session token is the only value that survives a relaunch. It is
// kept behind the TokenStore interface so the SQLite-backed store can be
// swapped for the in-memory one in tests and one-shot runs.
package storage

import (
	"context"
	"sync"
)

// TokenStore persists the session token across launches.
type TokenStore interface {
	// Load returns the stored token, or "" when none is stored.
	Load(ctx context.Context) (string, error)

	// Save stores the token, replacing any previous one.
	Save(ctx context.Context, token string) error

	// Clear removes the stored token. Clearing an empty store is not an
	// error.
	Clear(ctx context.Context) error
}

// MemoryTokenStore is an in-process TokenStore for tests and runs that
// must not leave state behind.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore creates an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
