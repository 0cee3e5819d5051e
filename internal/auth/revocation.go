package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// RevocationStore is the blocklist consulted on every Verify. Revoke must be
// atomic with respect to concurrent IsRevoked calls: once Revoke returns, the
// entry is visible to all subsequent lookups. Entries past their token's
// expiry may be purged, since Verify rejects expired tokens anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// MemoryRevocationStore keeps the blocklist in process memory. Revocations do
// not survive restarts and are not shared across instances; use the postgres
// store for multi-instance deployments.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // tokenID -> token expiry
}

var _ RevocationStore = (*MemoryRevocationStore)(nil)

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]time.Time)}
}

func (s *MemoryRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return errors.New("auth: token id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[tokenID]; !ok {
		s.entries[tokenID] = expiresAt
	}
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[tokenID]
	return ok, nil
}

// PurgeExpired drops entries whose tokens have passed their natural expiry
// and returns the number removed.
func (s *MemoryRevocationStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, exp := range s.entries {
		if !exp.After(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the current blocklist size.
func (s *MemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
