package memory

import (
	"context"
	"sync"
	"time"
)

// RevocationStore holds revoked token IDs until the token would have expired anyway.
type RevocationStore struct {
	now func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewRevocationStore() *RevocationStore {
	return NewRevocationStoreWithClock(time.Now)
}

// NewRevocationStoreWithClock allows deterministic expiry in tests.
func NewRevocationStoreWithClock(now func() time.Time) *RevocationStore {
	return &RevocationStore{now: now, revoked: make(map[string]time.Time)}
}

func (s *RevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.revoked[tokenID] = until
	return nil
}

func (s *RevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(s.now()) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

// Len reports entries not yet swept.
func (s *RevocationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.revoked)
}

func (s *RevocationStore) sweepLocked() {
	now := s.now()
	for id, until := range s.revoked {
		if !until.After(now) {
			delete(s.revoked, id)
		}
	}
}
