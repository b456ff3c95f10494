package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	cred      Credential
	expiresAt time.Time
}

// MemoryStore is the in-process fallback used when REDIS_URL is unset.
// Sessions do not survive a restart and are not shared between replicas.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	now := s.now()
	if !ok || !now.Before(e.expiresAt) {
		delete(s.entries, id)
		return nil, ErrNoSession
	}
	e.expiresAt = now.Add(s.ttl)
	s.entries[id] = e
	cred := e.cred
	return &cred, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.entries[id] = memoryEntry{cred: *cred, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// sweep drops expired entries. Caller holds mu.
func (s *MemoryStore) sweep() {
	now := s.now()
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}
