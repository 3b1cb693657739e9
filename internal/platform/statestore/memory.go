package statestore

import (
	"context"
	"sync"
)

// MemoryStore is the default Store: process-lifetime persistence guarded by
// a mutex. Suitable for tests and single-session use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Envelope
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Envelope)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := env
	cp.Data = append([]byte(nil), env.Data...)
	return &cp, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	env.Data = append([]byte(nil), env.Data...)
	s.data[key] = env
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
