package store

import (
	"sync"
)

// KV is the persistence port for browser-style keyed state (cart, events,
// order history). Adapters: the sqlite-backed Store, or MemKV in tests.
// A server-backed reimplementation only has to satisfy this interface.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// MemKV is an in-memory KV adapter.
type MemKV struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemKV() *MemKV {
	return &MemKV{m: make(map[string]string)}
}

func (s *MemKV) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemKV) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemKV) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
