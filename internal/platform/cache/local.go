package cache

import (
	"context"
	"sync"
	"time"
)

type localItem struct {
	value   string
	expires time.Time // zero means no expiry
}

// LocalStore is an in-process RemoteStore for single-instance development.
// It keeps the version registry working when no shared cache is available.
type LocalStore struct {
	mu    sync.Mutex
	items map[string]localItem
	now   func() time.Time
}

// NewLocalStore creates an empty LocalStore.
func NewLocalStore() *LocalStore {
	return &LocalStore{items: make(map[string]localItem), now: time.Now}
}

func (s *LocalStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[key]
	if !ok {
		return "", false, nil
	}
	if !it.expires.IsZero() && s.now().After(it.expires) {
		delete(s.items, key)
		return "", false, nil
	}
	return it.value, true, nil
}

func (s *LocalStore) Set(_ context.Context, key, value string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := localItem{value: value}
	if expiry > 0 {
		it.expires = s.now().Add(expiry)
	}
	s.items[key] = it
	return nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len counts stored keys, expired ones included until they are read.
func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
