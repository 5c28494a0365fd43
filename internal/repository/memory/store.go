package memory

import (
	"sync"
)

// MutateFunc computes the next value for a key. Returning keep=false deletes
// the key.
type MutateFunc[T any] func(current T, exists bool) (next T, keep bool, err error)

// Store is a generic keyed in-memory store
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewStore creates a new Store
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		items: make(map[string]T),
	}
}

// Get retrieves an item by key
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	return item, ok
}

// Len returns the number of stored items
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Mutate applies fn to the value stored under key as one atomic step and
// returns the value that was there before.
func (s *Store[T]) Mutate(key string, fn MutateFunc[T]) (prev T, existed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed = s.items[key]
	next, keep, err := fn(prev, existed)
	if err != nil {
		return prev, existed, err
	}

	if keep {
		s.items[key] = next
	} else {
		delete(s.items, key)
	}
	return prev, existed, nil
}

func (s *Store[T]) restore(key string, prev T, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existed {
		s.items[key] = prev
	} else {
		delete(s.items, key)
	}
}
