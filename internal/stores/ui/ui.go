// Package ui holds the global loading flag.
package ui

import (
	"sync"
)

// Store is safe for concurrent use. Loading stays raised while any
// tracked call is running.
type Store struct {
	mu      sync.RWMutex
	manual  bool
	pending int
}

func New() *Store { return &Store{} }

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manual || s.pending > 0
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manual = loading
}

// Track raises the flag for the duration of fn and returns its error.
func (s *Store) Track(fn func() error) error {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}()
	return fn()
}
