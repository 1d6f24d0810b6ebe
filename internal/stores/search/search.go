// Package search holds the header search term shared by listing screens.
package search

import (
	"strings"
	"sync"
)

// Store is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	term string
}

func New() *Store { return &Store{} }

func (s *Store) Term() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.term
}

// SetTerm replaces the term. Surrounding whitespace is dropped.
func (s *Store) SetTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term = strings.TrimSpace(term)
}
