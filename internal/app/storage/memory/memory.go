// Package memory provides an in-memory directory store for tests.
package memory

import (
	"context"
	"sync"

	"github.com/dongnae-labs/storefront/internal/app/domain/store"
)

// Store keeps the directory document in memory. It mirrors the whole-document
// semantics of the file store and is intended for tests and prototyping.
type Store struct {
	mu  sync.RWMutex
	dir store.Directory

	// SaveErr, when set, is returned by Save to simulate persistence failure.
	SaveErr error
	// Saves counts Save calls.
	Saves int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{dir: store.Directory{}}
}

// Load returns a copy of the current directory snapshot.
func (s *Store) Load(_ context.Context) store.Directory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir.Clone()
}

// Save replaces the snapshot with a copy of dir.
func (s *Store) Save(_ context.Context, dir store.Directory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.dir = dir.Clone()
	return nil
}
