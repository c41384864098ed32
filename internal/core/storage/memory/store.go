package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/zeusync/asteroidworker/internal/core/storage"
)

var _ storage.DocumentStore = (*Store)(nil)

// Store keeps documents in process memory.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]storage.Fields
	closed      bool
}

func New() *Store {
	return &Store{collections: make(map[string]map[string]storage.Fields)}
}

func (s *Store) CreateDocument(_ context.Context, collection, id string, fields storage.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]storage.Fields)
		s.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return fmt.Errorf("%w: %s/%s", storage.ErrDocumentExists, collection, id)
	}
	docs[id] = maps.Clone(fields)
	return nil
}

func (s *Store) DeleteDocument(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}
	if _, exists := s.collections[collection][id]; !exists {
		return fmt.Errorf("%w: %s/%s", storage.ErrDocumentNotFound, collection, id)
	}
	delete(s.collections[collection], id)
	return nil
}

// Document returns a copy of a stored document.
func (s *Store) Document(collection, id string) (storage.Fields, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	return maps.Clone(doc), ok
}

func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
