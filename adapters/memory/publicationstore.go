// Package memory provides in-memory store implementations.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/resttree/core/schema"
	"github.com/artpar/resttree/domain/publication"
	"github.com/artpar/resttree/ports"
)

// PublicationStore is an in-memory implementation of ports.PublicationStore.
type PublicationStore struct {
	mu     sync.RWMutex
	items  map[int64]publication.Publication
	nextID int64
}

// NewPublicationStore creates a store holding seed. Seed entries without
// an id are numbered in order.
func NewPublicationStore(seed ...publication.Publication) *PublicationStore {
	s := &PublicationStore{items: make(map[int64]publication.Publication)}
	for _, p := range seed {
		if p.ID == 0 {
			s.nextID++
			p.ID = s.nextID
		}
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
		s.items[p.ID] = p
	}
	return s
}

// List returns matching publications ordered by id.
func (s *PublicationStore) List(ctx context.Context, filter publication.Filter) ([]publication.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]publication.Publication, 0, len(s.items))
	for _, p := range s.items {
		if publication.Matches(p, filter) {
			out = append(out, p)
		}
	}
	publication.SortByID(out)
	return out, nil
}

// Get retrieves a publication by id.
func (s *PublicationStore) Get(ctx context.Context, id int64) (publication.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[id]
	if !ok {
		return publication.Publication{}, fmt.Errorf("publication %d: %w", id, schema.ErrNotFound)
	}
	return p, nil
}

// Create stores p under the next free id.
func (s *PublicationStore) Create(ctx context.Context, p publication.Publication) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	s.items[p.ID] = p
	return p.ID, nil
}

// Update replaces an existing publication.
func (s *PublicationStore) Update(ctx context.Context, p publication.Publication) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[p.ID]; !ok {
		return false, nil
	}
	s.items[p.ID] = p
	return true, nil
}

// Delete removes a publication.
func (s *PublicationStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

// Ensure interface compliance.
var _ ports.PublicationStore = (*PublicationStore)(nil)
