package memory

import (
	"context"
	"sync"

	"personapi/internal/model"
	"personapi/internal/repository"
)

// PersonMemory is an in-memory, insertion-ordered implementation of
// repository.PersonRepository. It is safe for concurrent use: Save is an
// atomic upsert and List returns a consistent snapshot.
type PersonMemory struct {
	mu    sync.RWMutex
	index map[string]int
	items []model.Person
}

// NewPersonMemory returns an empty store.
func NewPersonMemory() *PersonMemory {
	return &PersonMemory{index: make(map[string]int)}
}

var _ repository.PersonRepository = (*PersonMemory)(nil)

// Save stores a copy of p, overwriting any previous value for the same first name.
func (s *PersonMemory) Save(_ context.Context, p *model.Person) (*model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[p.FirstName]; ok {
		s.items[i] = *p
	} else {
		s.index[p.FirstName] = len(s.items)
		s.items = append(s.items, *p)
	}
	out := *p
	return &out, nil
}

// FindByFirstName looks up a person by key.
func (s *PersonMemory) FindByFirstName(_ context.Context, firstName string) (*model.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[firstName]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := s.items[i]
	return &out, nil
}

// List returns a copy of all people in insertion order.
func (s *PersonMemory) List(context.Context) ([]model.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(make([]model.Person, 0, len(s.items)), s.items...), nil
}
