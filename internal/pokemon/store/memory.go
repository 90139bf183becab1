package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"pokedex/internal/pokemon/models"
	"pokedex/pkg/platform/sentinel"
)

// InMemory keeps records in a map guarded by a RWMutex. Records are cloned on
// the way in and out so callers never share slices with the store.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[int]*models.Pokemon
	idByName map[string]int
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[int]*models.Pokemon),
		idByName: make(map[string]int),
	}
}

func (s *InMemory) FindPage(_ context.Context, skip, limit int) ([]*models.Pokemon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	if skip >= len(ids) || limit <= 0 {
		return []*models.Pokemon{}, nil
	}
	end := min(skip+limit, len(ids))
	page := make([]*models.Pokemon, 0, end-skip)
	for _, id := range ids[skip:end] {
		page = append(page, s.byID[id].Clone())
	}
	return page, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func (s *InMemory) FindByID(_ context.Context, id int) (*models.Pokemon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.byID[id]; ok {
		return p.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByName(_ context.Context, name string) (*models.Pokemon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.idByName[name]; ok {
		return s.byID[id].Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Insert(_ context.Context, p *models.Pokemon) (*models.Pokemon, error) {
	if p == nil {
		return nil, fmt.Errorf("pokemon is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[p.ID]; ok {
		return nil, fmt.Errorf("insert pokemon id %d: %w", p.ID, sentinel.ErrConflict)
	}
	if _, ok := s.idByName[p.Name]; ok {
		return nil, fmt.Errorf("insert pokemon name %q: %w", p.Name, sentinel.ErrConflict)
	}
	stored := p.Clone()
	s.byID[stored.ID] = stored
	s.idByName[stored.Name] = stored.ID
	return stored.Clone(), nil
}

func (s *InMemory) UpdateByID(_ context.Context, id int, patch models.Patch) (*models.Pokemon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := patch.Apply(current)
	if next.Name != current.Name {
		if _, taken := s.idByName[next.Name]; taken {
			return nil, fmt.Errorf("rename pokemon %d to %q: %w", id, next.Name, sentinel.ErrConflict)
		}
		delete(s.idByName, current.Name)
		s.idByName[next.Name] = id
	}
	s.byID[id] = next
	return next.Clone(), nil
}

func (s *InMemory) DeleteByID(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	delete(s.byID, id)
	delete(s.idByName, p.Name)
	return true, nil
}

func (s *InMemory) Ping(context.Context) error { return nil }

func (s *InMemory) Close() error { return nil }
