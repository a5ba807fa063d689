package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/internalerr"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/store"
	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/termmodel"
)

// Store is an in-memory implementation of store.ModelStore for tests.
type Store struct {
	mu        sync.RWMutex
	nextID    int64
	models    map[string]*termmodel.Model
	revisions map[string][]store.Revision
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextID:    1,
		models:    make(map[string]*termmodel.Model),
		revisions: make(map[string][]store.Revision),
	}
}

// Close implements store.ModelStore.
func (s *Store) Close() error { return nil }

// SaveModel stores a copy of m.
func (s *Store) SaveModel(ctx context.Context, name string, m *termmodel.Model) (store.Revision, error) {
	if name == "" {
		return store.Revision{}, fmt.Errorf("%w: empty model name", internalerr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rev := store.NewRevision(fmt.Sprintf("mem-%06d", s.nextID), name, m, time.Now())
	s.nextID++
	s.models[name] = m.Clone()
	s.revisions[name] = append(s.revisions[name], rev)
	return rev, nil
}

// LoadModel returns a copy of the stored model.
func (s *Store) LoadModel(ctx context.Context, name string) (*termmodel.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[name]
	if !ok {
		return nil, fmt.Errorf("model %q: %w", name, internalerr.ErrNotFound)
	}
	return m.Clone(), nil
}

// ListModels returns stored names in ascending order.
func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Revisions returns every revision saved under name, oldest first.
func (s *Store) Revisions(name string) []store.Revision {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Revision, len(s.revisions[name]))
	copy(out, s.revisions[name])
	return out
}
