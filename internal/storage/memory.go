package storage

import (
	"context"
	"fmt"
	"sync"

	"saa/internal/core"
)

// MemoryRepository is a process-local Repository. Values are cloned on the
// way in and out so callers never share slices with the store.
type MemoryRepository struct {
	mu        sync.RWMutex
	projects  map[string]core.Project
	order     []string
	suppliers map[string]core.Supplier
	supOrder  []string
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects:  make(map[string]core.Project),
		suppliers: make(map[string]core.Supplier),
	}
}

func (m *MemoryRepository) ListProjects(_ context.Context) ([]core.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Project, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.projects[id].Clone())
	}
	return out, nil
}

func (m *MemoryRepository) GetProject(_ context.Context, id string) (core.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return core.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

func (m *MemoryRepository) PutProject(_ context.Context, p core.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.projects[p.ID] = p.Clone()
	return nil
}

func (m *MemoryRepository) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	delete(m.projects, id)
	m.order = remove(m.order, id)
	return nil
}

func (m *MemoryRepository) ListSuppliers(_ context.Context) ([]core.Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Supplier, 0, len(m.supOrder))
	for _, id := range m.supOrder {
		out = append(out, m.suppliers[id])
	}
	return out, nil
}

func (m *MemoryRepository) PutSupplier(_ context.Context, s core.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.suppliers[s.ID]; !ok {
		m.supOrder = append(m.supOrder, s.ID)
	}
	m.suppliers[s.ID] = s
	return nil
}

func (m *MemoryRepository) DeleteSupplier(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.suppliers[id]; !ok {
		return fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	delete(m.suppliers, id)
	m.supOrder = remove(m.supOrder, id)
	return nil
}

func (m *MemoryRepository) Close() error { return nil }

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
