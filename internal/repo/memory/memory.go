package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/pingboard/internal/domain"
	"github.com/hamed0406/pingboard/internal/repo"
)

// Store is an in-process result cache. Each Replace starts a new generation.
type Store struct {
	mu         sync.RWMutex
	entries    map[domain.EndpointID]domain.ResultEntry
	generation uint64
}

func New() *Store {
	return &Store{entries: make(map[domain.EndpointID]domain.ResultEntry)}
}

func (m *Store) Put(ctx context.Context, e *domain.ResultEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CheckedAt.IsZero() {
		e.CheckedAt = time.Now().UTC()
	}
	m.entries[e.Endpoint.ID] = *e
	return nil
}

func (m *Store) Get(ctx context.Context, id domain.EndpointID) (*domain.ResultEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// List returns a snapshot ordered by endpoint id.
func (m *Store) List(ctx context.Context) ([]domain.ResultEntry, error) {
	m.mu.RLock()
	out := make([]domain.ResultEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint.ID < out[j].Endpoint.ID })
	return out, nil
}

func (m *Store) Replace(ctx context.Context, entries []domain.ResultEntry) error {
	next := make(map[domain.EndpointID]domain.ResultEntry, len(entries))
	for _, e := range entries {
		next[e.Endpoint.ID] = e
	}
	m.mu.Lock()
	m.entries = next
	m.generation++
	m.mu.Unlock()
	return nil
}

func (m *Store) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ repo.ResultStore = (*Store)(nil)
