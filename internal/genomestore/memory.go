package genomestore

import (
	"context"
	"slices"
	"sync"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/genome"
)

// Memory is a process-local Store. Values are deep-copied on the way in and
// out.
type Memory struct {
	mu      sync.RWMutex
	genomes map[string]genome.Genome
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{genomes: make(map[string]genome.Genome)}
}

func (m *Memory) Get(_ context.Context, ownerID string) (genome.Genome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.genomes[ownerID]
	if !ok {
		return genome.Genome{}, apperr.ErrNotFound
	}
	return g.Clone(), nil
}

func (m *Memory) Create(_ context.Context, g genome.Genome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.genomes[g.OwnerID]; ok {
		return apperr.ErrAlreadyExists
	}
	m.genomes[g.OwnerID] = g.Clone()
	return nil
}

func (m *Memory) Update(_ context.Context, g genome.Genome, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.genomes[g.OwnerID]
	if !ok {
		return apperr.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return apperr.ErrConflict
	}
	m.genomes[g.OwnerID] = g.Clone()
	return nil
}

func (m *Memory) Delete(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.genomes[ownerID]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.genomes, ownerID)
	return nil
}

func (m *Memory) List(_ context.Context, limit, offset int) ([]Summary, int, error) {
	limit, offset = normalizePage(limit, offset)
	m.mu.RLock()
	all := make([]Summary, 0, len(m.genomes))
	for _, g := range m.genomes {
		all = append(all, summarize(g))
	}
	m.mu.RUnlock()

	slices.SortFunc(all, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		if a.OwnerID < b.OwnerID {
			return -1
		}
		return 1
	})
	total := len(all)
	if offset >= total {
		return []Summary{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (m *Memory) Close() error { return nil }
