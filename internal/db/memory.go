package db

import (
	"context"
	"sync"
	"time"

	"episim/internal/core"
)

// MemoryDB is an in-memory core.SimulationStore, used when no database is configured and in tests.
type MemoryDB struct {
	mu   sync.RWMutex
	sims map[string]core.FundingSimulation
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{sims: make(map[string]core.FundingSimulation)}
}

func (m *MemoryDB) Create(_ context.Context, sim *core.FundingSimulation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if sim.CreatedAt.IsZero() {
		sim.CreatedAt = now
	}
	sim.UpdatedAt = now
	m.sims[sim.ID] = *sim
	return nil
}

func (m *MemoryDB) Update(_ context.Context, sim *core.FundingSimulation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sims[sim.ID]; !ok {
		return core.ErrNotFound
	}
	sim.UpdatedAt = time.Now()
	m.sims[sim.ID] = *sim
	return nil
}

func (m *MemoryDB) Get(_ context.Context, id string) (*core.FundingSimulation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sim, ok := m.sims[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &sim, nil
}
