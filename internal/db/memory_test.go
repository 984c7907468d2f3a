package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episim/internal/core"
)

func TestMemoryDBLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	sim := &core.FundingSimulation{ID: "sim-1", Disease: "ebola", Status: core.SimulationPending}

	require.NoError(t, m.Create(ctx, sim))
	assert.False(t, sim.CreatedAt.IsZero())

	sim.Status = core.SimulationCompleted
	sim.TransactionHash = "tx_1"
	require.NoError(t, m.Update(ctx, sim))

	got, err := m.Get(ctx, "sim-1")
	require.NoError(t, err)
	assert.Equal(t, core.SimulationCompleted, got.Status)
	assert.Equal(t, "tx_1", got.TransactionHash)

	got.Status = core.SimulationFailed
	again, _ := m.Get(ctx, "sim-1")
	assert.Equal(t, core.SimulationCompleted, again.Status)
}

func TestMemoryDBNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	_, err := m.Get(ctx, "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
	require.ErrorIs(t, m.Update(ctx, &core.FundingSimulation{ID: "missing"}), core.ErrNotFound)
}
