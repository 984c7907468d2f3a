package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"episim/internal/core"
	"episim/internal/db"
	"episim/internal/storage"
)

type fakeTransferer struct {
	hash  string
	err   error
	calls int
}

func (f *fakeTransferer) Transfer(_ context.Context, from, to string, amount float64) (string, error) {
	f.calls++
	return f.hash, f.err
}

type failingStore struct{ *db.MemoryDB }

func (failingStore) Create(context.Context, *core.FundingSimulation) error {
	return errors.New("connection refused")
}

func validRequest() core.FundingRequest {
	return core.FundingRequest{
		Disease:           "cholera",
		Region:            "Lagos",
		Amount:            50000,
		SourceWallet:      "addr_gov",
		DestinationWallet: "addr_hospital",
	}
}

func TestSimulateCompleted(t *testing.T) {
	store := db.NewMemoryDB()
	archive := storage.NewMemoryStorage()
	reg := prometheus.NewRegistry()
	tr := &fakeTransferer{hash: "tx_ok"}
	svc := core.NewFundingService(tr, store, archive, core.NewMetrics(reg), zaptest.NewLogger(t))

	sim, err := svc.Simulate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, core.SimulationCompleted, sim.Status)
	assert.Equal(t, "tx_ok", sim.TransactionHash)
	assert.Equal(t, 1, tr.calls)

	stored, err := svc.Get(context.Background(), sim.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SimulationCompleted, stored.Status)
	assert.Equal(t, "tx_ok", stored.TransactionHash)
	assert.Equal(t, "Lagos", stored.Region)

	body, ok := archive.Object("funding/" + sim.ID + ".json")
	require.True(t, ok)
	var receipt core.FundingSimulation
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, sim.ID, receipt.ID)

	count, err := testutil.GatherAndCount(reg, "episim_funding_simulations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSimulateTransferFailureMarksFailed(t *testing.T) {
	store := db.NewMemoryDB()
	svc := core.NewFundingService(&fakeTransferer{err: errors.New("network down")}, store, nil, nil, nil)

	sim, err := svc.Simulate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, core.SimulationFailed, sim.Status)
	assert.Empty(t, sim.TransactionHash)

	stored, err := store.Get(context.Background(), sim.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SimulationFailed, stored.Status)
}

func TestSimulateValidation(t *testing.T) {
	tr := &fakeTransferer{hash: "x"}
	svc := core.NewFundingService(tr, db.NewMemoryDB(), nil, nil, nil)

	mutations := map[string]func(*core.FundingRequest){
		"disease":     func(r *core.FundingRequest) { r.Disease = "" },
		"region":      func(r *core.FundingRequest) { r.Region = "" },
		"source":      func(r *core.FundingRequest) { r.SourceWallet = "" },
		"destination": func(r *core.FundingRequest) { r.DestinationWallet = "" },
		"amount":      func(r *core.FundingRequest) { r.Amount = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			_, err := svc.Simulate(context.Background(), req)
			require.ErrorIs(t, err, core.ErrValidation)
		})
	}
	assert.Zero(t, tr.calls)
}

func TestSimulateStoreError(t *testing.T) {
	tr := &fakeTransferer{hash: "x"}
	svc := core.NewFundingService(tr, failingStore{db.NewMemoryDB()}, nil, nil, nil)

	_, err := svc.Simulate(context.Background(), validRequest())
	require.ErrorContains(t, err, "connection refused")
	assert.Zero(t, tr.calls)
}

func TestGetUnknownSimulation(t *testing.T) {
	svc := core.NewFundingService(&fakeTransferer{}, db.NewMemoryDB(), nil, nil, nil)
	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
}
