package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrValidation = errors.New("funding: invalid request")
	ErrNotFound   = errors.New("funding: simulation not found")
)

type SimulationStatus string

const (
	SimulationPending   SimulationStatus = "pending"
	SimulationCompleted SimulationStatus = "completed"
	SimulationFailed    SimulationStatus = "failed"
)

type FundingSimulation struct {
	ID                string           `json:"id" gorm:"primaryKey;size:64"`
	Disease           string           `json:"disease"`
	Region            string           `json:"region"`
	Amount            float64          `json:"amount"`
	SourceWallet      string           `json:"sourceWallet"`
	DestinationWallet string           `json:"destinationWallet"`
	Status            SimulationStatus `json:"status" gorm:"size:16;index"`
	TransactionHash   string           `json:"transactionHash,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

type FundingRequest struct {
	Disease           string  `json:"disease"`
	Region            string  `json:"region"`
	Amount            float64 `json:"amount"`
	SourceWallet      string  `json:"sourceWallet"`
	DestinationWallet string  `json:"destinationWallet"`
}

func (r FundingRequest) validate() error {
	switch {
	case r.Disease == "":
		return fmt.Errorf("%w: disease is required", ErrValidation)
	case r.Region == "":
		return fmt.Errorf("%w: region is required", ErrValidation)
	case r.SourceWallet == "":
		return fmt.Errorf("%w: sourceWallet is required", ErrValidation)
	case r.DestinationWallet == "":
		return fmt.Errorf("%w: destinationWallet is required", ErrValidation)
	case r.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return nil
}

type SimulationStore interface {
	Create(ctx context.Context, sim *FundingSimulation) error
	Update(ctx context.Context, sim *FundingSimulation) error
	Get(ctx context.Context, id string) (*FundingSimulation, error)
}

// FundingService records a funding simulation, pushes the transfer to the configured
// ledger backend and stores the outcome.
type FundingService struct {
	transfer Transferer
	store    SimulationStore
	archive  ObjectStorage
	metrics  *Metrics
	log      *zap.Logger
}

// NewFundingService wires the service. archive and metrics may be nil.
func NewFundingService(t Transferer, s SimulationStore, archive ObjectStorage, m *Metrics, log *zap.Logger) *FundingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FundingService{transfer: t, store: s, archive: archive, metrics: m, log: log}
}

// Simulate never fails because the transfer failed: the record is marked failed and
// returned. Errors are validation or storage errors.
func (s *FundingService) Simulate(ctx context.Context, req FundingRequest) (*FundingSimulation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	sim := &FundingSimulation{
		ID:                uuid.NewString(),
		Disease:           req.Disease,
		Region:            req.Region,
		Amount:            req.Amount,
		SourceWallet:      req.SourceWallet,
		DestinationWallet: req.DestinationWallet,
		Status:            SimulationPending,
	}
	if err := s.store.Create(ctx, sim); err != nil {
		return nil, fmt.Errorf("create simulation: %w", err)
	}

	start := time.Now()
	txHash, err := s.transfer.Transfer(ctx, req.SourceWallet, req.DestinationWallet, req.Amount)
	if err != nil {
		s.log.Warn("funding transfer failed",
			zap.String("simulation_id", sim.ID),
			zap.String("from", req.SourceWallet),
			zap.String("to", req.DestinationWallet),
			zap.Error(err))
		sim.Status = SimulationFailed
	} else {
		sim.Status = SimulationCompleted
		sim.TransactionHash = txHash
	}
	s.log.Info("funding transfer finished",
		zap.String("simulation_id", sim.ID),
		zap.String("status", string(sim.Status)),
		zap.Duration("latency", time.Since(start)))

	if err := s.store.Update(ctx, sim); err != nil {
		return nil, fmt.Errorf("update simulation: %w", err)
	}
	s.metrics.observeSimulation(sim.Status)
	s.archiveReceipt(ctx, sim)

	return sim, nil
}

func (s *FundingService) Get(ctx context.Context, id string) (*FundingSimulation, error) {
	return s.store.Get(ctx, id)
}

func (s *FundingService) archiveReceipt(ctx context.Context, sim *FundingSimulation) {
	if s.archive == nil {
		return
	}
	body, err := json.Marshal(sim)
	if err != nil {
		s.log.Error("encode funding receipt", zap.Error(err))
		return
	}
	name := fmt.Sprintf("funding/%s.json", sim.ID)
	path, err := s.archive.Upload(ctx, name, bytes.NewReader(body), int64(len(body)), "application/json")
	if err != nil {
		s.log.Warn("archive funding receipt", zap.String("simulation_id", sim.ID), zap.Error(err))
		return
	}
	s.log.Debug("funding receipt archived", zap.String("path", path))
}
