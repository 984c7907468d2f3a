package ledger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"episim/internal/core"
)

// FeeRate is the share of every transfer debited from the sender and burned.
const FeeRate = 0.0017

const DefaultConfirmDelay = 2 * time.Second

var (
	ErrInsufficientFunds = errors.New("insufficient funds or wallet not found")
	ErrInvalidAmount     = errors.New("ledger: amount must be positive")
	ErrWalletNotFound    = errors.New("ledger: wallet not found")
	ErrRegistryClosed    = errors.New("ledger: registry closed")
)

// Fee returns the transfer fee for amount, floored to a whole unit.
func Fee(amount float64) float64 {
	return math.Floor(amount * FeeRate)
}

type AgentConfig struct {
	Role           string   `json:"role"`
	Name           string   `json:"name"`
	InitialFunding float64  `json:"initialFunding"`
	Permissions    []string `json:"permissions"`
}

// DefaultAgents is the seed set every new ledger starts with, in insertion order.
var DefaultAgents = []AgentConfig{
	{Role: string(core.RoleGovernment), Name: "Gov Agent", InitialFunding: 2500000},
	{Role: string(core.RoleNGO), Name: "NGO Agent", InitialFunding: 1800000},
	{Role: string(core.RoleHospital), Name: "Hospital Agent", InitialFunding: 950000},
	{Role: string(core.RoleResearcher), Name: "Researcher Agent", InitialFunding: 750000},
}

type account struct {
	wallet core.Wallet
	txs    []*core.Transaction
}

func (a *account) snapshot() core.Wallet {
	w := a.wallet
	w.Permissions = append([]string(nil), a.wallet.Permissions...)
	w.Transactions = copyTxs(a.txs)
	return w
}

func copyTxs(txs []*core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = *tx
	}
	return out
}

// MockLedger is an in-memory registry of synthetic agent wallets. Every identifier it
// produces (addresses, DIDs, keys, hashes, block heights) is random test data.
type MockLedger struct {
	mu        sync.RWMutex
	accounts  map[string]*account
	order     []string
	txs       map[string]*core.Transaction
	pending   map[*Confirmation]struct{}
	decisions []core.Decision
	closed    bool

	confirmDelay time.Duration
	seed         bool
	archive      core.ObjectStorage
	metrics      *core.Metrics
	log          *zap.Logger
}

type Option func(*MockLedger)

func WithConfirmDelay(d time.Duration) Option {
	return func(m *MockLedger) { m.confirmDelay = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(m *MockLedger) { m.log = log }
}

func WithMetrics(metrics *core.Metrics) Option {
	return func(m *MockLedger) { m.metrics = metrics }
}

// WithArchive stores decision logs in object storage.
func WithArchive(s core.ObjectStorage) Option {
	return func(m *MockLedger) { m.archive = s }
}

// WithoutSeed starts with an empty registry instead of DefaultAgents.
func WithoutSeed() Option {
	return func(m *MockLedger) { m.seed = false }
}

func NewMockLedger(opts ...Option) *MockLedger {
	m := &MockLedger{
		accounts:     make(map[string]*account),
		txs:          make(map[string]*core.Transaction),
		pending:      make(map[*Confirmation]struct{}),
		confirmDelay: DefaultConfirmDelay,
		seed:         true,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.seed {
		for _, cfg := range DefaultAgents {
			m.RegisterAgent(cfg)
		}
	}
	return m
}

// RegisterAgent always succeeds. The role is not validated.
func (m *MockLedger) RegisterAgent(cfg AgentConfig) core.Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()

	address := randomAddress()
	for m.accounts[address] != nil {
		address = randomAddress()
	}

	acc := &account{wallet: core.Wallet{
		ID:          "agent_" + uuid.NewString(),
		DID:         fmt.Sprintf("did:masumi:%s:%s", cfg.Role, randomBase36(12)),
		Address:     address,
		Role:        core.Role(cfg.Role),
		Name:        cfg.Name,
		Permissions: append([]string(nil), cfg.Permissions...),
		Balance:     cfg.InitialFunding,
		PublicKey:   "ed25519_pk" + randomBase36(20),
		PrivateKey:  "ed25519_sk" + randomBase36(20),
	}}
	m.accounts[address] = acc
	m.order = append(m.order, address)
	m.metrics.ObserveRegistration()

	m.log.Info("agent registered",
		zap.String("name", cfg.Name),
		zap.String("role", cfg.Role),
		zap.String("did", acc.wallet.DID),
		zap.String("address", address),
		zap.Float64("balance", cfg.InitialFunding))
	return acc.snapshot()
}

// TransferFunds debits amount plus fee from the sender and credits amount to the receiver
// when the receiver is registered. An unregistered receiver is treated as external: only
// the sender is debited. The returned transaction is pending; the Confirmation resolves
// once the simulated confirmation delay has elapsed.
func (m *MockLedger) TransferFunds(from, to string, amount float64, purpose string) (core.Transaction, *Confirmation, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return core.Transaction{}, nil, ErrInvalidAmount
	}
	fee := Fee(amount)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return core.Transaction{}, nil, ErrRegistryClosed
	}
	sender := m.accounts[from]
	if sender == nil || amount+fee > sender.wallet.Balance {
		m.metrics.ObserveTransfer("rejected", 0)
		return core.Transaction{}, nil, ErrInsufficientFunds
	}

	now := time.Now()
	id := "tx_" + uuid.NewString()
	sum := sha256.Sum256([]byte(id + now.String()))
	tx := &core.Transaction{
		ID:          id,
		Hash:        hex.EncodeToString(sum[:]),
		From:        from,
		To:          to,
		Amount:      amount,
		Fee:         fee,
		Purpose:     purpose,
		Timestamp:   now,
		Status:      core.TxPending,
		BlockHash:   "block_" + randomBase36(14),
		BlockHeight: 8000000 + rand.Int64N(1000000),
	}

	sender.wallet.Balance -= amount + fee
	sender.txs = append(sender.txs, tx)
	if receiver := m.accounts[to]; receiver != nil {
		receiver.wallet.Balance += amount
		if receiver != sender {
			receiver.txs = append(receiver.txs, tx)
		}
	}
	m.txs[tx.Hash] = tx

	c := &Confirmation{hash: tx.Hash, done: make(chan struct{})}
	m.pending[c] = struct{}{}
	c.timer = time.AfterFunc(m.confirmDelay, func() { m.confirm(c, now) })

	m.metrics.ObserveTransfer("accepted", fee)
	m.log.Info("transaction initiated",
		zap.String("purpose", purpose),
		zap.String("tx_hash", tx.Hash),
		zap.String("from", from),
		zap.String("to", to),
		zap.Float64("amount", amount),
		zap.Float64("fee", fee))
	return *tx, c, nil
}

func (m *MockLedger) confirm(c *Confirmation, submitted time.Time) {
	m.mu.Lock()
	if _, ok := m.pending[c]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.pending, c)
	tx := m.txs[c.hash]
	tx.Status = core.TxConfirmed
	c.tx = *tx
	m.mu.Unlock()

	m.metrics.ObserveConfirmation(time.Since(submitted))
	m.log.Info("transaction confirmed",
		zap.String("tx_hash", c.tx.Hash),
		zap.Int64("block_height", c.tx.BlockHeight))
	close(c.done)
}

// Transfer implements core.Transferer so funding simulations can settle on the mock ledger.
func (m *MockLedger) Transfer(_ context.Context, from, to string, amount float64) (string, error) {
	tx, _, err := m.TransferFunds(from, to, amount, "funding simulation")
	if err != nil {
		return "", err
	}
	return tx.Hash, nil
}

// AgentBalance returns 0 for an unknown address.
func (m *MockLedger) AgentBalance(address string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc := m.accounts[address]; acc != nil {
		return acc.wallet.Balance
	}
	return 0
}

// TransactionHistory returns the wallet's transactions in insertion order, or an empty slice.
func (m *MockLedger) TransactionHistory(address string) []core.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc := m.accounts[address]; acc != nil {
		return copyTxs(acc.txs)
	}
	return []core.Transaction{}
}

// WalletByRole returns the first registered wallet with role.
func (m *MockLedger) WalletByRole(role string) (core.Wallet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, addr := range m.order {
		if acc := m.accounts[addr]; string(acc.wallet.Role) == role {
			return acc.snapshot(), true
		}
	}
	return core.Wallet{}, false
}

func (m *MockLedger) Wallet(address string) (core.Wallet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc := m.accounts[address]; acc != nil {
		return acc.snapshot(), true
	}
	return core.Wallet{}, false
}

func (m *MockLedger) Wallets() []core.Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Wallet, 0, len(m.order))
	for _, addr := range m.order {
		out = append(out, m.accounts[addr].snapshot())
	}
	return out
}

// WalletInfo summarizes a wallet. LastActivity is the newest transaction time, or now.
func (m *MockLedger) WalletInfo(address string) (core.WalletInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc := m.accounts[address]
	if acc == nil {
		return core.WalletInfo{}, false
	}
	last := time.Now()
	if n := len(acc.txs); n > 0 {
		last = acc.txs[n-1].Timestamp
	}
	return core.WalletInfo{
		Address:          address,
		Balance:          acc.wallet.Balance,
		Role:             acc.wallet.Role,
		DID:              acc.wallet.DID,
		TransactionCount: len(acc.txs),
		LastActivity:     last,
	}, true
}

func (m *MockLedger) Transaction(hash string) (core.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tx := m.txs[hash]; tx != nil {
		return *tx, true
	}
	return core.Transaction{}, false
}

// AuditTrail commits to the wallet's current history with a Merkle root.
func (m *MockLedger) AuditTrail(address string) (core.AuditTrail, error) {
	m.mu.RLock()
	acc := m.accounts[address]
	if acc == nil {
		m.mu.RUnlock()
		return core.AuditTrail{}, ErrWalletNotFound
	}
	txs := copyTxs(acc.txs)
	m.mu.RUnlock()
	return core.BuildAuditTrail(address, txs)
}

// LogDecision records an agent decision under a synthetic log hash and archives it
// when an archive is configured.
func (m *MockLedger) LogDecision(ctx context.Context, agentID, decision string, impact map[string]any) (core.Decision, error) {
	if strings.TrimSpace(agentID) == "" || strings.TrimSpace(decision) == "" {
		return core.Decision{}, errors.New("ledger: agent id and decision are required")
	}
	d := core.Decision{
		AgentID:   agentID,
		Decision:  decision,
		Impact:    impact,
		LogHash:   "log_" + randomBase36(16),
		Timestamp: time.Now().UTC(),
	}

	if m.archive != nil {
		body, err := json.Marshal(d)
		if err != nil {
			return core.Decision{}, fmt.Errorf("encode decision: %w", err)
		}
		name := fmt.Sprintf("decisions/%s.json", d.LogHash)
		if _, err := m.archive.Upload(ctx, name, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
			return core.Decision{}, fmt.Errorf("decision logging failed: %w", err)
		}
	}

	m.mu.Lock()
	m.decisions = append(m.decisions, d)
	m.mu.Unlock()

	m.log.Info("decision logged",
		zap.String("agent_id", agentID),
		zap.String("decision", decision),
		zap.String("log_hash", d.LogHash))
	return d, nil
}

func (m *MockLedger) Decisions() []core.Decision {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.Decision(nil), m.decisions...)
}

// Close stops outstanding confirmation timers. Their waiters receive ErrRegistryClosed.
func (m *MockLedger) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for c := range m.pending {
		c.timer.Stop()
		c.err = ErrRegistryClosed
		close(c.done)
	}
	m.pending = make(map[*Confirmation]struct{})
}

// Confirmation tracks the asynchronous pending -> confirmed transition of one transfer.
type Confirmation struct {
	hash  string
	timer *time.Timer
	done  chan struct{}
	tx    core.Transaction
	err   error
}

func (c *Confirmation) Hash() string { return c.hash }

// Done is closed once the transaction is confirmed or the ledger is closed.
func (c *Confirmation) Done() <-chan struct{} { return c.done }

func (c *Confirmation) Wait(ctx context.Context) (core.Transaction, error) {
	select {
	case <-c.done:
		return c.tx, c.err
	case <-ctx.Done():
		return core.Transaction{}, ctx.Err()
	}
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return string(b)
}

func randomAddress() string {
	return "addr_test1q" + randomBase36(38)
}
